// Package telemetry wires OpenTelemetry for the API, the worker and the CLI.
//
// Traces and logs are exported over OTLP HTTP when an endpoint is
// configured; otherwise spans are still created so request ids and log
// correlation work locally.
package telemetry
