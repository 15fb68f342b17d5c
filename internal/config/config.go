package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string
	LogLevel       string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTIssuer string

	HuggingFaceKey string
	OpenAIKey      string
	GroqKey        string
	GeminiKey      string
	SpoonacularKey string

	AWSRegion              string
	SupabaseURL            string
	SupabaseServiceRoleKey string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port           string
	AllowedOrigins []string

	Generation GenerationConfig
	Detection  DetectionConfig
	Lookup     LookupConfig
	Storage    StorageConfig

	// set when the YAML overlay decided a boolean that defaults to true
	doSampleSet      bool
	lookupEnabledSet bool
}

// GenerationConfig selects the text model and its decoding settings.
type GenerationConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	FallbackEnabled   bool          `yaml:"fallback_enabled"`
	FallbackProvider  string        `yaml:"fallback_provider"`
	FallbackModel     string        `yaml:"fallback_model"`
	Count             int           `yaml:"count"`
	MaxLength         int           `yaml:"max_length"`
	MinLength         int           `yaml:"min_length"`
	NoRepeatNgramSize int           `yaml:"no_repeat_ngram_size"`
	DoSample          bool          `yaml:"do_sample"`
	TopK              int           `yaml:"top_k"`
	TopP              float64       `yaml:"top_p"`
	MaxInputLength    int           `yaml:"max_input_length"`
	SpecialTokens     []string      `yaml:"special_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
}

// DetectionConfig selects the vision backend used for photos.
type DetectionConfig struct {
	Provider      string  `yaml:"provider"`
	Model         string  `yaml:"model"`
	Endpoint      string  `yaml:"endpoint"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// LookupConfig controls the Spoonacular fallback.
type LookupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	BaseURL  string        `yaml:"base_url"`
	Number   int           `yaml:"number"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// StorageConfig selects where uploaded photos are kept.
type StorageConfig struct {
	Backend   string        `yaml:"backend"`
	Dir       string        `yaml:"dir"`
	Bucket    string        `yaml:"bucket"`
	BaseURL   string        `yaml:"base_url"`
	Retention time.Duration `yaml:"retention"`
}

// yamlConfig mirrors the overlay file. Pointers distinguish unset booleans.
type yamlConfig struct {
	Generation struct {
		Provider          string        `yaml:"provider"`
		Model             string        `yaml:"model"`
		FallbackEnabled   *bool         `yaml:"fallback_enabled"`
		FallbackProvider  string        `yaml:"fallback_provider"`
		FallbackModel     string        `yaml:"fallback_model"`
		Count             int           `yaml:"count"`
		MaxLength         int           `yaml:"max_length"`
		MinLength         int           `yaml:"min_length"`
		NoRepeatNgramSize int           `yaml:"no_repeat_ngram_size"`
		DoSample          *bool         `yaml:"do_sample"`
		TopK              int           `yaml:"top_k"`
		TopP              float64       `yaml:"top_p"`
		MaxInputLength    int           `yaml:"max_input_length"`
		SpecialTokens     []string      `yaml:"special_tokens"`
		Timeout           time.Duration `yaml:"timeout"`
	} `yaml:"generation"`
	Detection DetectionConfig `yaml:"detection"`
	Lookup    struct {
		Enabled  *bool         `yaml:"enabled"`
		BaseURL  string        `yaml:"base_url"`
		Number   int           `yaml:"number"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"lookup"`
	Storage StorageConfig `yaml:"storage"`
}

func Load() (*Config, error) {
	cfg, err := LoadLocal()
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadLocal reads the environment and config.yaml and applies defaults, but
// only checks what a standalone generation run needs.
func LoadLocal() (*Config, error) {
	cfg := fromEnv()

	if err := cfg.LoadFromYAML(envOr("CONFIG_FILE", "config.yaml")); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.ValidateGeneration(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		LogLevel:                 os.Getenv("LOG_LEVEL"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		JWTIssuer:                os.Getenv("JWT_ISSUER"),
		HuggingFaceKey:           os.Getenv("HUGGINGFACE_API_KEY"),
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		GroqKey:                  os.Getenv("GROQ_API_KEY"),
		GeminiKey:                os.Getenv("GEMINI_API_KEY"),
		SpoonacularKey:           os.Getenv("SPOONACULAR_API_KEY"),
		AWSRegion:                os.Getenv("AWS_REGION"),
		SupabaseURL:              os.Getenv("SUPABASE_URL"),
		SupabaseServiceRoleKey:   os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
		AllowedOrigins:           splitList(os.Getenv("ALLOWED_ORIGINS")),
		Storage: StorageConfig{
			Backend: os.Getenv("STORAGE_BACKEND"),
			Bucket:  os.Getenv("S3_BUCKET_NAME"),
		},
	}
}

func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	g := y.Generation
	setString(&c.Generation.Provider, g.Provider)
	setString(&c.Generation.Model, g.Model)
	setString(&c.Generation.FallbackProvider, g.FallbackProvider)
	setString(&c.Generation.FallbackModel, g.FallbackModel)
	setInt(&c.Generation.Count, g.Count)
	setInt(&c.Generation.MaxLength, g.MaxLength)
	setInt(&c.Generation.MinLength, g.MinLength)
	setInt(&c.Generation.NoRepeatNgramSize, g.NoRepeatNgramSize)
	setInt(&c.Generation.TopK, g.TopK)
	setInt(&c.Generation.MaxInputLength, g.MaxInputLength)
	if g.TopP != 0 {
		c.Generation.TopP = g.TopP
	}
	if len(g.SpecialTokens) > 0 {
		c.Generation.SpecialTokens = g.SpecialTokens
	}
	if g.Timeout != 0 {
		c.Generation.Timeout = g.Timeout
	}
	if g.DoSample != nil {
		c.Generation.DoSample = *g.DoSample
		c.doSampleSet = true
	}
	if g.FallbackEnabled != nil {
		c.Generation.FallbackEnabled = *g.FallbackEnabled
	}

	setString(&c.Detection.Provider, y.Detection.Provider)
	setString(&c.Detection.Model, y.Detection.Model)
	setString(&c.Detection.Endpoint, y.Detection.Endpoint)
	if y.Detection.MinConfidence != 0 {
		c.Detection.MinConfidence = y.Detection.MinConfidence
	}

	setString(&c.Lookup.BaseURL, y.Lookup.BaseURL)
	setInt(&c.Lookup.Number, y.Lookup.Number)
	if y.Lookup.CacheTTL != 0 {
		c.Lookup.CacheTTL = y.Lookup.CacheTTL
	}
	if y.Lookup.Enabled != nil {
		c.Lookup.Enabled = *y.Lookup.Enabled
		c.lookupEnabledSet = true
	}

	setString(&c.Storage.Backend, y.Storage.Backend)
	setString(&c.Storage.Dir, y.Storage.Dir)
	setString(&c.Storage.Bucket, y.Storage.Bucket)
	setString(&c.Storage.BaseURL, y.Storage.BaseURL)
	if y.Storage.Retention != 0 {
		c.Storage.Retention = y.Storage.Retention
	}

	return nil
}

// SetDefaults fills every unset field with the values the service ships with.
func (c *Config) SetDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.ServiceName == "" {
		c.ServiceName = "recipegen"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Port == "" {
		c.Port = "8000"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}

	c.SetGenerationDefaults()

	if c.Detection.Provider == "" {
		c.Detection.Provider = "openai"
	}
	if c.Detection.Model == "" {
		c.Detection.Model = DefaultModel(c.Detection.Provider)
	}
	if c.Detection.MinConfidence == 0 {
		c.Detection.MinConfidence = 0.5
	}

	if !c.lookupEnabledSet {
		c.Lookup.Enabled = true
	}
	if c.Lookup.BaseURL == "" {
		c.Lookup.BaseURL = "https://api.spoonacular.com"
	}
	if c.Lookup.Number == 0 {
		c.Lookup.Number = 5
	}
	if c.Lookup.CacheTTL == 0 {
		c.Lookup.CacheTTL = 6 * time.Hour
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "static"
	}
	if c.Storage.Retention == 0 {
		c.Storage.Retention = 24 * time.Hour
	}
}

// SetGenerationDefaults applies the decoding settings of the recipe model.
func (c *Config) SetGenerationDefaults() {
	g := &c.Generation
	if g.Provider == "" {
		g.Provider = "huggingface"
	}
	if g.Model == "" {
		g.Model = DefaultModel(g.Provider)
	}
	if g.FallbackEnabled && g.FallbackProvider == "" {
		g.FallbackProvider = "openai"
	}
	if g.FallbackEnabled && g.FallbackModel == "" {
		g.FallbackModel = DefaultModel(g.FallbackProvider)
	}
	if g.Count == 0 {
		g.Count = 1
	}
	if g.MaxLength == 0 {
		g.MaxLength = 512
	}
	if g.MinLength == 0 {
		g.MinLength = 64
	}
	if g.NoRepeatNgramSize == 0 {
		g.NoRepeatNgramSize = 3
	}
	if !c.doSampleSet {
		g.DoSample = true
	}
	if g.TopK == 0 {
		g.TopK = 60
	}
	if g.TopP == 0 {
		g.TopP = 0.95
	}
	if g.MaxInputLength == 0 {
		g.MaxInputLength = 256
	}
	if g.Timeout == 0 {
		g.Timeout = 120 * time.Second
	}
}

// DefaultModel returns the model used when a provider is selected without one.
func DefaultModel(provider string) string {
	switch provider {
	case "huggingface":
		return "flax-community/t5-recipe-generation"
	case "openai":
		return "gpt-4o-mini"
	case "groq":
		return "llama-3.3-70b-versatile"
	case "gemini":
		return "gemini-1.5-flash"
	default:
		return ""
	}
}

// ValidateGeneration checks that the selected text providers have credentials.
func (c *Config) ValidateGeneration() error {
	if err := c.requireProviderKey(c.Generation.Provider); err != nil {
		return err
	}
	if c.Generation.FallbackEnabled {
		if err := c.requireProviderKey(c.Generation.FallbackProvider); err != nil {
			return err
		}
	}
	if c.Generation.Count < 1 || c.Generation.Count > 5 {
		return fmt.Errorf("generation count must be between 1 and 5, got %d", c.Generation.Count)
	}
	return nil
}

func (c *Config) requireProviderKey(provider string) error {
	switch provider {
	case "huggingface":
		if c.HuggingFaceKey == "" {
			return fmt.Errorf("HUGGINGFACE_API_KEY is required")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case "groq":
		if c.GroqKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown generation provider %q", provider)
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	switch c.Detection.Provider {
	case "yolo":
		if c.Detection.Endpoint == "" {
			return fmt.Errorf("detection endpoint is required for the yolo provider")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai detection")
		}
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for gemini detection")
		}
	default:
		return fmt.Errorf("unknown detection provider %q", c.Detection.Provider)
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required for the s3 backend")
		}
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// OTLPHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k1=v1,k2=v2").
func (c *Config) OTLPHeaders() map[string]string {
	headers := map[string]string{}
	for _, pair := range splitList(c.OtelExporterOTLPHeaders) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
