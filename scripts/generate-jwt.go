package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Mints an HS256 token for calling /api/generate-jobs locally.
func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET environment variable must be set")
		fmt.Fprintln(os.Stderr, "Usage: JWT_SECRET=secret [JWT_ISSUER=recipegen] [JWT_SUB=user-id] [JWT_TTL=24h] go run scripts/generate-jwt.go")
		os.Exit(1)
	}

	sub := os.Getenv("JWT_SUB")
	if sub == "" {
		sub = "local-cook"
	}

	ttl := time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid JWT_TTL %q\n", raw)
			os.Exit(1)
		}
		ttl = d
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    os.Getenv("JWT_ISSUER"),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
}
