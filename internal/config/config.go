// Package config loads runtime configuration from environment
// variables. Required variables abort startup with a fatal log; the
// optional Redis, cache and rate-limit blocks degrade gracefully when
// unset.
package config

import (
	"log"
	"os"
)

// Config holds the core runtime configuration. Each field corresponds
// to one environment variable.
type Config struct {
	Env       string // APP_ENV: application environment (dev/test/prod)
	Port      string // APP_PORT: HTTP port to listen on
	DBUser    string // DB_USER: database username
	DBPass    string // DB_PASS: database password (optional)
	DBHost    string // DB_HOST: database host address
	DBPort    string // DB_PORT: database port number
	DBName    string // DB_NAME: database name
	JWTSecret string // JWT_SECRET: secret used to verify access tokens
}

// Load reads the core configuration. Missing required variables cause
// the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
