// Package config loads server configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY, GENWEB_PROVIDER, PORT, ...)
//  2. YAML file passed with -config, or ./genweb.yaml when present
//  3. Built-in defaults
//
// Durations in the YAML file use Go syntax ("90s", "1h").
//
// Example:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
