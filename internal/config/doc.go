// Package config defines the application configuration structure and
// loads it from environment variables and an optional config file.
// Environment variables (prefixed KEGG_) take precedence over file
// values, which take precedence over defaults.
package config
