// Package config resolves nesting settings from multiple sources (YAML file,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. The result is validated before use.
package config
