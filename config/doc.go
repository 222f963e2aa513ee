// Package config provides configuration loading and validation for stackup.
//
// It uses Viper to load a YAML config file and environment variables, and
// godotenv to pick up a .env file. Values are merged in this order, later
// sources winning:
//
//	config file  <  .env / environment (STACKUP_ prefix)  <  overrides (CLI flags)
//
// # Usage
//
//	var cfg config.Config
//	err := config.LoadConfig("stackup", &cfg, config.WithEnvPrefix("STACKUP"))
//	cfg.ApplyDefaults()
//	err = cfg.Validate()
//
// Environment variables map onto nested keys by underscore position, so
// STACKUP_RUN_MAX_ATTEMPTS sets run.max_attempts.
package config
