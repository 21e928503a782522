// Package config loads typed configuration from the environment with
// caarlos0/env, after reading an optional .env file with godotenv.
//
// Every package keeps its own config struct with env tags (tenancy.Config,
// pg.Config, redis.Config, httpserver.Config, logger.Config). Load parses
// each type once per process; Parse always reads the environment again.
// Types implementing Validator are validated after parsing:
//
//	var cfg tenancy.Config
//	if err := config.Load(&cfg); err != nil {
//		// ErrParsingConfig or ErrInvalidConfig, joined with the cause
//	}
package config
