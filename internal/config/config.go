package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const defaultPort = "8080"
const defaultMaxTables = 20

type Config struct {
	dBConnectionString string
	sentryDSN          string
	port               string
	defaultMaxTables   int
	env                environment
}

func (c *Config) DBConnectionString() string {
	return c.dBConnectionString
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) Port() string {
	return c.port
}

// DefaultMaxTables seeds the settings collaborator on first boot; afterwards
// the persisted value wins.
func (c *Config) DefaultMaxTables() int {
	return c.defaultMaxTables
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{env: %s, port: %s, defaultMaxTables: %d, ...}", string(c.env), c.port, c.defaultMaxTables)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("GUNSLINGER_ENVIRONMENT")
	if !ok {
		return missingKey("GUNSLINGER_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: GUNSLINGER_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	dbConnectionString := os.Getenv("DB_CONNECTION_STRING")
	sentryDSN := os.Getenv("SENTRY_DSN")

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	maxTables := defaultMaxTables
	if rawMaxTables := os.Getenv("GUNSLINGER_DEFAULT_MAX_TABLES"); rawMaxTables != "" {
		parsed, err := strconv.Atoi(rawMaxTables)
		if err != nil || parsed < 1 || parsed > 200 {
			return Config{}, fmt.Errorf("%w: GUNSLINGER_DEFAULT_MAX_TABLES (%s)", ErrInvalidValue, rawMaxTables)
		}
		maxTables = parsed
	}

	if env == production || env == staging {
		if dbConnectionString == "" {
			return missingKey("DB_CONNECTION_STRING")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		dBConnectionString: dbConnectionString,
		sentryDSN:          sentryDSN,
		port:               port,
		defaultMaxTables:   maxTables,
		env:                env,
	}, nil
}
