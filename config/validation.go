package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration for structural problems: tag-declared
// constraints first, then the cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			return describeFieldErrors(fieldErrors)
		}
		return err
	}

	return validateDatabase(&cfg.Database)
}

// validateDatabase enforces that a usable connection target exists: either a
// full connection string or a host plus database name. An entirely empty
// database section is allowed for callers that only generate statements.
func validateDatabase(cfg *DatabaseConfig) error {
	if cfg.ConnectionString != "" {
		return nil
	}
	if cfg.Host == "" && cfg.Database == "" && cfg.Username == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("database config: host is required when no connection string is set")
	}
	if cfg.Database == "" {
		return fmt.Errorf("database config: database name is required when no connection string is set")
	}
	return nil
}

func describeFieldErrors(fieldErrors validator.ValidationErrors) error {
	parts := make([]string, len(fieldErrors))
	for i, fe := range fieldErrors {
		parts[i] = fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("config validation: %s", strings.Join(parts, "; "))
}
