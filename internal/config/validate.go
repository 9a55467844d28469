package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/adamancini/updsync/internal/types"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for required fields and valid values. All
// problems are reported together.
func Validate(c *Config) error {
	var result *multierror.Error

	if err := types.Provider(c.Provider).Validate(); err != nil {
		result = multierror.Append(result, ValidationError{Field: "provider", Message: err.Error()})
	}
	if c.Workers < 0 {
		result = multierror.Append(result, ValidationError{Field: "workers", Message: "must be positive"})
	}
	if c.App.InstallPath != "" && c.App.InstallCommand != "" {
		result = multierror.Append(result, ValidationError{
			Field:   "app",
			Message: "install_path and install_command are mutually exclusive",
		})
	}
	if owner, repo, ok := strings.Cut(c.GitHub.AppRepo, "/"); !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		result = multierror.Append(result, ValidationError{
			Field:   "github.app_repo",
			Message: fmt.Sprintf("invalid repository '%s' (must be owner/repo)", c.GitHub.AppRepo),
		})
	}
	if d, err := time.ParseDuration(c.HTTP.Timeout); err != nil || d <= 0 {
		result = multierror.Append(result, ValidationError{
			Field:   "http.timeout",
			Message: fmt.Sprintf("invalid duration '%s'", c.HTTP.Timeout),
		})
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return fmt.Sprintf("validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return result
}
