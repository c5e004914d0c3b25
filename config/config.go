package config

import (
	"fmt"
	"net/url"

	"github.com/rohzb/gromex/internal/domain"
)

// Config carries one export run's settings. It is filled from the command
// line only: no environment variables are consulted, and in particular no
// environment credential source exists.
type Config struct {
	ServerURL   string
	Username    string
	Password    string // Empty means prompt interactively
	Destination string

	SaveSeparate bool
	SaveCombined bool

	MaxRetries int
}

// Validate fails fast, before any network activity, on settings that can
// never produce a working run.
func (c *Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrConfiguration)
	}
	if c.Destination == "" {
		return fmt.Errorf("%w: destination directory is required", domain.ErrConfiguration)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: retries must not be negative", domain.ErrConfiguration)
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid server URL %q", domain.ErrConfiguration, c.ServerURL)
	}

	return nil
}
