package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using `env`
// tags. internal/config builds the full service Config on top of this.
//
// Example:
//
//	type Config struct {
//	    Port       int `env:"POS_HTTP_PORT" envDefault:"8010"`
//	    PaperWidth int `env:"PAPER_WIDTH" envDefault:"32"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
