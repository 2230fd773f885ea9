package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads the YAML config and then each optional .env file, in order.
// Variables already set in the process environment win over both, and
// env-default tags fill whatever is still empty.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		return nil, errors.New("no config file given")
	}

	cfg := &config{}
	for _, path := range paths {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}
	return cfg, nil
}
