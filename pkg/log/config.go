package log

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	levels  = []string{"debug", "info", "warn", "error", "fatal"}
	formats = []string{"json", "console"}
)

// Config selects the level, encoding and sink of the service logger. An
// OutputPath other than stdout or stderr is a file rotated by size.
type Config struct {
	Level       string
	Format      string
	Environment string
	ServiceName string
	Version     string

	OutputPath       string
	FileMaxSizeInMB  int
	FileMaxAgeInDays int
	FileMaxBackups   int
	CompressRotated  bool

	DisableStacktrace bool
}

func (c *Config) Validate() error {
	if !lo.Contains(levels, strings.ToLower(c.Level)) {
		return fmt.Errorf("invalid log level %q, must be one of %s", c.Level, strings.Join(levels, ", "))
	}
	if !lo.Contains(formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("invalid log format %q, must be one of %s", c.Format, strings.Join(formats, ", "))
	}
	if c.OutputPath == "" {
		return fmt.Errorf("log output path is required")
	}
	if !isStdStream(c.OutputPath) {
		if c.FileMaxSizeInMB <= 0 || c.FileMaxAgeInDays <= 0 {
			return fmt.Errorf("log file size and age limits must be positive")
		}
		if c.FileMaxBackups < 0 {
			return fmt.Errorf("log file backups must not be negative")
		}
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Level:            "info",
		Format:           "json",
		Environment:      "local",
		ServiceName:      "go-rbac-admin",
		Version:          "1.0.0",
		OutputPath:       "stdout",
		FileMaxSizeInMB:  100,
		FileMaxAgeInDays: 30,
		FileMaxBackups:   10,
		CompressRotated:  true,
	}
}

func isStdStream(path string) bool {
	return path == "stdout" || path == "stderr"
}
