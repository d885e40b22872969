package main

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	wal "github.com/nesv/waltail"
)

// Config represents a configuration file for the waltail command.
type Config struct {
	// Dir is the directory holding the transaction log files.
	Dir string `yaml:"dir"`

	// Prefix is the file name prefix of the log files.
	Prefix string `yaml:"prefix"`

	// Force skips entries with unsupported format versions, instead of
	// failing.
	Force bool `yaml:"force"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

// Sentinel errors for configuration validation.
var (
	ErrDirRequired     = errors.New("log directory required")
	ErrInvalidLogType  = errors.New("logging type must be \"text\" or \"json\"")
	ErrInvalidLogLevel = errors.New("unknown logging level")
)

// DefaultConfig returns a new instance of Config with defaults set.
func DefaultConfig() Config {
	return Config{
		Prefix: wal.DefaultPrefix,
		Logging: LoggingConfig{
			Level: "info",
			Type:  "text",
		},
	}
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return ErrDirRequired
	}
	switch c.Logging.Type {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalidLogType, "got %q", c.Logging.Type)
	}
	switch strings.ToUpper(c.Logging.Level) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return errors.Wrapf(ErrInvalidLogLevel, "got %q", c.Logging.Level)
	}
	return nil
}

// ReadConfigFile unmarshals config from filename.
// If expandEnv is true then environment variables are expanded in the config.
func ReadConfigFile(filename string, expandEnv bool) (Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return DefaultConfig(), errors.Wrap(err, "open config file")
	}
	defer f.Close()

	return ParseConfig(f, expandEnv)
}

// ParseConfig unmarshals config from a reader.
// If expandEnv is true then environment variables are expanded in the config.
func ParseConfig(r io.Reader, expandEnv bool) (Config, error) {
	config := DefaultConfig()

	buf, err := io.ReadAll(r)
	if err != nil {
		return config, errors.Wrap(err, "read config")
	}

	if expandEnv {
		buf = []byte(os.ExpandEnv(string(buf)))
	}

	if err := yaml.Unmarshal(buf, &config); err != nil {
		return config, errors.Wrap(err, "parse config")
	}
	if config.Prefix == "" {
		config.Prefix = wal.DefaultPrefix
	}
	return config, nil
}
