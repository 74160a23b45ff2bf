// Package config loads the YAML configuration shared by buses and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging LoggingConfig        `yaml:"logging"`
	Buses   map[string]BusConfig `yaml:"buses" validate:"dive"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// BusConfig holds per-bus overrides. Capacity is keyed by message name and
// applies when the message is first linked, unless the code set an explicit
// capacity for it.
type BusConfig struct {
	Capacity map[string]int `yaml:"capacity" validate:"dive,keys,required,endkeys,gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Buses: map[string]BusConfig{},
	}
}

// Load reads configuration from file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, len(fieldErrs))
	for i, e := range fieldErrs {
		messages[i] = fmt.Sprintf("%s: failed %q (value %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return errors.New(strings.Join(messages, "; "))
}

// Bus returns the overrides for the named bus, or an empty config.
func (c *Config) Bus(name string) BusConfig {
	if c == nil {
		return BusConfig{}
	}
	return c.Buses[name]
}
