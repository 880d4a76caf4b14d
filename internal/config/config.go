package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port          string `yaml:"port" validate:"omitempty,numeric"`
		PublicURL     string `yaml:"publicUrl" validate:"omitempty,url"`
		ReadTimeout   string `yaml:"readTimeout"`
		WriteTimeout  string `yaml:"writeTimeout"`
		AllowedOrigin string `yaml:"allowedOrigin"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" validate:"omitempty,url"`
	} `yaml:"postgres"`
	Quiz struct {
		CacheTTL     string `yaml:"cacheTtl"`
		TickInterval string `yaml:"tickInterval"`
		Timezone     string `yaml:"timezone"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path. A missing file yields the zero config, which
// runs everything in memory.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field formats and reports every failing field at once.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("validate config: %w", err)
		}
		messages := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config:\n- %s", strings.Join(messages, "\n- "))
	}
	for name, raw := range map[string]string{
		"server.readTimeout":  cfg.Server.ReadTimeout,
		"server.writeTimeout": cfg.Server.WriteTimeout,
		"redis.ttl":           cfg.Redis.TTL,
		"quiz.cacheTtl":       cfg.Quiz.CacheTTL,
		"quiz.tickInterval":   cfg.Quiz.TickInterval,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if cfg.Quiz.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Quiz.Timezone); err != nil {
			return fmt.Errorf("invalid config: quiz.timezone: %w", err)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location returns the zone for unlock dates, time.Local when unset.
func (c Config) Location() *time.Location {
	if c.Quiz.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Quiz.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
