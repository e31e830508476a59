// Copyright 2026 The FacilityOS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Store         StoreConfig         `koanf:"store"`
	Audit         AuditConfig         `koanf:"audit"`
	Observability ObservabilityConfig `koanf:"observability"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         string        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// StoreConfig holds the embedded key-value store configuration.
type StoreConfig struct {
	// Path of the buntdb file; ":memory:" keeps the store ephemeral.
	Path string `koanf:"path"`
}

// AuditConfig holds audit dispatch configuration.
type AuditConfig struct {
	BufferSize int `koanf:"buffer_size"`
}

// ObservabilityConfig holds logging and tracing configuration.
type ObservabilityConfig struct {
	LogLevel       string `koanf:"log_level"`
	LogFormat      string `koanf:"log_format"`
	OTELEnabled    bool   `koanf:"otel_enabled"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// Load reads configuration. Loading order:
//
//  1. config.yaml in CONFIG_DIR (optional)
//  2. environment variables with prefix FOS_ mapped using __ as the
//     nested separator, e.g. FOS_SERVER__PORT, FOS_STORE__PATH
//
// Defaults apply for anything left unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	path := configDir + "/config.yaml"
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("FOS_", ".", func(s string) string {
		// FOS_SERVER__PORT -> server.port
		s = strings.TrimPrefix(s, "FOS_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Store: StoreConfig{
			Path: "facilityos.db",
		},
		Audit: AuditConfig{
			BufferSize: 256,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			OTELEnabled:    false,
			ServiceName:    "facilityos",
			ServiceVersion: "dev",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}
