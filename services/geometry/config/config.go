// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads geoset runtime settings from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AleutianAI/geoset/pkg/logging"
	"github.com/AleutianAI/geoset/services/geometry/geomset"
	"github.com/AleutianAI/geoset/services/geometry/telemetry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read.
const (
	EnvLogLevel   = "GEOSET_LOG_LEVEL"
	EnvMaxWorkers = "GEOSET_MAX_WORKERS"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config is the root of geoset.yaml.
type Config struct {
	Log       LogConfig        `yaml:"log"`
	Modify    ModifyConfig     `yaml:"modify"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// LogConfig selects log level, format and optional file output.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

// ModifyConfig bounds ModifyGeometrySets parallelism.
type ModifyConfig struct {
	MaxWorkers int  `yaml:"max_workers" validate:"gte=1,lte=1024"`
	Sequential bool `yaml:"sequential"`
}

// Default returns the built-in configuration without environment
// overrides.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Modify: ModifyConfig{
			MaxWorkers: geomset.DefaultModifyOptions().MaxWorkers,
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvMaxWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvMaxWorkers, v)
		}
		c.Modify.MaxWorkers = n
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ModifyOptions converts the modify section for ModifyGeometrySets.
func (c *Config) ModifyOptions() geomset.ModifyOptions {
	return geomset.ModifyOptions{
		MaxWorkers: c.Modify.MaxWorkers,
		Sequential: c.Modify.Sequential,
	}
}

// Logging converts the log section to a logger configuration.
func (c *Config) Logging() (logging.Config, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{
		Level:   level,
		JSON:    c.Log.JSON,
		LogDir:  c.Log.Dir,
		Service: c.Telemetry.ServiceName,
	}, nil
}
