// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/geoset/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geoset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvMaxWorkers, "")
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.GreaterOrEqual(t, cfg.Modify.MaxWorkers, 1)
	assert.Equal(t, "geoset", cfg.Telemetry.ServiceName)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
log:
  level: debug
  json: true
modify:
  max_workers: 3
  sequential: true
telemetry:
  trace_exporter: stdout
  metrics_addr: ":9464"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 3, cfg.Modify.MaxWorkers)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter, "unset keys keep defaults")
	assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)

	opts := cfg.ModifyOptions()
	assert.Equal(t, 3, opts.MaxWorkers)
	assert.True(t, opts.Sequential)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvMaxWorkers, "2")
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Modify.MaxWorkers)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad level", body: "log:\n  level: loud\n"},
		{name: "zero workers", body: "modify:\n  max_workers: 0\n"},
		{name: "bad exporter", body: "telemetry:\n  metric_exporter: statsd\n"},
		{name: "bad metrics addr", body: "telemetry:\n  metrics_addr: nope\n"},
		{name: "bad env workers", env: map[string]string{EnvMaxWorkers: "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tt.body)

			_, err := Load(path)

			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingAndMalformedFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "log: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestConfig_Logging(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warning"
	cfg.Log.Dir = "~/.geoset/logs"

	lc, err := cfg.Logging()
	require.NoError(t, err)

	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.Equal(t, "geoset", lc.Service)
	assert.Equal(t, "~/.geoset/logs", lc.LogDir)
}
