// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AleutianAI/geoset/pkg/logging"
	"github.com/AleutianAI/geoset/pkg/ux"
	"github.com/AleutianAI/geoset/services/geometry/config"
	"github.com/AleutianAI/geoset/services/geometry/geomset"
	"github.com/AleutianAI/geoset/services/geometry/scene"
	"github.com/AleutianAI/geoset/services/geometry/telemetry"
	"github.com/spf13/cobra"
)

const tracerName = "geoset.cli"

// app holds state shared by all subcommands for one invocation.
type app struct {
	out io.Writer

	configPath      string
	logLevel        string
	jsonLogs        bool
	metricsExporter string
	metricsAddr     string
	outputMode      string

	cfg      config.Config
	logger   *logging.Logger
	printer  *ux.Printer
	shutdown func(context.Context) error
	server   *http.Server
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "geoset",
		Short:         "Inspect and modify copy-on-write geometry sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to geoset.yaml")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.jsonLogs, "json-logs", false, "write logs as JSON")
	flags.StringVar(&a.metricsExporter, "metrics-exporter", "", "metric exporter: prometheus, stdout, none")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve /metrics on this address while the command runs")
	flags.StringVar(&a.outputMode, "output", "styled", "output mode: styled, plain, machine")

	root.AddCommand(
		newInspectCmd(a),
		newModifyCmd(a),
		newBenchCacheCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("json-logs") {
		cfg.Log.JSON = a.jsonLogs
	}
	if flags.Changed("metrics-exporter") {
		cfg.Telemetry.MetricExporter = a.metricsExporter
	}
	if flags.Changed("metrics-addr") {
		cfg.Telemetry.MetricsAddr = a.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	mode, err := ux.ParseMode(a.outputMode)
	if err != nil {
		return err
	}
	a.printer = ux.NewPrinter(a.out, mode)

	lc, err := cfg.Logging()
	if err != nil {
		return err
	}
	lc.Output = cmd.ErrOrStderr()
	a.logger = logging.New(lc)
	logging.SetDefault(a.logger)

	shutdown, err := telemetry.Init(cmd.Context(), cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.shutdown = shutdown

	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		h := telemetry.MetricsHandler()
		if h == nil {
			a.logger.Warn("metrics address set without the prometheus exporter", "addr", addr)
			return nil
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", h)
		a.server = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "addr", addr, "error", err)
			}
		}()
		a.logger.Info("serving metrics", "addr", addr)
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics server: %w", err))
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cacheHooks logs display-cache invalidations at debug level.
func (a *app) cacheHooks() *geomset.BatchCacheHooks {
	return &geomset.BatchCacheHooks{
		MeshDirty: func(m *geomset.Mesh, mode geomset.BatchDirtyMode) {
			a.logger.Debug("mesh display cache dirty", "mode", mode.String(), "points", m.NumPoints())
		},
		CurvesDirty: func(c *geomset.Curves, mode geomset.BatchDirtyMode) {
			a.logger.Debug("curves display cache dirty", "mode", mode.String(), "curves", c.NumCurves())
		},
		PointCloudDirty: func(p *geomset.PointCloud, mode geomset.BatchDirtyMode) {
			a.logger.Debug("point cloud display cache dirty", "mode", mode.String(), "points", p.NumPoints())
		},
	}
}

// loadScene reads and builds the scene at path.
func (a *app) loadScene(ctx context.Context, path string) (*scene.Scene, *geomset.Set, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "scene.load")
	defer span.End()

	sc, err := scene.Load(path)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	root, err := sc.Build(scene.WithBatchCacheHooks(a.cacheHooks()))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, fmt.Errorf("build scene %s: %w", path, err)
	}
	telemetry.LoggerWithTrace(ctx, a.logger.Slog()).Info("scene built",
		"scene", sc.ID,
		"path", path,
		"root", root.Name(),
	)
	return sc, root, nil
}
