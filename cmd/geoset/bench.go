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
	"strconv"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/geoset/services/geometry/cache"
	"github.com/AleutianAI/geoset/services/geometry/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var errBenchArgs = errors.New("goroutines and iterations must be positive")

func newBenchCacheCmd(a *app) *cobra.Command {
	var cfg benchConfig
	cmd := &cobra.Command{
		Use:   "bench-cache",
		Short: "Hammer one shared cache from many goroutines and report compute counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := telemetry.StartSpan(cmd.Context(), tracerName, "bench-cache",
				trace.WithAttributes(
					attribute.Int("goroutines", cfg.goroutines),
					attribute.Int("iterations", cfg.iterations),
				),
			)
			defer span.End()

			var res benchResult
			err := a.printer.WithSpinner("running cache bench", func() error {
				var err error
				res, err = runBench(ctx, cfg)
				return err
			})
			if err != nil {
				telemetry.RecordError(span, err)
				return err
			}
			a.logger.Debug("cache bench finished", "elapsed", res.elapsed, "computes", res.computes)

			p := a.printer
			p.Title("Shared cache bench")
			p.KeyValues("bench", [][2]string{
				{"goroutines", strconv.Itoa(cfg.goroutines)},
				{"iterations", strconv.Itoa(cfg.iterations)},
				{"dirty_every", strconv.Itoa(cfg.dirtyEvery)},
				{"computes", strconv.FormatInt(res.computes, 10)},
				{"detaches", strconv.FormatInt(res.detaches, 10)},
				{"elapsed", res.elapsed.String()},
			})
			if res.sourceValue == 1 {
				p.Success("source handle computed once")
			} else {
				p.Warning(fmt.Sprintf("source handle holds compute #%d", res.sourceValue))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.goroutines, "goroutines", 8, "concurrent workers")
	cmd.Flags().IntVar(&cfg.iterations, "iterations", 10000, "Ensure calls per worker")
	cmd.Flags().IntVar(&cfg.dirtyEvery, "dirty-every", 100, "invalidate each worker's copy after this many calls, 0 never")
	return cmd
}

type benchConfig struct {
	goroutines int
	iterations int
	dirtyEvery int
}

type benchResult struct {
	computes    int64
	detaches    int64
	sourceValue int64
	elapsed     time.Duration
}

// runBench shares one cache between a source handle and one copy per
// worker. Workers call Ensure on both and periodically invalidate their
// copy. The source must keep its first computed value throughout.
func runBench(ctx context.Context, cfg benchConfig) (benchResult, error) {
	if cfg.goroutines < 1 || cfg.iterations < 1 {
		return benchResult{}, errBenchArgs
	}

	var computes, detaches atomic.Int64
	compute := func(v *int64) { *v = computes.Add(1) }

	src := cache.NewShared[int64]("bench.value")
	defer src.Release()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for range cfg.goroutines {
		h := src.Copy()
		g.Go(func() error {
			defer h.Release()
			for i := range cfg.iterations {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				src.Ensure(compute)
				h.Ensure(compute)
				if cfg.dirtyEvery > 0 && (i+1)%cfg.dirtyEvery == 0 {
					if h.IsShared() {
						detaches.Add(1)
					}
					h.TagDirty()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return benchResult{}, err
	}

	return benchResult{
		computes:    computes.Load(),
		detaches:    detaches.Load(),
		sourceValue: src.Data(),
		elapsed:     time.Since(start),
	}, nil
}
