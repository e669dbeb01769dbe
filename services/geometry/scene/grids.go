// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scene

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AleutianAI/geoset/services/geometry/geomset"
	"gopkg.in/yaml.v3"
)

// GridFile is the on-disk form of a volume source.
type GridFile struct {
	Grids []GridSpec `yaml:"grids" validate:"required,min=1,dive"`
}

// FileGridLoader returns a loader reading GridFile YAML. Relative
// sources resolve against dir.
func FileGridLoader(dir string) *geomset.GridLoader {
	return geomset.NewGridLoader(func(ctx context.Context, source string) ([]*geomset.VolumeGrid, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := source
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read grid file: %w", err)
		}
		var f GridFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse grid file: %w", err)
		}
		if err := validate.Struct(&f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
		}

		grids := make([]*geomset.VolumeGrid, len(f.Grids))
		for i, g := range f.Grids {
			grids[i] = g.grid()
		}
		slog.Debug("grid file loaded",
			slog.String("path", path),
			slog.Int("grids", len(grids)),
		)
		return grids, nil
	})
}
