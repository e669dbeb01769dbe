// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scene reads YAML scene descriptions and builds geometry sets
// from them.
//
// A scene lists named sets. Each set may carry a mesh, point cloud,
// curves, a volume and instances of other sets in the same file. The set
// named by root is the one Build returns:
//
//	root: city
//	sets:
//	  - name: house
//	    mesh:
//	      positions: [[0,0,0], [1,0,0], [1,1,0], [0,1,0]]
//	      faces: [[0,1,2,3]]
//	  - name: city
//	    instances:
//	      - set: house
//	        translate: [0, 0, 0]
//	      - set: house
//	        translate: [5, 0, 0]
package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidScene wraps every validation failure.
	ErrInvalidScene = errors.New("invalid scene")

	// ErrUnknownSet indicates a root or instance naming a set that is not
	// in the scene.
	ErrUnknownSet = errors.New("unknown set")

	// ErrAttributeValues indicates an attribute with zero or several value
	// lists.
	ErrAttributeValues = errors.New("attribute needs exactly one value list")
)

var validate = validator.New()

// Vec3 is an [x, y, z] triple.
type Vec3 [3]float32

// Scene is a parsed scene file.
type Scene struct {
	// ID identifies the scene in logs and spans. Parse assigns a random
	// one when the file has none.
	ID   string    `yaml:"id" validate:"omitempty,uuid"`
	Root string    `yaml:"root" validate:"required"`
	Sets []SetSpec `yaml:"sets" validate:"required,min=1,unique=Name,dive"`

	// dir resolves relative volume sources.
	dir string
}

// SetSpec describes one set.
type SetSpec struct {
	Name       string          `yaml:"name" validate:"required"`
	Mesh       *MeshSpec       `yaml:"mesh,omitempty"`
	PointCloud *PointCloudSpec `yaml:"point_cloud,omitempty"`
	Curves     *CurvesSpec     `yaml:"curves,omitempty"`
	Volume     *VolumeSpec     `yaml:"volume,omitempty"`
	Instances  []InstanceSpec  `yaml:"instances,omitempty" validate:"dive"`
}

// MeshSpec lists mesh points, edges and faces. Each face is its list of
// point indices.
type MeshSpec struct {
	Positions  []Vec3          `yaml:"positions" validate:"required,min=1"`
	Edges      [][2]int32      `yaml:"edges,omitempty"`
	Faces      [][]int32       `yaml:"faces,omitempty"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty" validate:"dive"`
}

// PointCloudSpec lists points with optional radii and IDs.
type PointCloudSpec struct {
	Positions  []Vec3          `yaml:"positions" validate:"required,min=1"`
	Radius     []float32       `yaml:"radius,omitempty"`
	IDs        []int32         `yaml:"ids,omitempty"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty" validate:"dive"`
}

// CurvesSpec lists poly-curves.
type CurvesSpec struct {
	Curves     []CurveSpec     `yaml:"curves" validate:"required,min=1,dive"`
	Radius     []float32       `yaml:"radius,omitempty"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty" validate:"dive"`
}

// CurveSpec is one curve's points.
type CurveSpec struct {
	Points []Vec3 `yaml:"points" validate:"required,min=1"`
	Cyclic bool   `yaml:"cyclic,omitempty"`
}

// VolumeSpec lists inline grids or names a grid file to load on demand.
type VolumeSpec struct {
	Grids  []GridSpec `yaml:"grids,omitempty" validate:"dive"`
	Source string     `yaml:"source,omitempty" validate:"required_without=Grids"`
}

// GridSpec is a dense grid filled with one value.
type GridSpec struct {
	Name      string  `yaml:"name" validate:"required"`
	Dims      [3]int  `yaml:"dims" validate:"dive,gte=1,lte=1024"`
	Translate Vec3    `yaml:"translate,omitempty"`
	Fill      float32 `yaml:"fill,omitempty"`
}

// InstanceSpec places another set of the scene.
type InstanceSpec struct {
	Set       string `yaml:"set" validate:"required"`
	Translate Vec3   `yaml:"translate,omitempty"`
}

// AttributeSpec is a named attribute. Exactly one value list must be set.
type AttributeSpec struct {
	Name    string    `yaml:"name" validate:"required"`
	Domain  string    `yaml:"domain" validate:"required,oneof=point edge face corner curve instance"`
	Floats  []float32 `yaml:"floats,omitempty"`
	Ints    []int32   `yaml:"ints,omitempty"`
	Bools   []bool    `yaml:"bools,omitempty"`
	Vectors []Vec3    `yaml:"vectors,omitempty"`
}

// Load reads and parses the scene at path. Relative volume sources
// resolve against the file's directory.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes and validates a scene.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return &s, nil
}

// Validate checks field constraints and that every referenced set exists.
func (s *Scene) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	names := make(map[string]bool, len(s.Sets))
	for _, spec := range s.Sets {
		names[spec.Name] = true
	}
	if !names[s.Root] {
		return fmt.Errorf("%w: %w: root %q", ErrInvalidScene, ErrUnknownSet, s.Root)
	}
	for _, spec := range s.Sets {
		for _, inst := range spec.Instances {
			if !names[inst.Set] {
				return fmt.Errorf("%w: %w: %q instances %q", ErrInvalidScene, ErrUnknownSet, spec.Name, inst.Set)
			}
		}
	}
	return nil
}

func (s *Scene) lookup(name string) (*SetSpec, bool) {
	for i := range s.Sets {
		if s.Sets[i].Name == name {
			return &s.Sets[i], true
		}
	}
	return nil, false
}
