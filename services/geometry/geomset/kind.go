// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package geomset

import "fmt"

// Kind identifies a component slot in a Set.
type Kind uint8

const (
	KindMesh Kind = iota
	KindCurve
	KindPointCloud
	KindVolume
	KindInstance
	KindEdit

	numKinds
)

var kindNames = [numKinds]string{
	KindMesh:       "mesh",
	KindCurve:      "curve",
	KindPointCloud: "pointcloud",
	KindVolume:     "volume",
	KindInstance:   "instance",
	KindEdit:       "edit",
}

// AllKinds returns every kind in slot order.
func AllKinds() []Kind {
	kinds := make([]Kind, numKinds)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// RealizedKinds returns the kinds that carry geometry of their own.
func RealizedKinds() []Kind {
	return []Kind{KindMesh, KindCurve, KindPointCloud, KindVolume}
}

// Valid reports whether k is part of the kind set.
func (k Kind) Valid() bool {
	return k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, name)
}

// mustValid panics when k is outside the kind set.
func (k Kind) mustValid() {
	if !k.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidKind, uint8(k)))
	}
}
