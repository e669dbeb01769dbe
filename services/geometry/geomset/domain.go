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

// Domain is an element category within a payload.
type Domain uint8

const (
	DomainPoint Domain = iota
	DomainEdge
	DomainFace
	DomainCorner
	DomainCurve
	DomainInstance
)

var domainNames = map[Domain]string{
	DomainPoint:    "point",
	DomainEdge:     "edge",
	DomainFace:     "face",
	DomainCorner:   "corner",
	DomainCurve:    "curve",
	DomainInstance: "instance",
}

// domainPriority orders domains for merging; the higher value wins.
var domainPriority = map[Domain]int{
	DomainInstance: 0,
	DomainCurve:    1,
	DomainFace:     2,
	DomainEdge:     3,
	DomainPoint:    4,
	DomainCorner:   5,
}

func (d Domain) String() string {
	if n, ok := domainNames[d]; ok {
		return n
	}
	return fmt.Sprintf("domain(%d)", uint8(d))
}

// ParseDomain returns the domain with the given name.
func ParseDomain(name string) (Domain, error) {
	for d, n := range domainNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDomain, name)
}

// HighestPriorityDomain returns the domain that can represent all of the
// given domains without losing detail. It returns DomainPoint for an
// empty input.
func HighestPriorityDomain(domains ...Domain) Domain {
	best, bestPriority := DomainPoint, -1
	for _, d := range domains {
		if p := domainPriority[d]; p > bestPriority {
			best, bestPriority = d, p
		}
	}
	return best
}

// DataType is the value type of an attribute.
type DataType uint8

// Data types are declared in increasing complexity.
const (
	DataTypeBool DataType = iota
	DataTypeInt8
	DataTypeInt2
	DataTypeInt32
	DataTypeFloat
	DataTypeFloat2
	DataTypeFloat3
	DataTypeColorByte
	DataTypeQuaternion
	DataTypeColorFloat
	DataTypeFloat4x4
	DataTypeString
)

var dataTypeNames = [...]string{
	DataTypeBool:       "bool",
	DataTypeInt8:       "int8",
	DataTypeInt2:       "int2",
	DataTypeInt32:      "int32",
	DataTypeFloat:      "float",
	DataTypeFloat2:     "float2",
	DataTypeFloat3:     "float3",
	DataTypeColorByte:  "color_byte",
	DataTypeQuaternion: "quaternion",
	DataTypeColorFloat: "color_float",
	DataTypeFloat4x4:   "float4x4",
	DataTypeString:     "string",
}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("datatype(%d)", uint8(t))
}

// HighestComplexityType returns the type every given type converts to
// without losing information. It returns DataTypeBool for an empty input.
// Strings never take part in merging.
func HighestComplexityType(types ...DataType) DataType {
	best := DataTypeBool
	for _, t := range types {
		if t > best && t != DataTypeString {
			best = t
		}
	}
	return best
}
