// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeStyled},
		{in: "Styled", want: ModeStyled},
		{in: "plain", want: ModePlain},
		{in: "machine", want: ModeMachine},
		{in: "loud", want: ModeStyled, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestPrinter_MachineMode(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModeMachine)

	p.Title("ignored")
	p.Success("done")
	p.Warning("careful")
	p.KeyValues("mesh", [][2]string{{"points", "4"}, {"faces", "1"}})
	p.Tree([]TreeLine{{Depth: 0, Text: "root"}, {Depth: 1, Text: "leaf"}})
	p.Counts([]string{"cloned", "in_place"}, map[string]int{"cloned": 2})

	assert.Equal(t, "OK: done\n"+
		"WARN: careful\n"+
		"mesh.points\t4\n"+
		"mesh.faces\t1\n"+
		"0\troot\n"+
		"1\tleaf\n"+
		"SUMMARY: cloned=2 in_place=0\n", buf.String())
}

func TestPrinter_PlainMode(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModePlain)

	p.Success("done")
	p.KeyValues("bounds", [][2]string{{"min", "(0, 0, 0)"}, {"maximum", "(1, 1, 1)"}})
	p.Tree([]TreeLine{{Depth: 2, Text: "leaf"}})

	out := buf.String()
	assert.Contains(t, out, "✓ done")
	assert.Contains(t, out, "(0, 0, 0)")
	assert.Contains(t, out, "    ")
	assert.Contains(t, out, "leaf")
	assert.NotContains(t, out, "╭", "plain mode has no boxes")
}

func TestPrinter_StyledModeBoxesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModeStyled)

	p.KeyValues("mesh", [][2]string{{"points", "4"}})

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "points")
	assert.Contains(t, buf.String(), "╭")
}

func TestIcon_Render(t *testing.T) {
	assert.Contains(t, IconSuccess.Render(), "✓")
	assert.Equal(t, "→", IconArrow.Render())
}
