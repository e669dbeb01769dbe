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
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer shared with the animation goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestSpinner_MachineAnnouncesOnce(t *testing.T) {
	var buf bytes.Buffer
	spin := NewPrinter(&buf, ModeMachine).Spinner("loading scene")

	spin.Start()
	spin.Start()
	spin.Stop()
	spin.Stop()

	assert.Equal(t, "PROGRESS: loading scene\n", buf.String())
}

func TestSpinner_Plain(t *testing.T) {
	var buf bytes.Buffer
	spin := NewPrinter(&buf, ModePlain).Spinner("working")
	spin.Start()
	spin.Stop()

	assert.Equal(t, "→ working\n", buf.String())
}

func TestSpinner_StyledAnimatesAndClears(t *testing.T) {
	buf := &syncBuffer{}
	spin := NewPrinter(buf, ModeStyled).Spinner("hashing").WithType(SpinnerCompass)

	spin.Start()
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "hashing")
	}, time.Second, 10*time.Millisecond)
	spin.UpdateMessage("still hashing")
	spin.Stop()

	assert.True(t, strings.HasSuffix(buf.String(), "\r\033[K"))
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	spin := NewPrinter(&buf, ModeStyled).Spinner("idle")
	spin.Stop()
	assert.Empty(t, buf.String())
}

func TestPrinter_WithSpinner(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModeMachine)

	errBoom := errors.New("boom")
	assert.ErrorIs(t, p.WithSpinner("step", func() error { return errBoom }), errBoom)
	assert.NoError(t, p.WithSpinner("step", func() error { return nil }))
	assert.Equal(t, 2, strings.Count(buf.String(), "PROGRESS: step\n"))
}
