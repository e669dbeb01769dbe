// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders geoset command output for terminals and scripts.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - deep ocean teals
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Mode selects how a Printer decorates output.
type Mode int

const (
	// ModeStyled uses colors, icons and boxes.
	ModeStyled Mode = iota

	// ModePlain keeps layout and icons but drops boxes.
	ModePlain

	// ModeMachine emits tab-separated, prefix-tagged lines for scripts.
	ModeMachine
)

// ParseMode maps "styled", "plain" and "machine" to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "styled", "":
		return ModeStyled, nil
	case "plain":
		return ModePlain, nil
	case "machine":
		return ModeMachine, nil
	default:
		return ModeStyled, fmt.Errorf("unknown output mode %q", name)
	}
}

// Printer writes command output in one Mode.
type Printer struct {
	w    io.Writer
	mode Mode
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode}
}

// Mode returns the printer's mode.
func (p *Printer) Mode() Mode { return p.mode }

// Title prints a styled title. Machine mode omits it.
func (p *Printer) Title(text string) {
	if p.mode == ModeMachine {
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) {
	switch p.mode {
	case ModeMachine:
		fmt.Fprintf(p.w, "OK: %s\n", text)
	case ModePlain:
		fmt.Fprintf(p.w, "%s %s\n", IconSuccess, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	switch p.mode {
	case ModeMachine:
		fmt.Fprintf(p.w, "WARN: %s\n", text)
	case ModePlain:
		fmt.Fprintf(p.w, "%s %s\n", IconWarning, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Info prints an informational line
func (p *Printer) Info(text string) {
	if p.mode == ModeMachine {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", Styles.Muted.Render("│"), text)
}

// KeyValues prints aligned key/value pairs under a heading. Machine mode
// prints "heading.key<TAB>value" lines.
func (p *Printer) KeyValues(heading string, pairs [][2]string) {
	if p.mode == ModeMachine {
		for _, kv := range pairs {
			fmt.Fprintf(p.w, "%s.%s\t%s\n", heading, kv[0], kv[1])
		}
		return
	}

	width := 0
	for _, kv := range pairs {
		width = max(width, len(kv[0]))
	}
	var b strings.Builder
	b.WriteString(Styles.Subtitle.Render(heading))
	for _, kv := range pairs {
		b.WriteString("\n")
		b.WriteString(Styles.Muted.Render(fmt.Sprintf("%-*s", width, kv[0])))
		b.WriteString("  ")
		b.WriteString(kv[1])
	}
	p.box(b.String())
}

// TreeLine is one line of an indented tree.
type TreeLine struct {
	Depth int
	Text  string
}

// Tree prints lines indented by depth.
func (p *Printer) Tree(lines []TreeLine) {
	for _, l := range lines {
		if p.mode == ModeMachine {
			fmt.Fprintf(p.w, "%d\t%s\n", l.Depth, l.Text)
			continue
		}
		indent := strings.Repeat("  ", l.Depth)
		fmt.Fprintf(p.w, "%s%s %s\n", indent, Styles.Muted.Render(string(IconBullet)), l.Text)
	}
}

// Counts prints a one-line summary of named counts in the given order.
func (p *Printer) Counts(names []string, counts map[string]int) {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		n := counts[name]
		if p.mode == ModeMachine {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
			continue
		}
		parts = append(parts, Styles.Bold.Render(fmt.Sprintf("%d", n))+" "+Styles.Muted.Render(name))
	}
	if p.mode == ModeMachine {
		fmt.Fprintf(p.w, "SUMMARY: %s\n", strings.Join(parts, " "))
		return
	}
	fmt.Fprintln(p.w, strings.Join(parts, "  "))
}

func (p *Printer) box(content string) {
	if p.mode == ModeStyled {
		fmt.Fprintln(p.w, Styles.Box.Render(content))
		return
	}
	fmt.Fprintln(p.w, content)
}
