/*
Copyright 2026 The Flintrock Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package output provides shared output formatting utilities for the
// flintrock CLI: colorized state rendering, tables, and json/yaml
// printers. "describe" uses the table writer and state colors only; no
// command uses the json/yaml printers.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"sigs.k8s.io/yaml"
)

// Format represents an output format for a Printer.
type Format string

const (
	FormatTable Format = "table"
	FormatWide  Format = "wide"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a string into an output Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return FormatTable, nil
	case "wide":
		return FormatWide, nil
	case "json":
		return FormatJSON, nil
	case "yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: table, wide, json, yaml)", s)
	}
}

// Styles for colorized output, keyed to node/cluster states rather than
// the Kubernetes object phases this package was originally built around.
var (
	StateRunning     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true) // Green
	StatePending     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // Yellow
	StateStopping    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // Yellow
	StateStopped     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // Gray
	StateTerminated  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))            // Red
	StateInconsistent = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true) // Magenta

	StatusOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).SetString("✓")
	StatusWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).SetString("!")
	StatusError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).SetString("✗")
	StatusPending = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).SetString("○")

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))

	HelpCommand     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	HelpFlag        = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	HelpSection     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	HelpExample     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	HelpBinary      = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	HelpWarning     = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	HelpDanger      = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// ColorEnabled returns true if colors should be used. Respects NO_COLOR
// (https://no-color.org/) and the flintrock-specific override.
func ColorEnabled() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if _, exists := os.LookupEnv("FLINTROCK_NO_COLOR"); exists {
		return false
	}
	return IsTTY()
}

// IsTTY returns true if stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ColorizeState returns a colorized node/cluster state string if TTY,
// plain otherwise. Accepts the provider's NodeHandle states plus the
// orchestrator's synthetic "inconsistent" aggregate state.
func ColorizeState(state string) string {
	if !ColorEnabled() {
		return state
	}

	switch strings.ToLower(state) {
	case "running":
		return StateRunning.Render(state)
	case "pending":
		return StatePending.Render(state)
	case "stopping":
		return StateStopping.Render(state)
	case "stopped":
		return StateStopped.Render(state)
	case "terminated":
		return StateTerminated.Render(state)
	case "inconsistent":
		return StateInconsistent.Render(state)
	default:
		return state
	}
}

// Command returns a colorized command name (cyan).
func Command(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpCommand.Render(s)
}

// Flag returns a colorized flag name (yellow).
func Flag(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpFlag.Render(s)
}

// Section returns a colorized section header (bold blue).
func Section(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpSection.Render(s)
}

// Example returns a colorized example comment (dim).
func Example(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpExample.Render(s)
}

// Binary returns the colorized binary name (bold cyan).
func Binary(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpBinary.Render(s)
}

// Warning returns colorized warning text (bold yellow).
func Warning(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpWarning.Render(s)
}

// Danger returns colorized danger text (bold red), used by destroy's
// confirmation prompt.
func Danger(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpDanger.Render(s)
}

// Success returns colorized success text (green).
func Success(s string) string {
	if !ColorEnabled() {
		return s
	}
	return StateRunning.Render(s)
}

// Dim returns dimmed text (gray).
func Dim(s string) string {
	if !ColorEnabled() {
		return s
	}
	return HelpExample.Render(s)
}

// StatusIcon returns an appropriate status icon for a node state.
func StatusIcon(state string) string {
	if !IsTTY() {
		return ""
	}

	switch strings.ToLower(state) {
	case "running":
		return StatusOK.String() + " "
	case "terminated":
		return StatusError.String() + " "
	case "pending", "stopping":
		return StatusWarning.String() + " "
	default:
		return StatusPending.String() + " "
	}
}

// Table provides a simple table writer with header support.
// Note: when using colors we use fixed-width columns instead of
// tabwriter, because tabwriter counts ANSI escape codes as visible
// characters.
type Table struct {
	writer    io.Writer
	headers   []string
	rows      [][]string
	colWidths []int
	useColors bool
}

// NewTable creates a new table writer.
func NewTable(output io.Writer, headers ...string) *Table {
	t := &Table{
		writer:    output,
		headers:   headers,
		rows:      make([][]string, 0),
		colWidths: make([]int, len(headers)),
		useColors: IsTTY(),
	}

	for i, h := range headers {
		t.colWidths[i] = len(h)
	}

	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(columns ...string) {
	for i, col := range columns {
		if i < len(t.colWidths) {
			visibleLen := visibleLength(col)
			if visibleLen > t.colWidths[i] {
				t.colWidths[i] = visibleLen
			}
		}
	}
	t.rows = append(t.rows, columns)
}

// Flush writes the table to output.
func (t *Table) Flush() error {
	if len(t.headers) > 0 {
		for i, h := range t.headers {
			rendered := h
			if t.useColors {
				rendered = HeaderStyle.Render(h)
			}
			fmt.Fprint(t.writer, rendered)
			if i < len(t.headers)-1 {
				padding := t.colWidths[i] - len(h) + 2
				fmt.Fprint(t.writer, strings.Repeat(" ", padding))
			}
		}
		fmt.Fprintln(t.writer)
	}

	for _, row := range t.rows {
		for i, col := range row {
			fmt.Fprint(t.writer, col)
			if i < len(row)-1 && i < len(t.colWidths) {
				visLen := visibleLength(col)
				padding := t.colWidths[i] - visLen + 2
				if padding < 2 {
					padding = 2
				}
				fmt.Fprint(t.writer, strings.Repeat(" ", padding))
			}
		}
		fmt.Fprintln(t.writer)
	}

	return nil
}

// visibleLength returns the visible length of a string, excluding ANSI
// escape codes.
func visibleLength(s string) int {
	inEscape := false
	visibleLen := 0
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		visibleLen++
	}
	return visibleLen
}

// PrintJSON prints data as JSON.
func PrintJSON(output io.Writer, data interface{}) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// PrintYAML prints data as YAML.
func PrintYAML(output io.Writer, data interface{}) error {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	_, err = output.Write(yamlData)
	return err
}

// Printer handles multi-format output.
type Printer struct {
	Format Format
	Output io.Writer
}

// NewPrinter creates a new printer with the specified format.
func NewPrinter(format Format, output io.Writer) *Printer {
	if output == nil {
		output = os.Stdout
	}
	return &Printer{
		Format: format,
		Output: output,
	}
}

// Print outputs data in the configured format. For table/wide formats,
// tableFunc renders the table; for json/yaml the data is marshaled
// directly.
func (p *Printer) Print(data interface{}, tableFunc func(io.Writer) error) error {
	switch p.Format {
	case FormatJSON:
		return PrintJSON(p.Output, data)
	case FormatYAML:
		return PrintYAML(p.Output, data)
	case FormatTable, FormatWide:
		if tableFunc != nil {
			return tableFunc(p.Output)
		}
		return fmt.Errorf("table output not supported for this data")
	default:
		return fmt.Errorf("unknown format: %s", p.Format)
	}
}
