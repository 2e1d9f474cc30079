// Package output renders CLI results as a plain table or as a JSON/YAML
// envelope.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

// Format represents command output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates format values.
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", v)
	}
}

// Meta describes how a result was produced.
type Meta struct {
	RequestID   string               `json:"request_id" yaml:"request_id"`
	GeneratedAt time.Time            `json:"generated_at" yaml:"generated_at"`
	Command     string               `json:"command" yaml:"command"`
	Source      string               `json:"source,omitempty" yaml:"source,omitempty"`
	Reference   *cafefinder.Position `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Envelope is what --format json|yaml prints.
type Envelope struct {
	Meta     Meta     `json:"meta" yaml:"meta"`
	Data     any      `json:"data" yaml:"data"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// NewEnvelope stamps meta with a request id and generation time unless the
// caller already set them. Warnings are never encoded as null.
func NewEnvelope(meta Meta, data any, warnings []string) Envelope {
	if meta.RequestID == "" {
		meta.RequestID = uuid.NewString()
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now().UTC().Truncate(time.Second)
	}
	if warnings == nil {
		warnings = []string{}
	}
	return Envelope{Meta: meta, Data: data, Warnings: warnings}
}

// Encode writes env to w as json or yaml.
func Encode(w io.Writer, env Envelope, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("format %q has no envelope encoding", format)
	}
}

// RenderTable renders plain text tables.
func RenderTable(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	if len(headers) > 0 {
		b.WriteString(strings.Join(headers, "\t"))
		b.WriteByte('\n')
	}
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Write writes text followed by a newline.
func Write(w io.Writer, text string) error {
	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
