package service

import (
	"bytes"
	"strings"
	"time"

	perr "lifesync/internal/platform/errors"
	"lifesync/internal/services/sync/domain"

	"gopkg.in/yaml.v3"
)

// EntriesMarker starts the section the writer owns inside a day document
const EntriesMarker = "## Entries"

type frontmatter struct {
	Date   string `yaml:"date"`
	Source string `yaml:"source"`
}

type debugBlock struct {
	ID        string         `yaml:"id"`
	Type      string         `yaml:"type"`
	Timestamp string         `yaml:"timestamp"`
	Metadata  map[string]any `yaml:"metadata,omitempty"`
}

// Renderer turns a day of entries into markdown
type Renderer struct {
	Loc   *time.Location
	Debug bool
}

// Body renders the entries section, starting with EntriesMarker
func (r Renderer) Body(entries []domain.Entry) (string, error) {
	loc := r.Loc
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString(EntriesMarker)
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString("\n- ")
		b.WriteString(e.Timestamp.In(loc).Format(time.TimeOnly))
		b.WriteString(" ")
		b.WriteString(indent(e.Body(), "  "))
		b.WriteString("\n")
		if r.Debug {
			block, err := marshalYAML(debugBlock{
				ID:        e.ID,
				Type:      e.Type,
				Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
				Metadata:  e.Metadata,
			})
			if err != nil {
				return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "render metadata for %s", e.ID)
			}
			b.WriteString("\n  ```yaml\n")
			b.WriteString(indentAll(strings.TrimRight(string(block), "\n"), "  "))
			b.WriteString("\n  ```\n")
		}
	}
	return b.String(), nil
}

// Document renders a fresh day document around body
func (r Renderer) Document(date, body string) (string, error) {
	fm, err := marshalYAML(frontmatter{Date: date, Source: "lifelog"})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "render frontmatter for %s", date)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n# Lifelogs ")
	b.WriteString(date)
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String(), nil
}

// marshalYAML encodes v with two space indentation
func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// indent prefixes every line after the first
func indent(s, pad string) string {
	return strings.ReplaceAll(s, "\n", "\n"+pad)
}

func indentAll(s, pad string) string {
	return pad + indent(s, pad)
}
