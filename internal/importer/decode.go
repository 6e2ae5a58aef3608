// Package importer turns external card payloads into records, merges them
// into an existing collection and produces the export artifact.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/knol"
	"github.com/conorfennell/flashdeck/internal/parser"
)

// DefaultMaxBytes bounds how much of an import payload is read.
const DefaultMaxBytes int64 = 5 << 20

// ExportFileName is the suggested name of the export artifact.
const ExportFileName = "flashcards-export.json"

// Format is an import payload encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
)

// ParseFormat maps a user supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown import format %q", s)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

// Decode reads at most maxBytes from r and returns the records it holds.
// The top level must be a list. Entries that are not objects come back as
// nil records, which Merge drops.
func Decode(r io.Reader, format Format, maxBytes int64) ([]domain.RawRecord, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, domain.NewFormatError("could not read payload", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.NewFormatError(fmt.Sprintf("payload exceeds %d bytes", maxBytes), nil)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.NewFormatError("payload is empty", nil)
	}

	switch format {
	case FormatMarkdown:
		return decodeMarkdown(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		// Numbers stay json.Number so an out-of-range value only affects
		// the record holding it.
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return nil, domain.NewFormatError("invalid JSON", err)
		}
		if dec.More() {
			return nil, domain.NewFormatError("invalid JSON", errors.New("trailing data after top-level value"))
		}
		return toRecords(doc)
	}
}

// textFields are read as text whatever YAML scalar type they resolve to,
// so "back: 4" is the string "4".
var textFields = map[string]bool{"id": true, "front": true, "back": true}

func decodeYAML(data []byte) ([]domain.RawRecord, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, domain.NewFormatError("invalid YAML", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.SequenceNode {
		return nil, domain.NewFormatError("top level is not a list", nil)
	}

	records := make([]domain.RawRecord, len(doc.Content))
	for i, item := range doc.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		rec := make(domain.RawRecord, len(item.Content)/2)
		for j := 0; j+1 < len(item.Content); j += 2 {
			key, val := item.Content[j].Value, item.Content[j+1]
			if textFields[key] && val.Kind == yaml.ScalarNode && val.ShortTag() != "!!null" {
				rec[key] = val.Value
				continue
			}
			var v any
			if err := val.Decode(&v); err != nil {
				// A value that will not decode is left out of its record only.
				continue
			}
			rec[key] = v
		}
		records[i] = rec
	}
	return records, nil
}

func toRecords(doc any) ([]domain.RawRecord, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, domain.NewFormatError("top level is not a list", nil)
	}
	records := make([]domain.RawRecord, len(items))
	for i, item := range items {
		if m, ok := item.(map[string]any); ok {
			records[i] = domain.RawRecord(m)
		}
	}
	return records, nil
}

// decodeMarkdown gives every entry a content-derived id so a markdown deck
// can be re-imported without duplicating its cards.
func decodeMarkdown(data []byte) ([]domain.RawRecord, error) {
	entries, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewFormatError("invalid markdown deck", err)
	}
	records := make([]domain.RawRecord, 0, len(entries))
	for _, e := range entries {
		tags := make([]any, len(e.Tags))
		for i, t := range e.Tags {
			tags[i] = t
		}
		records = append(records, domain.RawRecord{
			"id":    knol.ID(e.Front, e.Back),
			"front": e.Front,
			"back":  e.Back,
			"tags":  tags,
		})
	}
	return records, nil
}
