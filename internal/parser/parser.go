package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one event document normalised to JSON.
type Record struct {
	Value      any
	JSON       []byte
	SourceFile string
	Index      int
}

var (
	ErrNoFrontmatter     = errors.New("no frontmatter found")
	ErrInvalidYAML       = errors.New("invalid YAML")
	ErrInvalidJSON       = errors.New("invalid JSON")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNotRecord         = errors.New("event record must be an object")
)

// Supported reports whether path has an extension Parse understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".md":
		return true
	}
	return false
}

func ParseFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	records, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].SourceFile = path
	}
	return records, nil
}

// Parse decodes a document by extension. JSON and YAML documents hold either
// a list of records or an object with an "events" list. Markdown documents
// hold one record in their frontmatter and the body becomes its description
// when the frontmatter has none.
func Parse(content []byte, ext string) ([]Record, error) {
	var value any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(content, &value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	case ".md":
		record, err := parseMarkdown(content)
		if err != nil {
			return nil, err
		}
		value = []any{record}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	items, err := unwrap(value)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return nil, fmt.Errorf("record %d: %w", i, ErrNotRecord)
		}
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		var normalised any
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&normalised); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, Record{Value: normalised, JSON: raw, Index: i})
	}
	return records, nil
}

func unwrap(value any) ([]any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		events, ok := v["events"]
		if !ok {
			return nil, fmt.Errorf("document has no events list")
		}
		if events == nil {
			return nil, nil
		}
		list, ok := events.([]any)
		if !ok {
			return nil, fmt.Errorf("events must be a list")
		}
		return list, nil
	default:
		return nil, fmt.Errorf("document must be a list or an object with events")
	}
}

func parseMarkdown(content []byte) (map[string]any, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := strings.TrimSpace(string(rest[end+len("---\n"):]))

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if frontmatter == nil {
		frontmatter = make(map[string]any)
	}

	if description, ok := frontmatter["description"].(string); (!ok || strings.TrimSpace(description) == "") && body != "" {
		frontmatter["description"] = body
	}
	return frontmatter, nil
}
