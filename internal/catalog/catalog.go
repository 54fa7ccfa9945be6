package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"worldsim/internal/condition"
	"worldsim/internal/parser"
)

var (
	ErrNotFound = errors.New("event catalog not found")
	ErrParse    = errors.New("event catalog parse failed")
)

//go:embed event.schema.json
var eventSchemaJSON string

var eventSchema = jsonschema.MustCompileString("event.schema.json", eventSchemaJSON)

type Definition struct {
	ID          string               `json:"id"`
	TitleKey    string               `json:"titleKey"`
	Description string               `json:"description"`
	Category    string               `json:"category,omitempty"`
	Weight      float64              `json:"weight,omitempty"`
	Conditions  condition.Descriptor `json:"conditions"`
	Choices     []Choice             `json:"choices"`

	SourceFile string `json:"-"`
}

type Choice struct {
	ChoiceText string  `json:"choiceText"`
	Outcome    Outcome `json:"outcome"`
}

type Outcome struct {
	Effects           map[string]float64 `json:"effects,omitempty"`
	TriggerNextEvents []string           `json:"triggerNextEvents,omitempty"`
}

// SelectionWeight is the definition's weight for weighted selection.
func (d *Definition) SelectionWeight() float64 {
	if d.Weight <= 0 {
		return 1
	}
	return d.Weight
}

// Catalog is the read-only set of event definitions in load order.
type Catalog struct {
	defs   []*Definition
	byID   map[string]*Definition
	digest string
}

func Empty() *Catalog {
	return &Catalog{byID: make(map[string]*Definition)}
}

// New builds a catalog from definitions already in memory.
func New(defs []Definition) (*Catalog, error) {
	c := Empty()
	for i := range defs {
		def := defs[i]
		if err := c.add(&def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Load reads a file or a directory of event documents. A missing source
// yields an empty catalog and ErrNotFound; any invalid document yields an
// empty catalog and ErrParse.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := collectFiles(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("event catalog not found", "path", path)
			return Empty(), fmt.Errorf("loading catalog %s: %w", path, ErrNotFound)
		}
		logger.Warn("event catalog unreadable", "path", path, "error", err)
		return Empty(), fmt.Errorf("loading catalog %s: %w: %v", path, ErrParse, err)
	}

	c, err := loadFiles(files)
	if err != nil {
		logger.Warn("event catalog rejected", "path", path, "error", err)
		return Empty(), fmt.Errorf("loading catalog %s: %w: %v", path, ErrParse, err)
	}

	logger.Debug("event catalog loaded", "path", path, "events", c.Len(), "digest", c.digest)
	return c, nil
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if parser.Supported(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func loadFiles(files []string) (*Catalog, error) {
	c := Empty()
	hash := sha256.New()
	for _, file := range files {
		records, err := parser.ParseFile(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for _, record := range records {
			hash.Write(record.JSON)
			def, err := decodeRecord(record)
			if err != nil {
				return nil, fmt.Errorf("%s: record %d: %w", file, record.Index, err)
			}
			if err := c.add(def); err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
		}
	}
	c.digest = hex.EncodeToString(hash.Sum(nil))
	return c, nil
}

func decodeRecord(record parser.Record) (*Definition, error) {
	if err := eventSchema.Validate(record.Value); err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(record.JSON, &def); err != nil {
		return nil, err
	}
	def.SourceFile = record.SourceFile
	return &def, nil
}

func (c *Catalog) add(def *Definition) error {
	if strings.TrimSpace(def.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	if _, exists := c.byID[def.ID]; exists {
		return fmt.Errorf("duplicate event id: %s", def.ID)
	}
	c.byID[def.ID] = def
	c.defs = append(c.defs, def)
	return nil
}

func (c *Catalog) FindByID(id string) (*Definition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// All returns the definitions in load order. The slice is a copy; the
// definitions are shared and must not be modified.
func (c *Catalog) All() []*Definition {
	return append([]*Definition(nil), c.defs...)
}

func (c *Catalog) Len() int {
	return len(c.defs)
}

// Digest is the sha256 of the normalised records, empty for in-memory
// catalogs.
func (c *Catalog) Digest() string {
	return c.digest
}
