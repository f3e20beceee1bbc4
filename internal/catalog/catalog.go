// Package catalog holds the ordered list of canonical skill labels that resume segments are matched against.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed skills.yaml
var defaultCatalogYAML []byte

var (
	// ErrEmptyCatalog is returned when a catalog has no labels.
	ErrEmptyCatalog = errors.New("catalog: no skills defined")
	// ErrBlankLabel is returned when a label is empty after trimming.
	ErrBlankLabel = errors.New("catalog: blank skill label")
	// ErrDuplicateLabel is returned when a label appears more than once.
	ErrDuplicateLabel = errors.New("catalog: duplicate skill label")
)

// Catalog is an immutable, ordered list of skill labels. The index of a label is the index of
// its embedding in the skill vector matrix.
type Catalog struct {
	labels  []string
	version string
}

type catalogFile struct {
	Skills []string `yaml:"skills"`
}

// New validates labels and builds a Catalog. Labels are trimmed; blank or duplicate labels are rejected.
func New(labels []string) (*Catalog, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]struct{}, len(labels))
	cleaned := make([]string, 0, len(labels))

	for i, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, fmt.Errorf("%w at index %d", ErrBlankLabel, i)
		}

		if _, ok := seen[label]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
		}

		seen[label] = struct{}{}
		cleaned = append(cleaned, label)
	}

	return &Catalog{
		labels:  cleaned,
		version: checksum(cleaned),
	}, nil
}

// Parse decodes a YAML document of the form `skills: [...]`.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}

	return New(file.Skills)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}

	return c
}

// Load reads the catalog at path, or returns the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	return Parse(data)
}

// Labels returns a copy of the ordered labels.
func (c *Catalog) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)

	return out
}

// Len returns the number of labels.
func (c *Catalog) Len() int {
	return len(c.labels)
}

// Version is a hex SHA-256 over the ordered labels. Any change in content or order changes it.
func (c *Catalog) Version() string {
	return c.version
}

func checksum(labels []string) string {
	h := sha256.New()
	for _, label := range labels {
		// NUL separator: labels never contain it, so ["ab","c"] and ["a","bc"] differ.
		h.Write([]byte(label))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
