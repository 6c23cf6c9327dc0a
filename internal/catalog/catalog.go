// Package catalog holds the static discovery configuration: the category
// table, per-category seed words, per-category keyword patterns and the
// curated list of popular channel names.
//
// A Catalog is built once at startup (from the embedded defaults or a YAML
// file) and is read-only afterwards. It is passed explicitly to the
// generator and classifier instead of being referenced as a global.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

// ErrInvalidCatalog is returned when a catalog fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// CategorySpec is the YAML shape of a single category entry.
type CategorySpec struct {
	Key      model.Category `yaml:"key"`
	Label    string         `yaml:"label"`
	Seeds    []string       `yaml:"seeds"`
	Keywords []string       `yaml:"keywords"`
}

// File is the YAML document accepted by Load.
type File struct {
	Categories []CategorySpec `yaml:"categories"`
	Popular    []string       `yaml:"popular"`
	Default    model.Category `yaml:"default"`
}

// Catalog is the immutable, validated form of File.
type Catalog struct {
	order    []model.Category
	labels   map[model.Category]string
	seeds    map[model.Category][]string
	keywords map[model.Category][]string
	popular  []string
	fallback model.Category
}

// New validates f and builds a Catalog from it. Category order in f is the
// classification order.
func New(f File) (*Catalog, error) {
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}

	c := &Catalog{
		labels:   make(map[model.Category]string, len(f.Categories)),
		seeds:    make(map[model.Category][]string, len(f.Categories)),
		keywords: make(map[model.Category][]string, len(f.Categories)),
		fallback: f.Default,
	}

	for _, spec := range f.Categories {
		if !spec.Key.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidCatalog, spec.Key)
		}
		if _, dup := c.labels[spec.Key]; dup {
			return nil, fmt.Errorf("%w: category %q listed twice", ErrInvalidCatalog, spec.Key)
		}
		if len(spec.Seeds) == 0 {
			return nil, fmt.Errorf("%w: category %q has no seeds", ErrInvalidCatalog, spec.Key)
		}
		if len(spec.Keywords) == 0 {
			return nil, fmt.Errorf("%w: category %q has no keywords", ErrInvalidCatalog, spec.Key)
		}

		label := spec.Label
		if label == "" {
			label = string(spec.Key)
		}

		c.order = append(c.order, spec.Key)
		c.labels[spec.Key] = label
		c.seeds[spec.Key] = normalizeWords(spec.Seeds)
		c.keywords[spec.Key] = normalizeWords(spec.Keywords)
	}

	if c.fallback == "" {
		c.fallback = model.CategoryEntertainment
	}
	if _, ok := c.labels[c.fallback]; !ok {
		return nil, fmt.Errorf("%w: default category %q is not in the table", ErrInvalidCatalog, c.fallback)
	}

	seen := make(map[string]struct{}, len(f.Popular))
	for _, name := range f.Popular {
		id := model.NormalizeIdentifier(name)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		c.popular = append(c.popular, id)
	}

	return c, nil
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(f)
}

// LoadOrDefault loads the catalog at path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Order returns the categories in classification order.
func (c *Catalog) Order() []model.Category {
	return slices.Clone(c.order)
}

// Has reports whether the category is part of the table.
func (c *Catalog) Has(cat model.Category) bool {
	_, ok := c.labels[cat]
	return ok
}

// Label returns the display label of a category.
func (c *Catalog) Label(cat model.Category) string {
	if l, ok := c.labels[cat]; ok {
		return l
	}
	return string(cat)
}

// Seeds returns a copy of the seed words for a category.
func (c *Catalog) Seeds(cat model.Category) []string {
	return slices.Clone(c.seeds[cat])
}

// Keywords returns a copy of the keyword patterns for a category.
func (c *Catalog) Keywords(cat model.Category) []string {
	return slices.Clone(c.keywords[cat])
}

// Popular returns a copy of the curated popular channel names.
func (c *Catalog) Popular() []string {
	return slices.Clone(c.popular)
}

// Fallback returns the category used when no keyword matches.
func (c *Catalog) Fallback() model.Category {
	return c.fallback
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
