// Package interest holds the fixed interest taxonomy and the expansion rules
// used to compare user interests with each other and with location categories.
package interest

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Separator joins a category and one of its subcategories: "movie:drama".
const Separator = ":"

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

type fileFormat struct {
	Categories []struct {
		Name          string   `yaml:"name"`
		Subcategories []string `yaml:"subcategories"`
	} `yaml:"categories"`
}

// Taxonomy is an immutable category → subcategories mapping.
// Keys are lower-case; subcategory order follows the source document.
type Taxonomy struct {
	order []string
	subs  map[string][]string
}

// Load parses a YAML taxonomy document.
func Load(r io.Reader) (*Taxonomy, error) {
	var doc fileFormat
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}

	t := &Taxonomy{subs: make(map[string][]string, len(doc.Categories))}
	for _, c := range doc.Categories {
		name := normalize(c.Name)
		if name == "" || strings.Contains(name, Separator) {
			return nil, fmt.Errorf("invalid category name %q", c.Name)
		}
		if _, dup := t.subs[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}

		subs := make([]string, 0, len(c.Subcategories))
		seen := make(map[string]struct{}, len(c.Subcategories))
		for _, s := range c.Subcategories {
			sub := normalize(s)
			if sub == "" || strings.Contains(sub, Separator) {
				return nil, fmt.Errorf("invalid subcategory %q under %q", s, name)
			}
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			subs = append(subs, sub)
		}

		t.order = append(t.order, name)
		t.subs[name] = subs
	}
	return t, nil
}

// LoadFile reads a taxonomy from disk. An empty path yields Default().
func LoadFile(path string) (*Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the embedded taxonomy.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(defaultTaxonomy))
		if err != nil {
			panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

// Categories returns the top-level categories in declaration order.
func (t *Taxonomy) Categories() []string {
	return append([]string(nil), t.order...)
}

// Subcategories returns the declared subcategories of category, or nil.
func (t *Taxonomy) Subcategories(category string) []string {
	return append([]string(nil), t.subs[normalize(category)]...)
}

// Expand widens a token list:
//   - "category:sub" tokens are kept verbatim;
//   - a known bare category becomes itself plus every "category:sub";
//   - unknown bare tokens pass through unchanged.
//
// Duplicates are dropped case-insensitively, keeping the first occurrence.
func (t *Taxonomy) Expand(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	add := func(tok string) {
		key := normalize(tok)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tok)
	}

	for _, raw := range tokens {
		tok := strings.TrimSpace(raw)
		if strings.Contains(tok, Separator) {
			add(tok)
			continue
		}
		key := normalize(tok)
		subs, ok := t.subs[key]
		if !ok {
			add(tok)
			continue
		}
		add(key)
		for _, s := range subs {
			add(key + Separator + s)
		}
	}
	return out
}

// IsValid reports whether token is a declared category or a declared
// "category:subcategory" pair.
func (t *Taxonomy) IsValid(token string) bool {
	key := normalize(token)
	cat, sub, qualified := strings.Cut(key, Separator)
	subs, ok := t.subs[cat]
	if !ok {
		return false
	}
	if !qualified {
		return true
	}
	for _, s := range subs {
		if s == sub {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
