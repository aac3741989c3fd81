// Package catalog provides the static, read-only table of node types the
// workflow editor can place on its canvas.
//
// The built-in table is embedded as HCL. Operators can layer extra files on
// top of it; an entry in a later file replaces an earlier entry with the same
// category and subtype.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/flowcanvas/internal/canvas"
)

//go:embed catalog.hcl
var defaultSource []byte

// Entry is the display metadata of one node type.
type Entry struct {
	Category    canvas.Category `json:"category"`
	Subtype     string          `json:"subtype"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
}

// nodeBlock is the HCL schema of a `node` block.
type nodeBlock struct {
	Category    string   `hcl:"category,label"`
	Subtype     string   `hcl:"subtype,label"`
	Name        string   `hcl:"name"`
	Description string   `hcl:"description,optional"`
	Icon        string   `hcl:"icon,optional"`
	Remain      hcl.Body `hcl:",remain"`
}

type fileRoot struct {
	Nodes []*nodeBlock `hcl:"node,block"`
}

// Catalog maps (category, subtype) to an Entry.
type Catalog struct {
	entries map[string]Entry
}

func key(category canvas.Category, subtype string) string {
	return string(category) + "/" + subtype
}

// Default returns the built-in catalog. It panics if the embedded table is
// malformed, which is a programming error caught by the package tests.
func Default() *Catalog {
	c := &Catalog{entries: make(map[string]Entry)}
	if err := c.merge(hclparse.NewParser(), defaultSource, "catalog.hcl"); err != nil {
		panic(fmt.Errorf("embedded catalog: %w", err))
	}
	return c
}

// Load returns the built-in catalog extended by the given HCL files.
func Load(paths ...string) (*Catalog, error) {
	c := Default()
	parser := hclparse.NewParser()
	for _, path := range paths {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, diags)
		}
		if err := c.decode(f.Body, path); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) merge(parser *hclparse.Parser, src []byte, filename string) error {
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse catalog %s: %w", filename, diags)
	}
	return c.decode(f.Body, filename)
}

func (c *Catalog) decode(body hcl.Body, filename string) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode catalog %s: %w", filename, diags)
	}
	for _, b := range root.Nodes {
		category, err := canvas.ParseCategory(b.Category)
		if err != nil {
			return fmt.Errorf("%s: node %q: %w", filename, b.Subtype, err)
		}
		if b.Subtype == "" {
			return fmt.Errorf("%s: node in category %q has an empty subtype", filename, b.Category)
		}
		c.entries[key(category, b.Subtype)] = Entry{
			Category:    category,
			Subtype:     b.Subtype,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
		}
	}
	return nil
}

// Lookup returns the entry for a node type.
func (c *Catalog) Lookup(category canvas.Category, subtype string) (Entry, bool) {
	e, ok := c.entries[key(category, subtype)]
	return e, ok
}

// DisplayName implements canvas.Catalog.
func (c *Catalog) DisplayName(category canvas.Category, subtype string) (string, bool) {
	e, ok := c.Lookup(category, subtype)
	return e.Name, ok
}

// Entries returns the entries of one category sorted by subtype.
func (c *Catalog) Entries(category canvas.Category) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subtype < out[j].Subtype })
	return out
}

// All returns every entry grouped in canvas.Categories order.
func (c *Catalog) All() []Entry {
	var out []Entry
	for _, cat := range canvas.Categories {
		out = append(out, c.Entries(cat)...)
	}
	return out
}

// Len reports the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }
