package badges

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Catalog is the immutable badge registry. It is safe for concurrent use.
type Catalog struct {
	byKey      map[string]Definition
	byCategory map[Category][]Definition
	targets    []Target
	targetIdx  map[string]int
}

func NewCatalog(defs []Definition, targets []Target) (*Catalog, error) {
	c := &Catalog{
		byKey:      make(map[string]Definition, len(defs)),
		byCategory: make(map[Category][]Definition),
		targets:    append([]Target(nil), targets...),
		targetIdx:  make(map[string]int, len(targets)),
	}
	for i, t := range c.targets {
		if t.Name == "" || len(t.Members) == 0 {
			return nil, fmt.Errorf("target %d: name and members are required", i)
		}
		if _, dup := c.targetIdx[t.Name]; dup {
			return nil, fmt.Errorf("duplicate target %q", t.Name)
		}
		c.targetIdx[t.Name] = i
	}

	for _, d := range defs {
		if d.Key == "" {
			return nil, fmt.Errorf("badge with empty key")
		}
		if _, dup := c.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate badge key %q", d.Key)
		}
		if !d.Category.Valid() {
			return nil, fmt.Errorf("badge %q: unknown category %q", d.Key, d.Category)
		}
		if d.Threshold <= 0 {
			return nil, fmt.Errorf("badge %q: threshold must be positive", d.Key)
		}
		if d.Category == CategoryCompletion && d.Threshold > 100 {
			return nil, fmt.Errorf("badge %q: completion threshold %d above 100", d.Key, d.Threshold)
		}
		if d.Category.Scoped() && d.Scope == "" {
			return nil, fmt.Errorf("badge %q: scope is required for %s", d.Key, d.Category)
		}
		if d.Category == CategoryTarget {
			if _, ok := c.targetIdx[d.Scope]; !ok {
				return nil, fmt.Errorf("badge %q: unknown target %q", d.Key, d.Scope)
			}
		}
		c.byKey[d.Key] = d
		c.byCategory[d.Category] = append(c.byCategory[d.Category], d)
	}

	for cat := range c.byCategory {
		sort.SliceStable(c.byCategory[cat], func(i, j int) bool {
			return c.byCategory[cat][i].Threshold < c.byCategory[cat][j].Threshold
		})
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(DefaultDefinitions(), DefaultTargets())
	if err != nil {
		panic("badges: invalid built-in catalog: " + err.Error())
	}
	return c
})

// Default returns the built-in catalog, built once per process.
func Default() *Catalog { return defaultCatalog() }

// ByCategory returns the category's badges ordered by ascending threshold.
func (c *Catalog) ByCategory(cat Category) []Definition {
	return append([]Definition(nil), c.byCategory[cat]...)
}

// ByScope returns the badges of a scoped category for one tag or target,
// ordered by ascending threshold.
func (c *Catalog) ByScope(cat Category, scope string) []Definition {
	var out []Definition
	for _, d := range c.byCategory[cat] {
		if d.Scope == scope {
			out = append(out, d)
		}
	}
	return out
}

// Scopes returns the distinct scopes used by a category in catalog order.
func (c *Catalog) Scopes(cat Category) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.byCategory[cat] {
		if _, ok := seen[d.Scope]; ok {
			continue
		}
		seen[d.Scope] = struct{}{}
		out = append(out, d.Scope)
	}
	sort.Strings(out)
	return out
}

// ByKey looks up a definition. Composite completion keys ("sv1_completion_50")
// resolve to their base definition.
func (c *Catalog) ByKey(key string) (Definition, bool) {
	if d, ok := c.byKey[key]; ok {
		return d, true
	}
	if _, d, ok := c.ParseCompletionKey(key); ok {
		return d, true
	}
	return Definition{}, false
}

// AllKeys returns every base key in the catalog.
func (c *Catalog) AllKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(c.byKey))
	for k := range c.byKey {
		keys[k] = struct{}{}
	}
	return keys
}

// MaxThreshold returns the highest threshold in a category, or 0 if empty.
func (c *Catalog) MaxThreshold(cat Category) int {
	defs := c.byCategory[cat]
	if len(defs) == 0 {
		return 0
	}
	return defs[len(defs)-1].Threshold
}

func (c *Catalog) Targets() []Target {
	return append([]Target(nil), c.targets...)
}

func (c *Catalog) Target(name string) (Target, bool) {
	i, ok := c.targetIdx[name]
	if !ok {
		return Target{}, false
	}
	return c.targets[i], true
}

// CompletionKey builds the per-set key for a completion badge.
func CompletionKey(setID, baseKey string) string {
	return setID + "_" + baseKey
}

// ParseCompletionKey splits a composite completion key into its set id and
// base definition.
func (c *Catalog) ParseCompletionKey(key string) (string, Definition, bool) {
	for _, d := range c.byCategory[CategoryCompletion] {
		suffix := "_" + d.Key
		if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
			return strings.TrimSuffix(key, suffix), d, true
		}
	}
	return "", Definition{}, false
}
