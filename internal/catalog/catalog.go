// Package catalog provides read-only item and spell reference data.
//
// Catalogs are embedded YAML loaded once at startup and never mutated.
// Name resolution degrades gracefully: exact match, then alias match, then
// fuzzy match. Misses are reported to callers, never raised as hard failures.
package catalog

import (
	"embed"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Item is one priced catalog entry.
type Item struct {
	Name         string   `yaml:"name"`
	Aliases      []string `yaml:"aliases"`
	PriceCp      int      `yaml:"price_cp"`
	Consumable   bool     `yaml:"consumable"`
	HealNotation string   `yaml:"heal_notation"`
}

// Spell is one spell reference entry. Level 0 marks a cantrip.
type Spell struct {
	Name          string `yaml:"name"`
	Level         int    `yaml:"level"`
	Concentration bool   `yaml:"concentration"`
}

// Catalog is the immutable lookup table for items and spells.
type Catalog struct {
	items       []Item
	spells      []Spell
	itemByKey   map[string]int // lowered name or alias -> items index
	spellByName map[string]int
}

// Load parses the embedded catalog data. It is called once at startup.
func Load() (*Catalog, error) {
	c := &Catalog{
		itemByKey:   make(map[string]int),
		spellByName: make(map[string]int),
	}

	itemsRaw, err := dataFS.ReadFile("data/items.yaml")
	if err != nil {
		return nil, fmt.Errorf("read items catalog: %w", err)
	}
	var itemsDoc struct {
		Items []Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(itemsRaw, &itemsDoc); err != nil {
		return nil, fmt.Errorf("parse items catalog: %w", err)
	}
	c.items = itemsDoc.Items
	for i, item := range c.items {
		c.itemByKey[normalizeKey(item.Name)] = i
		for _, alias := range item.Aliases {
			c.itemByKey[normalizeKey(alias)] = i
		}
	}

	spellsRaw, err := dataFS.ReadFile("data/spells.yaml")
	if err != nil {
		return nil, fmt.Errorf("read spells catalog: %w", err)
	}
	var spellsDoc struct {
		Spells []Spell `yaml:"spells"`
	}
	if err := yaml.Unmarshal(spellsRaw, &spellsDoc); err != nil {
		return nil, fmt.Errorf("parse spells catalog: %w", err)
	}
	c.spells = spellsDoc.Spells
	for i, spell := range c.spells {
		c.spellByName[normalizeKey(spell.Name)] = i
	}

	return c, nil
}

// MustLoad loads the embedded catalogs, panicking on parse failure.
// The data is embedded at build time, so a failure is a programming error.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("load catalog: %v", err))
	}
	return c
}

// ResolveItem finds an item by name, alias, or fuzzy match.
// The boolean reports whether any entry matched.
func (c *Catalog) ResolveItem(name string) (Item, bool) {
	key := normalizeKey(name)
	if key == "" {
		return Item{}, false
	}
	if idx, ok := c.itemByKey[key]; ok {
		return c.items[idx], true
	}

	keys := make([]string, 0, len(c.itemByKey))
	for k := range c.itemByKey {
		keys = append(keys, k)
	}
	matches := fuzzy.Find(key, keys)
	if len(matches) == 0 {
		return Item{}, false
	}
	return c.items[c.itemByKey[matches[0].Str]], true
}

// ResolveSpell finds a spell by name or fuzzy match.
func (c *Catalog) ResolveSpell(name string) (Spell, bool) {
	key := normalizeKey(name)
	if key == "" {
		return Spell{}, false
	}
	if idx, ok := c.spellByName[key]; ok {
		return c.spells[idx], true
	}

	keys := make([]string, 0, len(c.spellByName))
	for k := range c.spellByName {
		keys = append(keys, k)
	}
	matches := fuzzy.Find(key, keys)
	if len(matches) == 0 {
		return Spell{}, false
	}
	return c.spells[c.spellByName[matches[0].Str]], true
}

// normalizeKey lowers, trims, and strips leading articles so "the longsword"
// and "a Longsword" resolve to the same entry.
func normalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, article := range []string{"a ", "an ", "the ", "some "} {
		if strings.HasPrefix(key, article) {
			key = strings.TrimSpace(strings.TrimPrefix(key, article))
			break
		}
	}
	return strings.Join(strings.Fields(key), " ")
}
