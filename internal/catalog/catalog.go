// Package catalog normalises a restaurant's menu data into category-keyed
// entries that the composers can sample from.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kartoza/restaurant-bot/internal/taste"
)

// Canonical category names
const (
	Starter    = "Starter"
	Salad      = "Salad"
	MainCourse = "MainCourse"
	Drink      = "Drink"
	Appetizer  = "Appetizer"
	Dessert    = "Dessert"
)

// Required lists the categories every catalog must offer
var Required = []string{Starter, Salad, MainCourse, Drink, Appetizer, Dessert}

// MinEntries is the least number of entries a required category ends up with
const MinEntries = 2

var synonyms = map[string]string{
	"starter":      Starter,
	"starters":     Starter,
	"salad":        Salad,
	"salads":       Salad,
	"main_course":  MainCourse,
	"main_courses": MainCourse,
	"maincourse":   MainCourse,
	"maincourses":  MainCourse,
	"drink":        Drink,
	"drinks":       Drink,
	"appetizer":    Appetizer,
	"appetizers":   Appetizer,
	"dessert":      Dessert,
	"desserts":     Dessert,
}

// Entry is one normalised catalog item
type Entry struct {
	Category   string       `json:"category"`
	Name       string       `json:"name"`
	Price      float64      `json:"price"`
	Taste      taste.Vector `json:"taste"`
	Vegetarian bool         `json:"vegetarian"`
}

// Catalog maps canonical category names to their entries in input order
type Catalog struct {
	entries map[string][]Entry
	order   []string
}

// CanonicalCategory maps a free-form key onto a canonical category name.
// Unknown keys are lowercased with the first letter capitalised.
func CanonicalCategory(key string) string {
	low := strings.ToLower(key)
	if c, ok := synonyms[low]; ok {
		return c
	}
	if low == "" {
		return key
	}
	return strings.ToUpper(low[:1]) + low[1:]
}

// IsVegetarianName reports whether a dish name looks vegetarian
func IsVegetarianName(name string) bool {
	low := strings.ToLower(name)
	return strings.Contains(low, "veg") || strings.Contains(low, "vegetable")
}

// Build normalises raw category data. Raw keys are visited in sorted order so
// that synonyms merging into one category always append in the same order.
// Every required category is padded to MinEntries.
func Build(raw map[string][]map[string]any) *Catalog {
	c := &Catalog{entries: make(map[string][]Entry)}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		category := CanonicalCategory(key)
		for _, item := range raw[key] {
			c.entries[category] = append(c.entries[category], parseEntry(category, item))
		}
	}

	for _, category := range Required {
		list := c.entries[category]
		switch len(list) {
		case 0:
			ph := Placeholder(category)
			c.entries[category] = []Entry{ph, ph.clone()}
		case 1:
			c.entries[category] = append(list, list[0].clone())
		}
	}

	for category := range c.entries {
		c.order = append(c.order, category)
	}
	sort.Strings(c.order)

	return c
}

// Placeholder returns the neutral stand-in used to pad a sparse category
func Placeholder(category string) Entry {
	return Entry{
		Category: category,
		Name:     "Placeholder " + category,
		Price:    0,
		Taste:    taste.Neutral(),
	}
}

// parseEntry reads name, price, taste (taste first, then taste_balance) and
// the vegetarian flag from one raw item.
func parseEntry(category string, item map[string]any) Entry {
	e := Entry{Category: category, Taste: taste.Neutral()}

	if name, ok := item["name"].(string); ok {
		e.Name = name
	}
	if price, ok := item["price"].(float64); ok {
		e.Price = price
	}

	if raw, ok := item["taste"]; ok && isTasteShape(raw) {
		e.Taste = taste.Normalize(raw)
	} else if raw, ok := item["taste_balance"]; ok && isBalanceShape(raw) {
		e.Taste = taste.Normalize(raw)
	}

	if veg, ok := item["vegetarian"].(bool); ok {
		e.Vegetarian = veg
	} else {
		e.Vegetarian = IsVegetarianName(e.Name)
	}

	return e
}

// isTasteShape accepts the list and object encodings of the taste field
func isTasteShape(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

// isBalanceShape accepts the scalar and object encodings of taste_balance
func isBalanceShape(v any) bool {
	switch v.(type) {
	case float64, map[string]any:
		return true
	}
	return false
}

// Parse decodes a JSON catalog source and builds the catalog. Categories
// whose value is not a list, and list members that are not objects, are
// skipped.
func Parse(data []byte) (*Catalog, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	raw := make(map[string][]map[string]any, len(doc))
	for key, value := range doc {
		list, ok := value.([]any)
		if !ok {
			continue
		}
		items := make([]map[string]any, 0, len(list))
		for _, v := range list {
			if obj, ok := v.(map[string]any); ok {
				items = append(items, obj)
			}
		}
		raw[key] = items
	}

	return Build(raw), nil
}

// LoadFile reads a catalog from path. A missing file yields a catalog of
// placeholders and no error.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Build(nil), nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Categories returns category names in ascending lexical order
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Entries returns a copy of the entries of a category in input order
func (c *Catalog) Entries(category string) []Entry {
	list := c.entries[category]
	if list == nil {
		return nil
	}
	out := make([]Entry, len(list))
	for i, e := range list {
		out[i] = e.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	e.Taste = e.Taste.Clone()
	return e
}

// Find returns the first entry with the given name, case-insensitively
func (c *Catalog) Find(category, name string) (Entry, bool) {
	for _, e := range c.entries[category] {
		if strings.EqualFold(e.Name, name) {
			return e.clone(), true
		}
	}
	return Entry{}, false
}

// Len returns the total number of entries across all categories
func (c *Catalog) Len() int {
	n := 0
	for _, list := range c.entries {
		n += len(list)
	}
	return n
}
