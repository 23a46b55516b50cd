package menu

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kartoza/restaurant-bot/internal/taste"
)

// Menu is an ordered selection of items. Composers put at most one item per
// category into a menu; the shell lets a diner add freely.
type Menu struct {
	items []*Item
}

// New creates a menu holding items, skipping nils
func New(items ...*Item) *Menu {
	m := &Menu{}
	for _, it := range items {
		m.Add(it)
	}
	return m
}

// Add appends an item
func (m *Menu) Add(item *Item) {
	if item == nil {
		return
	}
	m.items = append(m.items, item)
}

// Remove drops the first item with the given name and reports whether one
// was found.
func (m *Menu) Remove(name string) bool {
	for i, it := range m.items {
		if it.Name == name {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the first item with the given name, or nil
func (m *Menu) Find(name string) *Item {
	for _, it := range m.items {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// Update applies a customisation to the named item
func (m *Menu) Update(name string, c Customization) bool {
	it := m.Find(name)
	if it == nil {
		return false
	}
	it.ApplyCustomization(c)
	return true
}

// Items returns the items in order
func (m *Menu) Items() []*Item {
	out := make([]*Item, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the number of items
func (m *Menu) Len() int { return len(m.items) }

// IsEmpty reports whether the menu has no items. An empty menu from a
// composer means no suggestion was available.
func (m *Menu) IsEmpty() bool { return len(m.items) == 0 }

// TotalCost sums item prices
func (m *Menu) TotalCost() float64 {
	var total float64
	for _, it := range m.items {
		total += it.Price
	}
	return total
}

// TasteAverage is the element-wise mean of the items' tastes, neutral when
// the menu is empty.
func (m *Menu) TasteAverage() taste.Vector {
	vs := make([]taste.Vector, len(m.items))
	for i, it := range m.items {
		vs[i] = it.Taste
	}
	return taste.Average(vs)
}

// String renders the menu the way the shell prints it
func (m *Menu) String() string {
	if m.IsEmpty() {
		return "-- Your menu is empty --\n"
	}
	var b strings.Builder
	b.WriteString("-- Your Menu --\n")
	for i, it := range m.items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Describe())
	}
	avg := m.TasteAverage()
	parts := make([]string, len(avg))
	for i, v := range avg {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	fmt.Fprintf(&b, "Total cost: $%.2f | Taste avg: [%s]\n", m.TotalCost(), strings.Join(parts, ", "))
	return b.String()
}

type menuJSON struct {
	Items        []*Item      `json:"items"`
	TotalCost    float64      `json:"total_cost"`
	TasteAverage taste.Vector `json:"taste_average"`
}

// MarshalJSON includes the derived cost and taste average
func (m *Menu) MarshalJSON() ([]byte, error) {
	items := m.items
	if items == nil {
		items = []*Item{}
	}
	return json.Marshal(menuJSON{
		Items:        items,
		TotalCost:    m.TotalCost(),
		TasteAverage: m.TasteAverage(),
	})
}

// UnmarshalJSON restores the items; derived fields are recomputed
func (m *Menu) UnmarshalJSON(data []byte) error {
	var raw menuJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.items = nil
	for _, it := range raw.Items {
		m.Add(it)
	}
	return nil
}
