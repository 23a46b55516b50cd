package menu

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/taste"
)

func boolPtr(b bool) *bool { return &b }

func TestNewItemPayloads(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{catalog.Starter, "*menu.StarterAttrs"},
		{catalog.Salad, "*menu.SaladAttrs"},
		{catalog.MainCourse, "*menu.MainCourseAttrs"},
		{catalog.Drink, "*menu.DrinkAttrs"},
		{catalog.Appetizer, "*menu.AppetizerAttrs"},
		{catalog.Dessert, "*menu.DessertAttrs"},
		{"Soups", "*menu.StarterAttrs"},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			item := NewItem(tt.category, "x", 1, taste.Neutral())
			got := fmt.Sprintf("%T", item.Attrs)
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewItemRejectsBadTaste(t *testing.T) {
	item := NewItem(catalog.Drink, "Tea", 2, taste.Vector{1, 1})
	if taste.Distance(item.Taste, taste.Neutral()) != 0 {
		t.Errorf("Expected neutral taste for malformed input, got %v", item.Taste)
	}
}

func TestFromEntryCarriesVegetarian(t *testing.T) {
	item := FromEntry(catalog.Entry{Category: catalog.MainCourse, Name: "Dal", Price: 9, Taste: taste.Neutral(), Vegetarian: true})
	if !item.IsVegetarian() {
		t.Error("Expected vegetarian main course")
	}
	if !strings.Contains(item.Describe(), "Vegetarian") {
		t.Errorf("Expected description to mention Vegetarian, got %q", item.Describe())
	}
}

func TestCustomizationSurcharges(t *testing.T) {
	tests := []struct {
		name      string
		category  string
		c         Customization
		wantPrice float64
		wantText  string
	}{
		{"salad topping", catalog.Salad, Customization{Topping: boolPtr(true)}, 12.25, "+topping"},
		{"salad declined", catalog.Salad, Customization{Topping: boolPtr(false)}, 10, "$10.00 - taste"},
		{"drink both", catalog.Drink, Customization{Carbonated: boolPtr(true), ExtraShot: boolPtr(true)}, 13, "+carbonation +shot"},
		{"dessert chocolate", catalog.Dessert, Customization{ExtraChocolate: boolPtr(true)}, 11.5, "+choc"},
		{"starter hot", catalog.Starter, Customization{Hot: boolPtr(true)}, 10, "Hot"},
		{"appetizer after", catalog.Appetizer, Customization{ServeBefore: boolPtr(false)}, 10, "serve: after"},
		{"main vegetarian", catalog.MainCourse, Customization{Vegetarian: boolPtr(true)}, 10, "Vegetarian"},
		{"irrelevant field", catalog.Starter, Customization{ExtraChocolate: boolPtr(true)}, 10, "Cold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewItem(tt.category, "Dish", 10, taste.Neutral())
			item.ApplyCustomization(tt.c)
			if math.Abs(item.Price-tt.wantPrice) > 1e-9 {
				t.Errorf("Expected price %v, got %v", tt.wantPrice, item.Price)
			}
			if !strings.Contains(item.Describe(), tt.wantText) {
				t.Errorf("Expected %q in %q", tt.wantText, item.Describe())
			}
		})
	}
}

func TestSurchargeAppliedOnce(t *testing.T) {
	item := NewItem(catalog.Dessert, "Brownie", 5, taste.Neutral())
	item.ApplyCustomization(Customization{ExtraChocolate: boolPtr(true)})
	item.ApplyCustomization(Customization{ExtraChocolate: boolPtr(true)})
	if item.Price != 6.5 {
		t.Errorf("Expected chocolate charged once, got price %v", item.Price)
	}
}

func TestOptionsBuildCustomization(t *testing.T) {
	item := NewItem(catalog.Drink, "Gin", 8, taste.Neutral())
	opts := item.Attrs.Options()
	if len(opts) != 2 {
		t.Fatalf("Expected 2 drink options, got %d", len(opts))
	}

	var c Customization
	opts[0].Set(&c, false)
	opts[1].Set(&c, true)
	item.ApplyCustomization(c)

	if item.Price != 10.5 {
		t.Errorf("Expected only the shot surcharge, got price %v", item.Price)
	}
}

func TestMenuAggregates(t *testing.T) {
	m := New(
		NewItem(catalog.Starter, "Soup", 4, taste.Vector{1, 1, 1, 1, 1}),
		NewItem(catalog.Dessert, "Cake", 6, taste.Vector{0, 0, 0, 0, 0}),
		nil,
	)

	if m.Len() != 2 {
		t.Fatalf("Expected 2 items, got %d", m.Len())
	}
	if m.TotalCost() != 10 {
		t.Errorf("Expected total 10, got %v", m.TotalCost())
	}
	if taste.Distance(m.TasteAverage(), taste.Neutral()) > 1e-9 {
		t.Errorf("Expected neutral average, got %v", m.TasteAverage())
	}
}

func TestEmptyMenu(t *testing.T) {
	m := New()
	if !m.IsEmpty() {
		t.Error("Expected empty menu")
	}
	if taste.Distance(m.TasteAverage(), taste.Neutral()) != 0 {
		t.Errorf("Expected neutral average for empty menu, got %v", m.TasteAverage())
	}
	if !strings.Contains(m.String(), "empty") {
		t.Errorf("Unexpected rendering: %q", m.String())
	}
}

func TestMenuRemoveAndUpdate(t *testing.T) {
	m := New(
		NewItem(catalog.Salad, "Caesar", 7, taste.Neutral()),
		NewItem(catalog.Drink, "Cola", 2, taste.Neutral()),
	)

	if m.Remove("Nope") {
		t.Error("Expected Remove of unknown item to fail")
	}
	if !m.Update("Caesar", Customization{Topping: boolPtr(true)}) {
		t.Fatal("Expected Update to find Caesar")
	}
	if m.TotalCost() != 11.25 {
		t.Errorf("Expected total 11.25 after topping, got %v", m.TotalCost())
	}
	if !m.Remove("Cola") {
		t.Fatal("Expected Remove to find Cola")
	}
	if m.Len() != 1 || m.Find("Cola") != nil {
		t.Errorf("Expected Cola removed, got %d items", m.Len())
	}
}

func TestMenuJSONRoundTrip(t *testing.T) {
	m := New(
		NewItem(catalog.Appetizer, "Olives", 3, taste.Vector{0.1, 0.9, 0.3, 0.2, 0.1}),
		NewItem(catalog.Drink, "Soda", 2, taste.Neutral()),
	)
	m.Update("Olives", Customization{ServeBefore: boolPtr(false)})
	m.Update("Soda", Customization{Carbonated: boolPtr(true)})

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var restored Menu
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.Len() != 2 {
		t.Fatalf("Expected 2 items, got %d", restored.Len())
	}
	olives := restored.Find("Olives")
	if attrs, ok := olives.Attrs.(*AppetizerAttrs); !ok || attrs.ServeTime != ServeAfter {
		t.Errorf("Expected appetizer served after, got %+v", olives.Attrs)
	}
	soda := restored.Find("Soda")
	if attrs, ok := soda.Attrs.(*DrinkAttrs); !ok || !attrs.Carbonated {
		t.Errorf("Expected carbonated drink, got %+v", soda.Attrs)
	}
	if restored.TotalCost() != 5.5 {
		t.Errorf("Expected total 5.5, got %v", restored.TotalCost())
	}
}
