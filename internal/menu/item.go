// Package menu holds the items a diner assembles into a menu. Each item is a
// tagged variant: the category selects an attribute payload that knows how
// to describe and customise itself.
package menu

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/taste"
)

// Surcharges applied by customisation
const (
	ToppingPrice        = 2.25
	CarbonationPrice    = 0.5
	ExtraShotPrice      = 2.5
	ExtraChocolatePrice = 1.5
)

// Serve times for appetizers
const (
	ServeBefore = "before"
	ServeAfter  = "after"
)

// Customization carries the diner's choices. Nil fields are left alone;
// fields that do not apply to an item's category are ignored.
type Customization struct {
	Hot            *bool `json:"hot,omitempty"`
	Topping        *bool `json:"topping,omitempty"`
	Vegetarian     *bool `json:"vegetarian,omitempty"`
	Carbonated     *bool `json:"carbonated,omitempty"`
	ExtraShot      *bool `json:"extra_shot,omitempty"`
	ServeBefore    *bool `json:"serve_before,omitempty"`
	ExtraChocolate *bool `json:"extra_chocolate,omitempty"`
}

// Option is one yes/no question a category offers for customisation
type Option struct {
	Prompt string
	Set    func(c *Customization, yes bool)
}

// Attributes is the category-specific payload of an Item
type Attributes interface {
	// Tag is the short label shown in descriptions
	Tag() string
	// Detail is the category-specific part of the one-line description
	Detail() string
	// Apply records the choices in c and returns the price change
	Apply(c Customization) float64
	// Options lists the questions a shell should ask
	Options() []Option
}

// Item is a menu item instantiated from the catalog or entered by hand
type Item struct {
	Category string
	Name     string
	Price    float64
	Taste    taste.Vector
	Attrs    Attributes
}

// NewItem builds an item for category. Tastes that are not exactly five
// dimensions are replaced by the neutral vector.
func NewItem(category, name string, price float64, t taste.Vector) *Item {
	if len(t) != taste.Dims {
		t = taste.Neutral()
	}
	return &Item{
		Category: category,
		Name:     name,
		Price:    price,
		Taste:    t.Clone(),
		Attrs:    newAttributes(category),
	}
}

// FromEntry instantiates a catalog entry
func FromEntry(e catalog.Entry) *Item {
	item := NewItem(e.Category, e.Name, e.Price, e.Taste)
	if main, ok := item.Attrs.(*MainCourseAttrs); ok {
		main.Vegetarian = e.Vegetarian
	}
	return item
}

// newAttributes picks the payload for a category; unknown categories get the
// starter payload.
func newAttributes(category string) Attributes {
	switch category {
	case catalog.Salad:
		return &SaladAttrs{}
	case catalog.MainCourse:
		return &MainCourseAttrs{}
	case catalog.Drink:
		return &DrinkAttrs{}
	case catalog.Appetizer:
		return &AppetizerAttrs{ServeTime: ServeBefore}
	case catalog.Dessert:
		return &DessertAttrs{}
	default:
		return &StarterAttrs{}
	}
}

// Describe returns the one-line summary shown to the diner
func (i *Item) Describe() string {
	detail := i.Attrs.Detail()
	return fmt.Sprintf("[%s] %s - $%.2f%s - taste(avg:%.2f)", i.Attrs.Tag(), i.Name, i.Price, detail, i.Taste.Mean())
}

// ApplyCustomization updates the attributes and adds any surcharge
func (i *Item) ApplyCustomization(c Customization) {
	i.Price += i.Attrs.Apply(c)
}

// IsVegetarian reports the vegetarian flag of a main course
func (i *Item) IsVegetarian() bool {
	main, ok := i.Attrs.(*MainCourseAttrs)
	return ok && main.Vegetarian
}

type itemJSON struct {
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	Taste       taste.Vector    `json:"taste"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	Description string          `json:"description,omitempty"`
}

// MarshalJSON writes the item with its attribute payload under "attributes"
func (i *Item) MarshalJSON() ([]byte, error) {
	attrs, err := json.Marshal(i.Attrs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemJSON{
		Category:    i.Category,
		Name:        i.Name,
		Price:       i.Price,
		Taste:       i.Taste,
		Attributes:  attrs,
		Description: i.Describe(),
	})
}

// UnmarshalJSON restores the payload type from the category
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	item := NewItem(raw.Category, raw.Name, raw.Price, raw.Taste)
	if len(raw.Attributes) > 0 && string(raw.Attributes) != "null" {
		if err := json.Unmarshal(raw.Attributes, item.Attrs); err != nil {
			return fmt.Errorf("invalid %s attributes: %w", raw.Category, err)
		}
	}
	*i = *item
	return nil
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// StarterAttrs is the starter payload
type StarterAttrs struct {
	Hot bool `json:"hot"`
}

func (a *StarterAttrs) Tag() string    { return "Starter" }
func (a *StarterAttrs) Detail() string { return " - " + yesNo(a.Hot, "Hot", "Cold") }

func (a *StarterAttrs) Apply(c Customization) float64 {
	if c.Hot != nil {
		a.Hot = *c.Hot
	}
	return 0
}

func (a *StarterAttrs) Options() []Option {
	return []Option{{Prompt: "Starter - hot?", Set: func(c *Customization, yes bool) { c.Hot = &yes }}}
}

// SaladAttrs is the salad payload
type SaladAttrs struct {
	Topping bool `json:"topping"`
}

func (a *SaladAttrs) Tag() string    { return "Salad" }
func (a *SaladAttrs) Detail() string { return yesNo(a.Topping, " +topping", "") }

// Apply adds the topping once; it cannot be taken off again
func (a *SaladAttrs) Apply(c Customization) float64 {
	if c.Topping != nil && *c.Topping && !a.Topping {
		a.Topping = true
		return ToppingPrice
	}
	return 0
}

func (a *SaladAttrs) Options() []Option {
	return []Option{{
		Prompt: fmt.Sprintf("Add topping +$%.2f?", ToppingPrice),
		Set:    func(c *Customization, yes bool) { c.Topping = &yes },
	}}
}

// MainCourseAttrs is the main course payload
type MainCourseAttrs struct {
	Vegetarian bool `json:"vegetarian"`
}

func (a *MainCourseAttrs) Tag() string { return "Main" }
func (a *MainCourseAttrs) Detail() string {
	return " - " + yesNo(a.Vegetarian, "Vegetarian", "Non-veg")
}

func (a *MainCourseAttrs) Apply(c Customization) float64 {
	if c.Vegetarian != nil {
		a.Vegetarian = *c.Vegetarian
	}
	return 0
}

func (a *MainCourseAttrs) Options() []Option {
	return []Option{{Prompt: "Vegetarian?", Set: func(c *Customization, yes bool) { c.Vegetarian = &yes }}}
}

// DrinkAttrs is the drink payload
type DrinkAttrs struct {
	Carbonated bool `json:"carbonated"`
	ExtraShot  bool `json:"extra_shot"`
}

func (a *DrinkAttrs) Tag() string { return "Drink" }
func (a *DrinkAttrs) Detail() string {
	return yesNo(a.Carbonated, " +carbonation", "") + yesNo(a.ExtraShot, " +shot", "")
}

func (a *DrinkAttrs) Apply(c Customization) float64 {
	var extra float64
	if c.Carbonated != nil && *c.Carbonated && !a.Carbonated {
		a.Carbonated = true
		extra += CarbonationPrice
	}
	if c.ExtraShot != nil && *c.ExtraShot && !a.ExtraShot {
		a.ExtraShot = true
		extra += ExtraShotPrice
	}
	return extra
}

func (a *DrinkAttrs) Options() []Option {
	return []Option{
		{
			Prompt: fmt.Sprintf("Carbonated +$%.2f?", CarbonationPrice),
			Set:    func(c *Customization, yes bool) { c.Carbonated = &yes },
		},
		{
			Prompt: fmt.Sprintf("Extra alcohol shot +$%.2f?", ExtraShotPrice),
			Set:    func(c *Customization, yes bool) { c.ExtraShot = &yes },
		},
	}
}

// AppetizerAttrs is the appetizer payload
type AppetizerAttrs struct {
	ServeTime string `json:"serve_time"`
}

func (a *AppetizerAttrs) Tag() string    { return "Appetizer" }
func (a *AppetizerAttrs) Detail() string { return " - serve: " + a.ServeTime }

func (a *AppetizerAttrs) Apply(c Customization) float64 {
	if c.ServeBefore != nil {
		a.ServeTime = yesNo(*c.ServeBefore, ServeBefore, ServeAfter)
	}
	return 0
}

func (a *AppetizerAttrs) Options() []Option {
	return []Option{{Prompt: "Serve before main?", Set: func(c *Customization, yes bool) { c.ServeBefore = &yes }}}
}

// DessertAttrs is the dessert payload
type DessertAttrs struct {
	ExtraChocolate bool `json:"extra_chocolate"`
}

func (a *DessertAttrs) Tag() string    { return "Dessert" }
func (a *DessertAttrs) Detail() string { return yesNo(a.ExtraChocolate, " +choc", "") }

func (a *DessertAttrs) Apply(c Customization) float64 {
	if c.ExtraChocolate != nil && *c.ExtraChocolate && !a.ExtraChocolate {
		a.ExtraChocolate = true
		return ExtraChocolatePrice
	}
	return 0
}

func (a *DessertAttrs) Options() []Option {
	return []Option{{
		Prompt: fmt.Sprintf("Add extra chocolate +$%.2f?", ExtraChocolatePrice),
		Set:    func(c *Customization, yes bool) { c.ExtraChocolate = &yes },
	}}
}
