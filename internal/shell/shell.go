// Package shell runs the interactive console session: greet the diner,
// offer a suggested menu, let them build their own, then learn from their
// rating.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/composer"
	"github.com/kartoza/restaurant-bot/internal/feedback"
	"github.com/kartoza/restaurant-bot/internal/logging"
	"github.com/kartoza/restaurant-bot/internal/menu"
	"github.com/kartoza/restaurant-bot/internal/menus"
	"github.com/kartoza/restaurant-bot/internal/taste"
)

// Suggestion choices offered after the greeting
const (
	SuggestSkip    = 0
	SuggestBest    = 1
	SuggestProfile = 2
)

// Menu building actions
const (
	actionDone   = 0
	actionShow   = 1
	actionAdd    = 2
	actionRemove = 3
	actionUpdate = 4
)

// maxAttempts bounds how often a numeric prompt is repeated
const maxAttempts = 3

// Shell is one console session. Catalog and Loop are required; Store is
// optional and receives the finished menu.
type Shell struct {
	Catalog *catalog.Catalog
	Loop    *feedback.Loop
	Store   *menus.Store
	Samples int
	Random  composer.RandomSource

	in  *bufio.Scanner
	out io.Writer
	eof bool
}

// New creates a shell reading answers from in and writing prompts to out
func New(in io.Reader, out io.Writer, cat *catalog.Catalog, loop *feedback.Loop, store *menus.Store) *Shell {
	return &Shell{
		Catalog: cat,
		Loop:    loop,
		Store:   store,
		Samples: composer.DefaultSamples,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run drives the whole session. Bad input never aborts it; running out of
// input finishes every remaining step with its default answer. The only
// error returned is a cancelled context.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("==============================\n")
	s.printf("  Welcome to Restaurant Bot\n")
	s.printf("==============================\n\n")

	owner := menus.Owner{
		FirstName: s.ask("Enter your first name: "),
		LastName:  s.ask("Enter your last name: "),
		Gender:    s.ask("Enter your gender (M/F): "),
	}
	s.printf("%s\n", owner.Greeting())
	s.printf("\nMenu catalog has %d items in %d categories.\n", s.Catalog.Len(), len(s.Catalog.Categories()))

	choice := s.askInt("\nDo you want a menu suggestion? (1=Random+AI, 2=By taste profile, 0=Skip): ", SuggestSkip)
	preferVeg := s.askInt("Prefer vegetarian main course? (1=yes, 0=no): ", 0) == 1

	if err := ctx.Err(); err != nil {
		return err
	}

	var suggested *menu.Menu
	switch choice {
	case SuggestBest:
		suggested = s.suggestBest(ctx, preferVeg)
	case SuggestProfile:
		suggested = s.suggestProfile(ctx, preferVeg)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	built := s.buildMenu(ctx, suggested)

	if err := ctx.Err(); err != nil {
		return err
	}

	s.evaluate(ctx, built)
	s.saveMenu(owner, built)

	s.printf("\nThank you for using Restaurant Bot!\n")
	return nil
}

func (s *Shell) suggestBest(ctx context.Context, preferVeg bool) *menu.Menu {
	sug := composer.ComposeBest(s.Catalog, s.Loop.Model, preferVeg, s.Samples, s.Random)
	if sug.IsEmpty() {
		s.printf("No items available for suggestion.\n")
		return nil
	}
	s.showSuggestion(sug)

	score := s.askFloat("Enter your satisfaction for this suggestion (0-1, or -1 to skip): ", -1)
	if s.submit(ctx, feedback.SourceBest, sug.TasteAverage(), score) {
		s.printf("Model updated.\n")
	}
	return sug
}

func (s *Shell) suggestProfile(ctx context.Context, preferVeg bool) *menu.Menu {
	profile := s.askTaste("Enter your taste balance (sweet salty sour bitter spicy) as 5 numbers: ", taste.Neutral())
	sug := composer.ComposeByProfile(s.Catalog, profile, preferVeg)
	if sug.IsEmpty() {
		s.printf("No items available for suggestion.\n")
		return nil
	}
	s.printf("Predicted satisfaction for this suggested menu: %.4f\n", s.Loop.Model.Predict(sug.TasteAverage()))
	s.showSuggestion(sug)

	// trains on the requested profile, not the served average
	score := s.askFloat("Your satisfaction score (0-1, or -1 to skip): ", -1)
	if s.submit(ctx, feedback.SourceProfile, profile, score) {
		s.printf("Weights updated and saved!\n")
	}
	return sug
}

func (s *Shell) showSuggestion(m *menu.Menu) {
	s.printf("\n-- Suggested Menu --\n")
	for _, it := range m.Items() {
		s.printf("%s\n", it.Describe())
	}
	s.printf("Total Cost: $%.2f\n", m.TotalCost())
}

// buildMenu runs the show/add/remove/update loop. A suggestion can seed it.
func (s *Shell) buildMenu(ctx context.Context, suggested *menu.Menu) *menu.Menu {
	built := menu.New()
	if suggested != nil && !suggested.IsEmpty() &&
		s.askInt("\nStart your menu from the suggestion? (1=yes, 0=no): ", 0) == 1 {
		built = menu.New(suggested.Items()...)
	}

	for !s.eof && ctx.Err() == nil {
		c, ok := s.readInt("\nOptions: 1=show 2=add 3=remove 4=update 0=exit\nChoice: ")
		if !ok {
			continue
		}
		switch c {
		case actionDone:
			return built
		case actionShow:
			s.printf("%s", built.String())
		case actionAdd:
			s.addItem(built)
		case actionRemove:
			name := s.ask("Name to remove: ")
			if !built.Remove(name) {
				s.printf("Item not found.\n")
			}
		case actionUpdate:
			name := s.ask("Name to update: ")
			it := built.Find(name)
			if it == nil {
				s.printf("Item not found.\n")
				continue
			}
			built.Update(name, s.customize(it))
			s.printf("Updated.\n")
		default:
			s.printf("Unknown option.\n")
		}
	}
	return built
}

func (s *Shell) addItem(built *menu.Menu) {
	category := catalog.CanonicalCategory(s.ask("Category (Starter/Salad/MainCourse/Drink/Appetizer/Dessert): "))
	if !isRequired(category) {
		s.printf("Unknown category\n")
		return
	}

	var item *menu.Item
	if entries := s.Catalog.Entries(category); len(entries) > 0 {
		s.printf("\nAvailable items in %s:\n", category)
		for i, e := range entries {
			s.printf(" %d) %s - $%.2f\n", i+1, e.Name, e.Price)
		}
		sel := s.askInt("Enter number to pick that item, or 0 to enter new: ", 0)
		if sel > 0 && sel <= len(entries) {
			item = menu.FromEntry(entries[sel-1])
		}
	}

	if item == nil {
		name := s.ask("Name: ")
		price := s.askFloat("Price: ", 0)
		t := s.askTaste("Enter 5 taste numbers (sweet salty sour bitter spicy): ", taste.Neutral())
		item = menu.NewItem(category, name, price, t)
	}

	item.ApplyCustomization(s.customize(item))
	built.Add(item)
	s.printf("Added.\n")
}

// customize asks every yes/no option the item's category offers
func (s *Shell) customize(it *menu.Item) menu.Customization {
	var c menu.Customization
	for _, opt := range it.Attrs.Options() {
		if s.eof {
			break
		}
		opt.Set(&c, s.askInt(opt.Prompt+" (1=yes, 0=no): ", 0) == 1)
	}
	return c
}

// evaluate collects the final rating. An empty taste answer rates the
// built menu's own average.
func (s *Shell) evaluate(ctx context.Context, built *menu.Menu) {
	s.printf("\nLet's evaluate your menu experience! (0-1 satisfaction)\n")
	t := s.askTaste("Enter your taste balance (sweet salty sour bitter spicy), or blank for your menu's: ", built.TasteAverage())
	score := s.askFloat("Your satisfaction score (0-1): ", -1)

	s.printf("\nPredicted satisfaction: %.4f\n", s.Loop.Model.Predict(t))
	if !feedback.ValidScore(score) {
		s.printf("No valid score given, model unchanged.\n")
	} else {
		s.printf("Actual satisfaction: %.4f\n", score)
		if s.submit(ctx, feedback.SourceManual, t, score) {
			s.printf("Weights updated and saved!\n")
		}
	}
	s.printWeights()
}

func (s *Shell) printWeights() {
	w := s.Loop.Model.Weights()
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = strconv.FormatFloat(v, 'f', 4, 64)
	}
	s.printf("Weights: [%s]\n", strings.Join(parts, ", "))
}

// submit trains on one sample and reports whether the step was applied
func (s *Shell) submit(ctx context.Context, source string, t taste.Vector, score float64) bool {
	res, err := s.Loop.Submit(ctx, feedback.Feedback{Source: source, Taste: t, Score: score})
	if err != nil {
		logging.Warn().Err(err).Msg("feedback not applied")
		return false
	}
	return res.Applied
}

func (s *Shell) saveMenu(owner menus.Owner, built *menu.Menu) {
	if s.Store == nil || built.IsEmpty() {
		return
	}
	saved, err := s.Store.Create(&menus.SavedMenu{Owner: owner, Menu: built, Source: feedback.SourceManual})
	if err != nil {
		logging.Warn().Err(err).Msg("could not save menu")
		return
	}
	s.printf("Menu saved as %s.\n", saved.ID)
}

func isRequired(category string) bool {
	for _, c := range catalog.Required {
		if c == category {
			return true
		}
	}
	return false
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// readLine returns the next trimmed line, or false once input is exhausted
func (s *Shell) readLine() (string, bool) {
	if s.eof {
		return "", false
	}
	if !s.in.Scan() {
		s.eof = true
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) ask(prompt string) string {
	s.printf("%s", prompt)
	line, _ := s.readLine()
	return line
}

// readInt prompts once and reports whether the answer was an integer
func (s *Shell) readInt(prompt string) (int, bool) {
	line := s.ask(prompt)
	n, err := strconv.Atoi(line)
	if err != nil {
		if !s.eof {
			s.printf("Please enter a number.\n")
		}
		return 0, false
	}
	return n, true
}

func (s *Shell) askInt(prompt string, def int) int {
	for i := 0; i < maxAttempts && !s.eof; i++ {
		if n, ok := s.readInt(prompt); ok {
			return n
		}
	}
	return def
}

func (s *Shell) askFloat(prompt string, def float64) float64 {
	for i := 0; i < maxAttempts && !s.eof; i++ {
		line := s.ask(prompt)
		if v, ok := parseFinite(line); ok {
			return v
		}
		if !s.eof {
			s.printf("Please enter a number.\n")
		}
	}
	return def
}

// askTaste reads up to five numbers from one line. A blank line keeps def;
// missing trailing values are neutral and extra values are dropped.
func (s *Shell) askTaste(prompt string, def taste.Vector) taste.Vector {
	for i := 0; i < maxAttempts && !s.eof; i++ {
		line := s.ask(prompt)
		if line == "" {
			return def
		}
		fields := strings.Fields(line)
		values := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, ok := parseFinite(f)
			if !ok {
				values = nil
				break
			}
			values = append(values, v)
		}
		if values != nil {
			return taste.Normalize(values)
		}
		s.printf("Please enter up to 5 numbers.\n")
	}
	return def
}

// parseFinite accepts a number but not NaN or an infinity
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
