package menus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kartoza/restaurant-bot/internal/menu"
)

// timeLayout keeps timestamps fixed width so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no saved menu has the requested ID
var ErrNotFound = errors.New("menu not found")

// Owner identifies the diner a menu was built for
type Owner struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender,omitempty"`
}

// Title returns Mr. or Mrs. for M/F genders and Mx. otherwise
func (o Owner) Title() string {
	switch strings.ToUpper(o.Gender) {
	case "M":
		return "Mr."
	case "F":
		return "Mrs."
	default:
		return "Mx."
	}
}

// Greeting is the welcome line shown by the shell
func (o Owner) Greeting() string {
	return fmt.Sprintf("Welcome %s %s %s!", o.Title(), o.FirstName, o.LastName)
}

// SavedMenu is a menu persisted with its owner
type SavedMenu struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Owner     Owner      `json:"owner"`
	Menu      *menu.Menu `json:"menu"`
	Source    string     `json:"source,omitempty"`
	Rating    *float64   `json:"rating,omitempty"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

// Store handles saved menu persistence
type Store struct {
	menusDir string
}

// NewStore creates a store under dataDir/menus
func NewStore(dataDir string) (*Store, error) {
	menusDir := filepath.Join(dataDir, "menus")
	if err := os.MkdirAll(menusDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create menus directory: %w", err)
	}
	return &Store{menusDir: menusDir}, nil
}

// List returns all saved menus, newest first
func (s *Store) List() ([]*SavedMenu, error) {
	entries, err := os.ReadDir(s.menusDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read menus directory: %w", err)
	}

	saved := []*SavedMenu{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		m, err := s.load(entry.Name())
		if err != nil {
			continue // skip unreadable files
		}
		saved = append(saved, m)
	}

	sort.Slice(saved, func(i, j int) bool {
		return saved[i].CreatedAt > saved[j].CreatedAt
	})
	return saved, nil
}

// Get retrieves a saved menu by ID
func (s *Store) Get(id string) (*SavedMenu, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.load(id + ".json")
}

// Create assigns an ID and timestamps and saves m
func (s *Store) Create(m *SavedMenu) (*SavedMenu, error) {
	m.ID = uuid.New().String()
	now := time.Now().UTC().Format(timeLayout)
	m.CreatedAt = now
	m.UpdatedAt = now

	if m.Menu == nil {
		m.Menu = menu.New()
	}
	if m.Title == "" {
		m.Title = defaultTitle(m.Owner)
	}

	if err := s.save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update applies the non-empty fields of updates to the menu with id
func (s *Store) Update(id string, updates *SavedMenu) (*SavedMenu, error) {
	m, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if updates.Title != "" {
		m.Title = updates.Title
	}
	if updates.Owner != (Owner{}) {
		m.Owner = updates.Owner
	}
	if updates.Menu != nil {
		m.Menu = updates.Menu
	}
	if updates.Source != "" {
		m.Source = updates.Source
	}
	if updates.Rating != nil {
		m.Rating = updates.Rating
	}
	m.UpdatedAt = time.Now().UTC().Format(timeLayout)

	if err := s.save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the menu with id
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.menusDir, id+".json"))
}

func defaultTitle(o Owner) string {
	name := strings.TrimSpace(o.FirstName + " " + o.LastName)
	if name == "" {
		return "Menu"
	}
	return name + "'s menu"
}

func (s *Store) load(filename string) (*SavedMenu, error) {
	data, err := os.ReadFile(filepath.Join(s.menusDir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}

	var m SavedMenu
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}
	if m.Menu == nil {
		m.Menu = menu.New()
	}
	return &m, nil
}

func (s *Store) save(m *SavedMenu) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal menu: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.menusDir, m.ID+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write menu file: %w", err)
	}
	return nil
}
