package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/composer"
	"github.com/kartoza/restaurant-bot/internal/config"
	"github.com/kartoza/restaurant-bot/internal/feedback"
	"github.com/kartoza/restaurant-bot/internal/logging"
	"github.com/kartoza/restaurant-bot/internal/menu"
	"github.com/kartoza/restaurant-bot/internal/menus"
	"github.com/kartoza/restaurant-bot/internal/model"
	"github.com/kartoza/restaurant-bot/internal/taste"
)

// Handler provides HTTP API endpoints
type Handler struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	model   *model.SatisfactionModel
	loop    *feedback.Loop
	store   *menus.Store
	cfg     config.Config

	// Random overrides the composer's generator; tests set it
	Random composer.RandomSource
}

// NewHandler creates a new API handler. loop.Model must be m.
func NewHandler(
	cat *catalog.Catalog,
	m *model.SatisfactionModel,
	loop *feedback.Loop,
	store *menus.Store,
	cfg config.Config,
) *Handler {
	return &Handler{
		catalog: cat,
		model:   m,
		loop:    loop,
		store:   store,
		cfg:     cfg,
	}
}

// Catalog returns the catalog currently served
func (h *Handler) Catalog() *catalog.Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog
}

// SetCatalog replaces the catalog used by later requests
func (h *Handler) SetCatalog(c *catalog.Catalog) {
	h.mu.Lock()
	h.catalog = c
	h.mu.Unlock()
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Catalog and model
	r.HandleFunc("/catalog", h.handleCatalog).Methods("GET")
	r.HandleFunc("/model", h.handleModel).Methods("GET")
	r.HandleFunc("/predict", h.handlePredict).Methods("POST")

	// Suggestions and learning
	r.HandleFunc("/suggest/best", h.handleSuggestBest).Methods("POST")
	r.HandleFunc("/suggest/profile", h.handleSuggestProfile).Methods("POST")
	r.HandleFunc("/feedback", h.handleFeedback).Methods("POST")
	r.HandleFunc("/history", h.handleHistory).Methods("GET")

	// Saved menus
	r.HandleFunc("/menus", h.handleListMenus).Methods("GET")
	r.HandleFunc("/menus", h.handleCreateMenu).Methods("POST")
	r.HandleFunc("/menus/{id}", h.handleGetMenu).Methods("GET")
	r.HandleFunc("/menus/{id}", h.handleUpdateMenu).Methods("PUT")
	r.HandleFunc("/menus/{id}", h.handleDeleteMenu).Methods("DELETE")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("error encoding response")
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a JSON request body; an empty body leaves v untouched
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// suggestionResponse is returned by both suggestion endpoints
type suggestionResponse struct {
	Menu      *menu.Menu `json:"menu"`
	Empty     bool       `json:"empty"`
	Predicted float64    `json:"predicted"`
}

func (h *Handler) suggestion(m *menu.Menu) suggestionResponse {
	return suggestionResponse{
		Menu:      m,
		Empty:     m.IsEmpty(),
		Predicted: h.model.Predict(m.TasteAverage()),
	}
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":        h.cfg.Version,
		"catalog_loaded": h.Catalog() != nil,
		"history":        h.loop != nil && h.loop.History != nil,
		"menus":          h.store != nil,
	}
	respondJSON(w, http.StatusOK, info)
}

// handleCatalog returns every category with its entries
func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := h.Catalog()
	out := map[string][]catalog.Entry{}
	for _, category := range cat.Categories() {
		out[category] = cat.Entries(category)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cat.Categories(),
		"entries":    out,
	})
}

// handleModel returns the current weights
func (h *Handler) handleModel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"weights":       h.model.Weights(),
		"learning_rate": h.model.LearningRate(),
	})
}

type predictRequest struct {
	Taste interface{} `json:"taste"`
}

// handlePredict scores a taste in any accepted encoding
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	v := taste.Normalize(req.Taste)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"taste":     v,
		"predicted": h.model.Predict(v),
	})
}

// maxSamplesFactor caps a request's samples at this multiple of the
// configured default
const maxSamplesFactor = 10

type suggestBestRequest struct {
	PreferVeg bool `json:"prefer_veg"`
	Samples   int  `json:"samples"`
}

// handleSuggestBest runs the random-and-score composer
func (h *Handler) handleSuggestBest(w http.ResponseWriter, r *http.Request) {
	var req suggestBestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	base := h.cfg.Samples
	if base <= 0 {
		base = composer.DefaultSamples
	}
	if limit := maxSamplesFactor * base; req.Samples > limit {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("samples must be at most %d", limit))
		return
	}
	if req.Samples <= 0 {
		req.Samples = base
	}

	m := composer.ComposeBest(h.Catalog(), h.model, req.PreferVeg, req.Samples, h.Random)
	respondJSON(w, http.StatusOK, h.suggestion(m))
}

type suggestProfileRequest struct {
	Profile   interface{} `json:"profile"`
	PreferVeg bool        `json:"prefer_veg"`
}

// handleSuggestProfile runs the nearest-profile composer
func (h *Handler) handleSuggestProfile(w http.ResponseWriter, r *http.Request) {
	var req suggestProfileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Profile == nil {
		respondError(w, http.StatusBadRequest, "profile is required")
		return
	}

	m := composer.ComposeByProfile(h.Catalog(), taste.Normalize(req.Profile), req.PreferVeg)
	respondJSON(w, http.StatusOK, h.suggestion(m))
}

type feedbackRequest struct {
	Taste  interface{} `json:"taste"`
	Score  *float64    `json:"score"`
	Source string      `json:"source"`
	MenuID string      `json:"menu_id"`
}

// handleFeedback trains the model; out-of-range scores are ignored
func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if h.loop == nil {
		respondError(w, http.StatusServiceUnavailable, "feedback not available")
		return
	}

	var req feedbackRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Score == nil {
		respondError(w, http.StatusBadRequest, "score is required")
		return
	}
	if req.Source == "" {
		req.Source = feedback.SourceManual
	}

	res, err := h.loop.Submit(r.Context(), feedback.Feedback{
		Source: req.Source,
		MenuID: req.MenuID,
		Taste:  taste.Normalize(req.Taste),
		Score:  *req.Score,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleHistory returns recent feedback records
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.loop == nil || h.loop.History == nil {
		respondJSON(w, http.StatusOK, []feedback.Record{})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.loop.History.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "menu store not available")
		return false
	}
	return true
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, menus.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

// handleListMenus returns saved menus
func (h *Handler) handleListMenus(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondJSON(w, http.StatusOK, []*menus.SavedMenu{})
		return
	}
	list, err := h.store.List()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// handleCreateMenu saves a new menu
func (h *Handler) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	var saved menus.SavedMenu
	if err := decodeBody(r, &saved); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	created, err := h.store.Create(&saved)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// handleGetMenu returns one saved menu
func (h *Handler) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	saved, err := h.store.Get(mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// handleUpdateMenu applies a partial update
func (h *Handler) handleUpdateMenu(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	var updates menus.SavedMenu
	if err := decodeBody(r, &updates); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	saved, err := h.store.Update(mux.Vars(r)["id"], &updates)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// handleDeleteMenu removes a saved menu
func (h *Handler) handleDeleteMenu(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	if err := h.store.Delete(mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
