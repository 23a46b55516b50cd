package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kartoza/restaurant-bot/internal/api"
	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/config"
	"github.com/kartoza/restaurant-bot/internal/feedback"
	"github.com/kartoza/restaurant-bot/internal/logging"
	"github.com/kartoza/restaurant-bot/internal/menus"
	"github.com/kartoza/restaurant-bot/internal/model"
)

// Server holds all the components for the web application
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router
	handler    *api.Handler
	history    *feedback.History
	menuStore  *menus.Store
}

// New creates a new Server around an already loaded catalog and model.
// The feedback history and menu store are optional; a failure to open
// either is logged and the server runs without it.
func New(cfg config.Config, cat *catalog.Catalog, m *model.SatisfactionModel) (*Server, error) {
	if cat == nil || m == nil {
		return nil, fmt.Errorf("catalog and model are required")
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
	}

	history, err := feedback.OpenHistory(cfg.ResolvedHistoryPath())
	if err != nil {
		logging.Warn().Err(err).Msg("feedback history not available")
	} else {
		s.history = history
	}

	menuStore, err := menus.NewStore(cfg.DataDir)
	if err != nil {
		logging.Warn().Err(err).Msg("menu store not available")
	} else {
		s.menuStore = menuStore
	}

	loop := &feedback.Loop{Model: m, WeightsPath: cfg.WeightsPath, History: s.history}
	s.handler = api.NewHandler(cat, m, loop, s.menuStore, cfg)

	s.setupRoutes()

	return s, nil
}

// Router exposes the configured routes, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	apiRouter := s.router.PathPrefix("/api").Subrouter()

	// Catalog management routes, registered before the generic API routes
	apiRouter.HandleFunc("/catalog/status", s.handleCatalogStatus).Methods("GET")
	apiRouter.HandleFunc("/catalog/install", s.handleCatalogInstall).Methods("POST")

	s.handler.RegisterRoutes(apiRouter)
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logging.Info().Msgf("Server listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// Close stores
	if s.history != nil {
		s.history.Close()
	}

	return err
}
