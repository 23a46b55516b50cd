package server

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/logging"
)

// catalogFileName is the entry looked up inside a zipped catalog pack
const catalogFileName = "menu.json"

// maxCatalogSize bounds the size of an installed catalog, plain or zipped
var maxCatalogSize int64 = 16 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("error encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleCatalogStatus reports where the catalog comes from and its size
func (s *Server) handleCatalogStatus(w http.ResponseWriter, r *http.Request) {
	cat := s.handler.Catalog()

	counts := map[string]int{}
	for _, category := range cat.Categories() {
		counts[category] = len(cat.Entries(category))
	}

	_, statErr := os.Stat(s.cfg.MenuPath)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"path":    s.cfg.MenuPath,
		"on_disk": statErr == nil,
		"entries": cat.Len(),
		"counts":  counts,
	})
}

// handleCatalogInstall reads a catalog from a .json file or a .zip pack
// holding menu.json, copies it to the configured menu path and swaps it in
func (s *Server) handleCatalogInstall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("file not found: %s", req.Path))
		return
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(req.Path)) {
	case ".zip":
		data, err = readCatalogPack(req.Path)
	case ".json":
		data, err = readCatalogFile(req.Path)
	default:
		respondError(w, http.StatusBadRequest, "file must be a .json catalog or a .zip pack")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := catalog.Parse(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := writeCatalog(s.cfg.MenuPath, data); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("could not store catalog: %v", err))
		return
	}

	s.handler.SetCatalog(cat)

	logging.Info().Str("source", req.Path).Int("entries", cat.Len()).Msg("catalog installed")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"installed": true,
		"path":      s.cfg.MenuPath,
		"entries":   cat.Len(),
	})
}

// readCatalogPack returns the contents of the first menu.json found in the
// archive, at any depth
func readCatalogPack(zipPath string) ([]byte, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("could not open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || filepath.Base(f.Name) != catalogFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("could not open zip entry: %w", err)
		}
		data, err := readLimited(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read zip entry: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("invalid catalog pack: no %s found", catalogFileName)
}

func readCatalogFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open catalog: %w", err)
	}
	defer f.Close()
	return readLimited(f)
}

// readLimited reads r fully, failing once it passes maxCatalogSize
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxCatalogSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxCatalogSize {
		return nil, fmt.Errorf("catalog larger than %d bytes", maxCatalogSize)
	}
	return data, nil
}

func writeCatalog(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
