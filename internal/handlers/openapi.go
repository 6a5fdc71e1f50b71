package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description in YAML and JSON
type OpenAPIHandler struct {
	path    string
	baseDir string
}

// NewOpenAPIHandler creates a handler for the YAML document at path
func NewOpenAPIHandler(path string) *OpenAPIHandler {
	absPath, _ := filepath.Abs(path)
	return &OpenAPIHandler{path: absPath, baseDir: filepath.Dir(absPath)}
}

// RegisterRoutes registers /api/openapi.yaml and /api/openapi.json
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/openapi.json", h.ServeJSON).Methods("GET")
}

// load reads the document, refusing paths that resolve outside its directory
func (h *OpenAPIHandler) load() ([]byte, error) {
	rel, err := filepath.Rel(h.baseDir, filepath.Clean(h.path))
	if err != nil {
		return nil, err
	}
	if rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
		return nil, os.ErrPermission
	}
	return os.ReadFile(h.path)
}

func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, err := h.load()
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "OpenAPI specification not found")
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(data)
}

// ServeJSON converts the YAML document to JSON on each request
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.load()
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "OpenAPI specification not found")
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to parse OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}
