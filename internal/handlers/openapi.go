package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description document. The file is read
// lazily on first request and cached for the life of the process.
type OpenAPIHandler struct {
	path string

	once     sync.Once
	yamlDoc  []byte
	jsonDoc  []byte
	loadFail bool
}

// NewOpenAPIHandler creates a handler serving the document at the given path
func NewOpenAPIHandler(path string) *OpenAPIHandler {
	return &OpenAPIHandler{path: path}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

func (h *OpenAPIHandler) load() {
	h.once.Do(func() {
		data, err := os.ReadFile(h.path)
		if err != nil {
			h.loadFail = true
			return
		}
		h.yamlDoc = data

		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return
		}
		if jsonData, err := json.Marshal(doc); err == nil {
			h.jsonDoc = jsonData
		}
	})
}

// ServeYAML serves the API description in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	h.load()
	if h.loadFail {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(h.yamlDoc)
}

// ServeJSON serves the API description converted to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	h.load()
	if h.loadFail || h.jsonDoc == nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.jsonDoc)
}
