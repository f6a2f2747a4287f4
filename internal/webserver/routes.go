package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/vedanthq/SLMGen/internal/webapi"
)

// registerRoutes mounts the API and a small index on the mux.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	h := webapi.NewHandlers(cfg.API)
	general := webapi.NewRateLimiter(cfg.RateLimit)
	upload := webapi.NewRateLimiter(cfg.UploadRateLimit)
	webapi.RegisterRoutes(mux, h, cfg.Auth, general, upload)

	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("/", handleNotFound)
}

// handleIndex describes the service.
func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
		"name":    "SLMGen API",
		"version": webapi.Version,
		"health":  "/api/health",
	})
}

// handleNotFound returns a JSON 404 for unknown paths.
func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(webapi.ErrorResponse{Error: "not found", Code: http.StatusNotFound}) //nolint:errcheck
}
