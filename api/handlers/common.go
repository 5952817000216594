// Package handlers provides HTTP handlers for the primerscan API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Routes registers every endpoint on r. Endpoints that classify reads use
// engine's primers and policy.
func Routes(r chi.Router, engine *primerscan.Engine) {
	api := &API{Engine: engine}

	r.Get("/health", HealthHandler)
	r.Route("/api", func(r chi.Router) {
		r.Post("/align", AlignHandler)
		r.Post("/align/global", GlobalScoreHandler)
		r.Post("/classify", api.ClassifyHandler)
		r.Post("/evaluate", api.EvaluateHandler)

		r.Route("/sequence", func(r chi.Router) {
			r.Post("/reverse-complement", ReverseComplementHandler)
			r.Post("/validate", ValidateHandler)
		})
		r.Post("/quality/check", QualityCheckHandler)
	})
}
