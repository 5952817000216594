package handlers

import (
	"net/http"

	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// SequenceRequest represents a request with a sequence.
type SequenceRequest struct {
	Sequence string `json:"sequence"`
}

// ReverseComplementResponse represents the response for reverse complement.
type ReverseComplementResponse struct {
	ReverseComplement string `json:"reverse_complement"`
}

// ReverseComplementHandler handles reverse complement requests.
func ReverseComplementHandler(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if !decode(w, r, &req) {
		return
	}
	if err := sequence.Validate(req.Sequence); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReverseComplementResponse{
		ReverseComplement: sequence.ReverseComplement(req.Sequence),
	})
}

// ValidateResponse represents validation result.
type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateHandler handles sequence validation requests.
func ValidateHandler(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if !decode(w, r, &req) {
		return
	}

	if err := sequence.Validate(req.Sequence); err != nil {
		writeJSON(w, http.StatusOK, ValidateResponse{Valid: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: true})
}
