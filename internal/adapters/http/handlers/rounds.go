package handlers

import (
	"net/http"

	"github.com/longregen/prompttune/internal/adapters/http/dto"
	"github.com/longregen/prompttune/internal/ports"
)

type RoundsHandler struct {
	lineage ports.LineageController
}

func NewRoundsHandler(lineage ports.LineageController) *RoundsHandler {
	return &RoundsHandler{lineage: lineage}
}

// First replaces the session's lineage with a single generation evolved
// from the seed instruction.
func (h *RoundsHandler) First(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "Session ID")
	if !ok {
		return
	}

	out, err := h.lineage.FirstRound(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, "run first round")
		return
	}

	respond(w, r, (&dto.RoundResponse{}).FromOutput(out), http.StatusOK)
}

// Next evolves from a reviewed generation, discarding everything after it.
func (h *RoundsHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "Session ID")
	if !ok {
		return
	}

	req, ok := decodeBody[dto.NextRoundRequest](r, w)
	if !ok {
		return
	}
	if req.Position < 1 {
		respondError(w, "validation_error", "position must be at least 1", http.StatusBadRequest)
		return
	}

	out, err := h.lineage.NextRound(r.Context(), &ports.NextRoundInput{
		SessionID: id,
		Reviewed:  req.ToReviewed(),
	})
	if err != nil {
		respondDomainError(w, r, err, "run next round")
		return
	}

	respond(w, r, (&dto.RoundResponse{}).FromOutput(out), http.StatusOK)
}
