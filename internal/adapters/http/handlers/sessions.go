package handlers

import (
	"net/http"
	"strings"

	"github.com/longregen/prompttune/internal/adapters/http/dto"
	"github.com/longregen/prompttune/internal/ports"
)

const (
	MaxSeedInstructionLength = 20000
	MaxQueryLength           = 20000
)

type SessionsHandler struct {
	sessions ports.SessionManager
}

func NewSessionsHandler(sessions ports.SessionManager) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[dto.CreateSessionRequest](r, w)
	if !ok {
		return
	}

	req.SeedInstruction = strings.TrimSpace(req.SeedInstruction)
	req.Query = strings.TrimSpace(req.Query)

	if req.SeedInstruction == "" || req.Query == "" {
		respondError(w, "validation_error", "seed_instruction and query are required", http.StatusBadRequest)
		return
	}
	if len(req.SeedInstruction) > MaxSeedInstructionLength || len(req.Query) > MaxQueryLength {
		respondError(w, "validation_error", "seed_instruction or query exceeds maximum length", http.StatusBadRequest)
		return
	}

	out, err := h.sessions.CreateSession(r.Context(), &ports.CreateSessionInput{
		SeedInstruction: req.SeedInstruction,
		Query:           req.Query,
	})
	if err != nil {
		respondDomainError(w, r, err, "create session")
		return
	}

	respond(w, r, &dto.CreateSessionResponse{
		Session:    (&dto.SessionResponse{}).FromModel(out.Session),
		TokensUsed: out.TokensUsed,
	}, http.StatusCreated)
}

func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	summaries, err := h.sessions.LoadHistories(r.Context(), &ports.LoadHistoriesInput{
		CurrentID: r.URL.Query().Get("current"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondDomainError(w, r, err, "list sessions")
		return
	}

	respond(w, r, &dto.SessionListResponse{
		Sessions: dto.FromSummaryList(summaries),
		Total:    len(summaries),
		Limit:    limit,
		Offset:   offset,
	}, http.StatusOK)
}

func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "Session ID")
	if !ok {
		return
	}

	session, err := h.sessions.LoadSession(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, "load session")
		return
	}

	respond(w, r, (&dto.SessionResponse{}).FromModel(session), http.StatusOK)
}
