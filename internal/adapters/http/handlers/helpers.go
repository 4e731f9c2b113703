package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/longregen/prompttune/internal/adapters/http/dto"
	"github.com/longregen/prompttune/internal/adapters/http/encoding"
	"github.com/longregen/prompttune/internal/domain"
)

const maxBodyBytes = 1024 * 1024

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respond writes data as MessagePack when the client asks for it, JSON otherwise
func respond(w http.ResponseWriter, r *http.Request, data any, status int) {
	if encoding.NegotiateContentType(r) == encoding.ContentTypeMsgpack {
		if err := encoding.WriteMsgpack(w, status, data); err != nil {
			log.Printf("Failed to write msgpack response: %v", err)
		}
		return
	}
	respondJSON(w, data, status)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, errorType string, message string, status int) {
	respondJSON(w, dto.NewErrorResponse(errorType, message, status), status)
}

// respondDomainError maps lineage and provider errors onto HTTP statuses
func respondDomainError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, "not_found", "Session not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrGenerationNotFound):
		respondError(w, "not_found", "Generation not found in session lineage", http.StatusNotFound)
	case errors.Is(err, domain.ErrStaleGeneration):
		respondError(w, "stale_generation", "Generation changed since it was read; reload the session", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidInput):
		respondError(w, "validation_error", err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrProviderUnavailable):
		respondError(w, "provider_unavailable", "Completion provider is unavailable, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrProviderFailed):
		log.Printf("Provider failure during %s (path=%s): %v", action, r.URL.Path, err)
		respondError(w, "provider_error", "Completion provider request failed", http.StatusBadGateway)
	default:
		log.Printf("Failed to %s (path=%s): %v", action, r.URL.Path, err)
		respondError(w, "internal_error", "Failed to "+action, http.StatusInternalServerError)
	}
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(r *http.Request, name string, defaultValue int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// validateURLParam validates and returns a URL parameter
func validateURLParam(r *http.Request, w http.ResponseWriter, paramName, errorField string) (string, bool) {
	value := chi.URLParam(r, paramName)
	if value == "" {
		respondError(w, "invalid_request", errorField+" is required", http.StatusBadRequest)
		return "", false
	}
	return value, true
}

// decodeBody decodes a JSON or MessagePack request body
func decodeBody[T any](r *http.Request, w http.ResponseWriter) (*T, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req T
	var err error
	if encoding.IsMsgpackBody(r) {
		err = encoding.ReadMsgpack(r, &req)
	} else {
		err = json.NewDecoder(r.Body).Decode(&req)
	}
	if err != nil {
		respondError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}
