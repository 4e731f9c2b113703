package handlers

import (
	"net/http"

	"github.com/longregen/prompttune/internal/config"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// PublicConfigResponse contains only the configuration safe to expose to clients
type PublicConfigResponse struct {
	Version        string  `json:"version"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	MaxConcurrency int     `json:"max_concurrency"`
	AuthRequired   bool    `json:"auth_required"`
}

// GetPublicConfig handles GET /api/v1/config
func (h *ConfigHandler) GetPublicConfig(w http.ResponseWriter, r *http.Request) {
	respond(w, r, &PublicConfigResponse{
		Version:        Version,
		Provider:       h.cfg.LLM.Provider,
		Model:          h.cfg.LLM.Model,
		MaxTokens:      h.cfg.LLM.MaxTokens,
		Temperature:    h.cfg.LLM.Temperature,
		MaxConcurrency: h.cfg.Tuning.MaxConcurrency,
		AuthRequired:   h.cfg.Server.APIToken != "",
	}, http.StatusOK)
}
