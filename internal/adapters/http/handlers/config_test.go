package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/longregen/prompttune/internal/config"
)

func TestConfigHandler_HidesSecrets(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = "sk-secret"
	cfg.Server.APIToken = "token"

	rr := httptest.NewRecorder()
	NewConfigHandler(cfg).GetPublicConfig(rr, httptest.NewRequest("GET", "/api/v1/config", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	body := rr.Body.String()
	for _, secret := range []string{"sk-secret", "\"token\""} {
		if strings.Contains(body, secret) {
			t.Errorf("response leaks %s: %s", secret, body)
		}
	}

	var resp PublicConfigResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Model != cfg.LLM.Model || resp.Provider != cfg.LLM.Provider {
		t.Errorf("unexpected model info %+v", resp)
	}
	if !resp.AuthRequired {
		t.Error("expected auth_required to be true")
	}
	if resp.MaxConcurrency != cfg.Tuning.MaxConcurrency {
		t.Errorf("expected max_concurrency %d, got %d", cfg.Tuning.MaxConcurrency, resp.MaxConcurrency)
	}
}
