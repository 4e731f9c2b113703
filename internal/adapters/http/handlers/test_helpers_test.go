package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

// setURLParam adds a URL parameter to the request context (chi router style)
func setURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type mockSessionManager struct {
	mock.Mock
}

func (m *mockSessionManager) CreateSession(ctx context.Context, input *ports.CreateSessionInput) (*ports.CreateSessionOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*ports.CreateSessionOutput)
	return out, args.Error(1)
}

func (m *mockSessionManager) LoadSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *mockSessionManager) LoadHistories(ctx context.Context, input *ports.LoadHistoriesInput) ([]*models.SessionSummary, error) {
	args := m.Called(ctx, input)
	s, _ := args.Get(0).([]*models.SessionSummary)
	return s, args.Error(1)
}

type mockLineageController struct {
	mock.Mock
}

func (m *mockLineageController) FirstRound(ctx context.Context, sessionID string) (*ports.RoundOutput, error) {
	args := m.Called(ctx, sessionID)
	out, _ := args.Get(0).(*ports.RoundOutput)
	return out, args.Error(1)
}

func (m *mockLineageController) NextRound(ctx context.Context, input *ports.NextRoundInput) (*ports.RoundOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*ports.RoundOutput)
	return out, args.Error(1)
}

func testSession() *models.Session {
	s := models.NewSession("ps_1", "Summarize the text.", "What is Go?", "Go is a language.")
	s.Generations = []*models.Generation{
		models.NewGeneration("pg_1", s.ID, 1, "", []*models.PromptResult{
			{ID: "pr_1", Prompt: "Be concise.", Answer: "A language."},
			{ID: "pr_2", Prompt: "Be thorough.", Answer: "A compiled language by Google."},
		}),
	}
	return s
}
