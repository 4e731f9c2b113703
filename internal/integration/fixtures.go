//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/longregen/prompttune/internal/adapters/id"
	"github.com/longregen/prompttune/internal/adapters/postgres"
	"github.com/longregen/prompttune/internal/application/services"
	"github.com/longregen/prompttune/internal/application/usecases"
	"github.com/longregen/prompttune/internal/ports"
)

// scriptedProvider answers every instruction with "answer to <instruction>"
// and returns the queued candidate lists for structured requests in order.
type scriptedProvider struct {
	mu         sync.Mutex
	candidates [][]string
	failOn     string
	contexts   [][]string
}

func (p *scriptedProvider) queue(candidates ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candidates = append(p.candidates, candidates)
}

func (p *scriptedProvider) Complete(ctx context.Context, instruction, input string) (*ports.Completion, error) {
	if p.failOn != "" && strings.Contains(instruction, p.failOn) {
		return nil, fmt.Errorf("scripted failure for %q", instruction)
	}
	return &ports.Completion{
		Content: "answer to " + instruction,
		Usage:   &ports.TokenUsage{TotalTokens: 10},
	}, nil
}

func (p *scriptedProvider) CompleteStructured(ctx context.Context, contextLines []string, schema ports.StructuredSchema) (*ports.StructuredCompletion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.contexts = append(p.contexts, contextLines)
	if len(p.candidates) == 0 {
		return &ports.StructuredCompletion{Usage: &ports.TokenUsage{TotalTokens: 3}}, nil
	}

	next := p.candidates[0]
	p.candidates = p.candidates[1:]
	raw, err := json.Marshal(map[string][]string{"prompts": next})
	if err != nil {
		return nil, err
	}
	return &ports.StructuredCompletion{Raw: raw, Usage: &ports.TokenUsage{TotalTokens: 7}}, nil
}

type harness struct {
	db       *TestDB
	provider *scriptedProvider
	sessions *usecases.SessionManager
	lineage  *usecases.LineageController
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := SetupTestDB(t)
	provider := &scriptedProvider{}

	sessionRepo := postgres.NewSessionRepository(db.Pool)
	generationRepo := postgres.NewGenerationRepository(db.Pool)
	txManager := postgres.NewTransactionManager(db.Pool)
	idGen := id.New()
	fetcher := services.NewAnswerFetcher(provider, 4)

	return &harness{
		db:       db,
		provider: provider,
		sessions: usecases.NewSessionManager(sessionRepo, fetcher, txManager, idGen),
		lineage: usecases.NewLineageController(
			sessionRepo,
			generationRepo,
			services.NewPromptEvolver(provider),
			fetcher,
			txManager,
			idGen,
		),
	}
}
