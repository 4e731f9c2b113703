package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

// ============================================================================
// Common Mock implementations shared across tests
// ============================================================================

// memStore backs the session and generation mocks. The transaction mock
// snapshots it so a failed transaction leaves no trace.
type memStore struct {
	mu          sync.Mutex
	sessions    map[string]*models.Session
	generations map[string][]*models.Generation
}

func newMemStore() *memStore {
	return &memStore{
		sessions:    make(map[string]*models.Session),
		generations: make(map[string][]*models.Generation),
	}
}

func copyGeneration(g *models.Generation) *models.Generation {
	c := *g
	c.PromptResults = make([]*models.PromptResult, len(g.PromptResults))
	for i, r := range g.PromptResults {
		rc := *r
		c.PromptResults[i] = &rc
	}
	return &c
}

func (s *memStore) snapshot() (map[string]*models.Session, map[string][]*models.Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make(map[string]*models.Session, len(s.sessions))
	for k, v := range s.sessions {
		c := *v
		sessions[k] = &c
	}
	generations := make(map[string][]*models.Generation, len(s.generations))
	for k, gens := range s.generations {
		for _, g := range gens {
			generations[k] = append(generations[k], copyGeneration(g))
		}
	}
	return sessions, generations
}

func (s *memStore) restore(sessions map[string]*models.Session, generations map[string][]*models.Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
	s.generations = generations
}

// lineage returns a copy of the stored generations ordered by position
func (s *memStore) lineage(sessionID string) []*models.Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Generation, 0, len(s.generations[sessionID]))
	for _, g := range s.generations[sessionID] {
		out = append(out, copyGeneration(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (s *memStore) seedSession(session *models.Session, generations ...*models.Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	c.Generations = nil
	s.sessions[session.ID] = &c
	for _, g := range generations {
		s.generations[session.ID] = append(s.generations[session.ID], copyGeneration(g))
	}
}

// mockSessionRepo is a mock session repository for testing
type mockSessionRepo struct {
	store     *memStore
	createErr error
	summaries []*models.SessionSummary
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.store.seedSession(session)
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	m.store.mu.Lock()
	session, ok := m.store.sessions[id]
	m.store.mu.Unlock()
	if !ok {
		return nil, nil
	}
	c := *session
	c.Generations = m.store.lineage(id)
	return &c, nil
}

func (m *mockSessionRepo) ListSummaries(ctx context.Context, limit, offset int) ([]*models.SessionSummary, error) {
	if offset >= len(m.summaries) {
		return []*models.SessionSummary{}, nil
	}
	end := offset + limit
	if end > len(m.summaries) {
		end = len(m.summaries)
	}
	return m.summaries[offset:end], nil
}

// mockGenerationRepo is a mock generation repository for testing
type mockGenerationRepo struct {
	store *memStore

	createCalls int
	failCreate  int // fail the nth Create call when > 0
	deleteErr   error
}

func (m *mockGenerationRepo) Create(ctx context.Context, generation *models.Generation) error {
	m.createCalls++
	if m.failCreate > 0 && m.createCalls == m.failCreate {
		return errors.New("insert failed")
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, g := range m.store.generations[generation.SessionID] {
		if g.Position == generation.Position {
			return fmt.Errorf("duplicate position %d", generation.Position)
		}
	}
	m.store.generations[generation.SessionID] = append(m.store.generations[generation.SessionID], copyGeneration(generation))
	return nil
}

func (m *mockGenerationRepo) LockAtPosition(ctx context.Context, sessionID string, position int) (string, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, g := range m.store.generations[sessionID] {
		if g.Position == position {
			return g.ID, nil
		}
	}
	return "", nil
}

func (m *mockGenerationRepo) DeleteFromPosition(ctx context.Context, sessionID string, from int) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var kept []*models.Generation
	var removed int64
	for _, g := range m.store.generations[sessionID] {
		if g.Position >= from {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	m.store.generations[sessionID] = kept
	return removed, nil
}

func (m *mockGenerationRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return len(m.store.generations[sessionID]), nil
}

// mockTransactionManager restores the store when fn fails
type mockTransactionManager struct {
	store *memStore
	calls int
}

func (m *mockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	sessions, generations := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(sessions, generations)
		return err
	}
	return nil
}

// mockIDGenerator hands out sequential IDs
type mockIDGenerator struct {
	sessionCounter    int
	generationCounter int
	resultCounter     int
}

func (m *mockIDGenerator) GenerateSessionID() string {
	m.sessionCounter++
	return fmt.Sprintf("ps_test%d", m.sessionCounter)
}

func (m *mockIDGenerator) GenerateGenerationID() string {
	m.generationCounter++
	return fmt.Sprintf("pg_test%d", m.generationCounter)
}

func (m *mockIDGenerator) GeneratePromptResultID() string {
	m.resultCounter++
	return fmt.Sprintf("pr_test%d", m.resultCounter)
}

// mockEvolver returns scripted candidates and records what it was given
type mockEvolver struct {
	firstFunc func(ctx context.Context, seed string) (*ports.EvolutionResult, error)
	nextFunc  func(ctx context.Context, seed string, prior *ports.ReviewedGeneration) (*ports.EvolutionResult, error)

	nextCalls []*ports.ReviewedGeneration
}

func (m *mockEvolver) EvolveFirst(ctx context.Context, seed string) (*ports.EvolutionResult, error) {
	if m.firstFunc == nil {
		return &ports.EvolutionResult{}, nil
	}
	return m.firstFunc(ctx, seed)
}

func (m *mockEvolver) EvolveNext(ctx context.Context, seed string, prior *ports.ReviewedGeneration) (*ports.EvolutionResult, error) {
	m.nextCalls = append(m.nextCalls, prior)
	if m.nextFunc == nil {
		return &ports.EvolutionResult{}, nil
	}
	return m.nextFunc(ctx, seed, prior)
}

func evolveTo(tokens int64, candidates ...string) *ports.EvolutionResult {
	return &ports.EvolutionResult{Candidates: candidates, TokensUsed: tokens}
}

// mockAnswerFetcher answers "<candidate>!" and charges tokensPerAnswer each
type mockAnswerFetcher struct {
	tokensPerAnswer int64
	err             error
	calls           int
	lastCandidates  []string
	lastQuery       string
}

func (m *mockAnswerFetcher) FetchAnswers(ctx context.Context, candidates []string, query string) (*ports.FetchAnswersResult, error) {
	m.calls++
	m.lastCandidates = candidates
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	results := make([]*models.PromptResult, len(candidates))
	for i, c := range candidates {
		results[i] = &models.PromptResult{Position: i, Prompt: c, Answer: c + "!"}
	}
	return &ports.FetchAnswersResult{
		Results:    results,
		TokensUsed: m.tokensPerAnswer * int64(len(candidates)),
	}, nil
}
