package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/longregen/prompttune/internal/adapters/metrics"
	"github.com/longregen/prompttune/internal/adapters/tracing"
	"github.com/longregen/prompttune/internal/application/services"
	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

const (
	tracerName = "prompttune/usecases"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// SessionManager creates tuning sessions and loads them back
type SessionManager struct {
	sessionRepo   ports.SessionRepository
	answerFetcher ports.AnswerFetcher
	txManager     ports.TransactionManager
	idGenerator   ports.IDGenerator
}

// NewSessionManager creates a new SessionManager use case
func NewSessionManager(
	sessionRepo ports.SessionRepository,
	answerFetcher ports.AnswerFetcher,
	txManager ports.TransactionManager,
	idGenerator ports.IDGenerator,
) *SessionManager {
	return &SessionManager{
		sessionRepo:   sessionRepo,
		answerFetcher: answerFetcher,
		txManager:     txManager,
		idGenerator:   idGenerator,
	}
}

// CreateSession runs the seed instruction against the query once and stores
// the session with that answer as its baseline. Nothing is stored when the
// provider call fails.
func (uc *SessionManager) CreateSession(ctx context.Context, input *ports.CreateSessionInput) (*ports.CreateSessionOutput, error) {
	if err := services.ValidateSessionInput(input); err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "SessionManager.CreateSession")
	defer span.End()

	baseline, err := uc.answerFetcher.FetchAnswers(ctx, []string{input.SeedInstruction}, input.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "baseline answer failed")
		return nil, err
	}
	if len(baseline.Results) != 1 {
		return nil, domain.ProviderError("baseline answer", fmt.Errorf("expected 1 answer, got %d", len(baseline.Results)))
	}

	session := models.NewSession(
		uc.idGenerator.GenerateSessionID(),
		input.SeedInstruction,
		input.Query,
		baseline.Results[0].Answer,
	)

	if err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return uc.sessionRepo.Create(txCtx, session)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist session failed")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.TokensTotal.WithLabelValues("create_session").Add(float64(baseline.TokensUsed))
	span.SetAttributes(tracing.SessionID(session.ID), tracing.TokensUsed(baseline.TokensUsed))
	slog.InfoContext(ctx, "session created", "session_id", session.ID, "tokens", baseline.TokensUsed)

	return &ports.CreateSessionOutput{
		Session:    session,
		TokensUsed: baseline.TokensUsed,
	}, nil
}

// LoadSession returns the session with its full lineage
func (uc *SessionManager) LoadSession(ctx context.Context, id string) (*models.Session, error) {
	return loadSession(ctx, uc.sessionRepo, id)
}

// LoadHistories lists session summaries newest first, flagging CurrentID
func (uc *SessionManager) LoadHistories(ctx context.Context, input *ports.LoadHistoriesInput) ([]*models.SessionSummary, error) {
	if input == nil {
		input = &ports.LoadHistoriesInput{}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	summaries, err := uc.sessionRepo.ListSummaries(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	for _, s := range summaries {
		s.Current = input.CurrentID != "" && s.ID == input.CurrentID
	}

	return summaries, nil
}

func loadSession(ctx context.Context, repo ports.SessionRepository, id string) (*models.Session, error) {
	if err := services.ValidateID(id, "session"); err != nil {
		return nil, err
	}

	session, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, domain.NewDomainError(domain.ErrSessionNotFound, id)
	}

	return session, nil
}
