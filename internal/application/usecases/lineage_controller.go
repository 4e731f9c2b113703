package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/longregen/prompttune/internal/adapters/metrics"
	"github.com/longregen/prompttune/internal/adapters/tracing"
	"github.com/longregen/prompttune/internal/application/services"
	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

const (
	roundFirst = "first"
	roundNext  = "next"
)

// LineageController runs tuning rounds over a session's generation lineage.
//
// A round evolves candidates, fetches their answers, and only then replaces
// the affected suffix of the lineage in a single transaction. Nothing is
// written when evolution yields no candidates or a provider call fails.
//
// The controller holds no per-session lock: callers must not run two rounds
// for the same session at the same time. NextRound does reject a reviewed
// generation that no longer matches what is stored.
type LineageController struct {
	sessionRepo    ports.SessionRepository
	generationRepo ports.GenerationRepository
	evolver        ports.PromptEvolver
	answerFetcher  ports.AnswerFetcher
	txManager      ports.TransactionManager
	idGenerator    ports.IDGenerator
}

// NewLineageController creates a new LineageController use case
func NewLineageController(
	sessionRepo ports.SessionRepository,
	generationRepo ports.GenerationRepository,
	evolver ports.PromptEvolver,
	answerFetcher ports.AnswerFetcher,
	txManager ports.TransactionManager,
	idGenerator ports.IDGenerator,
) *LineageController {
	return &LineageController{
		sessionRepo:    sessionRepo,
		generationRepo: generationRepo,
		evolver:        evolver,
		answerFetcher:  answerFetcher,
		txManager:      txManager,
		idGenerator:    idGenerator,
	}
}

// FirstRound seeds generation 1 from the session's own instruction,
// replacing any lineage the session already has.
func (uc *LineageController) FirstRound(ctx context.Context, sessionID string) (out *ports.RoundOutput, err error) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "LineageController.FirstRound",
		trace.WithAttributes(tracing.SessionID(sessionID)))
	defer func() { finishRound(ctx, span, roundFirst, out, err) }()

	session, err := loadSession(ctx, uc.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}

	evolution, err := uc.evolver.EvolveFirst(ctx, session.SeedInstruction)
	if err != nil {
		return nil, err
	}
	if len(evolution.Candidates) == 0 {
		return unchanged(session, evolution.TokensUsed), nil
	}

	answers, err := uc.answerFetcher.FetchAnswers(ctx, evolution.Candidates, session.Query)
	if err != nil {
		return nil, err
	}

	generation := uc.newGeneration(session.ID, models.FirstGenerationPosition, "", answers.Results)

	var count int
	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.generationRepo.DeleteFromPosition(txCtx, session.ID, models.FirstGenerationPosition); err != nil {
			return fmt.Errorf("failed to reset lineage: %w", err)
		}
		if err := uc.generationRepo.Create(txCtx, generation); err != nil {
			return fmt.Errorf("failed to create generation: %w", err)
		}
		n, err := uc.generationRepo.CountBySession(txCtx, session.ID)
		count = n
		return err
	})
	if err != nil {
		return nil, err
	}

	session.Generations = []*models.Generation{generation}

	return &ports.RoundOutput{
		Session:         session,
		TokensUsed:      services.SumTokens(evolution.TokensUsed, answers.TokensUsed),
		GenerationCount: count,
		Candidates:      len(evolution.Candidates),
		Evolved:         true,
	}, nil
}

// NextRound rewinds the lineage to the reviewed generation, stores the
// reviewer's edits as that generation, and appends a new generation evolved
// from it. Every generation after the reviewed one is discarded.
func (uc *LineageController) NextRound(ctx context.Context, input *ports.NextRoundInput) (out *ports.RoundOutput, err error) {
	if input == nil {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "reviewed generation is required")
	}
	if err := services.ValidateReviewed(input.Reviewed); err != nil {
		return nil, err
	}
	reviewed := input.Reviewed

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "LineageController.NextRound",
		trace.WithAttributes(
			tracing.SessionID(input.SessionID),
			tracing.GenerationID(reviewed.GenerationID),
			tracing.GenerationPosition(reviewed.Position),
		))
	defer func() { finishRound(ctx, span, roundNext, out, err) }()

	session, err := loadSession(ctx, uc.sessionRepo, input.SessionID)
	if err != nil {
		return nil, err
	}

	stored, err := checkReviewed(session, reviewed)
	if err != nil {
		return nil, err
	}

	evolution, err := uc.evolver.EvolveNext(ctx, session.SeedInstruction, reviewed)
	if err != nil {
		return nil, err
	}
	if len(evolution.Candidates) == 0 {
		return unchanged(session, evolution.TokensUsed), nil
	}

	answers, err := uc.answerFetcher.FetchAnswers(ctx, evolution.Candidates, session.Query)
	if err != nil {
		return nil, err
	}

	edited := make([]*models.PromptResult, 0, len(reviewed.PromptResults))
	for _, r := range reviewed.PromptResults {
		if r == nil {
			continue
		}
		edited = append(edited, &models.PromptResult{Prompt: r.Prompt, Answer: r.Answer})
	}

	recreated := uc.newGeneration(session.ID, reviewed.Position, reviewed.AdditionalPrompt, edited)
	next := uc.newGeneration(session.ID, reviewed.Position+1, "", answers.Results)

	var count int
	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		lockedID, err := uc.generationRepo.LockAtPosition(txCtx, session.ID, reviewed.Position)
		if err != nil {
			return fmt.Errorf("failed to lock generation: %w", err)
		}
		if lockedID == "" {
			return domain.NewDomainError(domain.ErrGenerationNotFound, fmt.Sprintf("position %d", reviewed.Position))
		}
		if lockedID != stored.ID {
			return domain.NewDomainError(domain.ErrStaleGeneration, fmt.Sprintf("position %d now holds %s", reviewed.Position, lockedID))
		}

		removed, err := uc.generationRepo.DeleteFromPosition(txCtx, session.ID, reviewed.Position)
		if err != nil {
			return fmt.Errorf("failed to prune lineage: %w", err)
		}
		slog.DebugContext(txCtx, "pruned lineage", "session_id", session.ID, "from", reviewed.Position, "removed", removed)

		if err := uc.generationRepo.Create(txCtx, recreated); err != nil {
			return fmt.Errorf("failed to recreate reviewed generation: %w", err)
		}
		if err := uc.generationRepo.Create(txCtx, next); err != nil {
			return fmt.Errorf("failed to create generation: %w", err)
		}
		n, err := uc.generationRepo.CountBySession(txCtx, session.ID)
		count = n
		return err
	})
	if err != nil {
		return nil, err
	}

	lineage := make([]*models.Generation, 0, reviewed.Position+1)
	for _, g := range session.Generations {
		if g.Position < reviewed.Position {
			lineage = append(lineage, g)
		}
	}
	session.Generations = append(lineage, recreated, next)

	return &ports.RoundOutput{
		Session:         session,
		TokensUsed:      services.SumTokens(evolution.TokensUsed, answers.TokensUsed),
		GenerationCount: count,
		Candidates:      len(evolution.Candidates),
		Evolved:         true,
	}, nil
}

// checkReviewed validates the reviewed snapshot against the loaded lineage
// and returns the stored generation it refers to.
func checkReviewed(session *models.Session, reviewed *ports.ReviewedGeneration) (*models.Generation, error) {
	stored := session.GenerationAt(reviewed.Position)
	if stored == nil {
		return nil, domain.NewDomainError(domain.ErrGenerationNotFound, fmt.Sprintf("position %d", reviewed.Position))
	}
	if reviewed.GenerationID != "" && reviewed.GenerationID != stored.ID {
		return nil, domain.NewDomainError(domain.ErrStaleGeneration,
			fmt.Sprintf("position %d holds %s, not %s", reviewed.Position, stored.ID, reviewed.GenerationID))
	}
	return stored, nil
}

func (uc *LineageController) newGeneration(sessionID string, position int, additionalPrompt string, results []*models.PromptResult) *models.Generation {
	g := models.NewGeneration(uc.idGenerator.GenerateGenerationID(), sessionID, position, additionalPrompt, results)
	for _, r := range g.PromptResults {
		r.ID = uc.idGenerator.GeneratePromptResultID()
	}
	return g
}

func unchanged(session *models.Session, tokens int64) *ports.RoundOutput {
	return &ports.RoundOutput{
		Session:         session,
		TokensUsed:      tokens,
		GenerationCount: session.GenerationCount(),
	}
}

func finishRound(ctx context.Context, span trace.Span, kind string, out *ports.RoundOutput, err error) {
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "round failed")
		metrics.RoundsTotal.WithLabelValues(kind, metrics.OutcomeFailed).Inc()
		slog.ErrorContext(ctx, "tuning round failed", "round", kind, "error", err)
		return
	}

	outcome := metrics.OutcomeEmpty
	if out.Evolved {
		outcome = metrics.OutcomeEvolved
	}
	metrics.RoundsTotal.WithLabelValues(kind, outcome).Inc()
	metrics.CandidatesPerRound.Observe(float64(out.Candidates))
	metrics.TokensTotal.WithLabelValues(kind + "_round").Add(float64(out.TokensUsed))

	span.SetAttributes(
		tracing.CandidateCount(out.Candidates),
		tracing.GenerationCount(out.GenerationCount),
		tracing.TokensUsed(out.TokensUsed),
	)
	slog.InfoContext(ctx, "tuning round complete",
		"round", kind,
		"session_id", out.Session.ID,
		"outcome", outcome,
		"candidates", out.Candidates,
		"generations", out.GenerationCount,
		"tokens", out.TokensUsed,
	)
}
