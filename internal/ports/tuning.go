package ports

import (
	"context"

	"github.com/longregen/prompttune/internal/domain/models"
)

// ReviewedGeneration is a reviewer's edited copy of a stored generation.
// GenerationID and Position identify the stored generation it was read from;
// PromptResults carry the reviewer's ranking, best first.
type ReviewedGeneration struct {
	GenerationID     string                 `json:"generation_id"`
	Position         int                    `json:"position"`
	AdditionalPrompt string                 `json:"additional_prompt"`
	PromptResults    []*models.PromptResult `json:"prompt_results"`
}

// EvolutionResult holds the candidate instructions proposed by the model.
// Candidates is empty when the model produced nothing usable.
type EvolutionResult struct {
	Candidates []string
	TokensUsed int64
}

// PromptEvolver asks the model for new candidate instructions
type PromptEvolver interface {
	EvolveFirst(ctx context.Context, seedInstruction string) (*EvolutionResult, error)
	EvolveNext(ctx context.Context, seedInstruction string, prior *ReviewedGeneration) (*EvolutionResult, error)
}

// FetchAnswersResult holds one result per candidate, index aligned with the input
type FetchAnswersResult struct {
	Results    []*models.PromptResult
	TokensUsed int64
}

// AnswerFetcher runs every candidate instruction against the session query
type AnswerFetcher interface {
	FetchAnswers(ctx context.Context, candidates []string, query string) (*FetchAnswersResult, error)
}

type CreateSessionInput struct {
	SeedInstruction string `json:"seed_instruction"`
	Query           string `json:"query"`
}

type CreateSessionOutput struct {
	Session    *models.Session
	TokensUsed int64
}

type LoadHistoriesInput struct {
	// CurrentID marks the matching summary as current
	CurrentID string
	Limit     int
	Offset    int
}

// SessionManager creates and loads tuning sessions
type SessionManager interface {
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)
	LoadSession(ctx context.Context, id string) (*models.Session, error)
	LoadHistories(ctx context.Context, input *LoadHistoriesInput) ([]*models.SessionSummary, error)
}

type NextRoundInput struct {
	SessionID string
	Reviewed  *ReviewedGeneration
}

// RoundOutput reports a tuning round. Evolved is false when the model proposed
// no candidates, in which case the lineage was left untouched.
type RoundOutput struct {
	Session         *models.Session
	TokensUsed      int64
	GenerationCount int
	Candidates      int
	Evolved         bool
}

// LineageController runs tuning rounds. Callers must not run two rounds for
// the same session concurrently.
type LineageController interface {
	FirstRound(ctx context.Context, sessionID string) (*RoundOutput, error)
	NextRound(ctx context.Context, input *NextRoundInput) (*RoundOutput, error)
}
