package ports

import (
	"context"

	"github.com/longregen/prompttune/internal/domain/models"
)

// SessionRepository defines operations for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetByID loads a session with its generations and their prompt results,
	// both ordered by position. Returns nil, nil when the session does not exist.
	GetByID(ctx context.Context, id string) (*models.Session, error)
	ListSummaries(ctx context.Context, limit, offset int) ([]*models.SessionSummary, error)
}

// GenerationRepository defines operations on the generation lineage of a session
type GenerationRepository interface {
	// Create stores the generation and all of its prompt results
	Create(ctx context.Context, generation *models.Generation) error
	// LockAtPosition returns the ID of the generation stored at position and
	// locks its row for the rest of the transaction. Returns "" when absent.
	LockAtPosition(ctx context.Context, sessionID string, position int) (string, error)
	// DeleteFromPosition deletes every generation whose position is >= from,
	// together with their prompt results. Returns the number of generations removed.
	DeleteFromPosition(ctx context.Context, sessionID string, from int) (int64, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	// WithTransaction executes a function within a database transaction
	// If the function returns an error, the transaction is rolled back
	// Otherwise, the transaction is committed
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IDGenerator generates unique IDs for entities
type IDGenerator interface {
	// GenerateSessionID generates a new session ID (ps_xxx)
	GenerateSessionID() string

	// GenerateGenerationID generates a new generation ID (pg_xxx)
	GenerateGenerationID() string

	// GeneratePromptResultID generates a new prompt result ID (pr_xxx)
	GeneratePromptResultID() string
}
