package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/longregen/prompttune/internal/domain/models"
)

type GenerationRepository struct {
	BaseRepository
}

func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepository {
	return &GenerationRepository{
		BaseRepository: NewBaseRepository(pool),
	}
}

// Create inserts the generation and its prompt results. Callers run it inside
// a transaction so a failed result insert does not leave a partial generation.
func (r *GenerationRepository) Create(ctx context.Context, generation *models.Generation) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	conn := r.conn(ctx)

	query := `
		INSERT INTO tuning_generations (id, session_id, position, additional_prompt, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := conn.Exec(ctx, query,
		generation.ID,
		generation.SessionID,
		generation.Position,
		nullString(generation.AdditionalPrompt),
		generation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}

	resultQuery := `
		INSERT INTO tuning_prompt_results (id, generation_id, position, prompt, answer)
		VALUES ($1, $2, $3, $4, $5)`

	for _, pr := range generation.PromptResults {
		_, err := conn.Exec(ctx, resultQuery,
			pr.ID,
			generation.ID,
			pr.Position,
			pr.Prompt,
			pr.Answer,
		)
		if err != nil {
			return fmt.Errorf("insert prompt result %d: %w", pr.Position, err)
		}
	}

	return nil
}

// LockAtPosition returns the ID of the generation at position, holding a row
// lock until the surrounding transaction ends
func (r *GenerationRepository) LockAtPosition(ctx context.Context, sessionID string, position int) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id
		FROM tuning_generations
		WHERE session_id = $1 AND position = $2
		FOR UPDATE`

	var id string
	err := r.conn(ctx).QueryRow(ctx, query, sessionID, position).Scan(&id)
	if err != nil {
		if checkNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("lock generation: %w", err)
	}
	return id, nil
}

// DeleteFromPosition removes generations at or after position; prompt
// results go with them through the cascading foreign key
func (r *GenerationRepository) DeleteFromPosition(ctx context.Context, sessionID string, from int) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `DELETE FROM tuning_generations WHERE session_id = $1 AND position >= $2`

	tag, err := r.conn(ctx).Exec(ctx, query, sessionID, from)
	if err != nil {
		return 0, fmt.Errorf("delete generations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *GenerationRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tuning_generations WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return count, nil
}
