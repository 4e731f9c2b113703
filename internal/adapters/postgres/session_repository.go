package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/longregen/prompttune/internal/domain/models"
)

type SessionRepository struct {
	BaseRepository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		BaseRepository: NewBaseRepository(pool),
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO tuning_sessions (id, seed_instruction, query, baseline_answer, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.conn(ctx).Exec(ctx, query,
		session.ID,
		session.SeedInstruction,
		session.Query,
		session.BaselineAnswer,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID loads the session together with its generations and prompt results
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, seed_instruction, query, baseline_answer, created_at
		FROM tuning_sessions
		WHERE id = $1`

	var s models.Session
	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.SeedInstruction,
		&s.Query,
		&s.BaselineAnswer,
		&s.CreatedAt,
	)
	if err != nil {
		if checkNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	generations, err := r.loadGenerations(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Generations = generations

	return &s, nil
}

func (r *SessionRepository) loadGenerations(ctx context.Context, sessionID string) ([]*models.Generation, error) {
	query := `
		SELECT id, session_id, position, additional_prompt, created_at
		FROM tuning_generations
		WHERE session_id = $1
		ORDER BY position`

	rows, err := r.conn(ctx).Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select generations: %w", err)
	}

	generations := make([]*models.Generation, 0)
	byID := make(map[string]*models.Generation)
	for rows.Next() {
		var g models.Generation
		var additional sql.NullString
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Position, &additional, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		g.AdditionalPrompt = getString(additional)
		g.PromptResults = make([]*models.PromptResult, 0)
		generations = append(generations, &g)
		byID[g.ID] = &g
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}

	if len(generations) == 0 {
		return generations, nil
	}

	query = `
		SELECT r.id, r.generation_id, r.position, r.prompt, r.answer
		FROM tuning_prompt_results r
		JOIN tuning_generations g ON g.id = r.generation_id
		WHERE g.session_id = $1
		ORDER BY g.position, r.position`

	rows, err = r.conn(ctx).Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select prompt results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pr models.PromptResult
		if err := rows.Scan(&pr.ID, &pr.GenerationID, &pr.Position, &pr.Prompt, &pr.Answer); err != nil {
			return nil, fmt.Errorf("scan prompt result: %w", err)
		}
		if g, ok := byID[pr.GenerationID]; ok {
			g.PromptResults = append(g.PromptResults, &pr)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompt results: %w", err)
	}

	return generations, nil
}

// ListSummaries returns sessions newest first with their generation counts
func (r *SessionRepository) ListSummaries(ctx context.Context, limit, offset int) ([]*models.SessionSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT s.id, s.seed_instruction, s.created_at, COUNT(g.id)
		FROM tuning_sessions s
		LEFT JOIN tuning_generations g ON g.session_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]*models.SessionSummary, 0)
	for rows.Next() {
		var s models.SessionSummary
		if err := rows.Scan(&s.ID, &s.SeedInstruction, &s.CreatedAt, &s.GenerationCount); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return summaries, nil
}
