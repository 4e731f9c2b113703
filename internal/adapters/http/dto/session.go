package dto

import (
	"time"

	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

// CreateSessionRequest starts a tuning session
type CreateSessionRequest struct {
	SeedInstruction string `json:"seed_instruction"`
	Query           string `json:"query"`
}

// PromptResultRequest is one reviewed candidate. Array order is the ranking.
type PromptResultRequest struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// NextRoundRequest submits a reviewed generation
type NextRoundRequest struct {
	GenerationID     string                `json:"generation_id"`
	Position         int                   `json:"position"`
	AdditionalPrompt string                `json:"additional_prompt"`
	PromptResults    []PromptResultRequest `json:"prompt_results"`
}

// ToReviewed converts the request into the lineage controller's input
func (r *NextRoundRequest) ToReviewed() *ports.ReviewedGeneration {
	results := make([]*models.PromptResult, len(r.PromptResults))
	for i, pr := range r.PromptResults {
		results[i] = &models.PromptResult{Position: i, Prompt: pr.Prompt, Answer: pr.Answer}
	}
	return &ports.ReviewedGeneration{
		GenerationID:     r.GenerationID,
		Position:         r.Position,
		AdditionalPrompt: r.AdditionalPrompt,
		PromptResults:    results,
	}
}

type PromptResultResponse struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Prompt   string `json:"prompt"`
	Answer   string `json:"answer"`
}

type GenerationResponse struct {
	ID               string                  `json:"id"`
	Position         int                     `json:"position"`
	AdditionalPrompt string                  `json:"additional_prompt,omitempty"`
	PromptResults    []*PromptResultResponse `json:"prompt_results"`
	CreatedAt        time.Time               `json:"created_at"`
}

// SessionResponse represents a session with its full lineage
type SessionResponse struct {
	ID              string                `json:"id"`
	SeedInstruction string                `json:"seed_instruction"`
	Query           string                `json:"query"`
	BaselineAnswer  string                `json:"baseline_answer"`
	Generations     []*GenerationResponse `json:"generations"`
	CreatedAt       time.Time             `json:"created_at"`
}

// FromModel converts a domain model to a response DTO
func (r *SessionResponse) FromModel(s *models.Session) *SessionResponse {
	gens := make([]*GenerationResponse, len(s.Generations))
	for i, g := range s.Generations {
		gens[i] = (&GenerationResponse{}).FromModel(g)
	}
	return &SessionResponse{
		ID:              s.ID,
		SeedInstruction: s.SeedInstruction,
		Query:           s.Query,
		BaselineAnswer:  s.BaselineAnswer,
		Generations:     gens,
		CreatedAt:       s.CreatedAt,
	}
}

func (r *GenerationResponse) FromModel(g *models.Generation) *GenerationResponse {
	results := make([]*PromptResultResponse, len(g.PromptResults))
	for i, pr := range g.PromptResults {
		results[i] = &PromptResultResponse{
			ID:       pr.ID,
			Position: pr.Position,
			Prompt:   pr.Prompt,
			Answer:   pr.Answer,
		}
	}
	return &GenerationResponse{
		ID:               g.ID,
		Position:         g.Position,
		AdditionalPrompt: g.AdditionalPrompt,
		PromptResults:    results,
		CreatedAt:        g.CreatedAt,
	}
}

// CreateSessionResponse carries the new session and the tokens its baseline cost
type CreateSessionResponse struct {
	Session    *SessionResponse `json:"session"`
	TokensUsed int64            `json:"tokens_used"`
}

// RoundResponse reports one tuning round. When Evolved is false the model
// proposed nothing and Session is the unchanged lineage.
type RoundResponse struct {
	Session         *SessionResponse `json:"session"`
	TokensUsed      int64            `json:"tokens_used"`
	GenerationCount int              `json:"generation_count"`
	Candidates      int              `json:"candidates"`
	Evolved         bool             `json:"evolved"`
}

func (r *RoundResponse) FromOutput(out *ports.RoundOutput) *RoundResponse {
	return &RoundResponse{
		Session:         (&SessionResponse{}).FromModel(out.Session),
		TokensUsed:      out.TokensUsed,
		GenerationCount: out.GenerationCount,
		Candidates:      out.Candidates,
		Evolved:         out.Evolved,
	}
}

type SessionSummaryResponse struct {
	ID              string    `json:"id"`
	SeedInstruction string    `json:"seed_instruction"`
	GenerationCount int       `json:"generation_count"`
	Current         bool      `json:"current"`
	CreatedAt       time.Time `json:"created_at"`
}

type SessionListResponse struct {
	Sessions []*SessionSummaryResponse `json:"sessions"`
	Total    int                       `json:"total"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
}

func FromSummaryList(summaries []*models.SessionSummary) []*SessionSummaryResponse {
	responses := make([]*SessionSummaryResponse, len(summaries))
	for i, s := range summaries {
		responses[i] = &SessionSummaryResponse{
			ID:              s.ID,
			SeedInstruction: s.SeedInstruction,
			GenerationCount: s.GenerationCount,
			Current:         s.Current,
			CreatedAt:       s.CreatedAt,
		}
	}
	return responses
}
