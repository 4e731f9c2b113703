package models

import (
	"fmt"
	"time"
)

// FirstGenerationPosition is the lineage position of the generation seeded
// directly from a session's own instruction.
const FirstGenerationPosition = 1

// Session is one tuning problem: a seed instruction, the fixed query it is
// evaluated against, and the baseline answer the seed produced.
type Session struct {
	ID              string        `json:"id"`
	SeedInstruction string        `json:"seed_instruction"`
	Query           string        `json:"query"`
	BaselineAnswer  string        `json:"baseline_answer"`
	Generations     []*Generation `json:"generations,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func NewSession(id, seedInstruction, query, baselineAnswer string) *Session {
	return &Session{
		ID:              id,
		SeedInstruction: seedInstruction,
		Query:           query,
		BaselineAnswer:  baselineAnswer,
		CreatedAt:       time.Now().UTC(),
	}
}

// IsTuned reports whether at least one generation has been persisted.
func (s *Session) IsTuned() bool {
	return len(s.Generations) > 0
}

func (s *Session) GenerationCount() int {
	return len(s.Generations)
}

// GenerationAt returns the generation stored at the given lineage position,
// or nil when the lineage has no such position.
func (s *Session) GenerationAt(position int) *Generation {
	for _, g := range s.Generations {
		if g.Position == position {
			return g
		}
	}
	return nil
}

// ValidateLineage checks that generations occupy positions 1..k without gaps
// and that every generation's results are densely numbered from zero.
func (s *Session) ValidateLineage() error {
	for i, g := range s.Generations {
		want := FirstGenerationPosition + i
		if g.Position != want {
			return fmt.Errorf("generation %s at position %d, expected %d", g.ID, g.Position, want)
		}
		if err := g.ValidateResults(); err != nil {
			return err
		}
	}
	return nil
}

// Generation is one round of candidate instructions with their answers. The
// order of PromptResults is the reviewer's ranking, best first.
type Generation struct {
	ID               string          `json:"id"`
	SessionID        string          `json:"session_id"`
	Position         int             `json:"position"`
	AdditionalPrompt string          `json:"additional_prompt,omitempty"`
	PromptResults    []*PromptResult `json:"prompt_results"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewGeneration builds a generation owning results. Result positions are
// reassigned to 0..n-1 following slice order.
func NewGeneration(id, sessionID string, position int, additionalPrompt string, results []*PromptResult) *Generation {
	compacted := CompactPromptResults(results)
	for _, r := range compacted {
		r.GenerationID = id
	}
	return &Generation{
		ID:               id,
		SessionID:        sessionID,
		Position:         position,
		AdditionalPrompt: additionalPrompt,
		PromptResults:    compacted,
		CreatedAt:        time.Now().UTC(),
	}
}

func (g *Generation) ValidateResults() error {
	for i, r := range g.PromptResults {
		if r.Position != i {
			return fmt.Errorf("generation %s: result %q at position %d, expected %d", g.ID, r.ID, r.Position, i)
		}
	}
	return nil
}

// Prompts returns the candidate instructions in ranked order.
func (g *Generation) Prompts() []string {
	prompts := make([]string, len(g.PromptResults))
	for i, r := range g.PromptResults {
		prompts[i] = r.Prompt
	}
	return prompts
}

// PromptResult is a candidate instruction and the answer it produced for the
// session query.
type PromptResult struct {
	ID           string `json:"id"`
	GenerationID string `json:"generation_id,omitempty"`
	Position     int    `json:"position"`
	Prompt       string `json:"prompt"`
	Answer       string `json:"answer"`
}

// CompactPromptResults returns copies of results renumbered 0..n-1 in slice
// order. Nil entries are skipped.
func CompactPromptResults(results []*PromptResult) []*PromptResult {
	out := make([]*PromptResult, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		c := *r
		c.Position = len(out)
		out = append(out, &c)
	}
	return out
}

// SessionSummary is the navigation view of a session.
type SessionSummary struct {
	ID              string    `json:"id"`
	SeedInstruction string    `json:"seed_instruction"`
	GenerationCount int       `json:"generation_count"`
	CreatedAt       time.Time `json:"created_at"`
	Current         bool      `json:"current"`
}
