package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/longregen/prompttune/internal/ports"
)

// CandidatesPerRound is the number of candidate instructions requested from
// the model per round. The model may return fewer or more.
const CandidatesPerRound = 5

// RankSeparator separates ranked entries in the evolution context.
const RankSeparator = "\n------\n"

// FirstRoundInstruction asks for variations of the seed instruction. The
// seed follows it as the next system message.
var FirstRoundInstruction = fmt.Sprintf(`You are tuning an instruction so that a model gives better answers to a user's input.
The next message is the "tuning instruction". Write %d new instructions that improve on it.
------
- Understand what the tuning instruction is trying to achieve and refine it to produce better answers.
- Keep every important piece of information from the tuning instruction.
- Each new instruction is evaluated on its own, so each must be complete.`, CandidatesPerRound)

// NextRoundInstruction asks for recombination and mutation over the ranked
// population. The seed instruction and the ranked block follow it.
var NextRoundInstruction = fmt.Sprintf(`You are tuning an instruction so that a model gives better answers to a user's input.
The next message is the "initial instruction". The message after it holds the previous candidate instructions, ranked best first by a human reviewer, each followed by the reviewer's notes.
------
Evolve %d new instructions from the ranked candidates the way a genetic algorithm would.
Use single-point crossover, uniform crossover and mutation, choosing cut points that keep sentences coherent.
Favour material from higher ranked candidates. Length may change: drop or add text when it improves the result.
------
- Understand what the initial instruction is trying to achieve and refine it to produce better answers.
- Keep every important piece of information from the initial instruction.
- Each new instruction is evaluated on its own, so each must be complete.`, CandidatesPerRound)

// CandidateSchema is the structured output requested from the model.
var CandidateSchema = ports.StructuredSchema{
	Name:        "response",
	Description: "candidate instructions",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompts": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{"prompts"},
		"additionalProperties": false,
	},
}

type candidatePayload struct {
	Prompts []string `json:"prompts"`
}

// ParseCandidates decodes the model's structured answer. Blank candidates are
// dropped. A nil raw value yields no candidates and no error.
func ParseCandidates(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload candidatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}
	candidates := make([]string, 0, len(payload.Prompts))
	for _, p := range payload.Prompts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		candidates = append(candidates, p)
	}
	return candidates, nil
}

// FirstRoundContext builds the system messages for the first evolution.
func FirstRoundContext(seedInstruction string) []string {
	return NonBlank([]string{FirstRoundInstruction, seedInstruction})
}

// NextRoundContext builds the system messages for a later evolution. ranked
// must be in the reviewer's order, best first.
func NextRoundContext(seedInstruction string, ranked []string, guidance string) []string {
	return NonBlank([]string{NextRoundInstruction, seedInstruction, RankedBlock(ranked, guidance)})
}

// RankedBlock joins the ranked prompts, each followed by guidance when it is
// not blank. With no prompts the guidance stands alone.
func RankedBlock(ranked []string, guidance string) string {
	hasGuidance := strings.TrimSpace(guidance) != ""
	entries := make([]string, 0, len(ranked))
	for _, p := range ranked {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if hasGuidance {
			p = p + "\n" + guidance
		}
		entries = append(entries, p)
	}
	if len(entries) == 0 && hasGuidance {
		return guidance
	}
	return strings.Join(entries, RankSeparator)
}

// NonBlank drops lines that are empty or whitespace only, preserving order.
func NonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
