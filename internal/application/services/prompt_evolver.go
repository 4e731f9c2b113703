package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/longregen/prompttune/internal/adapters/tracing"
	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/ports"
	"github.com/longregen/prompttune/internal/prompt"
)

// PromptEvolver asks the model for new candidate instructions. Recombination
// and mutation are delegated to the model; the evolver only builds the
// context and decodes the answer.
type PromptEvolver struct {
	provider ports.CompletionProvider
}

func NewPromptEvolver(provider ports.CompletionProvider) *PromptEvolver {
	return &PromptEvolver{provider: provider}
}

// EvolveFirst proposes variations of the seed instruction.
func (e *PromptEvolver) EvolveFirst(ctx context.Context, seedInstruction string) (*ports.EvolutionResult, error) {
	return e.evolve(ctx, "first", prompt.FirstRoundContext(seedInstruction))
}

// EvolveNext proposes offspring of a reviewed generation. The order of
// prior.PromptResults is the reviewer's ranking and is passed on unchanged.
func (e *PromptEvolver) EvolveNext(ctx context.Context, seedInstruction string, prior *ports.ReviewedGeneration) (*ports.EvolutionResult, error) {
	if prior == nil {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "reviewed generation is required")
	}

	ranked := make([]string, 0, len(prior.PromptResults))
	for _, r := range prior.PromptResults {
		if r == nil {
			continue
		}
		ranked = append(ranked, r.Prompt)
	}

	return e.evolve(ctx, "next", prompt.NextRoundContext(seedInstruction, ranked, prior.AdditionalPrompt))
}

func (e *PromptEvolver) evolve(ctx context.Context, kind string, contextLines []string) (*ports.EvolutionResult, error) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "PromptEvolver.Evolve")
	defer span.End()

	resp, err := e.provider.CompleteStructured(ctx, contextLines, prompt.CandidateSchema)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evolution failed")
		return nil, domain.ProviderError("evolve "+kind, err)
	}
	if resp == nil {
		return &ports.EvolutionResult{}, nil
	}

	tokens := UsageTokens(resp.Usage)

	candidates, err := prompt.ParseCandidates(resp.Raw)
	if err != nil {
		slog.WarnContext(ctx, "discarding unparseable evolution result", "round", kind, "error", err)
		candidates = nil
	}

	span.SetAttributes(tracing.CandidateCount(len(candidates)), tracing.TokensUsed(tokens))
	slog.InfoContext(ctx, "evolution complete", "round", kind, "candidates", len(candidates), "tokens", tokens)

	return &ports.EvolutionResult{
		Candidates: candidates,
		TokensUsed: tokens,
	}, nil
}
