package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

// newCmd creates a tuning session
func newCmd() *cobra.Command {
	var seed, query string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a tuning session",
		Long:  `Create a tuning session. The seed instruction is run against the query once and its answer is kept as the baseline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.sessions.CreateSession(ctx, &ports.CreateSessionInput{
				SeedInstruction: seed,
				Query:           query,
			})
			if err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}

			fmt.Printf("Created session: %s\n", out.Session.ID)
			fmt.Printf("Tokens used: %d\n", out.TokensUsed)
			fmt.Println()
			fmt.Println("Baseline answer:")
			fmt.Println(out.Session.BaselineAnswer)

			return nil
		},
	}

	cmd.Flags().StringVarP(&seed, "seed", "s", "", "Seed instruction")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Query the instructions are evaluated against")
	_ = cmd.MarkFlagRequired("seed")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

// tuneCmd runs the first round of a session
func tuneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tune <session-id>",
		Short: "Run the first tuning round",
		Long:  `Evolve candidates from the seed instruction. Any existing generations of the session are replaced.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.lineage.FirstRound(ctx, args[0])
			if err != nil {
				return fmt.Errorf("first round failed: %w", err)
			}

			printRound(out)
			return nil
		},
	}
}

// evolveCmd runs a later round from a reviewed generation
func evolveCmd() *cobra.Command {
	var position int
	var order string
	var guidance string

	cmd := &cobra.Command{
		Use:   "evolve <session-id>",
		Short: "Run a tuning round from a reviewed generation",
		Long: `Evolve candidates from the generation at --position. Generations after it are discarded.

--order lists the stored result positions to keep, best first (e.g. "2,0").
All results are kept in stored order when it is omitted. --guidance replaces
the generation's additional prompt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.sessions.LoadSession(ctx, args[0])
			if err != nil {
				return err
			}

			ranking, err := parseOrder(order)
			if err != nil {
				return err
			}

			var newGuidance *string
			if cmd.Flags().Changed("guidance") {
				newGuidance = &guidance
			}

			reviewed, err := reviewGeneration(session.GenerationAt(position), position, ranking, newGuidance)
			if err != nil {
				return err
			}

			out, err := a.lineage.NextRound(ctx, &ports.NextRoundInput{
				SessionID: session.ID,
				Reviewed:  reviewed,
			})
			if err != nil {
				return fmt.Errorf("round failed: %w", err)
			}

			printRound(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&position, "position", "p", 0, "Position of the reviewed generation")
	cmd.Flags().StringVarP(&order, "order", "o", "", "Result positions to keep, best first")
	cmd.Flags().StringVarP(&guidance, "guidance", "g", "", "Additional prompt for the next round")
	_ = cmd.MarkFlagRequired("position")

	return cmd
}

// showCmd prints a session and its lineage
func showCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session and its generations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.sessions.LoadSession(ctx, args[0])
			if err != nil {
				return err
			}

			printSession(session, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print full answers")

	return cmd
}

// listCmd lists tuning sessions
func listCmd() *cobra.Command {
	var limit int
	var offset int
	var current string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tuning sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			summaries, err := a.sessions.LoadHistories(ctx, &ports.LoadHistoriesInput{
				CurrentID: current,
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			if len(summaries) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			fmt.Printf("  %-24s %-50s %-6s %s\n", "ID", "Seed", "Gens", "Created")
			fmt.Println(strings.Repeat("-", 100))

			for _, s := range summaries {
				marker := " "
				if s.Current {
					marker = "*"
				}
				fmt.Printf("%s %-24s %-50s %-6d %s\n",
					marker, s.ID, truncate(s.SeedInstruction, 50), s.GenerationCount,
					s.CreatedAt.Format("2006-01-02 15:04"))
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum number of sessions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of sessions to skip")
	cmd.Flags().StringVarP(&current, "current", "c", "", "Session to mark as current")

	return cmd
}

// parseOrder parses a comma separated list of result positions
func parseOrder(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	order := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, domain.NewDomainError(domain.ErrInvalidInput, fmt.Sprintf("bad result position %q", p))
		}
		order = append(order, n)
	}
	return order, nil
}

// reviewGeneration builds the reviewed snapshot of a stored generation.
// ranking picks stored result positions best first; nil keeps them all.
// guidance, when non-nil, replaces the stored additional prompt.
func reviewGeneration(gen *models.Generation, position int, ranking []int, guidance *string) (*ports.ReviewedGeneration, error) {
	if gen == nil {
		return nil, domain.NewDomainError(domain.ErrGenerationNotFound, fmt.Sprintf("position %d", position))
	}

	results := gen.PromptResults
	if ranking != nil {
		results = make([]*models.PromptResult, 0, len(ranking))
		seen := make(map[int]bool, len(ranking))
		for _, pos := range ranking {
			if pos >= len(gen.PromptResults) {
				return nil, domain.NewDomainError(domain.ErrInvalidInput,
					fmt.Sprintf("generation %d has no result %d", position, pos))
			}
			if seen[pos] {
				return nil, domain.NewDomainError(domain.ErrInvalidInput,
					fmt.Sprintf("result %d listed twice", pos))
			}
			seen[pos] = true
			results = append(results, gen.PromptResults[pos])
		}
	}

	additional := gen.AdditionalPrompt
	if guidance != nil {
		additional = *guidance
	}

	return &ports.ReviewedGeneration{
		GenerationID:     gen.ID,
		Position:         gen.Position,
		AdditionalPrompt: additional,
		PromptResults:    models.CompactPromptResults(results),
	}, nil
}

func printRound(out *ports.RoundOutput) {
	if !out.Evolved {
		fmt.Println("The model proposed no candidates; the lineage is unchanged.")
	} else {
		fmt.Printf("Evolved %d candidates.\n", out.Candidates)
	}
	fmt.Printf("Tokens used: %d\n", out.TokensUsed)
	fmt.Printf("Generations: %d\n", out.GenerationCount)
	fmt.Println()
	printSession(out.Session, false)
}

func printSession(s *models.Session, verbose bool) {
	if s == nil {
		return
	}

	fmt.Printf("Session %s (%s)\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Seed:     %s\n", s.SeedInstruction)
	fmt.Printf("Query:    %s\n", s.Query)
	fmt.Printf("Baseline: %s\n", answerText(s.BaselineAnswer, verbose))

	for _, g := range s.Generations {
		fmt.Println()
		fmt.Printf("== Generation %d (%s)\n", g.Position, g.ID)
		if g.AdditionalPrompt != "" {
			fmt.Printf("   Guidance: %s\n", g.AdditionalPrompt)
		}
		for _, r := range g.PromptResults {
			fmt.Printf("   [%d] %s\n", r.Position, r.Prompt)
			fmt.Printf("       -> %s\n", answerText(r.Answer, verbose))
		}
	}
}

func answerText(s string, verbose bool) string {
	if verbose {
		return s
	}
	return truncate(strings.ReplaceAll(s, "\n", " "), 80)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
