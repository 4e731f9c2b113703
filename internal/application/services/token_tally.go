package services

import "github.com/longregen/prompttune/internal/ports"

// UsageTokens returns the total tokens of a usage block. A nil block counts
// as zero, and a block without a total falls back to prompt plus completion.
func UsageTokens(u *ports.TokenUsage) int64 {
	if u == nil {
		return 0
	}
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// TokenTally accumulates token usage across provider calls. The zero value
// is ready to use. It is not safe for concurrent use.
type TokenTally struct {
	total int64
}

func (t *TokenTally) Add(u *ports.TokenUsage) {
	t.total += UsageTokens(u)
}

func (t *TokenTally) AddCount(n int64) {
	if n > 0 {
		t.total += n
	}
}

func (t *TokenTally) Total() int64 {
	return t.total
}

// SumTokens adds token counts, ignoring negative values.
func SumTokens(counts ...int64) int64 {
	var tally TokenTally
	for _, n := range counts {
		tally.AddCount(n)
	}
	return tally.Total()
}
