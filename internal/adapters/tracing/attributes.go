package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys shared by spans and log records.
const (
	AttrSessionID           = "tuning.session.id"
	AttrGenerationID        = "tuning.generation.id"
	AttrGenerationPosition  = "tuning.generation.position"
	AttrGenerationCount     = "tuning.generation.count"
	AttrCandidateCount      = "tuning.candidates"
	AttrTokensUsed          = "tuning.tokens_used"
	AttrLLMProvider         = "llm.provider"
	AttrLLMModel            = "llm.model"
	AttrLLMPromptTokens     = "llm.usage.prompt_tokens"
	AttrLLMCompletionTokens = "llm.usage.completion_tokens"
	AttrLLMTotalTokens      = "llm.usage.total_tokens"
)

func SessionID(id string) attribute.KeyValue    { return attribute.String(AttrSessionID, id) }
func GenerationID(id string) attribute.KeyValue { return attribute.String(AttrGenerationID, id) }
func GenerationPosition(p int) attribute.KeyValue {
	return attribute.Int(AttrGenerationPosition, p)
}
func GenerationCount(n int) attribute.KeyValue { return attribute.Int(AttrGenerationCount, n) }
func CandidateCount(n int) attribute.KeyValue  { return attribute.Int(AttrCandidateCount, n) }
func TokensUsed(n int64) attribute.KeyValue    { return attribute.Int64(AttrTokensUsed, n) }

func LLMProvider(provider string) attribute.KeyValue { return attribute.String(AttrLLMProvider, provider) }
func LLMModel(model string) attribute.KeyValue       { return attribute.String(AttrLLMModel, model) }
func LLMPromptTokens(n int64) attribute.KeyValue     { return attribute.Int64(AttrLLMPromptTokens, n) }
func LLMCompletionTokens(n int64) attribute.KeyValue { return attribute.Int64(AttrLLMCompletionTokens, n) }
func LLMTotalTokens(n int64) attribute.KeyValue      { return attribute.Int64(AttrLLMTotalTokens, n) }
