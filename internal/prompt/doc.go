// Package prompt holds the text sent to the model when evolving candidate
// instructions: the meta instructions for each round kind, the structured
// output schema, and the builders that lay out the evolution context.
//
// The first round sends two system messages:
//
//	FirstRoundInstruction
//	<seed instruction>
//
// Later rounds send three, the last one being the ranked block:
//
//	NextRoundInstruction
//	<seed instruction>
//	<prompt 1>\n<guidance>\n------\n<prompt 2>\n<guidance>...
//
// The model answers with {"prompts": [...]}; ParseCandidates drops blank
// entries.
package prompt
