package services

import (
	"fmt"
	"strings"

	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

// MaxTextLength bounds seed instructions, queries and reviewed prompts
const MaxTextLength = 20000

// ValidateID checks that an ID is not blank
func ValidateID(id string, entityType string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewDomainError(domain.ErrInvalidID, entityType+" id is required")
	}
	return nil
}

// ValidateRequired checks that a text field has non-whitespace content
func ValidateRequired(value string, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewDomainError(domain.ErrEmptyContent, fieldName+" is required")
	}
	return nil
}

// ValidateStringLength checks that a string's length is within the specified range
func ValidateStringLength(value string, fieldName string, minLen, maxLen int) error {
	length := len(value)
	if minLen > 0 && length < minLen {
		return domain.NewDomainError(domain.ErrInvalidInput,
			fmt.Sprintf("%s must be at least %d characters (got %d)", fieldName, minLen, length))
	}
	if maxLen > 0 && length > maxLen {
		return domain.NewDomainError(domain.ErrInvalidInput,
			fmt.Sprintf("%s must be at most %d characters (got %d)", fieldName, maxLen, length))
	}
	return nil
}

// ValidateSessionInput checks the seed instruction and query of a new session
func ValidateSessionInput(input *ports.CreateSessionInput) error {
	if input == nil {
		return domain.NewDomainError(domain.ErrEmptyContent, "seed instruction is required")
	}
	if err := ValidateRequired(input.SeedInstruction, "seed instruction"); err != nil {
		return err
	}
	if err := ValidateRequired(input.Query, "query"); err != nil {
		return err
	}
	if err := ValidateStringLength(input.SeedInstruction, "seed instruction", 0, MaxTextLength); err != nil {
		return err
	}
	return ValidateStringLength(input.Query, "query", 0, MaxTextLength)
}

// ValidateReviewed checks the shape of a reviewed generation. Whether it
// still matches the stored lineage is checked by the caller.
func ValidateReviewed(reviewed *ports.ReviewedGeneration) error {
	if reviewed == nil {
		return domain.NewDomainError(domain.ErrInvalidInput, "reviewed generation is required")
	}
	if reviewed.Position < models.FirstGenerationPosition {
		return domain.NewDomainError(domain.ErrInvalidInput, fmt.Sprintf("invalid generation position %d", reviewed.Position))
	}
	if err := ValidateStringLength(reviewed.AdditionalPrompt, "additional prompt", 0, MaxTextLength); err != nil {
		return err
	}
	for i, r := range reviewed.PromptResults {
		if r == nil {
			continue
		}
		if err := ValidateStringLength(r.Prompt, fmt.Sprintf("prompt %d", i), 0, MaxTextLength); err != nil {
			return err
		}
		if err := ValidateStringLength(r.Answer, fmt.Sprintf("answer %d", i), 0, MaxTextLength); err != nil {
			return err
		}
	}
	return nil
}
