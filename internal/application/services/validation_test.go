package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/longregen/prompttune/internal/domain"
	"github.com/longregen/prompttune/internal/domain/models"
	"github.com/longregen/prompttune/internal/ports"
)

func TestValidateID(t *testing.T) {
	if err := ValidateID("ps_123", "session"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateID("  ", "session"); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "content", value: "summarize", wantError: false},
		{name: "empty", value: "", wantError: true},
		{name: "whitespace", value: " \n\t", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.value, "field")
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateRequired() error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil && !errors.Is(err, domain.ErrEmptyContent) {
				t.Errorf("expected ErrEmptyContent, got %v", err)
			}
		})
	}
}

func TestValidateStringLength(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		min, max  int
		wantError bool
	}{
		{name: "within range", value: "hello", min: 1, max: 10},
		{name: "too short", value: "hi", min: 3, max: 10, wantError: true},
		{name: "too long", value: "hello world", min: 1, max: 5, wantError: true},
		{name: "no bounds", value: strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStringLength(tt.value, "field", tt.min, tt.max)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateStringLength() error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestValidateSessionInput(t *testing.T) {
	tests := []struct {
		name    string
		input   *ports.CreateSessionInput
		wantErr error
	}{
		{name: "valid", input: &ports.CreateSessionInput{SeedInstruction: "s", Query: "q"}},
		{name: "nil", input: nil, wantErr: domain.ErrEmptyContent},
		{name: "blank seed", input: &ports.CreateSessionInput{SeedInstruction: " ", Query: "q"}, wantErr: domain.ErrEmptyContent},
		{name: "blank query", input: &ports.CreateSessionInput{SeedInstruction: "s"}, wantErr: domain.ErrEmptyContent},
		{
			name:    "oversized query",
			input:   &ports.CreateSessionInput{SeedInstruction: "s", Query: strings.Repeat("q", MaxTextLength+1)},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionInput(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateReviewed(t *testing.T) {
	valid := &ports.ReviewedGeneration{
		Position:      1,
		PromptResults: []*models.PromptResult{{Prompt: "a", Answer: strings.Repeat("x", MaxTextLength)}, nil},
	}
	if err := ValidateReviewed(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	invalid := []*ports.ReviewedGeneration{
		nil,
		{Position: 0},
		{Position: 1, AdditionalPrompt: strings.Repeat("g", MaxTextLength+1)},
		{Position: 1, PromptResults: []*models.PromptResult{{Prompt: strings.Repeat("p", MaxTextLength+1)}}},
		{Position: 1, PromptResults: []*models.PromptResult{{Prompt: "a", Answer: strings.Repeat("x", MaxTextLength+1)}}},
	}
	for i, r := range invalid {
		if err := ValidateReviewed(r); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}
