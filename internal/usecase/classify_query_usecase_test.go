package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bullpen-rag/internal/domain"
	"bullpen-rag/internal/usecase"
)

func TestClassify_LexicalTiers(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     domain.Intent
	}{
		{
			name:     "internal and comparison keywords give hybrid",
			question: "How does GlobeLink's ARR compare to public SaaS companies?",
			want:     domain.IntentHybrid,
		},
		{
			name:     "internal and external keywords give hybrid",
			question: "What is our deal worth at today's prices?",
			want:     domain.IntentHybrid,
		},
		{
			name:     "external keywords give external",
			question: "What is CrowdStrike's market cap?",
			want:     domain.IntentExternal,
		},
		{
			name:     "internal keywords give internal",
			question: "What was the ARR for GlobeLink?",
			want:     domain.IntentInternal,
		},
		{
			name:     "matching is case insensitive",
			question: "SUMMARIZE THE NDA TERMS",
			want:     domain.IntentInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(MockLLMClient)
			classifier := usecase.NewQueryClassifier(llm, discardLogger())

			got := classifier.Classify(context.Background(), tt.question)

			assert.Equal(t, tt.want, got)
			llm.AssertNotCalled(t, "Complete")
		})
	}
}

func TestClassify_ModelFallback(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     domain.Intent
	}{
		{name: "model says internal", response: "INTERNAL", want: domain.IntentInternal},
		{name: "model says hybrid", response: "HYBRID", want: domain.IntentHybrid},
		{name: "model response is trimmed and upcased", response: "  external\n", want: domain.IntentExternal},
		{name: "unparseable response defaults to external", response: "I think this is internal", want: domain.IntentExternal},
		{name: "model call failure defaults to external", err: errors.New("boom"), want: domain.IntentExternal},
	}

	// No tier keyword appears in this question.
	const question = "Who signed the engagement letter?"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(MockLLMClient)
			llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(tt.response, tt.err)

			classifier := usecase.NewQueryClassifier(llm, discardLogger())
			got := classifier.Classify(context.Background(), question)

			assert.Equal(t, tt.want, got)
			llm.AssertExpectations(t)
		})
	}
}

func TestClassify_FallbackPromptCarriesQuestion(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(messages []domain.Message) bool {
		return len(messages) == 1 && assert.ObjectsAreEqual("user", messages[0].Role)
	}), domain.CompletionOptions{MaxTokens: 20}).Return("EXTERNAL", nil)

	classifier := usecase.NewQueryClassifier(llm, discardLogger())
	classifier.Classify(context.Background(), "Who signed the engagement letter?")

	llm.AssertExpectations(t)
	messages := llm.Calls[0].Arguments.Get(1).([]domain.Message)
	assert.Contains(t, messages[0].Content, "Who signed the engagement letter?")
}
