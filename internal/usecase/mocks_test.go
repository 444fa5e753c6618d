package usecase_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"bullpen-rag/internal/domain"
	"bullpen-rag/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) CompleteStream(ctx context.Context, messages []domain.Message, opts domain.CompletionOptions) (<-chan string, <-chan error, error) {
	args := m.Called(ctx, messages, opts)
	var deltas <-chan string
	if ch, ok := args.Get(0).(chan string); ok {
		deltas = ch
	}
	var errs <-chan error
	if ch, ok := args.Get(1).(chan error); ok {
		errs = ch
	}
	return deltas, errs, args.Error(2)
}

func (m *MockLLMClient) Version() string {
	return "mock-llm"
}

type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockVectorEncoder) Version() string {
	return "mock-encoder"
}

type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) VectorSearch(ctx context.Context, vector []float32, k int) ([]domain.SearchHit, error) {
	args := m.Called(ctx, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

func (m *MockSearchIndex) TextSearch(ctx context.Context, query string, top int) (int, error) {
	args := m.Called(ctx, query, top)
	return args.Int(0), args.Error(1)
}

// --- Stubs ---

type stubInternalSearch struct {
	docs []domain.EvidenceDocument
}

func (s *stubInternalSearch) Execute(_ context.Context, _ string, _ int) []domain.EvidenceDocument {
	return s.docs
}

type stubWebSearcher struct {
	evidence  domain.ExternalEvidence
	lastQuery string
}

func (s *stubWebSearcher) SearchWeb(_ context.Context, query string) domain.ExternalEvidence {
	s.lastQuery = query
	evidence := s.evidence
	evidence.Query = query
	return evidence
}

type stubClassifier struct {
	intent domain.Intent
	panics bool
}

func (s *stubClassifier) Classify(context.Context, string) domain.Intent {
	if s.panics {
		panic("classifier exploded")
	}
	return s.intent
}

// closedDeltaStream returns a delta channel pre-filled with deltas and
// closed, plus a closed error channel, mimicking a successful completion.
func closedDeltaStream(deltas ...string) (chan string, chan error) {
	deltaCh := make(chan string, len(deltas))
	for _, delta := range deltas {
		deltaCh <- delta
	}
	close(deltaCh)
	errCh := make(chan error)
	close(errCh)
	return deltaCh, errCh
}

var _ usecase.InternalSearchUsecase = (*stubInternalSearch)(nil)
var _ domain.WebSearcher = (*stubWebSearcher)(nil)
var _ usecase.QueryClassifier = (*stubClassifier)(nil)
var _ domain.LLMClient = (*MockLLMClient)(nil)
var _ domain.VectorEncoder = (*MockVectorEncoder)(nil)
var _ domain.SearchIndex = (*MockSearchIndex)(nil)
