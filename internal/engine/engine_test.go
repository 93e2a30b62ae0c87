package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/graphquery/internal/schema"
)

// stubRetriever returns a fixed fragment list.
type stubRetriever struct {
	fragments []schema.ScoredFragment
	err       error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string) ([]schema.ScoredFragment, error) {
	return s.fragments, s.err
}

func textFrag(text string, score float64) schema.ScoredFragment {
	return schema.ScoredFragment{Fragment: &schema.TextFragment{Text: text}, Score: score}
}

func TestNewRetrieverEngine_NilDeps(t *testing.T) {
	_, err := NewRetrieverEngine(nil, NewCompactSynthesizer())
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewRetrieverEngine(&stubRetriever{}, nil)
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestRetrieverEngine_Query(t *testing.T) {
	e, err := NewRetrieverEngine(
		&stubRetriever{fragments: []schema.ScoredFragment{
			textFrag("alpha", 0.9),
			textFrag("beta", 0.4),
		}},
		NewCompactSynthesizer(),
	)
	require.NoError(t, err)

	resp, err := e.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "alpha\n\nbeta", resp.Text)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, 0.9, resp.Sources[0].Score)
}

func TestRetrieverEngine_RetrieveErrorPropagates(t *testing.T) {
	boom := errors.New("backend down")
	e, err := NewRetrieverEngine(&stubRetriever{err: boom}, NewCompactSynthesizer())
	require.NoError(t, err)

	_, err = e.Query(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestCompactSynthesizer_AppendsExtraSources(t *testing.T) {
	s := NewCompactSynthesizer()

	fragments := []schema.ScoredFragment{textFrag("body", 0.8)}
	extras := []schema.ScoredFragment{textFrag("cited", 0.5), textFrag("also cited", 0.2)}

	resp, err := s.Synthesize(context.Background(), "q", fragments, extras)
	require.NoError(t, err)

	// Extra sources never contribute to the answer text.
	assert.Equal(t, "body", resp.Text)
	require.Len(t, resp.Sources, 3)
	assert.Equal(t, "body", resp.Sources[0].Fragment.Content())
	assert.Equal(t, "cited", resp.Sources[1].Fragment.Content())
	assert.Equal(t, "also cited", resp.Sources[2].Fragment.Content())
}

func TestCompactSynthesizer_EmptyFragments(t *testing.T) {
	resp, err := NewCompactSynthesizer().Synthesize(context.Background(), "q", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Empty(t, resp.Sources)
}

func TestCompactSynthesizer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCompactSynthesizer().Synthesize(ctx, "q", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompactSynthesizer_CustomSeparator(t *testing.T) {
	s := &CompactSynthesizer{Separator: " | "}
	resp, err := s.Synthesize(context.Background(), "q",
		[]schema.ScoredFragment{textFrag("a", 1), textFrag("b", 1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a | b", resp.Text)
}
