package compose

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/graphquery/internal/engine"
	gqerrors "github.com/Aman-CERP/graphquery/internal/errors"
	"github.com/Aman-CERP/graphquery/internal/graph"
	"github.com/Aman-CERP/graphquery/internal/index"
	"github.com/Aman-CERP/graphquery/internal/schema"
	"github.com/Aman-CERP/graphquery/internal/store"
	"github.com/Aman-CERP/graphquery/internal/telemetry"
)

// stubEngine is a scripted query engine. Retrieve returns the configured
// fragments; Synthesize joins fragment text and records its arguments.
type stubEngine struct {
	fragments   []schema.ScoredFragment
	retrieveErr error
	synthErr    error
	answer      string

	retrieveCalls  int
	lastFragments  []schema.ScoredFragment
	lastExtras     []schema.ScoredFragment
	synthesizeCall int
}

var _ engine.QueryEngine = (*stubEngine)(nil)

func (s *stubEngine) Retrieve(_ context.Context, _ string) ([]schema.ScoredFragment, error) {
	s.retrieveCalls++
	if s.retrieveErr != nil {
		return nil, s.retrieveErr
	}
	return s.fragments, nil
}

func (s *stubEngine) Synthesize(_ context.Context, _ string, fragments, extraSources []schema.ScoredFragment) (*schema.Response, error) {
	s.synthesizeCall++
	s.lastFragments = fragments
	s.lastExtras = extraSources
	if s.synthErr != nil {
		return nil, s.synthErr
	}
	text := s.answer
	if text == "" {
		text = schema.JoinFragments(fragments, "\n\n")
	}
	sources := make([]schema.ScoredFragment, 0, len(fragments)+len(extraSources))
	sources = append(sources, fragments...)
	sources = append(sources, extraSources...)
	return &schema.Response{Text: text, Sources: sources}, nil
}

func (s *stubEngine) Query(ctx context.Context, query string) (*schema.Response, error) {
	fragments, err := s.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Synthesize(ctx, query, fragments, nil)
}

// fakeIndex satisfies index.SubIndex without any storage backend.
type fakeIndex struct {
	id     string
	kind   index.Kind
	engine engine.QueryEngine

	asEngineCalls int
	lastOptCount  int
}

var _ index.SubIndex = (*fakeIndex)(nil)

func (f *fakeIndex) ID() string       { return f.id }
func (f *fakeIndex) Kind() index.Kind { return f.kind }
func (f *fakeIndex) Close() error     { return nil }

func (f *fakeIndex) Insert(context.Context, []*store.Document) error { return nil }

func (f *fakeIndex) AsQueryEngine(opts ...index.EngineOption) (engine.QueryEngine, error) {
	f.asEngineCalls++
	f.lastOptCount = len(opts)
	if f.engine == nil {
		return nil, fmt.Errorf("no engine configured for %s", f.id)
	}
	return f.engine, nil
}

func textFrag(text string, score float64) schema.ScoredFragment {
	return schema.ScoredFragment{Fragment: &schema.TextFragment{Text: text}, Score: score}
}

func refFrag(targetID, summary string, score float64) schema.ScoredFragment {
	return schema.ScoredFragment{Fragment: &schema.IndexFragment{TargetID: targetID, Summary: summary}, Score: score}
}

func newTestGraph(t *testing.T, rootID string, indices ...*fakeIndex) *graph.Graph {
	t.Helper()
	m := make(map[string]index.SubIndex, len(indices))
	for _, idx := range indices {
		m[idx.id] = idx
	}
	g, err := graph.New(rootID, m)
	require.NoError(t, err)
	return g
}

func TestNewEngine(t *testing.T) {
	t.Run("nil graph", func(t *testing.T) {
		e, err := NewEngine(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, engine.ErrNilDependency)
		assert.Nil(t, e)
	})

	t.Run("defaults", func(t *testing.T) {
		g := newTestGraph(t, "root", &fakeIndex{id: "root", kind: index.KindKeyword})
		e, err := NewEngine(g)
		require.NoError(t, err)
		assert.True(t, e.recursive)
		assert.Equal(t, index.DefaultSimilarityTopK, e.topK)
		assert.Equal(t, index.DefaultKeywordLimit, e.keywordLimit)
	})
}

func TestQueryRecursiveExpansion(t *testing.T) {
	// Root retrieves a placeholder pointing at "b". The sub-response's text
	// must reach the root synthesizer as a text fragment carrying the
	// placeholder's score, and the sub-response's sources must arrive as
	// additional sources.
	engineB := &stubEngine{
		fragments: []schema.ScoredFragment{textFrag("hello", 0.5)},
		answer:    "hello world",
	}
	engineA := &stubEngine{
		fragments: []schema.ScoredFragment{refFrag("b", "all about b", 0.9)},
	}

	g := newTestGraph(t, "a",
		&fakeIndex{id: "a", kind: index.KindVector},
		&fakeIndex{id: "b", kind: index.KindKeyword},
	)
	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{
		"a": engineA,
		"b": engineB,
	}))
	require.NoError(t, err)

	resp, err := e.Query(context.Background(), "what is b about?")
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.Len(t, engineA.lastFragments, 1)
	tf, ok := engineA.lastFragments[0].Fragment.(*schema.TextFragment)
	require.True(t, ok, "placeholder should be replaced by a text fragment")
	assert.Equal(t, "hello world", tf.Text)
	assert.Equal(t, 0.9, engineA.lastFragments[0].Score, "original placeholder score survives expansion")

	require.Len(t, engineA.lastExtras, 1)
	assert.Equal(t, "hello", engineA.lastExtras[0].Fragment.Content())
	assert.Equal(t, 0.5, engineA.lastExtras[0].Score)

	assert.Equal(t, "hello world", resp.Text)
	assert.Len(t, resp.Sources, 2)
}

func TestQueryNonRecursive(t *testing.T) {
	engineB := &stubEngine{fragments: []schema.ScoredFragment{textFrag("hello", 0.5)}}
	engineA := &stubEngine{
		fragments: []schema.ScoredFragment{refFrag("b", "all about b", 0.9)},
	}

	g := newTestGraph(t, "a",
		&fakeIndex{id: "a", kind: index.KindVector},
		&fakeIndex{id: "b", kind: index.KindKeyword},
	)
	e, err := NewEngine(g,
		WithRecursive(false),
		WithCustomEngines(map[string]engine.QueryEngine{"a": engineA, "b": engineB}),
	)
	require.NoError(t, err)

	_, err = e.Query(context.Background(), "q")
	require.NoError(t, err)

	assert.Zero(t, engineB.retrieveCalls, "referenced index must not be visited")
	require.Len(t, engineA.lastFragments, 1)
	_, ok := engineA.lastFragments[0].Fragment.(*schema.IndexFragment)
	assert.True(t, ok, "placeholder passes through unexpanded")
	assert.Empty(t, engineA.lastExtras)
}

func TestQueryMixedFragments(t *testing.T) {
	// Text fragments pass through untouched alongside expanded
	// placeholders, preserving retrieval order.
	engineB := &stubEngine{
		fragments: []schema.ScoredFragment{textFrag("from b", 0.4)},
		answer:    "b says hi",
	}
	engineA := &stubEngine{
		fragments: []schema.ScoredFragment{
			textFrag("plain", 0.95),
			refFrag("b", "b summary", 0.8),
		},
	}

	g := newTestGraph(t, "a",
		&fakeIndex{id: "a", kind: index.KindVector},
		&fakeIndex{id: "b", kind: index.KindKeyword},
	)
	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA, "b": engineB}))
	require.NoError(t, err)

	_, err = e.Query(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, engineA.lastFragments, 2)
	assert.Equal(t, "plain", engineA.lastFragments[0].Fragment.Content())
	assert.Equal(t, 0.95, engineA.lastFragments[0].Score)
	assert.Equal(t, "b says hi", engineA.lastFragments[1].Fragment.Content())
	assert.Equal(t, 0.8, engineA.lastFragments[1].Score)
}

func TestSelectEngine(t *testing.T) {
	t.Run("custom engine wins over default", func(t *testing.T) {
		custom := &stubEngine{fragments: []schema.ScoredFragment{textFrag("custom", 1.0)}}
		idx := &fakeIndex{id: "a", kind: index.KindVector, engine: &stubEngine{}}
		g := newTestGraph(t, "a", idx)
		e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": custom}))
		require.NoError(t, err)

		resp, err := e.Query(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, "custom", resp.Text)
		assert.Zero(t, idx.asEngineCalls, "default engine must not be built")
	})

	t.Run("vector default receives similarity option", func(t *testing.T) {
		idx := &fakeIndex{id: "a", kind: index.KindVector, engine: &stubEngine{answer: "v"}}
		g := newTestGraph(t, "a", idx)
		e, err := NewEngine(g, WithSimilarityTopK(7))
		require.NoError(t, err)

		_, err = e.Query(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, 1, idx.asEngineCalls)
		assert.Equal(t, 1, idx.lastOptCount)
	})

	t.Run("keyword default receives limit option", func(t *testing.T) {
		idx := &fakeIndex{id: "a", kind: index.KindKeyword, engine: &stubEngine{answer: "k"}}
		g := newTestGraph(t, "a", idx)
		e, err := NewEngine(g, WithKeywordLimit(25))
		require.NoError(t, err)

		_, err = e.Query(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, 1, idx.asEngineCalls)
		assert.Equal(t, 1, idx.lastOptCount)
	})

	t.Run("engine rebuilt on every visit", func(t *testing.T) {
		idx := &fakeIndex{id: "a", kind: index.KindKeyword, engine: &stubEngine{answer: "k"}}
		g := newTestGraph(t, "a", idx)
		e, err := NewEngine(g)
		require.NoError(t, err)

		_, err = e.Query(context.Background(), "q1")
		require.NoError(t, err)
		_, err = e.Query(context.Background(), "q2")
		require.NoError(t, err)
		assert.Equal(t, 2, idx.asEngineCalls)
	})
}

func TestQueryUnknownTarget(t *testing.T) {
	engineA := &stubEngine{
		fragments: []schema.ScoredFragment{refFrag("missing", "gone", 0.9)},
	}
	g := newTestGraph(t, "a", &fakeIndex{id: "a", kind: index.KindVector})
	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA}))
	require.NoError(t, err)

	_, err = e.Query(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, gqerrors.ErrCodeUnknownIndex, gqerrors.GetCode(err))
}

func TestQueryCycleDetection(t *testing.T) {
	// a references b, b references a. Resolution must fail with a coded
	// error instead of recursing until the stack is gone.
	engineA := &stubEngine{fragments: []schema.ScoredFragment{refFrag("b", "", 0.9)}}
	engineB := &stubEngine{fragments: []schema.ScoredFragment{refFrag("a", "", 0.9)}}

	g := newTestGraph(t, "a",
		&fakeIndex{id: "a", kind: index.KindVector},
		&fakeIndex{id: "b", kind: index.KindKeyword},
	)
	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA, "b": engineB}))
	require.NoError(t, err)

	_, err = e.Query(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, gqerrors.ErrCodeCycleDetected, gqerrors.GetCode(err))
}

func TestQueryDiamondIsNotACycle(t *testing.T) {
	// a -> b and a -> c -> b. b sits on two paths but never on the same
	// path twice, so resolution succeeds.
	engineA := &stubEngine{fragments: []schema.ScoredFragment{
		refFrag("b", "", 0.9),
		refFrag("c", "", 0.8),
	}}
	engineB := &stubEngine{fragments: []schema.ScoredFragment{textFrag("leaf", 0.5)}, answer: "leaf answer"}
	engineC := &stubEngine{fragments: []schema.ScoredFragment{refFrag("b", "", 0.7)}, answer: "c answer"}

	g := newTestGraph(t, "a",
		&fakeIndex{id: "a", kind: index.KindVector},
		&fakeIndex{id: "b", kind: index.KindKeyword},
		&fakeIndex{id: "c", kind: index.KindKeyword},
	)
	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{
		"a": engineA, "b": engineB, "c": engineC,
	}))
	require.NoError(t, err)

	_, err = e.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, engineB.retrieveCalls)
}

func TestQueryErrorPropagation(t *testing.T) {
	sentinel := errors.New("backend exploded")

	t.Run("retrieve error from sub-index", func(t *testing.T) {
		engineA := &stubEngine{fragments: []schema.ScoredFragment{refFrag("b", "", 0.9)}}
		engineB := &stubEngine{retrieveErr: sentinel}
		g := newTestGraph(t, "a",
			&fakeIndex{id: "a", kind: index.KindVector},
			&fakeIndex{id: "b", kind: index.KindKeyword},
		)
		e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA, "b": engineB}))
		require.NoError(t, err)

		_, err = e.Query(context.Background(), "q")
		assert.ErrorIs(t, err, sentinel)
		assert.Zero(t, engineA.synthesizeCall, "root synthesis must not run after failure")
	})

	t.Run("synthesize error", func(t *testing.T) {
		engineA := &stubEngine{
			fragments: []schema.ScoredFragment{textFrag("x", 0.5)},
			synthErr:  sentinel,
		}
		g := newTestGraph(t, "a", &fakeIndex{id: "a", kind: index.KindVector})
		e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA}))
		require.NoError(t, err)

		_, err = e.Query(context.Background(), "q")
		assert.ErrorIs(t, err, sentinel)
	})
}

func TestQueryAsync(t *testing.T) {
	engineA := &stubEngine{fragments: []schema.ScoredFragment{textFrag("async", 0.5)}, answer: "async answer"}
	g := newTestGraph(t, "a", &fakeIndex{id: "a", kind: index.KindVector})
	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA}))
	require.NoError(t, err)

	select {
	case result := <-e.QueryAsync(context.Background(), "q"):
		require.NoError(t, result.Err)
		assert.Equal(t, "async answer", result.Response.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for async result")
	}
}

// recordingHook captures the event sequence for order assertions.
type recordingHook struct {
	events []string
}

func (h *recordingHook) OnQueryStart(indexID, _ string, level int) {
	h.events = append(h.events, fmt.Sprintf("query_start:%s:%d", indexID, level))
}

func (h *recordingHook) OnQueryEnd(indexID, _ string, level int, _ *schema.Response, _ time.Duration) {
	h.events = append(h.events, fmt.Sprintf("query_end:%s:%d", indexID, level))
}

func (h *recordingHook) OnRetrieveStart(indexID, _ string) {
	h.events = append(h.events, "retrieve_start:"+indexID)
}

func (h *recordingHook) OnRetrieveEnd(indexID, _ string, _ []schema.ScoredFragment) {
	h.events = append(h.events, "retrieve_end:"+indexID)
}

func TestQueryHookEvents(t *testing.T) {
	engineA := &stubEngine{fragments: []schema.ScoredFragment{refFrag("b", "", 0.9)}}
	engineB := &stubEngine{fragments: []schema.ScoredFragment{textFrag("hello", 0.5)}, answer: "sub"}

	hook := &recordingHook{}
	m := map[string]index.SubIndex{
		"a": &fakeIndex{id: "a", kind: index.KindVector},
		"b": &fakeIndex{id: "b", kind: index.KindKeyword},
	}
	g, err := graph.New("a", m, graph.WithHook(hook))
	require.NoError(t, err)

	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA, "b": engineB}))
	require.NoError(t, err)

	_, err = e.Query(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"query_start:a:0",
		"retrieve_start:a",
		"retrieve_end:a",
		"query_start:b:1",
		"retrieve_start:b",
		"retrieve_end:b",
		"query_end:b:1",
		"query_end:a:0",
	}, hook.events)
}

func TestQueryMetricsAfterRetrieveFailures(t *testing.T) {
	// Each failed retrieval increments the started counter without a
	// matching completion. The metrics hook must stay bounded no matter
	// how many distinct queries fail.
	engineA := &stubEngine{retrieveErr: errors.New("index offline")}

	metrics := telemetry.NewQueryMetrics(0)
	m := map[string]index.SubIndex{"a": &fakeIndex{id: "a", kind: index.KindVector}}
	g, err := graph.New("a", m, graph.WithHook(metrics))
	require.NoError(t, err)

	e, err := NewEngine(g, WithCustomEngines(map[string]engine.QueryEngine{"a": engineA}))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, qerr := e.Query(context.Background(), "query-"+strconv.Itoa(i))
		require.Error(t, qerr)
	}

	snap := metrics.Snapshot()
	assert.Equal(t, int64(50), snap.RetrievalsStarted)
	assert.Equal(t, int64(50), snap.RetrievalsFailed)
	assert.Equal(t, int64(50), snap.TotalQueries)
	assert.Zero(t, snap.RetrievedFragments)
}
