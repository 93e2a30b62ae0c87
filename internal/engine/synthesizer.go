package engine

import (
	"context"

	"github.com/Aman-CERP/graphquery/internal/schema"
)

// CompactSynthesizer joins fragment contents into one answer, deterministic
// and model-free. The response's source list is the fragment sequence
// followed by any extra sources, order preserved.
type CompactSynthesizer struct {
	// Separator joins fragment contents. Defaults to a blank line.
	Separator string
}

var _ Synthesizer = (*CompactSynthesizer)(nil)

// NewCompactSynthesizer creates a synthesizer with the default separator.
func NewCompactSynthesizer() *CompactSynthesizer {
	return &CompactSynthesizer{Separator: "\n\n"}
}

// Synthesize implements Synthesizer.
func (s *CompactSynthesizer) Synthesize(ctx context.Context, query string, fragments, extraSources []schema.ScoredFragment) (*schema.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sep := s.Separator
	if sep == "" {
		sep = "\n\n"
	}

	sources := make([]schema.ScoredFragment, 0, len(fragments)+len(extraSources))
	sources = append(sources, fragments...)
	sources = append(sources, extraSources...)

	return &schema.Response{
		Text:    schema.JoinFragments(fragments, sep),
		Sources: sources,
	}, nil
}
