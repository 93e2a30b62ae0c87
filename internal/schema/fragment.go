// Package schema defines the retrieval data model shared by all sub-indices:
// fragments, scored fragments, and synthesized responses.
package schema

import "strings"

// FragmentKind discriminates fragment variants.
type FragmentKind string

const (
	// KindText is a plain content fragment.
	KindText FragmentKind = "text"

	// KindIndexRef is a placeholder fragment referencing another sub-index.
	// It must be expanded into the referenced index's synthesized response
	// before synthesis at the referencing level.
	KindIndexRef FragmentKind = "index_ref"
)

// Fragment is a unit of retrievable content. Implementations are TextFragment
// and IndexFragment; dispatch on Kind() or with a type switch.
type Fragment interface {
	// Kind returns the fragment variant discriminator.
	Kind() FragmentKind

	// Content returns the fragment text. For placeholder fragments this is
	// the summary text indexed in place of the referenced sub-index.
	Content() string
}

// TextFragment is a plain content fragment.
type TextFragment struct {
	// ID is the document identifier, empty for synthesized fragments.
	ID string

	// Text is the fragment content.
	Text string

	// Metadata carries optional key-value annotations.
	Metadata map[string]string
}

// Kind implements Fragment.
func (f *TextFragment) Kind() FragmentKind { return KindText }

// Content implements Fragment.
func (f *TextFragment) Content() string { return f.Text }

// IndexFragment is a placeholder fragment whose content stands in for another
// sub-index. Retrieving it means the referenced index should answer the query.
type IndexFragment struct {
	// ID is the document identifier.
	ID string

	// TargetID is the identifier of the referenced sub-index.
	TargetID string

	// Summary is the text indexed on behalf of the referenced index.
	Summary string
}

// Kind implements Fragment.
func (f *IndexFragment) Kind() FragmentKind { return KindIndexRef }

// Content implements Fragment.
func (f *IndexFragment) Content() string { return f.Summary }

// ScoredFragment pairs a fragment with its relevance score.
type ScoredFragment struct {
	Fragment Fragment
	Score    float64
}

// Response is a synthesized answer plus the ordered source fragments that
// contributed to it.
type Response struct {
	// Text is the synthesized answer.
	Text string

	// Sources are the fragments the answer was synthesized from, in the
	// order they were considered. For recursive queries this includes the
	// source fragments of expanded sub-responses.
	Sources []ScoredFragment
}

// String returns the answer text, mirroring how callers stringify responses
// when embedding them into parent fragments.
func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// JoinFragments concatenates fragment contents with the given separator,
// skipping empty fragments.
func JoinFragments(fragments []ScoredFragment, sep string) string {
	parts := make([]string, 0, len(fragments))
	for _, sf := range fragments {
		if sf.Fragment == nil {
			continue
		}
		if text := strings.TrimSpace(sf.Fragment.Content()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}
