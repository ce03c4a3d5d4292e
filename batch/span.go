package batch

import (
	"maps"
	"slices"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/pkg/errors"
)

// Span is a character range annotating some unit (a token, a mention, a sentence) of a document.
// Attrs holds any other columns of the span, passed through unmodified.
type Span struct {
	DocID string
	Begin int
	End   int
	Attrs map[string]any
}

// Names of the position columns of Span.
const (
	ColumnBegin = "begin"
	ColumnEnd   = "end"
)

var spanFields = map[string]func(*Span) *int{
	ColumnBegin: func(s *Span) *int { return &s.Begin },
	ColumnEnd:   func(s *Span) *int { return &s.End },
}

// SpanDocID is the group function of spans.
func SpanDocID(s *Span) string { return s.DocID }

// SpanColumns returns the default position columns of spans: begin snaps left and end snaps right,
// so an edited region touched by a span ends up fully inside the remapped span.
func SpanColumns() []Column[Span] {
	return []Column[Span]{
		{Name: ColumnBegin, Side: deltas.Left, Field: spanFields[ColumnBegin]},
		{Name: ColumnEnd, Side: deltas.Right, Field: spanFields[ColumnEnd]},
	}
}

// SpanColumnsFor returns the position columns of spans for the given column -> side mapping,
// sorted by name. Unknown column names fail with ErrMissingColumn.
func SpanColumnsFor(sides map[string]deltas.Side) ([]Column[Span], error) {
	cols := make([]Column[Span], 0, len(sides))
	for _, name := range slices.Sorted(maps.Keys(sides)) {
		field, found := spanFields[name]
		if !found {
			return nil, errors.Wrapf(ErrMissingColumn, "span has no position column %q (valid: %q, %q)",
				name, ColumnBegin, ColumnEnd)
		}
		cols = append(cols, Column[Span]{Name: name, Side: sides[name], Field: field})
	}
	return cols, nil
}

// ApplySpans maps spans to post-edit coordinates. If no columns are given, SpanColumns is used.
func ApplySpans(spans []Span, index deltas.Index, cols ...Column[Span]) []Span {
	if len(cols) == 0 {
		cols = SpanColumns()
	}
	return Apply(spans, index, SpanDocID, cols...)
}

// ReverseSpans maps spans back to pre-edit coordinates. If no columns are given, SpanColumns is used.
func ReverseSpans(spans []Span, index deltas.Index, cols ...Column[Span]) []Span {
	if len(cols) == 0 {
		cols = SpanColumns()
	}
	return Reverse(spans, index, SpanDocID, cols...)
}
