package translit

import (
	"testing"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name       string
		t          Transliterator
		text, want string
		wantDeltas []deltas.Interval
	}{
		{"lowercase", Lowercase{}, "\u00c9COLE", "\u00e9cole", nil},
		{"lowercase changes length", Lowercase{}, "\u0130x", "i\u0307x", []deltas.Interval{{Begin: 0, End: 2, Delta: 1}}},
		{"nfkc ligature", NFKC{}, "\ufb01ne", "fine", []deltas.Interval{{Begin: 0, End: 3, Delta: -1}}},
		{"clean text", CleanText{}, "a\tb\x00c\u00a0d", "a b c d", []deltas.Interval{
			{Begin: 3, End: 4, Delta: -1}, {Begin: 5, End: 7, Delta: -1}}},
		{"sequence", Sequence{CleanText{}, StripAccents{}, Lowercase{}}, "Caf\u00e9 Cr\u00e8me", "cafe creme", []deltas.Interval{
			{Begin: 3, End: 5, Delta: -1}, {Begin: 8, End: 10, Delta: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, c := Run(tt.t, tt.text)
			assert.Equal(t, tt.want, got)
			if tt.wantDeltas == nil {
				assert.True(t, c.IsEmpty())
			} else {
				assert.Equal(t, tt.wantDeltas, c.Intervals())
			}
			assert.Equal(t, len(got), c.Apply(len(tt.text), deltas.Left))
			assert.Equal(t, tt.want, String(tt.t, tt.text))
		})
	}
}

func TestByNameSequence(t *testing.T) {
	tr, err := ByName("clean_text, strip_accents,lowercase")
	require.NoError(t, err)
	assert.Equal(t, Sequence{CleanText{}, StripAccents{}, Lowercase{}}, tr)
	assert.Equal(t, "clean_text,strip_accents,lowercase", NameOf(tr))

	tr, err = ByName("none,none")
	require.NoError(t, err)
	assert.Nil(t, tr)

	_, err = ByName("lowercase,rot13")
	require.Error(t, err)

	for _, name := range Names {
		tr, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, NameOf(tr))
	}
	assert.Equal(t, "translit.Func", NameOf(Func(func(r rune) string { return string(r) })))
}
