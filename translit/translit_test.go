package translit

import (
	"strings"
	"testing"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUnidecode(t *testing.T) {
	text := "caf\u00e9 au lait" // "é" is 2 bytes.
	got, c := Run(Unidecode{}, text)
	assert.Equal(t, "cafe au lait", got)
	assert.Equal(t, []deltas.Interval{{Begin: 3, End: 5, Delta: -1}}, c.Intervals())

	// Characters after "é" shift left by one.
	au := strings.Index(text, "au")
	assert.Equal(t, au-1, c.Apply(au, deltas.Left))
	assert.Equal(t, "au", got[c.Apply(au, deltas.Left):c.Apply(au+2, deltas.Right)])
	assert.Equal(t, len(got), c.Apply(len(text), deltas.Left))
	assert.Equal(t, au, c.Unapply(au-1, deltas.Left))
}

func TestRunSameLength(t *testing.T) {
	// "ß" (2 bytes) becomes "ss" (2 bytes): no interval.
	got, c := Run(Unidecode{}, "straße")
	assert.Equal(t, "strasse", got)
	assert.True(t, c.IsEmpty())

	got, c = Run(Unidecode{}, "plain ascii")
	assert.Equal(t, "plain ascii", got)
	assert.True(t, c.IsEmpty())
}

func TestRunStripAccents(t *testing.T) {
	text := "naïve señor straße"
	got, c := Run(StripAccents{}, text)
	assert.Equal(t, "naive senor straße", got)
	assert.Equal(t, []deltas.Interval{{Begin: 2, End: 4, Delta: -1}, {Begin: 9, End: 11, Delta: -1}}, c.Intervals())
	assert.Equal(t, got, String(StripAccents{}, text))

	// Already decomposed input: the combining mark is dropped.
	got, c = Run(StripAccents{}, "e\u0301t\u00e9")
	assert.Equal(t, "ete", got)
	assert.Equal(t, []deltas.Interval{{Begin: 1, End: 3, Delta: -2}, {Begin: 4, End: 6, Delta: -1}}, c.Intervals())

	// Runes are folded one at a time: conjoining jamo are not composed into a syllable.
	got, c = Run(StripAccents{}, "\u1100\u1161")
	assert.Equal(t, "\u1100\u1161", got)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, got, String(StripAccents{}, "\u1100\u1161"))
}

func TestRunInvalidUTF8(t *testing.T) {
	got, c := Run(Unidecode{}, "a\xffb")
	assert.Equal(t, "a\xffb", got)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "a\xffb", String(Unidecode{}, "a\xffb"))
}

func TestFunc(t *testing.T) {
	upper := Func(func(r rune) string {
		if r == '&' {
			return "and"
		}
		return string(r)
	})
	got, c := Run(upper, "R&D")
	assert.Equal(t, "RandD", got)
	assert.Equal(t, []deltas.Interval{{Begin: 1, End: 2, Delta: 2}}, c.Intervals())
	assert.Equal(t, "RandD", String(upper, "R&D"))
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", NameNone} {
		tr, err := ByName(name)
		require.NoError(t, err)
		assert.Nil(t, tr)
	}
	tr, err := ByName(NameUnidecode)
	require.NoError(t, err)
	assert.Equal(t, Unidecode{}, tr)
	tr, err = ByName(NameStripAccents)
	require.NoError(t, err)
	assert.Equal(t, StripAccents{}, tr)
	_, err = ByName("rot13")
	require.Error(t, err)
}
