// Package translit folds characters to simpler equivalents (accented letters to plain ASCII,
// for instance) and records where the folding changed the length of the text.
//
// Transliteration works character by character: each rune of width w bytes at position i that
// is replaced by a string of a different length yields the interval [i, i+w) with
// delta = len(replacement) - w.
package translit

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/pkg/errors"
	"github.com/rainycape/unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/unicode/norm"
)

// Transliterator maps a single rune to its replacement.
//
// Implementations must be safe for concurrent use.
type Transliterator interface {
	Transliterate(r rune) string
}

// Func adapts a function to the Transliterator interface.
type Func func(r rune) string

// Transliterate implements Transliterator.
func (f Func) Transliterate(r rune) string { return f(r) }

// Unidecode transliterates any Unicode character to its closest ASCII representation,
// e.g. "é" -> "e", "ß" -> "ss".
type Unidecode struct{}

// Transliterate implements Transliterator.
func (Unidecode) Transliterate(r rune) string {
	if r < utf8.RuneSelf {
		return string(r)
	}
	return unidecode.Unidecode(string(r))
}

var nonSpacingMarks = runes.In(unicode.Mn)

// StripAccents removes diacritics: each rune is decomposed (NFD), its non-spacing marks dropped
// and the remainder recomposed (NFC). Characters without a decomposition, like "ß" or "Œ",
// are kept.
type StripAccents struct{}

// Transliterate implements Transliterator.
func (StripAccents) Transliterate(r rune) string {
	if r < utf8.RuneSelf {
		return string(r)
	}
	decomposed := norm.NFD.String(string(r))
	var sb strings.Builder
	for _, d := range decomposed {
		if !nonSpacingMarks.Contains(d) {
			sb.WriteRune(d)
		}
	}
	return norm.NFC.String(sb.String())
}

// Names of the built-in transliterators, as used in configuration files.
const (
	NameNone         = "none"
	NameUnidecode    = "unidecode"
	NameStripAccents = "strip_accents"
	NameLowercase    = "lowercase"
	NameNFKC         = "nfkc"
	NameCleanText    = "clean_text"
)

// Names lists the names accepted by ByName, besides sequences.
var Names = []string{NameNone, NameUnidecode, NameStripAccents, NameLowercase, NameNFKC, NameCleanText}

// ByName returns the built-in transliterator with the given name. "none" or "" return nil,
// meaning no transliteration.
//
// A comma separated list of names, e.g. "clean_text,strip_accents,lowercase", returns a
// Sequence of them, applied in that order.
func ByName(name string) (Transliterator, error) {
	if strings.Contains(name, ",") {
		var seq Sequence
		for _, part := range strings.Split(name, ",") {
			t, err := ByName(strings.TrimSpace(part))
			if err != nil {
				return nil, errors.WithMessagef(err, "in sequence %q", name)
			}
			if t != nil {
				seq = append(seq, t)
			}
		}
		if len(seq) == 0 {
			return nil, nil
		}
		return seq, nil
	}
	switch name {
	case "", NameNone:
		return nil, nil
	case NameUnidecode:
		return Unidecode{}, nil
	case NameStripAccents:
		return StripAccents{}, nil
	case NameLowercase:
		return Lowercase{}, nil
	case NameNFKC:
		return NFKC{}, nil
	case NameCleanText:
		return CleanText{}, nil
	}
	return nil, errors.Errorf("unknown transliteration %q, expected one of %q or a comma separated list of them",
		name, Names)
}

// Run transliterates text and returns the new text with the deltas of every character whose
// replacement has a different length. Invalid UTF-8 bytes are copied unchanged.
func Run(t Transliterator, text string) (string, deltas.Collection) {
	var begins, ends, lengthChanges []int
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); {
		r, width := utf8.DecodeRuneInString(text[i:])
		replacement := text[i : i+width]
		if r != utf8.RuneError || width != 1 {
			replacement = t.Transliterate(r)
		}
		if len(replacement) != width {
			begins = append(begins, i)
			ends = append(ends, i+width)
			lengthChanges = append(lengthChanges, len(replacement)-width)
		}
		sb.WriteString(replacement)
		i += width
	}
	// One interval per character, in order: always well-formed.
	c, err := deltas.FromIntervals(begins, ends, lengthChanges)
	if err != nil {
		panic(errors.WithMessage(err, "translit: per-character intervals"))
	}
	return sb.String(), c
}

// String transliterates text without recording deltas. It returns the same text as Run.
func String(t Transliterator, text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); {
		r, width := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && width == 1 {
			sb.WriteByte(text[i])
		} else {
			sb.WriteString(t.Transliterate(r))
		}
		i += width
	}
	return sb.String()
}
