package translit

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Lowercase maps every character to its lower case form. A few characters change length
// doing so (e.g. "İ"), the rest keep it.
type Lowercase struct{}

// Transliterate implements Transliterator.
func (Lowercase) Transliterate(r rune) string {
	return strings.ToLower(string(r))
}

// NFKC applies the compatibility decomposition followed by canonical composition to each
// character, e.g. "ﬁ" -> "fi", "①" -> "1".
//
// Since characters are normalized one at a time, base characters followed by a separate
// combining mark are not composed together.
type NFKC struct{}

// Transliterate implements Transliterator.
func (NFKC) Transliterate(r rune) string {
	return norm.NFKC.String(string(r))
}

// CleanText removes NUL, the replacement character U+FFFD and control characters, and turns
// any other whitespace into a plain space, the way BERT normalizers do.
type CleanText struct{}

// Transliterate implements Transliterator.
func (CleanText) Transliterate(r rune) string {
	switch {
	case r == 0 || r == unicode.ReplacementChar || isControl(r):
		return ""
	case isWhitespace(r):
		return " "
	}
	return string(r)
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

// Sequence applies each transliterator in order: the output of one, character by character,
// is the input of the next.
type Sequence []Transliterator

// Transliterate implements Transliterator.
func (s Sequence) Transliterate(r rune) string {
	out := string(r)
	for _, t := range s {
		var sb strings.Builder
		for _, c := range out {
			sb.WriteString(t.Transliterate(c))
		}
		out = sb.String()
	}
	return out
}

// NameOf returns the name of a transliterator, as accepted by ByName. Transliterators that
// aren't built-in are named by their Go type.
func NameOf(t Transliterator) string {
	switch t := t.(type) {
	case nil:
		return NameNone
	case Unidecode:
		return NameUnidecode
	case StripAccents:
		return NameStripAccents
	case Lowercase:
		return NameLowercase
	case NFKC:
		return NameNFKC
	case CleanText:
		return NameCleanText
	case Sequence:
		names := make([]string, len(t))
		for i, child := range t {
			names[i] = NameOf(child)
		}
		return strings.Join(names, ",")
	}
	return fmt.Sprintf("%T", t)
}
