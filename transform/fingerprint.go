package transform

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/gomlx/go-textdelta/substitute"
	"github.com/gomlx/go-textdelta/translit"
	"github.com/zeebo/blake3"
)

// Fingerprint returns the hex encoded BLAKE3 digest of a transliterator (identified by
// translit.NameOf) and an ordered list of rules.
func Fingerprint(t translit.Transliterator, rules []substitute.Rule) string {
	h := blake3.New()
	writeField := func(s string) {
		// Length prefixed, so that ("ab", "c") and ("a", "bc") differ.
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(s))
	}
	writeField(translit.NameOf(t))
	for _, rule := range rules {
		writeField(rule.Pattern)
		writeField(rule.Replacement)
	}
	return hex.EncodeToString(h.Sum(nil))
}
