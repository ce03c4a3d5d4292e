package substitute

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// piece of a parsed replacement template: either literal text, or a reference to a
// capture group (group >= 0).
type piece struct {
	literal string
	group   int
}

// parseTemplate splits a replacement into literal text and group references.
//
// Group references are written $1, ${1}, $name or ${name} as in regexp.Regexp.Expand, or \1 as
// in sed-like rule files. "$$" is a literal "$" and "\\" a literal backslash. Unlike
// regexp.Regexp.Expand, a reference to a group the pattern doesn't have is an error.
func parseTemplate(re *regexp.Regexp, template string) ([]piece, error) {
	var pieces []piece
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			pieces = append(pieces, piece{literal: lit.String(), group: -1})
			lit.Reset()
		}
	}
	addGroup := func(name string) error {
		group, err := resolveGroup(re, name)
		if err != nil {
			return err
		}
		flush()
		pieces = append(pieces, piece{group: group})
		return nil
	}

	for i := 0; i < len(template); {
		ch := template[i]
		switch {
		case ch == '$' && i+1 < len(template) && template[i+1] == '$':
			lit.WriteByte('$')
			i += 2

		case ch == '$' && i+1 < len(template) && template[i+1] == '{':
			end := strings.IndexByte(template[i+2:], '}')
			if end < 0 {
				return nil, errors.Wrapf(ErrBadReplacement, "unterminated \"${\" at offset %d", i)
			}
			if err := addGroup(template[i+2 : i+2+end]); err != nil {
				return nil, err
			}
			i += end + 3

		case ch == '$':
			j := i + 1
			for j < len(template) && isNameByte(template[j]) {
				j++
			}
			if j == i+1 {
				// A lone "$" is kept as is.
				lit.WriteByte('$')
				i++
				continue
			}
			if err := addGroup(template[i+1 : j]); err != nil {
				return nil, err
			}
			i = j

		case ch == '\\' && i+1 < len(template) && template[i+1] == '\\':
			lit.WriteByte('\\')
			i += 2

		case ch == '\\' && i+1 < len(template) && isDigit(template[i+1]):
			j := i + 1
			for j < len(template) && isDigit(template[j]) {
				j++
			}
			if err := addGroup(template[i+1 : j]); err != nil {
				return nil, err
			}
			i = j

		default:
			lit.WriteByte(ch)
			i++
		}
	}
	flush()
	return pieces, nil
}

func resolveGroup(re *regexp.Regexp, name string) (int, error) {
	if name == "" {
		return 0, errors.Wrapf(ErrBadReplacement, "empty group reference")
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n > re.NumSubexp() {
			return 0, errors.Wrapf(ErrBadReplacement, "group %d referenced, but pattern %q has %d groups",
				n, re.String(), re.NumSubexp())
		}
		return n, nil
	}
	if n := re.SubexpIndex(name); n >= 0 {
		return n, nil
	}
	return 0, errors.Wrapf(ErrBadReplacement, "group %q not found in pattern %q", name, re.String())
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNameByte(b byte) bool {
	return isDigit(b) || b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// expand writes the replacement for one match to sb. match holds submatch indices as returned
// by regexp.Regexp.FindAllStringSubmatchIndex. Groups that didn't participate are empty.
func expand(sb *strings.Builder, pieces []piece, text string, match []int) {
	for _, p := range pieces {
		if p.group < 0 {
			sb.WriteString(p.literal)
			continue
		}
		start, end := match[2*p.group], match[2*p.group+1]
		if start >= 0 {
			sb.WriteString(text[start:end])
		}
	}
}
