// Package substitute rewrites texts with regular expression rules and records, for every
// rewrite, the deltas.Collection that maps positions between the original and the new text.
//
// Rules are applied in order, each one on the output of the previous. The collections of the
// successive steps are composed, so the final one maps positions of the very first text.
package substitute

import (
	"regexp"
	"strings"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/pkg/errors"
)

// ErrBadReplacement is returned (wrapped) when a rule can't be compiled: an invalid pattern,
// or a replacement referencing a group the pattern doesn't define.
var ErrBadReplacement = errors.New("bad substitution rule")

// Rule replaces every match of Pattern by Replacement.
//
// Pattern uses the RE2 syntax of the regexp package. Replacement may reference capture groups,
// see Compile.
type Rule struct {
	Pattern     string `json:"pattern" mapstructure:"pattern" validate:"required"`
	Replacement string `json:"replacement" mapstructure:"replacement"`
}

// Compiled is a Rule ready to be applied. It is safe for concurrent use.
type Compiled struct {
	Rule
	re     *regexp.Regexp
	pieces []piece
}

// Compile validates the rule and prepares it for use.
//
// Capture groups are referenced in the replacement as $1, ${1}, $name, ${name} or \1. Any
// reference to a group that doesn't exist fails here, not when the rule is applied.
func Compile(rule Rule) (*Compiled, error) {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return nil, errors.Wrapf(ErrBadReplacement, "invalid pattern %q: %v", rule.Pattern, err)
	}
	pieces, err := parseTemplate(re, rule.Replacement)
	if err != nil {
		return nil, errors.WithMessagef(err, "rule %q -> %q", rule.Pattern, rule.Replacement)
	}
	return &Compiled{Rule: rule, re: re, pieces: pieces}, nil
}


// Apply replaces every non-overlapping match in text and returns the new text, along with one
// interval per match, in the coordinates of text.
func (c *Compiled) Apply(text string) (string, deltas.Collection, error) {
	matches := c.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, deltas.Collection{}, nil
	}
	begins := make([]int, len(matches))
	ends := make([]int, len(matches))
	lengthChanges := make([]int, len(matches))

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for i, m := range matches {
		start, end := m[0], m[1]
		sb.WriteString(text[last:start])
		before := sb.Len()
		expand(&sb, c.pieces, text, m)
		begins[i], ends[i] = start, end
		lengthChanges[i] = (sb.Len() - before) - (end - start)
		last = end
	}
	sb.WriteString(text[last:])

	collection, err := deltas.FromIntervals(begins, ends, lengthChanges)
	if err != nil {
		return "", deltas.Collection{}, errors.WithMessagef(err, "rule %q", c.Pattern)
	}
	return sb.String(), collection, nil
}

// ReplaceAll is Apply without the bookkeeping of the deltas.
func (c *Compiled) ReplaceAll(text string) string {
	matches := c.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m[0]])
		expand(&sb, c.pieces, text, m)
		last = m[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// Sub compiles a single rule and applies it to text.
func Sub(pattern, replacement, text string) (string, deltas.Collection, error) {
	c, err := Compile(Rule{Pattern: pattern, Replacement: replacement})
	if err != nil {
		return "", deltas.Collection{}, err
	}
	return c.Apply(text)
}

// Ruleset is an ordered list of compiled rules.
type Ruleset []*Compiled

// CompileAll compiles the rules in order. It fails on the first invalid rule.
func CompileAll(rules []Rule) (Ruleset, error) {
	rs := make(Ruleset, 0, len(rules))
	for i, rule := range rules {
		c, err := Compile(rule)
		if err != nil {
			return nil, errors.WithMessagef(err, "rule #%d", i)
		}
		rs = append(rs, c)
	}
	return rs, nil
}

// Apply runs every rule in order on text. Each rule's collection is composed onto start, so
// the returned collection maps positions of the text start was describing (or of text itself,
// if start is empty) to the returned text.
func (rs Ruleset) Apply(text string, start deltas.Collection) (string, deltas.Collection, error) {
	total := start
	for _, c := range rs {
		var step deltas.Collection
		var err error
		text, step, err = c.Apply(text)
		if err != nil {
			return "", deltas.Collection{}, err
		}
		total, err = total.Compose(step)
		if err != nil {
			return "", deltas.Collection{}, errors.WithMessagef(err, "after rule %q", c.Pattern)
		}
	}
	return text, total, nil
}

// ReplaceAll runs every rule in order on text, without deltas.
func (rs Ruleset) ReplaceAll(text string) string {
	for _, c := range rs {
		text = c.ReplaceAll(text)
	}
	return text
}

// MultiSub compiles and applies the rules in order, composing the deltas of each step onto
// start. See Ruleset.Apply.
func MultiSub(rules []Rule, text string, start deltas.Collection) (string, deltas.Collection, error) {
	rs, err := CompileAll(rules)
	if err != nil {
		return "", deltas.Collection{}, err
	}
	return rs.Apply(text, start)
}
