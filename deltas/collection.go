// Package deltas implements the interval-delta algebra used to keep character spans
// aligned while a text is rewritten.
//
// A Collection describes one rewrite of a text as a set of intervals [Begin, End) in the
// pre-edit text, each with the Delta (signed change in length) its replacement caused.
// With it one can map a position forward (Collection.Apply, pre-edit -> post-edit),
// backward (Collection.Unapply, post-edit -> pre-edit), and compose two successive
// rewrites into one (Collection.Compose).
//
// Example:
//
//	// "foo bar foo" -> "X bar X"
//	c, _ := deltas.New(deltas.Interval{Begin: 0, End: 3, Delta: -2}, deltas.Interval{Begin: 8, End: 11, Delta: -2})
//	c.Apply(8, deltas.Left)  // 6
//	c.Unapply(6, deltas.Left) // 8
//
// Positions are byte offsets, the same coordinates used to slice Go strings.
package deltas

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedIntervals is returned (wrapped) when a collection is built from intervals that
// have mismatched lengths, a begin after its end, or that partially overlap each other.
var ErrMalformedIntervals = errors.New("malformed intervals")

// Interval is one edited region [Begin, End) of the pre-edit text, and the change in length
// caused by its replacement: Delta = len(replacement) - (End - Begin).
type Interval struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
	Delta int `json:"delta"`
}

// String implements fmt.Stringer.
func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d):%+d", iv.Begin, iv.End, iv.Delta)
}

// Collection is an immutable, sorted set of Interval describing one complete rewrite of a text.
//
// The zero value is the empty collection, which maps every position to itself.
//
// Intervals are kept sorted by (Begin, End). They are either disjoint, as produced by a single
// substitution pass, or nested: composing two rewrites where the second one rewrote across a
// region already edited by the first yields the later region enclosing the earlier one.
// Partially overlapping intervals are rejected with ErrMalformedIntervals.
type Collection struct {
	begins, ends, deltas []int

	fwd *index // over the pre-edit boundaries
	bwd *index // over the boundaries mapped to the post-edit text
}

// New creates a Collection from the given intervals, in any order.
func New(intervals ...Interval) (Collection, error) {
	begins := make([]int, len(intervals))
	ends := make([]int, len(intervals))
	deltas := make([]int, len(intervals))
	for i, iv := range intervals {
		begins[i], ends[i], deltas[i] = iv.Begin, iv.End, iv.Delta
	}
	return build(begins, ends, deltas)
}

// FromIntervals creates a Collection from parallel slices of begins, ends and deltas.
//
// The intervals don't need to be sorted: they are stably sorted by (begin, end), so intervals
// with identical boundaries keep their relative input order. The input slices are not modified.
func FromIntervals(begins, ends, deltas []int) (Collection, error) {
	if len(begins) != len(ends) || len(begins) != len(deltas) {
		return Collection{}, errors.Wrapf(ErrMalformedIntervals,
			"got %d begins, %d ends and %d deltas", len(begins), len(ends), len(deltas))
	}
	return build(clone(begins), clone(ends), clone(deltas))
}

// FromAbsolute creates a Collection from deltas expressed as running totals: the i-th value
// is the sum of the deltas of intervals 0..i.
//
// The first delta is kept as is, and each following one has the previous cumulative value
// subtracted. Intervals must already be given in order.
func FromAbsolute(begins, ends, cumulative []int) (Collection, error) {
	if len(cumulative) != len(begins) {
		return Collection{}, errors.Wrapf(ErrMalformedIntervals,
			"got %d begins and %d cumulative deltas", len(begins), len(cumulative))
	}
	deltas := make([]int, len(cumulative))
	prev := 0
	for i, abs := range cumulative {
		deltas[i] = abs - prev
		prev = abs
	}
	return FromIntervals(begins, ends, deltas)
}

// build takes ownership of the slices.
func build(begins, ends, deltas []int) (Collection, error) {
	n := len(begins)
	if n == 0 {
		return Collection{}, nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if begins[ia] != begins[ib] {
			return begins[ia] < begins[ib]
		}
		return ends[ia] < ends[ib]
	})
	c := Collection{
		begins: make([]int, n),
		ends:   make([]int, n),
		deltas: make([]int, n),
	}
	for k, i := range order {
		c.begins[k], c.ends[k], c.deltas[k] = begins[i], ends[i], deltas[i]
	}
	if err := validate(c.begins, c.ends); err != nil {
		return Collection{}, err
	}

	c.fwd = newIndex(c.begins, c.ends, c.deltas, c.begins, c.ends)
	mappedBegins := make([]int, n)
	mappedEnds := make([]int, n)
	for i := range n {
		mappedBegins[i] = c.Apply(c.begins[i], Left)
		mappedEnds[i] = c.Apply(c.ends[i], Right)
	}
	c.bwd = newIndex(mappedBegins, mappedEnds, c.deltas, c.begins, c.ends)
	return c, nil
}

// validate checks begin <= end and that no two intervals cross. begins/ends must be sorted
// by (begin, end).
func validate(begins, ends []int) error {
	order := make([]int, len(begins))
	for i := range order {
		if begins[i] > ends[i] {
			return errors.Wrapf(ErrMalformedIntervals, "interval [%d,%d) has begin > end", begins[i], ends[i])
		}
		order[i] = i
	}
	// Enclosing intervals first, so nesting can be tracked with a stack of open ends.
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if begins[ia] != begins[ib] {
			return begins[ia] < begins[ib]
		}
		return ends[ia] > ends[ib]
	})
	var open []int
	for _, i := range order {
		for len(open) > 0 && ends[open[len(open)-1]] <= begins[i] {
			open = open[:len(open)-1]
		}
		if len(open) > 0 {
			if top := open[len(open)-1]; ends[top] < ends[i] {
				return errors.Wrapf(ErrMalformedIntervals, "intervals [%d,%d) and [%d,%d) overlap",
					begins[top], ends[top], begins[i], ends[i])
			}
		}
		open = append(open, i)
	}
	return nil
}

// Len returns the number of intervals.
func (c Collection) Len() int { return len(c.begins) }

// IsEmpty returns whether the collection has no intervals, in which case it maps every
// position to itself.
func (c Collection) IsEmpty() bool { return len(c.begins) == 0 }

// Intervals returns a copy of the intervals, sorted by (Begin, End).
func (c Collection) Intervals() []Interval {
	out := make([]Interval, len(c.begins))
	for i := range out {
		out[i] = Interval{Begin: c.begins[i], End: c.ends[i], Delta: c.deltas[i]}
	}
	return out
}

// Begins returns a copy of the interval begins.
func (c Collection) Begins() []int { return clone(c.begins) }

// Ends returns a copy of the interval ends.
func (c Collection) Ends() []int { return clone(c.ends) }

// Deltas returns a copy of the per-interval deltas.
func (c Collection) Deltas() []int { return clone(c.deltas) }

// Absolute returns the deltas as running totals, the inverse of FromAbsolute.
func (c Collection) Absolute() []int {
	out := make([]int, len(c.deltas))
	sum := 0
	for i, d := range c.deltas {
		sum += d
		out[i] = sum
	}
	return out
}

// Apply maps a position of the pre-edit text to the post-edit text.
//
// Positions outside every interval are shifted by the deltas of the intervals ending at or
// before them. A position strictly inside an edited region no longer has a 1:1 counterpart;
// it lands on the start (Left) or the end (Right) of the rewritten region. For nested
// regions, the outermost one is used.
func (c Collection) Apply(pos int, side Side) int {
	if c.fwd == nil {
		return pos
	}
	i, inside := c.fwd.container(pos)
	if !inside {
		return pos + c.fwd.shiftThrough(pos)
	}
	if side == Left {
		b := c.begins[i]
		return b + c.fwd.shiftThrough(b)
	}
	// The region's end, not counting text inserted right after it.
	e := c.ends[i]
	return e + c.fwd.shiftThrough(e) - c.fwd.insertedAt(e)
}

// Unapply maps a position of the post-edit text back to the pre-edit text. It is the inverse
// of Apply: Unapply(Apply(p, side), side) == p for every p not strictly inside an edited
// region, as long as the region was not replaced by an empty string.
//
// A position strictly inside a rewritten region lands on the original start (Left) or end
// (Right) of that region.
func (c Collection) Unapply(pos int, side Side) int {
	if c.bwd == nil {
		return pos
	}
	i, inside := c.bwd.container(pos)
	if !inside {
		return pos - c.bwd.shiftThrough(pos)
	}
	if side == Left {
		return c.begins[i]
	}
	return c.ends[i]
}

// ApplyAll maps every position with Apply, returning a new slice.
func (c Collection) ApplyAll(positions []int, side Side) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = c.Apply(p, side)
	}
	return out
}

// UnapplyAll maps every position with Unapply, returning a new slice.
func (c Collection) UnapplyAll(positions []int, side Side) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = c.Unapply(p, side)
	}
	return out
}

// Compose returns the collection equivalent to applying c and then next, expressed in the
// coordinates of the text before c.
//
// The intervals of next are brought back to c's pre-edit coordinates with Unapply (begins with
// Left, ends with Right) and merged with c's own. Composition is associative but not
// commutative. Neither operand is modified.
func (c Collection) Compose(next Collection) (Collection, error) {
	if c.IsEmpty() {
		return next, nil
	}
	if next.IsEmpty() {
		return c, nil
	}
	n := c.Len() + next.Len()
	begins := make([]int, 0, n)
	ends := make([]int, 0, n)
	deltas := make([]int, 0, n)
	begins = append(begins, c.begins...)
	ends = append(ends, c.ends...)
	deltas = append(deltas, c.deltas...)
	for i := range next.begins {
		begins = append(begins, c.Unapply(next.begins[i], Left))
		ends = append(ends, c.Unapply(next.ends[i], Right))
		deltas = append(deltas, next.deltas[i])
	}
	composed, err := build(begins, ends, deltas)
	if err != nil {
		return Collection{}, errors.WithMessagef(err, "composing %d intervals onto %d", next.Len(), c.Len())
	}
	return composed, nil
}

// Equal reports whether both collections hold the same intervals in the same order.
func (c Collection) Equal(other Collection) bool {
	if c.Len() != other.Len() {
		return false
	}
	for i := range c.begins {
		if c.begins[i] != other.begins[i] || c.ends[i] != other.ends[i] || c.deltas[i] != other.deltas[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (c Collection) String() string {
	var sb strings.Builder
	sb.WriteString("Collection{")
	for i := range c.begins {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Interval{Begin: c.begins[i], End: c.ends[i], Delta: c.deltas[i]}.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

func clone(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}
