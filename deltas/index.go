package deltas

import "sort"

// index answers the two queries position mapping needs over one coordinate space:
// the summed delta of every interval ending at or before a position, and the outermost
// interval strictly containing a position.
//
// begins must be non-decreasing. ends may be in any order.
type index struct {
	begins, ends []int
	deltas       []int

	// tieBegins and tieEnds break ties between intervals whose ends coincide in this
	// coordinate space: the one with the smaller tieBegin (then larger tieEnd) wins.
	// For the forward index they are begins and ends themselves, for the backward index
	// they are the original (pre-edit) boundaries.
	tieBegins, tieEnds []int

	// outer[i] is, among intervals 0..i, the one reaching furthest right.
	outer []int

	// endKeys holds the ends in ascending order and endSums[k] the sum of the deltas of the
	// first k of them.
	endKeys []int
	endSums []int
}

func newIndex(begins, ends, deltas, tieBegins, tieEnds []int) *index {
	n := len(begins)
	ix := &index{
		begins:    begins,
		ends:      ends,
		deltas:    deltas,
		tieBegins: tieBegins,
		tieEnds:   tieEnds,
		outer:     make([]int, n),
		endKeys:   make([]int, n),
		endSums:   make([]int, n+1),
	}
	for i := range n {
		ix.outer[i] = i
		if i > 0 && !ix.reachesFurther(i, ix.outer[i-1]) {
			ix.outer[i] = ix.outer[i-1]
		}
	}

	byEnd := make([]int, n)
	for i := range byEnd {
		byEnd[i] = i
	}
	sort.SliceStable(byEnd, func(a, b int) bool { return ends[byEnd[a]] < ends[byEnd[b]] })
	for k, i := range byEnd {
		ix.endKeys[k] = ends[i]
		ix.endSums[k+1] = ix.endSums[k] + deltas[i]
	}
	return ix
}

// reachesFurther reports whether interval i should replace interval j as the outermost.
func (ix *index) reachesFurther(i, j int) bool {
	if ix.ends[i] != ix.ends[j] {
		return ix.ends[i] > ix.ends[j]
	}
	if ix.tieBegins[i] != ix.tieBegins[j] {
		return ix.tieBegins[i] < ix.tieBegins[j]
	}
	return ix.tieEnds[i] > ix.tieEnds[j]
}

// shiftThrough returns the summed delta of the intervals with end <= pos.
func (ix *index) shiftThrough(pos int) int {
	k := sort.SearchInts(ix.endKeys, pos+1)
	return ix.endSums[k]
}

// container returns the outermost interval with begin < pos < end.
func (ix *index) container(pos int) (int, bool) {
	k := sort.SearchInts(ix.begins, pos)
	if k == 0 {
		return 0, false
	}
	i := ix.outer[k-1]
	if ix.ends[i] <= pos {
		return 0, false
	}
	return i, true
}

// insertedAt returns the summed delta of empty intervals [pos, pos), which are pure
// insertions at pos.
func (ix *index) insertedAt(pos int) int {
	sum := 0
	for i := sort.SearchInts(ix.begins, pos); i < len(ix.begins) && ix.begins[i] == pos; i++ {
		if ix.ends[i] == pos {
			sum += ix.deltas[i]
		}
	}
	return sum
}
