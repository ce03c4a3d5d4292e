package deltas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenAndGroup(t *testing.T) {
	c := fooBar(t)
	table := Flatten("d1", c)
	assert.Equal(t, Table{
		{DocID: "d1", Begin: 0, End: 3, Delta: -2},
		{DocID: "d1", Begin: 8, End: 11, Delta: -2},
	}, table)

	// Rows of different documents interleaved and out of order.
	table = Table{
		{DocID: "d1", Begin: 8, End: 11, Delta: -2},
		{DocID: "d2", Begin: 4, End: 5, Delta: 3},
		{DocID: "d1", Begin: 0, End: 3, Delta: -2},
	}
	idx, err := table.Group()
	require.NoError(t, err)
	require.Len(t, idx, 2)
	assert.True(t, idx["d1"].Equal(c))
	assert.Equal(t, 9, idx["d2"].Apply(6, Left))

	flat := append(Flatten("d1", idx["d1"]), Flatten("d2", idx["d2"])...)
	assert.Equal(t, Table{
		{DocID: "d1", Begin: 0, End: 3, Delta: -2},
		{DocID: "d1", Begin: 8, End: 11, Delta: -2},
		{DocID: "d2", Begin: 4, End: 5, Delta: 3},
	}, flat)
}

func TestGroupMalformed(t *testing.T) {
	table := Table{
		{DocID: "ok", Begin: 0, End: 1, Delta: 1},
		{DocID: "bad", Begin: 0, End: 5, Delta: 1},
		{DocID: "bad", Begin: 3, End: 8, Delta: 1},
	}
	_, err := table.Group()
	require.ErrorIs(t, err, ErrMalformedIntervals)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestTableSortAndDocuments(t *testing.T) {
	table := Table{
		{DocID: "b", Begin: 5, End: 6},
		{DocID: "a", Begin: 3, End: 4},
		{DocID: "b", Begin: 1, End: 2},
	}
	assert.Equal(t, []string{"b", "a"}, table.Documents())
	table.Sort()
	assert.Equal(t, Table{
		{DocID: "a", Begin: 3, End: 4},
		{DocID: "b", Begin: 1, End: 2},
		{DocID: "b", Begin: 5, End: 6},
	}, table)
}
