package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/store"
)

func seedTree(t *testing.T, keys []float64) (*Tree, store.Store) {
	t.Helper()
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	for _, k := range keys {
		_, _, err := tr.Set(k, k*10, Insert)
		require.NoError(t, err)
	}
	return tr, st
}

func TestGetAbsentKey(t *testing.T) {
	tr, _ := seedTree(t, []float64{1, 2, 3})
	_, ok, err := tr.Get(99)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetOnEmptyTree(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	_, ok, err := tr.Get(1.0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRangeEachBoundsInclusive(t *testing.T) {
	tr, _ := seedTree(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	lower := common.Value(3.0)
	upper := common.Value(7.0)

	var got []float64
	err := tr.RangeEach(&lower, &upper, func(k, v common.Value) error {
		got = append(got, k.(float64))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []float64{3, 4, 5, 6, 7}, got)
}

func TestRangeEachUnboundedBothSides(t *testing.T) {
	tr, _ := seedTree(t, []float64{5, 1, 3, 2, 4})
	var got []float64
	err := tr.RangeEach(nil, nil, func(k, v common.Value) error {
		got = append(got, k.(float64))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4, 5}, got)
}

func TestRangeEachBreakStopsEarly(t *testing.T) {
	tr, _ := seedTree(t, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	var got []float64
	err := tr.RangeEach(nil, nil, func(k, v common.Value) error {
		got = append(got, k.(float64))
		if k.(float64) == 3 {
			return common.ErrBreak
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, got)
}

func TestRangeEachPropagatesCallbackError(t *testing.T) {
	tr, _ := seedTree(t, []float64{1, 2, 3})
	boom := require.New(t)
	sentinelErr := &boomError{}
	err := tr.RangeEach(nil, nil, func(k, v common.Value) error {
		return sentinelErr
	})
	boom.ErrorIs(err, sentinelErr)
}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
