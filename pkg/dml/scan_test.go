package dml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/dmlexec/pkg/mvcc"
	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

func scanRows(ids ...int64) []domain.Row {
	rows := make([]domain.Row, len(ids))
	for i, id := range ids {
		rows[i] = domain.Row{"id": id}
	}
	return rows
}

func evenPredicate(row domain.Row) (bool, error) {
	return row["id"].(int64)%2 == 0, nil
}

// TestFilteredScan_PredicateAndFetch covers the WHERE residual plus FETCH
// FIRST n ROWS interaction: only rows passing the predicate count toward
// the fetch limit, and the scan stops as soon as the limit is reached even
// though more candidate rows remain.
func TestFilteredScan_PredicateAndFetch(t *testing.T) {
	rows := scanRows(1, 2, 3, 4, 5, 6, 7, 8)
	fetch := int64(2)
	scan, err := NewFilteredScan(context.Background(), rows, evenPredicate, nil, &fetch, nil, 0)
	require.NoError(t, err)

	var got []int64
	for {
		row, ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row["id"].(int64))
	}
	assert.Equal(t, []int64{2, 4}, got)
}

// TestFilteredScan_UnboundedFetch covers a nil fetch pointer (no FETCH
// FIRST clause): every row passing the predicate is returned.
func TestFilteredScan_UnboundedFetch(t *testing.T) {
	rows := scanRows(1, 2, 3, 4)
	scan, err := NewFilteredScan(context.Background(), rows, evenPredicate, nil, nil, nil, 0)
	require.NoError(t, err)

	var got []int64
	for {
		row, ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row["id"].(int64))
	}
	assert.Equal(t, []int64{2, 4}, got)
}

// TestNewFilteredScan_RejectsNegativeFetch covers the construction-time
// validation of a negative FETCH FIRST count.
func TestNewFilteredScan_RejectsNegativeFetch(t *testing.T) {
	fetch := int64(-1)
	_, err := NewFilteredScan(context.Background(), nil, nil, nil, &fetch, nil, 0)
	require.Error(t, err)
	var invalid *ErrInvalidValue
	assert.ErrorAs(t, err, &invalid)
}

// TestFilteredScan_LockerVanishedRowSkipped covers a RowLocker reporting a
// row has vanished under the statement's snapshot: Next silently moves on
// to the next candidate instead of returning it.
func TestFilteredScan_LockerVanishedRowSkipped(t *testing.T) {
	rows := scanRows(1, 2, 3)
	locker := func(ctx context.Context, row domain.Row) (domain.Row, error) {
		if row["id"].(int64) == 2 {
			return nil, nil
		}
		return row, nil
	}
	scan, err := NewFilteredScan(context.Background(), rows, nil, locker, nil, nil, 0)
	require.NoError(t, err)

	var got []int64
	for {
		row, ok, err := scan.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row["id"].(int64))
	}
	assert.Equal(t, []int64{1, 3}, got)
}

// TestFilteredScan_LockerChangedRowRePredicates covers the race path: the
// locker returns a row whose data differs from the cached copy, forcing
// the predicate to be re-evaluated against the fresher data. A row that
// used to pass the predicate but no longer does under the fresh copy is
// skipped.
func TestFilteredScan_LockerChangedRowRePredicates(t *testing.T) {
	rows := []domain.Row{{"id": int64(1), "v": int64(10)}}
	locker := func(ctx context.Context, row domain.Row) (domain.Row, error) {
		return domain.Row{"id": int64(1), "v": int64(999)}, nil
	}
	predicate := func(row domain.Row) (bool, error) {
		return row["v"].(int64) < 100, nil
	}
	scan, err := NewFilteredScan(context.Background(), rows, predicate, locker, nil, nil, 0)
	require.NoError(t, err)

	_, ok, err := scan.Next()
	require.NoError(t, err)
	assert.False(t, ok, "fresher copy fails the re-evaluated predicate")
}

// TestFilteredScan_LockerReturnsArrayColumn_NoPanic covers a row carrying
// an array-typed column (the shape evalArrayUpdate produces) coming back
// from a concurrent lock with a value equal to the cached copy: comparing
// them must not panic on uncomparable []interface{} and, since the data is
// unchanged, the predicate must not be re-evaluated.
func TestFilteredScan_LockerReturnsArrayColumn_NoPanic(t *testing.T) {
	rows := []domain.Row{{"id": int64(1), "tags": []interface{}{"a", "b"}}}
	locker := func(ctx context.Context, row domain.Row) (domain.Row, error) {
		return domain.Row{"id": int64(1), "tags": []interface{}{"a", "b"}}, nil
	}
	predicateCalls := 0
	predicate := func(row domain.Row) (bool, error) {
		predicateCalls++
		return true, nil
	}

	scan, err := NewFilteredScan(context.Background(), rows, predicate, locker, nil, nil, 0)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		row, ok, err := scan.Next()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []interface{}{"a", "b"}, row["tags"])
	})
	assert.Equal(t, 1, predicateCalls, "unchanged array data is not re-predicated")
}

// TestFilteredScan_CancelCheckerAborts covers periodic cancellation: a
// non-nil error from the checker aborts the scan with that error.
func TestFilteredScan_CancelCheckerAborts(t *testing.T) {
	rows := scanRows(1, 2, 3, 4)
	cancelErr := assert.AnError
	cancel := func(ctx context.Context) error {
		return cancelErr
	}
	scan, err := NewFilteredScan(context.Background(), rows, nil, nil, nil, cancel, 1)
	require.NoError(t, err)

	_, _, err = scan.Next()
	assert.ErrorIs(t, err, cancelErr)
}

// TestMVCCRowLocker_VisibleRowReturned covers the common case: a tuple
// still visible under the transaction's snapshot is returned unchanged.
func TestMVCCRowLocker_VisibleRowReturned(t *testing.T) {
	snapshot := mvcc.NewSnapshot(mvcc.XID(2), mvcc.XID(2), nil, mvcc.ReadCommitted)
	current := domain.Row{"id": int64(1)}
	tuple := mvcc.NewTupleVersion(current, mvcc.XID(1))

	rl := NewMVCCRowLocker(snapshot, func(ctx context.Context, row domain.Row) (domain.Row, *mvcc.TupleVersion, bool, error) {
		return current, tuple, true, nil
	})

	got, err := rl.Lock(context.Background(), domain.Row{"id": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, current, got)
}

// TestMVCCRowLocker_DeletedTupleVanishes covers a concurrently-deleted row:
// the tuple is no longer visible under the snapshot, so the locker reports
// it as vanished.
func TestMVCCRowLocker_DeletedTupleVanishes(t *testing.T) {
	snapshot := mvcc.NewSnapshot(mvcc.XID(2), mvcc.XID(2), nil, mvcc.ReadCommitted)
	current := domain.Row{"id": int64(1)}
	tuple := mvcc.NewTupleVersion(current, mvcc.XID(1))
	tuple.MarkDeleted(mvcc.XID(1), 0)

	rl := NewMVCCRowLocker(snapshot, func(ctx context.Context, row domain.Row) (domain.Row, *mvcc.TupleVersion, bool, error) {
		return current, tuple, true, nil
	})

	got, err := rl.Lock(context.Background(), domain.Row{"id": int64(1)})
	require.NoError(t, err)
	assert.Nil(t, got)
}

// TestMVCCRowLocker_NotFoundVanishes covers a row that no longer exists at
// all in the underlying source.
func TestMVCCRowLocker_NotFoundVanishes(t *testing.T) {
	snapshot := mvcc.NewSnapshot(mvcc.XID(2), mvcc.XID(2), nil, mvcc.ReadCommitted)
	rl := NewMVCCRowLocker(snapshot, func(ctx context.Context, row domain.Row) (domain.Row, *mvcc.TupleVersion, bool, error) {
		return nil, nil, false, nil
	})

	got, err := rl.Lock(context.Background(), domain.Row{"id": int64(1)})
	require.NoError(t, err)
	assert.Nil(t, got)
}
