package dml

import (
	"context"
	"fmt"

	"github.com/kasuganosora/dmlexec/pkg/mvcc"
	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// Predicate evaluates a WHERE clause against one row. Per spec.md §4.3 both
// a NULL and a FALSE result mean "skip this row"; implementations fold that
// three-valued logic down to the bool return themselves.
type Predicate func(row domain.Row) (bool, error)

// RowLocker attempts to lock one row for the duration of the statement.
// A (nil, nil) result means the row has vanished or been locked away under
// the current snapshot and must be skipped; a non-nil row that differs from
// the cached copy means the caller raced a concurrent writer and the
// predicate must be re-evaluated against the fresher copy.
type RowLocker func(ctx context.Context, row domain.Row) (domain.Row, error)

// CancelChecker is invoked every CancelCheckInterval rows; a non-nil error
// aborts the scan.
type CancelChecker func(ctx context.Context) error

// FilteredScan is a one-pass cursor over a materialized candidate row set,
// applying WHERE, FETCH FIRST n ROWS, per-row locking with predicate
// re-evaluation, and periodic cancellation checks, per spec.md §4.3.
type FilteredScan struct {
	ctx       context.Context
	rows      []domain.Row
	pos       int
	predicate Predicate
	lock      RowLocker
	fetch     int64 // -1 means unbounded
	returned  int64
	cancel    CancelChecker
	interval  int
	visited   int
}

// NewFilteredScan builds a scan over an already-fetched candidate set
// (typically the result of domain.DataSource.Query with whatever filters
// were pushed down). predicate re-applies the full WHERE expression as a
// residual check; lock and cancel may be nil, in which case those steps are
// skipped.
func NewFilteredScan(ctx context.Context, rows []domain.Row, predicate Predicate, lock RowLocker, fetch *int64, cancel CancelChecker, interval int) (*FilteredScan, error) {
	n := int64(-1)
	if fetch != nil {
		if *fetch < 0 {
			return nil, NewErrInvalidValue("FETCH FIRST", "fetch count must be non-negative")
		}
		n = *fetch
	}
	if interval <= 0 {
		interval = DefaultConfig().CancelCheckInterval
	}
	return &FilteredScan{
		ctx: ctx, rows: rows, predicate: predicate, lock: lock,
		fetch: n, cancel: cancel, interval: interval,
	}, nil
}

// Next returns the next row that survives the predicate, locking and fetch
// limit, or ok=false once the scan is exhausted.
func (s *FilteredScan) Next() (domain.Row, bool, error) {
	for {
		if s.fetch >= 0 && s.returned >= s.fetch {
			return nil, false, nil
		}
		if s.pos >= len(s.rows) {
			return nil, false, nil
		}
		row := s.rows[s.pos]
		s.pos++
		s.visited++

		if s.cancel != nil && s.interval > 0 && s.visited%s.interval == 0 {
			if err := s.cancel(s.ctx); err != nil {
				return nil, false, err
			}
		}

		if s.predicate != nil {
			keep, err := s.predicate(row)
			if err != nil {
				return nil, false, err
			}
			if !keep {
				continue
			}
		}

		if s.lock != nil {
			locked, err := s.lock(s.ctx, row)
			if err != nil {
				return nil, false, err
			}
			if locked == nil {
				continue // vanished under snapshot
			}
			if !sharedDataEqual(row, locked) {
				row = locked
				if s.predicate != nil {
					keep, err := s.predicate(row)
					if err != nil {
						return nil, false, err
					}
					if !keep {
						continue
					}
				}
			}
		}

		s.returned++
		return row, true, nil
	}
}

// sharedDataEqual compares row snapshots via fmt.Sprint rather than Go
// equality: array-typed columns land here as []interface{}, which panics
// on == comparison. Mirrors row_assembly.go's rowsEqual.
func sharedDataEqual(a, b domain.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok {
			return false
		}
		if fmt.Sprint(v) != fmt.Sprint(ov) {
			return false
		}
	}
	return true
}

// MVCCRowLocker adapts pkg/mvcc's snapshot-visibility model into a
// RowLocker: it wraps each candidate row as a mvcc.TupleVersion against the
// statement's snapshot and re-fetches the current storage row when the
// cached copy is no longer visible, which is FilteredScan's "Some(locked)
// differs" path. Rows whose tuple is no longer visible under the snapshot
// (deleted-and-committed concurrently) report vanished.
type MVCCRowLocker struct {
	Snapshot *mvcc.Snapshot
	Refetch  func(ctx context.Context, row domain.Row) (domain.Row, *mvcc.TupleVersion, bool, error)
	checker  *mvcc.VisibilityChecker
}

// NewMVCCRowLocker builds a RowLocker bound to one transaction's snapshot.
// refetch re-reads the current row (and its tuple version) from the
// underlying source by whatever key the source uses; it reports found=false
// when the row no longer exists at all.
func NewMVCCRowLocker(snapshot *mvcc.Snapshot, refetch func(ctx context.Context, row domain.Row) (domain.Row, *mvcc.TupleVersion, bool, error)) *MVCCRowLocker {
	return &MVCCRowLocker{Snapshot: snapshot, Refetch: refetch, checker: mvcc.NewVisibilityChecker()}
}

// Lock implements RowLocker.
func (l *MVCCRowLocker) Lock(ctx context.Context, row domain.Row) (domain.Row, error) {
	current, tuple, found, err := l.Refetch(ctx, row)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if tuple != nil && !l.checker.Check(tuple, l.Snapshot) {
		return nil, nil
	}
	return current, nil
}
