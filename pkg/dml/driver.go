package dml

import (
	"context"
	"time"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// OpKind names the DML operation a Driver run performs, for permission
// checks and trigger dispatch.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// RowPair is one candidate change: Old is nil for INSERT, New is nil for
// DELETE, both are set for UPDATE.
type RowPair struct {
	Old domain.Row
	New domain.Row
}

// WriteLocker acquires whatever table-level lock the statement needs
// before touching any row; release must always be called, including on
// error, which Driver.Run guarantees via defer.
type WriteLocker func(ctx context.Context, table string) (release func(), err error)

// NoWriteLock is a WriteLocker for data sources with no table-level
// locking primitive of their own.
func NoWriteLock(ctx context.Context, table string) (func(), error) {
	return func() {}, nil
}

// PermissionChecker vets the statement before anything else runs. A nil
// checker means permission is assumed granted, matching data sources with
// no access-control layer.
type PermissionChecker func(ctx context.Context, table string, kind OpKind) error

// CancelChecker (re-exported here under the Driver's own name for clarity)
// is invoked periodically during both scanning and apply; see scan.go.

// StatementTrace is what stop_timer()/trace(affected_rows) leaves behind
// for the caller, mirroring the session's own StartTime/LastUsed
// bookkeeping convention (pkg/session/core.go) rather than a bespoke
// metrics type.
type StatementTrace struct {
	AffectedRows int64
	Duration     time.Duration
}

// Driver implements spec.md §4.6: the top-level INSERT/UPDATE/DELETE
// execution contract that ties FilteredScan, RowAssembler, DupKeyHandler,
// DeltaCollector and TriggerSet together around one atomic buffered apply.
type Driver struct {
	ds         domain.DataSource
	table      string
	meta       TableMeta
	triggers   *TriggerSet
	delta      *DeltaCollector
	config     Config
	lock       WriteLocker
	permission PermissionChecker
	cancel     CancelChecker
}

// NewDriver builds a driver for one table. lock/permission/cancel may be
// nil, in which case they are treated as always-succeed no-ops.
func NewDriver(ds domain.DataSource, table string, meta TableMeta, triggers *TriggerSet, delta *DeltaCollector, config Config, lock WriteLocker, permission PermissionChecker, cancel CancelChecker) *Driver {
	if lock == nil {
		lock = NoWriteLock
	}
	return &Driver{
		ds: ds, table: table, meta: meta, triggers: triggers, delta: delta,
		config: config, lock: lock, permission: permission, cancel: cancel,
	}
}

// insertDup, when set, routes the INSERT apply phase through ON DUPLICATE
// KEY UPDATE / INSERT IGNORE handling instead of a bare add_row. Only
// meaningful when kind is OpInsert.
type RunOptions struct {
	Kind      OpKind
	InsertDup *DupKeyHandler
}

// Run executes the full BEFORE_STATEMENT -> per-row veto buffering ->
// apply -> AFTER_ROW/FINAL -> AFTER_STATEMENT pipeline over an already
// produced candidate row stream. candidates yields (old, new) pairs one at
// a time; for INSERT, old is always nil and new is already a fully
// assembled row (RowAssembler.BuildInsertRow already ran); for UPDATE, both
// are set; for DELETE, new is always nil.
func (d *Driver) Run(ctx context.Context, opts RunOptions, candidates func() (RowPair, bool, error)) (StatementTrace, error) {
	start := time.Now()
	trace := StatementTrace{}

	if d.permission != nil {
		if err := d.permission(ctx, d.table, opts.Kind); err != nil {
			return trace, err
		}
	}

	if !d.fireStatement(ctx, TriggerBefore, opts.Kind) {
		return trace, &ErrInvalidValue{ColumnName: d.table, Reason: "statement vetoed by BEFORE trigger"}
	}

	release, err := d.lock(ctx, d.table)
	if err != nil {
		return trace, err
	}
	defer release()

	var buffered []RowPair
	visited := 0
	for {
		pair, ok, err := candidates()
		if err != nil {
			return trace, err
		}
		if !ok {
			break
		}
		visited++
		if d.cancel != nil && d.config.CancelCheckInterval > 0 && visited%d.config.CancelCheckInterval == 0 {
			if err := d.cancel(ctx); err != nil {
				return trace, err
			}
		}

		if err := d.delta.EmitOld(pair.Old); err != nil {
			return trace, err
		}

		vetoed, err := d.fireRow(ctx, TriggerBefore, opts.Kind, pair.Old, pair.New)
		if err != nil {
			return trace, err
		}
		if vetoed {
			continue
		}
		buffered = append(buffered, pair)

		if err := d.delta.EmitNew(pair.New); err != nil {
			return trace, err
		}
	}

	outcomes, err := d.apply(ctx, opts, buffered)
	if err != nil {
		return trace, err
	}

	for i, pair := range buffered {
		if outcomes[i] == OutcomeSkipped {
			continue
		}
		final := pair.New
		if opts.Kind == OpDelete {
			final = pair.Old
		}
		if err := d.delta.EmitFinal(final); err != nil {
			return trace, err
		}
		if _, err := d.fireRow(ctx, TriggerAfter, opts.Kind, pair.Old, pair.New); err != nil {
			return trace, err
		}
		trace.AffectedRows++
		if opts.Kind == OpInsert && outcomes[i] == OutcomeUpdated && d.config.DuplicateKeyUpdateCountsAsTwo {
			trace.AffectedRows++
		}
	}

	// AFTER_STATEMENT always runs; there is nothing left to veto at this
	// point, so its bool return is discarded.
	d.fireStatement(ctx, TriggerAfter, opts.Kind)

	trace.Duration = time.Since(start)
	return trace, nil
}

// apply performs the actual storage mutation for the whole buffered batch:
// DELETE removes each row, INSERT adds each row (through DupKeyHandler when
// supplied), UPDATE rewrites each row by its primary key. Returns one
// InsertOutcome per buffered index; OutcomeInserted/OutcomeUpdated both
// count as applied for UPDATE/DELETE, OutcomeSkipped means an INSERT IGNORE
// row that never touched storage.
func (d *Driver) apply(ctx context.Context, opts RunOptions, buffered []RowPair) ([]InsertOutcome, error) {
	outcomes := make([]InsertOutcome, len(buffered))

	switch opts.Kind {
	case OpDelete:
		pk := storageKeyColumn(d.meta.Info())
		for i, pair := range buffered {
			var filters []domain.Filter
			if pk != "" {
				filters = []domain.Filter{{Field: pk, Operator: "=", Value: pair.Old[pk]}}
			} else {
				filters = rowEqualityFilters(pair.Old)
			}
			if _, err := d.ds.Delete(ctx, d.table, filters, &domain.DeleteOptions{}); err != nil {
				return nil, err
			}
			outcomes[i] = OutcomeInserted // "applied", kind is irrelevant for DELETE
		}

	case OpInsert:
		for i, pair := range buffered {
			if opts.InsertDup != nil {
				outcome, _, err := opts.InsertDup.Attempt(ctx, pair.New)
				if err != nil {
					return nil, err
				}
				outcomes[i] = outcome
				continue
			}
			if _, err := d.ds.Insert(ctx, d.table, []domain.Row{pair.New}, &domain.InsertOptions{}); err != nil {
				return nil, err
			}
			outcomes[i] = OutcomeInserted
		}

	case OpUpdate:
		pk := storageKeyColumn(d.meta.Info())
		for i, pair := range buffered {
			var filters []domain.Filter
			if pk != "" {
				filters = []domain.Filter{{Field: pk, Operator: "=", Value: pair.Old[pk]}}
			} else {
				filters = rowEqualityFilters(pair.Old)
			}
			if _, err := d.ds.Update(ctx, d.table, filters, pair.New, &domain.UpdateOptions{}); err != nil {
				return nil, err
			}
			outcomes[i] = OutcomeUpdated
		}
	}

	return outcomes, nil
}

func (d *Driver) fireStatement(ctx context.Context, timing TriggerTiming, kind OpKind) bool {
	for _, t := range d.triggers.At(timing, TriggerStatement, kindToEvent(kind)) {
		ok, err := t.Fire(ctx, nil, nil)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// fireRow fires every row-level trigger registered at timing/kind in
// registration order; the first veto short-circuits the rest, matching
// spec.md's "truthy return = do not apply" semantics for BEFORE_ROW.
func (d *Driver) fireRow(ctx context.Context, timing TriggerTiming, kind OpKind, old, new domain.Row) (vetoed bool, err error) {
	for _, t := range d.triggers.At(timing, TriggerRow, kindToEvent(kind)) {
		ok, err := t.Fire(ctx, old, new)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
	}
	return false, nil
}

func kindToEvent(kind OpKind) TriggerEvent {
	switch kind {
	case OpInsert:
		return TriggerInsert
	case OpDelete:
		return TriggerDelete
	default:
		return TriggerUpdate
	}
}
