package dml

import (
	"context"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// DupKeyMode selects how DupKeyHandler reacts to a unique-constraint
// conflict on insert.
type DupKeyMode int

const (
	// DupKeyRethrow is plain INSERT: any conflict propagates as
	// ErrDuplicateKey.
	DupKeyRethrow DupKeyMode = iota
	// DupKeyIgnore is MySQL's INSERT IGNORE / Postgres's ON CONFLICT DO
	// NOTHING: a conflicting row is silently skipped.
	DupKeyIgnore
	// DupKeyUpdate is ON DUPLICATE KEY UPDATE: a conflicting row is
	// rewritten via the attached SetClauseList instead of inserted.
	DupKeyUpdate
)

// InsertOutcome reports what DupKeyHandler actually did with one candidate
// row.
type InsertOutcome int

const (
	OutcomeInserted InsertOutcome = iota
	OutcomeSkipped
	OutcomeUpdated
)

// DupKeyHandler implements spec.md §4.4: attempt the insert; on a
// unique-constraint conflict, dispatch to IGNORE / ON DUPLICATE KEY UPDATE /
// rethrow. domain.DataSource has no native conflict signal, so the conflict
// check is performed up front against the table's unique indexes
// (NewTableMeta), the same shape as pkg/resource/memory/mutation.go's
// checkUniqueConstraints, reimplemented here against domain.Row directly.
type DupKeyHandler struct {
	ds        domain.DataSource
	table     string
	meta      TableMeta
	assembler *RowAssembler
	mode      DupKeyMode
	onDup     *SetClauseList
	eval      ExprEval
	driver    *Driver
}

// NewDupKeyHandler builds a handler for one INSERT statement. onDup is only
// consulted when mode is DupKeyUpdate. driver is the same Driver running the
// enclosing INSERT; DupKeyUpdate rewrites a conflicting row by recursing
// into it with a fresh single-row UPDATE statement (spec.md §9) so the
// rewrite fires BEFORE/AFTER UPDATE row triggers and OLD/NEW/FINAL deltas
// exactly as a standalone UPDATE would, rather than writing straight to the
// data source.
func NewDupKeyHandler(ds domain.DataSource, table string, meta TableMeta, assembler *RowAssembler, mode DupKeyMode, onDup *SetClauseList, eval ExprEval, driver *Driver) *DupKeyHandler {
	return &DupKeyHandler{ds: ds, table: table, meta: meta, assembler: assembler, mode: mode, onDup: onDup, eval: eval, driver: driver}
}

// Attempt tries to add row to the table, resolving a conflict per h.mode.
// The returned row is the row image that actually ended up in storage (the
// inserted row, or the rewritten row for DupKeyUpdate); it is nil for
// OutcomeSkipped.
func (h *DupKeyHandler) Attempt(ctx context.Context, row domain.Row) (InsertOutcome, domain.Row, error) {
	conflict, idx, found, err := h.findConflict(ctx, row)
	if err != nil {
		return OutcomeInserted, nil, err
	}

	if !found {
		if _, err := h.ds.Insert(ctx, h.table, []domain.Row{row}, &domain.InsertOptions{}); err != nil {
			return OutcomeInserted, nil, err
		}
		return OutcomeInserted, row, nil
	}

	switch h.mode {
	case DupKeyIgnore:
		return OutcomeSkipped, nil, nil

	case DupKeyUpdate:
		return h.rewriteAsUpdate(ctx, conflict, row)

	default:
		return OutcomeInserted, nil, h.duplicateKeyError(idx, conflict, row)
	}
}

// rewriteAsUpdate synthesizes an UPDATE of the violating row, using the
// insert's source row as EvalContext.Source so ON DUPLICATE KEY UPDATE
// expressions can reference the attempted values, then hands it to the
// enclosing Driver as a fresh one-row child statement (spec.md §9) instead
// of writing straight to the data source: the recursive Driver.Run call
// fires the UPDATE's own BEFORE/AFTER row triggers and OLD/NEW/FINAL
// deltas, and applies the row by primary key the same way a standalone
// UPDATE statement would.
func (h *DupKeyHandler) rewriteAsUpdate(ctx context.Context, conflict, attempted domain.Row) (InsertOutcome, domain.Row, error) {
	engine := NewSetClauseEngine(EvalContext{Ctx: ctx, Old: conflict, Source: attempted, Table: h.meta.Info()}, h.eval)
	newRow, _, err := h.assembler.BuildUpdateRow(conflict, h.onDup, engine, true)
	if err != nil {
		return OutcomeInserted, nil, err
	}

	sent := false
	trace, err := h.driver.Run(ctx, RunOptions{Kind: OpUpdate}, func() (RowPair, bool, error) {
		if sent {
			return RowPair{}, false, nil
		}
		sent = true
		return RowPair{Old: conflict, New: newRow}, true, nil
	})
	if err != nil {
		return OutcomeInserted, nil, err
	}
	if trace.AffectedRows == 0 {
		// a BEFORE UPDATE row trigger vetoed the rewrite.
		return OutcomeSkipped, nil, nil
	}
	return OutcomeUpdated, newRow, nil
}

// findConflict looks for an existing row that would collide with row on any
// of the table's unique indexes. An index is only checked when every one of
// its columns is present and non-NULL in row, matching SQL's NULL-never-
// conflicts uniqueness semantics.
func (h *DupKeyHandler) findConflict(ctx context.Context, row domain.Row) (domain.Row, UniqueIndex, bool, error) {
	for _, idx := range h.meta.UniqueIndexes() {
		filters, ok := indexEqualityFiltersChecked(idx.Columns, row)
		if !ok {
			continue
		}
		result, err := h.ds.Query(ctx, h.table, &domain.QueryOptions{Filters: filters, Limit: 1})
		if err != nil {
			return nil, idx, false, err
		}
		if len(result.Rows) > 0 {
			return result.Rows[0], idx, true, nil
		}
	}
	return nil, UniqueIndex{}, false, nil
}

// indexedColumns chooses the lookup column set per spec.md §4.4: a
// single-column clustered primary key if that's what conflicted, otherwise
// the full ordered index-column list. idx may be nil, in which case the
// table's primary key is used.
func (h *DupKeyHandler) indexedColumns(idx *UniqueIndex) []string {
	if idx != nil && len(idx.Columns) > 0 {
		return idx.Columns
	}
	for _, u := range h.meta.UniqueIndexes() {
		if u.Primary {
			return u.Columns
		}
	}
	if len(h.meta.UniqueIndexes()) > 0 {
		return h.meta.UniqueIndexes()[0].Columns
	}
	return nil
}

func (h *DupKeyHandler) duplicateKeyError(idx UniqueIndex, conflict, attempted domain.Row) error {
	cols := idx.Columns
	if len(cols) == 0 {
		cols = h.indexedColumns(nil)
	}
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = attempted[c]
	}
	name := idx.Name
	if name == "" {
		name = "PRIMARY"
	}
	var v interface{}
	if len(values) == 1 {
		v = values[0]
	} else {
		v = values
	}
	return NewErrDuplicateKey(name, cols, v)
}

func indexEqualityFiltersChecked(columns []string, row domain.Row) ([]domain.Filter, bool) {
	filters := make([]domain.Filter, 0, len(columns))
	for _, c := range columns {
		v, ok := row[c]
		if !ok || v == nil {
			return nil, false
		}
		filters = append(filters, domain.Filter{Field: c, Operator: "=", Value: v})
	}
	return filters, true
}
