// Package dml implements the DML execution core: INSERT/UPDATE/DELETE/MERGE
// row assembly, SET-clause evaluation, delta capture and the driver that
// ties filtered scans, duplicate-key handling and trigger firing together.
package dml

import (
	"context"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// DeltaMode selects which row image a trigger or a RETURNING-style clause
// wants to see: the row before the statement touched it, the row after, or
// the row as it stood when the whole statement finished (FINAL TABLE).
type DeltaMode int

const (
	DeltaModeNone DeltaMode = iota
	DeltaModeOld
	DeltaModeNew
	DeltaModeFinal
)

func (m DeltaMode) String() string {
	switch m {
	case DeltaModeOld:
		return "OLD"
	case DeltaModeNew:
		return "NEW"
	case DeltaModeFinal:
		return "FINAL"
	default:
		return "NONE"
	}
}

// UpdateActionKind tags the shape of a single SET-clause target.
type UpdateActionKind int

const (
	// ActionSimple assigns one column to one scalar expression: SET a = expr.
	ActionSimple UpdateActionKind = iota
	// ActionRowValue assigns a parenthesised column list from a row-valued
	// expression: SET (a, b) = (expr_a, expr_b).
	ActionRowValue
	// ActionArrayElement assigns a possibly-nested element of an array-typed
	// column: SET arr[i] = expr, or SET arr[i][j]... = expr for deeper paths.
	ActionArrayElement
	// ActionDefault resets a column to its declared DEFAULT.
	ActionDefault
)

// UpdateAction is one target of a SET clause, resolved ahead of row
// evaluation so SetClauseEngine never re-parses the assignment shape per row.
type UpdateAction struct {
	Kind UpdateActionKind

	// ActionSimple / ActionDefault
	Column string
	Expr   interface{} // already-resolved value or *parser.Expression

	// ActionRowValue
	Columns []string
	Exprs   []interface{}

	// ActionArrayElement. IndexExprs holds one 1-based index expression per
	// nesting level in source order (arr[i][j] -> [i, j]); evalArrayUpdate
	// walks it as a path, descending one level per entry before assigning
	// ElementExpr at the final level.
	ArrayColumn string
	IndexExprs  []interface{}
	ElementExpr interface{}
}

// SetClauseList is the fully-resolved, ordered list of assignments a single
// UPDATE or the matched branch of a MERGE carries. Order matters: later
// assignments in the same list see earlier ones' results, per spec.
type SetClauseList struct {
	Actions []UpdateAction
}

// EvalContext is the per-row environment SetClauseEngine and RowAssembler
// evaluate expressions against: the row as it stands before this statement's
// changes, plus anything upstream (a USING row, in MERGE) joined to it.
type EvalContext struct {
	Ctx    context.Context
	Old    domain.Row // nil for INSERT
	Source domain.Row // MERGE USING row, nil otherwise
	Table  *domain.TableInfo
}

// TableMeta is the narrow view of table metadata the DML core needs: column
// definitions plus the unique indexes that DupKeyHandler and MergeExecutor
// must check against. It is satisfied by an adapter over domain.TableInfo,
// not by the storage engine directly.
type TableMeta interface {
	Info() *domain.TableInfo
	Column(name string) (*domain.ColumnInfo, bool)
	UniqueIndexes() []UniqueIndex
}

// UniqueIndex names one unique or primary-key constraint a table enforces.
type UniqueIndex struct {
	Name    string
	Columns []string
	Primary bool
}

// Session is the narrow southbound contract the DML driver needs from the
// engine session: access to the active data source, transaction control and
// the per-connection cancellation budget. *session.CoreSession satisfies
// this directly.
type Session interface {
	GetDataSource() domain.DataSource
	InTx() bool
	BeginTx(ctx context.Context) (domain.Transaction, error)
	CommitTx(ctx context.Context) error
	RollbackTx(ctx context.Context) error
}

// TriggerTiming is when relative to the row-level or statement-level change
// a trigger fires.
type TriggerTiming int

const (
	TriggerBefore TriggerTiming = iota
	TriggerAfter
)

// TriggerScope is whether a trigger fires once per affected row or once per
// statement.
type TriggerScope int

const (
	TriggerRow TriggerScope = iota
	TriggerStatement
)

// TriggerEvent is the DML operation a trigger is registered against.
type TriggerEvent int

const (
	TriggerInsert TriggerEvent = iota
	TriggerUpdate
	TriggerDelete
)

// Trigger is fired by Driver at the point named by Timing/Scope/Event. A
// row-level trigger returning ok=false vetoes the row: the row is skipped
// and does not count toward the affected-row total. A statement-level
// trigger returning ok=false aborts the whole statement.
type Trigger struct {
	Name   string
	Timing TriggerTiming
	Scope  TriggerScope
	Event  TriggerEvent
	Fire   func(ctx context.Context, old, new domain.Row) (ok bool, err error)
}

// TriggerSet groups the triggers registered against one table, already
// bucketed by firing point so Driver never has to filter the full list per
// row.
type TriggerSet struct {
	byPoint map[triggerPoint][]Trigger
}

type triggerPoint struct {
	Timing TriggerTiming
	Scope  TriggerScope
	Event  TriggerEvent
}

// NewTriggerSet builds a TriggerSet from an unordered trigger list,
// preserving registration order within each firing point.
func NewTriggerSet(triggers []Trigger) *TriggerSet {
	ts := &TriggerSet{byPoint: make(map[triggerPoint][]Trigger)}
	for _, t := range triggers {
		p := triggerPoint{t.Timing, t.Scope, t.Event}
		ts.byPoint[p] = append(ts.byPoint[p], t)
	}
	return ts
}

// At returns the triggers registered for one firing point, in registration
// order.
func (ts *TriggerSet) At(timing TriggerTiming, scope TriggerScope, event TriggerEvent) []Trigger {
	if ts == nil {
		return nil
	}
	return ts.byPoint[triggerPoint{timing, scope, event}]
}

// Config tunes the behavior the spec leaves open to the implementation.
type Config struct {
	// DuplicateKeyUpdateCountsAsTwo controls whether a row rewritten by
	// ON DUPLICATE KEY UPDATE counts once or twice toward rows_affected.
	// MySQL's client flag CLIENT_FOUND_ROWS defaults this off; so does this
	// driver.
	DuplicateKeyUpdateCountsAsTwo bool

	// CancelCheckInterval is how many rows FilteredScan processes between
	// context-cancellation checks.
	CancelCheckInterval int
}

// DefaultConfig returns the driver defaults used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		DuplicateKeyUpdateCountsAsTwo: false,
		CancelCheckInterval:           128,
	}
}
