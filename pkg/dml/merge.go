package dml

import (
	"context"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// MergeWhenKind tags what one WHEN clause of a MERGE statement does.
type MergeWhenKind int

const (
	MergeWhenMatchedUpdate MergeWhenKind = iota
	MergeWhenMatchedDelete
	MergeWhenNotMatchedInsert
)

// MergeWhen is one prepared WHEN clause, already resolved by the planner:
// the SET list for an UPDATE branch, or the column/value lists for an
// INSERT branch. Condition is the clause's own extra AND guard, evaluated
// against EvalContext{Old: target, Source: source}; nil means unconditional.
type MergeWhen struct {
	Kind      MergeWhenKind
	Condition interface{} // *parser.Expression or nil

	// MergeWhenMatchedUpdate
	Set *SetClauseList

	// MergeWhenNotMatchedInsert
	Columns    []string
	Values     []interface{}
	Overriding OverridingSystem
}

// MergeJoinRow pairs one source row with whatever target row it currently
// matches against the ON condition, or nil when no target matched — the
// shape MergeExecutor's outer-join input already comes pre-joined in,
// since the planner (not this package) is responsible for actually driving
// the join scan.
type MergeJoinRow struct {
	Source domain.Row
	Target domain.Row // nil means NOT MATCHED
}

// MergeResult summarizes one statement's outcome.
type MergeResult struct {
	Inserted int64
	Updated  int64
	Deleted  int64
}

// AffectedRows is the statement-level row count MERGE reports, matching
// spec.md's §8 scenario 4 expectation that each target row touched (by
// whichever branch) counts once.
func (r MergeResult) AffectedRows() int64 { return r.Inserted + r.Updated + r.Deleted }

// MergeExecutor implements spec.md §4.5: drive an already-joined
// source/target row stream through an ordered WHEN list, picking the first
// clause whose kind matches the row's MATCHED/NOT MATCHED branch and whose
// own AND-condition holds, enforcing that no target row is touched twice.
// No teacher module drives a MERGE join today; this composes the package's
// own FilteredScan-style locking, DupKeyHandler and SetClauseEngine the way
// the teacher composes its own scan/operator building blocks.
type MergeExecutor struct {
	ds        domain.DataSource
	target    string
	meta      TableMeta
	assembler *RowAssembler
	eval      ExprEval
	lock      RowLocker
	dup       *DupKeyHandler

	whens    []MergeWhen
	delta    *DeltaCollector
	triggers *TriggerSet

	processed map[interface{}]bool
}

// NewMergeExecutor builds an executor bound to one MERGE statement. whens
// is pruned with PruneMergeWhens before being passed in; lock is the
// target-side row locker (nil means no explicit locking, e.g. a source
// that doesn't support MVCC). dup drives the WhenNotMatchedInsert branch
// so a concurrently-inserted conflicting row is still handled per the
// INSERT path's own duplicate-key policy.
func NewMergeExecutor(ds domain.DataSource, target string, meta TableMeta, assembler *RowAssembler, eval ExprEval, lock RowLocker, dup *DupKeyHandler, whens []MergeWhen, delta *DeltaCollector, triggers *TriggerSet) *MergeExecutor {
	return &MergeExecutor{
		ds: ds, target: target, meta: meta, assembler: assembler, eval: eval,
		lock: lock, dup: dup, whens: whens, delta: delta, triggers: triggers,
		processed: make(map[interface{}]bool),
	}
}

// PruneMergeWhens implements the prepare-time pruning spec.md §4.5
// requires: a run of same-kind clauses following a terminal (condition-free)
// clause of that kind is dead and is dropped, since the terminal clause
// always matches first.
func PruneMergeWhens(whens []MergeWhen) []MergeWhen {
	pruned := make([]MergeWhen, 0, len(whens))
	terminal := map[MergeWhenKind]bool{}
	for _, w := range whens {
		if terminal[w.Kind] {
			continue
		}
		pruned = append(pruned, w)
		if w.Condition == nil {
			terminal[w.Kind] = true
		}
	}
	return pruned
}

// RequiredTriggerEvents computes the or-mask spec.md §4.5 describes: the
// statement fires INSERT/UPDATE/DELETE row and statement triggers only for
// the events at least one surviving WHEN clause can actually produce.
func RequiredTriggerEvents(whens []MergeWhen) map[TriggerEvent]bool {
	mask := make(map[TriggerEvent]bool)
	for _, w := range whens {
		switch w.Kind {
		case MergeWhenMatchedUpdate:
			mask[TriggerUpdate] = true
		case MergeWhenMatchedDelete:
			mask[TriggerDelete] = true
		case MergeWhenNotMatchedInsert:
			mask[TriggerInsert] = true
		}
	}
	return mask
}

// Run drives the already-joined rows through the WHEN list to completion,
// applying each row's chosen branch immediately (MERGE has no buffered
// two-phase apply of its own; a target row is committed as soon as its
// branch is decided, since §4.5's dedup set already prevents the same
// target row being revisited). The processed-rowid set is reset at entry
// and exit per spec.md §4.5 step 5.
func (m *MergeExecutor) Run(ctx context.Context, rows []MergeJoinRow) (MergeResult, error) {
	m.processed = make(map[interface{}]bool)
	defer func() { m.processed = make(map[interface{}]bool) }()

	var result MergeResult
	var missed []domain.Row

	for _, jr := range rows {
		target := jr.Target
		if target != nil && m.lock != nil {
			locked, err := m.lock(ctx, target)
			if err != nil {
				return result, err
			}
			if locked == nil {
				// lock missed: retry this source row against a null
				// target once the join cursor has moved on.
				missed = append(missed, jr.Source)
				continue
			}
			target = locked
		}

		if err := m.applyOne(ctx, jr.Source, target, &result); err != nil {
			return result, err
		}
	}

	// re-drive missedSource rows against the null target, per §4.5 step 2.
	for _, src := range missed {
		if err := m.applyOne(ctx, src, nil, &result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (m *MergeExecutor) applyOne(ctx context.Context, source, target domain.Row, result *MergeResult) error {
	matched := target != nil

	if matched {
		key := storageKeyValue(target, m.meta.Info())
		if key != nil {
			if m.processed[key] {
				return &ErrDuplicateKey{IndexName: "MERGE target", Value: key}
			}
			m.processed[key] = true
		}
	}

	when, ok := m.selectWhen(matched)
	if !ok {
		return nil // no clause matched: row contributes zero updates
	}

	evalCtx := EvalContext{Ctx: ctx, Old: target, Source: source, Table: m.meta.Info()}
	if when.Condition != nil {
		cond, err := m.eval(evalCtx, when.Condition)
		if err != nil {
			return err
		}
		if truthy, ok := cond.(bool); !ok || !truthy {
			return nil
		}
	}

	switch when.Kind {
	case MergeWhenMatchedUpdate:
		return m.applyMatchedUpdate(ctx, evalCtx, when, target, result)
	case MergeWhenMatchedDelete:
		return m.applyMatchedDelete(ctx, target, result)
	case MergeWhenNotMatchedInsert:
		return m.applyNotMatchedInsert(ctx, evalCtx, when, result)
	default:
		return nil
	}
}

// selectWhen walks the (already-pruned) WHEN list top to bottom and
// returns the first clause whose kind fits the row's branch; the clause's
// own AND-condition, if any, is checked later once an EvalContext exists.
func (m *MergeExecutor) selectWhen(matched bool) (MergeWhen, bool) {
	for _, w := range m.whens {
		if matched && (w.Kind == MergeWhenMatchedUpdate || w.Kind == MergeWhenMatchedDelete) {
			return w, true
		}
		if !matched && w.Kind == MergeWhenNotMatchedInsert {
			return w, true
		}
	}
	return MergeWhen{}, false
}

func (m *MergeExecutor) applyMatchedUpdate(ctx context.Context, evalCtx EvalContext, when MergeWhen, target domain.Row, result *MergeResult) error {
	engine := NewSetClauseEngine(evalCtx, m.eval)
	newRow, changed, err := m.assembler.BuildUpdateRow(target, when.Set, engine, false)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := m.delta.EmitOld(target); err != nil {
		return err
	}
	if err := m.delta.EmitNew(newRow); err != nil {
		return err
	}
	if triggers := m.triggers.At(TriggerBefore, TriggerRow, TriggerUpdate); len(triggers) > 0 {
		for _, t := range triggers {
			ok, err := t.Fire(ctx, target, newRow)
			if err != nil {
				return err
			}
			if !ok {
				return nil // vetoed
			}
		}
	}

	pk := storageKeyColumn(m.meta.Info())
	var filters []domain.Filter
	if pk != "" {
		filters = []domain.Filter{{Field: pk, Operator: "=", Value: target[pk]}}
	} else {
		filters = rowEqualityFilters(target)
	}
	if _, err := m.ds.Update(ctx, m.target, filters, newRow, &domain.UpdateOptions{}); err != nil {
		return err
	}
	result.Updated++

	if err := m.delta.EmitFinal(newRow); err != nil {
		return err
	}
	for _, t := range m.triggers.At(TriggerAfter, TriggerRow, TriggerUpdate) {
		if _, err := t.Fire(ctx, target, newRow); err != nil {
			return err
		}
	}
	return nil
}

func (m *MergeExecutor) applyMatchedDelete(ctx context.Context, target domain.Row, result *MergeResult) error {
	if err := m.delta.EmitOld(target); err != nil {
		return err
	}
	for _, t := range m.triggers.At(TriggerBefore, TriggerRow, TriggerDelete) {
		ok, err := t.Fire(ctx, target, nil)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	pk := storageKeyColumn(m.meta.Info())
	var filters []domain.Filter
	if pk != "" {
		filters = []domain.Filter{{Field: pk, Operator: "=", Value: target[pk]}}
	} else {
		filters = rowEqualityFilters(target)
	}
	if _, err := m.ds.Delete(ctx, m.target, filters, &domain.DeleteOptions{}); err != nil {
		return err
	}
	result.Deleted++

	if err := m.delta.EmitFinal(target); err != nil {
		return err
	}
	for _, t := range m.triggers.At(TriggerAfter, TriggerRow, TriggerDelete) {
		if _, err := t.Fire(ctx, target, nil); err != nil {
			return err
		}
	}
	return nil
}

func (m *MergeExecutor) applyNotMatchedInsert(ctx context.Context, evalCtx EvalContext, when MergeWhen, result *MergeResult) error {
	values := make([]interface{}, len(when.Values))
	for i, expr := range when.Values {
		v, err := m.eval(evalCtx, expr)
		if err != nil {
			return err
		}
		values[i] = v
	}

	newRow, err := m.assembler.BuildInsertRow(when.Columns, values, when.Overriding)
	if err != nil {
		return err
	}
	if err := m.delta.EmitNew(newRow); err != nil {
		return err
	}
	for _, t := range m.triggers.At(TriggerBefore, TriggerRow, TriggerInsert) {
		ok, err := t.Fire(ctx, nil, newRow)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	outcome, stored, err := m.dup.Attempt(ctx, newRow)
	if err != nil {
		return err
	}
	switch outcome {
	case OutcomeInserted:
		result.Inserted++
	case OutcomeUpdated:
		result.Updated++
	case OutcomeSkipped:
		return nil
	}

	if err := m.delta.EmitFinal(stored); err != nil {
		return err
	}
	for _, t := range m.triggers.At(TriggerAfter, TriggerRow, TriggerInsert) {
		if _, err := t.Fire(ctx, nil, stored); err != nil {
			return err
		}
	}
	return nil
}

// storageKeyValue returns the row's primary-key value for use as the
// processed-rowid dedup key; nil when the table has no single-column
// primary key, in which case dedup is skipped (matching §4.5's "for
// tables that expose a row-id column").
func storageKeyValue(row domain.Row, info *domain.TableInfo) interface{} {
	pk := storageKeyColumn(info)
	if pk == "" {
		return nil
	}
	return row[pk]
}

func rowEqualityFilters(row domain.Row) []domain.Filter {
	filters := make([]domain.Filter, 0, len(row))
	for k, v := range row {
		filters = append(filters, domain.Filter{Field: k, Operator: "=", Value: v})
	}
	return filters
}
