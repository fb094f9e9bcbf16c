package parser

import (
	"context"
	"fmt"

	"github.com/kasuganosora/dmlexec/pkg/dml"
	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// buildSetClauseList assembles one UPDATE's (or ON DUPLICATE KEY UPDATE's)
// full SET target list — plain column=value, array-element and row-value
// assignments alike — rejecting a repeated target via
// SetClauseBuilder.AddSingle/AddMultiple per spec.md §4.2's duplicate-
// column-name rule.
func buildSetClauseList(set map[string]interface{}, arrays []ArrayElementAssignment, rows []RowValueAssignment) (*dml.SetClauseList, error) {
	b := dml.NewSetClauseBuilder()

	for col, val := range set {
		if err := b.AddSingle(dml.UpdateAction{Kind: dml.ActionSimple, Column: col, Expr: val}); err != nil {
			return nil, err
		}
	}

	for _, a := range arrays {
		indexExprs := make([]interface{}, len(a.Indexes))
		for i, idx := range a.Indexes {
			indexExprs[i] = idx
		}
		if err := b.AddSingle(dml.UpdateAction{
			Kind:        dml.ActionArrayElement,
			ArrayColumn: a.Column,
			IndexExprs:  indexExprs,
			ElementExpr: a.Value,
		}); err != nil {
			return nil, err
		}
	}

	for _, r := range rows {
		exprs := make([]interface{}, len(r.Values))
		for i := range r.Values {
			exprs[i] = &r.Values[i]
		}
		if err := b.AddMultiple(dml.UpdateAction{Kind: dml.ActionRowValue, Columns: r.Columns, Exprs: exprs}); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}

// executeInsertDML replaces the bare dataSource.Insert call with the full
// RowAssembly + DupKeyHandler + Driver pipeline: defaults/identity/
// generated columns, ON DUPLICATE KEY UPDATE / INSERT IGNORE, OLD/NEW/FINAL
// delta emission and BEFORE/AFTER trigger firing.
func (b *QueryBuilder) executeInsertDML(ctx context.Context, stmt *InsertStatement) (*domain.QueryResult, error) {
	if !b.dataSource.IsWritable() {
		return nil, fmt.Errorf("data source is read-only, INSERT operation not allowed")
	}

	tableInfo, err := b.dataSource.GetTableInfo(ctx, stmt.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get table info: %w", err)
	}
	meta := dml.NewTableMeta(tableInfo)
	assembler := dml.NewRowAssembler(meta, nil)

	dupMode := dml.DupKeyRethrow
	var onDup *dml.SetClauseList
	if stmt.Ignore {
		dupMode = dml.DupKeyIgnore
	} else if stmt.OnDuplicate != nil {
		dupMode = dml.DupKeyUpdate
		onDup, err = buildSetClauseList(stmt.OnDuplicate.Set, stmt.OnDuplicate.ArrayUpdates, stmt.OnDuplicate.RowUpdates)
		if err != nil {
			return nil, err
		}
	}
	var finalRows []domain.Row
	var insertRows []dml.RowPair

	driver := dml.NewDriver(b.dataSource, stmt.Table, meta, nil,
		dml.NewDeltaCollector(map[dml.DeltaMode]dml.DeltaSink{dml.DeltaModeFinal: dml.NewRowSliceSink(&finalRows)}),
		dml.DefaultConfig(), nil, dmlNoPermissionCheck, nil)
	dup := dml.NewDupKeyHandler(b.dataSource, stmt.Table, meta, assembler, dupMode, onDup, b.dmlExprEval, driver)

	columns := stmt.Columns
	if len(columns) == 0 {
		for _, col := range tableInfo.Columns {
			columns = append(columns, col.Name)
		}
	}

	viewInfo, isView := b.getViewInfo(tableInfo)
	var validator *CheckOptionValidator
	if isView {
		validator = NewCheckOptionValidator(viewInfo)
	}

	for _, values := range stmt.Values {
		row, err := assembler.BuildInsertRow(columns, values, dml.OverridingUserValue)
		if err != nil {
			return nil, err
		}
		if validator != nil {
			if err := validator.ValidateInsert(row); err != nil {
				return nil, fmt.Errorf("view check option failed: %w", err)
			}
		}
		insertRows = append(insertRows, dml.RowPair{New: row})
	}

	i := 0
	trace, err := driver.Run(ctx, dml.RunOptions{Kind: dml.OpInsert, InsertDup: dup}, func() (dml.RowPair, bool, error) {
		if i >= len(insertRows) {
			return dml.RowPair{}, false, nil
		}
		pair := insertRows[i]
		i++
		return pair, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}

	var lastInsertID int64
	for _, col := range tableInfo.Columns {
		if col.AutoIncrement && len(finalRows) > 0 {
			if val, ok := finalRows[len(finalRows)-1][col.Name]; ok {
				switch v := val.(type) {
				case int64:
					lastInsertID = v
				case int:
					lastInsertID = int64(v)
				case float64:
					lastInsertID = int64(v)
				}
			}
			break
		}
	}

	return &domain.QueryResult{
		Total: trace.AffectedRows,
		Rows: []domain.Row{
			{"rows_affected": trace.AffectedRows, "last_insert_id": lastInsertID},
		},
	}, nil
}

// executeUpdateDML replaces the bare dataSource.Update call with FilteredScan
// (WHERE residual + FETCH FIRST n ROWS) driving RowAssembler.BuildUpdateRow
// and Driver's BEFORE/AFTER trigger + OLD/NEW/FINAL pipeline.
func (b *QueryBuilder) executeUpdateDML(ctx context.Context, stmt *UpdateStatement) (*domain.QueryResult, error) {
	if !b.dataSource.IsWritable() {
		return nil, fmt.Errorf("data source is read-only, UPDATE operation not allowed")
	}

	tableInfo, err := b.dataSource.GetTableInfo(ctx, stmt.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get table info: %w", err)
	}
	meta := dml.NewTableMeta(tableInfo)
	assembler := dml.NewRowAssembler(meta, nil)

	actions, err := buildSetClauseList(stmt.Set, stmt.ArrayUpdates, stmt.RowUpdates)
	if err != nil {
		return nil, err
	}
	if _, err := dml.MapAndOptimize(actions, meta); err != nil {
		return nil, err
	}

	var filters []domain.Filter
	if stmt.Where != nil {
		filters = b.convertExpressionToFilters(stmt.Where)
	}
	candidateResult, err := b.dataSource.Query(ctx, stmt.Table, &domain.QueryOptions{Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to query rows for update: %w", err)
	}

	viewInfo, isView := b.getViewInfo(tableInfo)
	var validator *CheckOptionValidator
	if isView {
		validator = NewCheckOptionValidator(viewInfo)
	}

	predicate := func(row domain.Row) (bool, error) {
		if stmt.Where == nil {
			return true, nil
		}
		v, err := b.evalDMLExpr(row, stmt.Where)
		return truthyValue(v), err
	}

	scan, err := dml.NewFilteredScan(ctx, candidateResult.Rows, predicate, nil, stmt.Limit, nil, 0)
	if err != nil {
		return nil, err
	}

	var finalRows []domain.Row
	driver := dml.NewDriver(b.dataSource, stmt.Table, meta, nil,
		dml.NewDeltaCollector(map[dml.DeltaMode]dml.DeltaSink{dml.DeltaModeFinal: dml.NewRowSliceSink(&finalRows)}),
		dml.DefaultConfig(), nil, dmlNoPermissionCheck, nil)

	trace, err := driver.Run(ctx, dml.RunOptions{Kind: dml.OpUpdate}, func() (dml.RowPair, bool, error) {
		old, ok, err := scan.Next()
		if err != nil || !ok {
			return dml.RowPair{}, false, err
		}
		engine := dml.NewSetClauseEngine(dml.EvalContext{Ctx: ctx, Old: old, Table: tableInfo}, b.dmlExprEval)
		newRow, changed, err := assembler.BuildUpdateRow(old, actions, engine, false)
		if err != nil {
			return dml.RowPair{}, false, err
		}
		if !changed {
			return b.nextPair(scan, assembler, actions, tableInfo, ctx)
		}
		if validator != nil {
			if err := validator.ValidateUpdate(old, newRow); err != nil {
				return dml.RowPair{}, false, fmt.Errorf("view check option failed: %w", err)
			}
		}
		return dml.RowPair{Old: old, New: newRow}, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}

	return &domain.QueryResult{Total: trace.AffectedRows}, nil
}

// nextPair skips an unchanged row (ANSI strictness: a SET that produces no
// actual change still counts as visited but not applied) and recurses
// until the scan yields a changed row or is exhausted.
func (b *QueryBuilder) nextPair(scan *dml.FilteredScan, assembler *dml.RowAssembler, actions *dml.SetClauseList, tableInfo *domain.TableInfo, ctx context.Context) (dml.RowPair, bool, error) {
	old, ok, err := scan.Next()
	if err != nil || !ok {
		return dml.RowPair{}, false, err
	}
	engine := dml.NewSetClauseEngine(dml.EvalContext{Ctx: ctx, Old: old, Table: tableInfo}, b.dmlExprEval)
	newRow, changed, err := assembler.BuildUpdateRow(old, actions, engine, false)
	if err != nil {
		return dml.RowPair{}, false, err
	}
	if !changed {
		return b.nextPair(scan, assembler, actions, tableInfo, ctx)
	}
	return dml.RowPair{Old: old, New: newRow}, true, nil
}

// executeDeleteDML replaces the bare dataSource.Delete call with FilteredScan
// (WHERE residual + FETCH FIRST n ROWS) driving Driver's OLD/FINAL + trigger
// pipeline around remove_row.
func (b *QueryBuilder) executeDeleteDML(ctx context.Context, stmt *DeleteStatement) (*domain.QueryResult, error) {
	if !b.dataSource.IsWritable() {
		return nil, fmt.Errorf("data source is read-only, DELETE operation not allowed")
	}

	tableInfo, err := b.dataSource.GetTableInfo(ctx, stmt.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get table info: %w", err)
	}
	meta := dml.NewTableMeta(tableInfo)

	var filters []domain.Filter
	if stmt.Where != nil {
		filters = b.convertExpressionToFilters(stmt.Where)
	}
	candidateResult, err := b.dataSource.Query(ctx, stmt.Table, &domain.QueryOptions{Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to query rows for delete: %w", err)
	}

	predicate := func(row domain.Row) (bool, error) {
		if stmt.Where == nil {
			return true, nil
		}
		v, err := b.evalDMLExpr(row, stmt.Where)
		return truthyValue(v), err
	}

	scan, err := dml.NewFilteredScan(ctx, candidateResult.Rows, predicate, nil, stmt.Limit, nil, 0)
	if err != nil {
		return nil, err
	}

	var finalRows []domain.Row
	driver := dml.NewDriver(b.dataSource, stmt.Table, meta, nil,
		dml.NewDeltaCollector(map[dml.DeltaMode]dml.DeltaSink{dml.DeltaModeFinal: dml.NewRowSliceSink(&finalRows)}),
		dml.DefaultConfig(), nil, dmlNoPermissionCheck, nil)

	trace, err := driver.Run(ctx, dml.RunOptions{Kind: dml.OpDelete}, func() (dml.RowPair, bool, error) {
		old, ok, err := scan.Next()
		if err != nil || !ok {
			return dml.RowPair{}, false, err
		}
		return dml.RowPair{Old: old}, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete failed: %w", err)
	}

	return &domain.QueryResult{Total: trace.AffectedRows}, nil
}

// executeMerge executes a MERGE INTO ... USING ... ON ... WHEN [NOT]
// MATCHED statement through dml.MergeExecutor: an outer join between
// target and source filters, dispatched to the first matching pruned WHEN
// clause per row.
func (b *QueryBuilder) executeMerge(ctx context.Context, stmt *MergeStatement) (*domain.QueryResult, error) {
	if !b.dataSource.IsWritable() {
		return nil, fmt.Errorf("data source is read-only, MERGE operation not allowed")
	}

	targetInfo, err := b.dataSource.GetTableInfo(ctx, stmt.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to get target table info: %w", err)
	}
	meta := dml.NewTableMeta(targetInfo)
	assembler := dml.NewRowAssembler(meta, nil)

	targetResult, err := b.dataSource.Query(ctx, stmt.Target, &domain.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to query target rows: %w", err)
	}
	sourceResult, err := b.dataSource.Query(ctx, stmt.Source, &domain.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to query source rows: %w", err)
	}

	whens := make([]dml.MergeWhen, 0, len(stmt.Whens))
	for _, w := range stmt.Whens {
		switch w.Kind {
		case MergeWhenMatchedUpdate:
			set, err := buildSetClauseList(w.Set, nil, nil)
			if err != nil {
				return nil, err
			}
			whens = append(whens, dml.MergeWhen{Kind: dml.MergeWhenMatchedUpdate, Condition: w.Condition, Set: set})
		case MergeWhenMatchedDelete:
			whens = append(whens, dml.MergeWhen{Kind: dml.MergeWhenMatchedDelete, Condition: w.Condition})
		case MergeWhenNotMatchedInsert:
			values := make([]interface{}, len(w.Values))
			copy(values, w.Values)
			whens = append(whens, dml.MergeWhen{
				Kind: dml.MergeWhenNotMatchedInsert, Condition: w.Condition,
				Columns: w.Columns, Values: values, Overriding: dml.OverridingUserValue,
			})
		}
	}
	whens = dml.PruneMergeWhens(whens)

	joinRows := buildMergeJoin(targetResult.Rows, sourceResult.Rows, stmt.On, b.evalDMLExpr)

	// mode is DupKeyRethrow, so rewriteAsUpdate is never invoked here and a
	// nil Driver is never dereferenced; MergeExecutor drives its own
	// matched-row update path directly.
	dup := dml.NewDupKeyHandler(b.dataSource, stmt.Target, meta, assembler, dml.DupKeyRethrow, nil, b.dmlExprEval, nil)
	executor := dml.NewMergeExecutor(b.dataSource, stmt.Target, meta, assembler, b.dmlExprEval, nil, dup, whens,
		dml.NewDeltaCollector(nil), dml.NewTriggerSet(nil))

	result, err := executor.Run(ctx, joinRows)
	if err != nil {
		return nil, fmt.Errorf("merge failed: %w", err)
	}

	return &domain.QueryResult{Total: result.AffectedRows()}, nil
}

// buildMergeJoin drives the outer join between target and source by
// brute-force nested-loop evaluation of the ON condition, a deliberately
// simple join strategy befitting a row-oriented DML core rather than a
// cost-based optimizer; index-assisted joins belong to the query planner,
// not this package.
func buildMergeJoin(targetRows, sourceRows []domain.Row, on *Expression, eval func(domain.Row, *Expression) (interface{}, error)) []dml.MergeJoinRow {
	var joined []dml.MergeJoinRow
	for _, src := range sourceRows {
		matchedAny := false
		for _, tgt := range targetRows {
			merged := mergeRows(tgt, src)
			v, err := eval(merged, on)
			if err != nil || !truthyValue(v) {
				continue
			}
			joined = append(joined, dml.MergeJoinRow{Source: src, Target: tgt})
			matchedAny = true
		}
		if !matchedAny {
			joined = append(joined, dml.MergeJoinRow{Source: src, Target: nil})
		}
	}
	return joined
}
