package dml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

func simpleTable(name string) *domain.TableInfo {
	return &domain.TableInfo{
		Name: name,
		Columns: []domain.ColumnInfo{
			{Name: "id", Type: "int", Primary: true, Unique: true},
			{Name: "v", Type: "int", Nullable: true},
		},
	}
}

// TestDriver_OnDuplicateKeyUpdate covers the ON DUPLICATE KEY UPDATE
// end-to-end scenario: inserting a row whose primary key already exists
// rewrites the existing row instead of failing, and the statement reports
// one affected row by default (CLIENT_FOUND_ROWS off).
func TestDriver_OnDuplicateKeyUpdate(t *testing.T) {
	ds := newFakeDataSource()
	ds.createTable(simpleTable("t"), domain.Row{"id": int64(1), "v": int64(10)})

	meta := NewTableMeta(simpleTable("t"))
	assembler := NewRowAssembler(meta, nil)

	onDup := &SetClauseList{Actions: []UpdateAction{
		{Kind: ActionSimple, Column: "v", Expr: int64(555)},
	}}
	driver := NewDriver(ds, "t", meta, nil, NewDeltaCollector(nil), DefaultConfig(), nil, nil, nil)
	dup := NewDupKeyHandler(ds, "t", meta, assembler, DupKeyUpdate, onDup, literalEval, driver)

	newRow, err := assembler.BuildInsertRow([]string{"id", "v"}, []interface{}{int64(1), int64(99)}, OverridingUserValue)
	require.NoError(t, err)

	i := 0
	pairs := []RowPair{{New: newRow}}
	trace, err := driver.Run(context.Background(), RunOptions{Kind: OpInsert, InsertDup: dup}, func() (RowPair, bool, error) {
		if i >= len(pairs) {
			return RowPair{}, false, nil
		}
		p := pairs[i]
		i++
		return p, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), trace.AffectedRows)

	result, err := ds.Query(context.Background(), "t", &domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(555), result.Rows[0]["v"])
}

// TestDriver_InsertIgnore covers INSERT IGNORE: a conflicting row is
// silently dropped, the original survives untouched, and the conflicting
// row does not count toward rows_affected.
func TestDriver_InsertIgnore(t *testing.T) {
	ds := newFakeDataSource()
	ds.createTable(simpleTable("t"), domain.Row{"id": int64(1), "v": int64(10)})

	meta := NewTableMeta(simpleTable("t"))
	assembler := NewRowAssembler(meta, nil)
	dup := NewDupKeyHandler(ds, "t", meta, assembler, DupKeyIgnore, nil, literalEval, nil)

	newRow, err := assembler.BuildInsertRow([]string{"id", "v"}, []interface{}{int64(1), int64(99)}, OverridingUserValue)
	require.NoError(t, err)

	driver := NewDriver(ds, "t", meta, nil, NewDeltaCollector(nil), DefaultConfig(), nil, nil, nil)

	i := 0
	pairs := []RowPair{{New: newRow}}
	trace, err := driver.Run(context.Background(), RunOptions{Kind: OpInsert, InsertDup: dup}, func() (RowPair, bool, error) {
		if i >= len(pairs) {
			return RowPair{}, false, nil
		}
		p := pairs[i]
		i++
		return p, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), trace.AffectedRows)

	result, err := ds.Query(context.Background(), "t", &domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(10), result.Rows[0]["v"])
}

// TestDriver_Insert_PlainConflict_Rethrows covers plain INSERT with no
// ON DUPLICATE/IGNORE clause: a conflicting row surfaces ErrDuplicateKey.
func TestDriver_Insert_PlainConflict_Rethrows(t *testing.T) {
	ds := newFakeDataSource()
	ds.createTable(simpleTable("t"), domain.Row{"id": int64(1), "v": int64(10)})

	meta := NewTableMeta(simpleTable("t"))
	assembler := NewRowAssembler(meta, nil)
	dup := NewDupKeyHandler(ds, "t", meta, assembler, DupKeyRethrow, nil, literalEval, nil)

	newRow, err := assembler.BuildInsertRow([]string{"id", "v"}, []interface{}{int64(1), int64(99)}, OverridingUserValue)
	require.NoError(t, err)

	driver := NewDriver(ds, "t", meta, nil, NewDeltaCollector(nil), DefaultConfig(), nil, nil, nil)

	i := 0
	pairs := []RowPair{{New: newRow}}
	_, err = driver.Run(context.Background(), RunOptions{Kind: OpInsert, InsertDup: dup}, func() (RowPair, bool, error) {
		if i >= len(pairs) {
			return RowPair{}, false, nil
		}
		p := pairs[i]
		i++
		return p, true, nil
	})
	require.Error(t, err)
	var dupErr *ErrDuplicateKey
	assert.ErrorAs(t, err, &dupErr)
}

// TestDriver_Update_FetchFirstN covers UPDATE ... FETCH FIRST n ROWS: only
// the first n scanned rows surviving the predicate are touched, in scan
// order, regardless of how many rows the WHERE clause would otherwise
// match.
func TestDriver_Update_FetchFirstN(t *testing.T) {
	ds := newFakeDataSource()
	table := simpleTable("t")
	rows := make([]domain.Row, 0, 5)
	for i := int64(1); i <= 5; i++ {
		rows = append(rows, domain.Row{"id": i, "v": i * 10})
	}
	ds.createTable(table, rows...)

	meta := NewTableMeta(table)
	assembler := NewRowAssembler(meta, nil)

	actions := &SetClauseList{Actions: []UpdateAction{
		{Kind: ActionSimple, Column: "v", Expr: testExpr(func(ctx EvalContext) (interface{}, error) {
			return ctx.Old["v"].(int64) + 1, nil
		})},
	}}

	candidateResult, err := ds.Query(context.Background(), "t", &domain.QueryOptions{})
	require.NoError(t, err)

	fetch := int64(3)
	scan, err := NewFilteredScan(context.Background(), candidateResult.Rows, nil, nil, &fetch, nil, 0)
	require.NoError(t, err)

	driver := NewDriver(ds, "t", meta, nil, NewDeltaCollector(nil), DefaultConfig(), nil, nil, nil)
	trace, err := driver.Run(context.Background(), RunOptions{Kind: OpUpdate}, func() (RowPair, bool, error) {
		old, ok, err := scan.Next()
		if err != nil || !ok {
			return RowPair{}, false, err
		}
		engine := NewSetClauseEngine(EvalContext{Old: old}, literalEval)
		newRow, _, err := assembler.BuildUpdateRow(old, actions, engine, false)
		if err != nil {
			return RowPair{}, false, err
		}
		return RowPair{Old: old, New: newRow}, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), trace.AffectedRows)

	result, err := ds.Query(context.Background(), "t", &domain.QueryOptions{})
	require.NoError(t, err)
	var touched int
	for _, r := range result.Rows {
		id := r["id"].(int64)
		v := r["v"].(int64)
		if v == id*10+1 {
			touched++
		}
	}
	assert.Equal(t, 3, touched)
}

// TestDriver_BeforeRowVeto covers BEFORE_ROW trigger veto semantics: a
// truthy-false return from a BEFORE ROW trigger skips the row entirely
// (never applied, never counted) while the statement itself proceeds.
func TestDriver_BeforeRowVeto(t *testing.T) {
	ds := newFakeDataSource()
	table := simpleTable("t")
	ds.createTable(table, domain.Row{"id": int64(1), "v": int64(1)}, domain.Row{"id": int64(2), "v": int64(2)})

	meta := NewTableMeta(table)

	vetoTrigger := Trigger{
		Name: "veto_odd", Timing: TriggerBefore, Scope: TriggerRow, Event: TriggerDelete,
		Fire: func(ctx context.Context, old, new domain.Row) (bool, error) {
			return old["id"].(int64) != int64(1), nil
		},
	}
	triggers := NewTriggerSet([]Trigger{vetoTrigger})

	candidateResult, err := ds.Query(context.Background(), "t", &domain.QueryOptions{})
	require.NoError(t, err)
	scan, err := NewFilteredScan(context.Background(), candidateResult.Rows, nil, nil, nil, nil, 0)
	require.NoError(t, err)

	driver := NewDriver(ds, "t", meta, triggers, NewDeltaCollector(nil), DefaultConfig(), nil, nil, nil)
	trace, err := driver.Run(context.Background(), RunOptions{Kind: OpDelete}, func() (RowPair, bool, error) {
		old, ok, err := scan.Next()
		if err != nil || !ok {
			return RowPair{}, false, err
		}
		return RowPair{Old: old}, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), trace.AffectedRows)

	result, err := ds.Query(context.Background(), "t", &domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0]["id"])
}

// TestDriver_AfterStatementFiresOnZeroRows covers the spec's requirement
// that AFTER_STATEMENT always runs, even when no candidate row survived.
func TestDriver_AfterStatementFiresOnZeroRows(t *testing.T) {
	ds := newFakeDataSource()
	table := simpleTable("t")
	ds.createTable(table)
	meta := NewTableMeta(table)

	fired := false
	afterStmt := Trigger{
		Name: "mark", Timing: TriggerAfter, Scope: TriggerStatement, Event: TriggerDelete,
		Fire: func(ctx context.Context, old, new domain.Row) (bool, error) {
			fired = true
			return true, nil
		},
	}
	triggers := NewTriggerSet([]Trigger{afterStmt})

	driver := NewDriver(ds, "t", meta, triggers, NewDeltaCollector(nil), DefaultConfig(), nil, nil, nil)
	trace, err := driver.Run(context.Background(), RunOptions{Kind: OpDelete}, func() (RowPair, bool, error) {
		return RowPair{}, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), trace.AffectedRows)
	assert.True(t, fired)
}
