package dml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

func arrayTable() *domain.TableInfo {
	return &domain.TableInfo{
		Name: "t",
		Columns: []domain.ColumnInfo{
			{Name: "id", Type: "int", Primary: true},
			{Name: "tags", Type: "json", Nullable: true},
		},
	}
}

// TestSetClauseEngine_ArrayElementUpdate_NullFills covers SET tags[3] = x
// against a shorter existing array: the gap between the array's current
// length and the new index is filled with NULL, and everything before the
// touched index is preserved untouched.
func TestSetClauseEngine_ArrayElementUpdate_NullFills(t *testing.T) {
	old := domain.Row{"id": int64(1), "tags": []interface{}{"a"}}
	act := UpdateAction{Kind: ActionArrayElement, ArrayColumn: "tags", IndexExprs: []interface{}{int64(3)}, ElementExpr: "c"}

	engine := NewSetClauseEngine(EvalContext{Old: old}, literalEval)
	result, err := engine.Evaluate(act, old, &domain.ColumnInfo{Name: "tags"})
	require.NoError(t, err)

	arr, ok := result.([]interface{})
	require.True(t, ok)
	require.Len(t, arr, 3)
	assert.Equal(t, "a", arr[0])
	assert.Nil(t, arr[1])
	assert.Equal(t, "c", arr[2])
}

// TestSetClauseEngine_ArrayElementUpdate_NullBaseFails covers the
// NULL_VALUE_IN_ARRAY_TARGET edge case: assigning into an element of a NULL
// array column fails instead of silently treating it as empty.
func TestSetClauseEngine_ArrayElementUpdate_NullBaseFails(t *testing.T) {
	old := domain.Row{"id": int64(1), "tags": nil}
	act := UpdateAction{Kind: ActionArrayElement, ArrayColumn: "tags", IndexExprs: []interface{}{int64(1)}, ElementExpr: "x"}

	engine := NewSetClauseEngine(EvalContext{Old: old}, literalEval)
	_, err := engine.Evaluate(act, old, &domain.ColumnInfo{Name: "tags"})
	require.Error(t, err)
	var nullErr *ErrNullInArrayTarget
	assert.ErrorAs(t, err, &nullErr)
}

// TestSetClauseEngine_ArrayElementUpdate_Nested covers SET tags[2][1] = x:
// a two-level index path descends into the outer array's second element,
// rebuilds that nested array with a NULL-filled gap, and rebuilds the outer
// array to hold the new nested value, leaving the first outer element
// untouched.
func TestSetClauseEngine_ArrayElementUpdate_Nested(t *testing.T) {
	old := domain.Row{"id": int64(1), "tags": []interface{}{
		"a",
		[]interface{}{"x"},
	}}
	act := UpdateAction{
		Kind:        ActionArrayElement,
		ArrayColumn: "tags",
		IndexExprs:  []interface{}{int64(2), int64(3)},
		ElementExpr: "z",
	}

	engine := NewSetClauseEngine(EvalContext{Old: old}, literalEval)
	result, err := engine.Evaluate(act, old, &domain.ColumnInfo{Name: "tags"})
	require.NoError(t, err)

	outer, ok := result.([]interface{})
	require.True(t, ok)
	require.Len(t, outer, 2)
	assert.Equal(t, "a", outer[0], "untouched outer element preserved")

	inner, ok := outer[1].([]interface{})
	require.True(t, ok)
	require.Len(t, inner, 3)
	assert.Equal(t, "x", inner[0])
	assert.Nil(t, inner[1])
	assert.Equal(t, "z", inner[2])

	origInner := old["tags"].([]interface{})[1].([]interface{})
	assert.Len(t, origInner, 1, "original nested array left untouched, confirming a fresh copy was built at every level")
}

// TestSetClauseEngine_ArrayElementUpdate_NestedNonArrayFails covers the
// intermediate-level ARRAY_ELEMENT_ERROR case: descending into a non-array
// value at a non-final level fails instead of silently overwriting it.
func TestSetClauseEngine_ArrayElementUpdate_NestedNonArrayFails(t *testing.T) {
	old := domain.Row{"id": int64(1), "tags": []interface{}{"a", "not-an-array"}}
	act := UpdateAction{
		Kind:        ActionArrayElement,
		ArrayColumn: "tags",
		IndexExprs:  []interface{}{int64(2), int64(1)},
		ElementExpr: "z",
	}

	engine := NewSetClauseEngine(EvalContext{Old: old}, literalEval)
	_, err := engine.Evaluate(act, old, &domain.ColumnInfo{Name: "tags"})
	require.Error(t, err)
	var arrErr *ErrArrayElement
	assert.ErrorAs(t, err, &arrErr)
}

// TestRowAssembler_ArrayElementUpdate_Integration drives the same
// assignment through BuildUpdateRow end to end, confirming the assembled
// row carries the NULL-filled array and reports the row as changed.
func TestRowAssembler_ArrayElementUpdate_Integration(t *testing.T) {
	table := arrayTable()
	meta := NewTableMeta(table)
	assembler := NewRowAssembler(meta, nil)

	old := domain.Row{"id": int64(1), "tags": []interface{}{"a"}}
	actions := &SetClauseList{Actions: []UpdateAction{
		{Kind: ActionArrayElement, ArrayColumn: "tags", IndexExprs: []interface{}{int64(3)}, ElementExpr: "c"},
	}}

	engine := NewSetClauseEngine(EvalContext{Old: old}, literalEval)
	newRow, changed, err := assembler.BuildUpdateRow(old, actions, engine, false)
	require.NoError(t, err)
	assert.True(t, changed)

	arr, ok := newRow["tags"].([]interface{})
	require.True(t, ok)
	require.Len(t, arr, 3)
	assert.Nil(t, arr[1])
	assert.Equal(t, "c", arr[2])
}

// TestSetClauseBuilder_RejectsDuplicateColumn covers spec.md §4.2's
// duplicate-column-name rule across both single and row-valued targets.
func TestSetClauseBuilder_RejectsDuplicateColumn(t *testing.T) {
	b := NewSetClauseBuilder()
	require.NoError(t, b.AddSingle(UpdateAction{Kind: ActionSimple, Column: "v"}))
	err := b.AddSingle(UpdateAction{Kind: ActionSimple, Column: "v"})
	require.Error(t, err)
	var dupErr *ErrDuplicateColumnName
	assert.ErrorAs(t, err, &dupErr)
}

func TestSetClauseBuilder_RejectsDuplicateAcrossRowValue(t *testing.T) {
	b := NewSetClauseBuilder()
	require.NoError(t, b.AddSingle(UpdateAction{Kind: ActionSimple, Column: "a"}))
	err := b.AddMultiple(UpdateAction{Kind: ActionRowValue, Columns: []string{"a", "b"}})
	require.Error(t, err)
}

// TestSetClauseEngine_RowValueAssignment_SharesTuple covers SET (a, b) =
// (x, y): the right-hand side is evaluated once and the same tuple serves
// both target columns.
func TestSetClauseEngine_RowValueAssignment_SharesTuple(t *testing.T) {
	calls := 0
	exprA := testExpr(func(ctx EvalContext) (interface{}, error) {
		calls++
		return int64(1), nil
	})
	exprB := testExpr(func(ctx EvalContext) (interface{}, error) {
		calls++
		return int64(2), nil
	})
	act := UpdateAction{Kind: ActionRowValue, Columns: []string{"a", "b"}, Exprs: []interface{}{exprA, exprB}}

	engine := NewSetClauseEngine(EvalContext{}, literalEval)
	va, err := engine.Evaluate(act, nil, &domain.ColumnInfo{Name: "a"})
	require.NoError(t, err)
	vb, err := engine.Evaluate(act, nil, &domain.ColumnInfo{Name: "b"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), va)
	assert.Equal(t, int64(2), vb)
	assert.Equal(t, 2, calls, "row-value right-hand side must be evaluated exactly once (for both columns together) and then cached")
}
