package dml

import (
	"context"
	"fmt"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// fakeDataSource is a minimal domain.DataSource used only by this package's
// tests: plain slice storage, equality/comparison filters and an
// auto-increment counter per table, just enough to drive the DML core
// end to end without pulling in pkg/resource/memory's full MVCC machinery.
type fakeDataSource struct {
	tables map[string]*fakeTable
}

type fakeTable struct {
	info    *domain.TableInfo
	rows    []domain.Row
	nextSeq int64
}

func newFakeDataSource() *fakeDataSource {
	return &fakeDataSource{tables: make(map[string]*fakeTable)}
}

func (f *fakeDataSource) createTable(info *domain.TableInfo, rows ...domain.Row) {
	f.tables[info.Name] = &fakeTable{info: info, rows: rows, nextSeq: 1}
}

func (f *fakeDataSource) Connect(ctx context.Context) error { return nil }
func (f *fakeDataSource) Close(ctx context.Context) error   { return nil }
func (f *fakeDataSource) IsConnected() bool                 { return true }
func (f *fakeDataSource) IsWritable() bool                  { return true }
func (f *fakeDataSource) GetConfig() *domain.DataSourceConfig {
	return &domain.DataSourceConfig{Type: domain.DataSourceTypeMemory, Name: "fake"}
}

func (f *fakeDataSource) GetTables(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.tables))
	for n := range f.tables {
		names = append(names, n)
	}
	return names, nil
}

func (f *fakeDataSource) GetTableInfo(ctx context.Context, tableName string) (*domain.TableInfo, error) {
	t, ok := f.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("table %s not found", tableName)
	}
	return t.info, nil
}

func (f *fakeDataSource) Query(ctx context.Context, tableName string, options *domain.QueryOptions) (*domain.QueryResult, error) {
	t, ok := f.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("table %s not found", tableName)
	}
	var matched []domain.Row
	for _, row := range t.rows {
		if rowMatchesFilters(row, options.Filters) {
			matched = append(matched, cloneRow(row))
		}
	}
	if options.Limit > 0 && len(matched) > options.Limit {
		matched = matched[:options.Limit]
	}
	return &domain.QueryResult{Rows: matched, Total: int64(len(matched))}, nil
}

func (f *fakeDataSource) Insert(ctx context.Context, tableName string, rows []domain.Row, options *domain.InsertOptions) (int64, error) {
	t, ok := f.tables[tableName]
	if !ok {
		return 0, fmt.Errorf("table %s not found", tableName)
	}
	for _, row := range rows {
		for _, col := range t.info.Columns {
			if col.AutoIncrement && row[col.Name] == nil {
				row[col.Name] = t.nextSeq
				t.nextSeq++
			}
		}
		t.rows = append(t.rows, cloneRow(row))
	}
	return int64(len(rows)), nil
}

func (f *fakeDataSource) Update(ctx context.Context, tableName string, filters []domain.Filter, updates domain.Row, options *domain.UpdateOptions) (int64, error) {
	t, ok := f.tables[tableName]
	if !ok {
		return 0, fmt.Errorf("table %s not found", tableName)
	}
	var count int64
	for i, row := range t.rows {
		if rowMatchesFilters(row, filters) {
			t.rows[i] = cloneRow(updates)
			count++
		}
	}
	return count, nil
}

func (f *fakeDataSource) Delete(ctx context.Context, tableName string, filters []domain.Filter, options *domain.DeleteOptions) (int64, error) {
	t, ok := f.tables[tableName]
	if !ok {
		return 0, fmt.Errorf("table %s not found", tableName)
	}
	kept := t.rows[:0]
	var count int64
	for _, row := range t.rows {
		if rowMatchesFilters(row, filters) {
			count++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return count, nil
}

func (f *fakeDataSource) CreateTable(ctx context.Context, tableInfo *domain.TableInfo) error {
	f.createTable(tableInfo)
	return nil
}
func (f *fakeDataSource) DropTable(ctx context.Context, tableName string) error {
	delete(f.tables, tableName)
	return nil
}
func (f *fakeDataSource) TruncateTable(ctx context.Context, tableName string) error {
	if t, ok := f.tables[tableName]; ok {
		t.rows = nil
	}
	return nil
}
func (f *fakeDataSource) Execute(ctx context.Context, sql string) (*domain.QueryResult, error) {
	return nil, fmt.Errorf("fakeDataSource does not execute raw SQL")
}

func cloneRow(row domain.Row) domain.Row {
	out := make(domain.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func rowMatchesFilters(row domain.Row, filters []domain.Filter) bool {
	for _, f := range filters {
		if !rowMatchesFilter(row, f) {
			return false
		}
	}
	return true
}

func rowMatchesFilter(row domain.Row, f domain.Filter) bool {
	v := row[f.Field]
	switch f.Operator {
	case "=", "":
		return fmt.Sprint(v) == fmt.Sprint(f.Value)
	case "!=":
		return fmt.Sprint(v) != fmt.Sprint(f.Value)
	default:
		return fmt.Sprint(v) == fmt.Sprint(f.Value)
	}
}

// literalEval is an ExprEval/dmlExprEval stand-in for tests that never need
// to evaluate a real *parser.Expression: every SET-clause target and MERGE
// condition in these fixtures carries an already-resolved Go value or a
// testExpr closure directly, so evaluation is just type dispatch.
func literalEval(ctx EvalContext, expr interface{}) (interface{}, error) {
	switch e := expr.(type) {
	case testExpr:
		return e(ctx)
	case []interface{}:
		values := make([]interface{}, len(e))
		for i, sub := range e {
			v, err := literalEval(ctx, sub)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil
	default:
		return expr, nil
	}
}

// testExpr lets a test express "evaluate this against the row" without a
// real parser.Expression tree.
type testExpr func(ctx EvalContext) (interface{}, error)

func col(name string, fromSource bool) testExpr {
	return func(ctx EvalContext) (interface{}, error) {
		if fromSource {
			return ctx.Source[name], nil
		}
		return ctx.Old[name], nil
	}
}
