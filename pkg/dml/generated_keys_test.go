package dml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

func identityTable() *domain.TableInfo {
	return &domain.TableInfo{
		Name: "t",
		Columns: []domain.ColumnInfo{
			{Name: "id", Type: "int", Primary: true, Identity: true, AutoIncrement: true},
			{Name: "v", Type: "int", Nullable: true},
		},
	}
}

// TestGeneratedKeysProjector_ByName reproduces the canonical generated-keys
// scenario: INSERT INTO t(v) VALUES (1),(2) requesting ["ID"] back (case-
// insensitive) yields two rows, each carrying only the resolved "id"
// column, with distinct auto-assigned identity values, and the statement
// itself still reports the normal row count.
func TestGeneratedKeysProjector_ByName(t *testing.T) {
	ds := newFakeDataSource()
	table := identityTable()
	ds.createTable(table)

	meta := NewTableMeta(table)
	assembler := NewRowAssembler(meta, nil)

	projector, err := NewGeneratedKeysProjector(meta, GeneratedKeysRequest{Names: []string{"ID"}})
	require.NoError(t, err)
	assert.True(t, projector.Requested())

	var captured []domain.Row
	delta := NewDeltaCollector(map[DeltaMode]DeltaSink{DeltaModeFinal: projector.Sink(&captured)})

	driver := NewDriver(ds, "t", meta, nil, delta, DefaultConfig(), nil, nil, nil)

	rows := []domain.Row{
		{"id": nil, "v": int64(1)},
		{"id": nil, "v": int64(2)},
	}
	for i := range rows {
		assembled, err := assembler.ConvertInsertRow(rows[i], OverridingUserValue)
		require.NoError(t, err)
		rows[i] = assembled
	}

	i := 0
	trace, err := driver.Run(context.Background(), RunOptions{Kind: OpInsert}, func() (RowPair, bool, error) {
		if i >= len(rows) {
			return RowPair{}, false, nil
		}
		p := RowPair{New: rows[i]}
		i++
		return p, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), trace.AffectedRows)

	require.Len(t, captured, 2)
	ids := map[int64]bool{}
	for _, row := range captured {
		assert.Len(t, row, 1, "projected row must carry only the requested column")
		id, ok := row["id"].(int64)
		require.True(t, ok)
		ids[id] = true
	}
	assert.Len(t, ids, 2, "each inserted row must receive a distinct identity value")
}

// TestGeneratedKeysProjector_InvalidIndexFailsUpfront covers spec.md §4.7's
// eager-resolution rule: a column index outside [1, column_count] fails at
// construction time, before any row is touched.
func TestGeneratedKeysProjector_InvalidIndexFailsUpfront(t *testing.T) {
	meta := NewTableMeta(identityTable())
	_, err := NewGeneratedKeysProjector(meta, GeneratedKeysRequest{Indexes: []int{5}})
	require.Error(t, err)
	var notFound *ErrColumnNotFound
	assert.ErrorAs(t, err, &notFound)
}

// TestGeneratedKeysProjector_BooleanForm selects identity/auto/PK columns
// without the caller naming them explicitly.
func TestGeneratedKeysProjector_BooleanForm(t *testing.T) {
	meta := NewTableMeta(identityTable())
	projector, err := NewGeneratedKeysProjector(meta, GeneratedKeysRequest{All: true})
	require.NoError(t, err)

	row := domain.Row{"id": int64(7), "v": int64(42)}
	projected := projector.Project(row)
	assert.Equal(t, domain.Row{"id": int64(7)}, projected)
}

// TestGeneratedKeysProjector_NoRequest reports a nil projection and an
// unrequested projector, distinguishing "nothing asked for" from "asked
// for zero columns".
func TestGeneratedKeysProjector_NoRequest(t *testing.T) {
	meta := NewTableMeta(identityTable())
	projector, err := NewGeneratedKeysProjector(meta, GeneratedKeysRequest{})
	require.NoError(t, err)
	assert.False(t, projector.Requested())
	assert.Nil(t, projector.Project(domain.Row{"id": int64(1)}))
}
