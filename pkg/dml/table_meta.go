package dml

import "github.com/kasuganosora/dmlexec/pkg/resource/domain"

// tableMetaAdapter wraps a domain.TableInfo snapshot with the lookups the
// DML core needs repeatedly: by-name column access and the table's unique
// constraints. Built once per statement from whatever GetTableInfo returned.
type tableMetaAdapter struct {
	info    *domain.TableInfo
	byName  map[string]*domain.ColumnInfo
	uniques []UniqueIndex
}

// NewTableMeta adapts a domain.TableInfo into the narrow TableMeta view.
// Composite unique/primary indexes declared explicitly in
// TableInfo.Atts["__indexes__"] (the same convention the optimizer's index
// lookup uses) are honored in addition to the per-column Primary/Unique
// flags, so a multi-column UNIQUE(a, b) is reported as one index, not two.
func NewTableMeta(info *domain.TableInfo) TableMeta {
	a := &tableMetaAdapter{
		info:   info,
		byName: make(map[string]*domain.ColumnInfo, len(info.Columns)),
	}
	for i := range info.Columns {
		col := &info.Columns[i]
		a.byName[col.Name] = col
	}

	seen := make(map[string]bool)
	if info.Atts != nil {
		if raw, ok := info.Atts["__indexes__"]; ok {
			if idxList, ok := raw.([]*domain.Index); ok {
				for _, idx := range idxList {
					if !idx.Unique && !idx.Primary {
						continue
					}
					a.uniques = append(a.uniques, UniqueIndex{Name: idx.Name, Columns: idx.Columns, Primary: idx.Primary})
					for _, c := range idx.Columns {
						seen[c] = true
					}
				}
			}
		}
	}

	var primaryCols []string
	for _, col := range info.Columns {
		if col.Primary && !seen[col.Name] {
			primaryCols = append(primaryCols, col.Name)
		}
	}
	if len(primaryCols) > 0 {
		a.uniques = append(a.uniques, UniqueIndex{Name: "PRIMARY", Columns: primaryCols, Primary: true})
		for _, c := range primaryCols {
			seen[c] = true
		}
	}
	for _, col := range info.Columns {
		if col.Unique && !seen[col.Name] {
			a.uniques = append(a.uniques, UniqueIndex{Name: "uq_" + col.Name, Columns: []string{col.Name}})
			seen[col.Name] = true
		}
	}

	return a
}

func (a *tableMetaAdapter) Info() *domain.TableInfo { return a.info }

func (a *tableMetaAdapter) Column(name string) (*domain.ColumnInfo, bool) {
	col, ok := a.byName[name]
	return col, ok
}

func (a *tableMetaAdapter) UniqueIndexes() []UniqueIndex { return a.uniques }
