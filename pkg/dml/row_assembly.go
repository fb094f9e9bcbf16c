package dml

import (
	"fmt"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
	"github.com/kasuganosora/dmlexec/pkg/resource/generated"
)

// OverridingSystem controls whether an explicit value for an identity
// column is honored (OVERRIDING SYSTEM VALUE) or discarded in favor of the
// column's own generator (the default, no override).
type OverridingSystem bool

const (
	OverridingSystemValue OverridingSystem = true
	OverridingUserValue   OverridingSystem = false
)

// RowAssembler builds fully-typed, defaults-filled rows for INSERT and
// UPDATE, delegating identity/default/type-conversion/generated-column work
// to the storage engine's own conversion step (convert_insert_row /
// convert_update_row), mirrored here against domain.Row directly rather than
// a concrete storage engine.
type RowAssembler struct {
	meta      TableMeta
	evaluator *generated.GeneratedColumnEvaluator
	session   Session
}

// NewRowAssembler builds a RowAssembler bound to one table for the
// lifetime of one statement.
func NewRowAssembler(meta TableMeta, session Session) *RowAssembler {
	return &RowAssembler{
		meta:      meta,
		evaluator: generated.NewGeneratedColumnEvaluator(),
		session:   session,
	}
}

// BuildInsertRow assembles one row for INSERT. targetedColumns and
// valueExpressions must be the same length (already arity-checked by the
// caller against stmt.Columns/Values); a DEFAULT marker value is recognised
// via isDefaultMarker and simply skipped, leaving the column to be filled by
// ConvertInsertRow.
func (a *RowAssembler) BuildInsertRow(targetedColumns []string, valueExpressions []interface{}, overriding OverridingSystem) (domain.Row, error) {
	info := a.meta.Info()
	if len(targetedColumns) != len(valueExpressions) {
		return nil, NewErrColumnCountMismatch(info.Name, len(targetedColumns), len(valueExpressions))
	}

	row := make(domain.Row, len(info.Columns))
	for _, col := range info.Columns {
		row[col.Name] = nil
	}

	for i, colName := range targetedColumns {
		col, ok := a.meta.Column(colName)
		if !ok {
			return nil, NewErrColumnNotFound(colName, info.Name)
		}
		val := valueExpressions[i]
		if isDefaultMarker(val) {
			continue
		}
		if col.IsGenerated && col.GeneratedAlways {
			return nil, NewErrGeneratedColumnAssigned(colName, info.Name)
		}
		row[colName] = val
	}

	return a.ConvertInsertRow(row, overriding)
}

// ConvertInsertRow fills identity columns (respecting overriding), applies
// defaults to unset non-identity columns, runs type conversion and
// evaluates STORED generated columns from the settled row, then enforces
// NOT NULL.
func (a *RowAssembler) ConvertInsertRow(row domain.Row, overriding OverridingSystem) (domain.Row, error) {
	info := a.meta.Info()

	for _, col := range info.Columns {
		val, explicit := row[col.Name]
		explicit = explicit && val != nil

		if col.Identity {
			if explicit && overriding == OverridingSystemValue {
				// keep the caller's value
			} else if col.AutoIncrement {
				row[col.Name] = nil // caller's storage layer assigns the next counter value
			}
			continue
		}

		if !explicit {
			if col.Default != "" {
				row[col.Name] = col.Default
			}
			continue
		}

		converted, err := generated.CastToType(val, col.Type)
		if err != nil {
			return nil, NewErrDataConversion(col.Name, val, col.Type)
		}
		row[col.Name] = converted
	}

	evaluated, err := a.evaluator.EvaluateAll(row, info)
	if err != nil {
		return nil, err
	}

	if err := enforceNotNull(evaluated, info); err != nil {
		return nil, err
	}
	return evaluated, nil
}

// BuildUpdateRow computes the new row image for one row under a
// SetClauseList, per spec.md §4.1: absent/OnUpdateMarker actions carry the
// old value (NULL for generated columns); Default resets to NULL unless the
// column is an identity, which keeps its value; explicit actions are
// evaluated through SetClauseEngine. Returns whether the row actually
// changed, which matters when updateToCurrentValuesReturnsZero (ANSI
// strictness) is in effect.
func (a *RowAssembler) BuildUpdateRow(old domain.Row, actions *SetClauseList, engine *SetClauseEngine, isOnDuplicateInsert bool) (domain.Row, bool, error) {
	info := a.meta.Info()
	new_ := make(domain.Row, len(old))
	for k, v := range old {
		new_[k] = v
	}

	byColumn := make(map[string]UpdateAction, len(actions.Actions))
	for _, act := range actions.Actions {
		if act.Kind == ActionSimple || act.Kind == ActionDefault {
			byColumn[act.Column] = act
		} else if act.Kind == ActionRowValue {
			for _, c := range act.Columns {
				byColumn[c] = act
			}
		} else if act.Kind == ActionArrayElement {
			byColumn[act.ArrayColumn] = act
		}
	}

	implicitOnUpdate := make(map[string]bool)

	for _, col := range info.Columns {
		act, hasAction := byColumn[col.Name]
		switch {
		case !hasAction:
			if col.IsGenerated {
				new_[col.Name] = nil
			}
			// else: keep old[col.Name], already copied above.
		case act.Kind == ActionDefault:
			if col.Identity {
				// keep old value
			} else {
				new_[col.Name] = nil
			}
		default:
			val, err := engine.Evaluate(act, old, col)
			if err != nil {
				return nil, false, err
			}
			if val == nil && col.DefaultOnNull {
				if col.Default != "" {
					new_[col.Name] = col.Default
				} else {
					new_[col.Name] = nil
				}
			} else if col.IsGenerated && col.GeneratedAlways {
				return nil, false, NewErrGeneratedColumnAssigned(col.Name, info.Name)
			} else {
				new_[col.Name] = val
			}
		}

		if col.OnUpdateExpr != "" {
			implicitOnUpdate[col.Name] = true
		}
	}

	if pk := storageKeyColumn(info); pk != "" {
		new_[pk] = old[pk]
	}

	converted, err := a.ConvertUpdateRow(new_, info)
	if err != nil {
		return nil, false, err
	}

	changed := !rowsEqual(old, converted)
	if changed && len(implicitOnUpdate) > 0 {
		for colName := range implicitOnUpdate {
			col, _ := a.meta.Column(colName)
			if col == nil {
				continue
			}
			if _, explicitlySet := byColumn[colName]; explicitlySet {
				continue
			}
			val, evalErr := a.evaluator.Evaluate(col.OnUpdateExpr, converted, info)
			if evalErr == nil {
				converted[colName] = val
			}
		}
		converted, err = a.ConvertUpdateRow(converted, info)
		if err != nil {
			return nil, false, err
		}
	}

	return converted, changed, nil
}

// ConvertUpdateRow re-applies defaults/type-conversion/generated-column
// recomputation to a row that has just had its SET actions applied.
func (a *RowAssembler) ConvertUpdateRow(row domain.Row, info *domain.TableInfo) (domain.Row, error) {
	for _, col := range info.Columns {
		val, ok := row[col.Name]
		if !ok || val == nil || col.IsGenerated {
			continue
		}
		converted, err := generated.CastToType(val, col.Type)
		if err != nil {
			return nil, NewErrDataConversion(col.Name, val, col.Type)
		}
		row[col.Name] = converted
	}

	evaluated, err := a.evaluator.EvaluateAll(row, info)
	if err != nil {
		return nil, err
	}
	if err := enforceNotNull(evaluated, info); err != nil {
		return nil, err
	}
	return evaluated, nil
}

// defaultMarker is the sentinel BuildInsertRow recognises as the SQL
// DEFAULT keyword in a value-expression position.
type defaultMarker struct{}

// DefaultMarker is the value callers must place in valueExpressions to mean
// "use this column's DEFAULT", matching how the parser represents a bare
// DEFAULT token in an INSERT VALUES list.
var DefaultMarker = defaultMarker{}

func isDefaultMarker(v interface{}) bool {
	_, ok := v.(defaultMarker)
	return ok
}

func enforceNotNull(row domain.Row, info *domain.TableInfo) error {
	for _, col := range info.Columns {
		if col.Nullable || col.Hidden {
			continue
		}
		if v, ok := row[col.Name]; !ok || v == nil {
			return NewErrInvalidValue(col.Name, "column is NOT NULL")
		}
	}
	return nil
}

func storageKeyColumn(info *domain.TableInfo) string {
	for _, col := range info.Columns {
		if col.Primary {
			return col.Name
		}
	}
	return ""
}

func rowsEqual(a, b domain.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok {
			return false
		}
		if fmt.Sprint(v) != fmt.Sprint(ov) {
			return false
		}
	}
	return true
}
