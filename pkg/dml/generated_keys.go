package dml

import (
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/kasuganosora/dmlexec/pkg/resource/domain"
)

// GeneratedKeysRequest names which columns of the FINAL row image the
// client wants back, per spec.md §4.7. Exactly one of the three selectors
// should be set by the caller; All takes priority over Indexes, which takes
// priority over Names.
type GeneratedKeysRequest struct {
	All     bool
	Indexes []int    // 1-based
	Names   []string // case-insensitive
}

// GeneratedKeysProjector builds the client-facing result for
// update_with_generated_keys(): a row stream restricted to the columns the
// request selected, read off each FINAL row Driver.Run already emitted.
type GeneratedKeysProjector struct {
	meta    TableMeta
	columns []string // resolved at construction time, empty means "no projection requested"
}

// NewGeneratedKeysProjector resolves req against meta once per statement,
// so a bad integer index or unresolvable name fails before any row is
// touched rather than partway through the apply phase.
func NewGeneratedKeysProjector(meta TableMeta, req GeneratedKeysRequest) (*GeneratedKeysProjector, error) {
	info := meta.Info()

	switch {
	case req.All:
		var cols []string
		for _, col := range info.Columns {
			if col.Identity || isNonConstantDefault(col) || col.Primary {
				cols = append(cols, col.Name)
			}
		}
		return &GeneratedKeysProjector{meta: meta, columns: cols}, nil

	case len(req.Indexes) > 0:
		cols := make([]string, 0, len(req.Indexes))
		for _, idx := range req.Indexes {
			if idx < 1 || idx > len(info.Columns) {
				return nil, NewErrColumnNotFound("#"+strconv.Itoa(idx), info.Name)
			}
			cols = append(cols, info.Columns[idx-1].Name)
		}
		return &GeneratedKeysProjector{meta: meta, columns: cols}, nil

	case len(req.Names) > 0:
		cols := make([]string, 0, len(req.Names))
		for _, name := range req.Names {
			resolved, ok := resolveColumnNameFold(info, name)
			if !ok {
				return nil, NewErrColumnNotFound(name, info.Name)
			}
			cols = append(cols, resolved)
		}
		return &GeneratedKeysProjector{meta: meta, columns: cols}, nil

	default:
		return &GeneratedKeysProjector{meta: meta}, nil
	}
}

// Project restricts one FINAL row image to the resolved column set. A
// projector built from an empty request returns nil, signalling "no
// generated-keys result", which the caller must distinguish from "result
// with zero rows".
func (p *GeneratedKeysProjector) Project(row domain.Row) domain.Row {
	if len(p.columns) == 0 {
		return nil
	}
	out := make(domain.Row, len(p.columns))
	for _, c := range p.columns {
		out[c] = row[c]
	}
	return out
}

// Sink returns a DeltaSink bound to DeltaModeFinal that projects every
// emitted row into dst, the shape Driver.Run's caller wires up for
// update_with_generated_keys. Rows are appended even when the projector
// selects zero columns, producing the "empty result with the normal update
// count" spec.md §4.7 calls for — the caller decides whether to surface
// dst at all based on Requested().
type generatedKeysSink struct {
	projector *GeneratedKeysProjector
	dst       *[]domain.Row
}

func (p *GeneratedKeysProjector) Sink(dst *[]domain.Row) DeltaSink {
	return &generatedKeysSink{projector: p, dst: dst}
}

func (s *generatedKeysSink) Emit(mode DeltaMode, row domain.Row) error {
	if mode != DeltaModeFinal {
		return nil
	}
	*s.dst = append(*s.dst, s.projector.Project(row))
	return nil
}

// Requested reports whether this statement actually asked for a
// generated-keys projection.
func (p *GeneratedKeysProjector) Requested() bool {
	return len(p.columns) > 0
}

// isNonConstantDefault reports whether a column's DEFAULT is something
// other than a fixed literal — a generator expression like now() or a
// sequence/UUID call — which spec.md §4.7's boolean form also treats as
// "auto-ish" alongside identity and primary-key columns.
func isNonConstantDefault(col domain.ColumnInfo) bool {
	if col.Default == "" {
		return false
	}
	switch col.Default {
	case "now()", "current_timestamp", "uuid()", "gen_random_uuid()", "nextval":
		return true
	default:
		return false
	}
}

// resolveColumnNameFold matches name against info's columns case-
// insensitively via golang.org/x/text/cases (the same Unicode case-folding
// machinery pkg/utils/collation.go wraps for collation-aware comparison,
// used directly here rather than through a full CollationEngine since this
// is a plain identifier match, not a data comparison).
var caseFold = cases.Fold()

func resolveColumnNameFold(info *domain.TableInfo, name string) (string, bool) {
	target := caseFold.String(name)
	for _, col := range info.Columns {
		if caseFold.String(col.Name) == target {
			return col.Name, true
		}
	}
	return "", false
}

// NewGeneratedUUID produces a v4 UUID for an identity column whose declared
// type is UUID rather than an auto-increment integer, the form spec.md
// §4.7's "identity" bucket covers abstractly without naming a concrete key
// generator.
func NewGeneratedUUID() string {
	return uuid.New().String()
}
