package dml

import "github.com/kasuganosora/dmlexec/pkg/resource/domain"

// DeltaSink receives one row image for a delta stream. RETURNING-style
// clauses and generated-keys projection both bind a sink to one DeltaMode
// and let Driver push rows to it at the right point in the row lifecycle.
type DeltaSink interface {
	Emit(mode DeltaMode, row domain.Row) error
}

// DeltaCollector fans a row out to whichever sinks are bound to the delta
// modes the statement actually requested (OLD for UPDATE/DELETE, NEW for
// INSERT/UPDATE, FINAL for all three once the row has actually been
// applied). Per spec.md §5, emission order is OLD -> NEW -> FINAL for
// UPDATE, NEW -> FINAL for INSERT, OLD for DELETE.
type DeltaCollector struct {
	sinks map[DeltaMode]DeltaSink
}

// NewDeltaCollector builds a collector from an explicit mode->sink binding.
// A statement with no RETURNING/OUTPUT clause and no generated-keys request
// passes an empty map; EmitOld/EmitNew/EmitFinal are then no-ops.
func NewDeltaCollector(sinks map[DeltaMode]DeltaSink) *DeltaCollector {
	if sinks == nil {
		sinks = make(map[DeltaMode]DeltaSink)
	}
	return &DeltaCollector{sinks: sinks}
}

func (c *DeltaCollector) emit(mode DeltaMode, row domain.Row) error {
	sink, ok := c.sinks[mode]
	if !ok || row == nil {
		return nil
	}
	return sink.Emit(mode, row)
}

// EmitOld streams the pre-image of a row being updated or deleted.
func (c *DeltaCollector) EmitOld(row domain.Row) error { return c.emit(DeltaModeOld, row) }

// EmitNew streams the post-image of a row being inserted or updated, before
// it has actually been written to storage.
func (c *DeltaCollector) EmitNew(row domain.Row) error { return c.emit(DeltaModeNew, row) }

// EmitFinal streams the row image as it stood once the statement finished
// applying it.
func (c *DeltaCollector) EmitFinal(row domain.Row) error { return c.emit(DeltaModeFinal, row) }

// Wants reports whether any sink is registered for the given mode, so
// Driver can skip assembling a row image nobody asked for.
func (c *DeltaCollector) Wants(mode DeltaMode) bool {
	_, ok := c.sinks[mode]
	return ok
}

// rowSliceSink is the simplest DeltaSink: it appends every emitted row to an
// in-memory slice, which is what GeneratedKeysProjector and ad-hoc test
// fixtures both want.
type rowSliceSink struct {
	rows *[]domain.Row
}

// NewRowSliceSink returns a sink that appends into dst.
func NewRowSliceSink(dst *[]domain.Row) DeltaSink {
	return &rowSliceSink{rows: dst}
}

func (s *rowSliceSink) Emit(_ DeltaMode, row domain.Row) error {
	*s.rows = append(*s.rows, row)
	return nil
}
