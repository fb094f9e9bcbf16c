package dml

import "context"

// NoOpStatement represents a statement the planner determined has no
// effect before the DML core ever sees a row — e.g. `UPDATE t SET x = x
// WHERE FALSE`, or a MERGE whose WHEN list was pruned down to nothing.
// Grounded on the statement-kind dispatch idiom in pkg/optimizer/plan,
// where a Plan node can likewise be a recognized no-op short-circuited
// before execution rather than run through the general operator tree.
type NoOpStatement struct {
	reason string
}

// NewNoOpStatement records why the statement was recognized as empty, for
// trace/EXPLAIN output.
func NewNoOpStatement(reason string) *NoOpStatement {
	return &NoOpStatement{reason: reason}
}

// Run executes nothing and reports zero affected rows; AFTER_STATEMENT
// still does not fire for a NoOpStatement, since it was never determined
// to be a real INSERT/UPDATE/DELETE/MERGE in the first place.
func (n *NoOpStatement) Run(context.Context) (StatementTrace, error) {
	return StatementTrace{}, nil
}

// IsTransactional reports whether this statement would have opened a
// transaction had it actually run. A NoOpStatement never does.
func (n *NoOpStatement) IsTransactional() bool { return false }

// NeedRecompile reports whether the plan that produced this no-op needs to
// be re-planned on the next execution (e.g. the pruning decision was based
// on a parameter value that could differ on re-bind).
func (n *NoOpStatement) NeedRecompile() bool { return false }

func (n *NoOpStatement) Reason() string { return n.reason }

// TxnBarrier represents a transaction-control statement (COMMIT, ROLLBACK,
// SAVEPOINT, SET TRANSACTION) that the DML core passes through without row
// iteration: it only needs to report whether it is itself transactional
// and whether the surrounding plan must be recompiled afterward.
type TxnBarrier struct {
	kind          string
	transactional bool
	recompile     bool
}

// NewTxnBarrier builds a barrier for one transaction-control statement
// kind. transactional is true for statements that open or continue a
// transaction (e.g. SAVEPOINT inside one); recompile is true when a
// cached plan spanning this barrier must be discarded (e.g. after
// ROLLBACK, since table state may have changed underneath it).
func NewTxnBarrier(kind string, transactional, recompile bool) *TxnBarrier {
	return &TxnBarrier{kind: kind, transactional: transactional, recompile: recompile}
}

func (b *TxnBarrier) Kind() string { return b.kind }

func (b *TxnBarrier) IsTransactional() bool { return b.transactional }

func (b *TxnBarrier) NeedRecompile() bool { return b.recompile }

// Run executes the barrier against the session's transaction control,
// reporting zero affected rows regardless of outcome.
func (b *TxnBarrier) Run(ctx context.Context, session Session) (StatementTrace, error) {
	var err error
	switch b.kind {
	case "COMMIT":
		err = session.CommitTx(ctx)
	case "ROLLBACK":
		err = session.RollbackTx(ctx)
	case "BEGIN", "START TRANSACTION":
		_, err = session.BeginTx(ctx)
	}
	return StatementTrace{}, err
}
