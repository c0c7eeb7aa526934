package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framewire/framewire/internal/testutil"
	"github.com/framewire/framewire/pkg/wire"
)

// exprOps appends an encoded expression and its consuming operation.
func exprOps(e wire.Expr, consumer wire.Opcode) wire.Pipeline {
	return append(wire.Pipeline(e.Operations()), wire.Operation{Opcode: consumer})
}

func collect() wire.Operation {
	return wire.Operation{Opcode: wire.OpCollect}
}

func TestExecute_FilterCount(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := exprOps(wire.Col("age").Gt(wire.Lit(28)), wire.OpFilterExpr)
	ops = append(ops, wire.Operation{Opcode: wire.OpCount, Args: wire.CountArgs{}}, collect())

	res := rt.Execute(context.Background(), h, ops)
	require.True(t, res.Ok(), "pipeline failed: %s", res.Message)
	require.Equal(t, ContextTable, res.Context)
	require.Equal(t, FrameNone, res.Frame)
	require.NotEqual(t, h, res.Handle, "the input handle is not reused")

	df, err := rt.Table(res.Handle)
	require.NoError(t, err)
	require.Equal(t, int64(4), df.Series[0].Value(0))

	// The input handle stays owned by the caller.
	_, err = rt.Table(h)
	require.NoError(t, err)
}

func TestExecute_EmptyPipeline(t *testing.T) {
	rt := NewRuntime()
	res := rt.Execute(context.Background(), 0, nil)
	require.False(t, res.Ok())
	require.Equal(t, CodeDecode, res.Code)
	require.Equal(t, FrameNone, res.Frame)
}

func TestExecute_InvalidHandle(t *testing.T) {
	rt := NewRuntime()
	res := rt.Execute(context.Background(), 42, wire.Pipeline{collect()})
	require.Equal(t, CodeLifecycle, res.Code)
	require.Equal(t, FrameNone, res.Frame)
}

func TestExecute_FrameAttribution(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	// Frames: 0 column, 1 literal, 2 gt, 3 filter. The missing column is
	// only noticed when the filter evaluates the tree at frame 3.
	ops := exprOps(wire.Col("missing").Gt(wire.Lit(1)), wire.OpFilterExpr)
	ops = append(ops, collect())

	res := rt.Execute(context.Background(), h, ops)
	require.False(t, res.Ok())
	require.Equal(t, CodeEngine, res.Code)
	require.Equal(t, 3, res.Frame)
	require.Contains(t, res.Message, "missing")
}

func TestExecute_LatchedConstructionError(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	// A ddof of 3 latches at construction and surfaces at its frame.
	ops := exprOps(wire.Col("salary").Std(3), wire.OpSelectExpr)
	ops = append(ops, collect())

	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeDecode, res.Code)
	require.Equal(t, 0, res.Frame)
	require.Contains(t, res.Message, "ddof must be 0 (population) or 1 (sample)")
}

func TestExecute_StackUnderflow(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := wire.Pipeline{{Opcode: wire.OpExprAdd}, collect()}
	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeExpression, res.Code)
	require.Equal(t, 0, res.Frame)
	require.Contains(t, res.Message, "not enough operands for EXPR_ADD: need 2, have 0")
}

func TestExecute_UnconsumedStack(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	// An expression nothing consumes is an imbalance, attributed to the
	// last frame.
	ops := wire.Pipeline(wire.Col("age").Operations())
	ops = append(ops, collect())

	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeExpression, res.Code)
	require.Equal(t, len(ops)-1, res.Frame)
}

func TestExecute_ConsumerNeedsExactlyOneTree(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := wire.Pipeline(wire.Col("age").Operations())
	ops = append(ops, wire.Col("salary").Operations()...)
	ops = append(ops, wire.Operation{Opcode: wire.OpSelectExpr}, collect())

	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeExpression, res.Code)
	require.Contains(t, res.Message, "expected exactly one")
}

func TestExecute_ErrorOpcode(t *testing.T) {
	rt := NewRuntime()
	ops := wire.Pipeline{
		{Opcode: wire.OpError, Args: wire.ErrorArgs{Message: "boom"}},
		collect(),
	}
	res := rt.Execute(context.Background(), 0, ops)
	require.Equal(t, CodeDecode, res.Code)
	require.Equal(t, 0, res.Frame)
	require.Contains(t, res.Message, "boom")
}

func TestExecute_BadArgsRecord(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	// OpLimit with the wrong record type is a decode failure.
	ops := wire.Pipeline{
		{Opcode: wire.OpLimit, Args: wire.SelectArgs{Columns: []string{"x"}}},
		collect(),
	}
	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeDecode, res.Code)
	require.Equal(t, 0, res.Frame)
}

func TestExecute_UnknownOpcode(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	res := rt.Execute(context.Background(), h, wire.Pipeline{{Opcode: wire.Opcode(55)}})
	require.Equal(t, CodeDecode, res.Code)
}

func TestExecute_GroupByAgg(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := wire.Pipeline{
		{Opcode: wire.OpGroupBy, Args: wire.SelectArgs{Columns: []string{"department"}}},
	}
	ops = append(ops, wire.Col("salary").Mean().Alias("avg").Operations()...)
	ops = append(ops, wire.Operation{Opcode: wire.OpAgg, Args: wire.AggArgs{NumExprs: 1}}, collect())

	res := rt.Execute(context.Background(), h, ops)
	require.True(t, res.Ok(), "pipeline failed: %s", res.Message)

	df, err := rt.Table(res.Handle)
	require.NoError(t, err)
	require.Equal(t, 3, df.Series[0].NRows())
	require.Equal(t, "avg", df.Series[1].Name())
}

func TestExecute_GroupedContextBlocksOtherOps(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := wire.Pipeline{
		{Opcode: wire.OpGroupBy, Args: wire.SelectArgs{Columns: []string{"department"}}},
		{Opcode: wire.OpLimit, Args: wire.LimitArgs{N: 1}},
	}
	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeLifecycle, res.Code)
	require.Equal(t, 1, res.Frame)
	require.Contains(t, res.Message, "call Agg() first")
}

func TestExecute_AggWithoutGroupBy(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := wire.Pipeline(wire.Col("salary").Mean().Operations())
	ops = append(ops, wire.Operation{Opcode: wire.OpAgg, Args: wire.AggArgs{NumExprs: 1}})

	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeLifecycle, res.Code)
	require.Contains(t, res.Message, "Agg() can only be called on LazyGroupBy")
}

func TestExecute_AggExpressionCountMismatch(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := wire.Pipeline{
		{Opcode: wire.OpGroupBy, Args: wire.SelectArgs{Columns: []string{"department"}}},
	}
	ops = append(ops, wire.Col("salary").Mean().Operations()...)
	ops = append(ops, wire.Operation{Opcode: wire.OpAgg, Args: wire.AggArgs{NumExprs: 2}})

	res := rt.Execute(context.Background(), h, ops)
	require.Equal(t, CodeExpression, res.Code)
}

func TestExecute_GroupedHandlePersists(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	// A pipeline may end grouped; the handle then carries the grouped
	// context and a later pipeline can run Agg against it.
	ops := wire.Pipeline{
		{Opcode: wire.OpGroupBy, Args: wire.SelectArgs{Columns: []string{"department"}}},
	}
	res := rt.Execute(context.Background(), h, ops)
	require.True(t, res.Ok(), "pipeline failed: %s", res.Message)
	require.Equal(t, ContextGrouped, res.Context)

	agg := wire.Pipeline(wire.Col("salary").Max().Operations())
	agg = append(agg, wire.Operation{Opcode: wire.OpAgg, Args: wire.AggArgs{NumExprs: 1}}, collect())
	res2 := rt.Execute(context.Background(), res.Handle, agg)
	require.True(t, res2.Ok(), "pipeline failed: %s", res2.Message)
	require.Equal(t, ContextTable, res2.Context)
}

func TestExecute_ConcatConsumesHandles(t *testing.T) {
	rt := NewRuntime()
	h1 := rt.Register(testutil.MakeSimpleFrame())
	h2 := rt.Register(testutil.MakeSimpleFrame())

	ops := wire.Pipeline{
		{Opcode: wire.OpConcat, Args: wire.ConcatArgs{Handles: []uint64{h1, h2}}},
		collect(),
	}
	res := rt.Execute(context.Background(), 0, ops)
	require.True(t, res.Ok(), "pipeline failed: %s", res.Message)

	n, err := rt.RowCount(res.Handle)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	// Ownership transferred: the source handles are gone.
	_, err = rt.Table(h1)
	require.ErrorIs(t, err, ErrInvalidHandle)
	_, err = rt.Table(h2)
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.Equal(t, 1, rt.OpenHandles())
}

func TestExecute_ConcatConsumesOnFailureToo(t *testing.T) {
	rt := NewRuntime()
	h1 := rt.Register(testutil.MakeSimpleFrame())

	ops := wire.Pipeline{
		{Opcode: wire.OpConcat, Args: wire.ConcatArgs{Handles: []uint64{h1, 999}}},
		collect(),
	}
	res := rt.Execute(context.Background(), 0, ops)
	require.False(t, res.Ok())
	require.Equal(t, CodeLifecycle, res.Code)

	// The valid handle was still consumed.
	_, err := rt.Table(h1)
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.Equal(t, 0, rt.OpenHandles())
}

func TestExecute_JoinBorrowsRightHandle(t *testing.T) {
	rt := NewRuntime()
	left := rt.Register(testutil.MakeSimpleFrame())
	right := rt.Register(testutil.MakeSimpleFrame())

	ops := wire.Pipeline{
		{Opcode: wire.OpJoin, Args: wire.JoinArgs{
			RightHandle: right,
			LeftOn:      []string{"a"},
			RightOn:     []string{"a"},
			How:         wire.JoinInner,
		}},
		collect(),
	}
	res := rt.Execute(context.Background(), left, ops)
	require.True(t, res.Ok(), "pipeline failed: %s", res.Message)

	// The right handle survives the join.
	_, err := rt.Table(right)
	require.NoError(t, err)
}

func TestExecute_RequiresInputTable(t *testing.T) {
	rt := NewRuntime()
	ops := wire.Pipeline{
		{Opcode: wire.OpSort, Args: wire.SortArgs{Fields: []wire.SortField{wire.Asc("x")}}},
	}
	res := rt.Execute(context.Background(), 0, ops)
	require.Equal(t, CodeLifecycle, res.Code)
	require.Contains(t, res.Message, "requires an input table")
}

func TestExecute_OperationLimit(t *testing.T) {
	rt := NewRuntime(WithMaxOps(2))
	h := rt.Register(testutil.MakePeopleFrame())

	ops := exprOps(wire.Col("age").Gt(wire.Lit(28)), wire.OpFilterExpr)
	res := rt.Execute(context.Background(), h, ops)
	require.False(t, res.Ok())
	require.Equal(t, 2, res.Frame)
	require.Contains(t, res.Message, "operation limit exceeded")
}

func TestExecute_SandboxDeniesLoad(t *testing.T) {
	rt := NewRuntime(WithSandbox("/nonexistent-allowed-root"))

	path := testutil.TempCSV(t, testutil.SimpleCSV())
	ops := wire.Pipeline{
		{Opcode: wire.OpReadCSV, Args: wire.ReadCSVArgs{Path: path, HasHeader: true}},
		collect(),
	}
	res := rt.Execute(context.Background(), 0, ops)
	require.False(t, res.Ok())
	require.Contains(t, res.Message, "denied")
}

func TestExecute_ReadCSV(t *testing.T) {
	rt := NewRuntime()
	path := testutil.TempCSV(t, testutil.PeopleCSV())

	ops := wire.Pipeline{
		{Opcode: wire.OpReadCSV, Args: wire.ReadCSVArgs{Path: path, HasHeader: true}},
		collect(),
	}
	res := rt.Execute(context.Background(), 0, ops)
	require.True(t, res.Ok(), "pipeline failed: %s", res.Message)

	n, err := rt.RowCount(res.Handle)
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestExecute_ContextCancellation(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := rt.Execute(ctx, h, wire.Pipeline{collect()})
	require.False(t, res.Ok())
	require.Equal(t, 0, res.Frame)
}

func TestExecute_FailureRegistersNoHandle(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())
	before := rt.OpenHandles()

	ops := exprOps(wire.Col("missing").Gt(wire.Lit(1)), wire.OpFilterExpr)
	res := rt.Execute(context.Background(), h, ops)
	require.False(t, res.Ok())
	require.Zero(t, res.Handle)
	require.Equal(t, before, rt.OpenHandles(), "failed pipelines leak no handles")
}

func TestExecute_WithColumnAndSort(t *testing.T) {
	rt := NewRuntime()
	h := rt.Register(testutil.MakePeopleFrame())

	ops := exprOps(wire.Col("salary").Mul(wire.Lit(2)).Alias("double"), wire.OpWithColumn)
	ops = append(ops,
		wire.Operation{Opcode: wire.OpSort, Args: wire.SortArgs{Fields: []wire.SortField{wire.Desc("double")}}},
		wire.Operation{Opcode: wire.OpLimit, Args: wire.LimitArgs{N: 1}},
		collect(),
	)
	res := rt.Execute(context.Background(), h, ops)
	require.True(t, res.Ok(), "pipeline failed: %s", res.Message)

	df, err := rt.Table(res.Handle)
	require.NoError(t, err)
	idx, err := df.NameToColumn("double")
	require.NoError(t, err)
	require.Equal(t, int64(140000), df.Series[idx].Value(0))
}
