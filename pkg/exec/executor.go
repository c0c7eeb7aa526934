package exec

import (
	"context"
	"fmt"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"go.uber.org/zap"

	"github.com/framewire/framewire/pkg/engine"
	"github.com/framewire/framewire/pkg/loader"
	"github.com/framewire/framewire/pkg/wire"
)

// Execute runs a pipeline strictly in order against the table behind
// handle (0 when the pipeline starts with a load). Expression operations
// stream into a stack until a dataframe operation consumes the finished
// tree; the first failing operation stops execution and is reported with
// its frame index.
//
// Only the final table of a successful pipeline is registered; the input
// handle stays owned by the caller. Concat source handles are the one
// exception: ownership transfers and they are always released.
func (r *Runtime) Execute(ctx context.Context, handle uint64, ops wire.Pipeline) Result {
	if len(ops) == 0 {
		return r.fail(FrameNone, ErrEmptyPipeline)
	}

	var (
		df       *dataframe.DataFrame
		grouping *engine.Grouping
		ctxType  = ContextLazy
	)
	if handle != 0 {
		e, err := r.handles.get(handle)
		if err != nil {
			return r.fail(FrameNone, err)
		}
		df, grouping, ctxType = e.df, e.grouping, e.context
	}

	stack := &exprStack{}
	var steps int64

	for frame, op := range ops {
		if err := ctx.Err(); err != nil {
			return r.fail(frame, err)
		}
		steps++
		if r.maxOps > 0 && steps > r.maxOps {
			return r.fail(frame, ErrOpLimit)
		}

		if op.Opcode == wire.OpError {
			msg := "invalid operation"
			if args, err := wire.ArgsAs[wire.ErrorArgs](op); err == nil {
				msg = args.Message
			}
			return r.fail(frame, fmt.Errorf("%w: %s", wire.ErrBadArgs, msg))
		}

		if op.Opcode.IsExpression() {
			if err := stack.apply(op); err != nil {
				return r.fail(frame, err)
			}
			continue
		}

		var err error
		df, grouping, ctxType, err = r.applyFrameOp(ctx, op, df, grouping, ctxType, stack)
		if err != nil {
			return r.fail(frame, err)
		}
	}

	if stack.depth() != 0 {
		return r.fail(len(ops)-1,
			fmt.Errorf("%w: %d expression values left unconsumed", ErrStackImbalance, stack.depth()))
	}
	if df == nil && grouping == nil {
		return r.fail(FrameNone, ErrNoResult)
	}

	out := r.handles.insert(&entry{df: df, grouping: grouping, context: ctxType})
	r.logger.Debug("pipeline executed",
		zap.Int("operations", len(ops)),
		zap.Uint64("handle", out),
		zap.String("context", ctxType.String()))
	return Result{Handle: out, Context: ctxType, Frame: FrameNone}
}

// applyFrameOp dispatches one dataframe opcode against the working state.
func (r *Runtime) applyFrameOp(
	ctx context.Context,
	op wire.Operation,
	df *dataframe.DataFrame,
	grouping *engine.Grouping,
	ctxType ContextType,
	stack *exprStack,
) (*dataframe.DataFrame, *engine.Grouping, ContextType, error) {
	fail := func(err error) (*dataframe.DataFrame, *engine.Grouping, ContextType, error) {
		return nil, nil, ContextNone, err
	}

	// Everything except Agg operates on a plain table.
	if grouping != nil && op.Opcode != wire.OpAgg {
		return fail(fmt.Errorf("%w: %s cannot be applied to a grouped table, call Agg() first",
			ErrContextMismatch, op.Opcode))
	}

	// Operations that transform an existing table need one to exist.
	switch op.Opcode {
	case wire.OpNewEmpty, wire.OpReadCSV, wire.OpReadParquet, wire.OpReadJSON, wire.OpConcat:
	default:
		if df == nil {
			return fail(fmt.Errorf("%w: %s requires an input table", ErrContextMismatch, op.Opcode))
		}
	}

	switch op.Opcode {
	case wire.OpNewEmpty:
		return engine.NewEmpty(), nil, ContextLazy, nil

	case wire.OpReadCSV:
		args, err := wire.ArgsAs[wire.ReadCSVArgs](op)
		if err != nil {
			return fail(err)
		}
		if !r.isPathAllowed(args.Path) {
			return fail(fmt.Errorf("%w: %s", ErrPathDenied, args.Path))
		}
		out, err := loader.LoadCSV(ctx, args)
		if err != nil {
			return fail(err)
		}
		return out, nil, ContextLazy, nil

	case wire.OpReadParquet:
		args, err := wire.ArgsAs[wire.ReadParquetArgs](op)
		if err != nil {
			return fail(err)
		}
		if !r.isPathAllowed(args.Path) {
			return fail(fmt.Errorf("%w: %s", ErrPathDenied, args.Path))
		}
		out, err := loader.LoadParquet(ctx, args)
		if err != nil {
			return fail(err)
		}
		return out, nil, ContextLazy, nil

	case wire.OpReadJSON:
		args, err := wire.ArgsAs[wire.ReadJSONArgs](op)
		if err != nil {
			return fail(err)
		}
		if !r.isPathAllowed(args.Path) {
			return fail(fmt.Errorf("%w: %s", ErrPathDenied, args.Path))
		}
		out, err := loader.LoadJSON(ctx, args.Path)
		if err != nil {
			return fail(err)
		}
		return out, nil, ContextLazy, nil

	case wire.OpConcat:
		args, err := wire.ArgsAs[wire.ConcatArgs](op)
		if err != nil {
			return fail(err)
		}
		frames, err := r.consumeConcatHandles(args.Handles)
		if err != nil {
			return fail(err)
		}
		out, err := engine.Concat(frames)
		if err != nil {
			return fail(err)
		}
		return out, nil, ContextLazy, nil

	case wire.OpSelect:
		args, err := wire.ArgsAs[wire.SelectArgs](op)
		if err != nil {
			return fail(err)
		}
		out, err := engine.Select(df, args.Columns)
		if err != nil {
			return fail(err)
		}
		return out, nil, ctxType, nil

	case wire.OpSelectExpr:
		tree, err := stack.takeOne()
		if err != nil {
			return fail(err)
		}
		col, err := evalNamed(df, tree)
		if err != nil {
			return fail(err)
		}
		return engine.FromColumns(col), nil, ctxType, nil

	case wire.OpWithColumn:
		tree, err := stack.takeOne()
		if err != nil {
			return fail(err)
		}
		col, err := evalNamed(df, tree)
		if err != nil {
			return fail(err)
		}
		out, err := engine.WithColumn(df, col)
		if err != nil {
			return fail(err)
		}
		return out, nil, ctxType, nil

	case wire.OpFilterExpr:
		tree, err := stack.takeOne()
		if err != nil {
			return fail(err)
		}
		mask, err := engine.Eval(df, tree)
		if err != nil {
			return fail(err)
		}
		out, err := engine.Filter(df, mask)
		if err != nil {
			return fail(err)
		}
		return out, nil, ctxType, nil

	case wire.OpCount:
		args, err := wire.ArgsAs[wire.CountArgs](op)
		if err != nil {
			return fail(err)
		}
		return engine.CountTable(df, args.IncludeNulls), nil, ctxType, nil

	case wire.OpGroupBy:
		args, err := wire.ArgsAs[wire.SelectArgs](op)
		if err != nil {
			return fail(err)
		}
		g, err := engine.Group(df, args.Columns)
		if err != nil {
			return fail(err)
		}
		return df, g, ContextGrouped, nil

	case wire.OpAgg:
		args, err := wire.ArgsAs[wire.AggArgs](op)
		if err != nil {
			return fail(err)
		}
		if grouping == nil {
			return fail(fmt.Errorf("%w: Agg() can only be called on LazyGroupBy", ErrContextMismatch))
		}
		trees := stack.takeAll()
		if args.NumExprs > 0 && args.NumExprs != len(trees) {
			return fail(fmt.Errorf("%w: Agg() encoded %d expressions but %d were provided",
				ErrStackImbalance, args.NumExprs, len(trees)))
		}
		out, err := grouping.Aggregate(trees)
		if err != nil {
			return fail(err)
		}
		return out, nil, ContextLazy, nil

	case wire.OpAddNullRow:
		return engine.AddNullRow(df), nil, ctxType, nil

	case wire.OpSort:
		args, err := wire.ArgsAs[wire.SortArgs](op)
		if err != nil {
			return fail(err)
		}
		out, err := engine.Sort(df, args.Fields)
		if err != nil {
			return fail(err)
		}
		return out, nil, ctxType, nil

	case wire.OpLimit:
		args, err := wire.ArgsAs[wire.LimitArgs](op)
		if err != nil {
			return fail(err)
		}
		out, err := engine.Limit(df, args.N)
		if err != nil {
			return fail(err)
		}
		return out, nil, ctxType, nil

	case wire.OpJoin:
		args, err := wire.ArgsAs[wire.JoinArgs](op)
		if err != nil {
			return fail(err)
		}
		right, err := r.handles.get(args.RightHandle)
		if err != nil {
			return fail(err)
		}
		if right.grouping != nil {
			return fail(fmt.Errorf("%w: cannot join against a grouped table", ErrContextMismatch))
		}
		out, err := engine.Join(df, right.df, args.LeftOn, args.RightOn, args.How)
		if err != nil {
			return fail(err)
		}
		return out, nil, ctxType, nil

	case wire.OpCollect:
		return df, nil, ContextTable, nil

	default:
		return fail(fmt.Errorf("%w: %d", ErrUnknownOpcode, op.Opcode))
	}
}

// consumeConcatHandles removes every listed handle from the table, success
// or failure, and returns the tables they held. The first invalid handle is
// reported after all of them have been released.
func (r *Runtime) consumeConcatHandles(handles []uint64) ([]*dataframe.DataFrame, error) {
	var frames []*dataframe.DataFrame
	var firstErr error
	for _, h := range handles {
		e, err := r.handles.get(h)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if e.grouping != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: cannot concat a grouped table", ErrContextMismatch)
			}
		} else {
			frames = append(frames, e.df)
		}
		r.handles.remove(h)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return frames, nil
}

// evalNamed evaluates a tree and lands the column under its output name.
func evalNamed(df *dataframe.DataFrame, tree *engine.Expr) (dataframe.Series, error) {
	col, err := engine.Eval(df, tree)
	if err != nil {
		return nil, err
	}
	if name := tree.OutputName(); col.Name() != name {
		col = col.Copy()
		col.Rename(name)
	}
	return col, nil
}

func (r *Runtime) fail(frame int, err error) Result {
	msg := err.Error()
	code := classify(err)
	id := r.messages.register(msg)
	r.logger.Debug("pipeline failed",
		zap.Int("frame", frame),
		zap.String("code", code.String()),
		zap.Error(err))
	return Result{Code: code, Frame: frame, Message: msg, MessageID: id}
}
