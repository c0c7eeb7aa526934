package frame

import (
	"context"
	"fmt"

	"github.com/framewire/framewire/pkg/exec"
	"github.com/framewire/framewire/pkg/wire"
)

// Error is a pipeline failure as reported by the runtime.
type Error struct {
	Code    exec.Code
	Frame   int
	Message string
}

func (e *Error) Error() string {
	if e.Frame == exec.FrameNone {
		return fmt.Sprintf("%s error: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s error at operation %d: %s", e.Code, e.Frame, e.Message)
}

// DataFrame buffers operations against a handle until Collect submits them
// as one pipeline. A zero handle means the pipeline starts from a load.
type DataFrame struct {
	session *Session
	handle  uint64
	context exec.ContextType
	ops     []wire.Operation
}

// Handle exposes the current handle, 0 before the first Collect.
func (d *DataFrame) Handle() uint64 {
	return d.handle
}

func (d *DataFrame) push(op wire.Operation) *DataFrame {
	d.ops = append(d.ops, op)
	return d
}

func (d *DataFrame) pushExpr(e Expr, consumer wire.Operation) *DataFrame {
	d.ops = append(d.ops, e.Operations()...)
	return d.push(consumer)
}

// errOpf latches a construction failure as an error frame.
func (d *DataFrame) errOpf(format string, args ...any) *DataFrame {
	return d.push(wire.Operation{
		Opcode: wire.OpError,
		Args:   wire.ErrorArgs{Message: fmt.Sprintf(format, args...)},
	})
}

// Select projects the named columns.
func (d *DataFrame) Select(cols ...string) *DataFrame {
	return d.push(wire.Operation{Opcode: wire.OpSelect, Args: wire.SelectArgs{Columns: cols}})
}

// SelectExpr projects a single evaluated expression.
func (d *DataFrame) SelectExpr(e Expr) *DataFrame {
	return d.pushExpr(e, wire.Operation{Opcode: wire.OpSelectExpr})
}

// Filter keeps the rows where e is true.
func (d *DataFrame) Filter(e Expr) *DataFrame {
	return d.pushExpr(e, wire.Operation{Opcode: wire.OpFilterExpr})
}

// WithColumns adds or replaces one column per expression.
func (d *DataFrame) WithColumns(exprs ...Expr) *DataFrame {
	for _, e := range exprs {
		d = d.pushExpr(e, wire.Operation{Opcode: wire.OpWithColumn})
	}
	return d
}

// GroupBy partitions the table; the only operation valid next is Agg.
func (d *DataFrame) GroupBy(cols ...string) *DataFrame {
	if len(cols) == 0 {
		return d.errOpf("GroupBy() requires at least one column")
	}
	return d.push(wire.Operation{Opcode: wire.OpGroupBy, Args: wire.SelectArgs{Columns: cols}})
}

// Agg reduces a grouped table with the given aggregation expressions.
func (d *DataFrame) Agg(exprs ...Expr) *DataFrame {
	if len(exprs) == 0 {
		return d.errOpf("Agg() requires at least one expression")
	}
	for _, e := range exprs {
		d.ops = append(d.ops, e.Operations()...)
	}
	return d.push(wire.Operation{Opcode: wire.OpAgg, Args: wire.AggArgs{NumExprs: len(exprs)}})
}

// Sort reorders rows by the given fields; the sort is stable.
func (d *DataFrame) Sort(fields ...wire.SortField) *DataFrame {
	if len(fields) == 0 {
		return d.errOpf("Sort() requires at least one field")
	}
	return d.push(wire.Operation{Opcode: wire.OpSort, Args: wire.SortArgs{Fields: fields}})
}

// SortBy sorts ascending by the named columns.
func (d *DataFrame) SortBy(cols ...string) *DataFrame {
	fields := make([]wire.SortField, len(cols))
	for i, c := range cols {
		fields[i] = wire.Asc(c)
	}
	return d.Sort(fields...)
}

// Limit keeps the first n rows.
func (d *DataFrame) Limit(n int) *DataFrame {
	if n < 0 {
		return d.errOpf("Limit() requires a non-negative count, got %d", n)
	}
	return d.push(wire.Operation{Opcode: wire.OpLimit, Args: wire.LimitArgs{N: n}})
}

// Join combines this frame with an already-collected right frame on the
// shared key columns. The right frame is borrowed, not consumed.
func (d *DataFrame) Join(right *DataFrame, on []string, how wire.JoinHow) *DataFrame {
	return d.JoinOn(right, on, on, how)
}

// JoinOn joins with distinct key column names per side.
func (d *DataFrame) JoinOn(right *DataFrame, leftOn, rightOn []string, how wire.JoinHow) *DataFrame {
	if right.handle == 0 {
		return d.errOpf("Join() requires a collected right frame")
	}
	return d.push(wire.Operation{Opcode: wire.OpJoin, Args: wire.JoinArgs{
		RightHandle: right.handle,
		LeftOn:      leftOn,
		RightOn:     rightOn,
		How:         how,
	}})
}

// Count reduces the table to a one-row count, excluding rows that are null
// in every column.
func (d *DataFrame) Count() *DataFrame {
	return d.push(wire.Operation{Opcode: wire.OpCount, Args: wire.CountArgs{}})
}

// CountWithNulls counts all physical rows.
func (d *DataFrame) CountWithNulls() *DataFrame {
	return d.push(wire.Operation{Opcode: wire.OpCount, Args: wire.CountArgs{IncludeNulls: true}})
}

// AddNullRow appends an all-null row.
func (d *DataFrame) AddNullRow() *DataFrame {
	return d.push(wire.Operation{Opcode: wire.OpAddNullRow})
}

// Collect submits the buffered pipeline and swaps the handle to the result.
func (d *DataFrame) Collect() (*DataFrame, error) {
	return d.CollectContext(context.Background())
}

// CollectContext is Collect with cancellation.
func (d *DataFrame) CollectContext(ctx context.Context) (*DataFrame, error) {
	d.push(wire.Operation{Opcode: wire.OpCollect})

	ops := d.ops
	d.ops = nil

	res := d.session.rt.Execute(ctx, d.handle, ops)
	if !res.Ok() {
		// Copy out the message, then release the runtime's slot.
		err := &Error{Code: res.Code, Frame: res.Frame, Message: res.Message}
		d.session.rt.FreeErrorMessage(res.MessageID)
		return nil, err
	}

	if d.handle != 0 && res.Handle != d.handle {
		d.session.rt.Release(d.handle)
	}
	d.handle = res.Handle
	d.context = res.Context
	return d, nil
}

// Height returns the number of rows; the frame must be collected.
func (d *DataFrame) Height() (int, error) {
	return d.session.rt.RowCount(d.handle)
}

// ToCSV serializes the collected frame as delimited text.
func (d *DataFrame) ToCSV() (string, error) {
	return d.session.rt.ToCSV(context.Background(), d.handle)
}

// String renders the collected frame; an uncollected frame reports its
// pending operation count.
func (d *DataFrame) String() string {
	if d.handle == 0 {
		return fmt.Sprintf("DataFrame(uncollected, %d pending operations)", len(d.ops))
	}
	out, err := d.session.rt.Render(d.handle)
	if err != nil {
		return fmt.Sprintf("DataFrame(error: %v)", err)
	}
	return out
}

// Release frees the handle. Safe to call twice.
func (d *DataFrame) Release() {
	if d.handle != 0 {
		d.session.rt.Release(d.handle)
		d.handle = 0
	}
}
