// Package exec is the boundary runtime: it owns the handle and error
// message tables and executes encoded operation pipelines against the
// columnar engine.
//
// A pipeline threads one working table through its operations; intermediate
// tables are never registered, so a failed pipeline leaks nothing. Only the
// final table of a successful run is inserted into the handle table.
package exec

import (
	"errors"

	"github.com/framewire/framewire/pkg/wire"
)

// Code partitions the failure domain of a pipeline execution.
type Code uint32

const (
	CodeOK         Code = 0
	CodeDecode     Code = 1 // malformed operation or argument record
	CodeLifecycle  Code = 2 // stale handle or context misuse
	CodeExpression Code = 3 // stack imbalance or unknown expression opcode
	CodeEngine     Code = 4 // the columnar engine rejected the operation
)

// FrameNone marks errors that cannot be attributed to a single operation.
const FrameNone = -1

// String returns the string representation of a result code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeDecode:
		return "decode"
	case CodeLifecycle:
		return "lifecycle"
	case CodeExpression:
		return "expression"
	case CodeEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// Error definitions
var (
	ErrInvalidHandle   = errors.New("invalid handle")
	ErrContextMismatch = errors.New("operation not valid in this context")
	ErrStackImbalance  = errors.New("invalid expression stack")
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrEmptyPipeline   = errors.New("pipeline has no operations")
	ErrNoResult        = errors.New("pipeline produced no table")
	ErrOpLimit         = errors.New("operation limit exceeded")
	ErrPathDenied      = errors.New("file access denied in sandbox mode")
)

// classify maps an error onto the boundary code partition. Lifecycle and
// expression failures carry their own sentinels; decode failures wrap the
// wire package's validation errors; everything else is the engine's.
func classify(err error) Code {
	switch {
	case errors.Is(err, ErrInvalidHandle), errors.Is(err, ErrContextMismatch):
		return CodeLifecycle
	case errors.Is(err, ErrStackImbalance):
		return CodeExpression
	case errors.Is(err, wire.ErrBadArgs),
		errors.Is(err, wire.ErrUnknownLiteralKind),
		errors.Is(err, wire.ErrUnknownColumnType),
		errors.Is(err, ErrUnknownOpcode),
		errors.Is(err, ErrEmptyPipeline),
		errors.Is(err, ErrNoResult):
		return CodeDecode
	default:
		return CodeEngine
	}
}

// ContextType tracks what kind of value a handle (or the working value of a
// pipeline) refers to.
type ContextType uint8

const (
	ContextNone    ContextType = 0
	ContextTable   ContextType = 1 // materialized table
	ContextLazy    ContextType = 2 // table pending collection
	ContextGrouped ContextType = 3 // grouped table awaiting Agg
)

// String returns the string representation of a context type.
func (c ContextType) String() string {
	switch c {
	case ContextTable:
		return "table"
	case ContextLazy:
		return "lazy"
	case ContextGrouped:
		return "grouped"
	default:
		return "none"
	}
}

// Result is the outcome of one pipeline execution. On failure Message holds
// the error text and MessageID its slot in the message table; the caller
// must release it with FreeErrorMessage. Frame is the index of the failing
// operation, or FrameNone.
type Result struct {
	Handle    uint64
	Context   ContextType
	Code      Code
	Frame     int
	Message   string
	MessageID uint64
}

// Ok reports whether the execution succeeded.
func (r Result) Ok() bool {
	return r.Code == CodeOK
}
