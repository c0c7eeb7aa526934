package wire

import (
	"errors"
	"fmt"
)

// Operation is one (opcode, args) pair. Args is nil for opcodes that take
// no parameters and otherwise holds the record type documented next to the
// opcode constant.
type Operation struct {
	Opcode Opcode
	Args   any
}

// Pipeline is an ordered operation sequence submitted in a single call.
type Pipeline []Operation

// ErrBadArgs is returned when an operation's argument record is missing or
// of the wrong type for its opcode.
var ErrBadArgs = errors.New("bad operation arguments")

// ArgsAs extracts the typed argument record from an operation.
func ArgsAs[T any](op Operation) (T, error) {
	v, ok := op.Args.(T)
	if !ok {
		return v, fmt.Errorf("%w: %s requires %T, got %T", ErrBadArgs, op.Opcode, v, op.Args)
	}
	return v, nil
}

// SelectArgs names the columns for OpSelect and the keys for OpGroupBy.
type SelectArgs struct {
	Columns []string
}

// ReadCSVArgs configures OpReadCSV. Glob expands the path as a pattern and
// concatenates the matches. Gzip-compressed files are detected by a .gz
// suffix regardless of the flag; the flag forces decompression.
type ReadCSVArgs struct {
	Path      string
	HasHeader bool
	Glob      bool
	Gzip      bool
}

// ReadParquetArgs configures OpReadParquet. An empty Columns keeps every
// column; NRows of 0 keeps every row.
type ReadParquetArgs struct {
	Path    string
	Columns []string
	NRows   int
	Glob    bool
}

// ReadJSONArgs configures OpReadJSON.
type ReadJSONArgs struct {
	Path string
}

// ConcatArgs lists the source handles for OpConcat. Ownership of every
// listed handle transfers to the runtime: all are released whether or not
// the concat succeeds.
type ConcatArgs struct {
	Handles []uint64
}

// CountArgs configures OpCount. IncludeNulls counts physical rows; without
// it, rows that are null in every column are excluded.
type CountArgs struct {
	IncludeNulls bool
}

// AggArgs carries the expression count for OpAgg.
type AggArgs struct {
	NumExprs int
}

// ColumnArgs names the column for OpExprColumn.
type ColumnArgs struct {
	Name string
}

// LiteralArgs carries the scalar for OpExprLiteral.
type LiteralArgs struct {
	Literal Literal
}

// AliasArgs names the output column for OpExprAlias.
type AliasArgs struct {
	Name string
}

// AggStdArgs carries the delta degrees of freedom for OpExprStd/OpExprVar.
// DDOF must be 0 (population) or 1 (sample).
type AggStdArgs struct {
	DDOF uint8
}

// PatternArgs carries the pattern for the string predicate expressions.
type PatternArgs struct {
	Pattern string
}

// ReplaceArgs carries the substitution for OpExprStrReplace.
type ReplaceArgs struct {
	Old string
	New string
}

// CastArgs carries the target type for OpExprCast.
type CastArgs struct {
	Type ColumnType
}

// SortField describes one sort key. NullsLast places nulls after non-null
// values regardless of direction.
type SortField struct {
	Column     string
	Descending bool
	NullsLast  bool
}

// Asc and friends construct sort fields; ascending sorts default to nulls
// first and descending sorts to nulls last, matching the host API defaults.
func Asc(column string) SortField  { return SortField{Column: column} }
func Desc(column string) SortField { return SortField{Column: column, Descending: true, NullsLast: true} }
func AscNullsLast(column string) SortField {
	return SortField{Column: column, NullsLast: true}
}
func DescNullsFirst(column string) SortField {
	return SortField{Column: column, Descending: true}
}

// SortArgs carries the ordered key list for OpSort.
type SortArgs struct {
	Fields []SortField
}

// LimitArgs carries the row cap for OpLimit.
type LimitArgs struct {
	N int
}

// JoinHow selects the join flavor for OpJoin.
type JoinHow uint8

const (
	JoinInner JoinHow = iota
	JoinLeft
	JoinRight
	JoinFull
)

// String returns the string representation of a join flavor.
func (h JoinHow) String() string {
	switch h {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinFull:
		return "full"
	default:
		return "unknown"
	}
}

// JoinArgs configures OpJoin. RightHandle is borrowed, not consumed.
type JoinArgs struct {
	RightHandle uint64
	LeftOn      []string
	RightOn     []string
	How         JoinHow
}

// WindowArgs carries the partition and optional ordering for OpExprOver.
type WindowArgs struct {
	Partition []string
	Order     []string
}

// OffsetArgs carries the shift distance for OpExprLag/OpExprLead. Lag
// encodes a negative offset, lead a positive one.
type OffsetArgs struct {
	Offset int
}

// ErrorArgs carries a host-side construction failure through the pipeline
// so it can be reported with its frame index.
type ErrorArgs struct {
	Message string
}
