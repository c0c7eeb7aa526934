package engine

import (
	"github.com/framewire/framewire/pkg/wire"
)

// Expr is one node of a decoded expression tree. The postfix operation
// stream is assembled into this form before evaluation; Op decides which
// of the remaining fields are meaningful.
type Expr struct {
	Op    wire.Opcode
	Left  *Expr // unary input, or left operand
	Right *Expr // right operand of binary ops

	Name      string       // OpExprColumn, OpExprAlias
	Lit       wire.Literal // OpExprLiteral
	Pattern   string       // string predicates
	OldStr    string       // OpExprStrReplace
	NewStr    string       // OpExprStrReplace
	DDOF      uint8        // OpExprStd, OpExprVar
	Type      wire.ColumnType
	Partition []string // OpExprOver
	Order     []string // OpExprOver
	Offset    int      // OpExprLag, OpExprLead
}

// IsAggregation reports whether the node reduces its input to a scalar.
func (e *Expr) IsAggregation() bool {
	switch e.Op {
	case wire.OpExprSum, wire.OpExprMean, wire.OpExprMin, wire.OpExprMax,
		wire.OpExprStd, wire.OpExprVar, wire.OpExprMedian,
		wire.OpExprFirst, wire.OpExprLast, wire.OpExprNUnique,
		wire.OpExprCount, wire.OpExprCountNulls:
		return true
	default:
		return false
	}
}

// IsRanking reports whether the node is a positional window function that
// requires an enclosing Over.
func (e *Expr) IsRanking() bool {
	switch e.Op {
	case wire.OpExprRank, wire.OpExprDenseRank, wire.OpExprRowNumber:
		return true
	default:
		return false
	}
}

// OutputName computes the column name an evaluated expression lands under:
// an alias wins, column references keep their name, reductions and other
// unary chains inherit from their input, binary ops inherit from the left
// operand.
func (e *Expr) OutputName() string {
	switch e.Op {
	case wire.OpExprAlias:
		return e.Name
	case wire.OpExprColumn:
		return e.Name
	case wire.OpExprLiteral:
		return "literal"
	case wire.OpExprRank:
		return "rank"
	case wire.OpExprDenseRank:
		return "dense_rank"
	case wire.OpExprRowNumber:
		return "row_number"
	}
	if e.Left != nil {
		return e.Left.OutputName()
	}
	return e.Op.String()
}
