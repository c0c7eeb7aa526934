package wire

import "fmt"

// Expr builds a flat postfix operation sequence for one expression.
// Construction failures are latched as an OpError frame at the point they
// occur so the executor can attribute them; later methods on a failed Expr
// are no-ops.
type Expr struct {
	ops    []Operation
	failed bool
}

// Operations returns the encoded postfix sequence.
func (e Expr) Operations() []Operation {
	return e.ops
}

// Col references a column of the working table.
func Col(name string) Expr {
	return Expr{ops: []Operation{{Opcode: OpExprColumn, Args: ColumnArgs{Name: name}}}}
}

// Lit embeds a scalar literal. Supported types are int, int64, float64,
// string, and bool; anything else latches a construction error.
func Lit(v any) Expr {
	var lit Literal
	switch x := v.(type) {
	case int:
		lit = IntLit(int64(x))
	case int64:
		lit = IntLit(x)
	case float64:
		lit = FloatLit(x)
	case string:
		lit = StringLit(x)
	case bool:
		lit = BoolLit(x)
	default:
		return errExpr(fmt.Sprintf("unsupported literal type %T", v))
	}
	return Expr{ops: []Operation{{Opcode: OpExprLiteral, Args: LiteralArgs{Literal: lit}}}}
}

// Rank, DenseRank, and RowNumber are ranking expressions; they are only
// meaningful once a window is applied with Over.
func Rank() Expr      { return Expr{ops: []Operation{{Opcode: OpExprRank}}} }
func DenseRank() Expr { return Expr{ops: []Operation{{Opcode: OpExprDenseRank}}} }
func RowNumber() Expr { return Expr{ops: []Operation{{Opcode: OpExprRowNumber}}} }

func errExpr(msg string) Expr {
	return Expr{
		ops:    []Operation{{Opcode: OpError, Args: ErrorArgs{Message: msg}}},
		failed: true,
	}
}

func (e Expr) binary(op Opcode, rhs Expr) Expr {
	if e.failed {
		return e
	}
	if rhs.failed {
		return rhs
	}
	ops := make([]Operation, 0, len(e.ops)+len(rhs.ops)+1)
	ops = append(ops, e.ops...)
	ops = append(ops, rhs.ops...)
	ops = append(ops, Operation{Opcode: op})
	return Expr{ops: ops}
}

func (e Expr) unary(op Opcode, args any) Expr {
	if e.failed {
		return e
	}
	ops := make([]Operation, 0, len(e.ops)+1)
	ops = append(ops, e.ops...)
	ops = append(ops, Operation{Opcode: op, Args: args})
	return Expr{ops: ops}
}

// Arithmetic.
func (e Expr) Add(rhs Expr) Expr { return e.binary(OpExprAdd, rhs) }
func (e Expr) Sub(rhs Expr) Expr { return e.binary(OpExprSub, rhs) }
func (e Expr) Mul(rhs Expr) Expr { return e.binary(OpExprMul, rhs) }
func (e Expr) Div(rhs Expr) Expr { return e.binary(OpExprDiv, rhs) }

// Comparison.
func (e Expr) Gt(rhs Expr) Expr { return e.binary(OpExprGt, rhs) }
func (e Expr) Lt(rhs Expr) Expr { return e.binary(OpExprLt, rhs) }
func (e Expr) Eq(rhs Expr) Expr { return e.binary(OpExprEq, rhs) }

// Logical.
func (e Expr) And(rhs Expr) Expr { return e.binary(OpExprAnd, rhs) }
func (e Expr) Or(rhs Expr) Expr  { return e.binary(OpExprOr, rhs) }
func (e Expr) Not() Expr         { return e.unary(OpExprNot, nil) }

// Aggregations.
func (e Expr) Sum() Expr        { return e.unary(OpExprSum, nil) }
func (e Expr) Mean() Expr       { return e.unary(OpExprMean, nil) }
func (e Expr) Min() Expr        { return e.unary(OpExprMin, nil) }
func (e Expr) Max() Expr        { return e.unary(OpExprMax, nil) }
func (e Expr) Median() Expr     { return e.unary(OpExprMedian, nil) }
func (e Expr) First() Expr      { return e.unary(OpExprFirst, nil) }
func (e Expr) Last() Expr       { return e.unary(OpExprLast, nil) }
func (e Expr) NUnique() Expr    { return e.unary(OpExprNUnique, nil) }
func (e Expr) Count() Expr      { return e.unary(OpExprCount, nil) }
func (e Expr) CountNulls() Expr { return e.unary(OpExprCountNulls, nil) }

// Std is the standard deviation with the given delta degrees of freedom.
func (e Expr) Std(ddof uint8) Expr { return e.ddofAggregation(OpExprStd, ddof) }

// Var is the variance with the given delta degrees of freedom.
func (e Expr) Var(ddof uint8) Expr { return e.ddofAggregation(OpExprVar, ddof) }

func (e Expr) ddofAggregation(op Opcode, ddof uint8) Expr {
	if ddof > 1 {
		return errExpr("ddof must be 0 (population) or 1 (sample)")
	}
	return e.unary(op, AggStdArgs{DDOF: ddof})
}

// Null predicates.
func (e Expr) IsNull() Expr    { return e.unary(OpExprIsNull, nil) }
func (e Expr) IsNotNull() Expr { return e.unary(OpExprIsNotNull, nil) }

// Alias names the output column.
func (e Expr) Alias(name string) Expr {
	return e.unary(OpExprAlias, AliasArgs{Name: name})
}

// String operations.
func (e Expr) StrLen() Expr     { return e.unary(OpExprStrLen, nil) }
func (e Expr) StrToLower() Expr { return e.unary(OpExprStrToLower, nil) }
func (e Expr) StrToUpper() Expr { return e.unary(OpExprStrToUpper, nil) }

func (e Expr) StrContains(pattern string) Expr {
	return e.unary(OpExprStrContains, PatternArgs{Pattern: pattern})
}

func (e Expr) StrStartsWith(prefix string) Expr {
	return e.unary(OpExprStrStartsWith, PatternArgs{Pattern: prefix})
}

func (e Expr) StrEndsWith(suffix string) Expr {
	return e.unary(OpExprStrEndsWith, PatternArgs{Pattern: suffix})
}

func (e Expr) StrReplace(old, new string) Expr {
	return e.unary(OpExprStrReplace, ReplaceArgs{Old: old, New: new})
}

// Cast converts the expression to the given scalar type.
func (e Expr) Cast(t ColumnType) Expr {
	if err := t.Validate(); err != nil {
		return errExpr(err.Error())
	}
	return e.unary(OpExprCast, CastArgs{Type: t})
}

// Over applies a window partitioned by the given columns.
func (e Expr) Over(partition ...string) Expr {
	if len(partition) == 0 {
		return errExpr("Over() requires at least one partition column")
	}
	return e.unary(OpExprOver, WindowArgs{Partition: partition})
}

// OverOrdered applies a window partitioned by partition and ordered within
// each partition by order.
func (e Expr) OverOrdered(order []string, partition ...string) Expr {
	if len(partition) == 0 {
		return errExpr("Over() requires at least one partition column")
	}
	return e.unary(OpExprOver, WindowArgs{Partition: partition, Order: order})
}

// Lag shifts values n rows back within the window.
func (e Expr) Lag(n int) Expr {
	return e.unary(OpExprLag, OffsetArgs{Offset: -n})
}

// Lead shifts values n rows forward within the window.
func (e Expr) Lead(n int) Expr {
	return e.unary(OpExprLead, OffsetArgs{Offset: n})
}
