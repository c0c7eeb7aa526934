package engine

import (
	"fmt"
	"strconv"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/framewire/framewire/pkg/wire"
)

// Eval evaluates an expression tree against df. The result is a column of
// the table's length, or a one-row column for literals and reductions;
// one-row columns broadcast inside binary operations.
func Eval(df *dataframe.DataFrame, e *Expr) (dataframe.Series, error) {
	switch e.Op {
	case wire.OpExprColumn:
		s, ok := column(df, e.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, e.Name)
		}
		return s, nil

	case wire.OpExprLiteral:
		return literalSeries(e.Lit)

	case wire.OpExprAdd, wire.OpExprSub, wire.OpExprMul, wire.OpExprDiv:
		a, b, err := evalPair(df, e)
		if err != nil {
			return nil, err
		}
		return vectorArith(e.Op, a, b)

	case wire.OpExprGt, wire.OpExprLt, wire.OpExprEq:
		a, b, err := evalPair(df, e)
		if err != nil {
			return nil, err
		}
		return vectorCompare(e.Op, a, b)

	case wire.OpExprAnd, wire.OpExprOr:
		a, b, err := evalPair(df, e)
		if err != nil {
			return nil, err
		}
		return vectorLogical(e.Op, a, b)

	case wire.OpExprNot:
		a, err := Eval(df, e.Left)
		if err != nil {
			return nil, err
		}
		return vectorNot(a)

	case wire.OpExprIsNull, wire.OpExprIsNotNull:
		a, err := Eval(df, e.Left)
		if err != nil {
			return nil, err
		}
		return vectorIsNull(a, e.Op == wire.OpExprIsNotNull), nil

	case wire.OpExprAlias:
		a, err := Eval(df, e.Left)
		if err != nil {
			return nil, err
		}
		out := a.Copy()
		out.Rename(e.Name)
		return out, nil

	case wire.OpExprStrLen, wire.OpExprStrToLower, wire.OpExprStrToUpper,
		wire.OpExprStrContains, wire.OpExprStrStartsWith,
		wire.OpExprStrEndsWith, wire.OpExprStrReplace:
		a, err := Eval(df, e.Left)
		if err != nil {
			return nil, err
		}
		return vectorString(e, a)

	case wire.OpExprCast:
		a, err := Eval(df, e.Left)
		if err != nil {
			return nil, err
		}
		return vectorCast(a, e.Type)

	case wire.OpExprSum, wire.OpExprMean, wire.OpExprMin, wire.OpExprMax,
		wire.OpExprStd, wire.OpExprVar, wire.OpExprMedian,
		wire.OpExprFirst, wire.OpExprLast, wire.OpExprNUnique,
		wire.OpExprCount, wire.OpExprCountNulls:
		a, err := Eval(df, e.Left)
		if err != nil {
			return nil, err
		}
		v, err := reduce(e, a, allIndices(seriesLength(a)))
		if err != nil {
			return nil, err
		}
		return scalarSeries(e.OutputName(), v), nil

	case wire.OpExprOver:
		return evalWindow(df, e)

	case wire.OpExprRank, wire.OpExprDenseRank, wire.OpExprRowNumber,
		wire.OpExprLag, wire.OpExprLead:
		return nil, fmt.Errorf("%w: %s requires a window, apply Over()", ErrTypeMismatch, e.Op)

	default:
		return nil, fmt.Errorf("%w: cannot evaluate %s", ErrTypeMismatch, e.Op)
	}
}

func evalPair(df *dataframe.DataFrame, e *Expr) (dataframe.Series, dataframe.Series, error) {
	a, err := Eval(df, e.Left)
	if err != nil {
		return nil, nil, err
	}
	b, err := Eval(df, e.Right)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// literalSeries builds a one-row column from a literal.
func literalSeries(lit wire.Literal) (dataframe.Series, error) {
	v, err := lit.Value()
	if err != nil {
		return nil, err
	}
	return scalarSeries("literal", v), nil
}

// scalarSeries builds a one-row column holding v. A nil v becomes a null
// float column, the widest type a reduction can produce.
func scalarSeries(name string, v any) dataframe.Series {
	switch v.(type) {
	case nil:
		return newFloat64Series(name, []any{nil})
	case int64:
		return newInt64Series(name, []any{v})
	case float64:
		return newFloat64Series(name, []any{v})
	case string:
		return newStringSeries(name, []any{v})
	case bool:
		return newBoolSeries(name, []any{v})
	default:
		return dataframe.NewSeriesGeneric(name, v, nil, v)
	}
}

// pairLength computes the output length of a binary kernel, broadcasting
// one-row operands.
func pairLength(a, b dataframe.Series) (int, error) {
	na, nb := seriesLength(a), seriesLength(b)
	if na == nb {
		return na, nil
	}
	if na == 1 {
		return nb, nil
	}
	if nb == 1 {
		return na, nil
	}
	return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, na, nb)
}

// bcast maps an output row to the operand row, folding broadcast scalars.
func bcast(s dataframe.Series, i int) int {
	if seriesLength(s) == 1 {
		return 0
	}
	return i
}

func vectorArith(op wire.Opcode, a, b dataframe.Series) (dataframe.Series, error) {
	n, err := pairLength(a, b)
	if err != nil {
		return nil, err
	}

	// Integer arithmetic only when both sides are integer columns;
	// anything numeric otherwise is computed in float64.
	if seriesType(a) == TypeInt64 && seriesType(b) == TypeInt64 {
		vals := make([]any, n)
		for i := 0; i < n; i++ {
			av, aok := int64At(a, bcast(a, i))
			bv, bok := int64At(b, bcast(b, i))
			if !aok || !bok {
				continue // null propagates
			}
			switch op {
			case wire.OpExprAdd:
				vals[i] = av + bv
			case wire.OpExprSub:
				vals[i] = av - bv
			case wire.OpExprMul:
				vals[i] = av * bv
			case wire.OpExprDiv:
				if bv == 0 {
					return nil, ErrDivisionByZero
				}
				vals[i] = av / bv
			}
		}
		return newInt64Series("result", vals), nil
	}

	if !numericType(a) || !numericType(b) {
		return nil, fmt.Errorf("%w: arithmetic needs numeric operands, got %s and %s",
			ErrTypeMismatch, seriesType(a), seriesType(b))
	}

	vals := make([]any, n)
	for i := 0; i < n; i++ {
		av, aok := float64At(a, bcast(a, i))
		bv, bok := float64At(b, bcast(b, i))
		if !aok || !bok {
			continue
		}
		switch op {
		case wire.OpExprAdd:
			vals[i] = av + bv
		case wire.OpExprSub:
			vals[i] = av - bv
		case wire.OpExprMul:
			vals[i] = av * bv
		case wire.OpExprDiv:
			vals[i] = av / bv
		}
	}
	return newFloat64Series("result", vals), nil
}

func numericType(s dataframe.Series) bool {
	t := seriesType(s)
	return t == TypeInt64 || t == TypeFloat64
}

func vectorCompare(op wire.Opcode, a, b dataframe.Series) (dataframe.Series, error) {
	n, err := pairLength(a, b)
	if err != nil {
		return nil, err
	}

	stringCmp := seriesType(a) == TypeString && seriesType(b) == TypeString
	if !stringCmp && (!numericType(a) || !numericType(b)) {
		return nil, fmt.Errorf("%w: cannot compare %s with %s",
			ErrTypeMismatch, seriesType(a), seriesType(b))
	}

	vals := make([]any, n)
	for i := 0; i < n; i++ {
		var cmp int
		if stringCmp {
			av, aok := stringAt(a, bcast(a, i))
			bv, bok := stringAt(b, bcast(b, i))
			if !aok || !bok {
				continue
			}
			cmp = strings.Compare(av, bv)
		} else {
			av, aok := float64At(a, bcast(a, i))
			bv, bok := float64At(b, bcast(b, i))
			if !aok || !bok {
				continue
			}
			switch {
			case av < bv:
				cmp = -1
			case av > bv:
				cmp = 1
			}
		}
		switch op {
		case wire.OpExprGt:
			vals[i] = cmp > 0
		case wire.OpExprLt:
			vals[i] = cmp < 0
		case wire.OpExprEq:
			vals[i] = cmp == 0
		}
	}
	return newBoolSeries("result", vals), nil
}

func vectorLogical(op wire.Opcode, a, b dataframe.Series) (dataframe.Series, error) {
	if seriesType(a) != TypeBool || seriesType(b) != TypeBool {
		return nil, fmt.Errorf("%w: logical operations need bool operands", ErrTypeMismatch)
	}
	n, err := pairLength(a, b)
	if err != nil {
		return nil, err
	}
	vals := make([]any, n)
	for i := 0; i < n; i++ {
		av, aok := boolAt(a, bcast(a, i))
		bv, bok := boolAt(b, bcast(b, i))
		if !aok || !bok {
			continue
		}
		if op == wire.OpExprAnd {
			vals[i] = av && bv
		} else {
			vals[i] = av || bv
		}
	}
	return newBoolSeries("result", vals), nil
}

func vectorNot(a dataframe.Series) (dataframe.Series, error) {
	if seriesType(a) != TypeBool {
		return nil, fmt.Errorf("%w: NOT needs a bool operand", ErrTypeMismatch)
	}
	n := seriesLength(a)
	vals := make([]any, n)
	for i := 0; i < n; i++ {
		if v, ok := boolAt(a, i); ok {
			vals[i] = !v
		}
	}
	return newBoolSeries("result", vals), nil
}

func vectorIsNull(a dataframe.Series, negate bool) dataframe.Series {
	n := seriesLength(a)
	vals := make([]any, n)
	for i := 0; i < n; i++ {
		vals[i] = isNull(a, i) != negate
	}
	return newBoolSeries("result", vals)
}

func vectorString(e *Expr, a dataframe.Series) (dataframe.Series, error) {
	if seriesType(a) != TypeString {
		return nil, fmt.Errorf("%w: %s needs a string column, got %s",
			ErrTypeMismatch, e.Op, seriesType(a))
	}
	n := seriesLength(a)
	vals := make([]any, n)
	for i := 0; i < n; i++ {
		v, ok := stringAt(a, i)
		if !ok {
			continue
		}
		switch e.Op {
		case wire.OpExprStrLen:
			vals[i] = int64(len(v))
		case wire.OpExprStrToLower:
			vals[i] = strings.ToLower(v)
		case wire.OpExprStrToUpper:
			vals[i] = strings.ToUpper(v)
		case wire.OpExprStrContains:
			vals[i] = strings.Contains(v, e.Pattern)
		case wire.OpExprStrStartsWith:
			vals[i] = strings.HasPrefix(v, e.Pattern)
		case wire.OpExprStrEndsWith:
			vals[i] = strings.HasSuffix(v, e.Pattern)
		case wire.OpExprStrReplace:
			vals[i] = strings.ReplaceAll(v, e.OldStr, e.NewStr)
		}
	}

	switch e.Op {
	case wire.OpExprStrLen:
		return newInt64Series("result", vals), nil
	case wire.OpExprStrContains, wire.OpExprStrStartsWith, wire.OpExprStrEndsWith:
		return newBoolSeries("result", vals), nil
	default:
		return newStringSeries("result", vals), nil
	}
}

func vectorCast(a dataframe.Series, t wire.ColumnType) (dataframe.Series, error) {
	n := seriesLength(a)
	vals := make([]any, n)

	for i := 0; i < n; i++ {
		v := a.Value(i)
		if v == nil {
			continue
		}
		out, err := castValue(v, t)
		if err != nil {
			return nil, err
		}
		vals[i] = out
	}

	switch t.Family() {
	case wire.FamilyInt:
		return newInt64Series("result", vals), nil
	case wire.FamilyFloat:
		return newFloat64Series("result", vals), nil
	case wire.FamilyString:
		return newStringSeries("result", vals), nil
	case wire.FamilyBool:
		return newBoolSeries("result", vals), nil
	default:
		return nil, fmt.Errorf("%w: cast to %s not supported", ErrTypeMismatch, t)
	}
}

func castValue(v any, t wire.ColumnType) (any, error) {
	switch t.Family() {
	case wire.FamilyInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: cannot cast %q to %s", ErrTypeMismatch, x, t)
			}
			return n, nil
		}
	case wire.FamilyFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case bool:
			if x {
				return float64(1), nil
			}
			return float64(0), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: cannot cast %q to %s", ErrTypeMismatch, x, t)
			}
			return f, nil
		}
	case wire.FamilyString:
		switch x := v.(type) {
		case string:
			return x, nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		case float64:
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		case bool:
			return strconv.FormatBool(x), nil
		}
	case wire.FamilyBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case float64:
			return x != 0, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot cast %T to %s", ErrTypeMismatch, v, t)
}
