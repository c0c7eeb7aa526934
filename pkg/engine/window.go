package engine

import (
	"fmt"
	"sort"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/framewire/framewire/pkg/wire"
)

// evalWindow evaluates an Over node: the inner expression runs per
// partition and the results are scattered back to the original row order.
func evalWindow(df *dataframe.DataFrame, e *Expr) (dataframe.Series, error) {
	grouping, err := Group(df, e.Partition)
	if err != nil {
		return nil, err
	}

	var orderCols []dataframe.Series
	for _, name := range e.Order {
		s, ok := column(df, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		orderCols = append(orderCols, s)
	}

	// Rows within each partition follow the ordering columns when given,
	// otherwise their original order.
	partitions := make([][]int, len(grouping.Groups))
	for i, rows := range grouping.Groups {
		p := make([]int, len(rows))
		copy(p, rows)
		if len(orderCols) > 0 {
			sort.SliceStable(p, func(a, b int) bool {
				return compareRowTuple(orderCols, p[a], p[b]) < 0
			})
		}
		partitions[i] = p
	}

	inner := e.Left
	n := NumRows(df)

	switch {
	case inner.IsRanking():
		vals := make([]any, n)
		for _, p := range partitions {
			rankPartition(inner.Op, orderCols, p, vals)
		}
		return newInt64Series(inner.OutputName(), vals), nil

	case inner.Op == wire.OpExprLag || inner.Op == wire.OpExprLead:
		col, err := Eval(df, inner.Left)
		if err != nil {
			return nil, err
		}
		// Map each row to its shifted source row; out of range is null.
		indices := make([]int, n)
		for i := range indices {
			indices[i] = -1
		}
		for _, p := range partitions {
			for pos, row := range p {
				src := pos + inner.Offset
				if src >= 0 && src < len(p) {
					indices[row] = p[src]
				}
			}
		}
		return gather(col, indices, inner.OutputName()), nil

	case inner.IsAggregation():
		col, err := Eval(df, inner.Left)
		if err != nil {
			return nil, err
		}
		vals := make([]any, n)
		for _, p := range partitions {
			v, err := reduce(inner, col, p)
			if err != nil {
				return nil, err
			}
			for _, row := range p {
				vals[row] = v
			}
		}
		return seriesFromValues(inner.OutputName(), vals), nil

	default:
		return nil, fmt.Errorf("%w: %s cannot be used with Over()", ErrTypeMismatch, inner.Op)
	}
}

// rankPartition writes ranking values for one ordered partition. Rank and
// dense rank treat rows with equal ordering tuples as ties; without
// ordering columns every row is distinct and all three collapse to row
// numbers.
func rankPartition(op wire.Opcode, orderCols []dataframe.Series, p []int, vals []any) {
	rank := int64(1)
	dense := int64(1)
	for pos, row := range p {
		if pos > 0 {
			tied := len(orderCols) > 0 && compareRowTuple(orderCols, p[pos-1], row) == 0
			if !tied {
				rank = int64(pos) + 1
				dense++
			}
		}
		switch op {
		case wire.OpExprRank:
			vals[row] = rank
		case wire.OpExprDenseRank:
			vals[row] = dense
		case wire.OpExprRowNumber:
			vals[row] = int64(pos) + 1
		}
	}
}

// compareRowTuple compares two rows across the given columns, ascending
// with nulls last.
func compareRowTuple(cols []dataframe.Series, a, b int) int {
	for _, c := range cols {
		if cmp := compareCell(c, a, b, true); cmp != 0 {
			return cmp
		}
	}
	return 0
}
