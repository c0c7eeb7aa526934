package engine

import (
	"fmt"
	"math"
	"sort"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/framewire/framewire/pkg/wire"
)

// reduce folds the values of s at the given row indices into one scalar
// according to the aggregation node e. The result is nil (a null) when the
// reduction has no input, e.g. min of an all-null group.
func reduce(e *Expr, s dataframe.Series, indices []int) (any, error) {
	switch e.Op {
	case wire.OpExprSum:
		return reduceSum(s, indices), nil
	case wire.OpExprMean:
		return reduceMean(s, indices), nil
	case wire.OpExprMin:
		return reduceExtreme(s, indices, true)
	case wire.OpExprMax:
		return reduceExtreme(s, indices, false)
	case wire.OpExprStd:
		v := reduceVariance(s, indices, e.DDOF)
		if v == nil {
			return nil, nil
		}
		return math.Sqrt(v.(float64)), nil
	case wire.OpExprVar:
		return reduceVariance(s, indices, e.DDOF), nil
	case wire.OpExprMedian:
		return reduceMedian(s, indices), nil
	case wire.OpExprFirst:
		if len(indices) == 0 {
			return nil, nil
		}
		return s.Value(indices[0]), nil
	case wire.OpExprLast:
		if len(indices) == 0 {
			return nil, nil
		}
		return s.Value(indices[len(indices)-1]), nil
	case wire.OpExprNUnique:
		return reduceNUnique(s, indices), nil
	case wire.OpExprCount:
		var count int64
		for _, i := range indices {
			if !isNull(s, i) {
				count++
			}
		}
		return count, nil
	case wire.OpExprCountNulls:
		var count int64
		for _, i := range indices {
			if isNull(s, i) {
				count++
			}
		}
		return count, nil
	default:
		return nil, fmt.Errorf("%w: %s is not an aggregation", ErrTypeMismatch, e.Op)
	}
}

// reduceSum skips nulls; an integer column sums to int64, anything else
// numeric to float64.
func reduceSum(s dataframe.Series, indices []int) any {
	if seriesType(s) == TypeInt64 {
		var sum int64
		for _, i := range indices {
			if v, ok := int64At(s, i); ok {
				sum += v
			}
		}
		return sum
	}
	var sum float64
	for _, i := range indices {
		if v, ok := float64At(s, i); ok {
			sum += v
		}
	}
	return sum
}

func reduceMean(s dataframe.Series, indices []int) any {
	var sum float64
	var count int
	for _, i := range indices {
		if v, ok := float64At(s, i); ok {
			sum += v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return sum / float64(count)
}

// reduceExtreme finds the minimum (or maximum) non-null value, preserving
// the column's type for int64 and string columns.
func reduceExtreme(s dataframe.Series, indices []int, min bool) (any, error) {
	switch seriesType(s) {
	case TypeInt64:
		var best int64
		found := false
		for _, i := range indices {
			v, ok := int64At(s, i)
			if !ok {
				continue
			}
			if !found || (min && v < best) || (!min && v > best) {
				best = v
				found = true
			}
		}
		if !found {
			return nil, nil
		}
		return best, nil
	case TypeFloat64:
		var best float64
		found := false
		for _, i := range indices {
			v, ok := float64At(s, i)
			if !ok {
				continue
			}
			if !found || (min && v < best) || (!min && v > best) {
				best = v
				found = true
			}
		}
		if !found {
			return nil, nil
		}
		return best, nil
	case TypeString:
		var best string
		found := false
		for _, i := range indices {
			v, ok := stringAt(s, i)
			if !ok {
				continue
			}
			if !found || (min && v < best) || (!min && v > best) {
				best = v
				found = true
			}
		}
		if !found {
			return nil, nil
		}
		return best, nil
	default:
		return nil, fmt.Errorf("%w: min/max needs a comparable column, got %s",
			ErrTypeMismatch, seriesType(s))
	}
}

// reduceVariance computes the variance over non-null values with the given
// delta degrees of freedom. Fewer than ddof+1 values yields null.
func reduceVariance(s dataframe.Series, indices []int, ddof uint8) any {
	var vals []float64
	for _, i := range indices {
		if v, ok := float64At(s, i); ok {
			vals = append(vals, v)
		}
	}
	n := len(vals)
	if n == 0 || n <= int(ddof) {
		return nil
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return sq / float64(n-int(ddof))
}

func reduceMedian(s dataframe.Series, indices []int) any {
	var vals []float64
	for _, i := range indices {
		if v, ok := float64At(s, i); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

func reduceNUnique(s dataframe.Series, indices []int) int64 {
	seen := make(map[any]struct{})
	for _, i := range indices {
		v := s.Value(i)
		if v != nil {
			seen[v] = struct{}{}
		}
	}
	return int64(len(seen))
}
