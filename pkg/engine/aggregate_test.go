package engine

import (
	"math"
	"testing"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/framewire/framewire/pkg/wire"
)

func reduceAll(t *testing.T, e *Expr, s dataframe.Series) any {
	t.Helper()
	v, err := reduce(e, s, allIndices(seriesLength(s)))
	if err != nil {
		t.Fatalf("reduce %s failed: %v", e.Op, err)
	}
	return v
}

func TestReduce_SumKeepsIntegerType(t *testing.T) {
	ints := dataframe.NewSeriesInt64("x", nil, 1, 2, 3)
	if v := reduceAll(t, &Expr{Op: wire.OpExprSum}, ints); v != int64(6) {
		t.Errorf("sum = %v (%T)", v, v)
	}

	floats := dataframe.NewSeriesFloat64("x", nil, 1.5, 2.5)
	if v := reduceAll(t, &Expr{Op: wire.OpExprSum}, floats); v != 4.0 {
		t.Errorf("sum = %v (%T)", v, v)
	}
}

func TestReduce_SkipsNulls(t *testing.T) {
	s := newInt64Series("x", []any{int64(1), nil, int64(3)})

	if v := reduceAll(t, &Expr{Op: wire.OpExprSum}, s); v != int64(4) {
		t.Errorf("sum = %v", v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprMean}, s); v != 2.0 {
		t.Errorf("mean = %v", v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprCount}, s); v != int64(2) {
		t.Errorf("count = %v", v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprCountNulls}, s); v != int64(1) {
		t.Errorf("count_nulls = %v", v)
	}
}

func TestReduce_EmptyInputIsNull(t *testing.T) {
	s := newInt64Series("x", []any{nil, nil})

	for _, op := range []wire.Opcode{wire.OpExprMean, wire.OpExprMin, wire.OpExprMax, wire.OpExprMedian} {
		if v := reduceAll(t, &Expr{Op: op}, s); v != nil {
			t.Errorf("%s over all-null input = %v, want null", op, v)
		}
	}
	// Sum of nothing is zero, not null.
	if v := reduceAll(t, &Expr{Op: wire.OpExprSum}, s); v != int64(0) {
		t.Errorf("sum over all-null input = %v", v)
	}
}

func TestReduce_MinMaxPreserveType(t *testing.T) {
	ints := dataframe.NewSeriesInt64("x", nil, 3, 1, 2)
	if v := reduceAll(t, &Expr{Op: wire.OpExprMin}, ints); v != int64(1) {
		t.Errorf("min = %v (%T)", v, v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprMax}, ints); v != int64(3) {
		t.Errorf("max = %v (%T)", v, v)
	}

	strs := dataframe.NewSeriesString("x", nil, "banana", "apple", "cherry")
	if v := reduceAll(t, &Expr{Op: wire.OpExprMin}, strs); v != "apple" {
		t.Errorf("min = %v", v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprMax}, strs); v != "cherry" {
		t.Errorf("max = %v", v)
	}
}

func TestReduce_Median(t *testing.T) {
	odd := dataframe.NewSeriesInt64("x", nil, 5, 1, 3)
	if v := reduceAll(t, &Expr{Op: wire.OpExprMedian}, odd); v != 3.0 {
		t.Errorf("median odd = %v", v)
	}
	even := dataframe.NewSeriesInt64("x", nil, 1, 2, 3, 4)
	if v := reduceAll(t, &Expr{Op: wire.OpExprMedian}, even); v != 2.5 {
		t.Errorf("median even = %v", v)
	}
}

func TestReduce_VarianceAndStd(t *testing.T) {
	s := dataframe.NewSeriesFloat64("x", nil, 2, 4, 4, 4, 5, 5, 7, 9)

	// Population variance of this classic set is exactly 4.
	if v := reduceAll(t, &Expr{Op: wire.OpExprVar, DDOF: 0}, s); v != 4.0 {
		t.Errorf("var(ddof=0) = %v", v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprStd, DDOF: 0}, s); v != 2.0 {
		t.Errorf("std(ddof=0) = %v", v)
	}

	// Sample variance divides by n-1.
	v := reduceAll(t, &Expr{Op: wire.OpExprVar, DDOF: 1}, s).(float64)
	if math.Abs(v-32.0/7.0) > 1e-9 {
		t.Errorf("var(ddof=1) = %v", v)
	}

	// One value with ddof=1 has no degrees of freedom left.
	one := dataframe.NewSeriesFloat64("x", nil, 42)
	if v := reduceAll(t, &Expr{Op: wire.OpExprVar, DDOF: 1}, one); v != nil {
		t.Errorf("var of one value with ddof=1 = %v, want null", v)
	}
}

func TestReduce_FirstLastNUnique(t *testing.T) {
	s := dataframe.NewSeriesString("x", nil, "a", "b", "a", "c")

	if v := reduceAll(t, &Expr{Op: wire.OpExprFirst}, s); v != "a" {
		t.Errorf("first = %v", v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprLast}, s); v != "c" {
		t.Errorf("last = %v", v)
	}
	if v := reduceAll(t, &Expr{Op: wire.OpExprNUnique}, s); v != int64(3) {
		t.Errorf("n_unique = %v", v)
	}
}

func TestReduce_RejectsNonAggregation(t *testing.T) {
	s := dataframe.NewSeriesInt64("x", nil, 1)
	if _, err := reduce(&Expr{Op: wire.OpExprAdd}, s, []int{0}); err == nil {
		t.Error("reduce should reject non-aggregation opcodes")
	}
}
