package engine

import (
	"fmt"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/framewire/framewire/pkg/wire"
)

// Grouping is a table partitioned by one or more key columns. Groups keep
// first-seen order so downstream results are deterministic.
type Grouping struct {
	Keys   []string // key column names
	Groups [][]int  // row indices per group, first-seen order

	source *dataframe.DataFrame
}

// Group partitions df by the given key columns.
func Group(df *dataframe.DataFrame, keys []string) (*Grouping, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: GroupBy() requires at least one column", ErrColumnNotFound)
	}
	keyCols := make([]dataframe.Series, len(keys))
	for i, name := range keys {
		s, ok := column(df, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		keyCols[i] = s
	}

	index := make(map[string]int)
	var groups [][]int

	n := NumRows(df)
	for row := 0; row < n; row++ {
		key := compositeKey(keyCols, row)
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], row)
	}

	return &Grouping{Keys: keys, Groups: groups, source: df}, nil
}

// compositeKey encodes one row's key tuple. Values are prefixed with a type
// tag so 1 (int) and "1" (string) land in different groups.
func compositeKey(cols []dataframe.Series, row int) string {
	var b strings.Builder
	for _, c := range cols {
		switch v := c.Value(row).(type) {
		case nil:
			b.WriteString("n|")
		case int64:
			fmt.Fprintf(&b, "i%d|", v)
		case float64:
			fmt.Fprintf(&b, "f%g|", v)
		case string:
			fmt.Fprintf(&b, "s%s|", v)
		case bool:
			fmt.Fprintf(&b, "b%t|", v)
		default:
			fmt.Fprintf(&b, "x%v|", v)
		}
	}
	return b.String()
}

// Aggregate reduces each group with the given expressions and assembles the
// result table: one row per group, key columns first, one column per
// expression. Every expression must reduce (an alias wrapping a reduction
// is fine).
func (g *Grouping) Aggregate(exprs []*Expr) (*dataframe.DataFrame, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("%w: Agg() requires at least one expression", ErrTypeMismatch)
	}

	var out []dataframe.Series

	// Key columns: the first row of each group is its representative.
	reps := make([]int, len(g.Groups))
	for i, rows := range g.Groups {
		reps[i] = rows[0]
	}
	for _, name := range g.Keys {
		src, ok := column(g.source, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		out = append(out, gather(src, reps, name))
	}

	for _, e := range exprs {
		name := e.OutputName()
		agg := unwrapAlias(e)
		if !agg.IsAggregation() {
			return nil, fmt.Errorf("%w: Agg() needs aggregation expressions, got %s",
				ErrTypeMismatch, agg.Op)
		}

		input, err := Eval(g.source, agg.Left)
		if err != nil {
			return nil, err
		}

		vals := make([]any, len(g.Groups))
		for i, rows := range g.Groups {
			v, err := reduce(agg, input, rows)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		out = append(out, seriesFromValues(name, vals))
	}

	return dataframe.NewDataFrame(out...), nil
}

func unwrapAlias(e *Expr) *Expr {
	for e.Op == wire.OpExprAlias {
		e = e.Left
	}
	return e
}

// seriesFromValues picks the column type from the first non-null value.
func seriesFromValues(name string, vals []any) dataframe.Series {
	for _, v := range vals {
		switch v.(type) {
		case int64:
			return newInt64Series(name, vals)
		case float64:
			return newFloat64Series(name, vals)
		case string:
			return newStringSeries(name, vals)
		case bool:
			return newBoolSeries(name, vals)
		}
	}
	return newFloat64Series(name, vals)
}
