package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"

	"github.com/framewire/framewire/pkg/wire"
)

// Select projects the named columns, in the given order.
func Select(df *dataframe.DataFrame, cols []string) (*dataframe.DataFrame, error) {
	out := make([]dataframe.Series, len(cols))
	for i, name := range cols {
		s, ok := column(df, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		out[i] = s
	}
	return dataframe.NewDataFrame(out...), nil
}

// FromColumns assembles a table from evaluated columns.
func FromColumns(cols ...dataframe.Series) *dataframe.DataFrame {
	return dataframe.NewDataFrame(cols...)
}

// WithColumn adds s to df, replacing an existing column of the same name.
// A one-row column broadcasts to the table's length.
func WithColumn(df *dataframe.DataFrame, s dataframe.Series) (*dataframe.DataFrame, error) {
	if len(df.Series) == 0 {
		return dataframe.NewDataFrame(s), nil
	}

	n := NumRows(df)
	if seriesLength(s) == 1 && n != 1 {
		s = broadcastSeries(s, n)
	}
	if seriesLength(s) != n {
		return nil, fmt.Errorf("%w: column %q has %d rows, table has %d",
			ErrLengthMismatch, s.Name(), seriesLength(s), n)
	}

	out := make([]dataframe.Series, 0, len(df.Series)+1)
	replaced := false
	for _, existing := range df.Series {
		if existing.Name() == s.Name() {
			out = append(out, s)
			replaced = true
		} else {
			out = append(out, existing)
		}
	}
	if !replaced {
		out = append(out, s)
	}
	return dataframe.NewDataFrame(out...), nil
}

func broadcastSeries(s dataframe.Series, n int) dataframe.Series {
	v := s.Value(0)
	vals := make([]any, n)
	for i := range vals {
		vals[i] = v
	}
	return seriesOfSameType(s, s.Name(), vals)
}

// Filter keeps the rows where mask is true. Null mask entries drop the row.
func Filter(df *dataframe.DataFrame, mask dataframe.Series) (*dataframe.DataFrame, error) {
	if seriesType(mask) != TypeBool {
		return nil, fmt.Errorf("%w: filter needs a bool expression, got %s",
			ErrTypeMismatch, seriesType(mask))
	}
	n := NumRows(df)
	if seriesLength(mask) != n {
		return nil, fmt.Errorf("%w: mask has %d rows, table has %d",
			ErrLengthMismatch, seriesLength(mask), n)
	}

	indices := maskFromBoolSeries(mask).Indices()
	out := make([]dataframe.Series, len(df.Series))
	for i, s := range df.Series {
		out[i] = gather(s, indices, s.Name())
	}
	return dataframe.NewDataFrame(out...), nil
}

// Sort reorders rows by the given fields. The sort is stable, so rows equal
// under every field keep their relative order.
func Sort(df *dataframe.DataFrame, fields []wire.SortField) (*dataframe.DataFrame, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: Sort() requires at least one field", ErrColumnNotFound)
	}
	cols := make([]dataframe.Series, len(fields))
	for i, f := range fields {
		s, ok := column(df, f.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, f.Column)
		}
		cols[i] = s
	}

	indices := allIndices(NumRows(df))
	sort.SliceStable(indices, func(a, b int) bool {
		ra, rb := indices[a], indices[b]
		for i, f := range fields {
			cmp := compareCell(cols[i], ra, rb, f.NullsLast)
			if cmp == 0 {
				continue
			}
			if f.Descending {
				// Null placement is by NullsLast, not by direction.
				if isNull(cols[i], ra) || isNull(cols[i], rb) {
					return cmp < 0
				}
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	out := make([]dataframe.Series, len(df.Series))
	for i, s := range df.Series {
		out[i] = gather(s, indices, s.Name())
	}
	return dataframe.NewDataFrame(out...), nil
}

// compareCell compares one column's values at rows a and b, ascending.
// Nulls compare per nullsLast regardless of value direction.
func compareCell(s dataframe.Series, a, b int, nullsLast bool) int {
	an, bn := isNull(s, a), isNull(s, b)
	switch {
	case an && bn:
		return 0
	case an:
		if nullsLast {
			return 1
		}
		return -1
	case bn:
		if nullsLast {
			return -1
		}
		return 1
	}

	switch seriesType(s) {
	case TypeString:
		av, _ := stringAt(s, a)
		bv, _ := stringAt(s, b)
		return strings.Compare(av, bv)
	case TypeBool:
		av, _ := boolAt(s, a)
		bv, _ := boolAt(s, b)
		switch {
		case av == bv:
			return 0
		case bv: // false < true
			return -1
		default:
			return 1
		}
	default:
		av, _ := float64At(s, a)
		bv, _ := float64At(s, b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
}

// Limit keeps the first n rows.
func Limit(df *dataframe.DataFrame, n int) (*dataframe.DataFrame, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: Limit() requires a non-negative count", ErrLengthMismatch)
	}
	rows := NumRows(df)
	if n > rows {
		n = rows
	}
	indices := allIndices(n)
	out := make([]dataframe.Series, len(df.Series))
	for i, s := range df.Series {
		out[i] = gather(s, indices, s.Name())
	}
	return dataframe.NewDataFrame(out...), nil
}

// Concat stacks the tables vertically. Every table must carry the same
// column names; columns align by name, and the first table fixes the
// output order.
func Concat(dfs []*dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if len(dfs) == 0 {
		return NewEmpty(), nil
	}

	names := ColumnNames(dfs[0])
	for _, df := range dfs[1:] {
		if !sameNameSet(names, ColumnNames(df)) {
			return nil, fmt.Errorf("%w: concat inputs must share column names", ErrSchemaMismatch)
		}
	}

	out := make([]dataframe.Series, len(names))
	for i, name := range names {
		first, _ := column(dfs[0], name)
		var vals []any
		for _, df := range dfs {
			s, _ := column(df, name)
			n := seriesLength(s)
			for r := 0; r < n; r++ {
				vals = append(vals, s.Value(r))
			}
		}
		out[i] = seriesOfSameType(first, name, vals)
	}
	return dataframe.NewDataFrame(out...), nil
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, name := range a {
		set[name] = true
	}
	for _, name := range b {
		if !set[name] {
			return false
		}
	}
	return true
}

// AddNullRow appends one all-null row.
func AddNullRow(df *dataframe.DataFrame) *dataframe.DataFrame {
	out := make([]dataframe.Series, len(df.Series))
	for i, s := range df.Series {
		n := s.NRows()
		vals := make([]any, n+1)
		for r := 0; r < n; r++ {
			vals[r] = s.Value(r)
		}
		out[i] = seriesOfSameType(s, s.Name(), vals)
	}
	return dataframe.NewDataFrame(out...)
}

// CountRows counts rows. Unless includeNulls is set, rows that are null in
// every column are excluded.
func CountRows(df *dataframe.DataFrame, includeNulls bool) int64 {
	n := NumRows(df)
	if includeNulls || len(df.Series) == 0 {
		return int64(n)
	}
	var count int64
	for row := 0; row < n; row++ {
		for _, s := range df.Series {
			if !isNull(s, row) {
				count++
				break
			}
		}
	}
	return count
}

// CountTable builds the one-row result of a count operation.
func CountTable(df *dataframe.DataFrame, includeNulls bool) *dataframe.DataFrame {
	return dataframe.NewDataFrame(newInt64Series("count", []any{CountRows(df, includeNulls)}))
}

// Join combines left and right on the given key columns. Right-side columns
// that collide with a left-side name come out prefixed with "right_"; the
// right key columns are dropped.
func Join(left, right *dataframe.DataFrame, leftOn, rightOn []string, how wire.JoinHow) (*dataframe.DataFrame, error) {
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("%w: join requires matching key column lists", ErrSchemaMismatch)
	}

	leftKeys := make([]dataframe.Series, len(leftOn))
	for i, name := range leftOn {
		s, ok := column(left, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		leftKeys[i] = s
	}
	rightKeys := make([]dataframe.Series, len(rightOn))
	for i, name := range rightOn {
		s, ok := column(right, name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		rightKeys[i] = s
	}

	var leftIndices, rightIndices []int
	switch how {
	case wire.JoinInner, wire.JoinLeft:
		rightIndex := buildJoinIndex(rightKeys, NumRows(right))
		n := NumRows(left)
		for i := 0; i < n; i++ {
			key := compositeKey(leftKeys, i)
			if matches, ok := rightIndex[key]; ok {
				for _, j := range matches {
					leftIndices = append(leftIndices, i)
					rightIndices = append(rightIndices, j)
				}
			} else if how == wire.JoinLeft {
				leftIndices = append(leftIndices, i)
				rightIndices = append(rightIndices, -1) // null marker
			}
		}

	case wire.JoinRight:
		leftIndex := buildJoinIndex(leftKeys, NumRows(left))
		n := NumRows(right)
		for j := 0; j < n; j++ {
			key := compositeKey(rightKeys, j)
			if matches, ok := leftIndex[key]; ok {
				for _, i := range matches {
					leftIndices = append(leftIndices, i)
					rightIndices = append(rightIndices, j)
				}
			} else {
				leftIndices = append(leftIndices, -1)
				rightIndices = append(rightIndices, j)
			}
		}

	case wire.JoinFull:
		rightIndex := buildJoinIndex(rightKeys, NumRows(right))
		matchedRight := make(map[int]bool)
		n := NumRows(left)
		for i := 0; i < n; i++ {
			key := compositeKey(leftKeys, i)
			if matches, ok := rightIndex[key]; ok {
				for _, j := range matches {
					leftIndices = append(leftIndices, i)
					rightIndices = append(rightIndices, j)
					matchedRight[j] = true
				}
			} else {
				leftIndices = append(leftIndices, i)
				rightIndices = append(rightIndices, -1)
			}
		}
		m := NumRows(right)
		for j := 0; j < m; j++ {
			if !matchedRight[j] {
				leftIndices = append(leftIndices, -1)
				rightIndices = append(rightIndices, j)
			}
		}

	default:
		return nil, fmt.Errorf("%w: unknown join flavor %d", ErrSchemaMismatch, how)
	}

	return buildJoinResult(left, right, rightOn, leftIndices, rightIndices), nil
}

func buildJoinIndex(keys []dataframe.Series, n int) map[string][]int {
	index := make(map[string][]int, n)
	for i := 0; i < n; i++ {
		key := compositeKey(keys, i)
		index[key] = append(index[key], i)
	}
	return index
}

func buildJoinResult(left, right *dataframe.DataFrame, rightOn []string, leftIndices, rightIndices []int) *dataframe.DataFrame {
	var out []dataframe.Series

	taken := make(map[string]bool)
	for _, s := range left.Series {
		taken[s.Name()] = true
		out = append(out, gather(s, leftIndices, s.Name()))
	}

	dropped := make(map[string]bool, len(rightOn))
	for _, name := range rightOn {
		dropped[name] = true
	}
	for _, s := range right.Series {
		name := s.Name()
		if dropped[name] {
			continue
		}
		if taken[name] {
			name = "right_" + name
		}
		out = append(out, gather(s, rightIndices, name))
	}

	return dataframe.NewDataFrame(out...)
}

// RenderCSV serializes the table as delimited text with a header row.
func RenderCSV(ctx context.Context, df *dataframe.DataFrame) (string, error) {
	var buf strings.Builder
	if err := exports.ExportToCSV(ctx, &buf, df); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render formats the table for human inspection.
func Render(df *dataframe.DataFrame) string {
	if df == nil || len(df.Series) == 0 {
		return "empty table"
	}
	return df.Table()
}
