// Package engine adapts rocketlaunchr/dataframe-go to the boundary's
// execution model: expression trees evaluated into columns, grouped
// aggregation, window functions, and whole-table operations. Nulls are
// first-class; every kernel propagates them instead of coercing to zero.
package engine

import (
	"errors"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Error definitions
var (
	ErrColumnNotFound = errors.New("column not found")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrDivisionByZero = errors.New("division by zero")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrLengthMismatch = errors.New("column length mismatch")
)

// DataType classifies the element type of a series.
type DataType uint8

const (
	TypeInt64 DataType = iota
	TypeFloat64
	TypeString
	TypeBool
	TypeUnknown
)

// String returns the string representation of the data type.
func (t DataType) String() string {
	switch t {
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// seriesType returns the DataType for a dataframe-go Series.
func seriesType(s dataframe.Series) DataType {
	if s == nil {
		return TypeUnknown
	}
	switch s.(type) {
	case *dataframe.SeriesInt64:
		return TypeInt64
	case *dataframe.SeriesFloat64:
		return TypeFloat64
	case *dataframe.SeriesString:
		return TypeString
	default:
		// Bool columns are SeriesGeneric with bool elements.
		if sg, ok := s.(*dataframe.SeriesGeneric); ok && sg.NRows() > 0 {
			if _, ok := sg.Value(0).(bool); ok {
				return TypeBool
			}
		}
		return TypeUnknown
	}
}

func seriesLength(s dataframe.Series) int {
	if s == nil {
		return 0
	}
	return s.NRows()
}

// isNull reports whether the value at index i is null.
func isNull(s dataframe.Series, i int) bool {
	if s == nil || i < 0 || i >= s.NRows() {
		return true
	}
	return s.Value(i) == nil
}

// int64At extracts an int64 at index i. ok is false for nulls and
// non-numeric values.
func int64At(s dataframe.Series, i int) (int64, bool) {
	if s == nil || i < 0 || i >= s.NRows() {
		return 0, false
	}
	switch v := s.Value(i).(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// float64At extracts a float64 at index i, widening integers.
func float64At(s dataframe.Series, i int) (float64, bool) {
	if s == nil || i < 0 || i >= s.NRows() {
		return 0, false
	}
	switch v := s.Value(i).(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringAt(s dataframe.Series, i int) (string, bool) {
	if s == nil || i < 0 || i >= s.NRows() {
		return "", false
	}
	v, ok := s.Value(i).(string)
	return v, ok
}

func boolAt(s dataframe.Series, i int) (bool, bool) {
	if s == nil || i < 0 || i >= s.NRows() {
		return false, false
	}
	v, ok := s.Value(i).(bool)
	return v, ok
}

// newInt64Series builds a nullable int64 series; nil entries stay null.
func newInt64Series(name string, vals []any) *dataframe.SeriesInt64 {
	return dataframe.NewSeriesInt64(name, nil, vals...)
}

func newFloat64Series(name string, vals []any) *dataframe.SeriesFloat64 {
	return dataframe.NewSeriesFloat64(name, nil, vals...)
}

func newStringSeries(name string, vals []any) *dataframe.SeriesString {
	return dataframe.NewSeriesString(name, nil, vals...)
}

// newBoolSeries builds a nullable bool series. dataframe-go has no native
// bool series, so bool columns ride on SeriesGeneric.
func newBoolSeries(name string, vals []any) dataframe.Series {
	return dataframe.NewSeriesGeneric(name, false, nil, vals...)
}

// seriesOfSameType builds a series shaped like src holding vals.
func seriesOfSameType(src dataframe.Series, name string, vals []any) dataframe.Series {
	switch src.(type) {
	case *dataframe.SeriesInt64:
		return newInt64Series(name, vals)
	case *dataframe.SeriesFloat64:
		return newFloat64Series(name, vals)
	case *dataframe.SeriesString:
		return newStringSeries(name, vals)
	default:
		if sg, ok := src.(*dataframe.SeriesGeneric); ok && sg.NRows() > 0 {
			return dataframe.NewSeriesGeneric(name, sg.Value(0), nil, vals...)
		}
		return dataframe.NewSeriesGeneric(name, nil, nil, vals...)
	}
}

// gather builds a new series from src at the given row indices. A negative
// index yields a null.
func gather(src dataframe.Series, indices []int, name string) dataframe.Series {
	vals := make([]any, len(indices))
	for i, idx := range indices {
		if idx < 0 {
			vals[i] = nil
		} else {
			vals[i] = src.Value(idx)
		}
	}
	return seriesOfSameType(src, name, vals)
}

// column retrieves a Series from a DataFrame by name.
func column(df *dataframe.DataFrame, name string) (dataframe.Series, bool) {
	if df == nil {
		return nil, false
	}
	idx, err := df.NameToColumn(name)
	if err != nil {
		return nil, false
	}
	return df.Series[idx], true
}

// ColumnNames returns the column names in declaration order.
func ColumnNames(df *dataframe.DataFrame) []string {
	if df == nil {
		return nil
	}
	names := make([]string, len(df.Series))
	for i, s := range df.Series {
		names[i] = s.Name()
	}
	return names
}

// NumRows returns the number of rows in df.
func NumRows(df *dataframe.DataFrame) int {
	if df == nil || len(df.Series) == 0 {
		return 0
	}
	return df.Series[0].NRows()
}

// NewEmpty creates an empty table with no columns.
func NewEmpty() *dataframe.DataFrame {
	return dataframe.NewDataFrame()
}
