// Package testutil provides shared fixtures for the boundary tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// TempCSV creates a temporary CSV file and returns its path. The file is
// cleaned up when the test finishes.
func TempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp CSV: %v", err)
	}
	return path
}

// TempFile creates a temporary file with the given content and extension.
func TempFile(t *testing.T, content, ext string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+ext)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// TempGzipCSV creates a gzip-compressed CSV file and returns its path.
func TempGzipCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp gzip CSV: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp gzip CSV: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close temp gzip CSV: %v", err)
	}
	return path
}

// PeopleCSV returns the standard test fixture: seven employees across three
// departments.
func PeopleCSV() string {
	return `name,age,salary,department
Alice,25,50000,Engineering
Bob,30,60000,Marketing
Charlie,35,70000,Engineering
Diana,28,55000,Sales
Eve,32,65000,Engineering
Frank,29,58000,Marketing
Grace,27,52000,Sales`
}

// SimpleCSV returns minimal test CSV content.
func SimpleCSV() string {
	return `a,b
1,2
3,4
5,6`
}

// MakePeopleFrame builds the PeopleCSV fixture as an in-memory table.
func MakePeopleFrame() *dataframe.DataFrame {
	return dataframe.NewDataFrame(
		dataframe.NewSeriesString("name", nil, "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace"),
		dataframe.NewSeriesInt64("age", nil, 25, 30, 35, 28, 32, 29, 27),
		dataframe.NewSeriesInt64("salary", nil, 50000, 60000, 70000, 55000, 65000, 58000, 52000),
		dataframe.NewSeriesString("department", nil, "Engineering", "Marketing", "Engineering", "Sales", "Engineering", "Marketing", "Sales"),
	)
}

// MakeSimpleFrame builds a minimal table with two int64 columns.
func MakeSimpleFrame() *dataframe.DataFrame {
	return dataframe.NewDataFrame(
		dataframe.NewSeriesInt64("a", nil, 1, 3, 5),
		dataframe.NewSeriesInt64("b", nil, 2, 4, 6),
	)
}

// AssertFloat64Near checks that two float64 values are approximately equal.
func AssertFloat64Near(t *testing.T, expected, actual, tolerance float64) {
	t.Helper()
	if actual < expected-tolerance || actual > expected+tolerance {
		t.Errorf("expected %.6f, got %.6f (tolerance: %.6f)", expected, actual, tolerance)
	}
}

// AssertInt64Equal checks that two int64 values are equal.
func AssertInt64Equal(t *testing.T, expected, actual int64) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected %d, got %d", expected, actual)
	}
}
