// Package loader reads CSV, JSON, and Parquet sources into dataframe-go
// tables. Paths may be glob patterns; CSV sources may be gzip-compressed.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"

	"github.com/framewire/framewire/pkg/engine"
	"github.com/framewire/framewire/pkg/wire"
)

// Error definitions
var (
	ErrEmptyFile     = errors.New("empty CSV file")
	ErrNoMatches     = errors.New("glob pattern matched no files")
	ErrInvalidFormat = errors.New("invalid CSV format")
)

// LoadCSV reads one or more CSV files into a table.
//   - Column types are auto-detected (int64, float64, bool, string)
//   - Empty values become nulls
//   - With Glob set the path is a pattern and the matches are concatenated
//   - Files ending in .gz are decompressed transparently
func LoadCSV(ctx context.Context, args wire.ReadCSVArgs) (*dataframe.DataFrame, error) {
	paths, err := expandPath(args.Path, args.Glob)
	if err != nil {
		return nil, err
	}

	frames := make([]*dataframe.DataFrame, 0, len(paths))
	for _, path := range paths {
		df, err := loadOneCSV(ctx, path, args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		frames = append(frames, df)
	}
	if len(frames) == 1 {
		return frames[0], nil
	}
	return engine.Concat(frames)
}

func loadOneCSV(ctx context.Context, path string, args wire.ReadCSVArgs) (*dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if args.Gzip || strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		defer gz.Close()
		r = gz
	}

	// LoadFromCSV wants a seeker and the headerless path needs the first
	// row before parsing, so buffer the (possibly decompressed) payload.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	opts := imports.CSVLoadOptions{
		InferDataTypes: true,
	}
	if !args.HasHeader {
		// dataframe-go takes the first row as headers unless told
		// otherwise, so synthesize names from the column count.
		headers, err := syntheticHeaders(data)
		if err != nil {
			return nil, err
		}
		opts.Headers = headers
	}

	df, err := imports.LoadFromCSV(ctx, bytes.NewReader(data), opts)
	if err != nil {
		return nil, err
	}
	if df == nil || len(df.Series) == 0 {
		return nil, ErrEmptyFile
	}
	return df, nil
}

// syntheticHeaders names headerless columns column_1..column_n.
func syntheticHeaders(data []byte) ([]string, error) {
	rec, err := csv.NewReader(strings.NewReader(string(data))).Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	headers := make([]string, len(rec))
	for i := range headers {
		headers[i] = fmt.Sprintf("column_%d", i+1)
	}
	return headers, nil
}

// expandPath resolves a path or, with glob set, a pattern into the sorted
// list of matching files.
func expandPath(path string, glob bool) ([]string, error) {
	if !glob {
		return []string{path}, nil
	}
	matches, err := filepath.Glob(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatches, path)
	}
	return matches, nil
}
