package loader

import (
	"context"
	"errors"
	"fmt"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/xitongsys/parquet-go-source/local"

	"github.com/framewire/framewire/pkg/engine"
	"github.com/framewire/framewire/pkg/wire"
)

// Parquet-specific errors
var (
	ErrEmptyParquet   = errors.New("empty Parquet file")
	ErrInvalidParquet = errors.New("invalid Parquet format")
)

// LoadParquet reads one or more Parquet files into a table. Columns narrows
// the result to the named columns and NRows caps the row count; both apply
// after any glob concatenation.
func LoadParquet(ctx context.Context, args wire.ReadParquetArgs) (*dataframe.DataFrame, error) {
	paths, err := expandPath(args.Path, args.Glob)
	if err != nil {
		return nil, err
	}

	frames := make([]*dataframe.DataFrame, 0, len(paths))
	for _, path := range paths {
		df, err := loadOneParquet(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		frames = append(frames, df)
	}

	df := frames[0]
	if len(frames) > 1 {
		if df, err = engine.Concat(frames); err != nil {
			return nil, err
		}
	}

	if len(args.Columns) > 0 {
		if df, err = engine.Select(df, args.Columns); err != nil {
			return nil, err
		}
	}
	if args.NRows > 0 {
		if df, err = engine.Limit(df, args.NRows); err != nil {
			return nil, err
		}
	}
	return df, nil
}

func loadOneParquet(ctx context.Context, path string) (*dataframe.DataFrame, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	df, err := imports.LoadFromParquet(ctx, fr)
	if err != nil {
		return nil, err
	}
	if df == nil || len(df.Series) == 0 {
		return nil, ErrEmptyParquet
	}
	return df, nil
}
