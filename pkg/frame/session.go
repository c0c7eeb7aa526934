// Package frame is the host-side API over the execution boundary. A
// DataFrame buffers operations and submits them as one pipeline when
// Collect is called; construction errors are latched into the pipeline and
// reported with their frame index instead of panicking.
package frame

import (
	"github.com/framewire/framewire/pkg/exec"
	"github.com/framewire/framewire/pkg/wire"
)

// Expr is re-exported so hosts only import this package.
type Expr = wire.Expr

// Expression builder re-exports.
func Col(name string) Expr { return wire.Col(name) }
func Lit(v any) Expr       { return wire.Lit(v) }
func Rank() Expr           { return wire.Rank() }
func DenseRank() Expr      { return wire.DenseRank() }
func RowNumber() Expr      { return wire.RowNumber() }

// Sort field re-exports.
func Asc(column string) wire.SortField            { return wire.Asc(column) }
func Desc(column string) wire.SortField           { return wire.Desc(column) }
func AscNullsLast(column string) wire.SortField   { return wire.AscNullsLast(column) }
func DescNullsFirst(column string) wire.SortField { return wire.DescNullsFirst(column) }

// Session binds DataFrames to one runtime.
type Session struct {
	rt *exec.Runtime
}

// NewSession wraps a runtime; a nil runtime gets a default one.
func NewSession(rt *exec.Runtime) *Session {
	if rt == nil {
		rt = exec.NewRuntime()
	}
	return &Session{rt: rt}
}

// Runtime exposes the underlying runtime.
func (s *Session) Runtime() *exec.Runtime {
	return s.rt
}

// CSVOption adjusts how a CSV source is read.
type CSVOption func(*wire.ReadCSVArgs)

// WithoutHeader treats the first row as data and synthesizes column names.
func WithoutHeader() CSVOption {
	return func(a *wire.ReadCSVArgs) { a.HasHeader = false }
}

// WithGlob treats the path as a glob pattern.
func WithGlob() CSVOption {
	return func(a *wire.ReadCSVArgs) { a.Glob = true }
}

// WithGzip forces gzip decompression regardless of the file suffix.
func WithGzip() CSVOption {
	return func(a *wire.ReadCSVArgs) { a.Gzip = true }
}

// ReadCSV starts a pipeline from a CSV source.
func (s *Session) ReadCSV(path string, opts ...CSVOption) *DataFrame {
	args := wire.ReadCSVArgs{Path: path, HasHeader: true}
	for _, opt := range opts {
		opt(&args)
	}
	return s.start(wire.Operation{Opcode: wire.OpReadCSV, Args: args})
}

// ParquetOption adjusts how a Parquet source is read.
type ParquetOption func(*wire.ReadParquetArgs)

// ParquetColumns narrows the read to the named columns.
func ParquetColumns(cols ...string) ParquetOption {
	return func(a *wire.ReadParquetArgs) { a.Columns = cols }
}

// ParquetRows caps the number of rows read.
func ParquetRows(n int) ParquetOption {
	return func(a *wire.ReadParquetArgs) { a.NRows = n }
}

// ParquetGlob treats the path as a glob pattern.
func ParquetGlob() ParquetOption {
	return func(a *wire.ReadParquetArgs) { a.Glob = true }
}

// ReadParquet starts a pipeline from a Parquet source.
func (s *Session) ReadParquet(path string, opts ...ParquetOption) *DataFrame {
	args := wire.ReadParquetArgs{Path: path}
	for _, opt := range opts {
		opt(&args)
	}
	return s.start(wire.Operation{Opcode: wire.OpReadParquet, Args: args})
}

// ReadJSON starts a pipeline from a JSON records source.
func (s *Session) ReadJSON(path string) *DataFrame {
	return s.start(wire.Operation{Opcode: wire.OpReadJSON, Args: wire.ReadJSONArgs{Path: path}})
}

// Empty starts a pipeline from a fresh empty table.
func (s *Session) Empty() *DataFrame {
	return s.start(wire.Operation{Opcode: wire.OpNewEmpty})
}

// Concat starts a pipeline that stacks already-collected frames. Ownership
// of every input handle transfers to the runtime: the inputs are released
// when the concat executes, whether or not it succeeds.
func (s *Session) Concat(frames ...*DataFrame) *DataFrame {
	handles := make([]uint64, len(frames))
	for i, f := range frames {
		if f.handle == 0 {
			d := s.start(wire.Operation{Opcode: wire.OpConcat, Args: wire.ConcatArgs{}})
			return d.errOpf("Concat() requires collected frames, input %d has no handle", i)
		}
		handles[i] = f.handle
	}
	return s.start(wire.Operation{Opcode: wire.OpConcat, Args: wire.ConcatArgs{Handles: handles}})
}

func (s *Session) start(op wire.Operation) *DataFrame {
	return &DataFrame{session: s, ops: []wire.Operation{op}}
}
