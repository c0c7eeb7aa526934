package exec

import (
	"context"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"go.uber.org/zap"

	"github.com/framewire/framewire/pkg/engine"
)

// Runtime owns the handle and message tables and executes pipelines. It is
// safe for concurrent use; each Execute call runs one pipeline to
// completion against its own working table.
type Runtime struct {
	logger       *zap.Logger
	maxOps       int64
	sandbox      bool
	allowedPaths []string

	handles  *handleTable
	messages *messageTable
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger installs a logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxOps caps how many operations one pipeline may execute.
func WithMaxOps(n int64) Option {
	return func(r *Runtime) { r.maxOps = n }
}

// WithSandbox restricts loader operations to the given path prefixes.
func WithSandbox(paths ...string) Option {
	return func(r *Runtime) {
		r.sandbox = true
		r.allowedPaths = paths
	}
}

// NewRuntime creates a runtime with its own handle and message tables.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		logger:   zap.NewNop(),
		handles:  newHandleTable(),
		messages: newMessageTable(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts an existing table and returns its handle. This is how
// embedders seed the runtime with in-memory data instead of loading files.
func (r *Runtime) Register(df *dataframe.DataFrame) uint64 {
	return r.handles.insert(&entry{df: df, context: ContextTable})
}

// Release drops the resource behind a handle. It is idempotent: releasing
// an unknown or already-released handle returns false and does nothing.
func (r *Runtime) Release(h uint64) bool {
	ok := r.handles.remove(h)
	if !ok && h != 0 {
		r.logger.Debug("release of unknown handle", zap.Uint64("handle", h))
	}
	return ok
}

// FreeErrorMessage releases an error message returned by Execute. Double
// free is a logged no-op.
func (r *Runtime) FreeErrorMessage(id uint64) {
	if id == 0 {
		return
	}
	if !r.messages.free(id) {
		r.logger.Warn("double free of error message", zap.Uint64("id", id))
	}
}

// RowCount returns the number of physical rows behind a handle.
func (r *Runtime) RowCount(h uint64) (int, error) {
	e, err := r.handles.get(h)
	if err != nil {
		return 0, err
	}
	return engine.NumRows(e.df), nil
}

// ToCSV serializes the table behind a handle as delimited text.
func (r *Runtime) ToCSV(ctx context.Context, h uint64) (string, error) {
	e, err := r.handles.get(h)
	if err != nil {
		return "", err
	}
	return engine.RenderCSV(ctx, e.df)
}

// Render formats the table behind a handle for display.
func (r *Runtime) Render(h uint64) (string, error) {
	e, err := r.handles.get(h)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(engine.Render(e.df), "\n"), nil
}

// Table exposes the table behind a handle, mainly for tests and embedding.
func (r *Runtime) Table(h uint64) (*dataframe.DataFrame, error) {
	e, err := r.handles.get(h)
	if err != nil {
		return nil, err
	}
	return e.df, nil
}

// OpenHandles reports how many handles are live.
func (r *Runtime) OpenHandles() int {
	return r.handles.size()
}

// PendingMessages reports how many error messages await freeing.
func (r *Runtime) PendingMessages() int {
	return r.messages.size()
}

// Noop crosses the boundary and does nothing. It exists so hosts can
// measure dispatch overhead.
func (r *Runtime) Noop() {}

// isPathAllowed checks a loader path against the sandbox prefixes.
func (r *Runtime) isPathAllowed(path string) bool {
	if !r.sandbox {
		return true
	}
	for _, allowed := range r.allowedPaths {
		if path == allowed || strings.HasPrefix(path, allowed+"/") {
			return true
		}
	}
	return false
}
