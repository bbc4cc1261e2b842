// Package export holds the emission collaborators a generation run writes
// its dataset to. A sink receives finished table batches in insertion order,
// then the patch events of the deferred foreign-key pass, and only makes
// the result visible on Commit: an aborted run leaves nothing behind.
package export

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/types"
)

// Sink is an emission collaborator.
type Sink interface {
	Begin(ctx context.Context) error
	EmitBatch(ctx context.Context, batch types.Batch) error
	EmitPatch(ctx context.Context, patch types.Patch) error
	Commit(ctx context.Context) error
	Abort() error
}

// Formats lists the file formats New accepts.
var Formats = []string{"sql", "json", "csv", "sqlite"}

// New returns the file sink for a format.
func New(format, path string) (Sink, error) {
	switch format {
	case "sql", "":
		return NewSQLFile(path), nil
	case "json":
		return NewJSONFile(path), nil
	case "csv":
		return NewCSVDir(path), nil
	case "sqlite":
		return NewSQLiteFile(path), nil
	}
	return nil, errors.WithStack(&errors.ConfigError{Field: "output.format", Reason: "unknown format " + format})
}

// Memory buffers the dataset in memory and applies patches to the buffered
// rows, so Batches always shows the final state. File sinks build on it;
// tests use it directly.
type Memory struct {
	mu      sync.Mutex
	batches []types.Batch
	patches []types.Patch
	index   map[string]int
	done    bool
}

func NewMemory() *Memory {
	return &Memory{index: make(map[string]int)}
}

func (m *Memory) Begin(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches, m.patches, m.done = nil, nil, false
	m.index = make(map[string]int)
	return nil
}

func (m *Memory) EmitBatch(ctx context.Context, batch types.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.index[batch.Table]; dup {
		return errors.Newf("table %s emitted twice", batch.Table)
	}
	m.index[batch.Table] = len(m.batches)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *Memory) EmitPatch(ctx context.Context, patch types.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[patch.Table]
	if !ok {
		return errors.Newf("patch for table %s before its batch", patch.Table)
	}
	rows := m.batches[i].Rows
	if patch.Index < 0 || patch.Index >= len(rows) {
		return errors.Newf("patch for %s row %d out of range", patch.Table, patch.Index)
	}
	for col, v := range patch.Values {
		rows[patch.Index][col] = v
	}
	m.patches = append(m.patches, patch)
	return nil
}

func (m *Memory) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = true
	return nil
}

func (m *Memory) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches, m.patches = nil, nil
	m.index = make(map[string]int)
	return nil
}

// Batches returns the buffered batches in emission order.
func (m *Memory) Batches() []types.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Batch(nil), m.batches...)
}

// Patches returns the patch events in emission order.
func (m *Memory) Patches() []types.Patch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Patch(nil), m.patches...)
}

// Rows returns the rows of one table, nil if it was never emitted.
func (m *Memory) Rows(table string) []types.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.index[table]; ok {
		return m.batches[i].Rows
	}
	return nil
}

// Committed reports whether the run committed.
func (m *Memory) Committed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Tables returns the emitted table names in emission order.
func (m *Memory) Tables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.batches))
	for i, b := range m.batches {
		names[i] = b.Table
	}
	return names
}

// stage writes through a temporary file next to path and renames it into
// place on success.
func stage(path string, write func(f *os.File) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary output file")
	}
	name := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "failed to close output file")
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "failed to move output into %s", path)
	}
	return nil
}
