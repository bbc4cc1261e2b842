package export

import (
	"context"
	"sync"

	"github.com/Rana718/synthdb/internal/types"
)

// Applier loads a finished dataset into a live database in one transaction.
type Applier interface {
	Apply(ctx context.Context, batches []types.Batch, patches []types.Patch) error
}

// Database buffers the dataset and hands it to an Applier on Commit, so
// nothing reaches the database unless generation finished. Unlike Memory it
// keeps rows as inserted: patches stay separate UPDATEs, because a
// non-deferrable foreign key would reject the patched value at insert time.
type Database struct {
	mu      sync.Mutex
	target  Applier
	batches []types.Batch
	patches []types.Patch
}

func NewDatabase(target Applier) *Database {
	return &Database{target: target}
}

func (d *Database) Begin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches, d.patches = nil, nil
	return nil
}

func (d *Database) EmitBatch(ctx context.Context, batch types.Batch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, batch)
	return nil
}

func (d *Database) EmitPatch(ctx context.Context, patch types.Patch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patches = append(d.patches, patch)
	return nil
}

func (d *Database) Commit(ctx context.Context) error {
	d.mu.Lock()
	batches, patches := d.batches, d.patches
	d.mu.Unlock()
	return d.target.Apply(ctx, batches, patches)
}

func (d *Database) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches, d.patches = nil, nil
	return nil
}
