package engine

import (
	"fmt"

	"github.com/arkivdb/arkiv/pkg/record"
	"github.com/arkivdb/arkiv/pkg/store"
)

// Connection is an open handle to one record store. Every call checks
// that the handle is still registered with its engine; after Close all
// calls fail with ErrConnectorClosed.
type Connection struct {
	id     string
	engine *Engine
	store  *store.RecordStore
}

// ID returns the opaque connector id.
func (c *Connection) ID() string { return c.id }

// Name returns the name of the store this connector is bound to.
func (c *Connection) Name() string { return c.store.Config().Name }

// Close releases the connector. Closing is terminal: the handle cannot
// be reused and a second Close fails like any other call.
func (c *Connection) Close() error {
	if !c.engine.release(c.id) {
		return c.closedErr()
	}
	return nil
}

// Insert adds a new record through this connector.
func (c *Connection) Insert(name string, data []byte, meta record.Metadata) (*record.Record, error) {
	if !c.engine.connected(c.id) {
		return nil, c.closedErr()
	}
	return c.store.Insert(name, data, meta)
}

// Get retrieves a record; a missing record yields nil, nil.
func (c *Connection) Get(name string) (*record.Record, error) {
	if !c.engine.connected(c.id) {
		return nil, c.closedErr()
	}
	return c.store.Get(name)
}

// Update replaces an existing record.
func (c *Connection) Update(name string, data []byte, meta record.Metadata) (*record.Record, error) {
	if !c.engine.connected(c.id) {
		return nil, c.closedErr()
	}
	return c.store.Update(name, data, meta)
}

// Delete removes a record. When the store is configured with
// auto-compact, the container is compacted right after.
func (c *Connection) Delete(name string) (bool, error) {
	if !c.engine.connected(c.id) {
		return false, c.closedErr()
	}
	ok, err := c.store.Delete(name)
	if err != nil {
		return ok, err
	}
	if c.store.Config().AutoCompact {
		if err := c.store.Compact(); err != nil {
			return ok, err
		}
	}
	return ok, nil
}

// List returns all record names.
func (c *Connection) List() ([]string, error) {
	if !c.engine.connected(c.id) {
		return nil, c.closedErr()
	}
	return c.store.List()
}

// Search returns record names containing substring.
func (c *Connection) Search(substring string) ([]string, error) {
	if !c.engine.connected(c.id) {
		return nil, c.closedErr()
	}
	return c.store.Search(substring)
}

// Compact rebuilds the container.
func (c *Connection) Compact() error {
	if !c.engine.connected(c.id) {
		return c.closedErr()
	}
	return c.store.Compact()
}

// Backup copies the container to dst.
func (c *Connection) Backup(dst string) error {
	if !c.engine.connected(c.id) {
		return c.closedErr()
	}
	return c.store.Backup(dst)
}

// Size returns the container's on-disk size.
func (c *Connection) Size() (int64, error) {
	if !c.engine.connected(c.id) {
		return 0, c.closedErr()
	}
	return c.store.Size()
}

// ValidateSize reports whether the container is over its size budget.
func (c *Connection) ValidateSize() error {
	if !c.engine.connected(c.id) {
		return c.closedErr()
	}
	return c.store.ValidateSize()
}

func (c *Connection) closedErr() error {
	return fmt.Errorf("connector %s: %w", c.id, ErrConnectorClosed)
}
