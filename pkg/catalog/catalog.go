// Package catalog persists the set of record stores known to an
// engine: a small pebble database mapping store names to their YAML
// configuration.
package catalog

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"gopkg.in/yaml.v3"

	"github.com/arkivdb/arkiv/pkg/config"
)

// ErrStoreNotFound is returned by Get for unknown store names.
var ErrStoreNotFound = errors.New("store not found in catalog")

// Catalog is a durable name -> StoreConfig mapping.
type Catalog struct {
	db *pebble.DB
}

// Open opens (or creates) a catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Put registers or replaces a store configuration.
func (c *Catalog) Put(cfg config.StoreConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal store config: %w", err)
	}
	if err := c.db.Set([]byte(cfg.Name), data, pebble.NoSync); err != nil {
		return fmt.Errorf("write catalog entry %q: %w", cfg.Name, err)
	}
	return nil
}

// Get returns the configuration registered under name.
func (c *Catalog) Get(name string) (config.StoreConfig, error) {
	data, closer, err := c.db.Get([]byte(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return config.StoreConfig{}, fmt.Errorf("%q: %w", name, ErrStoreNotFound)
	}
	if err != nil {
		return config.StoreConfig{}, fmt.Errorf("read catalog entry %q: %w", name, err)
	}
	defer closer.Close()

	var cfg config.StoreConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config.StoreConfig{}, fmt.Errorf("parse catalog entry %q: %w", name, err)
	}
	return cfg, nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) (bool, error) {
	_, err := c.Get(name)
	if errors.Is(err, ErrStoreNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a store registration. Removing an unknown name is a
// no-op.
func (c *Catalog) Delete(name string) error {
	if err := c.db.Delete([]byte(name), pebble.NoSync); err != nil {
		return fmt.Errorf("delete catalog entry %q: %w", name, err)
	}
	return nil
}

// List returns all registered store names in key order.
func (c *Catalog) List() ([]string, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return names, nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
