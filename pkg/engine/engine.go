// Package engine layers the connector/session gate in front of the
// record store: it tracks which store handles are open, gates every
// operation on that state, and keeps a durable catalog of the stores
// it manages.
package engine

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/arkivdb/arkiv/pkg/catalog"
	"github.com/arkivdb/arkiv/pkg/config"
	"github.com/arkivdb/arkiv/pkg/store"
)

var (
	// ErrStoreExists is returned by Create for names already in the
	// catalog.
	ErrStoreExists = errors.New("store already exists")

	// ErrNoSuchStore is returned when opening or dropping an unknown
	// store.
	ErrNoSuchStore = errors.New("no such store")

	// ErrConnectorClosed is returned by every Connection method after
	// Close. A closed connector cannot be reopened; obtain a new one
	// with Engine.Open.
	ErrConnectorClosed = errors.New("connector is closed")
)

// Engine manages a set of record stores and the connectors to them.
type Engine struct {
	mutex   sync.Mutex
	catalog *catalog.Catalog
	conns   map[string]*Connection
	log     store.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger injects the logger passed down to every store the engine
// opens.
func WithLogger(l store.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an engine backed by the given catalog.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		conns:   make(map[string]*Connection),
		log:     store.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create registers a new store and creates its container file. It
// fails with ErrStoreExists when the name is already in the catalog.
func (e *Engine) Create(cfg config.StoreConfig) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	exists, err := e.catalog.Has(cfg.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("store %q: %w", cfg.Name, ErrStoreExists)
	}

	// Opening creates the container when absent.
	if _, err := store.Open(cfg, store.WithLogger(e.log)); err != nil {
		return err
	}
	if err := e.catalog.Put(cfg); err != nil {
		return err
	}
	e.log.Info("created store", "name", cfg.Name, "path", cfg.Path)
	return nil
}

// Open returns a new connector to a registered store. Each call yields
// a distinct handle; closing one does not affect others.
func (e *Engine) Open(name string) (*Connection, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	cfg, err := e.catalog.Get(name)
	if errors.Is(err, catalog.ErrStoreNotFound) {
		return nil, fmt.Errorf("store %q: %w", name, ErrNoSuchStore)
	}
	if err != nil {
		return nil, err
	}

	rs, err := store.Open(cfg, store.WithLogger(e.log))
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		id:     ksuid.New().String(),
		engine: e,
		store:  rs,
	}
	e.conns[conn.id] = conn
	return conn, nil
}

// Drop closes all connectors to a store, removes it from the catalog,
// and deletes its container file.
func (e *Engine) Drop(name string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	cfg, err := e.catalog.Get(name)
	if errors.Is(err, catalog.ErrStoreNotFound) {
		return fmt.Errorf("store %q: %w", name, ErrNoSuchStore)
	}
	if err != nil {
		return err
	}

	for id, conn := range e.conns {
		if conn.store.Config().Name == name {
			delete(e.conns, id)
		}
	}
	if err := e.catalog.Delete(name); err != nil {
		return err
	}
	if err := os.Remove(cfg.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove container %s: %w", cfg.Path, err)
	}
	e.log.Info("dropped store", "name", name)
	return nil
}

// Stores returns the names of all registered stores.
func (e *Engine) Stores() ([]string, error) {
	return e.catalog.List()
}

// Close invalidates all open connectors. The catalog is left to its
// owner to close.
func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.conns = make(map[string]*Connection)
	return nil
}

func (e *Engine) connected(id string) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	_, ok := e.conns[id]
	return ok
}

// release removes a connector. Reports whether it was present.
func (e *Engine) release(id string) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, ok := e.conns[id]; !ok {
		return false
	}
	delete(e.conns, id)
	return true
}
