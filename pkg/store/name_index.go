package store

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arkivdb/arkiv/pkg/archive"
)

// nameIndex caches the set of record names in a container, keyed by
// the file's size and modification time. Every mutating store
// operation invalidates it explicitly; the stat check additionally
// catches containers swapped out from under us. Enumeration order of
// the container is preserved because List derives its contract from
// it.
type nameIndex struct {
	mutex   sync.Mutex
	names   []string
	present map[string]struct{}
	size    int64
	modTime time.Time
	valid   bool
}

func newNameIndex() *nameIndex {
	return &nameIndex{}
}

// Names returns the record names in container enumeration order,
// rebuilding the cache from the container when stale.
func (idx *nameIndex) Names(path string) ([]string, error) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	if err := idx.refresh(path); err != nil {
		return nil, err
	}
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out, nil
}

// Has reports whether a record name is present.
func (idx *nameIndex) Has(path, name string) (bool, error) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	if err := idx.refresh(path); err != nil {
		return false, err
	}
	_, ok := idx.present[name]
	return ok, nil
}

// Invalidate drops the cache. Called after every mutation.
func (idx *nameIndex) Invalidate() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.valid = false
}

// refresh rebuilds the cache from the container's payload entries when
// the cached stat no longer matches. Caller holds the mutex.
func (idx *nameIndex) refresh(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if idx.valid && fi.Size() == idx.size && fi.ModTime().Equal(idx.modTime) {
		return nil
	}

	entries, err := archive.List(path)
	if err != nil {
		return err
	}

	idx.names = idx.names[:0]
	idx.present = make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		name, ok := strings.CutPrefix(entry, "data/")
		if !ok {
			continue
		}
		idx.names = append(idx.names, name)
		idx.present[name] = struct{}{}
	}
	idx.size = fi.Size()
	idx.modTime = fi.ModTime()
	idx.valid = true
	return nil
}
