// Package archive adapts a zip container file into the entry-level
// primitives the record store needs: create, enumerate, read entry,
// append entries, and rewrite-with-exclusions.
//
// Mutations never touch the container in place. Every append or
// rewrite streams entries into a temporary file in the same directory
// and atomically renames it over the original once the new container
// has been verified, so a failure at any point leaves the original
// file byte-for-byte intact. Existing entries are carried over with
// their raw compressed bytes (no recompression), which keeps unrelated
// records byte-identical across mutations.
package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// MetaEntryName is the store-level metadata entry present in every
// container.
const MetaEntryName = "__metadata__.json"

var (
	// ErrEntryNotFound is returned by Read when the named entry is
	// absent from the container.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrDuplicateEntry is returned when a rebuild would produce a
	// container with duplicate payload entry names.
	ErrDuplicateEntry = errors.New("duplicate data entry")
)

// StoreMeta is the JSON document stored under MetaEntryName.
type StoreMeta struct {
	CreatedAt  string `json:"created_at"`
	Version    string `json:"version"`
	Encryption bool   `json:"encryption"`
}

// Entry is one named blob to be written into the container.
type Entry struct {
	Name string
	Data []byte
}

// Create writes a fresh container at path holding only the store
// metadata entry, compressed at the given deflate level.
func Create(path string, level int, meta StoreMeta) error {
	doc, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal store metadata: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create container %s: %w", path, err)
	}

	zw := newWriter(f, level)
	werr := writeEntry(zw, Entry{Name: MetaEntryName, Data: doc})
	if cerr := zw.Close(); werr == nil {
		werr = cerr
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return fmt.Errorf("write container %s: %w", path, werr)
	}
	return nil
}

// IsArchive reports whether path exists and is a well-formed container.
func IsArchive(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	r.Close()
	return true
}

// List returns every entry name in container enumeration order.
func List(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", path, err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Read returns the bytes of the named entry, or ErrEntryNotFound when
// the entry is absent.
func Read(path, name string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrEntryNotFound)
}

// ReadMeta parses the store metadata entry.
func ReadMeta(path string) (StoreMeta, error) {
	data, err := Read(path, MetaEntryName)
	if err != nil {
		return StoreMeta{}, err
	}
	var meta StoreMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return StoreMeta{}, fmt.Errorf("parse store metadata: %w", err)
	}
	return meta, nil
}

// Size returns the container's on-disk size in bytes.
func Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat container %s: %w", path, err)
	}
	return fi.Size(), nil
}

// Append adds entries to the container. Existing entries are carried
// over raw; the swap is atomic and a failed append leaves the original
// container untouched.
func Append(path string, level int, entries []Entry) error {
	return rebuild(path, level, nil, entries)
}

// Rewrite rebuilds the container keeping only entries for which keep
// returns true (nil keeps everything), then writes add. Shared by
// update, delete, and compact.
func Rewrite(path string, level int, keep func(name string) bool, add []Entry) error {
	return rebuild(path, level, keep, add)
}

// rebuild implements the copy-then-atomic-replace protocol:
// read-only source, temp destination in the same directory, raw copy of
// kept entries, write of added entries, duplicate-name verification,
// rename over the original. Any failure removes the temp file.
func rebuild(path string, level int, keep func(string) bool, add []Entry) (err error) {
	src, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open container %s: %w", path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".rebuild-*")
	if err != nil {
		return fmt.Errorf("create temp container: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	zw := newWriter(tmp, level)
	for _, f := range src.File {
		if keep != nil && !keep(f.Name) {
			continue
		}
		if cerr := zw.Copy(f); cerr != nil {
			zw.Close()
			tmp.Close()
			return fmt.Errorf("copy entry %s: %w", f.Name, cerr)
		}
	}
	for _, e := range add {
		if werr := writeEntry(zw, e); werr != nil {
			zw.Close()
			tmp.Close()
			return fmt.Errorf("write entry %s: %w", e.Name, werr)
		}
	}
	if cerr := zw.Close(); cerr != nil {
		tmp.Close()
		return fmt.Errorf("finalize temp container: %w", cerr)
	}
	if serr := tmp.Sync(); serr != nil {
		tmp.Close()
		return fmt.Errorf("sync temp container: %w", serr)
	}
	if cerr := tmp.Close(); cerr != nil {
		return fmt.Errorf("close temp container: %w", cerr)
	}

	if verr := verifyNoDuplicates(tmpPath); verr != nil {
		return verr
	}

	// Release the source before the rename so the swap also works on
	// platforms that refuse to replace an open file.
	src.Close()
	if rerr := os.Rename(tmpPath, path); rerr != nil {
		return fmt.Errorf("replace container %s: %w", path, rerr)
	}
	return nil
}

// verifyNoDuplicates re-opens the rebuilt container and checks that no
// payload entry name appears twice.
func verifyNoDuplicates(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("verify temp container: %w", err)
	}
	defer r.Close()

	seen := make(map[string]struct{}, len(r.File))
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "data/") {
			continue
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("%s: %w", f.Name, ErrDuplicateEntry)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// newWriter returns a zip writer whose deflate compressor honors the
// configured level.
func newWriter(w io.Writer, level int) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return zw
}

func writeEntry(zw *zip.Writer, e Entry) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     e.Name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = w.Write(e.Data)
	return err
}
