// Package store implements the record-store engine: it turns a single
// zip container file into a consistent key/value store of named
// records with per-record integrity metadata.
//
// Every operation opens the container for the minimum necessary
// duration and releases it before returning; there is no lock held
// across calls. Mutations go through the archive package's
// copy-then-atomic-replace protocol, so a failed write never leaves
// the container half-written and never touches previously-stored
// records. The engine provides no multi-process write safety: callers
// needing concurrent writers must serialize access externally.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arkivdb/arkiv/pkg/archive"
	"github.com/arkivdb/arkiv/pkg/config"
	"github.com/arkivdb/arkiv/pkg/crypto"
	"github.com/arkivdb/arkiv/pkg/record"
)

// RecordStore owns one container file and its derived cipher.
type RecordStore struct {
	config config.StoreConfig
	cipher *crypto.Cipher
	log    Logger
	index  *nameIndex
	mutex  sync.Mutex
}

// Option configures a RecordStore at construction.
type Option func(*RecordStore)

// WithLogger injects the observability collaborator. The default
// discards everything.
func WithLogger(l Logger) Option {
	return func(s *RecordStore) { s.log = l }
}

// Open constructs a record store against cfg.Path: it creates a fresh,
// empty, versioned container when the file is absent, or validates an
// existing one (well-formed archive, within the size limit).
func Open(cfg config.StoreConfig, opts ...Option) (*RecordStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &RecordStore{
		config: cfg,
		cipher: crypto.NewCipher(cfg.Password),
		log:    NopLogger(),
		index:  newNameIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.validateOrCreate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the store's immutable configuration.
func (s *RecordStore) Config() config.StoreConfig { return s.config }

// Insert adds a new record. It fails with ErrRecordExists when a
// record with that name is already present; the container is unchanged
// in that case.
func (s *RecordStore) Insert(name string, data []byte, meta record.Metadata) (*record.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	exists, err := s.index.Has(s.config.Path, name)
	if err != nil {
		return nil, s.wrap("check existing records", err)
	}
	if exists {
		return nil, fmt.Errorf("record %q: %w", name, ErrRecordExists)
	}

	rec := record.New(name, data, meta, s.cipher)
	entries, err := s.serialize(rec, data)
	if err != nil {
		return nil, err
	}
	if err := archive.Append(s.config.Path, s.config.CompressionLevel, entries); err != nil {
		return nil, s.wrap(fmt.Sprintf("insert record %q", name), err)
	}

	s.afterMutation("insert", name)
	return rec, nil
}

// Get retrieves a record by name. A missing record is not an error:
// both return values are nil. Any other read failure surfaces as a
// StoreError wrapping the cause.
func (s *RecordStore) Get(name string) (*record.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.get(name)
}

func (s *RecordStore) get(name string) (*record.Record, error) {
	payload, err := archive.Read(s.config.Path, dataEntry(name))
	if errors.Is(err, archive.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(fmt.Sprintf("read record %q", name), err)
	}

	metaRaw, err := archive.Read(s.config.Path, metaEntry(name))
	if errors.Is(err, archive.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(fmt.Sprintf("read record %q metadata", name), err)
	}

	var meta record.Metadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, s.wrap(fmt.Sprintf("decode record %q metadata", name), err)
	}
	return record.FromStored(name, payload, meta, s.cipher), nil
}

// Update replaces an existing record's payload and metadata. Prior
// metadata is carried forward unless the caller supplies its own; the
// update timestamp is stamped and the previous checksum recorded for
// lineage. The container is rebuilt through the rewrite protocol; on
// any failure the original file remains untouched.
func (s *RecordStore) Update(name string, data []byte, meta record.Metadata) (*record.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, err := s.get(name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("record %q: %w", name, ErrRecordNotFound)
	}

	newMeta := meta
	if newMeta == nil {
		newMeta = existing.Metadata()
	}
	newMeta = newMeta.Clone()
	newMeta[record.MetaUpdatedAt] = time.Now().UTC().Format(time.RFC3339Nano)
	newMeta[record.MetaPreviousChecksum] = existing.Metadata().Checksum()

	rec := record.New(name, data, newMeta, s.cipher)
	entries, err := s.serialize(rec, data)
	if err != nil {
		return nil, err
	}

	dataName, metaName := dataEntry(name), metaEntry(name)
	err = archive.Rewrite(s.config.Path, s.config.CompressionLevel, func(n string) bool {
		return n != dataName && n != metaName
	}, entries)
	if err != nil {
		return nil, s.wrap(fmt.Sprintf("update record %q", name), err)
	}

	s.afterMutation("update", name)
	return rec, nil
}

// Delete removes a record's payload and metadata namespace. Deleting
// an absent name is a no-op that still performs a full rewrite.
func (s *RecordStore) Delete(name string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dataName, metaName := dataEntry(name), metaEntry(name)
	err := archive.Rewrite(s.config.Path, s.config.CompressionLevel, func(n string) bool {
		return n != dataName && n != metaName
	}, nil)
	if err != nil {
		return false, s.wrap(fmt.Sprintf("delete record %q", name), err)
	}

	s.afterMutation("delete", name)
	return true, nil
}

// List returns all record names in container enumeration order.
func (s *RecordStore) List() ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	names, err := s.index.Names(s.config.Path)
	if err != nil {
		return nil, s.wrap("list records", err)
	}
	return names, nil
}

// Search returns record names containing the given substring.
func (s *RecordStore) Search(substring string) ([]string, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	matches := make([]string, 0, len(names))
	for _, name := range names {
		if strings.Contains(name, substring) {
			matches = append(matches, name)
		}
	}
	return matches, nil
}

// Compact rebuilds the container, reclaiming space left behind by
// prior deletes and updates.
func (s *RecordStore) Compact() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := archive.Rewrite(s.config.Path, s.config.CompressionLevel, nil, nil); err != nil {
		return s.wrap("compact store", err)
	}
	s.afterMutation("compact", "")
	return nil
}

// Backup byte-copies the container to dst.
func (s *RecordStore) Backup(dst string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	src, err := os.Open(s.config.Path)
	if err != nil {
		return s.wrap("open store for backup", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return s.wrap("create backup", err)
	}
	_, err = io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return s.wrap("write backup", err)
	}
	return nil
}

// Size returns the container's on-disk size in bytes.
func (s *RecordStore) Size() (int64, error) {
	size, err := archive.Size(s.config.Path)
	if err != nil {
		return 0, s.wrap("stat store", err)
	}
	return size, nil
}

// ValidateSize returns a SizeLimitError when the container is over the
// configured maximum. Mutations are not rolled back on overflow; the
// check is advisory and callers who need a hard guarantee must call it
// before committing to further writes.
func (s *RecordStore) ValidateSize() error {
	size, err := s.Size()
	if err != nil {
		return err
	}
	if size > s.config.MaxSize {
		return &SizeLimitError{Size: size, Limit: s.config.MaxSize}
	}
	return nil
}

// validateOrCreate creates a fresh container when the path is absent,
// or checks that the existing file is a well-formed archive within the
// size limit.
func (s *RecordStore) validateOrCreate() error {
	if _, err := os.Stat(s.config.Path); err != nil {
		if !os.IsNotExist(err) {
			return s.wrap("stat store", err)
		}
		meta := archive.StoreMeta{
			CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
			Version:    s.config.Version,
			Encryption: s.cipher.Enabled(),
		}
		if err := archive.Create(s.config.Path, s.config.CompressionLevel, meta); err != nil {
			return s.wrap("create store", err)
		}
		s.log.Info("created store", "name", s.config.Name, "path", s.config.Path)
		return nil
	}

	if !archive.IsArchive(s.config.Path) {
		return fmt.Errorf("%w: %s", ErrInvalidStore, s.config.Path)
	}
	return s.ValidateSize()
}

// afterMutation runs the post-commit bookkeeping shared by all
// mutating operations: cache invalidation and the advisory size check.
func (s *RecordStore) afterMutation(op, name string) {
	s.index.Invalidate()

	var sizeErr *SizeLimitError
	if err := s.ValidateSize(); errors.As(err, &sizeErr) {
		s.log.Error("store exceeds size limit",
			"store", s.config.Name,
			"op", op,
			"record", name,
			"size", sizeErr.Size,
			"limit", sizeErr.Limit,
		)
	}
}

func (s *RecordStore) serialize(rec *record.Record, plaintext []byte) ([]archive.Entry, error) {
	metaJSON, err := json.Marshal(rec.Metadata())
	if err != nil {
		return nil, s.wrap("encode record metadata", err)
	}
	return []archive.Entry{
		{Name: dataEntry(rec.Name()), Data: s.cipher.Encrypt(plaintext)},
		{Name: metaEntry(rec.Name()), Data: metaJSON},
	}, nil
}

func (s *RecordStore) wrap(msg string, err error) error {
	return &StoreError{Message: msg, Cause: err}
}

func dataEntry(name string) string { return "data/" + name }

func metaEntry(name string) string { return "metadata/" + name + ".json" }
