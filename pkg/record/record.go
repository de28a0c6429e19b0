// Package record provides the in-memory representation of a stored
// item: its payload bytes, its metadata mapping, and the integrity
// checksum tying the two together.
//
// A Record is transient. It is built on every insert, get, and update
// call; only its serialized form (a payload entry plus a JSON metadata
// entry) persists in the container. The checksum in metadata is the
// SHA-256 digest of the plaintext payload at the moment of last write,
// which is what makes a wrong obfuscation password or on-disk
// corruption detectable.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/arkivdb/arkiv/pkg/crypto"
)

// Metadata keys maintained by the store itself. Callers may attach any
// additional keys; these are merged in and stamped on write.
const (
	MetaCreatedAt        = "created_at"
	MetaUpdatedAt        = "updated_at"
	MetaSize             = "size"
	MetaChecksum         = "checksum"
	MetaPreviousChecksum = "previous_checksum"
)

// ErrNotText is returned by Text when the payload is not valid UTF-8.
var ErrNotText = errors.New("record data is not valid UTF-8 text")

// Metadata is the per-record metadata mapping, JSON-encoded at rest.
type Metadata map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Checksum returns the stored checksum, or "" when absent.
func (m Metadata) Checksum() string {
	s, _ := m[MetaChecksum].(string)
	return s
}

// Record is one named unit of stored data plus its metadata.
type Record struct {
	name   string
	stored []byte // bytes as persisted: ciphertext when the cipher is enabled
	atRest bool   // stored needs decryption before use
	meta   Metadata
	cipher *crypto.Cipher
}

// New builds a Record from plaintext data, merging caller metadata with
// the system-computed fields: creation timestamp (kept when the caller
// carries one forward), plaintext size, and SHA-256 checksum.
func New(name string, data []byte, meta Metadata, cipher *crypto.Cipher) *Record {
	m := meta.Clone()
	if _, ok := m[MetaCreatedAt]; !ok {
		m[MetaCreatedAt] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	m[MetaSize] = len(data)
	m[MetaChecksum] = ChecksumBytes(data)
	return &Record{
		name:   name,
		stored: data,
		meta:   m,
		cipher: cipher,
	}
}

// FromStored reconstructs a Record from its persisted payload and
// metadata entries. The payload is kept as read and decrypted lazily.
func FromStored(name string, stored []byte, meta Metadata, cipher *crypto.Cipher) *Record {
	return &Record{
		name:   name,
		stored: stored,
		atRest: cipher.Enabled(),
		meta:   meta,
		cipher: cipher,
	}
}

// Name returns the record name, unique within one store.
func (r *Record) Name() string { return r.name }

// Metadata returns the record's metadata mapping.
func (r *Record) Metadata() Metadata { return r.meta }

// Raw returns the plaintext payload, decrypting the at-rest form when
// the store is ciphered.
func (r *Record) Raw() ([]byte, error) {
	if !r.atRest {
		return r.stored, nil
	}
	data, err := r.cipher.Decrypt(r.stored)
	if err != nil {
		return nil, fmt.Errorf("decrypt record %q: %w", r.name, err)
	}
	return data, nil
}

// Text returns the payload as a UTF-8 string, or ErrNotText when the
// bytes are not valid text.
func (r *Record) Text() (string, error) {
	raw, err := r.Raw()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("record %q: %w", r.name, ErrNotText)
	}
	return string(raw), nil
}

// JSON unmarshals the payload into v.
func (r *Record) JSON(v any) error {
	raw, err := r.Raw()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("record %q is not valid JSON: %w", r.name, err)
	}
	return nil
}

// JSONValue returns the payload parsed as an arbitrary JSON value.
func (r *Record) JSONValue() (any, error) {
	var v any
	if err := r.JSON(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate recomputes the checksum over the current payload and
// compares it to the stored checksum. It reports false rather than
// returning an error: a failed decrypt or a digest mismatch both mean
// the record does not verify.
func (r *Record) Validate() bool {
	raw, err := r.Raw()
	if err != nil {
		return false
	}
	return ChecksumBytes(raw) == r.meta.Checksum()
}

// ChecksumBytes returns the hex SHA-256 digest of data.
func ChecksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
