// Package crypto implements the obfuscation cipher applied to record
// payloads at rest. The transform is a repeating-key XOR with a key
// derived from the store password; ciphertext is base64-encoded so it
// can be embedded as container entry bytes. This is obfuscation, not
// encryption: it carries no integrity signal and is not suitable for
// confidentiality guarantees. The record checksum above this layer is
// what detects a wrong password.
package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Cipher transforms payload bytes with a password-derived keystream.
// A Cipher built from an empty password passes data through unchanged.
type Cipher struct {
	key []byte
}

// NewCipher derives a cipher key from password. An empty password
// yields a pass-through cipher.
func NewCipher(password string) *Cipher {
	if password == "" {
		return &Cipher{}
	}
	key := sha256.Sum256([]byte(password))
	return &Cipher{key: key[:]}
}

// Enabled reports whether the cipher actually transforms data.
func (c *Cipher) Enabled() bool {
	return c != nil && len(c.key) > 0
}

// Encrypt XORs data with the repeating keystream and base64-encodes
// the result. Pass-through when no key is configured.
func (c *Cipher) Encrypt(data []byte) []byte {
	if !c.Enabled() {
		return data
	}
	out := c.xor(data)
	enc := make([]byte, base64.StdEncoding.EncodedLen(len(out)))
	base64.StdEncoding.Encode(enc, out)
	return enc
}

// Decrypt reverses Encrypt. Decrypting with the wrong key silently
// yields garbage; only the base64 framing is checked here.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	if !c.Enabled() {
		return data, nil
	}
	dec := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(dec, data)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	return c.xor(dec[:n]), nil
}

// xor applies the repeating-key XOR. Self-inverse for a given key.
func (c *Cipher) xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}
