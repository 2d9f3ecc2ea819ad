// Package slot provides durable single-value storage. A slot holds one named
// value that is read at startup and overwritten in full on every write.
package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/songkhoe/backend/internal/security"
)

// ErrNotFound is returned by Read when nothing has been written to the slot yet
var ErrNotFound = errors.New("slot is empty")

// ErrCorrupt is returned by Read when a stored value exists but cannot be
// opened, e.g. ciphertext sealed with another key or plaintext written before
// encryption was enabled
var ErrCorrupt = errors.New("slot value is corrupt")

// Slot is a named durable value
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Describe names the backend for logs and health checks
	Describe() string
}

// EncryptedSlot seals every value written to the wrapped slot
type EncryptedSlot struct {
	inner     Slot
	encryptor *security.Encryptor
}

// Encrypted wraps inner so its contents are stored AES-256-GCM encrypted
func Encrypted(inner Slot, encryptor *security.Encryptor) *EncryptedSlot {
	return &EncryptedSlot{inner: inner, encryptor: encryptor}
}

func (s *EncryptedSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.inner.Read(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.encryptor.Decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decrypt slot %s: %w", ErrCorrupt, s.inner.Describe(), err)
	}
	return plaintext, nil
}

func (s *EncryptedSlot) Write(ctx context.Context, data []byte) error {
	sealed, err := s.encryptor.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt slot %s: %w", s.inner.Describe(), err)
	}
	return s.inner.Write(ctx, sealed)
}

func (s *EncryptedSlot) Describe() string {
	return "encrypted+" + s.inner.Describe()
}
