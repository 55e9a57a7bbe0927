package securestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// identityFile is the name of the age identity inside a store directory.
const identityFile = "identity"

// Sealer encrypts blobs to a single age X25519 identity. It is shared by
// the settings store and every expiring cache so that all policy state at
// rest is unreadable without the device identity.
type Sealer struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewSealer wraps an existing identity.
func NewSealer(identity *age.X25519Identity) *Sealer {
	return &Sealer{identity: identity, recipient: identity.Recipient()}
}

// LoadSealer reads the identity at path. If the file does not exist and
// create is true, a fresh identity is generated and written with 0600
// permissions. If it does not exist and create is false, ErrUnavailable
// is returned.
func LoadSealer(path string, create bool) (*Sealer, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if !create {
			return nil, ErrUnavailable
		}
		return generateSealer(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}

	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}
	return NewSealer(identity), nil
}

func generateSealer(path string) (*Sealer, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	if err := WriteAtomic(path, []byte(identity.String()+"\n")); err != nil {
		return nil, fmt.Errorf("write identity: %w", err)
	}
	return NewSealer(identity), nil
}

// Seal encrypts plaintext to the sealer's recipient.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipient)
	if err != nil {
		return nil, fmt.Errorf("create encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts a blob produced by Seal. Tampered or foreign blobs fail
// with ErrCorrupt.
func (s *Sealer) Open(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), s.identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plaintext, nil
}
