package secrets

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32

	// SaltSize is the length of the random salt stored in each envelope.
	SaltSize = 16

	// Iterations is the PBKDF2 work factor.
	Iterations = 100000
)

// Key is a derived symmetric key. It only lives for the duration of one
// encrypt or decrypt call and should be wiped by its owner afterwards.
type Key struct {
	b []byte
}

// Wipe zeroes the key material. A wiped key can no longer encrypt or decrypt.
func (k *Key) Wipe() {
	if k == nil {
		return
	}
	for i := range k.b {
		k.b[i] = 0
	}
	k.b = nil
}

// Equal reports whether two keys hold the same material, in constant time.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return false
	}
	return subtle.ConstantTimeCompare(k.b, other.b) == 1
}

func (k *Key) bytes() ([]byte, error) {
	if k == nil || len(k.b) != KeySize {
		return nil, kerrors.ErrInvalidKeyLength
	}
	return k.b, nil
}

// GenerateSalt returns SaltSize cryptographically secure random bytes, base64-encoded.
func GenerateSalt() (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrRandomSource, err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveKey stretches identifier with the given salt using PBKDF2-HMAC-SHA256.
// The same (identifier, salt) pair always yields the same key.
//
// Returns ErrEmptyIdentity if identifier is empty.
// Returns ErrDecoding if the salt is not valid base64 of SaltSize bytes.
func DeriveKey(identifier, saltBase64 string) (*Key, error) {
	salt, err := decodeSalt(identifier, saltBase64)
	if err != nil {
		return nil, err
	}
	return stretch(identifier, salt), nil
}

// DeriveKeyContext is DeriveKey, but returns ctx.Err() as soon as ctx is done.
// PBKDF2 itself cannot be interrupted, so a key that finishes after
// cancellation is wiped and dropped.
func DeriveKeyContext(ctx context.Context, identifier, saltBase64 string) (*Key, error) {
	salt, err := decodeSalt(identifier, saltBase64)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan *Key, 1)
	go func() {
		done <- stretch(identifier, salt)
	}()

	select {
	case key := <-done:
		return key, nil
	case <-ctx.Done():
		go func() {
			(<-done).Wipe()
		}()
		return nil, ctx.Err()
	}
}

func decodeSalt(identifier, saltBase64 string) ([]byte, error) {
	if identifier == "" {
		return nil, kerrors.ErrEmptyIdentity
	}

	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: salt", kerrors.ErrDecoding)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", kerrors.ErrDecoding, SaltSize, len(salt))
	}
	return salt, nil
}

func stretch(identifier string, salt []byte) *Key {
	defer deriveTimer.UpdateSince(time.Now())
	return &Key{b: pbkdf2.Key([]byte(identifier), salt, Iterations, KeySize, sha256.New)}
}
