package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
)

// NonceSize is the AES-GCM nonce length. A fresh nonce is drawn on every Encrypt.
const NonceSize = 12

var randReader io.Reader = rand.Reader

// Sealed is the output of Encrypt. Both fields are standard base64.
// IV is not secret and must travel with CipherText.
type Sealed struct {
	CipherText string
	IV         string
}

// newGCM returns an AES-256-GCM AEAD for the key.
func newGCM(key *Key) (cipher.AEAD, error) {
	raw, err := key.bytes()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key with a freshly generated random nonce.
// The authentication tag is appended to the ciphertext.
func Encrypt(plaintext []byte, key *Key) (*Sealed, error) {
	defer encryptTimer.UpdateSince(time.Now())

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrRandomSource, err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &Sealed{
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt opens base64 ciphertext with the base64 iv under key.
//
// Returns ErrAccessDenied when the authentication tag does not verify, which is
// what happens when the key was derived from a different identity.
// Returns ErrDecoding for malformed base64 or a nonce of the wrong size.
func Decrypt(cipherTextBase64, ivBase64 string, key *Key) ([]byte, error) {
	defer decryptTimer.UpdateSince(time.Now())

	ciphertext, err := base64.StdEncoding.DecodeString(cipherTextBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: cipherText", kerrors.ErrDecoding)
	}

	nonce, err := base64.StdEncoding.DecodeString(ivBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: iv", kerrors.ErrDecoding)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", kerrors.ErrDecoding, NonceSize, len(nonce))
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext is truncated", kerrors.ErrInvalidFormat)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, kerrors.ErrAccessDenied
	}

	return plaintext, nil
}
