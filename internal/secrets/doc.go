// Package secrets provides the cryptographic primitives behind instivault
// backups.
//
// # Key Derivation
//
// There is no passphrase. The user's account email is stretched into a
// 256-bit key with PBKDF2-HMAC-SHA256 (100,000 iterations) and a random
// 16-byte salt stored in the backup envelope:
//
//	salt, _ := secrets.GenerateSalt()
//	key, _ := secrets.DeriveKey("admin@example.com", salt)
//	defer key.Wipe()
//
// Only the identity that created a backup derives the key that opens it.
// That is the whole access-control model.
//
// # Encryption
//
// Payloads are sealed with AES-256-GCM. Every call to Encrypt draws a fresh
// random 12-byte nonce, so encrypting the same payload twice produces
// different output and a nonce is never reused under one key. Callers
// cannot supply their own nonce.
//
// A failed tag check is reported as errors.ErrAccessDenied rather than a
// generic cipher error, because under this scheme it almost always means the
// wrong identity is trying to restore.
//
// # Key Lifetime
//
// Derived keys are never persisted. Callers wipe them with Key.Wipe once the
// encrypt or decrypt call they were derived for has returned.
//
// # Metrics
//
// Derivation, encryption and decryption are timed with go-metrics timers
// registered under the "instivault.secrets." prefix in the default registry.
package secrets
