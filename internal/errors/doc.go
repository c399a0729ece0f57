// Package errors provides typed error values for instivault.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This matters
// most for restore, where an authentication failure is an access decision and
// must be reported differently from a corrupt file.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Format errors: the backup file or payload is malformed (ErrInvalidFormat, ErrDecoding)
//   - Access errors: the backup is locked to another identity (ErrAccessDenied)
//   - Crypto errors: the cipher failed (ErrEncryptFailed, ErrRandomSource)
//   - Sink errors: delivery problems (ErrSizeLimit, ErrUnknownSink)
//   - Store errors: record store failures (ErrRecordNotFound, ErrPartialRestore)
//   - Configuration errors (ErrInvalidConfig, ErrInvalidEmail)
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("parsing envelope: %w", errors.ErrInvalidFormat)
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.Restore(ctx, opts)
//	if errors.Is(err, kerrors.ErrAccessDenied) {
//	    // Show the access denial message
//	}
//
// Messages never contain key material or decrypted plaintext.
package errors
