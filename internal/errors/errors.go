package errors

import "errors"

// Format errors indicate a backup file or payload does not have the expected shape.
var (
	// ErrInvalidFormat indicates malformed envelope JSON, missing fields, or an
	// undecodable payload after decryption.
	ErrInvalidFormat = errors.New("invalid file format")

	// ErrDecoding indicates a base64 field could not be decoded.
	ErrDecoding = errors.New("malformed base64 input")

	// ErrUnsupportedVersion indicates the envelope was written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported backup format version")
)

// Access errors indicate the current identity cannot open a backup.
var (
	// ErrAccessDenied indicates the authentication tag did not verify. This is the
	// expected outcome when a backup is restored under a different identity.
	ErrAccessDenied = errors.New("access denied: authentication mismatch")

	// ErrEmptyIdentity indicates no identity was supplied for key derivation.
	ErrEmptyIdentity = errors.New("identity must not be empty")
)

// Cryptographic errors indicate failures inside the cipher itself.
var (
	// ErrEncryptFailed indicates the payload could not be sealed.
	ErrEncryptFailed = errors.New("failed to encrypt payload")

	// ErrInvalidKeyLength indicates the symmetric key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid symmetric key length")

	// ErrRandomSource indicates the system random source failed.
	ErrRandomSource = errors.New("failed to read random bytes")
)

// Sink errors indicate a backup could not be delivered.
var (
	// ErrSizeLimit indicates the serialized backup exceeds the sink's limit.
	ErrSizeLimit = errors.New("backup too large for sink")

	// ErrUnknownSink indicates the requested sink is not configured.
	ErrUnknownSink = errors.New("unknown or unconfigured sink")

	// ErrDeliveryFailed indicates the sink rejected the backup.
	ErrDeliveryFailed = errors.New("failed to deliver backup")
)

// Store errors indicate issues talking to the record store.
var (
	// ErrRecordNotFound indicates no record matched the id and owner.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidRecord indicates a record could not be encoded or is missing fields.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrStoreUnavailable indicates the record store could not be opened.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrPartialRestore indicates one or more collections failed to restore.
	ErrPartialRestore = errors.New("some collections failed to restore")
)

// Configuration and file errors.
var (
	// ErrInvalidConfig indicates the configuration is malformed.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrInvalidEmail indicates the email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileExists indicates the output file already exists.
	ErrFileExists = errors.New("file already exists")

	// ErrInvalidDateFormat indicates a date flag is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrNoAuditLog indicates nothing has been recorded yet.
	ErrNoAuditLog = errors.New("audit log not found")

	// ErrConfirmationRequired indicates a destructive command needs --yes
	// when no terminal is available to ask.
	ErrConfirmationRequired = errors.New("confirmation required")
)
