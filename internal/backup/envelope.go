package backup

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
)

const (
	// FormatVersion is written into every new envelope. Envelopes without a
	// version field are read as version 1.
	FormatVersion = 1

	// FileExtension is the conventional suffix for backup files.
	FileExtension = ".enc"

	infoPrefix = "Locked to: "
)

// Envelope is the portable backup file. Salt, IV and CipherText are standard
// base64; Info is diagnostic only and never used to decrypt.
type Envelope struct {
	Version    int    `json:"version,omitempty"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	CipherText string `json:"cipherText"`
	Info       string `json:"info"`
}

// Marshal serializes the envelope to JSON.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Size returns the serialized length in characters, which is what sink limits
// are expressed in.
func (e *Envelope) Size() (int, error) {
	data, err := e.Marshal()
	if err != nil {
		return 0, err
	}
	return utf8.RuneCount(data), nil
}

// LockedTo returns the identity named in Info. It is diagnostic only: Info is
// not authenticated and restore never consults it.
func (e *Envelope) LockedTo() string {
	return strings.TrimSpace(strings.TrimPrefix(e.Info, infoPrefix))
}

// ParseEnvelope decodes a backup file.
//
// Returns ErrInvalidFormat if data is not JSON, a required field is missing,
// or the version is newer than FormatVersion.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidFormat, err)
	}

	missing := ""
	switch {
	case env.Salt == "":
		missing = "salt"
	case env.IV == "":
		missing = "iv"
	case env.CipherText == "":
		missing = "cipherText"
	}
	if missing != "" {
		return nil, fmt.Errorf("%w: missing %s", kerrors.ErrInvalidFormat, missing)
	}

	if env.Version == 0 {
		env.Version = 1
	}
	if env.Version < 0 || env.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %w %d", kerrors.ErrInvalidFormat, kerrors.ErrUnsupportedVersion, env.Version)
	}

	return &env, nil
}
