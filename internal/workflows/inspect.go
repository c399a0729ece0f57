package workflows

import (
	"context"
	"encoding/base64"
	"unicode/utf8"

	"github.com/PolarWolf314/instivault/internal/backup"
	"github.com/PolarWolf314/instivault/internal/configs"
	"github.com/PolarWolf314/instivault/internal/sinks"
	"github.com/PolarWolf314/instivault/internal/utils"
)

// InspectOptions configures the inspect workflow.
type InspectOptions struct {
	// Path is the backup file to read, or "-" for stdin. Ignored when Data is set.
	Path string
	Data []byte
}

// InspectResult describes an envelope without decrypting it.
type InspectResult struct {
	Version int

	// Info is the diagnostic "Locked to: ..." string, and LockedTo the email
	// it names. Neither is verified.
	Info     string
	LockedTo string

	// CurrentIdentity is who a restore would run as.
	CurrentIdentity string

	// LikelyMatches reports whether LockedTo equals CurrentIdentity. It is a
	// hint only; decryption is the real check.
	LikelyMatches bool

	SaltBytes       int
	IVBytes         int
	CipherTextBytes int

	// Size is the serialized length in characters.
	Size int

	// EmailSafe reports whether the email sink would accept this backup
	// under EmailLimit, the configured [sinks.email] limit or the default.
	EmailSafe  bool
	EmailLimit int
}

// Inspect parses a backup envelope and reports what can be known without the
// key.
//
// Returns ErrInvalidFormat if the file is not a backup envelope.
func Inspect(ctx context.Context, opts InspectOptions) (*InspectResult, error) {
	data := opts.Data
	if data == nil {
		var err error
		data, err = utils.ReadInputFile(opts.Path)
		if err != nil {
			return nil, err
		}
	}

	env, err := backup.ParseEnvelope(data)
	if err != nil {
		return nil, err
	}

	result := &InspectResult{
		Version:         env.Version,
		Info:            env.Info,
		LockedTo:        env.LockedTo(),
		SaltBytes:       decodedLen(env.Salt),
		IVBytes:         decodedLen(env.IV),
		CipherTextBytes: decodedLen(env.CipherText),
		Size:            utf8.RuneCount(data),
	}

	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		userConfig = nil
	}
	result.CurrentIdentity, _ = configs.ResolveIdentity(userConfig)
	result.EmailLimit = emailLimit(userConfig)
	result.EmailSafe = backup.CheckSize(sinks.EmailSinkName, result.Size, result.EmailLimit) == nil
	result.LikelyMatches = result.LockedTo != "" && result.LockedTo == result.CurrentIdentity

	return result, nil
}

// emailLimit is the size limit the email sink would enforce for cfg.
func emailLimit(cfg *configs.UserConfig) int {
	if cfg != nil && cfg.Sinks.Email.Limit > 0 {
		return cfg.Sinks.Email.Limit
	}
	return backup.EmailSizeLimit
}

// decodedLen returns the decoded length of a base64 field, or -1 if it is not
// valid base64.
func decodedLen(s string) int {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return -1
	}
	return len(b)
}
