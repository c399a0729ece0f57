package backup

import (
	"fmt"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
)

// EmailSizeLimit is the largest envelope, in characters, the email relay accepts.
const EmailSizeLimit = 40000

// SizeLimitError reports a backup that is too large for a sink.
type SizeLimitError struct {
	Sink  string
	Size  int
	Limit int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("backup is %d characters but the %s sink accepts at most %d; save it to a file instead", e.Size, e.Sink, e.Limit)
}

func (e *SizeLimitError) Unwrap() error {
	return kerrors.ErrSizeLimit
}

// CheckSize fails fast when size exceeds limit. A limit of zero or less means
// the sink has no limit. Sinks call this before any network I/O.
func CheckSize(sink string, size, limit int) error {
	if limit > 0 && size > limit {
		return &SizeLimitError{Sink: sink, Size: size, Limit: limit}
	}
	return nil
}
