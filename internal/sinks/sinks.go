package sinks

import (
	"context"
	"fmt"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"

	metrics "github.com/rcrowley/go-metrics"
)

// Sink names accepted by the CLI.
const (
	FileSinkName  = "file"
	EmailSinkName = "email"
	S3SinkName    = "s3"
)

// Names lists every supported sink.
var Names = []string{FileSinkName, EmailSinkName, S3SinkName}

// Sink delivers a serialized backup envelope somewhere outside the process.
type Sink interface {
	// Name identifies the sink in messages and size-limit errors.
	Name() string

	// Deliver stores data under name and returns where it ended up.
	Deliver(ctx context.Context, name string, data []byte) (string, error)
}

// ValidateName returns ErrUnknownSink for anything not in Names.
func ValidateName(name string) error {
	for _, n := range Names {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (expected one of %v)", kerrors.ErrUnknownSink, name, Names)
}

func deliverTimer(sink string) metrics.Timer {
	return metrics.GetOrRegisterTimer("instivault.sinks."+sink+".deliver", nil)
}

func timed(sink string, start time.Time) {
	deliverTimer(sink).UpdateSince(start)
}
