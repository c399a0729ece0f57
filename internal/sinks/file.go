package sinks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
)

// FileSink writes backups to a local directory.
type FileSink struct {
	// Dir is where backups are written. Empty means the working directory.
	Dir string

	// Force overwrites an existing file instead of failing with ErrFileExists.
	Force bool
}

func (s *FileSink) Name() string { return FileSinkName }

// Deliver writes data to Dir/name with owner-only permissions. If name is
// absolute, Dir is ignored.
func (s *FileSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	defer timed(FileSinkName, time.Now())

	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Dir, name)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !s.Force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", kerrors.ErrFileExists, path)
		}
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
