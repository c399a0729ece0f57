package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
)

// ReadInputFile reads path, or stdin when path is "-".
// Returns ErrFileNotFound if path does not exist.
func ReadInputFile(path string) ([]byte, error) {
	if path == "-" {
		return ReadStdin()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
