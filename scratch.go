package patrimonial

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// WithScratchDir creates a private directory under root (os.TempDir() when
// empty), runs fn with its path and removes it afterwards, whatever fn returns.
func WithScratchDir(root string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp(root, DatasetName+"-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}

	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Warn().Err(rmErr).Str("dir", dir).Msg("Failed to remove scratch directory")
		}
	}()

	return fn(dir)
}
