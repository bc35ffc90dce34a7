package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sweep removes artifacts in dir older than the retention window and returns
// how many files were removed. Only files carrying the artifact prefix are
// considered; everything else in the directory is left alone.
func Sweep(dir string, retention time.Duration, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read artifact directory %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), artifactPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove expired artifact", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("swept expired artifacts", "dir", dir, "removed", removed)
	}
	return removed, nil
}
