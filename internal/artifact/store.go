// Package artifact persists query outputs (the source XML and the rendered
// HTML view) to disk, writes an integrity manifest next to each pair, and
// sweeps expired artifacts.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// artifactPrefix marks files this package owns; sweeping never touches
// anything else in the directory.
const artifactPrefix = "danfe_"

// Store writes query artifacts into a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// Pair locates the artifacts written for one query.
type Pair struct {

	// XMLPath is the source document XML as received from the authority
	XMLPath string

	// HTMLPath is the rendered document view
	HTMLPath string

	// ManifestPath is the integrity manifest covering the pair
	ManifestPath string
}

// NewStore creates a store over the given directory, creating it if needed.
// An empty directory means the system temporary directory.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory artifacts are written into.
func (s *Store) Dir() string { return s.dir }

// Persist writes the XML and HTML artifacts for one query under a collision-
// free name derived from the access key, then writes the integrity manifest.
func (s *Store) Persist(xmlText, html, accessKey string) (*Pair, error) {
	base := fmt.Sprintf("%s%s_%s", artifactPrefix, accessKey, uuid.NewString())
	pair := &Pair{
		XMLPath:      filepath.Join(s.dir, base+".xml"),
		HTMLPath:     filepath.Join(s.dir, base+".html"),
		ManifestPath: filepath.Join(s.dir, base+".manifest.json"),
	}

	if err := os.WriteFile(pair.XMLPath, []byte(xmlText), 0600); err != nil {
		return nil, fmt.Errorf("failed to write document XML: %w", err)
	}
	if err := os.WriteFile(pair.HTMLPath, []byte(html), 0600); err != nil {
		return nil, fmt.Errorf("failed to write document view: %w", err)
	}
	if err := writeManifest(pair, accessKey); err != nil {
		return nil, err
	}

	s.logger.Info("persisted query artifacts",
		"access_key", accessKey,
		"xml", pair.XMLPath,
		"html", pair.HTMLPath)

	return pair, nil
}

// Open returns the full path of a named artifact inside the store, refusing
// names that are not plain artifact file names.
func (s *Store) Open(name string) (string, error) {
	if name != filepath.Base(name) || !isArtifactName(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("artifact %s: %w", name, err)
	}
	return path, nil
}

func isArtifactName(name string) bool {
	if len(name) <= len(artifactPrefix) || name[:len(artifactPrefix)] != artifactPrefix {
		return false
	}
	switch filepath.Ext(name) {
	case ".xml", ".html", ".json":
		return true
	}
	return false
}
