package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gowebpki/jcs"
)

// Manifest is the integrity record written next to each artifact pair. The
// file on disk is canonicalized (RFC 8785) so byte-identical manifests imply
// identical content, which makes them directly comparable and hashable.
type Manifest struct {
	AccessKey string         `json:"access_key"`
	CreatedAt time.Time      `json:"created_at"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile records one artifact's name, size and content digest.
type ManifestFile struct {
	Name   string `json:"name"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

func writeManifest(pair *Pair, accessKey string) error {
	manifest := Manifest{
		AccessKey: accessKey,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, path := range []string{pair.XMLPath, pair.HTMLPath} {
		entry, err := manifestFile(path)
		if err != nil {
			return err
		}
		manifest.Files = append(manifest.Files, entry)
	}

	raw, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return fmt.Errorf("failed to canonicalize manifest: %w", err)
	}

	if err := os.WriteFile(pair.ManifestPath, canonical, 0600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func manifestFile(path string) (ManifestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ManifestFile{}, fmt.Errorf("failed to read artifact for manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return ManifestFile{
		Name:   filepath.Base(path),
		Bytes:  int64(len(data)),
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}

// Verify re-reads the artifacts named by a manifest and checks their digests.
func Verify(manifestPath string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	dir := filepath.Dir(manifestPath)
	for _, f := range manifest.Files {
		entry, err := manifestFile(filepath.Join(dir, f.Name))
		if err != nil {
			return err
		}
		if entry.SHA256 != f.SHA256 {
			return fmt.Errorf("artifact %s does not match its manifest digest", f.Name)
		}
		if entry.Bytes != f.Bytes {
			return fmt.Errorf("artifact %s does not match its manifest size", f.Name)
		}
	}
	return nil
}
