package bundle

import (
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// ManifestFilename is the bundle description written into every
	// collected bundle; pupil-verify reads it back.
	ManifestFilename = "pupil-bundle-version.yaml"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate bundle file hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// defaultManifestCapacity is the initial capacity for manifest maps.
	defaultManifestCapacity = 64
)

var errHashUnavailable = errors.New("hash function unavailable")

// Manifest describes a produced bundle: the application version it carries,
// the platform it targets and a checksum per placed file.
type Manifest struct {
	// VersionNumber is the application version embedded in the bundle.
	VersionNumber string `yaml:"version"`
	// Platform is the target operating system of the bundle.
	Platform Platform `yaml:"platform"`
	// Files maps bundle-relative paths to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewManifest produces a Manifest initialized for the given release.
func NewManifest(version string, platform Platform) *Manifest {
	return &Manifest{
		VersionNumber: version,
		Platform:      platform,
		Files:         make(map[string]string, defaultManifestCapacity),
	}
}

// Save writes the manifest as YAML inside the bundle root.
func (m *Manifest) Save(root string) error {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	manifestPath := filepath.Join(root, ManifestFilename)
	if err = os.WriteFile(manifestPath, contents, DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// LoadManifest reads a bundle manifest from the bundle root.
func LoadManifest(root string) (*Manifest, error) {
	manifestPath := filepath.Join(root, ManifestFilename)

	contents, err := os.ReadFile(filepath.Clean(manifestPath))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err = yaml.Unmarshal(contents, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &manifest, nil
}

// FileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
