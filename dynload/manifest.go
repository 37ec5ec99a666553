package dynload

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Manifest describes a directory-packaged dynamic module. Single-file .lua
// modules carry the same identity fields inside their factory record instead.
type Manifest struct {
	Name        string `json:"name"`        // unique identifier (e.g. "camera-rig")
	Version     string `json:"version"`     // semver
	Description string `json:"description"` // short description
	Author      string `json:"author"`      // author name or org

	// Main is the relative path to the entry chunk (default "module.lua").
	Main string `json:"main"`

	// APIVersion is the host API the module targets, as "name-major.minor.patch".
	APIVersion string `json:"apiVersion"`

	path string
}

// Manifest validation errors.
var (
	ErrMissingManifestName    = errors.New("manifest: name is required")
	ErrInvalidManifestName    = errors.New("manifest: name must be alphanumeric with hyphens")
	ErrMissingManifestVersion = errors.New("manifest: version is required")
	ErrInvalidManifestVersion = errors.New("manifest: version must be valid semver")
	ErrInvalidManifestMain    = errors.New("manifest: main must be a .lua file")
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// LoadManifest loads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.path = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifestFromDir loads module.json from a module directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, "module.json"))
}

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "module.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
}

// Validate checks the manifest's identity fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingManifestName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidManifestName, m.Name)
	}
	if m.Version == "" {
		return ErrMissingManifestVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidManifestVersion, m.Version)
	}
	if m.Main != "" && filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidManifestMain, m.Main)
	}
	return nil
}

// Path returns the module directory.
func (m *Manifest) Path() string { return m.path }

// MainPath returns the full path to the entry chunk.
func (m *Manifest) MainPath() string { return filepath.Join(m.path, m.Main) }

// String renders the manifest as "name v1.2.3".
func (m *Manifest) String() string {
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}
