package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrManifestFormat is returned for manifest files that are neither YAML nor TOML.
var ErrManifestFormat = errors.New("unsupported manifest format")

// LoadManifest reads a deployment manifest. The format follows the file
// extension: .yaml/.yml or .toml.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing %s: unknown keys %v", path, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrManifestFormat, path)
	}

	if m.Label == "" {
		m.Label = strings.ToLower(m.Symbol)
	}
	return &m, nil
}

// WriteManifest writes m as YAML or TOML depending on the extension of path.
func WriteManifest(path string, m *Manifest) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrManifestFormat, path)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
