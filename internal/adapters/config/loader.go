// Package config provides the configuration loader for recon.
package config

import (
	"bytes"
	"cmp"
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/recon/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds recon.yaml in cwd or the nearest parent directory and converts
// it into a configuration. Relative paths in the file resolve against the
// directory holding it. Without a file, the defaults apply relative to cwd.
func (l *Loader) Load(cwd string) (domain.Configuration, error) {
	cfg := domain.DefaultConfiguration()

	path, found := findConfiguration(cwd)
	if !found {
		cfg.LibDir = filepath.Join(cwd, cfg.LibDir)
		return cfg, nil
	}

	var file Reconfile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return domain.Configuration{}, err
	}

	root := filepath.Dir(path)
	if err := l.apply(&cfg, &file, root); err != nil {
		return domain.Configuration{}, zerr.With(err, "config_path", path)
	}
	return cfg, nil
}

func (l *Loader) apply(cfg *domain.Configuration, file *Reconfile, root string) error {
	if file.Revision != "" {
		revision, err := domain.ParseRevision(file.Revision)
		if err != nil {
			return err
		}
		cfg.Revision = revision
	}

	directives, err := domain.NewDirectives(file.Directives)
	if err != nil {
		return err
	}
	cfg.Directives = directives

	for _, dir := range file.SearchPath {
		abs := resolvePath(root, dir)
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			l.Logger.Warn("search path entry " + abs + " is not a directory")
		}
		cfg.SearchPath = append(cfg.SearchPath, abs)
	}

	cfg.LibDir = resolvePath(root, cmp.Or(file.LibDir, domain.DefaultLibDir))
	cfg.NativeCommand = file.NativeCommand
	return nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", false
		}
		currentDir = parentDir
	}
}

// readAndUnmarshalYAML decodes path strictly: unknown keys are errors.
func readAndUnmarshalYAML(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from cwd
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read config file"), "config_path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return zerr.With(zerr.Wrap(err, "failed to parse config file"), "config_path", path)
	}
	return nil
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
