// Package project loads the optional hindsight.toml manifest.
//
// A manifest pins per-project defaults the CLI would otherwise need on
// every invocation: the entry script, the trace archive path, a step
// quota and the event kinds to drop. Commands discover it by walking up
// from the working directory, so running from a subdirectory still finds
// the project configuration.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hindsightlab/hindsight/internal/event"
)

// ManifestName is the file commands search for.
const ManifestName = "hindsight.toml"

// Manifest is a loaded project manifest.
type Manifest struct {
	// Path is the manifest file location.
	Path string

	// Root is the directory holding the manifest. Relative entry and
	// archive paths resolve against it.
	Root string

	Config Config
}

// Config is the decoded hindsight.toml content.
type Config struct {
	Project ProjectConfig `toml:"project"`
	Run     RunConfig     `toml:"run"`
	Trace   TraceConfig   `toml:"trace"`
}

// ProjectConfig identifies the project.
type ProjectConfig struct {
	Name string `toml:"name"`
}

// RunConfig carries script execution defaults.
type RunConfig struct {
	// Entry is the script commands run when no path argument is given.
	Entry string `toml:"entry"`

	// MaxSteps bounds each run's statement count. Zero means
	// unlimited.
	MaxSteps int `toml:"max_steps"`
}

// TraceConfig carries recording defaults.
type TraceConfig struct {
	// Archive is the default trace database path.
	Archive string `toml:"archive"`

	// DisabledKinds lists event kinds the recorder drops.
	DisabledKinds []string `toml:"disabled_kinds"`
}

// Find walks up from startDir looking for hindsight.toml. It reports
// the manifest path and whether one was found; reaching the filesystem
// root without a hit is not an error.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads and validates one manifest file.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: parse manifest: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return nil, fmt.Errorf("%s: missing [project].name", path)
	}
	if cfg.Run.MaxSteps < 0 {
		return nil, fmt.Errorf("%s: [run].max_steps must not be negative", path)
	}
	for _, k := range cfg.Trace.DisabledKinds {
		if !event.Kind(k).Valid() {
			return nil, fmt.Errorf("%s: unknown event kind %q in [trace].disabled_kinds", path, k)
		}
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

// Discover finds and loads the manifest governing startDir. A missing
// manifest reports found=false with no error.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// EntryPath returns the entry script resolved against the manifest
// root, or "" when the manifest names none. Safe on a nil manifest.
func (m *Manifest) EntryPath() string {
	if m == nil || m.Config.Run.Entry == "" {
		return ""
	}
	return m.resolve(m.Config.Run.Entry)
}

// ArchivePath returns the trace database path resolved against the
// manifest root, or "" when the manifest names none. Safe on a nil
// manifest.
func (m *Manifest) ArchivePath() string {
	if m == nil || m.Config.Trace.Archive == "" {
		return ""
	}
	return m.resolve(m.Config.Trace.Archive)
}

// MaxSteps returns the configured step quota, zero when unset. Safe on
// a nil manifest.
func (m *Manifest) MaxSteps() int {
	if m == nil {
		return 0
	}
	return m.Config.Run.MaxSteps
}

// DisabledKinds returns the configured kinds as event kinds. Load
// already validated the names. Safe on a nil manifest.
func (m *Manifest) DisabledKinds() []event.Kind {
	if m == nil || len(m.Config.Trace.DisabledKinds) == 0 {
		return nil
	}
	out := make([]event.Kind, len(m.Config.Trace.DisabledKinds))
	for i, k := range m.Config.Trace.DisabledKinds {
		out[i] = event.Kind(k)
	}
	return out
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}
