package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"kestrel/internal/buildpipeline"
)

const manifestName = "kestrel.toml"

const noManifestMessage = "no kestrel.toml found\nplease name the programs explicitly, e.g.:\n  kestrel build path/to/main.kast.yaml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Build    buildConfig     `toml:"build"`
	Programs []programConfig `toml:"program"`
}

type buildConfig struct {
	OutDir       string `toml:"out_dir"`
	RemoveIRFile bool   `toml:"remove_ir_file"`
	TargetTriple string `toml:"target_triple"`
	Jobs         int    `toml:"jobs"`
}

type programConfig struct {
	Path   string `toml:"path"`
	Output string `toml:"output"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("program") || len(cfg.Programs) == 0 {
		return projectConfig{}, fmt.Errorf("%s: missing [[program]]", path)
	}
	for i, p := range cfg.Programs {
		if strings.TrimSpace(p.Path) == "" {
			return projectConfig{}, fmt.Errorf("%s: [[program]] #%d has no path", path, i+1)
		}
	}
	if cfg.Build.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	return cfg, nil
}

// inputs resolves program paths against the manifest directory.
func (m *projectManifest) inputs() []buildpipeline.Input {
	out := make([]buildpipeline.Input, 0, len(m.Config.Programs))
	for _, p := range m.Config.Programs {
		in := buildpipeline.Input{Path: m.resolve(p.Path)}
		if p.Output != "" {
			in.Output = m.resolve(p.Output)
		}
		out = append(out, in)
	}
	return out
}

func (m *projectManifest) outDir() string {
	if m.Config.Build.OutDir == "" {
		return ""
	}
	return m.resolve(m.Config.Build.OutDir)
}

func (m *projectManifest) resolve(p string) string {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}
