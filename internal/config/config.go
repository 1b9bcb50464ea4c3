// Package config loads the options that parameterize one evaluation run:
// the binary directory, initial cache seeds, and platform overrides (the
// source directory is the CLI's concern, set from --root or a positional
// listsfile argument). Grounded on pkg/config/config.go's dual JSON/YAML
// loading, adapted from the watch-daemon's target configuration schema to
// the evaluator's.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Qfresquin/cmk2nob/internal/model"
)

// CacheSeed is one pre-populated cache variable, as a driver would pass
// -D NAME:TYPE=VALUE on a command line.
type CacheSeed struct {
	Name      string `json:"name" yaml:"name"`
	Value     string `json:"value" yaml:"value"`
	Type      string `json:"type" yaml:"type"`
	Docstring string `json:"docstring,omitempty" yaml:"docstring,omitempty"`
}

// Options parameterizes one evaluation run.
type Options struct {
	BinaryDir  string       `json:"binaryDir" yaml:"binaryDir"`
	LogLevel   string       `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFile    string       `json:"logFile,omitempty" yaml:"logFile,omitempty"`
	RealProbes bool         `json:"realProbes,omitempty" yaml:"realProbes,omitempty"`
	CacheSeeds []CacheSeed  `json:"cacheSeeds,omitempty" yaml:"cacheSeeds,omitempty"`
	Platform   PlatformSpec `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// PlatformSpec overrides the host classification the evaluator exposes as
// CMAKE_HOST_*/WIN32/UNIX/APPLE, letting a cross-compiling driver describe
// the target platform instead of the host Go is running on.
type PlatformSpec struct {
	IsWindows bool `json:"isWindows,omitempty" yaml:"isWindows,omitempty"`
	IsUnix    bool `json:"isUnix,omitempty" yaml:"isUnix,omitempty"`
	IsApple   bool `json:"isApple,omitempty" yaml:"isApple,omitempty"`
	IsLinux   bool `json:"isLinux,omitempty" yaml:"isLinux,omitempty"`
}

// Default returns Options with sane bare-minimum defaults.
func Default() Options {
	return Options{
		BinaryDir: "build",
		LogLevel:  "info",
		Platform:  PlatformSpec{IsUnix: true, IsLinux: true},
	}
}

// Load reads Options from a JSON or YAML file at path, trying JSON first
// and falling back to YAML, matching the config manager's own dual-format
// detection strategy.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &opts); err == nil {
		return opts, nil
	}
	if err := yaml.Unmarshal(data, &opts); err == nil {
		return opts, nil
	}
	return opts, fmt.Errorf("failed to parse %s as JSON or YAML", path)
}

// ApplyPlatform copies PlatformSpec onto a fresh model.PlatformFlags.
func (o Options) ApplyPlatform() model.PlatformFlags {
	return model.PlatformFlags{
		IsWindows: o.Platform.IsWindows,
		IsUnix:    o.Platform.IsUnix,
		IsApple:   o.Platform.IsApple,
		IsLinux:   o.Platform.IsLinux,
	}
}

// SeedCache writes every configured CacheSeed into m, each forced so a
// driver's -D flags always win over a script's cache(SET ...) without FORCE.
func (o Options) SeedCache(m *model.Model) {
	for _, seed := range o.CacheSeeds {
		typ := seed.Type
		if typ == "" {
			typ = "STRING"
		}
		m.SetCacheEntry(seed.Name, seed.Value, typ, seed.Docstring, true)
	}
}
