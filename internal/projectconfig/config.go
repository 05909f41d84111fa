// Package projectconfig provides the ProjectConfig struct and loader for
// .mcc4mcc.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/mcc4mcc/mcc4mcc/internal/execution"
	"github.com/mcc4mcc/mcc4mcc/internal/hooks"
	"github.com/mcc4mcc/mcc4mcc/internal/results"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = ".mcc4mcc.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultDataDir         = "."
	DefaultResults         = "results.csv"
	DefaultCharacteristics = "characteristics.csv"
	DefaultModelsDir       = "models"
	DefaultHistory         = ".mcc4mcc/history.db"

	DefaultTimeConfinement = 3600
)

// maxWalkUp bounds the directories searched for FileName.
const maxWalkUp = 10

// PathsConfig holds input and output locations.
type PathsConfig struct {
	Data            string `yaml:"data,omitempty"`
	Results         string `yaml:"results,omitempty"`
	Characteristics string `yaml:"characteristics,omitempty"`
	Models          string `yaml:"models,omitempty"`
	History         string `yaml:"history,omitempty"`
}

// ExecutionConfig holds how tools are started.
type ExecutionConfig struct {
	Registry        string `yaml:"registry,omitempty"`
	Command         string `yaml:"command,omitempty"`
	TimeConfinement int    `yaml:"time_confinement,omitempty"`
	Docker          string `yaml:"docker,omitempty"`
}

// ArtifactsConfig holds where training artifacts live.
type ArtifactsConfig struct {
	// ContainerURL selects an Azure Blob container instead of paths.data.
	ContainerURL string `yaml:"container_url,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .mcc4mcc.yaml.
type ProjectConfig struct {
	Paths     PathsConfig       `yaml:"paths,omitempty"`
	Execution ExecutionConfig   `yaml:"execution,omitempty"`
	Renaming  map[string]string `yaml:"renaming,omitempty"`
	Artifacts ArtifactsConfig   `yaml:"artifacts,omitempty"`
	Hooks     hooks.HooksConfig `yaml:"hooks,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Data:            DefaultDataDir,
			Results:         DefaultResults,
			Characteristics: DefaultCharacteristics,
			Models:          DefaultModelsDir,
			History:         DefaultHistory,
		},
		Execution: ExecutionConfig{
			Registry:        execution.DefaultRegistry,
			Command:         execution.DefaultCommand,
			TimeConfinement: DefaultTimeConfinement,
			Docker:          execution.DefaultBinary,
		},
		Renaming: maps.Clone(results.DefaultRenaming),
	}
}

// Load finds .mcc4mcc.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	if err := results.ValidateRenaming(cfg.Renaming); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return cfg, nil
}

// findConfigFile walks up from dir looking for .mcc4mcc.yaml. Returns
// os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range maxWalkUp {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst. A renaming table
// in the file replaces the default one.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Data != "" {
		dst.Paths.Data = src.Paths.Data
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.Characteristics != "" {
		dst.Paths.Characteristics = src.Paths.Characteristics
	}
	if src.Paths.Models != "" {
		dst.Paths.Models = src.Paths.Models
	}
	if src.Paths.History != "" {
		dst.Paths.History = src.Paths.History
	}

	// Execution
	if src.Execution.Registry != "" {
		dst.Execution.Registry = src.Execution.Registry
	}
	if src.Execution.Command != "" {
		dst.Execution.Command = src.Execution.Command
	}
	if src.Execution.TimeConfinement != 0 {
		dst.Execution.TimeConfinement = src.Execution.TimeConfinement
	}
	if src.Execution.Docker != "" {
		dst.Execution.Docker = src.Execution.Docker
	}

	if src.Renaming != nil {
		dst.Renaming = src.Renaming
	}

	if src.Artifacts.ContainerURL != "" {
		dst.Artifacts.ContainerURL = src.Artifacts.ContainerURL
	}

	// Hooks
	if len(src.Hooks.BeforeRun) > 0 {
		dst.Hooks.BeforeRun = src.Hooks.BeforeRun
	}
	if len(src.Hooks.AfterRun) > 0 {
		dst.Hooks.AfterRun = src.Hooks.AfterRun
	}
}
