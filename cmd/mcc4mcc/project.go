package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcc4mcc/mcc4mcc/internal/artifacts"
	"github.com/mcc4mcc/mcc4mcc/internal/execution"
	"github.com/mcc4mcc/mcc4mcc/internal/history"
	"github.com/mcc4mcc/mcc4mcc/internal/projectconfig"
)

// loadProjectConfig loads .mcc4mcc.yaml from the working directory upwards
// and applies the --data override.
func loadProjectConfig() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Paths.Data = dataDir
	}
	return cfg, nil
}

// dataPath resolves p against the data directory unless it is absolute.
func dataPath(cfg *projectconfig.ProjectConfig, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Paths.Data, p)
}

// firstNonEmpty returns the first argument that is not "".
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// openArtifactStore returns the blob container when one is configured and
// the data directory otherwise.
func openArtifactStore(cfg *projectconfig.ProjectConfig) (artifacts.Store, error) {
	if cfg.Artifacts.ContainerURL != "" {
		store, err := artifacts.NewBlobStore(cfg.Artifacts.ContainerURL)
		if err != nil {
			return nil, fmt.Errorf("opening artifact container: %w", err)
		}
		return store, nil
	}
	return artifacts.NewDirStore(cfg.Paths.Data), nil
}

// openHistory opens the history database under the data directory.
func openHistory(cfg *projectconfig.ProjectConfig) (*history.Store, error) {
	return history.Open(dataPath(cfg, cfg.Paths.History))
}

// newExecutor builds the docker executor from the execution settings.
func newExecutor(cfg *projectconfig.ProjectConfig) *execution.DockerExecutor {
	docker := execution.NewDockerExecutor(nil)
	if cfg.Execution.Docker != "" {
		docker.Binary = cfg.Execution.Docker
	}
	if cfg.Execution.Registry != "" {
		docker.Registry = cfg.Execution.Registry
	}
	if cfg.Execution.Command != "" {
		docker.Command = cfg.Execution.Command
	}
	return docker
}
