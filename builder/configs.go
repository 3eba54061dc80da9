package builder

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
)

// AvailableConfigs lists the saved network configs, sorted by file name.
// A missing configs folder means nothing was built yet.
func AvailableConfigs(paths RuntimePaths) ([]string, error) {
	entries, err := os.ReadDir(paths.ConfigsDir())
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	configs := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), network.SnapshotSuffix) {
			continue
		}
		configs = append(configs, e.Name())
	}
	sort.Strings(configs)
	return configs, nil
}

// LoadSavedConfig reads a config listed by AvailableConfigs.
func LoadSavedConfig(paths RuntimePaths, fileName string) (network.Config, error) {
	return network.LoadConfig(filepath.Join(paths.ConfigsDir(), fileName))
}

// DefaultRuntimePaths uses the current directory and ~/.quorum-wizard.
// Empty arguments are replaced by those defaults.
func DefaultRuntimePaths(workingDir, cacheHome string) (RuntimePaths, error) {
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return RuntimePaths{}, err
		}
		workingDir = wd
	}
	workingDir, err := filepath.Abs(workingDir)
	if err != nil {
		return RuntimePaths{}, err
	}
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return RuntimePaths{}, err
		}
		cacheHome = filepath.Join(home, constants.WizardHomeDirName)
	}
	return RuntimePaths{WorkingDir: workingDir, CacheHome: cacheHome}, nil
}
