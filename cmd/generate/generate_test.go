package generate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateQuickstart(t *testing.T) {
	wd := t.TempDir()
	metricsPath := filepath.Join(t.TempDir(), "wizard.prom")
	cmd := NewCommand()
	cmd.SetArgs([]string{
		"--working-dir", wd,
		"--cache-home", t.TempDir(),
		"--download=false",
		"--log-level", "error",
		"--nodes", "2",
		"--name", "dev net",
		"--transaction-manager", "none",
		"--metrics-file", metricsPath,
	})
	require.NoError(t, cmd.Execute())

	root := filepath.Join(wd, "network", "dev net")
	assert.FileExists(t, filepath.Join(root, "qdata", "dd1", "geth", "nodekey"))
	assert.FileExists(t, filepath.Join(root, "qdata", "dd2", "static-nodes.json"))
	assert.NoDirExists(t, filepath.Join(root, "qdata", "c1"))
	assert.FileExists(t, filepath.Join(wd, "configs", "dev net-config.json"))

	b, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "quorum_wizard_builds_total")
}

func TestGenerateFromSavedConfig(t *testing.T) {
	wd := t.TempDir()
	first := NewCommand()
	first.SetArgs([]string{"--working-dir", wd, "--cache-home", t.TempDir(), "--download=false", "--log-level", "error", "--consensus", "clique"})
	require.NoError(t, first.Execute())

	saved := filepath.Join(wd, "configs", "3-nodes-clique-tessera-bash-config.json")
	require.FileExists(t, saved)
	require.NoError(t, os.RemoveAll(filepath.Join(wd, "network")))

	second := NewCommand()
	second.SetArgs([]string{"--working-dir", wd, "--cache-home", t.TempDir(), "--download=false", "--log-level", "error", "--config", saved})
	require.NoError(t, second.Execute())
	assert.FileExists(t, filepath.Join(wd, "network", "3-nodes-clique-tessera-bash", "qdata", "c3", "tm.pub"))
}

func TestGenerateRejectsInvalidConsensus(t *testing.T) {
	cmd := NewCommand()
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"--working-dir", t.TempDir(), "--download=false", "--log-level", "error", "--consensus", "pow"})
	assert.Error(t, cmd.Execute())
}
