package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quorumengineering/quorum-wizard/keys"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readStatic(t *testing.T, dir string) []string {
	b, err := os.ReadFile(filepath.Join(dir, constants.PermissionedNodesFile))
	require.NoError(t, err)
	var static []string
	require.NoError(t, json.Unmarshal(b, &static))
	return static
}

func TestGenerateFixtures(t *testing.T) {
	cfg := network.NewDefaultConfig(3, network.Raft, network.DefaultTessera, network.Bash)
	dir := filepath.Join(t.TempDir(), "configs", "net")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stale"), 0o755))

	require.NoError(t, New(zap.NewNop()).Generate(context.Background(), cfg, t.TempDir(), dir))

	assert.NoDirExists(t, filepath.Join(dir, "stale"))
	assert.FileExists(t, filepath.Join(dir, constants.GenesisFile))
	assert.NoFileExists(t, filepath.Join(dir, constants.TesseraTemplateFile))
	for _, f := range []string{"enode", "key", "nodekey", "password.txt", "tm.key", "tm.pub"} {
		assert.FileExists(t, filepath.Join(dir, "key3", f))
	}

	static := readStatic(t, dir)
	require.Len(t, static, 3)
	bundles, err := keys.LoadAll(keysDir(t), 3, false)
	require.NoError(t, err)
	for i, url := range static {
		assert.True(t, strings.HasPrefix(url, "enode://"+bundles[i].EnodeID+"@"), url)
		assert.Contains(t, url, "&raftport=")
	}
}

func keysDir(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, keys.CopyFixtures(dir, keys.MaxFixtureNodes, false))
	return dir
}

func TestGenerateKeys(t *testing.T) {
	cfg := network.NewDefaultConfig(2, network.Istanbul, network.NoTransactionManager, network.DockerCompose)
	cfg.Network.GenerateKeys = true
	dir := t.TempDir()

	require.NoError(t, New(zap.NewNop()).Generate(context.Background(), cfg, t.TempDir(), dir))
	bundles, err := keys.LoadAll(dir, 2, false)
	require.NoError(t, err)
	static := readStatic(t, dir)
	for i, b := range bundles {
		require.NoError(t, b.Verify())
		assert.Equal(t, "enode://"+b.EnodeID+"@172.16.239.1"+string(rune('1'+i))+":21000?discport=0", static[i])
	}
	assert.NoFileExists(t, filepath.Join(dir, "key1", constants.TMKeyFile))
}

func TestGenerateDockerTesseraTemplate(t *testing.T) {
	cfg := network.NewDefaultConfig(2, network.Clique, network.DefaultTessera, network.DockerCompose)
	dir := t.TempDir()
	require.NoError(t, New(zap.NewNop()).Generate(context.Background(), cfg, t.TempDir(), dir))

	b, err := os.ReadFile(filepath.Join(dir, constants.TesseraTemplateFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), "http://172.16.239.101:9000")
	assert.Contains(t, string(b), "http://172.16.239.102:9000")
}

func TestGenerateTooManyFixtureNodes(t *testing.T) {
	cfg := network.NewDefaultConfig(keys.MaxFixtureNodes+1, network.Raft, network.NoTransactionManager, network.Bash)
	err := New(zap.NewNop()).Generate(context.Background(), cfg, t.TempDir(), t.TempDir())
	assert.ErrorIs(t, err, network.ErrMissingKeyMaterial)
}
