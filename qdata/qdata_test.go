package qdata

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/quorumengineering/quorum-wizard/genesis"
	"github.com/quorumengineering/quorum-wizard/keys"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/peers"
	"github.com/quorumengineering/quorum-wizard/tessera"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// prepareConfigDir writes the resources a generator would leave behind.
func prepareConfigDir(t *testing.T, cfg network.Config) string {
	dir := t.TempDir()
	withTM := cfg.Network.TransactionManager.IsTessera()
	require.NoError(t, keys.CopyFixtures(dir, len(cfg.Nodes), withTM))
	bundles, err := keys.LoadAll(dir, len(cfg.Nodes), withTM)
	require.NoError(t, err)
	g, err := genesis.Build(cfg, bundles)
	require.NoError(t, err)
	require.NoError(t, genesis.Write(dir, g))
	static, err := peers.BuildStaticNodes(cfg.Nodes, cfg.Network.Consensus, bundles)
	require.NoError(t, err)
	require.NoError(t, utils.WriteJSONFile(dir, constants.PermissionedNodesFile, static))
	if withTM && !cfg.Network.Deployment.IsBash() {
		tmpl := tessera.NewTemplate(peers.BuildPeerList(cfg.Nodes, cfg.Network.TransactionManager))
		require.NoError(t, utils.WriteJSONFile(dir, constants.TesseraTemplateFile, tmpl))
	}
	return dir
}

func readTree(t *testing.T, root string) map[string]string {
	files := map[string]string{}
	require.NoError(t, filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(b)
		return nil
	}))
	return files
}

func TestMaterializeRaftTesseraBash(t *testing.T) {
	cfg := network.NewDefaultConfig(3, network.Raft, network.DefaultTessera, network.Bash)
	configDir := prepareConfigDir(t, cfg)
	networkDir := t.TempDir()

	tree, err := Materialize(context.Background(), zap.NewNop(), cfg, networkDir, configDir, Options{Parallelism: 3})
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 3)
	assert.DirExists(t, tree.Logs)

	files := readTree(t, networkDir)
	for i, dirs := range tree.Nodes {
		n := i + 1
		assert.Equal(t, n, dirs.Number)
		assert.Equal(t, filepath.Join(networkDir, "qdata", utils.QuorumDirName(n)), dirs.QuorumDir)
		assert.Equal(t, filepath.Join(networkDir, "qdata", utils.TMDirName(n)), dirs.TMDir)

		dd := "qdata/" + utils.QuorumDirName(n) + "/"
		c := "qdata/" + utils.TMDirName(n) + "/"
		for _, f := range []string{
			dd + "geth/nodekey",
			dd + "keystore/key",
			dd + "keystore/password.txt",
			dd + "genesis.json",
			c + "tm.key",
			c + "tm.pub",
			c + utils.TesseraConfigFileName(n),
		} {
			assert.Contains(t, files, f)
		}
		assert.Equal(t, files[dd+"permissioned-nodes.json"], files[dd+"static-nodes.json"])
		assert.NotContains(t, files, c+constants.TesseraCopiedFile)

		nodeKey, err := os.ReadFile(filepath.Join(configDir, utils.KeyDirName(n), constants.NodeKeyFile))
		require.NoError(t, err)
		assert.Equal(t, string(nodeKey), files[dd+"geth/nodekey"])
	}
	assert.Contains(t, files[`qdata/c2/tessera-config-09-2.json`], `"url": "http://127.0.0.1:9003"`)
}

func TestMaterializeNoTransactionManager(t *testing.T) {
	cfg := network.NewDefaultConfig(3, network.Istanbul, network.NoTransactionManager, network.Bash)
	configDir := prepareConfigDir(t, cfg)
	networkDir := t.TempDir()

	tree, err := Materialize(context.Background(), zap.NewNop(), cfg, networkDir, configDir, Options{})
	require.NoError(t, err)
	for _, dirs := range tree.Nodes {
		assert.Empty(t, dirs.TMDir)
	}
	entries, err := os.ReadDir(tree.Qdata)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"logs", "dd1", "dd2", "dd3"}, names)
}

func TestMaterializeDockerCopiesTemplate(t *testing.T) {
	cfg := network.NewDefaultConfig(2, network.Clique, network.DefaultTessera, network.DockerCompose)
	configDir := prepareConfigDir(t, cfg)
	networkDir := t.TempDir()

	_, err := Materialize(context.Background(), zap.NewNop(), cfg, networkDir, configDir, Options{Parallelism: 2})
	require.NoError(t, err)
	files := readTree(t, networkDir)
	template, err := os.ReadFile(filepath.Join(configDir, constants.TesseraTemplateFile))
	require.NoError(t, err)
	assert.Equal(t, string(template), files["qdata/c1/tessera-config-09.json"])
	assert.Equal(t, string(template), files["qdata/c2/tessera-config-09.json"])
	assert.NotContains(t, files, "qdata/c1/tessera-config-09-1.json")
}

func TestMaterializeIsIdempotent(t *testing.T) {
	cfg := network.NewDefaultConfig(3, network.Raft, network.DefaultTessera, network.Bash)
	configDir := prepareConfigDir(t, cfg)

	first, second := t.TempDir(), t.TempDir()
	_, err := Materialize(context.Background(), zap.NewNop(), cfg, first, configDir, Options{Parallelism: 3})
	require.NoError(t, err)
	_, err = Materialize(context.Background(), zap.NewNop(), cfg, second, configDir, Options{Parallelism: 1})
	require.NoError(t, err)
	assert.Equal(t, readTree(t, first), readTree(t, second))
}

func TestMaterializeReportsEveryNode(t *testing.T) {
	cfg := network.NewDefaultConfig(3, network.Raft, network.NoTransactionManager, network.Bash)
	configDir := prepareConfigDir(t, cfg)
	require.NoError(t, os.Remove(filepath.Join(configDir, "key1", constants.NodeKeyFile)))
	require.NoError(t, os.Remove(filepath.Join(configDir, "key3", constants.AccountKeyFile)))

	_, err := Materialize(context.Background(), zap.NewNop(), cfg, t.TempDir(), configDir, Options{Parallelism: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, network.ErrMissingKeyMaterial)
	// both nodes may already be running when the first one fails
	errs := multierr.Errors(err)
	require.NotEmpty(t, errs)
	require.LessOrEqual(t, len(errs), 2)
	for _, e := range errs {
		assert.ErrorIs(t, e, network.ErrMissingKeyMaterial)
		assert.Regexp(t, `node [13]`, e.Error())
	}
}

func TestMaterializeStopsAfterFailure(t *testing.T) {
	cfg := network.NewDefaultConfig(3, network.Raft, network.NoTransactionManager, network.Bash)
	configDir := prepareConfigDir(t, cfg)
	require.NoError(t, os.Remove(filepath.Join(configDir, "key1", constants.NodeKeyFile)))
	networkDir := t.TempDir()

	_, err := Materialize(context.Background(), zap.NewNop(), cfg, networkDir, configDir, Options{Parallelism: 1})
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "node 1")
	assert.NoDirExists(t, filepath.Join(networkDir, "qdata", "dd2"))
	assert.NoDirExists(t, filepath.Join(networkDir, "qdata", "dd3"))
}

func TestMaterializeCanceled(t *testing.T) {
	cfg := network.NewDefaultConfig(2, network.Raft, network.NoTransactionManager, network.Bash)
	configDir := prepareConfigDir(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Materialize(ctx, zap.NewNop(), cfg, t.TempDir(), configDir, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
