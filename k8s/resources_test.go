package k8s

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quorumengineering/quorum-wizard/local"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/qdata"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

func materialize(t *testing.T, cfg network.Config) *qdata.Tree {
	configDir, networkDir := t.TempDir(), t.TempDir()
	require.NoError(t, local.New(zap.NewNop()).Generate(context.Background(), cfg, networkDir, configDir))
	tree, err := qdata.Materialize(context.Background(), zap.NewNop(), cfg, networkDir, configDir, qdata.Options{Parallelism: 2})
	require.NoError(t, err)
	return tree
}

func TestExport(t *testing.T) {
	cfg := network.NewDefaultConfig(2, network.Raft, network.DefaultTessera, network.Kubernetes)
	tree := materialize(t, cfg)
	outDir := t.TempDir()

	path, err := Export(zap.NewNop(), cfg, tree, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, constants.K8sResourcesFile), path)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	docs := strings.Split(string(raw), "---\n")
	// namespace + 3 objects per node
	require.Len(t, docs, 7)

	var ns corev1.Namespace
	require.NoError(t, yaml.Unmarshal([]byte(docs[0]), &ns))
	assert.Equal(t, "quorum-2-nodes-raft-tessera-kubernetes", ns.Name)

	var cm corev1.ConfigMap
	require.NoError(t, yaml.Unmarshal([]byte(docs[1]), &cm))
	assert.Equal(t, "quorum-node1-config", cm.Name)
	assert.Equal(t, cm.Data[constants.PermissionedNodesFile], cm.Data[constants.StaticNodesFile])
	assert.Contains(t, cm.Data[constants.GenesisFile], `"isQuorum": true`)

	var secret corev1.Secret
	require.NoError(t, yaml.Unmarshal([]byte(docs[2]), &secret))
	nodeKey, err := os.ReadFile(filepath.Join(tree.Nodes[0].GethDir, constants.NodeKeyFile))
	require.NoError(t, err)
	assert.Equal(t, nodeKey, secret.Data[constants.NodeKeyFile])
	assert.Contains(t, secret.Data, constants.TMPubFile)

	var dep appsv1.Deployment
	require.NoError(t, yaml.Unmarshal([]byte(docs[6]), &dep))
	assert.Equal(t, "quorum-node2", dep.Name)
	require.Len(t, dep.Spec.Template.Spec.Containers, 2)
	quorum := dep.Spec.Template.Spec.Containers[0]
	assert.Equal(t, "quorumengineering/quorum:2.6.0", quorum.Image)
	assert.Contains(t, quorum.Env, corev1.EnvVar{Name: "QUORUM_RAFT_PORT", Value: "50400"})
	assert.Contains(t, quorum.Env, corev1.EnvVar{Name: "QUORUM_NODE_NUMBER", Value: "2"})
	assert.Equal(t, "quorumengineering/tessera:0.10.4", dep.Spec.Template.Spec.Containers[1].Image)
}

func TestExportWithoutTM(t *testing.T) {
	cfg := network.NewDefaultConfig(1, network.Istanbul, network.NoTransactionManager, network.Kubernetes)
	tree := materialize(t, cfg)
	objs, err := BuildNodeObjects(cfg, DefaultObjectSpec(cfg), tree.Nodes[0])
	require.NoError(t, err)
	require.Len(t, objs, 3)

	secret := objs[1].(*corev1.Secret)
	assert.NotContains(t, secret.Data, constants.TMKeyFile)
	dep := objs[2].(*appsv1.Deployment)
	require.Len(t, dep.Spec.Template.Spec.Containers, 1)
	for _, env := range dep.Spec.Template.Spec.Containers[0].Env {
		assert.NotEqual(t, "QUORUM_RAFT_PORT", env.Name)
	}
	assert.Contains(t, dep.Spec.Template.Spec.Containers[0].Env, corev1.EnvVar{Name: "QUORUM_PRIVATE_CONFIG", Value: "ignore"})
}

func TestConvertKey(t *testing.T) {
	assert.Equal(t, "QUORUM_NETWORK_ID", convertKey("network-id"))
}

func TestValidateObjectSpec(t *testing.T) {
	good := ObjectSpec{Namespace: "quorum-net", QuorumImage: "a/b:1", TesseraImage: "a/c:1"}
	assert.NoError(t, validateObjectSpec(good))

	bad := good
	bad.Namespace = "Bad_Namespace"
	assert.Error(t, validateObjectSpec(bad))

	bad = good
	bad.QuorumImage = "quorum"
	assert.Error(t, validateObjectSpec(bad))
}

func TestNamespaceFor(t *testing.T) {
	assert.Equal(t, "quorum-my-net-1", namespaceFor("My Net.1"))
	assert.LessOrEqual(t, len(namespaceFor(strings.Repeat("a", 100))), 63)
}
