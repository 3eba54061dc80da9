// Package k8s exports a materialized network as kubernetes manifests: per
// node a ConfigMap with genesis and peer lists, a Secret with the key
// material and a Deployment running quorum (and tessera).
package k8s

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/qdata"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"
)

// ObjectSpec holds where and with which images the network is deployed.
type ObjectSpec struct {
	Namespace    string
	QuorumImage  string
	TesseraImage string
}

// DefaultObjectSpec derives the spec from the network config.
func DefaultObjectSpec(cfg network.Config) ObjectSpec {
	quorumTag := cfg.Network.QuorumVersion
	if quorumTag == "" || quorumTag == network.PathVersion {
		quorumTag = network.DefaultQuorumVersion
	}
	tesseraTag := cfg.Network.TransactionManager.Version()
	if tesseraTag == "" {
		tesseraTag = string(network.DefaultTessera)
	}
	return ObjectSpec{
		Namespace:    namespaceFor(cfg.Network.Name),
		QuorumImage:  defaultQuorumImage + ":" + quorumTag,
		TesseraImage: defaultTesseraImage + ":" + tesseraTag,
	}
}

// namespaceFor lowercases [name] and replaces everything outside
// [a-z0-9-] with dashes.
func namespaceFor(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	ns := strings.Trim("quorum-"+b.String(), "-")
	if len(ns) > validation.DNS1123LabelMaxLength {
		ns = strings.TrimRight(ns[:validation.DNS1123LabelMaxLength], "-")
	}
	return ns
}

// Validates an ObjectSpec.
func validateObjectSpec(spec ObjectSpec) error {
	if errs := validation.IsDNS1123Label(spec.Namespace); len(errs) > 0 {
		return errors.Errorf("namespace %q is invalid: %s", spec.Namespace, strings.Join(errs, ", "))
	}
	for _, image := range []string{spec.QuorumImage, spec.TesseraImage} {
		if image == "" || !strings.Contains(image, "/") {
			return errors.Errorf("image string %q is invalid, it can't be empty and must contain a %q to describe a valid image repo", image, "/")
		}
	}
	return nil
}

// Convert a config flag to the environment variable the container
// entrypoint reads.
// e.g. network-id --> QUORUM_NETWORK_ID
func convertKey(key string) string {
	key = strings.Replace(key, "-", "_", -1)
	return envVarPrefix + strings.ToUpper(key)
}

// Returns the environment variables of node [nodeNumber].
func buildNodeEnv(cfg network.Config, nodeNumber int) []corev1.EnvVar {
	n := cfg.Nodes[nodeNumber-1]
	flags := [][2]string{
		{"network-id", strconv.FormatUint(cfg.Network.NetworkID, 10)},
		{"consensus", string(cfg.Network.Consensus)},
		{"node-number", strconv.Itoa(nodeNumber)},
		{"p2p-port", strconv.Itoa(int(n.Quorum.DevP2PPort))},
		{"rpc-port", strconv.Itoa(int(n.Quorum.RPCPort))},
		{"ws-port", strconv.Itoa(int(n.Quorum.WSPort))},
	}
	if cfg.Network.Consensus.IsRaft() {
		flags = append(flags, [2]string{"raft-port", strconv.Itoa(int(n.Quorum.RaftPort))})
	}
	privateConfig := "ignore"
	if cfg.Network.TransactionManager.IsTessera() {
		privateConfig = tmMountPath + "/tm.ipc"
	}
	flags = append(flags, [2]string{"private-config", privateConfig})

	env := make([]corev1.EnvVar, 0, len(flags))
	for _, f := range flags {
		env = append(env, corev1.EnvVar{Name: convertKey(f[0]), Value: f[1]})
	}
	return env
}

func nodeName(nodeNumber int) string {
	return fmt.Sprintf("quorum-node%d", nodeNumber)
}

func readFiles(files map[string]string) (map[string][]byte, error) {
	data := make(map[string][]byte, len(files))
	for key, path := range files {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(network.ErrMissingKeyMaterial, "%v", err)
		}
		data[key] = b
	}
	return data, nil
}

// BuildNodeObjects returns the ConfigMap, Secret and Deployment of one node
// laid out in [dirs].
func BuildNodeObjects(cfg network.Config, spec ObjectSpec, dirs qdata.NodeDirs) ([]runtime.Object, error) {
	name := nodeName(dirs.Number)
	n := cfg.Nodes[dirs.Number-1]
	labels := map[string]string{"app": name, "network": spec.Namespace}
	meta := func(suffix string) metav1.ObjectMeta {
		return metav1.ObjectMeta{Name: name + suffix, Namespace: spec.Namespace, Labels: labels}
	}

	configData, err := readFiles(map[string]string{
		constants.GenesisFile:           filepath.Join(dirs.QuorumDir, constants.GenesisFile),
		constants.PermissionedNodesFile: filepath.Join(dirs.QuorumDir, constants.PermissionedNodesFile),
		constants.StaticNodesFile:       filepath.Join(dirs.QuorumDir, constants.StaticNodesFile),
	})
	if err != nil {
		return nil, err
	}
	configMap := &corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{Kind: "ConfigMap", APIVersion: "v1"},
		ObjectMeta: meta("-config"),
		Data:       map[string]string{},
	}
	for k, v := range configData {
		configMap.Data[k] = string(v)
	}

	keyFiles := map[string]string{
		constants.NodeKeyFile:    filepath.Join(dirs.GethDir, constants.NodeKeyFile),
		constants.AccountKeyFile: filepath.Join(dirs.KeystoreDir, constants.AccountKeyFile),
		constants.PasswordFile:   filepath.Join(dirs.KeystoreDir, constants.PasswordFile),
	}
	if dirs.TMDir != "" {
		keyFiles[constants.TMKeyFile] = filepath.Join(dirs.TMDir, constants.TMKeyFile)
		keyFiles[constants.TMPubFile] = filepath.Join(dirs.TMDir, constants.TMPubFile)
	}
	keyData, err := readFiles(keyFiles)
	if err != nil {
		return nil, err
	}
	secret := &corev1.Secret{
		TypeMeta:   metav1.TypeMeta{Kind: "Secret", APIVersion: "v1"},
		ObjectMeta: meta("-keys"),
		Type:       corev1.SecretTypeOpaque,
		Data:       keyData,
	}

	resources := corev1.ResourceRequirements{
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse(resourceLimitsCPU),
			corev1.ResourceMemory: resource.MustParse(resourceLimitsMemory),
		},
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse(resourceRequestCPU),
			corev1.ResourceMemory: resource.MustParse(resourceRequestMemory),
		},
	}
	quorumPorts := []corev1.ContainerPort{
		{Name: "p2p", ContainerPort: int32(n.Quorum.DevP2PPort)},
		{Name: "rpc", ContainerPort: int32(n.Quorum.RPCPort)},
		{Name: "ws", ContainerPort: int32(n.Quorum.WSPort)},
	}
	if cfg.Network.Consensus.IsRaft() {
		quorumPorts = append(quorumPorts, corev1.ContainerPort{Name: "raft", ContainerPort: int32(n.Quorum.RaftPort)})
	}
	containers := []corev1.Container{{
		Name:      "quorum",
		Image:     spec.QuorumImage,
		Env:       buildNodeEnv(cfg, dirs.Number),
		Ports:     quorumPorts,
		Resources: resources,
		VolumeMounts: []corev1.VolumeMount{
			{Name: "config", MountPath: configMountPath},
			{Name: "keys", MountPath: keysMountPath, ReadOnly: true},
		},
	}}
	volumes := []corev1.Volume{
		{Name: "config", VolumeSource: corev1.VolumeSource{
			ConfigMap: &corev1.ConfigMapVolumeSource{LocalObjectReference: corev1.LocalObjectReference{Name: configMap.Name}},
		}},
		{Name: "keys", VolumeSource: corev1.VolumeSource{
			Secret: &corev1.SecretVolumeSource{SecretName: secret.Name},
		}},
	}
	if dirs.TMDir != "" && n.TM != nil {
		containers = append(containers, corev1.Container{
			Name:      "tessera",
			Image:     spec.TesseraImage,
			Resources: resources,
			Ports: []corev1.ContainerPort{
				{Name: "tm-p2p", ContainerPort: int32(n.TM.P2PPort)},
				{Name: "tm-3rdparty", ContainerPort: int32(n.TM.ThirdPartyPort)},
			},
			VolumeMounts: []corev1.VolumeMount{
				{Name: "keys", MountPath: keysMountPath, ReadOnly: true},
				{Name: "tm", MountPath: tmMountPath},
			},
		})
		containers[0].VolumeMounts = append(containers[0].VolumeMounts, corev1.VolumeMount{Name: "tm", MountPath: tmMountPath})
		volumes = append(volumes, corev1.Volume{Name: "tm", VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}})
	}

	replicas := int32(1)
	deployment := &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{Kind: "Deployment", APIVersion: "apps/v1"},
		ObjectMeta: meta(""),
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: containers,
					Volumes:    volumes,
				},
			},
		},
	}
	return []runtime.Object{configMap, secret, deployment}, nil
}

// Export writes every object of the network to [outDir]/resources.yaml as a
// multi document stream, node by node.
func Export(log *zap.Logger, cfg network.Config, tree *qdata.Tree, outDir string) (string, error) {
	spec := DefaultObjectSpec(cfg)
	if err := validateObjectSpec(spec); err != nil {
		return "", err
	}
	ns := &corev1.Namespace{
		TypeMeta:   metav1.TypeMeta{Kind: "Namespace", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{Name: spec.Namespace},
	}
	objs := []runtime.Object{ns}
	for _, dirs := range tree.Nodes {
		nodeObjs, err := BuildNodeObjects(cfg, spec, dirs)
		if err != nil {
			return "", errors.Wrapf(err, "node %d", dirs.Number)
		}
		objs = append(objs, nodeObjs...)
	}

	var buf bytes.Buffer
	for i, obj := range objs {
		b, err := yaml.Marshal(obj)
		if err != nil {
			return "", err
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(b)
	}
	path := filepath.Join(outDir, constants.K8sResourcesFile)
	if err := utils.CreateFileAndWrite(path, buf.Bytes()); err != nil {
		return "", err
	}
	log.Info("exported kubernetes resources",
		zap.String("path", path),
		zap.String("namespace", spec.Namespace),
		zap.Int("objects", len(objs)),
	)
	return path, nil
}
