// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package generate

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/quorumengineering/quorum-wizard/builder"
	"github.com/quorumengineering/quorum-wizard/metrics"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/pkg/color"
	"github.com/quorumengineering/quorum-wizard/pkg/logutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logLevel    string
	logFormat   string
	configFile  string
	workingDir  string
	cacheHome   string
	metricsFile string
	parallelism int
	download    bool
	remote      bool

	numNodes           int
	name               string
	consensus          string
	transactionManager string
	deployment         string
	networkID          uint64
	generateKeys       bool
	quorumVersion      string
	cakeshop           string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [options]",
		Short: "Generate the artifacts of a network.",
		Long: `Generate keys, genesis, peer lists and per node data directories for a network.
The network is read from --config, or built from the quickstart flags.`,
		RunE: generateFunc,
		Args: cobra.NoArgs,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logutil.DefaultLogLevel, "log level")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log encoding (console or json)")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "network config file (json or yaml), e.g. a saved configs/{name}-config.json")
	cmd.PersistentFlags().StringVar(&workingDir, "working-dir", "", "directory holding network/ and configs/ (defaults to the current directory)")
	cmd.PersistentFlags().StringVar(&cacheHome, "cache-home", "", "binary cache directory (defaults to ~/.quorum-wizard)")
	cmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write build metrics to this file in the prometheus text format")
	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", 0, "number of nodes laid out concurrently (defaults to the number of CPUs)")
	cmd.PersistentFlags().BoolVar(&download, "download", true, "download the binaries the network needs")
	cmd.PersistentFlags().BoolVar(&remote, "remote", false, "generate resources with the qubernetes docker image (defaults to true for docker-compose and kubernetes)")

	cmd.PersistentFlags().IntVar(&numNodes, "nodes", network.DefaultNumNodes, "number of nodes")
	cmd.PersistentFlags().StringVar(&name, "name", "", "network name (defaults to one derived from the other options)")
	cmd.PersistentFlags().StringVar(&consensus, "consensus", string(network.Raft), "consensus: raft, istanbul or clique")
	cmd.PersistentFlags().StringVar(&transactionManager, "transaction-manager", string(network.DefaultTessera), "tessera version, PATH or none")
	cmd.PersistentFlags().StringVar(&deployment, "deployment", string(network.Bash), "deployment: bash, docker-compose or kubernetes")
	cmd.PersistentFlags().Uint64Var(&networkID, "network-id", network.DefaultNetworkID, "network id, also the chain id")
	cmd.PersistentFlags().BoolVar(&generateKeys, "generate-keys", false, "generate new keys instead of using the bundled 7 node keys")
	cmd.PersistentFlags().StringVar(&quorumVersion, "quorum-version", network.DefaultQuorumVersion, "quorum version or PATH")
	cmd.PersistentFlags().StringVar(&cakeshop, "cakeshop", network.NoCakeshop, "cakeshop version or none")

	return cmd
}

// networkConfig reads --config or assembles a quickstart config from flags.
func networkConfig() (network.Config, error) {
	if configFile != "" {
		return network.LoadConfig(configFile)
	}
	cfg := network.NewDefaultConfig(
		numNodes,
		network.ConsensusKind(consensus),
		network.TransactionManager(transactionManager),
		network.DeploymentKind(deployment),
	)
	if name != "" {
		cfg.Network.Name = name
		if sanitized, err := network.SanitizeName(name); err == nil {
			cfg.Network.ConfigDir = network.DefaultConfigDir(sanitized)
		}
	}
	cfg.Network.NetworkID = networkID
	cfg.Network.GenerateKeys = generateKeys
	cfg.Network.QuorumVersion = quorumVersion
	cfg.Network.Cakeshop = cakeshop
	return cfg, nil
}

func generateFunc(cmd *cobra.Command, args []string) error {
	log, err := logutil.NewLogger(logLevel, logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := networkConfig()
	if err != nil {
		return err
	}
	paths, err := builder.DefaultRuntimePaths(workingDir, cacheHome)
	if err != nil {
		return err
	}

	opts := builder.Options{
		Download:    download,
		Parallelism: parallelism,
	}
	if cmd.Flags().Changed("remote") {
		opts.Remote = &remote
	}
	var m *metrics.Metrics
	if metricsFile != "" {
		m = metrics.NewMetrics()
		opts.Metrics = m
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Stepf("building network %q (%s, %s, %s)", cfg.Network.Name,
		cfg.Network.Consensus, cfg.Network.TransactionManager.Kind(), cfg.Network.Deployment)
	res, err := builder.New(log, paths, opts).Build(ctx, cfg)
	if m != nil {
		if werr := m.WriteTextfile(metricsFile); werr != nil {
			log.Warn("couldn't write metrics", zap.String("path", metricsFile), zap.Error(werr))
		}
	}
	if err != nil {
		color.Redf("build failed: %v\n", err)
		return err
	}

	printResult(paths, res)
	return nil
}

func printResult(paths builder.RuntimePaths, res *builder.Result) {
	rel := func(p string) string {
		if r, err := filepath.Rel(paths.WorkingDir, p); err == nil {
			return r
		}
		return p
	}
	color.Greenf("network ready at %s\n", rel(res.NetworkDir))
	color.Outf("  resources: {{bold}}%s{{/}}\n", rel(res.ConfigDir))
	for _, n := range res.Tree.Nodes {
		color.Outf("  node %d: {{blue}}%s{{/}}", n.Number, rel(n.QuorumDir))
		if n.TMDir != "" {
			color.Outf(" {{blue}}%s{{/}}", rel(n.TMDir))
		}
		color.Outf("\n")
	}
	if res.K8sResources != "" {
		color.Outf("  kubernetes: {{bold}}%s{{/}}\n", rel(res.K8sResources))
	}
	for _, tool := range res.Binaries.Names() {
		path, _ := res.Binaries.Get(tool)
		color.Outf("  %s: %s\n", tool, path)
	}
}
