// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package download

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/quorumengineering/quorum-wizard/binaries"
	"github.com/quorumengineering/quorum-wizard/builder"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/pkg/color"
	"github.com/quorumengineering/quorum-wizard/pkg/logutil"
	"github.com/spf13/cobra"
)

var (
	logLevel           string
	cacheHome          string
	quorumVersion      string
	transactionManager string
	cakeshop           string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [options]",
		Short: "Download quorum, tessera and cakeshop into the binary cache.",
		RunE:  downloadFunc,
		Args:  cobra.NoArgs,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logutil.DefaultLogLevel, "log level")
	cmd.PersistentFlags().StringVar(&cacheHome, "cache-home", "", "binary cache directory (defaults to ~/.quorum-wizard)")
	cmd.PersistentFlags().StringVar(&quorumVersion, "quorum-version", network.DefaultQuorumVersion, "quorum version or PATH")
	cmd.PersistentFlags().StringVar(&transactionManager, "transaction-manager", string(network.DefaultTessera), "tessera version, PATH or none")
	cmd.PersistentFlags().StringVar(&cakeshop, "cakeshop", network.NoCakeshop, "cakeshop version or none")

	return cmd
}

func downloadFunc(cmd *cobra.Command, args []string) error {
	log, err := logutil.NewLogger(logLevel, "console")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	paths, err := builder.DefaultRuntimePaths("", cacheHome)
	if err != nil {
		return err
	}
	cfg := network.Config{Network: network.Options{
		QuorumVersion:      quorumVersion,
		TransactionManager: network.TransactionManager(transactionManager),
		Cakeshop:           cakeshop,
	}}
	tools := binaries.Required(cfg)
	if len(tools) == 0 {
		color.Outf("{{yellow}}nothing to download{{/}}\n")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := binaries.NewProvisioner(log, paths.CacheHome, nil, nil).DownloadAll(ctx, tools)
	for _, tool := range registry.Names() {
		path, _ := registry.Get(tool)
		color.Greenf("%s: %s\n", tool, path)
	}
	return err
}
