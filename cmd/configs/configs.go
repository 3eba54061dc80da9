// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package configs

import (
	"path/filepath"

	"github.com/quorumengineering/quorum-wizard/builder"
	"github.com/quorumengineering/quorum-wizard/pkg/color"
	"github.com/spf13/cobra"
)

var workingDir string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs [options]",
		Short: "List saved network configs.",
		Long: `List the network configs saved by previous builds.
Pass one of them to "generate --config" to rebuild that network.`,
		RunE: configsFunc,
		Args: cobra.NoArgs,
	}
	cmd.PersistentFlags().StringVar(&workingDir, "working-dir", "", "directory holding configs/ (defaults to the current directory)")
	return cmd
}

func configsFunc(cmd *cobra.Command, args []string) error {
	paths, err := builder.DefaultRuntimePaths(workingDir, "")
	if err != nil {
		return err
	}
	names, err := builder.AvailableConfigs(paths)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		color.Outf("{{yellow}}no saved configs in %s{{/}}\n", paths.ConfigsDir())
		return nil
	}
	for _, name := range names {
		cfg, err := builder.LoadSavedConfig(paths, name)
		if err != nil {
			color.Redf("%s: %v\n", name, err)
			continue
		}
		color.Outf("{{green}}%s{{/}} %d nodes, %s, %s, %s\n",
			filepath.Join(paths.ConfigsDir(), name),
			len(cfg.Nodes),
			cfg.Network.Consensus,
			cfg.Network.TransactionManager,
			cfg.Network.Deployment,
		)
	}
	return nil
}
