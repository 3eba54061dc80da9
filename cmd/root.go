// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"os"

	"github.com/quorumengineering/quorum-wizard/cmd/configs"
	"github.com/quorumengineering/quorum-wizard/cmd/download"
	"github.com/quorumengineering/quorum-wizard/cmd/generate"
	"github.com/spf13/cobra"
)

var Version = ""

var rootCmd = &cobra.Command{
	Use:        "quorum-wizard",
	Short:      "quorum-wizard generates ready to run Quorum networks",
	SuggestFor: []string{"wizard"},
	Version:    Version,
}

func init() {
	cobra.EnablePrefixMatching = true
}

func init() {
	rootCmd.AddCommand(
		generate.NewCommand(),
		configs.NewCommand(),
		download.NewCommand(),
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "quorum-wizard failed %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
