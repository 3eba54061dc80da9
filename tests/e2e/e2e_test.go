// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// e2e implements the e2e tests.
package e2e_test

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/quorumengineering/quorum-wizard/builder"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/pkg/color"
	"github.com/quorumengineering/quorum-wizard/pkg/logutil"
	"github.com/quorumengineering/quorum-wizard/tessera"
	"github.com/quorumengineering/quorum-wizard/utils"
	"go.uber.org/zap"
)

func TestE2e(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "quorum-wizard e2e test suites")
}

var (
	logLevel   string
	workingDir string
	download   bool
)

func init() {
	flag.StringVar(
		&logLevel,
		"log-level",
		logutil.DefaultLogLevel,
		"log level",
	)
	flag.StringVar(
		&workingDir,
		"working-dir",
		"",
		"directory the networks are built in (defaults to a temporary directory)",
	)
	flag.BoolVar(
		&download,
		"download",
		false,
		"download quorum and tessera into the binary cache",
	)
}

var (
	log   *zap.Logger
	paths builder.RuntimePaths
)

var _ = ginkgo.BeforeSuite(func() {
	var err error
	log, err = logutil.NewLogger(logLevel, "console")
	gomega.Ω(err).Should(gomega.BeNil())

	dir := workingDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "quorum-wizard-e2e")
		gomega.Ω(err).Should(gomega.BeNil())
	}
	cache, err := os.MkdirTemp("", "quorum-wizard-e2e-cache")
	gomega.Ω(err).Should(gomega.BeNil())
	paths = builder.RuntimePaths{WorkingDir: dir, CacheHome: cache}
	color.Outf("{{blue}}building networks in{{/}} %s\n", dir)
})

var _ = ginkgo.AfterSuite(func() {
	if workingDir == "" {
		color.Outf("{{red}}removing %s{{/}}\n", paths.WorkingDir)
		gomega.Ω(os.RemoveAll(paths.WorkingDir)).Should(gomega.BeNil())
	}
	gomega.Ω(os.RemoveAll(paths.CacheHome)).Should(gomega.BeNil())
	_ = log.Sync()
})

func build(cfg network.Config) *builder.Result {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	res, err := builder.New(log, paths, builder.Options{Download: download}).Build(ctx, cfg)
	gomega.Ω(err).Should(gomega.BeNil())
	color.Outf("{{green}}built network:{{/}} %s\n", res.NetworkDir)
	return res
}

func readStaticNodes(networkDir string, n int) []string {
	b, err := os.ReadFile(filepath.Join(networkDir, "qdata", utils.QuorumDirName(n), "static-nodes.json"))
	gomega.Ω(err).Should(gomega.BeNil())
	var enodes []string
	gomega.Ω(json.Unmarshal(b, &enodes)).Should(gomega.BeNil())
	return enodes
}

var _ = ginkgo.Describe("[Raft/Tessera/Bash]", func() {
	var res *builder.Result

	ginkgo.It("can build", func() {
		cfg := network.NewDefaultConfig(3, network.Raft, network.TransactionManager("1.6"), network.Bash)
		res = build(cfg)
		gomega.Ω(res.Tree.Nodes).Should(gomega.HaveLen(3))
	})

	ginkgo.It("lays out quorum and tessera folders", func() {
		for n := 1; n <= 3; n++ {
			gomega.Ω(filepath.Join(res.NetworkDir, "qdata", utils.QuorumDirName(n))).Should(gomega.BeADirectory())
			gomega.Ω(filepath.Join(res.NetworkDir, "qdata", utils.TMDirName(n))).Should(gomega.BeADirectory())
		}
	})

	ginkgo.It("writes raft static nodes", func() {
		for n := 1; n <= 3; n++ {
			enodes := readStaticNodes(res.NetworkDir, n)
			gomega.Ω(enodes).Should(gomega.HaveLen(3))
			for _, e := range enodes {
				gomega.Ω(e).Should(gomega.HavePrefix("enode://"))
				gomega.Ω(e).Should(gomega.ContainSubstring("&raftport="))
			}
		}
	})

	ginkgo.It("writes tessera configs with every peer", func() {
		for n := 1; n <= 3; n++ {
			b, err := os.ReadFile(filepath.Join(res.NetworkDir, "qdata", utils.TMDirName(n), utils.TesseraConfigFileName(n)))
			gomega.Ω(err).Should(gomega.BeNil())
			var cfg tessera.Config
			gomega.Ω(json.Unmarshal(b, &cfg)).Should(gomega.BeNil())
			gomega.Ω(cfg.Peer).Should(gomega.HaveLen(3))
		}
	})
})

var _ = ginkgo.Describe("[Raft/NoTransactionManager/Bash]", func() {
	var (
		cfg network.Config
		res *builder.Result
	)

	ginkgo.It("can build", func() {
		cfg = network.NewDefaultConfig(3, network.Raft, network.NoTransactionManager, network.Bash)
		res = build(cfg)
	})

	ginkgo.It("creates no tessera folders", func() {
		entries, err := os.ReadDir(filepath.Join(res.NetworkDir, "qdata"))
		gomega.Ω(err).Should(gomega.BeNil())
		for _, e := range entries {
			gomega.Ω(e.Name()).ShouldNot(gomega.HavePrefix("c"))
		}
		for n := 1; n <= 3; n++ {
			gomega.Ω(res.Tree.Nodes[n-1].TMDir).Should(gomega.BeEmpty())
		}
	})

	ginkgo.It("saves a config without transaction manager fields", func() {
		name, err := cfg.SanitizedName()
		gomega.Ω(err).Should(gomega.BeNil())
		b, err := os.ReadFile(filepath.Join(paths.ConfigsDir(), name+"-config.json"))
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(strings.Contains(string(b), `"tm"`)).Should(gomega.BeFalse())
		gomega.Ω(strings.Contains(string(b), "thirdPartyPort")).Should(gomega.BeFalse())
	})
})
