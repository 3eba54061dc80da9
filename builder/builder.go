// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package builder runs the whole network build: it recreates the network
// root, generates resources locally or with docker, lays out the node data
// directories and provisions binaries in the background.
package builder

import (
	"context"
	"net/http"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/binaries"
	"github.com/quorumengineering/quorum-wizard/k8s"
	"github.com/quorumengineering/quorum-wizard/local"
	"github.com/quorumengineering/quorum-wizard/metrics"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/qdata"
	"github.com/quorumengineering/quorum-wizard/remote"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// RuntimePaths are the directories a build reads from and writes to.
type RuntimePaths struct {
	// WorkingDir holds network/ and configs/.
	WorkingDir string
	// CacheHome holds downloaded binaries under bin/.
	CacheHome string
}

func (p RuntimePaths) NetworkDir(sanitizedName string) string {
	return filepath.Join(p.WorkingDir, constants.NetworkDirName, sanitizedName)
}

func (p RuntimePaths) ConfigsDir() string {
	return filepath.Join(p.WorkingDir, network.ConfigsDirName)
}

// ResourceGenerator fills a config directory with keys, genesis and peer
// lists for a network.
type ResourceGenerator interface {
	Generate(ctx context.Context, cfg network.Config, networkDir, configDir string) error
}

var (
	_ ResourceGenerator = (*local.Generator)(nil)
	_ ResourceGenerator = (*remote.Generator)(nil)
)

type Options struct {
	// Remote selects the docker based generator. When nil the deployment
	// decides: bash generates locally, container deployments remotely.
	Remote *bool
	// Download provisions the binaries the network needs.
	Download bool
	// Parallelism bounds per node work. Defaults to the number of CPUs.
	Parallelism int

	Runner     remote.Runner
	HTTPClient *http.Client
	Metrics    metrics.Metricer
}

// UseRemote reports whether resources of [cfg] are generated with docker.
func (o Options) UseRemote(cfg network.Config) bool {
	if o.Remote != nil {
		return *o.Remote
	}
	switch cfg.Network.Deployment {
	case network.DockerCompose, network.Kubernetes:
		return true
	default:
		return false
	}
}

// Result of a successful build.
type Result struct {
	NetworkDir string
	ConfigDir  string
	Tree       *qdata.Tree
	Binaries   *binaries.Registry
	// K8sResources is set for kubernetes deployments.
	K8sResources string
}

type Builder struct {
	log   *zap.Logger
	paths RuntimePaths
	opts  Options

	lock  sync.Mutex
	roots map[string]*sync.Mutex
}

func New(log *zap.Logger, paths RuntimePaths, opts Options) *Builder {
	if opts.Parallelism < 1 {
		opts.Parallelism = runtime.NumCPU()
	}
	if opts.Runner == nil {
		opts.Runner = remote.ExecRunner{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopMetrics
	}
	return &Builder{
		log:   log,
		paths: paths,
		opts:  opts,
		roots: make(map[string]*sync.Mutex),
	}
}

// lockRoot serializes builds writing to the same network root.
func (b *Builder) lockRoot(root string) func() {
	b.lock.Lock()
	l, ok := b.roots[root]
	if !ok {
		l = &sync.Mutex{}
		b.roots[root] = l
	}
	b.lock.Unlock()

	l.Lock()
	return l.Unlock
}

func (b *Builder) generator(cfg network.Config) ResourceGenerator {
	if b.opts.UseRemote(cfg) {
		return remote.New(b.log, b.opts.Runner)
	}
	return local.New(b.log)
}

// Build materializes [cfg]. Validation errors are returned before anything
// is written. Any later failure leaves a partial tree behind; rerunning the
// build starts over from an empty network root.
func (b *Builder) Build(ctx context.Context, cfg network.Config) (*Result, error) {
	start := time.Now()
	res, err := b.build(ctx, cfg)
	b.opts.Metrics.RecordBuild(string(cfg.Network.Consensus), string(cfg.Network.Deployment), err == nil, time.Since(start))
	if err == nil {
		b.opts.Metrics.RecordNodes(len(res.Tree.Nodes))
	}
	return res, err
}

type downloadResult struct {
	registry *binaries.Registry
	err      error
}

func (b *Builder) build(ctx context.Context, cfg network.Config) (*Result, error) {
	name, err := cfg.SanitizedName()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := &Result{
		NetworkDir: b.paths.NetworkDir(name),
		ConfigDir:  filepath.Join(b.paths.WorkingDir, cfg.Network.ConfigDir),
	}

	unlock := b.lockRoot(res.NetworkDir)
	defer unlock()

	b.log.Info("building network directory", zap.String("network-dir", res.NetworkDir))
	if err := utils.RecreateDir(res.NetworkDir); err != nil {
		return nil, err
	}
	if err := utils.WriteJSONFile(b.paths.ConfigsDir(), utils.ConfigSnapshotFileName(name), cfg); err != nil {
		return nil, errors.Wrap(err, "couldn't save config")
	}

	downloads := make(chan downloadResult, 1)
	go func() {
		registry := binaries.NewRegistry()
		var err error
		if b.opts.Download {
			p := binaries.NewProvisioner(b.log, b.paths.CacheHome, b.opts.HTTPClient, b.opts.Metrics)
			registry, err = p.DownloadAll(ctx, binaries.Required(cfg))
		}
		downloads <- downloadResult{registry: registry, err: err}
	}()

	buildErr := b.materialize(ctx, cfg, res)
	dl := <-downloads
	if err := multierr.Append(buildErr, dl.err); err != nil {
		return nil, err
	}
	res.Binaries = dl.registry
	b.resolvePathBinaries(cfg, res.Binaries)
	return res, nil
}

func (b *Builder) materialize(ctx context.Context, cfg network.Config, res *Result) error {
	if err := b.generator(cfg).Generate(ctx, cfg, res.NetworkDir, res.ConfigDir); err != nil {
		return err
	}
	tree, err := qdata.Materialize(ctx, b.log, cfg, res.NetworkDir, res.ConfigDir, qdata.Options{
		Parallelism: b.opts.Parallelism,
	})
	if err != nil {
		return err
	}
	res.Tree = tree

	switch cfg.Network.Deployment {
	case network.Kubernetes:
		path, err := k8s.Export(b.log, cfg, tree, filepath.Join(res.NetworkDir, constants.K8sDirName))
		if err != nil {
			return err
		}
		res.K8sResources = path
	case network.Bash, network.DockerCompose:
	default:
		return errors.Wrapf(network.ErrInvalidConfig, "unsupported deployment %q", cfg.Network.Deployment)
	}
	return nil
}

// resolvePathBinaries registers the tools taken from the user's
// environment, plus cached tools when downloads were skipped.
func (b *Builder) resolvePathBinaries(cfg network.Config, registry *binaries.Registry) {
	set := func(tool, path string) {
		if _, ok := registry.Get(tool); !ok {
			registry.Set(tool, path)
		}
	}
	set(binaries.Quorum, binaries.PathToQuorumBinary(b.paths.CacheHome, cfg.Network.QuorumVersion))
	if cfg.Network.TransactionManager.IsTessera() {
		set(binaries.Tessera, binaries.PathToTesseraJar(b.paths.CacheHome, cfg.Network.TransactionManager))
	}
	if cfg.Network.Cakeshop != network.NoCakeshop && cfg.Network.Cakeshop != "" {
		set(binaries.Cakeshop, binaries.PathToCakeshop(b.paths.CacheHome, cfg.Network.Cakeshop))
	}
}
