// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package qdata lays out the per node data directories of a network from
// the resources generated into its config directory.
package qdata

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/peers"
	"github.com/quorumengineering/quorum-wizard/tessera"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NodeDirs are the directories of node [Number]. TMDir is empty when the
// network has no transaction manager.
type NodeDirs struct {
	Number      int
	QuorumDir   string
	GethDir     string
	KeystoreDir string
	TMDir       string
}

// Tree is the materialized qdata layout of a network.
type Tree struct {
	Root  string
	Qdata string
	Logs  string
	Nodes []NodeDirs
}

type Options struct {
	// Parallelism bounds how many nodes are laid out at once.
	// Values below 1 mean one at a time.
	Parallelism int
}

// Materialize builds [networkDir]/qdata from [configDir]. [networkDir] must
// have been recreated empty by the caller. Once a node fails no further
// node is started; errors of every node that ran are reported, in node
// order.
func Materialize(
	ctx context.Context,
	log *zap.Logger,
	cfg network.Config,
	networkDir string,
	configDir string,
	opts Options,
) (*Tree, error) {
	tree := &Tree{
		Root:  networkDir,
		Qdata: filepath.Join(networkDir, constants.QdataDirName),
		Nodes: make([]NodeDirs, len(cfg.Nodes)),
	}
	tree.Logs = filepath.Join(tree.Qdata, constants.LogsDirName)
	if err := os.MkdirAll(tree.Logs, utils.DefaultDirPerms); err != nil {
		return nil, errors.Wrap(err, "couldn't create logs dir")
	}

	peerList := peers.BuildPeerList(cfg.Nodes, cfg.Network.TransactionManager)
	errs := make([]error, len(cfg.Nodes))
	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}
	var failed atomic.Bool
	eg := errgroup.Group{}
	eg.SetLimit(limit)
	for i := range cfg.Nodes {
		// nodes already running still report, later ones are not started
		if failed.Load() {
			break
		}
		i := i
		eg.Go(func() error {
			if failed.Load() {
				return nil
			}
			if err := ctx.Err(); err != nil {
				errs[i] = err
				failed.Store(true)
				return nil
			}
			dirs, err := materializeNode(cfg, i+1, tree.Qdata, configDir, peerList)
			if err != nil {
				errs[i] = errors.Wrapf(err, "node %d", i+1)
				failed.Store(true)
				return nil
			}
			tree.Nodes[i] = dirs
			log.Debug("materialized node",
				zap.Int("node", i+1),
				zap.String("quorum-dir", dirs.QuorumDir),
				zap.String("tm-dir", dirs.TMDir),
			)
			return nil
		})
	}
	_ = eg.Wait()
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	log.Info("materialized network",
		zap.String("network-dir", networkDir),
		zap.Int("nodes", len(tree.Nodes)),
	)
	return tree, nil
}

type copyOp struct{ src, dst string }

func materializeNode(
	cfg network.Config,
	nodeNumber int,
	qdataDir string,
	configDir string,
	peerList []tessera.Peer,
) (NodeDirs, error) {
	keyDir := filepath.Join(configDir, utils.KeyDirName(nodeNumber))
	dirs := NodeDirs{
		Number:    nodeNumber,
		QuorumDir: filepath.Join(qdataDir, utils.QuorumDirName(nodeNumber)),
	}
	dirs.GethDir = filepath.Join(dirs.QuorumDir, constants.GethDirName)
	dirs.KeystoreDir = filepath.Join(dirs.QuorumDir, constants.KeystoreDirName)
	for _, dir := range []string{dirs.QuorumDir, dirs.GethDir, dirs.KeystoreDir} {
		if err := os.MkdirAll(dir, utils.DefaultDirPerms); err != nil {
			return dirs, err
		}
	}

	copies := []copyOp{
		{filepath.Join(configDir, constants.PermissionedNodesFile), filepath.Join(dirs.QuorumDir, constants.PermissionedNodesFile)},
		{filepath.Join(configDir, constants.PermissionedNodesFile), filepath.Join(dirs.QuorumDir, constants.StaticNodesFile)},
		{filepath.Join(keyDir, constants.AccountKeyFile), filepath.Join(dirs.KeystoreDir, constants.AccountKeyFile)},
		{filepath.Join(keyDir, constants.NodeKeyFile), filepath.Join(dirs.GethDir, constants.NodeKeyFile)},
		{filepath.Join(keyDir, constants.PasswordFile), filepath.Join(dirs.KeystoreDir, constants.PasswordFile)},
		{filepath.Join(configDir, constants.GenesisFile), filepath.Join(dirs.QuorumDir, constants.GenesisFile)},
	}

	switch cfg.Network.TransactionManager.Kind() {
	case network.TransactionManagerNone:
	case network.TransactionManagerTessera:
		dirs.TMDir = filepath.Join(qdataDir, utils.TMDirName(nodeNumber))
		if err := os.MkdirAll(dirs.TMDir, utils.DefaultDirPerms); err != nil {
			return dirs, err
		}
		copies = append(copies,
			copyOp{filepath.Join(keyDir, constants.TMKeyFile), filepath.Join(dirs.TMDir, constants.TMKeyFile)},
			copyOp{filepath.Join(keyDir, constants.TMPubFile), filepath.Join(dirs.TMDir, constants.TMPubFile)},
		)
		if !cfg.Network.Deployment.IsBash() {
			copies = append(copies, copyOp{
				filepath.Join(configDir, constants.TesseraTemplateFile),
				filepath.Join(dirs.TMDir, constants.TesseraCopiedFile),
			})
		}
	default:
		return dirs, errors.Errorf("unknown transaction manager %q", cfg.Network.TransactionManager)
	}

	for _, c := range copies {
		if err := utils.CopyFile(c.src, c.dst); err != nil {
			if os.IsNotExist(err) {
				return dirs, errors.Wrapf(network.ErrMissingKeyMaterial, "%v", err)
			}
			return dirs, err
		}
	}

	if dirs.TMDir != "" && cfg.Network.Deployment.IsBash() {
		n := cfg.Nodes[nodeNumber-1]
		if n.TM == nil {
			return dirs, errors.Wrap(network.ErrInvalidConfig, "missing tm config")
		}
		// paths inside the config are relative to the network dir
		rel := filepath.ToSlash(filepath.Join(constants.QdataDirName, utils.TMDirName(nodeNumber)))
		tc := tessera.NewConfig(rel, nodeNumber, n.TM.IP, n.TM.ThirdPartyPort, n.TM.P2PPort, peerList)
		if err := utils.WriteJSONFile(dirs.TMDir, utils.TesseraConfigFileName(nodeNumber), tc); err != nil {
			return dirs, err
		}
	}
	return dirs, nil
}
