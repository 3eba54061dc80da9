// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package local generates network resources in-process: key material,
// genesis and the static peer list.
package local

import (
	"context"

	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/genesis"
	"github.com/quorumengineering/quorum-wizard/keys"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/peers"
	"github.com/quorumengineering/quorum-wizard/tessera"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"go.uber.org/zap"
)

type Generator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Generator {
	return &Generator{log: log}
}

// Generate recreates [configDir] and fills it with the resources of [cfg].
// Keys written to disk are read back so every later step works from the
// same files the nodes will use.
func (g *Generator) Generate(ctx context.Context, cfg network.Config, networkDir, configDir string) error {
	g.log.Info("generating network resources locally", zap.String("config-dir", configDir))
	if err := utils.RecreateDir(configDir); err != nil {
		return err
	}

	numNodes := len(cfg.Nodes)
	withTM := cfg.Network.TransactionManager.IsTessera()
	if cfg.Network.GenerateKeys {
		bundles, err := keys.GenerateForNodes(numNodes, withTM)
		if err != nil {
			return errors.Wrap(err, "couldn't generate keys")
		}
		if err := keys.WriteAll(configDir, bundles); err != nil {
			return err
		}
		g.log.Debug("generated keys", zap.Int("nodes", numNodes))
	} else {
		if err := keys.CopyFixtures(configDir, numNodes, withTM); err != nil {
			return err
		}
		g.log.Debug("copied fixture keys", zap.Int("nodes", numNodes))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bundles, err := keys.LoadAll(configDir, numNodes, withTM)
	if err != nil {
		return err
	}
	for i, b := range bundles {
		if err := b.Verify(); err != nil {
			return errors.Wrapf(err, "node %d", i+1)
		}
	}

	gen, err := genesis.Build(cfg, bundles)
	if err != nil {
		return err
	}
	if err := genesis.Write(configDir, gen); err != nil {
		return err
	}

	static, err := peers.BuildStaticNodes(cfg.Nodes, cfg.Network.Consensus, bundles)
	if err != nil {
		return err
	}
	if err := utils.WriteJSONFile(configDir, constants.PermissionedNodesFile, static); err != nil {
		return err
	}

	if withTM && !cfg.Network.Deployment.IsBash() {
		tmpl := tessera.NewTemplate(peers.BuildPeerList(cfg.Nodes, cfg.Network.TransactionManager))
		if err := utils.WriteJSONFile(configDir, constants.TesseraTemplateFile, tmpl); err != nil {
			return err
		}
	}
	return nil
}
