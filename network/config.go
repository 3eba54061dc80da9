// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/network/node"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
)

const (
	DefaultNetworkID     = 10
	DefaultNumNodes      = 3
	DefaultQuorumVersion = "2.6.0"
	DefaultTessera       = TransactionManager("0.10.4")
	NoCakeshop           = "none"
)

// Options holds the network wide answers.
type Options struct {
	// Name for the network, see [SanitizeName].
	Name               string             `json:"name"`
	Consensus          ConsensusKind      `json:"consensus"`
	TransactionManager TransactionManager `json:"transactionManager"`
	Deployment         DeploymentKind     `json:"deployment"`
	NetworkID          uint64             `json:"networkId"`
	GenerateKeys       bool               `json:"generateKeys"`
	// Relative to the working directory.
	ConfigDir     string `json:"configDir"`
	QuorumVersion string `json:"quorumVersion"`
	Cakeshop      string `json:"cakeshop"`
}

// Config that defines a network when it is created.
// It must not be mutated once the build has started.
type Config struct {
	Network Options `json:"network"`
	// Node numbers are positions in this slice, starting at 1.
	Nodes []node.Config `json:"nodes"`
}

// Validate checks that the network can be materialized for the chosen
// consensus, transaction manager and deployment combination.
func (c *Config) Validate() error {
	if _, err := SanitizeName(c.Network.Name); err != nil {
		return err
	}
	if err := c.Network.Consensus.Validate(); err != nil {
		return err
	}
	if err := c.Network.Deployment.Validate(); err != nil {
		return err
	}
	switch {
	case len(c.Nodes) == 0:
		return errors.Wrap(ErrInvalidConfig, "no nodes given")
	case c.Network.NetworkID == 0:
		return errors.Wrap(ErrInvalidConfig, "network id must be positive")
	}
	if err := validateConfigDir(c.Network.ConfigDir); err != nil {
		return err
	}
	requireTM := c.Network.TransactionManager.IsTessera()
	for i, nodeConfig := range c.Nodes {
		err := nodeConfig.Validate(c.Network.Consensus.IsRaft(), requireTM)
		switch {
		case err == nil:
		case errors.Is(err, node.ErrMissingRaftPort):
			return errors.Wrapf(ErrMissingConsensusField, "node %d: raftPort", i+1)
		default:
			return errors.Wrapf(ErrInvalidConfig, "node %d config failed validation: %v", i+1, err)
		}
	}
	return nil
}

// SanitizedName returns the filesystem safe network name.
func (c *Config) SanitizedName() (string, error) {
	return SanitizeName(c.Network.Name)
}

// DefaultConfigDir is where generated keys, genesis and peer lists go when
// the user does not pick a folder.
func DefaultConfigDir(name string) string {
	return filepath.Join(ConfigsDirName, name)
}

// ConfigsDirName is the folder, relative to the working directory, holding
// saved network configs and the default per network resource folders.
const ConfigsDirName = "configs"

// SnapshotSuffix ends the file name of every saved network config.
const SnapshotSuffix = "-config.json"

// validateConfigDir rejects folders whose destructive rebuild would touch
// anything outside the working directory, the saved configs or the network
// roots.
func validateConfigDir(dir string) error {
	clean := filepath.Clean(dir)
	switch {
	case dir == "":
		return errors.Wrap(ErrInvalidConfig, "no config dir given")
	case filepath.IsAbs(clean):
		return errors.Wrapf(ErrInvalidConfig, "config dir %q must be relative", dir)
	case clean == ".", clean == "..", strings.HasPrefix(clean, ".."+string(filepath.Separator)):
		return errors.Wrapf(ErrInvalidConfig, "config dir %q must be inside the working directory", dir)
	case clean == ConfigsDirName, clean == constants.NetworkDirName,
		strings.HasPrefix(clean, constants.NetworkDirName+string(filepath.Separator)):
		return errors.Wrapf(ErrInvalidConfig, "config dir %q would replace saved configs or networks", dir)
	case strings.HasSuffix(clean, SnapshotSuffix):
		return errors.Wrapf(ErrInvalidConfig, "config dir %q collides with a saved config", dir)
	}
	return nil
}

// DefaultName is the network name used when the user does not pick one.
func DefaultName(numNodes int, consensus ConsensusKind, tm TransactionManager, deployment DeploymentKind) string {
	tmName := "nonprivacy"
	if tm.IsTessera() {
		tmName = "tessera"
	}
	return strconv.Itoa(numNodes) + "-nodes-" + string(consensus) + "-" + tmName + "-" + string(deployment)
}

// NewDefaultConfig creates a quickstart config with [numNodes] nodes laid out
// for [deployment].
func NewDefaultConfig(
	numNodes int,
	consensus ConsensusKind,
	tm TransactionManager,
	deployment DeploymentKind,
) Config {
	name := DefaultName(numNodes, consensus, tm, deployment)
	return Config{
		Network: Options{
			Name:               name,
			Consensus:          consensus,
			TransactionManager: tm,
			Deployment:         deployment,
			NetworkID:          DefaultNetworkID,
			GenerateKeys:       false,
			ConfigDir:          DefaultConfigDir(name),
			QuorumVersion:      DefaultQuorumVersion,
			Cakeshop:           NoCakeshop,
		},
		Nodes: NewDefaultNodes(numNodes, deployment, consensus.IsRaft(), tm.IsTessera()),
	}
}

// NewDefaultNodes returns the quickstart port layout.
// bash networks run every process on the loopback interface with distinct
// ports, container networks give each node its own address and share ports.
func NewDefaultNodes(numNodes int, deployment DeploymentKind, raft, tessera bool) []node.Config {
	nodes := make([]node.Config, numNodes)
	for i := range nodes {
		var n node.Config
		switch deployment {
		case Bash:
			n.Quorum = node.QuorumConfig{
				IP:         "127.0.0.1",
				DevP2PPort: uint16(21000 + i),
				RPCPort:    uint16(22000 + i),
				WSPort:     uint16(23000 + i),
			}
			if raft {
				n.Quorum.RaftPort = uint16(50401 + i)
			}
			if tessera {
				n.TM = &node.TMConfig{
					IP:             "127.0.0.1",
					ThirdPartyPort: uint16(9081 + i),
					P2PPort:        uint16(9001 + i),
				}
			}
		default:
			n.Quorum = node.QuorumConfig{
				IP:         fmt.Sprintf("172.16.239.1%d", i+1),
				DevP2PPort: 21000,
				RPCPort:    8545,
				WSPort:     8645,
			}
			if raft {
				n.Quorum.RaftPort = 50400
			}
			if tessera {
				n.TM = &node.TMConfig{
					IP:             fmt.Sprintf("172.16.239.10%d", i+1),
					ThirdPartyPort: 9080,
					P2PPort:        9000,
				}
			}
		}
		nodes[i] = n
	}
	return nodes
}
