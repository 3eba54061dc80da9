// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peers derives the addresses nodes and transaction managers use to
// find each other.
package peers

import (
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/keys"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/network/node"
	"github.com/quorumengineering/quorum-wizard/tessera"
)

// StaticNode formats the enode URL of a node. [raftPort] is only appended
// for raft networks.
func StaticNode(enodeID string, q node.QuorumConfig, consensus network.ConsensusKind) (string, error) {
	url := fmt.Sprintf("enode://%s@%s:%d?discport=0", enodeID, q.IP, q.DevP2PPort)
	switch consensus {
	case network.Raft:
		if q.RaftPort == 0 {
			return "", errors.Wrap(network.ErrMissingConsensusField, "raftPort")
		}
		return fmt.Sprintf("%s&raftport=%d", url, q.RaftPort), nil
	case network.Istanbul, network.Clique:
		return url, nil
	default:
		return "", errors.Wrapf(network.ErrUnsupportedConsensusKind, "%q", consensus)
	}
}

// BuildStaticNodes returns the enode URL of every node, in node order.
func BuildStaticNodes(nodes []node.Config, consensus network.ConsensusKind, bundles []*keys.Bundle) ([]string, error) {
	if len(bundles) != len(nodes) {
		return nil, errors.Wrapf(network.ErrMissingKeyMaterial,
			"%d key bundles for %d nodes", len(bundles), len(nodes))
	}
	static := make([]string, len(nodes))
	for i, n := range nodes {
		if err := checkEnodeID(bundles[i].EnodeID); err != nil {
			return nil, errors.Wrapf(err, "node %d", i+1)
		}
		url, err := StaticNode(bundles[i].EnodeID, n.Quorum, consensus)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", i+1)
		}
		static[i] = url
	}
	return static, nil
}

func checkEnodeID(id string) error {
	raw, err := hex.DecodeString(id)
	if err != nil {
		return errors.Wrapf(network.ErrMissingKeyMaterial, "bad enode id: %v", err)
	}
	if _, err := crypto.UnmarshalPubkey(append([]byte{0x04}, raw...)); err != nil {
		return errors.Wrapf(network.ErrMissingKeyMaterial, "bad enode id: %v", err)
	}
	return nil
}

// BuildPeerList returns the P2P url of every transaction manager. The list is
// empty, never nil, when the network has no transaction manager.
func BuildPeerList(nodes []node.Config, tm network.TransactionManager) []tessera.Peer {
	switch tm.Kind() {
	case network.TransactionManagerTessera:
		list := make([]tessera.Peer, 0, len(nodes))
		for _, n := range nodes {
			if n.TM == nil {
				continue
			}
			list = append(list, tessera.Peer{URL: fmt.Sprintf("http://%s:%d", n.TM.IP, n.TM.P2PPort)})
		}
		return list
	default:
		return []tessera.Peer{}
	}
}

var serviceHostRe = regexp.MustCompile(`%QUORUM-NODE([0-9])_SERVICE_HOST%`)

// PatchServiceHosts replaces the service host placeholders emitted by the
// qubernetes docker flow with the fixed docker-compose addresses. Only node
// numbers 1-9 are recognized.
func PatchServiceHosts(b []byte) []byte {
	return serviceHostRe.ReplaceAll(b, []byte("172.16.239.1${1}"))
}
