// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package genesis builds the genesis block of a network for the consensus
// algorithm it runs.
package genesis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/keys"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
)

const (
	VanityLength = 32
	SealLength   = crypto.SignatureLength

	DefaultGasLimit     = 0xE0000000
	DefaultMaxCodeSize  = 35
	DefaultTxnSizeLimit = 64
	DefaultEpoch        = 30000
	CliquePeriod        = 1
)

// IstanbulMixHash identifies istanbul blocks ("istanbul byzantine fault tolerance").
var IstanbulMixHash = common.HexToHash("0x63746963616c2062797a616e74696e65206661756c7420746f6c6572616e6365")

// DefaultBalance funds every node account.
var DefaultBalance, _ = new(big.Int).SetString("1000000000000000000000000000", 10)

type IstanbulConfig struct {
	Epoch          uint64 `json:"epoch"`
	Policy         uint64 `json:"policy"`
	Ceil2Nby3Block uint64 `json:"ceil2Nby3Block"`
}

type ChainConfig struct {
	ChainID        uint64 `json:"chainId"`
	HomesteadBlock uint64 `json:"homesteadBlock"`
	EIP150Block    uint64 `json:"eip150Block"`
	EIP155Block    uint64 `json:"eip155Block"`
	EIP158Block    uint64 `json:"eip158Block"`
	ByzantiumBlock uint64 `json:"byzantiumBlock"`
	IsQuorum       bool   `json:"isQuorum"`
	MaxCodeSize    uint64 `json:"maxCodeSize"`
	TxnSizeLimit   uint64 `json:"txnSizeLimit"`

	Istanbul *IstanbulConfig     `json:"istanbul,omitempty"`
	Clique   *params.CliqueConfig `json:"clique,omitempty"`
}

// Genesis is the genesis.json document read by quorum's init command.
type Genesis struct {
	Alloc      core.GenesisAlloc `json:"alloc"`
	Coinbase   common.Address    `json:"coinbase"`
	Config     ChainConfig       `json:"config"`
	Difficulty hexutil.Uint64    `json:"difficulty"`
	ExtraData  hexutil.Bytes     `json:"extraData"`
	GasLimit   hexutil.Uint64    `json:"gasLimit"`
	MixHash    common.Hash       `json:"mixHash"`
	Nonce      hexutil.Uint64    `json:"nonce"`
	ParentHash common.Hash       `json:"parentHash"`
	Timestamp  hexutil.Uint64    `json:"timestamp"`
}

// Build returns the genesis for [cfg]. [bundles] must be index aligned with
// cfg.Nodes.
func Build(cfg network.Config, bundles []*keys.Bundle) (*Genesis, error) {
	if len(bundles) != len(cfg.Nodes) {
		return nil, errors.Wrapf(network.ErrMissingKeyMaterial,
			"%d key bundles for %d nodes", len(bundles), len(cfg.Nodes))
	}
	accounts := make([]common.Address, len(bundles))
	alloc := core.GenesisAlloc{}
	for i, b := range bundles {
		addr, err := b.AccountAddress()
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", i+1)
		}
		accounts[i] = addr
		alloc[addr] = core.GenesisAccount{Balance: new(big.Int).Set(DefaultBalance)}
	}

	g := &Genesis{
		Alloc: alloc,
		Config: ChainConfig{
			ChainID:      cfg.Network.NetworkID,
			IsQuorum:     true,
			MaxCodeSize:  DefaultMaxCodeSize,
			TxnSizeLimit: DefaultTxnSizeLimit,
		},
		GasLimit: DefaultGasLimit,
	}

	switch cfg.Network.Consensus {
	case network.Raft:
		g.ExtraData = make([]byte, VanityLength)
	case network.Istanbul:
		validators := make([]common.Address, len(bundles))
		for i, b := range bundles {
			addr, err := b.NodeAddress()
			if err != nil {
				return nil, errors.Wrapf(err, "node %d", i+1)
			}
			validators[i] = addr
		}
		extra, err := EncodeIstanbulExtra(validators)
		if err != nil {
			return nil, err
		}
		g.Difficulty = 1
		g.MixHash = IstanbulMixHash
		g.ExtraData = extra
		g.Config.Istanbul = &IstanbulConfig{Epoch: DefaultEpoch}
	case network.Clique:
		g.Difficulty = 1
		g.ExtraData = EncodeCliqueExtra(accounts)
		g.Config.Clique = &params.CliqueConfig{Period: CliquePeriod, Epoch: DefaultEpoch}
	default:
		return nil, errors.Wrapf(network.ErrUnsupportedConsensusKind, "%q", cfg.Network.Consensus)
	}
	return g, nil
}

// Write stores [g] as [dir]/genesis.json.
func Write(dir string, g *Genesis) error {
	return utils.WriteJSONFile(dir, constants.GenesisFile, g)
}

// IstanbulExtra is the RLP payload following the vanity bytes of an
// istanbul extraData field.
type IstanbulExtra struct {
	Validators    []common.Address
	Seal          []byte
	CommittedSeal [][]byte
}

// EncodeIstanbulExtra returns vanity ++ RLP(extra) for a genesis block
// signed by nobody yet.
func EncodeIstanbulExtra(validators []common.Address) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(&IstanbulExtra{
		Validators:    validators,
		Seal:          []byte{},
		CommittedSeal: [][]byte{},
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't encode istanbul extra")
	}
	return append(make([]byte, VanityLength), payload...), nil
}

// DecodeIstanbulExtra is the inverse of EncodeIstanbulExtra.
func DecodeIstanbulExtra(extra []byte) (*IstanbulExtra, error) {
	if len(extra) < VanityLength {
		return nil, errors.Errorf("istanbul extra too short: %d bytes", len(extra))
	}
	var ie IstanbulExtra
	if err := rlp.DecodeBytes(extra[VanityLength:], &ie); err != nil {
		return nil, errors.Wrap(err, "couldn't decode istanbul extra")
	}
	return &ie, nil
}

// EncodeCliqueExtra returns vanity ++ signers ++ empty seal.
func EncodeCliqueExtra(signers []common.Address) []byte {
	extra := make([]byte, VanityLength, VanityLength+len(signers)*common.AddressLength+SealLength)
	for _, s := range signers {
		extra = append(extra, s.Bytes()...)
	}
	return append(extra, make([]byte, SealLength)...)
}

// CliqueSigners extracts the signer list from a clique extraData field.
func CliqueSigners(extra []byte) ([]common.Address, error) {
	body := len(extra) - VanityLength - SealLength
	if body < 0 || body%common.AddressLength != 0 {
		return nil, errors.Errorf("malformed clique extra: %d bytes", len(extra))
	}
	signers := make([]common.Address, body/common.AddressLength)
	for i := range signers {
		off := VanityLength + i*common.AddressLength
		signers[i] = common.BytesToAddress(extra[off : off+common.AddressLength])
	}
	return signers, nil
}
