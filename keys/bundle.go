// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keys provisions the per-node key material of a network: the p2p
// node key, the account keystore file and, when tessera is enabled, the
// transaction manager key pair.
package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/network"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/sync/errgroup"
)

// DefaultPassword protects generated account keystores. The generated
// password.txt files carry it so nodes can unlock without prompting.
const DefaultPassword = ""

// Bundle is the key material of a single node.
type Bundle struct {
	// EnodeID is the hex encoded uncompressed public key of NodeKey
	// without the 0x04 prefix.
	EnodeID  string
	NodeKey  string
	Key      []byte
	Password string
	TMKey    []byte
	TMPub    []byte
}

// HasTM reports whether the bundle carries a transaction manager key pair.
func (b *Bundle) HasTM() bool {
	return len(b.TMKey) > 0 && len(b.TMPub) > 0
}

// NodeAddress returns the address derived from the p2p node key.
func (b *Bundle) NodeAddress() (common.Address, error) {
	priv, err := crypto.HexToECDSA(b.NodeKey)
	if err != nil {
		return common.Address{}, errors.Wrapf(network.ErrMissingKeyMaterial, "bad nodekey: %v", err)
	}
	return crypto.PubkeyToAddress(priv.PublicKey), nil
}

// AccountAddress returns the address recorded in the account keystore file.
func (b *Bundle) AccountAddress() (common.Address, error) {
	var ks struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(b.Key, &ks); err != nil {
		return common.Address{}, errors.Wrapf(network.ErrMissingKeyMaterial, "bad keystore file: %v", err)
	}
	if !common.IsHexAddress(ks.Address) {
		return common.Address{}, errors.Wrapf(network.ErrMissingKeyMaterial, "bad keystore address %q", ks.Address)
	}
	return common.HexToAddress(ks.Address), nil
}

// Verify checks that EnodeID is the public key of NodeKey.
func (b *Bundle) Verify() error {
	priv, err := crypto.HexToECDSA(b.NodeKey)
	if err != nil {
		return errors.Wrapf(network.ErrMissingKeyMaterial, "bad nodekey: %v", err)
	}
	if got := EnodeID(&priv.PublicKey); !strings.EqualFold(got, b.EnodeID) {
		return errors.Wrapf(network.ErrMissingKeyMaterial, "enode %s does not match nodekey", b.EnodeID)
	}
	return nil
}

// EnodeID formats [pub] the way enode URLs carry it.
func EnodeID(pub *ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(pub)[1:])
}

// Generate creates a fresh bundle. The account keystore is encrypted with
// [password] using light scrypt parameters.
func Generate(withTM bool, password string) (*Bundle, error) {
	nodeKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't generate node key")
	}
	accountKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't generate account key")
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't generate key id")
	}
	keyJSON, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(accountKey.PublicKey),
		PrivateKey: accountKey,
	}, password, keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't encrypt account key")
	}
	b := &Bundle{
		EnodeID:  EnodeID(&nodeKey.PublicKey),
		NodeKey:  hex.EncodeToString(crypto.FromECDSA(nodeKey)),
		Key:      keyJSON,
		Password: password,
	}
	if withTM {
		if b.TMKey, b.TMPub, err = generateTMKeys(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

type tmPrivateKey struct {
	Type string `json:"type"`
	Data struct {
		Bytes string `json:"bytes"`
	} `json:"data"`
}

// generateTMKeys returns an unlocked tessera private key file and the
// base64 public key.
func generateTMKeys() ([]byte, []byte, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "couldn't generate tessera keys")
	}
	var k tmPrivateKey
	k.Type = "unlocked"
	k.Data.Bytes = base64.StdEncoding.EncodeToString(priv[:])
	keyJSON, err := json.MarshalIndent(k, "", "   ")
	if err != nil {
		return nil, nil, err
	}
	return keyJSON, []byte(base64.StdEncoding.EncodeToString(pub[:])), nil
}

// GenerateForNodes generates [num] bundles concurrently. The result is
// index aligned: bundle i belongs to node i+1.
func GenerateForNodes(num int, withTM bool) ([]*Bundle, error) {
	bundles := make([]*Bundle, num)
	eg := errgroup.Group{}
	eg.SetLimit(runtime.NumCPU())
	for i := 0; i < num; i++ {
		i := i
		eg.Go(func() error {
			b, err := Generate(withTM, DefaultPassword)
			if err != nil {
				return errors.Wrapf(err, "node %d", i+1)
			}
			bundles[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}
