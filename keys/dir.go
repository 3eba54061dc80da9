// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keys

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	dircopy "github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
)

//go:embed fixtures/7nodes
var fixtures embed.FS

const fixturesRoot = "fixtures/7nodes"

// MaxFixtureNodes is the number of nodes the embedded fixture set covers.
const MaxFixtureNodes = 7

// WriteDir writes [b] into [dir] using the on-disk layout nodes expect.
func WriteDir(dir string, b *Bundle) error {
	files := map[string][]byte{
		constants.EnodeFile:      []byte(b.EnodeID),
		constants.NodeKeyFile:    []byte(b.NodeKey),
		constants.AccountKeyFile: b.Key,
		constants.PasswordFile:   []byte(b.Password),
	}
	if b.HasTM() {
		files[constants.TMKeyFile] = b.TMKey
		files[constants.TMPubFile] = b.TMPub
	}
	for name, contents := range files {
		if err := utils.CreateFileAndWrite(filepath.Join(dir, name), contents); err != nil {
			return errors.Wrapf(err, "couldn't write %s", name)
		}
	}
	return nil
}

// WriteAll writes bundle i into [configDir]/key{i+1}.
func WriteAll(configDir string, bundles []*Bundle) error {
	for i, b := range bundles {
		if err := WriteDir(filepath.Join(configDir, utils.KeyDirName(i+1)), b); err != nil {
			return errors.Wrapf(err, "node %d", i+1)
		}
	}
	return nil
}

// Load reads the bundle stored in [dir]. The tessera files are only
// required when [withTM] is set. Any missing file is reported as
// network.ErrMissingKeyMaterial.
func Load(dir string, withTM bool) (*Bundle, error) {
	read := func(name string) ([]byte, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(network.ErrMissingKeyMaterial, "%v", err)
		}
		return b, nil
	}
	enode, err := read(constants.EnodeFile)
	if err != nil {
		return nil, err
	}
	nodeKey, err := read(constants.NodeKeyFile)
	if err != nil {
		return nil, err
	}
	key, err := read(constants.AccountKeyFile)
	if err != nil {
		return nil, err
	}
	password, err := read(constants.PasswordFile)
	if err != nil {
		return nil, err
	}
	b := &Bundle{
		EnodeID:  strings.TrimSpace(string(enode)),
		NodeKey:  strings.TrimSpace(string(nodeKey)),
		Key:      key,
		Password: strings.TrimRight(string(password), "\r\n"),
	}
	if withTM {
		if b.TMKey, err = read(constants.TMKeyFile); err != nil {
			return nil, err
		}
		if b.TMPub, err = read(constants.TMPubFile); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// LoadAll loads key1..key[num] from [configDir], index aligned.
func LoadAll(configDir string, num int, withTM bool) ([]*Bundle, error) {
	bundles := make([]*Bundle, num)
	for i := range bundles {
		b, err := Load(filepath.Join(configDir, utils.KeyDirName(i+1)), withTM)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", i+1)
		}
		bundles[i] = b
	}
	return bundles, nil
}

// CopyFixtures copies key1..key[num] of the embedded fixture set into
// [dst]. Tessera files are skipped unless [withTM] is set.
func CopyFixtures(dst string, num int, withTM bool) error {
	if num > MaxFixtureNodes {
		return errors.Wrapf(network.ErrMissingKeyMaterial,
			"fixture keys cover %d nodes, %d requested", MaxFixtureNodes, num)
	}
	opts := dircopy.Options{
		FS: fixtures,
		Skip: func(_ os.FileInfo, src, _ string) (bool, error) {
			name := path.Base(src)
			return !withTM && (name == constants.TMKeyFile || name == constants.TMPubFile), nil
		},
		// embedded files are read-only
		PermissionControl: dircopy.AddPermission(0o200),
	}
	for i := 1; i <= num; i++ {
		name := utils.KeyDirName(i)
		src := path.Join(fixturesRoot, name)
		if _, err := fs.Stat(fixtures, src); err != nil {
			return errors.Wrapf(network.ErrMissingKeyMaterial, "%v", err)
		}
		if err := dircopy.Copy(src, filepath.Join(dst, name), opts); err != nil {
			return errors.Wrapf(err, "couldn't copy fixture %s", name)
		}
	}
	return nil
}
