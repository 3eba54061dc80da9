// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package remote generates network resources with the qubernetes container.
package remote

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	dircopy "github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/keys"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/peers"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"go.uber.org/zap"
)

var ErrRemoteGenerationFailed = errors.New("remote generation failed")

// GenerationError is returned when a docker step exits with a non-zero code.
type GenerationError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %q exited with code %d\nstdout:\n%s\nstderr:\n%s",
		ErrRemoteGenerationFailed, e.Command, e.ExitCode, e.Stdout, e.Stderr)
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrRemoteGenerationFailed
}

type Generator struct {
	log    *zap.Logger
	runner Runner
}

func New(log *zap.Logger, runner Runner) *Generator {
	return &Generator{log: log, runner: runner}
}

// Generate produces the resources of [cfg] in [networkDir]/out with the
// qubernetes image and copies them into [configDir].
func (g *Generator) Generate(ctx context.Context, cfg network.Config, networkDir, configDir string) error {
	networkDir, err := filepath.Abs(networkDir)
	if err != nil {
		return err
	}
	outDir := filepath.Join(networkDir, constants.RemoteOutDirName)
	outConfigDir := filepath.Join(outDir, "config")
	g.log.Info("generating network resources with docker",
		zap.String("network-dir", networkDir),
		zap.String("image", constants.QubernetesImage),
	)

	q, err := NewQubernetes(cfg)
	if err != nil {
		return err
	}
	if err := WriteQubernetes(networkDir, q); err != nil {
		return err
	}
	if !cfg.Network.GenerateKeys {
		if err := keys.CopyFixtures(outConfigDir, len(cfg.Nodes), cfg.Network.TransactionManager.IsTessera()); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(outDir, utils.DefaultDirPerms); err != nil {
		return err
	}

	initScript := "./quorum-init"
	if cfg.Network.Deployment.IsKubernetes() {
		initScript = "./qube-init"
	}
	steps := [][]string{
		{"docker", "ps"},
		{"docker", "pull", constants.QubernetesImage},
		{
			"docker", "run", "--rm",
			"-v", filepath.Join(networkDir, constants.QubernetesFile) + ":/qubernetes/" + constants.QubernetesFile,
			"-v", outDir + ":/qubernetes/out",
			constants.QubernetesImage,
			initScript, "--action=update", constants.QubernetesFile,
		},
	}
	for _, step := range steps {
		if err := g.run(ctx, networkDir, step); err != nil {
			return err
		}
	}

	if err := renameKeystoreFiles(outDir); err != nil {
		return err
	}
	if cfg.Network.Deployment.IsDocker() {
		if err := patchPermissionedNodes(outConfigDir); err != nil {
			return err
		}
	}
	if err := utils.RecreateDir(configDir); err != nil {
		return err
	}
	if err := dircopy.Copy(outConfigDir, configDir); err != nil {
		return errors.Wrapf(err, "couldn't copy %s", outConfigDir)
	}
	return nil
}

func (g *Generator) run(ctx context.Context, dir string, step []string) error {
	command := strings.Join(step, " ")
	g.log.Debug("running", zap.String("command", command))
	res, err := g.runner.Run(ctx, dir, step[0], step[1:]...)
	if err != nil {
		return errors.Wrapf(ErrRemoteGenerationFailed, "%q: %v", command, err)
	}
	if res.ExitCode != 0 {
		return &GenerationError{
			Command:  command,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}
	return nil
}

// renameKeystoreFiles gives the keystore files written by geth
// (UTC--{time}--{address}) the fixed name the layout expects.
func renameKeystoreFiles(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), "UTC") {
			return nil
		}
		return os.Rename(path, filepath.Join(filepath.Dir(path), constants.AccountKeyFile))
	})
}

func patchPermissionedNodes(dir string) error {
	path := filepath.Join(dir, constants.PermissionedNodesFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(ErrRemoteGenerationFailed, "missing output: %v", err)
	}
	return utils.CreateFileAndWrite(path, peers.PatchServiceHosts(b))
}
