// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"strings"

	"github.com/pkg/errors"
)

// ConsensusKind is the consensus engine the network runs.
type ConsensusKind string

const (
	Raft     ConsensusKind = "raft"
	Istanbul ConsensusKind = "istanbul"
	Clique   ConsensusKind = "clique"
)

// ConsensusKinds lists every supported consensus engine.
var ConsensusKinds = []ConsensusKind{Raft, Istanbul, Clique}

func (c ConsensusKind) Validate() error {
	switch c {
	case Raft, Istanbul, Clique:
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedConsensusKind, "%q", string(c))
	}
}

// IsRaft reports whether static peers must carry a raft port.
func (c ConsensusKind) IsRaft() bool { return c == Raft }

func (c ConsensusKind) IsIstanbul() bool { return c == Istanbul }

func (c ConsensusKind) IsClique() bool { return c == Clique }

// DeploymentKind is the target the generated artifacts are rendered for.
type DeploymentKind string

const (
	Bash          DeploymentKind = "bash"
	DockerCompose DeploymentKind = "docker-compose"
	Kubernetes    DeploymentKind = "kubernetes"
)

var DeploymentKinds = []DeploymentKind{Bash, DockerCompose, Kubernetes}

func (d DeploymentKind) Validate() error {
	switch d {
	case Bash, DockerCompose, Kubernetes:
		return nil
	default:
		return errors.Wrapf(ErrInvalidConfig, "unsupported deployment %q", string(d))
	}
}

func (d DeploymentKind) IsBash() bool { return d == Bash }

func (d DeploymentKind) IsDocker() bool { return d == DockerCompose }

func (d DeploymentKind) IsKubernetes() bool { return d == Kubernetes }

// TransactionManagerKind is the closed set of transaction manager families.
type TransactionManagerKind int

const (
	TransactionManagerNone TransactionManagerKind = iota
	TransactionManagerTessera
)

func (k TransactionManagerKind) String() string {
	switch k {
	case TransactionManagerNone:
		return "none"
	case TransactionManagerTessera:
		return "tessera"
	default:
		return "unknown"
	}
}

const (
	// NoTransactionManager disables private transactions.
	NoTransactionManager TransactionManager = "none"
	// PathTransactionManager uses the tessera jar pointed to by $TESSERA_JAR.
	PathTransactionManager TransactionManager = "PATH"
	// PathVersion marks a binary that is resolved from the user's environment
	// instead of being downloaded.
	PathVersion = "PATH"
)

// TransactionManager is either "none", "PATH" or a tessera version.
type TransactionManager string

func (t TransactionManager) Kind() TransactionManagerKind {
	switch s := strings.TrimSpace(string(t)); s {
	case "", string(NoTransactionManager):
		return TransactionManagerNone
	default:
		return TransactionManagerTessera
	}
}

func (t TransactionManager) IsTessera() bool {
	return t.Kind() == TransactionManagerTessera
}

// Version returns the tessera version to download, or "" when tessera is
// either disabled or taken from $TESSERA_JAR.
func (t TransactionManager) Version() string {
	if !t.IsTessera() || t == PathTransactionManager {
		return ""
	}
	return string(t)
}
