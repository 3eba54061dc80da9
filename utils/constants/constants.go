// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

const (
	LogNameMain = "main"

	WizardHomeDirName = ".quorum-wizard"
	NetworkDirName    = "network"
	QdataDirName      = "qdata"
	LogsDirName       = "logs"
	GethDirName       = "geth"
	KeystoreDirName   = "keystore"
	RemoteOutDirName  = "out"
	K8sDirName        = "k8s"

	PermissionedNodesFile = "permissioned-nodes.json"
	StaticNodesFile       = "static-nodes.json"
	GenesisFile           = "genesis.json"
	EnodeFile             = "enode"
	NodeKeyFile           = "nodekey"
	AccountKeyFile        = "key"
	PasswordFile          = "password.txt"
	TMKeyFile             = "tm.key"
	TMPubFile             = "tm.pub"
	TesseraTemplateFile   = "tessera-config-9.0.json"
	TesseraCopiedFile     = "tessera-config-09.json"
	QubernetesFile        = "qubernetes.yaml"
	K8sResourcesFile      = "resources.yaml"

	QubernetesImage = "quorumengineering/qubernetes:latest"
)
