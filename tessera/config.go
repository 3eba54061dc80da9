// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tessera builds the runtime configuration of the tessera
// transaction manager.
package tessera

import (
	"fmt"
	"path"
)

type Peer struct {
	URL string `json:"url"`
}

type JDBC struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	URL              string `json:"url"`
	AutoCreateTables bool   `json:"autoCreateTables"`
}

type SSLConfig struct {
	TLS string `json:"tls"`
}

type ServerConfig struct {
	App               string     `json:"app"`
	Enabled           bool       `json:"enabled"`
	ServerAddress     string     `json:"serverAddress"`
	SSLConfig         *SSLConfig `json:"sslConfig,omitempty"`
	CommunicationType string     `json:"communicationType"`
}

type KeyData struct {
	PrivateKeyPath string `json:"privateKeyPath"`
	PublicKeyPath  string `json:"publicKeyPath"`
}

type Keys struct {
	Passwords []string  `json:"passwords"`
	KeyData   []KeyData `json:"keyData"`
}

// Config is the tessera 0.9+ configuration file.
type Config struct {
	UseWhiteList  bool           `json:"useWhiteList"`
	JDBC          JDBC           `json:"jdbc"`
	ServerConfigs []ServerConfig `json:"serverConfigs"`
	Peer          []Peer         `json:"peer"`
	Keys          Keys           `json:"keys"`
	AlwaysSendTo  []string       `json:"alwaysSendTo"`
}

// Placeholders used by the shared template. Container entrypoints substitute
// them per node.
const (
	TemplateDataDir = "${DDIR}"
	TemplateHost    = "${HOSTNAME}"

	TemplateThirdPartyPort = 9080
	TemplateP2PPort        = 9000
)

// NewConfig returns the configuration of the tessera instance number
// [nodeNumber] whose data lives in [tmDir].
func NewConfig(tmDir string, nodeNumber int, ip string, thirdPartyPort, p2pPort uint16, peers []Peer) Config {
	if peers == nil {
		peers = []Peer{}
	}
	return Config{
		JDBC: JDBC{
			Username:         "sa",
			URL:              fmt.Sprintf("jdbc:h2:%s;MODE=Oracle;TRACE_LEVEL_SYSTEM_OUT=0", path.Join(tmDir, fmt.Sprintf("db%d", nodeNumber))),
			AutoCreateTables: true,
		},
		ServerConfigs: []ServerConfig{
			{
				App:               "ThirdParty",
				Enabled:           true,
				ServerAddress:     fmt.Sprintf("http://%s:%d", ip, thirdPartyPort),
				CommunicationType: "REST",
			},
			{
				App:               "Q2T",
				Enabled:           true,
				ServerAddress:     "unix:" + path.Join(tmDir, "tm.ipc"),
				CommunicationType: "REST",
			},
			{
				App:               "P2P",
				Enabled:           true,
				ServerAddress:     fmt.Sprintf("http://%s:%d", ip, p2pPort),
				SSLConfig:         &SSLConfig{TLS: "OFF"},
				CommunicationType: "REST",
			},
		},
		Peer: peers,
		Keys: Keys{
			Passwords: []string{},
			KeyData: []KeyData{{
				PrivateKeyPath: path.Join(tmDir, "tm.key"),
				PublicKeyPath:  path.Join(tmDir, "tm.pub"),
			}},
		},
		AlwaysSendTo: []string{},
	}
}

// NewTemplate returns the configuration shared by every container. Paths and
// the listening host are left as placeholders.
func NewTemplate(peers []Peer) Config {
	return NewConfig(TemplateDataDir, 0, TemplateHost, TemplateThirdPartyPort, TemplateP2PPort, peers)
}
