package remote

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/network"
	"github.com/quorumengineering/quorum-wizard/utils"
	"github.com/quorumengineering/quorum-wizard/utils/constants"
	"gopkg.in/yaml.v3"
)

// Qubernetes is the input of the qubernetes init scripts.
type Qubernetes struct {
	Namespace          *Namespace     `yaml:"namespace,omitempty"`
	SepDeploymentFiles bool           `yaml:"sep_deployment_files"`
	Service            Service        `yaml:"service"`
	Quorum             QuorumSettings `yaml:"quorum"`
	Genesis            Genesis        `yaml:"genesis"`
	Nodes              []Node         `yaml:"nodes"`
}

type Namespace struct {
	Name string `yaml:"name"`
}

type Service struct {
	Type string `yaml:"type"`
}

type TM struct {
	Name      string `yaml:"Name"`
	TMVersion string `yaml:"Tm_Version"`
}

type Storage struct {
	Type     string `yaml:"Type"`
	Capacity string `yaml:"Capacity"`
}

type QuorumSettings struct {
	Consensus     string   `yaml:"consensus"`
	QuorumVersion string   `yaml:"Quorum_Version"`
	TM            *TM      `yaml:"Tm,omitempty"`
	Storage       *Storage `yaml:"storage,omitempty"`
}

type Genesis struct {
	Consensus     string `yaml:"consensus"`
	QuorumVersion string `yaml:"Quorum_Version"`
	ChainID       uint64 `yaml:"Chain_Id"`
}

type NodeQuorum struct {
	Quorum QuorumSettings `yaml:"quorum"`
	TM     *TM            `yaml:"tm,omitempty"`
}

type GethNetwork struct {
	ID     uint64 `yaml:"id"`
	Public bool   `yaml:"public"`
}

type Geth struct {
	Network           GethNetwork `yaml:"network"`
	Verbosity         int         `yaml:"verbosity"`
	GethStartupParams string      `yaml:"Geth_Startup_Params"`
}

type Node struct {
	UserIdent string     `yaml:"Node_UserIdent"`
	KeyDir    string     `yaml:"Key_Dir"`
	Quorum    NodeQuorum `yaml:"quorum"`
	Geth      Geth       `yaml:"geth"`
}

// NewQubernetes describes [cfg] for the qubernetes tooling. Node keys are
// looked up as out/config/key{N}.
func NewQubernetes(cfg network.Config) (*Qubernetes, error) {
	quorumVersion := cfg.Network.QuorumVersion
	if quorumVersion == network.PathVersion || quorumVersion == "" {
		quorumVersion = network.DefaultQuorumVersion
	}
	var tm *TM
	switch cfg.Network.TransactionManager.Kind() {
	case network.TransactionManagerNone:
	case network.TransactionManagerTessera:
		version := cfg.Network.TransactionManager.Version()
		if version == "" {
			version = string(network.DefaultTessera)
		}
		tm = &TM{Name: "tessera", TMVersion: version}
	default:
		return nil, errors.Errorf("unknown transaction manager %q", cfg.Network.TransactionManager)
	}

	q := &Qubernetes{
		SepDeploymentFiles: true,
		Quorum: QuorumSettings{
			Consensus:     string(cfg.Network.Consensus),
			QuorumVersion: quorumVersion,
			TM:            tm,
		},
		Genesis: Genesis{
			Consensus:     string(cfg.Network.Consensus),
			QuorumVersion: quorumVersion,
			ChainID:       cfg.Network.NetworkID,
		},
	}
	switch cfg.Network.Deployment {
	case network.Kubernetes:
		q.Namespace = &Namespace{Name: "quorum-" + cfg.Network.Name}
		q.Service.Type = "NodePort"
		q.Quorum.Storage = &Storage{Type: "PVC", Capacity: "200Mi"}
	case network.DockerCompose:
		q.Service.Type = "ClusterIP"
	default:
		return nil, errors.Wrapf(network.ErrInvalidConfig, "no remote resources for %q deployments", cfg.Network.Deployment)
	}

	for i := range cfg.Nodes {
		q.Nodes = append(q.Nodes, Node{
			UserIdent: fmt.Sprintf("quorum-node%d", i+1),
			KeyDir:    utils.KeyDirName(i + 1),
			Quorum: NodeQuorum{
				Quorum: QuorumSettings{Consensus: string(cfg.Network.Consensus), QuorumVersion: quorumVersion},
				TM:     tm,
			},
			Geth: Geth{
				Network:           GethNetwork{ID: cfg.Network.NetworkID},
				Verbosity:         9,
				GethStartupParams: `--rpccorsdomain="*"`,
			},
		})
	}
	return q, nil
}

// WriteQubernetes stores [q] as [dir]/qubernetes.yaml.
func WriteQubernetes(dir string, q *Qubernetes) error {
	b, err := yaml.Marshal(q)
	if err != nil {
		return errors.Wrap(err, "couldn't marshal qubernetes config")
	}
	return utils.CreateFileAndWrite(filepath.Join(dir, constants.QubernetesFile), b)
}
