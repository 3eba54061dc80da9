package node

import "github.com/pkg/errors"

var (
	errInvalidNode = errors.New("invalid node config")
	// ErrMissingRaftPort is returned when a raft network has a node without a raft port.
	ErrMissingRaftPort = errors.New("raft port is required for raft consensus")
)

// QuorumConfig is the network identity of a node's Quorum (geth) process.
type QuorumConfig struct {
	IP         string `json:"ip"`
	DevP2PPort uint16 `json:"devP2pPort"`
	RPCPort    uint16 `json:"rpcPort,omitempty"`
	WSPort     uint16 `json:"wsPort,omitempty"`
	// Zero when the network does not run raft.
	RaftPort uint16 `json:"raftPort,omitempty"`
}

// TMConfig is the network identity of a node's transaction manager.
type TMConfig struct {
	IP             string `json:"ip"`
	ThirdPartyPort uint16 `json:"thirdPartyPort"`
	P2PPort        uint16 `json:"p2pPort"`
}

// Config describes one node of the network. Its position in the network's
// node list defines its number.
type Config struct {
	Quorum QuorumConfig `json:"quorum"`
	// Nil when the network has no transaction manager.
	TM *TMConfig `json:"tm,omitempty"`
}

// Validate checks the fields every deployment needs.
// [requireRaft] and [requireTM] add the consensus and tm specific fields.
func (c Config) Validate(requireRaft, requireTM bool) error {
	if c.Quorum.IP == "" {
		return errors.Wrap(errInvalidNode, "missing quorum ip")
	}
	if c.Quorum.DevP2PPort == 0 {
		return errors.Wrap(errInvalidNode, "missing quorum devP2pPort")
	}
	if requireRaft && c.Quorum.RaftPort == 0 {
		return ErrMissingRaftPort
	}
	if !requireTM {
		return nil
	}
	switch {
	case c.TM == nil:
		return errors.Wrap(errInvalidNode, "missing tm config")
	case c.TM.IP == "":
		return errors.Wrap(errInvalidNode, "missing tm ip")
	case c.TM.ThirdPartyPort == 0 || c.TM.P2PPort == 0:
		return errors.Wrap(errInvalidNode, "missing tm ports")
	}
	return nil
}
