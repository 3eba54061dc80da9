package tessera

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	peers := []Peer{{URL: "http://127.0.0.1:9001"}, {URL: "http://127.0.0.1:9002"}}
	c := NewConfig("qdata/c2", 2, "127.0.0.1", 9082, 9002, peers)

	assert.Equal(t, "jdbc:h2:qdata/c2/db2;MODE=Oracle;TRACE_LEVEL_SYSTEM_OUT=0", c.JDBC.URL)
	require.Len(t, c.ServerConfigs, 3)
	assert.Equal(t, "http://127.0.0.1:9082", c.ServerConfigs[0].ServerAddress)
	assert.Equal(t, "unix:qdata/c2/tm.ipc", c.ServerConfigs[1].ServerAddress)
	assert.Equal(t, "http://127.0.0.1:9002", c.ServerConfigs[2].ServerAddress)
	assert.Equal(t, peers, c.Peer)
	assert.Equal(t, "qdata/c2/tm.key", c.Keys.KeyData[0].PrivateKeyPath)
}

func TestNewConfigNilPeers(t *testing.T) {
	b, err := json.Marshal(NewConfig("c1", 1, "127.0.0.1", 9081, 9001, nil))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"peer":[]`)
	assert.Contains(t, string(b), `"alwaysSendTo":[]`)
}

func TestNewTemplate(t *testing.T) {
	c := NewTemplate([]Peer{{URL: "http://172.16.239.101:9000"}})
	assert.Equal(t, "http://${HOSTNAME}:9000", c.ServerConfigs[2].ServerAddress)
	assert.Equal(t, "${DDIR}/tm.pub", c.Keys.KeyData[0].PublicKeyPath)
}
