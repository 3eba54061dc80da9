// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSONFile(t *testing.T) {
	dir := t.TempDir()
	v := map[string]interface{}{
		"peer":         []map[string]string{{"url": "http://127.0.0.1:9001"}},
		"useWhiteList": false,
	}
	require.NoError(t, WriteJSONFile(dir, "tessera.json", v))

	b, err := os.ReadFile(filepath.Join(dir, "tessera.json"))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"peer\": [\n    {\n      \"url\": \"http://127.0.0.1:9001\"\n    }\n  ],\n  \"useWhiteList\": false\n}\n", string(b))

	// rewriting the same value leaves the file unchanged
	require.NoError(t, WriteJSONFile(dir, "tessera.json", v))
	bb, err := os.ReadFile(filepath.Join(dir, "tessera.json"))
	require.NoError(t, err)
	require.Equal(t, b, bb)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(bb, &m))
	require.Equal(t, false, m["useWhiteList"])
}

func TestWriteJSONFileCreatesParents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, WriteJSONFile(dir, "x.json", []string{}))
	b, err := os.ReadFile(filepath.Join(dir, "x.json"))
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(b))
}
