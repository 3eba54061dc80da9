// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"encoding/json"
	"path/filepath"
)

// WriteJSONFile writes [v] as indented JSON to [dir]/[name].
// Output is deterministic for a given value, which keeps rebuilt trees
// byte-identical.
func WriteJSONFile(dir, name string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return CreateFileAndWrite(filepath.Join(dir, name), append(b, '\n'))
}
