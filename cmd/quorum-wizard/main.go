// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import "github.com/quorumengineering/quorum-wizard/cmd"

func main() {
	cmd.Execute()
}
