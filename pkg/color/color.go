// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package color

import (
	"fmt"

	formatter "github.com/onsi/ginkgo/v2/formatter"
)

// Outputs to stdout.
//
// e.g.,
//   Outf("{{green}}{{bold}}built network %q{{/}}\n", "3-nodes-raft")
//
// ref.
// https://github.com/onsi/ginkgo/blob/v2.0.0/formatter/formatter.go#L52-L73
//
func Outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}

// Outputs to stderr.
func Errf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdErr, s)
}

// Stepf prints a pipeline step header.
func Stepf(format string, args ...interface{}) {
	Outf("{{cyan}}{{bold}}"+format+"{{/}}\n", args...)
}

func Greenf(format string, args ...interface{}) {
	Outf("{{green}}"+format+"{{/}}", args...)
}

func Redf(format string, args ...interface{}) {
	Errf("{{red}}"+format+"{{/}}", args...)
}
