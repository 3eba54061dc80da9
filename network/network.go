// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"regexp"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	ErrInvalidNetworkName       = errors.New("network name was empty or contained invalid characters")
	ErrInvalidConfig            = errors.New("invalid network config")
	ErrMissingKeyMaterial       = errors.New("missing key material")
	ErrUnsupportedConsensusKind = errors.New("unsupported consensus kind")
	ErrMissingConsensusField    = errors.New("missing consensus field")
)

const maxNameLength = 255

var (
	illegalNameRe     = regexp.MustCompile(`[/?<>\\:*|"]`)
	controlNameRe     = regexp.MustCompile(`[\x00-\x1f\x80-\x9f]`)
	reservedNameRe    = regexp.MustCompile(`^\.+$`)
	windowsReservedRe = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	windowsTrailingRe = regexp.MustCompile(`[. ]+$`)
)

// SanitizeName turns a user supplied network name into a token that is safe
// to use as a single path element. Illegal characters are dropped, not
// replaced, so a name made only of them sanitizes to the empty string and
// is rejected with [ErrInvalidNetworkName].
func SanitizeName(name string) (string, error) {
	s := illegalNameRe.ReplaceAllString(name, "")
	s = controlNameRe.ReplaceAllString(s, "")
	s = reservedNameRe.ReplaceAllString(s, "")
	s = windowsReservedRe.ReplaceAllString(s, "")
	s = windowsTrailingRe.ReplaceAllString(s, "")
	if len(s) > maxNameLength {
		// cut on a rune boundary
		end := maxNameLength
		for end > 0 && !utf8.RuneStart(s[end]) {
			end--
		}
		s = windowsTrailingRe.ReplaceAllString(s[:end], "")
	}
	if s == "" {
		return "", errors.Wrapf(ErrInvalidNetworkName, "%q", name)
	}
	return s, nil
}
