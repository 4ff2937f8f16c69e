/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

import "fmt"

// Version is the current version of Dayblock.
// This is set at build time via ldflags:
//
//	-X github.com/dayblock/dayblock/internal/version.Version=X.Y.Z
var Version = "0.1.0"

// Commit is the git commit the binary was built from, set via ldflags.
var Commit = "unknown"

// String returns the human-readable version line.
func String() string {
	return fmt.Sprintf("dayblock %s (%s)", Version, Commit)
}
