// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build version information for fishpi-go
// binaries and the client tag sent with outbound messages.
//
// Variables are injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/FishPiOffical/fishpi-go/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"

	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// ClientTag identifies this client on the wire. The platform records it
// in the `client` field of outbound chat messages.
func ClientTag() string {
	return "Golang/" + Version
}

// Info returns a version string for --version output.
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime)
}

// Full returns Info plus the Go runtime and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
