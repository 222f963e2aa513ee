// Package version reports the build of the stackup binary.
//
// Release builds set the variables through -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/stackup/version.Version=1.2.0 \
//	  -X github.com/kbukum/stackup/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/stackup
//
// Without them the VCS stamp of the Go toolchain is used.
package version
