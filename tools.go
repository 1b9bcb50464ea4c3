//go:build tools

// Package tools imports development dependencies to ensure they're tracked in go.mod.
// This follows Go best practices for managing tool dependencies.
// Install tools with: go install -tags tools ./...
package tools

import (
	// Linting and formatting
	_ "golang.org/x/tools/cmd/goimports"

	// Testing tools
	_ "github.com/onsi/ginkgo/v2/ginkgo"

	// Performance profiling
	_ "github.com/google/pprof"
)