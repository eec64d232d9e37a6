//go:build tools

// Package tools documents development tool dependencies.
// These tools are run with `go run` or installed globally and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - regenerates internal/mocks from the ports interfaces
//   Run: go generate ./internal/mocks
//   Version: v0.6.0 (matches go.uber.org/mock in go.mod)
//
// Air - live reload for cmd/tern-admin with DEV=true (templates are read from disk)
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
