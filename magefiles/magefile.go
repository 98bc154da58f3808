//go:build mage

// Package main provides build targets for the xmigrate project using Mage.
//
// Usage:
//
//	mage build          Compile xmigrate binary to bin/
//	mage test           Run all tests
//	mage test:cover     Run tests with a coverage summary
//	mage lint           Run golangci-lint
//	mage fmt            Run gofmt over the tree
//	mage clean          Remove build artifacts
//	mage install        Install xmigrate to GOPATH/bin
package main
