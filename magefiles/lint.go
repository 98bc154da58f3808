//go:build mage

package main

import "github.com/magefile/mage/sh"

const binLint = "golangci-lint"

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Fmt formats the tree with gofmt.
func Fmt() error {
	return sh.RunV("gofmt", "-w", ".")
}
