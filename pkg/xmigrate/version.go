// Package xmigrate exposes build-level metadata for the xmigrate tool.
package xmigrate

// Version is the current xmigrate release version.
const Version = "0.3.0"
