//go:build tools
// +build tools

// Package tools pins code generators (mockgen) as module dependencies.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
