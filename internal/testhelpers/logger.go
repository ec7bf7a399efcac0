// Package testhelpers provides shared helpers for package tests.
package testhelpers

import (
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
)

// NewTestLogger returns a logger that discards all output.
func NewTestLogger() logger.Logger {
	return logger.NewNopLogger()
}
