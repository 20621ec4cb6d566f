// Package config handles application configuration and setup
package config

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/retroenv/retrogolib/log"
)

const fallbackPackage = "device"

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// PackageName returns the package name of the generated code. A configured
// name is used as is, otherwise the lower case device name without any
// character that is invalid in an identifier.
func PackageName(configured, deviceName string) string {
	if configured != "" {
		return configured
	}

	name := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return -1
	}, deviceName)

	if !token.IsIdentifier(name) || token.IsKeyword(name) {
		return fallbackPackage
	}
	return name
}
