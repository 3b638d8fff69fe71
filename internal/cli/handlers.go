package cli

import (
	"path/filepath"

	"github.com/blimu-dev/client-gen/pkg/config"
)

// utility
func absPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	abs, _ := filepath.Abs(p)
	return abs
}

// inputPath leaves URLs untouched.
func inputPath(p string) string {
	if config.IsURL(p) {
		return p
	}
	return absPath(p)
}
