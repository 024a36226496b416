package watcher

import (
	"path/filepath"
	"strings"

	"github.com/1023-Ventures/qlaunch/internal/host"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// FilterConfig configures which paths never produce events
type FilterConfig struct {
	// IgnorePatterns are doublestar globs matched against root-relative slash paths.
	IgnorePatterns []string
	// SkipDirs are directory names that are never descended into or watched.
	SkipDirs            []string
	WatchSubdirectories bool
}

// DefaultFilterConfig returns a default filter configuration
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		IgnorePatterns:      []string{"**/*.swp", "**/*.swo", "**/*~", "**/.DS_Store", "**/*.tmp"},
		SkipDirs:            []string{".git", ".hg", ".svn", "node_modules"},
		WatchSubdirectories: true,
	}
}

// ShouldProcess reports whether a root-relative path may produce events
func (fc *FilterConfig) ShouldProcess(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, seg := range strings.Split(slashed, "/") {
		if fc.skipsDir(seg) {
			return false
		}
	}
	for _, pattern := range fc.IgnorePatterns {
		if matched, err := doublestar.Match(pattern, slashed); err == nil && matched {
			return false
		}
	}
	return true
}

func (fc *FilterConfig) skipsDir(name string) bool {
	for _, d := range fc.SkipDirs {
		if name == d {
			return true
		}
	}
	return false
}

// changeKind maps an fsnotify op to the host change kind; ok is false for ops
// that are not reported.
func changeKind(op fsnotify.Op) (host.ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return host.Created, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return host.Deleted, true
	case op.Has(fsnotify.Write):
		return host.Modified, true
	default:
		return "", false
	}
}
