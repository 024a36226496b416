package notifier

import (
	"slices"
	"strings"

	"github.com/1023-Ventures/qlaunch/internal/host"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns is the watch set installed when none is configured.
var DefaultPatterns = []string{
	"**/*.{js,ts,jsx,tsx,json,md}",
	"**/package.json",
	"**/.env*",
	"**/README*",
}

// PatternManager owns the current watch patterns and the subscriptions created
// for them. It is not safe for concurrent use; the Notifier serialises access.
type PatternManager struct {
	source  host.WatchSource
	handler func(pattern string) func(host.ChangeKind, string)
	log     logger.Logger

	patterns []string
	subs     host.Disposables
}

func NewPatternManager(source host.WatchSource, handler func(pattern string) func(host.ChangeKind, string), log logger.Logger) *PatternManager {
	return &PatternManager{
		source:  source,
		handler: handler,
		log:     log,
	}
}

// Update replaces the pattern set. Existing subscriptions are disposed before any
// new one is created, so no event for a dropped pattern can arrive from the
// source once Update returns.
func (m *PatternManager) Update(patterns []string) {
	m.subs.Dispose()
	m.patterns = normalizePatterns(patterns)

	m.log.Info("Setting up file watchers", "patterns", len(m.patterns))
	for _, p := range m.patterns {
		if !doublestar.ValidatePattern(p) {
			m.log.Warn("Skipping invalid watch pattern", "pattern", p)
			continue
		}
		sub, err := m.source.Watch(p, m.handler(p))
		if err != nil {
			m.log.Warn("Failed to watch pattern", "pattern", p, "err", err)
			continue
		}
		m.subs.Add(sub)
	}
	m.log.Debug("File watchers setup complete", "patterns", strings.Join(m.patterns, ", "), "subscriptions", m.subs.Len())
}

func (m *PatternManager) Patterns() []string {
	return slices.Clone(m.patterns)
}

func (m *PatternManager) Contains(pattern string) bool {
	return slices.Contains(m.patterns, pattern)
}

// Count is the number of live subscriptions.
func (m *PatternManager) Count() int {
	return m.subs.Len()
}

func (m *PatternManager) Dispose() {
	m.subs.Dispose()
}

// normalizePatterns trims, drops empties and removes duplicates keeping the
// first occurrence.
func normalizePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}
