// ABOUTME: Resolves configured glob patterns to the concrete set of source files.
// ABOUTME: Filters out aggregation outputs so the tool never tails its own reports.

package discover

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/SyedAnees21/gcp-log-transformer/internal/sink"
)

// Provider resolves source patterns to a concrete set of file paths on
// each poll. The monitor only consumes the returned sequence.
type Provider interface {
	Discover() ([]string, error)
}

// GlobProvider expands glob patterns, including ** recursion, against
// the filesystem.
type GlobProvider struct {
	patterns []string
}

// NewGlobProvider creates a provider for the given patterns.
func NewGlobProvider(patterns []string) *GlobProvider {
	return &GlobProvider{patterns: patterns}
}

// Discover returns the absolute paths of all regular files matching the
// configured patterns, skipping aggregation output files.
func (g *GlobProvider) Discover() ([]string, error) {
	var found []string
	for _, pattern := range g.patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			abs, err := filepath.Abs(match)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", match, err)
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if sink.IsOutput(abs) {
				continue
			}
			found = append(found, abs)
		}
	}
	return found, nil
}
