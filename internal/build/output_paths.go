package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PathConflictError reports two source files resolving to the same output
// file. The first claimant keeps the slot; the second always gets this
// error.
type PathConflictError struct {
	Output      string
	Source      string
	OtherSource string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("path conflict: %q and %q both map to %q", e.Source, e.OtherSource, e.Output)
}

// OutputPathManager allocates output file paths and detects collisions
// between source files. It is the single arbiter of destination uniqueness
// across the content-render and asset-copy pipelines, which call it
// concurrently from an unbounded number of tasks.
type OutputPathManager struct {
	outputDir string

	// createdDirs tracks output directories already created, to skip the
	// creation syscall on repeat visits. The check-then-create is racy
	// under concurrency, which is fine: directory creation is idempotent.
	dirsMu      sync.RWMutex
	createdDirs map[string]struct{}

	// outputFiles maps each resolved output path to the source path that
	// claimed it first.
	filesMu     sync.Mutex
	outputFiles map[string]string
}

// NewOutputPathManager creates a manager writing under outputDir.
func NewOutputPathManager(outputDir string) *OutputPathManager {
	return &OutputPathManager{
		outputDir:   outputDir,
		createdDirs: make(map[string]struct{}),
		outputFiles: make(map[string]string),
	}
}

// Resolve turns a '/'-separated output-relative path into an absolute
// output file path, creating the parent directory if needed and recording
// the sourcePath claim on the destination.
//
// A trailing '/' is normalized to an index.html suffix. If another source
// already claimed the destination, Resolve fails with a
// PathConflictError.
func (m *OutputPathManager) Resolve(outputRelPath, sourcePath string) (string, error) {
	rel := outputRelPath
	if strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}

	outputPath := filepath.Join(m.outputDir, filepath.FromSlash(rel))
	dir := filepath.Dir(outputPath)

	m.dirsMu.RLock()
	_, dirExists := m.createdDirs[dir]
	m.dirsMu.RUnlock()
	if !dirExists {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("creating output subdir: %w", err)
		}
		m.dirsMu.Lock()
		m.createdDirs[dir] = struct{}{}
		m.dirsMu.Unlock()
	}

	m.filesMu.Lock()
	otherSource, taken := m.outputFiles[outputPath]
	if !taken {
		m.outputFiles[outputPath] = sourcePath
	}
	m.filesMu.Unlock()

	if taken {
		return "", &PathConflictError{Output: outputPath, Source: sourcePath, OtherSource: otherSource}
	}
	return outputPath, nil
}
