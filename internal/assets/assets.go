package assets

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/jplatte/hinoki/internal/build"
)

// Copier copies the asset tree verbatim into the output directory. It
// shares the output path manager and render scope with content processing,
// so asset and content destinations are conflict-checked against each
// other.
type Copier struct {
	assetDir string
	paths    *build.OutputPathManager
	scope    *build.RenderScope
}

func NewCopier(assetDir string, paths *build.OutputPathManager, scope *build.RenderScope) *Copier {
	return &Copier{assetDir: assetDir, paths: paths, scope: scope}
}

// Run walks the asset tree and schedules a copy task per file. A missing
// asset directory is not an error; sites without assets are fine.
func (c *Copier) Run() error {
	err := c.copyDir(c.assetDir)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Asset directory not found, skipping", "dir", c.assetDir)
		return nil
	}
	return err
}

func (c *Copier) copyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, entry := range entries {
		name := entry.Name()
		if !utf8.ValidString(name) {
			slog.Warn("Skipping non-UTF-8 directory entry", "dir", dir)
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			g.Go(func() error { return c.copyDir(path) })
			continue
		}

		rel, err := filepath.Rel(c.assetDir, path)
		if err != nil {
			return err
		}
		outputRelPath := filepath.ToSlash(rel)
		c.scope.Spawn(func() {
			if err := c.copyFile(path, outputRelPath); err != nil {
				slog.Error("Copying asset failed", "path", path, "error", err)
				c.scope.Fail()
			}
		})
	}
	return g.Wait()
}

func (c *Copier) copyFile(sourcePath, outputRelPath string) error {
	outputPath, err := c.paths.Resolve(outputRelPath, sourcePath)
	if err != nil {
		return err
	}

	input, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return err
	}
	return output.Close()
}
