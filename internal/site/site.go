package site

import (
	"encoding/json"
	"errors"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jplatte/hinoki/internal/assets"
	"github.com/jplatte/hinoki/internal/build"
	"github.com/jplatte/hinoki/internal/config"
	"github.com/jplatte/hinoki/internal/content"
	"github.com/jplatte/hinoki/internal/templates"
)

// ErrBuildFailed reports that at least one file failed to render or copy.
// The individual failures have already been logged by the task that hit
// them.
var ErrBuildFailed = errors.New("site build failed")

// Build runs a full site build: content processing and asset copying run
// concurrently and share one output path manager, so destination conflicts
// are detected across both.
func Build(cfg *config.Config, includeDrafts bool) error {
	engine, err := templates.Load(cfg.TemplateRoot())
	if err != nil {
		return err
	}

	paths := build.NewOutputPathManager(cfg.OutputRoot())
	scope := build.NewRenderScope(runtime.NumCPU())

	var g errgroup.Group
	g.Go(func() error {
		return content.NewProcessor(cfg, includeDrafts, engine, paths, scope).Run()
	})
	g.Go(func() error {
		return assets.NewCopier(cfg.AssetRoot(), paths, scope).Run()
	})
	walkErr := g.Wait()

	// Tasks already handed to the scope run to completion even when the
	// walk itself failed.
	scope.Wait()

	if walkErr != nil {
		return walkErr
	}
	if scope.Failed() {
		return ErrBuildFailed
	}
	return nil
}

// DumpMetadata resolves the content tree's metadata without writing any
// output and dumps it as indented JSON.
func DumpMetadata(cfg *config.Config, includeDrafts bool, w io.Writer) error {
	tree, err := content.NewProcessor(cfg, includeDrafts, nil, nil, nil).DumpMetadata()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tree)
}
