package content

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/jplatte/hinoki/internal/build"
	"github.com/jplatte/hinoki/internal/config"
	"github.com/jplatte/hinoki/internal/frontmatter"
	"github.com/jplatte/hinoki/internal/markdown"
)

// PageContext is everything a page render needs beyond the template name:
// the processed content, the page's own metadata, and its directory for
// navigation lookups.
type PageContext struct {
	Content string
	Page    *FileMetadata
	Dir     *DirectoryContext
	Extra   map[string]any
}

// PageRenderer renders a page through a template. Implemented by the
// template engine; the content pipeline only depends on this interface.
type PageRenderer interface {
	RenderPage(w io.Writer, templateName string, page *PageContext) error
}

// Processor walks the content tree, resolves per-file metadata and
// schedules render tasks onto the shared render scope.
type Processor struct {
	cfg           *config.Config
	includeDrafts bool
	renderer      PageRenderer
	paths         *build.OutputPathManager
	scope         *build.RenderScope
}

// NewProcessor wires a content processor. renderer, paths and scope may be
// nil only for metadata dumps.
func NewProcessor(
	cfg *config.Config,
	includeDrafts bool,
	renderer PageRenderer,
	paths *build.OutputPathManager,
	scope *build.RenderScope,
) *Processor {
	return &Processor{
		cfg:           cfg,
		includeDrafts: includeDrafts,
		renderer:      renderer,
		paths:         paths,
		scope:         scope,
	}
}

// Run processes the whole content tree, scheduling a render task for every
// resolved output file. Render tasks outlive Run; wait on the scope for
// them.
func (p *Processor) Run() error {
	_, err := p.processDir(p.cfg.ContentRoot(), true)
	return err
}

// DumpMetadata runs the identical pipeline with all render and write side
// effects suppressed and returns the resolved metadata tree.
func (p *Processor) DumpMetadata() (*DirectoryMetadata, error) {
	return p.processDir(p.cfg.ContentRoot(), false)
}

// fileResult is the metadata phase's outcome for one content file.
type fileResult struct {
	metas      []*FileMetadata
	bodyOffset int64
}

func (p *Processor) processDir(dir string, writeOutput bool) (*DirectoryMetadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var fileNames, subdirNames []string
	for _, entry := range entries {
		name := entry.Name()
		if !utf8.ValidString(name) {
			slog.Warn("Skipping non-UTF-8 directory entry", "dir", dir)
			continue
		}
		if entry.IsDir() {
			subdirNames = append(subdirNames, name)
		} else {
			fileNames = append(fileNames, name)
		}
	}

	// Subdirectories first, depth-first, so their completed metadata is
	// available to sibling files' repeat expressions and templates.
	subdirs := make(map[string]*DirectoryMetadata, len(subdirNames))
	var mu sync.Mutex
	var subdirGroup errgroup.Group
	for _, name := range subdirNames {
		name := name
		subdirGroup.Go(func() error {
			meta, err := p.processDir(filepath.Join(dir, name), writeOutput)
			if err != nil {
				return err
			}
			mu.Lock()
			subdirs[name] = meta
			mu.Unlock()
			return nil
		})
	}
	if err := subdirGroup.Wait(); err != nil {
		return nil, err
	}

	dirCx := NewDirectoryContext(subdirs)

	// Resolve file metadata in parallel. Results land in listing order so
	// directory indices come out stable regardless of completion order.
	results := make([]fileResult, len(fileNames))
	var fileGroup errgroup.Group
	for i, name := range fileNames {
		i, name := i, name
		fileGroup.Go(func() error {
			contentPath := filepath.Join(dir, name)
			res, err := p.processFile(contentPath, dirCx)
			if err != nil {
				return fmt.Errorf("processing %q: %w", contentPath, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := fileGroup.Wait(); err != nil {
		return nil, err
	}

	// Flatten in listing order and hand each output file to the render
	// scope. Render tasks may start before the file list below is
	// published; they wait on it if they need it.
	var files []*FileMetadata
	for i, name := range fileNames {
		contentPath := filepath.Join(dir, name)
		for _, meta := range results[i].metas {
			files = append(files, meta)
			if writeOutput {
				p.spawnRender(meta, contentPath, results[i].bodyOffset, dirCx)
			}
		}
	}
	dirCx.SetFiles(files)

	return dirCx.Metadata(), nil
}

// processFile resolves the metadata of every output file a content file
// yields: zero for excluded drafts or an empty repeat, one normally, and
// one per item for a repeat expression.
func (p *Processor) processFile(contentPath string, dirCx *DirectoryContext) (fileResult, error) {
	f, err := os.Open(contentPath)
	if err != nil {
		return fileResult{}, err
	}
	defer f.Close()

	doc, bodyOffset, err := frontmatter.Parse(f)
	if err != nil {
		return fileResult{}, err
	}
	fc, err := config.ParseFileConfig(doc)
	if err != nil {
		return fileResult{}, err
	}

	rel, err := filepath.Rel(p.cfg.ContentRoot(), contentPath)
	if err != nil {
		return fileResult{}, err
	}
	sourcePath := filepath.ToSlash(rel)

	// Glob defaults apply in reverse match order so that later, more
	// specific rules win over earlier ones.
	matched := p.cfg.Content.ForPath(sourcePath)
	for i := len(matched) - 1; i >= 0; i-- {
		fc.ApplyDefaults(matched[i])
	}

	if !p.includeDrafts && fc.Draft != nil && *fc.Draft {
		return fileResult{bodyOffset: bodyOffset}, nil
	}

	if fc.Repeat != nil {
		items, err := evaluateRepeat(*fc.Repeat, dirCx)
		if err != nil {
			return fileResult{}, err
		}
		metas := make([]*FileMetadata, len(items))
		for idx, item := range items {
			meta, err := fileMetadata(sourcePath, fc, &Repeat{Item: item, Index: idx, Total: len(items)})
			if err != nil {
				return fileResult{}, err
			}
			metas[idx] = meta
		}
		return fileResult{metas: metas, bodyOffset: bodyOffset}, nil
	}

	meta, err := fileMetadata(sourcePath, fc, nil)
	if err != nil {
		return fileResult{}, err
	}
	return fileResult{metas: []*FileMetadata{meta}, bodyOffset: bodyOffset}, nil
}

func (p *Processor) spawnRender(meta *FileMetadata, contentPath string, bodyOffset int64, dirCx *DirectoryContext) {
	p.scope.Spawn(func() {
		if err := p.renderFile(meta, contentPath, bodyOffset, dirCx); err != nil {
			slog.Error("Rendering failed", "path", contentPath, "error", err)
			p.scope.Fail()
		}
	})
}

// renderFile writes one output file. Files needing neither a template nor
// content processing are streamed straight through without buffering.
func (p *Processor) renderFile(meta *FileMetadata, contentPath string, bodyOffset int64, dirCx *DirectoryContext) error {
	outputPath, err := p.paths.Resolve(meta.Path, contentPath)
	if err != nil {
		return err
	}

	input, err := os.Open(contentPath)
	if err != nil {
		return err
	}
	defer input.Close()
	if _, err := input.Seek(bodyOffset, io.SeekStart); err != nil {
		return err
	}

	output, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	if meta.Template == "" && meta.Process == "" {
		if _, err := io.Copy(output, input); err != nil {
			output.Close()
			return err
		}
		return output.Close()
	}

	raw, err := io.ReadAll(input)
	if err != nil {
		output.Close()
		return err
	}
	content := string(raw)
	if meta.Process == config.ProcessMarkdownToHTML {
		content, err = markdown.ToHTML(content, meta.SyntaxHighlightTheme)
		if err != nil {
			output.Close()
			return err
		}
	}

	if meta.Template != "" {
		page := &PageContext{Content: content, Page: meta, Dir: dirCx, Extra: p.cfg.Extra}
		if err := p.renderer.RenderPage(output, meta.Template, page); err != nil {
			output.Close()
			return err
		}
	} else if _, err := io.WriteString(output, content); err != nil {
		output.Close()
		return err
	}

	return output.Close()
}
