package templates

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/jplatte/hinoki/internal/content"
)

// Engine holds the parsed page template set. Load it once per build;
// RenderPage is safe for concurrent use.
type Engine struct {
	// mu serializes Clone calls; cloning the set is not safe to do from
	// several renders at once.
	mu        sync.Mutex
	templates *template.Template
}

// Load parses every file under the template directory into one template
// set, named by their '/'-separated paths relative to dir so templates can
// include each other. A missing directory is not an error; the engine then
// just fails any page that references a template.
func Load(dir string) (*Engine, error) {
	root := template.New("").Option("missingkey=error").Funcs(stubFuncs())

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if _, err := root.New(name).Parse(string(data)); err != nil {
			return fmt.Errorf("parsing template %q: %w", name, err)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Template directory not found", "dir", dir)
		return &Engine{templates: root}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Engine{templates: root}, nil
}

// RenderPage renders one page through the named template. The template
// set is cloned per render so page-specific functions can be bound without
// racing other renders.
func (e *Engine) RenderPage(w io.Writer, templateName string, page *content.PageContext) error {
	e.mu.Lock()
	tpl := e.templates.Lookup(templateName)
	var clone *template.Template
	var err error
	if tpl != nil {
		clone, err = e.templates.Clone()
	}
	e.mu.Unlock()
	if tpl == nil {
		return fmt.Errorf("template %q not found", templateName)
	}
	if err != nil {
		return err
	}
	// Clone starts from a fresh option set, so strict mode has to be
	// re-applied here or undefined variables would render as "<no value>".
	clone.Funcs(pageFuncs(page)).Option("missingkey=error")

	data := map[string]any{
		"content": page.Content,
		"page":    page.Page.TemplateData(),
		"config":  map[string]any{"extra": page.Extra},
	}
	if err := clone.ExecuteTemplate(w, templateName, data); err != nil {
		return fmt.Errorf("rendering template %q: %w", templateName, err)
	}
	return nil
}

// stubFuncs registers the page function names so templates parse at load
// time. The real implementations are bound per render; these only fire if
// a template is somehow executed outside a page render.
func stubFuncs() template.FuncMap {
	fail := func(name string) func(...any) (any, error) {
		return func(...any) (any, error) {
			return nil, fmt.Errorf("%s is only available while rendering a page", name)
		}
	}
	return template.FuncMap{
		"get_file":  fail("get_file"),
		"get_files": fail("get_files"),
		"markdown":  fail("markdown"),
		"load_data": fail("load_data"),
	}
}
