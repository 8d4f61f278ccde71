package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jplatte/hinoki/internal/content"
	"github.com/jplatte/hinoki/internal/markdown"
)

// pageFuncs binds the template functions that need the current page: the
// navigation lookups, the markdown filter (which inherits the page's
// syntax highlighting theme) and data loading.
func pageFuncs(page *content.PageContext) template.FuncMap {
	return template.FuncMap{
		"get_file": func(direction, orderBy string) (map[string]any, error) {
			if page.Page.Repeat != nil {
				return nil, fmt.Errorf("get_file can't be used in repeat")
			}
			var dir content.Direction
			switch direction {
			case "prev_by":
				dir = content.DirectionPrev
			case "next_by":
				dir = content.DirectionNext
			default:
				return nil, fmt.Errorf("get_file direction must be \"prev_by\" or \"next_by\", got %q", direction)
			}
			ord, err := content.ParseOrdering(orderBy)
			if err != nil {
				return nil, err
			}
			neighbor := page.Dir.Neighbor(page.Page, dir, ord)
			if neighbor == nil {
				return nil, nil
			}
			return neighbor.TemplateData(), nil
		},
		"get_files": func(subdirName string) ([]map[string]any, error) {
			sub, ok := page.Dir.Subdir(subdirName)
			if !ok {
				return nil, fmt.Errorf("no subdirectory %q", subdirName)
			}
			files, ok := sub.Files.Get()
			if !ok {
				return nil, fmt.Errorf("subdirectory %q has no finalized file list", subdirName)
			}
			pages := make([]map[string]any, len(files))
			for i, f := range files {
				pages[i] = f.TemplateData()
			}
			return pages, nil
		},
		"markdown": func(src string) (string, error) {
			return markdown.ToHTML(src, page.Page.SyntaxHighlightTheme)
		},
		"load_data": loadData,
	}
}

// loadData reads a structured data file and exposes it to the template.
// The format follows the file extension.
func loadData(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var value any
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		err = toml.Unmarshal(data, &value)
	case ".json":
		err = json.Unmarshal(data, &value)
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &value)
	case "":
		return nil, fmt.Errorf("load_data: %q has no file extension", path)
	default:
		return nil, fmt.Errorf("load_data: unsupported file extension %q, only .toml, .json and .yaml / .yml files can be loaded", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load_data: parsing %q: %w", path, err)
	}
	return value, nil
}
