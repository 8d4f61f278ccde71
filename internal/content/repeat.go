package content

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
)

// evaluateRepeat evaluates a frontmatter repeat expression against the
// file's directory context and returns the items to paginate over.
func evaluateRepeat(src string, dirCx *DirectoryContext) ([]any, error) {
	program, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compiling repeat expression: %w", err)
	}
	out, err := expr.Run(program, repeatEnv(dirCx))
	if err != nil {
		return nil, fmt.Errorf("evaluating repeat expression: %w", err)
	}
	items, err := toItems(out)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// repeatEnv is the variable set available to repeat expressions: the same
// lookup functions page templates get, minus anything that needs a
// current file.
func repeatEnv(dirCx *DirectoryContext) map[string]any {
	return map[string]any{
		"get_files": func(subdirName string) ([]map[string]any, error) {
			sub, ok := dirCx.Subdir(subdirName)
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
		"chunks": func(list any, size int) ([]any, error) {
			if size < 1 {
				return nil, fmt.Errorf("chunk size must be positive, got %d", size)
			}
			items, err := toItems(list)
			if err != nil {
				return nil, err
			}
			var chunks []any
			for len(items) > size {
				chunks = append(chunks, items[:size])
				items = items[size:]
			}
			if len(items) > 0 {
				chunks = append(chunks, items)
			}
			return chunks, nil
		},
	}
}

// toItems turns an expression result into a flat item list. Only slices
// and arrays are iterable; they keep their order.
func toItems(value any) ([]any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	default:
		return nil, fmt.Errorf("repeat value is not iterable")
	}
}
