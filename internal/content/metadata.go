package content

import (
	"fmt"
	"path"
	"strings"
	"text/template"
	"time"

	"github.com/jplatte/hinoki/internal/config"
	"github.com/jplatte/hinoki/internal/foundation"
)

// metadataContext is the variable set available inside `{...}` metadata
// templates. Fields fill in as frontmatter resolution progresses, so later
// fields can reference earlier ones.
type metadataContext struct {
	// sourcePath is '/'-separated and relative to the content root.
	sourcePath string
	slug       foundation.Option[string]
	title      foundation.Option[string]
	date       foundation.Option[time.Time]
	repeat     *Repeat
}

func (c *metadataContext) sourceDir() string {
	dir := path.Dir(c.sourcePath)
	if dir == "." {
		return ""
	}
	return "/" + dir
}

func (c *metadataContext) sourceFileStem() string {
	base := path.Base(c.sourcePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

func (c *metadataContext) requireDate(what string) (time.Time, error) {
	date, ok := c.date.Get()
	if !ok {
		return time.Time{}, fmt.Errorf("%s is not available in this metadata field", what)
	}
	return date, nil
}

// funcs exposes the context as zero-argument template functions so that an
// unset variable produces an error instead of an empty string.
func (c *metadataContext) funcs() template.FuncMap {
	return template.FuncMap{
		"source_path": func() string { return "/" + c.sourcePath },
		"source_dir":  c.sourceDir,
		"source_file_stem": func() string {
			return c.sourceFileStem()
		},
		"slug": func() (string, error) {
			slug, ok := c.slug.Get()
			if !ok {
				return "", fmt.Errorf("slug is not available in this metadata field")
			}
			return slug, nil
		},
		"title": func() (string, error) {
			title, ok := c.title.Get()
			if !ok {
				return "", fmt.Errorf("title is not available in this metadata field")
			}
			return title, nil
		},
		"date": func() (string, error) {
			date, err := c.requireDate("date")
			if err != nil {
				return "", err
			}
			return date.Format(time.RFC3339), nil
		},
		"year": func() (string, error) {
			date, err := c.requireDate("year")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%04d", date.Year()), nil
		},
		"month": func() (string, error) {
			date, err := c.requireDate("month")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%02d", int(date.Month())), nil
		},
		"day": func() (string, error) {
			date, err := c.requireDate("day")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%02d", date.Day()), nil
		},
		"repeat": func() (map[string]any, error) {
			if c.repeat == nil {
				return nil, fmt.Errorf("repeat is not available outside of repeated files")
			}
			return map[string]any{
				"item":  c.repeat.Item,
				"index": c.repeat.Index,
				"total": c.repeat.Total,
			}, nil
		},
		"index": func() (int, error) {
			if c.repeat == nil {
				return 0, fmt.Errorf("index is not available outside of repeated files")
			}
			return c.repeat.Index, nil
		},
		"total": func() (int, error) {
			if c.repeat == nil {
				return 0, fmt.Errorf("total is not available outside of repeated files")
			}
			return c.repeat.Total, nil
		},
		"date_prefix":       datePrefix,
		"strip_date_prefix": stripDatePrefix,
	}
}

// expandMetadata expands one frontmatter string value. Values without a
// `{` are returned verbatim; anything else goes through text/template with
// `{` `}` delimiters, which cannot collide with page template syntax.
func expandMetadata(value string, cx *metadataContext) (string, error) {
	if !strings.Contains(value, "{") {
		return value, nil
	}
	tpl, err := template.New("metadata").Delims("{", "}").Funcs(cx.funcs()).Parse(value)
	if err != nil {
		return "", fmt.Errorf("compiling metadata template %q: %w", value, err)
	}
	var buf strings.Builder
	if err := tpl.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("expanding metadata template %q: %w", value, err)
	}
	return buf.String(), nil
}

// splitDatePrefix splits a leading date prefix of the shape N-N-N- off a
// file name, where each N is one or more digits. Only the shape is
// checked, not calendar validity.
func splitDatePrefix(value string) (prefix, rest string, ok bool) {
	digitSeen := false
	dashes := 0
	for i := 0; i < len(value); i++ {
		switch b := value[i]; {
		case b >= '0' && b <= '9':
			digitSeen = true
		case b == '-' && digitSeen:
			dashes++
			if dashes == 3 {
				return value[:i], value[i+1:], true
			}
			digitSeen = false
		default:
			return "", "", false
		}
	}
	return "", "", false
}

func datePrefix(value string) (string, error) {
	prefix, _, ok := splitDatePrefix(value)
	if !ok {
		return "", fmt.Errorf("%q has no date prefix", value)
	}
	return prefix, nil
}

func stripDatePrefix(value string) string {
	if _, rest, ok := splitDatePrefix(value); ok {
		return rest
	}
	return value
}

// dateFormats are tried in order when a frontmatter date arrives as a
// string, from most to least specific.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// fileMetadata resolves one output file's metadata from its merged
// frontmatter. Fields resolve in dependency order: slug, then title, then
// date, then path, each expansion seeing the fields before it.
func fileMetadata(sourcePath string, fc *config.FileConfig, rep *Repeat) (*FileMetadata, error) {
	cx := &metadataContext{sourcePath: sourcePath, repeat: rep}

	slug := cx.sourceFileStem()
	if fc.Slug != nil {
		expanded, err := expandMetadata(*fc.Slug, cx)
		if err != nil {
			return nil, fmt.Errorf("resolving slug: %w", err)
		}
		slug = expanded
	}
	cx.slug = foundation.Some(slug)

	var title foundation.Option[string]
	if fc.Title != nil {
		expanded, err := expandMetadata(*fc.Title, cx)
		if err != nil {
			return nil, fmt.Errorf("resolving title: %w", err)
		}
		title = foundation.Some(expanded)
		cx.title = title
	}

	var date foundation.Option[time.Time]
	if fc.Date != nil {
		if fc.Date.Bare {
			date = foundation.Some(fc.Date.Time)
		} else {
			expanded, err := expandMetadata(fc.Date.Expr, cx)
			if err != nil {
				return nil, fmt.Errorf("resolving date: %w", err)
			}
			if expanded != "" {
				parsed, err := parseDate(expanded)
				if err != nil {
					return nil, fmt.Errorf("resolving date: %w", err)
				}
				date = foundation.Some(parsed)
			}
		}
		cx.date = date
	}

	outputPath := sourcePath
	if fc.Path != nil {
		expanded, err := expandMetadata(*fc.Path, cx)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		if !strings.HasPrefix(expanded, "/") {
			return nil, fmt.Errorf("resolving path: %q does not begin with '/'", expanded)
		}
		outputPath = expanded[1:]
	}

	meta := &FileMetadata{
		Slug:   slug,
		Path:   outputPath,
		Title:  title,
		Date:   date,
		Repeat: rep,
		Extra:  fc.Extra,
	}
	if fc.Draft != nil {
		meta.Draft = *fc.Draft
	}
	if fc.Template != nil {
		meta.Template = *fc.Template
	}
	if fc.Process != nil {
		meta.Process = *fc.Process
	}
	if fc.SyntaxHighlightTheme != nil {
		meta.SyntaxHighlightTheme = *fc.SyntaxHighlightTheme
	}
	return meta, nil
}
