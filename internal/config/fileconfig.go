package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// ProcessKind is the closed set of content transformations that can be
// requested for a file via the `process` frontmatter field.
type ProcessKind string

// ProcessMarkdownToHTML converts the file's content from Markdown to HTML
// before templating.
const ProcessMarkdownToHTML ProcessKind = "markdown_to_html"

// UnmarshalTOML parses a process kind, rejecting unknown values.
func (k *ProcessKind) UnmarshalTOML(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("process must be a string, got %T", v)
	}
	switch ProcessKind(s) {
	case ProcessMarkdownToHTML:
		*k = ProcessKind(s)
		return nil
	default:
		return fmt.Errorf("unknown process kind %q", s)
	}
}

// DateValue is a frontmatter `date`: either a bare TOML datetime or a
// string, which may itself be a metadata template.
type DateValue struct {
	// Time is the parsed value when the field was a bare TOML datetime.
	Time time.Time
	// Expr is the raw value when the field was a string.
	Expr string
	// Bare reports which of the two representations is populated.
	Bare bool
}

// UnmarshalTOML accepts both representations of the date field.
func (d *DateValue) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case time.Time:
		d.Time = v
		d.Bare = true
		return nil
	case string:
		d.Expr = v
		return nil
	default:
		return fmt.Errorf("date must be a datetime or a string, got %T", v)
	}
}

// FileConfig is the frontmatter schema of a content file, and doubles as
// the value type of per-glob content defaults in the site config. Nil
// fields are "unset" and can be filled from less specific sources.
type FileConfig struct {
	// Draft excludes the page from the output unless the build includes
	// drafts.
	Draft *bool `toml:"draft"`

	// Template is the path of the page template, relative to the template
	// directory.
	Template *string `toml:"template"`

	// Process selects a content transformation, if any.
	Process *ProcessKind `toml:"process"`

	// SyntaxHighlightTheme is the highlighting theme for markdown code
	// blocks.
	SyntaxHighlightTheme *string `toml:"syntax_highlight_theme"`

	// Path is the rendered output path for this page. May contain metadata
	// template expressions and must expand to a value starting with `/`.
	Path *string `toml:"path"`

	// Title is the page title. May contain metadata template expressions.
	Title *string `toml:"title"`

	// Date is the page date.
	Date *DateValue `toml:"date"`

	// Slug replaces the source file basename. May contain metadata template
	// expressions.
	Slug *string `toml:"slug"`

	// Repeat renders this page once for each item of the value the
	// expression evaluates to.
	Repeat *string `toml:"repeat"`

	// Extra is arbitrary additional user-defined data.
	Extra map[string]any `toml:"extra"`
}

// ParseFileConfig decodes a frontmatter document, rejecting unknown fields.
func ParseFileConfig(doc []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	if len(doc) == 0 {
		return fc, nil
	}

	md, err := toml.Decode(string(doc), fc)
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing frontmatter: unknown field %q", undecoded[0].String())
	}
	return fc, nil
}

// ApplyDefaults fills any unset field from the given defaults. Nested
// tables under `extra` are merged key-by-key rather than replaced
// wholesale.
func (c *FileConfig) ApplyDefaults(defaults *FileConfig) {
	if c.Draft == nil {
		c.Draft = defaults.Draft
	}
	if c.Template == nil {
		c.Template = defaults.Template
	}
	if c.Process == nil {
		c.Process = defaults.Process
	}
	if c.SyntaxHighlightTheme == nil {
		c.SyntaxHighlightTheme = defaults.SyntaxHighlightTheme
	}
	if c.Path == nil {
		c.Path = defaults.Path
	}
	if c.Title == nil {
		c.Title = defaults.Title
	}
	if c.Date == nil {
		c.Date = defaults.Date
	}
	if c.Slug == nil {
		c.Slug = defaults.Slug
	}
	if c.Repeat == nil {
		c.Repeat = defaults.Repeat
	}
	c.Extra = mergeExtra(c.Extra, defaults.Extra)
}

// mergeExtra fills keys absent from target with values from source. When a
// key holds a table on both sides, the tables are merged recursively;
// non-table values in target always win.
func mergeExtra(target, source map[string]any) map[string]any {
	if len(source) == 0 {
		return target
	}
	if target == nil {
		target = make(map[string]any, len(source))
	}

	for key, srcVal := range source {
		existing, ok := target[key]
		if !ok {
			target[key] = srcVal
			continue
		}

		existingTable, tOK := existing.(map[string]any)
		srcTable, sOK := srcVal.(map[string]any)
		if tOK && sOK {
			target[key] = mergeExtra(existingTable, srcTable)
		}
	}
	return target
}
