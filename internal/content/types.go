package content

import (
	"encoding/json"
	"time"

	"github.com/jplatte/hinoki/internal/config"
	"github.com/jplatte/hinoki/internal/foundation"
)

// Repeat is the pagination state of one output page of a repeated file: the
// current item, its 0-based position, and the total number of items.
type Repeat struct {
	Item  any
	Index int
	Total int
}

// FileMetadata is the fully resolved, immutable description of one output
// file. One content file normally yields exactly one FileMetadata; a
// `repeat` frontmatter field yields one per item (possibly zero).
type FileMetadata struct {
	Draft bool
	Slug  string
	// Path is the output path relative to the site root, '/'-separated and
	// without the leading slash. A trailing slash is preserved and resolved
	// to index.html at write time.
	Path   string
	Title  foundation.Option[string]
	Date   foundation.Option[time.Time]
	Repeat *Repeat
	Extra  map[string]any

	// Render-only fields, shown by dump-metadata but not exposed to
	// templates as page.*.
	Template             string
	Process              config.ProcessKind
	SyntaxHighlightTheme string

	// dirIdx is this file's position in its directory's finalized file
	// list, assigned when the list is published.
	dirIdx int
}

// SitePath returns the output path in site-absolute form.
func (m *FileMetadata) SitePath() string {
	return "/" + m.Path
}

// TemplateData returns the page representation exposed to templates and to
// repeat expressions. Optional fields are present with nil values so that
// strict templates can still probe them with `if`.
func (m *FileMetadata) TemplateData() map[string]any {
	data := map[string]any{
		"draft":  m.Draft,
		"slug":   m.Slug,
		"path":   m.SitePath(),
		"title":  nil,
		"date":   nil,
		"repeat": nil,
		"extra":  m.Extra,
	}
	if title, ok := m.Title.Get(); ok {
		data["title"] = title
	}
	if date, ok := m.Date.Get(); ok {
		data["date"] = date
	}
	if m.Repeat != nil {
		data["repeat"] = map[string]any{
			"item":  m.Repeat.Item,
			"index": m.Repeat.Index,
			"total": m.Repeat.Total,
		}
	}
	return data
}

// MarshalJSON shapes dump-metadata output.
func (m *FileMetadata) MarshalJSON() ([]byte, error) {
	out := struct {
		Draft    bool           `json:"draft"`
		Slug     string         `json:"slug"`
		Path     string         `json:"path"`
		Title    *string        `json:"title"`
		Date     *time.Time     `json:"date"`
		Repeat   *Repeat        `json:"repeat,omitempty"`
		Extra    map[string]any `json:"extra,omitempty"`
		Template string         `json:"template,omitempty"`
		Process  string         `json:"process,omitempty"`
	}{
		Draft:    m.Draft,
		Slug:     m.Slug,
		Path:     m.SitePath(),
		Repeat:   m.Repeat,
		Extra:    m.Extra,
		Template: m.Template,
		Process:  string(m.Process),
	}
	if title, ok := m.Title.Get(); ok {
		out.Title = &title
	}
	if date, ok := m.Date.Get(); ok {
		out.Date = &date
	}
	return json.Marshal(out)
}

// DirectoryMetadata is the completed metadata of one content directory:
// its subdirectories (complete, built bottom-up) and its file list, which
// fills in lazily and becomes visible only once every file in the
// directory has been metadata-resolved.
type DirectoryMetadata struct {
	Subdirs map[string]*DirectoryMetadata
	Files   *foundation.Cell[[]*FileMetadata]
}

// MarshalJSON shapes dump-metadata output. An unset file list serializes
// as null; by the time a dump completes this cannot happen.
func (d *DirectoryMetadata) MarshalJSON() ([]byte, error) {
	files, _ := d.Files.Get()
	return json.Marshal(struct {
		Subdirs map[string]*DirectoryMetadata `json:"subdirs,omitempty"`
		Files   []*FileMetadata               `json:"files"`
	}{Subdirs: d.Subdirs, Files: files})
}
