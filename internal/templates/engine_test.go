package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jplatte/hinoki/internal/content"
	"github.com/jplatte/hinoki/internal/foundation"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	return dir
}

func pageContext(meta *content.FileMetadata, dirCx *content.DirectoryContext) *content.PageContext {
	if dirCx == nil {
		dirCx = content.NewDirectoryContext(nil)
		dirCx.SetFiles([]*content.FileMetadata{meta})
	}
	return &content.PageContext{
		Content: "<p>body</p>",
		Page:    meta,
		Dir:     dirCx,
		Extra:   map[string]any{"author": "jp"},
	}
}

func render(t *testing.T, engine *Engine, name string, page *content.PageContext) string {
	t.Helper()
	var buf strings.Builder
	require.NoError(t, engine.RenderPage(&buf, name, page))
	return buf.String()
}

func TestRenderPage_ContentPageAndConfigExposed(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html": "<title>{{.page.title}}</title>{{.content}} by {{.config.extra.author}}",
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	meta := &content.FileMetadata{Slug: "hello", Title: foundation.Some("Hello"), Path: "hello.html"}
	out := render(t, engine, "page.html", pageContext(meta, nil))

	require.Equal(t, "<title>Hello</title><p>body</p> by jp", out)
}

func TestRenderPage_TemplatesCanIncludeEachOther(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html":          `{{template "partials/head.html" .}}{{.content}}`,
		"partials/head.html": "<head>{{.page.slug}}</head>",
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	meta := &content.FileMetadata{Slug: "hello", Path: "hello.html"}
	out := render(t, engine, "page.html", pageContext(meta, nil))

	require.Equal(t, "<head>hello</head><p>body</p>", out)
}

func TestRenderPage_UnknownTemplate_Errors(t *testing.T) {
	engine, err := Load(writeTemplates(t, nil))
	require.NoError(t, err)

	meta := &content.FileMetadata{Slug: "hello", Path: "hello.html"}
	err = engine.RenderPage(&strings.Builder{}, "missing.html", pageContext(meta, nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.html")
}

func TestRenderPage_UndefinedVariable_Errors(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html": "{{.page.nonsense}}",
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	meta := &content.FileMetadata{Slug: "hello", Path: "hello.html"}
	err = engine.RenderPage(&strings.Builder{}, "page.html", pageContext(meta, nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "nonsense")
}

func TestLoad_MissingDirectory_YieldsEmptyEngine(t *testing.T) {
	engine, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	meta := &content.FileMetadata{Slug: "hello", Path: "hello.html"}
	err = engine.RenderPage(&strings.Builder{}, "page.html", pageContext(meta, nil))
	require.Error(t, err)
}

func TestRenderPage_GetFileNavigatesByDate(t *testing.T) {
	older := &content.FileMetadata{Slug: "older", Path: "older.html", Date: foundation.Some(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))}
	newer := &content.FileMetadata{Slug: "newer", Path: "newer.html", Date: foundation.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}
	dirCx := content.NewDirectoryContext(nil)
	dirCx.SetFiles([]*content.FileMetadata{older, newer})

	dir := writeTemplates(t, map[string]string{
		"page.html": `{{with get_file "next_by" "date"}}next: {{.slug}}{{else}}no next{{end}}`,
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "next: newer", render(t, engine, "page.html", pageContext(older, dirCx)))
	require.Equal(t, "no next", render(t, engine, "page.html", pageContext(newer, dirCx)))
}

func TestRenderPage_GetFileRejectedInRepeat(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html": `{{get_file "next_by" "date"}}`,
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	meta := &content.FileMetadata{
		Slug:   "list",
		Path:   "list/0.html",
		Repeat: &content.Repeat{Item: "a", Index: 0, Total: 1},
	}
	err = engine.RenderPage(&strings.Builder{}, "page.html", pageContext(meta, nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "repeat")
}

func TestRenderPage_GetFileRejectsBadDirection(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html": `{{get_file "sideways_by" "date"}}`,
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	meta := &content.FileMetadata{Slug: "hello", Path: "hello.html"}
	err = engine.RenderPage(&strings.Builder{}, "page.html", pageContext(meta, nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "prev_by")
}

func TestRenderPage_GetFilesListsSubdirectory(t *testing.T) {
	postsCx := content.NewDirectoryContext(nil)
	post := &content.FileMetadata{Slug: "post", Path: "posts/post.html"}
	postsCx.SetFiles([]*content.FileMetadata{post})

	dirCx := content.NewDirectoryContext(map[string]*content.DirectoryMetadata{
		"posts": postsCx.Metadata(),
	})
	index := &content.FileMetadata{Slug: "index", Path: "index.html"}
	dirCx.SetFiles([]*content.FileMetadata{index})

	dir := writeTemplates(t, map[string]string{
		"page.html": `{{range get_files "posts"}}[{{.slug}}]{{end}}`,
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "[post]", render(t, engine, "page.html", pageContext(index, dirCx)))
}

func TestRenderPage_MarkdownFunction(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html": `{{markdown "# Hi"}}`,
	})
	engine, err := Load(dir)
	require.NoError(t, err)

	meta := &content.FileMetadata{Slug: "hello", Path: "hello.html"}
	out := render(t, engine, "page.html", pageContext(meta, nil))
	require.Contains(t, out, "<h1")
}

func TestLoadData_FormatsByExtension(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "data.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("name = \"toml\"\n"), 0o600))
	jsonPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "json"}`), 0o600))
	yamlPath := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: yaml\n"), 0o600))

	for _, tt := range []struct {
		path string
		want string
	}{
		{tomlPath, "toml"},
		{jsonPath, "json"},
		{yamlPath, "yaml"},
	} {
		value, err := loadData(tt.path)
		require.NoError(t, err, tt.path)
		m, ok := value.(map[string]any)
		require.True(t, ok, tt.path)
		require.Equal(t, tt.want, m["name"], tt.path)
	}

	_, err := loadData(filepath.Join(dir, "data.csv"))
	require.Error(t, err)
}
