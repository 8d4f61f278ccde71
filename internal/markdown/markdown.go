package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ToHTML converts Markdown content to HTML.
//
// theme selects the syntax highlighting theme for fenced code blocks; an
// empty theme disables highlighting and emits plain <pre><code> blocks.
// Raw HTML in the source passes through unchanged, as expected for site
// content.
func ToHTML(content string, theme string) (string, error) {
	opts := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	}
	if theme != "" {
		opts = append(opts, goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle(theme),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		))
	}

	var buf bytes.Buffer
	if err := goldmark.New(opts...).Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}
