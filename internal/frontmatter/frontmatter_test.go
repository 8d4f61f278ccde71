package frontmatter

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseAll(t *testing.T, input string) (doc []byte, body string, err error) {
	t.Helper()
	r := bytes.NewReader([]byte(input))
	doc, bodyOffset, err := Parse(r)
	if err != nil {
		return nil, "", err
	}
	_, seekErr := r.Seek(bodyOffset, io.SeekStart)
	require.NoError(t, seekErr)
	rest, readErr := io.ReadAll(r)
	require.NoError(t, readErr)
	return doc, string(rest), nil
}

func TestParse_NoFrontmatter_RewindsAndReturnsNothing(t *testing.T) {
	doc, body, err := parseAll(t, "# Title\n\nHello\n")
	require.NoError(t, err)
	require.Nil(t, doc)
	require.Equal(t, "# Title\n\nHello\n", body)
}

func TestParse_Frontmatter_SplitsDocumentAndBody(t *testing.T) {
	doc, body, err := parseAll(t, "+++\ntitle = \"Hi\"\n+++\n# Title\n")
	require.NoError(t, err)
	require.Equal(t, "title = \"Hi\"\n", string(doc))
	require.Equal(t, "# Title\n", body)
}

func TestParse_DelimiterWithTrailingWhitespace_IsAccepted(t *testing.T) {
	doc, body, err := parseAll(t, "+++ \t\ndraft = true\n+++\t\nbody\n")
	require.NoError(t, err)
	require.Equal(t, "draft = true\n", string(doc))
	require.Equal(t, "body\n", body)
}

func TestParse_CRLF_SplitsDocumentAndBody(t *testing.T) {
	doc, body, err := parseAll(t, "+++\r\ntitle = \"Hi\"\r\n+++\r\nbody\r\n")
	require.NoError(t, err)
	require.Equal(t, "title = \"Hi\"\r\n", string(doc))
	require.Equal(t, "body\r\n", body)
}

func TestParse_EmptyFrontmatterBlock_ReturnsEmptyDocument(t *testing.T) {
	doc, body, err := parseAll(t, "+++\n+++\nbody\n")
	require.NoError(t, err)
	require.Empty(t, doc)
	require.Equal(t, "body\n", body)
}

func TestParse_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, err := parseAll(t, "+++\ntitle = \"Hi\"\nbody\n")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_LongFirstLine_IsNotFrontmatter(t *testing.T) {
	// No newline within the probe window: treated as a plain asset.
	input := strings.Repeat("x", 4096)
	doc, body, err := parseAll(t, input)
	require.NoError(t, err)
	require.Nil(t, doc)
	require.Equal(t, input, body)
}

func TestParse_BinaryContent_IsNotFrontmatter(t *testing.T) {
	input := "\xff\xfe\x00binary\ncontent"
	doc, body, err := parseAll(t, input)
	require.NoError(t, err)
	require.Nil(t, doc)
	require.Equal(t, input, body)
}

func TestParse_DelimiterNotOnFirstLine_IsNotFrontmatter(t *testing.T) {
	input := "# Title\n+++\nnot frontmatter\n+++\n"
	doc, body, err := parseAll(t, input)
	require.NoError(t, err)
	require.Nil(t, doc)
	require.Equal(t, input, body)
}

func TestParse_ClosingDelimiterAtEOFWithoutNewline_IsAccepted(t *testing.T) {
	doc, body, err := parseAll(t, "+++\ndraft = true\n+++")
	require.NoError(t, err)
	require.Equal(t, "draft = true\n", string(doc))
	require.Empty(t, body)
}
