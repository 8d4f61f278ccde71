package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jplatte/hinoki/internal/foundation"
)

func datedFile(slug string, date string) *FileMetadata {
	meta := &FileMetadata{Slug: slug, Path: slug + ".html"}
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		meta.Date = foundation.Some(parsed)
	}
	return meta
}

func finalized(files ...*FileMetadata) *DirectoryContext {
	dirCx := NewDirectoryContext(nil)
	dirCx.SetFiles(files)
	return dirCx
}

func TestParseOrdering(t *testing.T) {
	ord, err := ParseOrdering("date")
	require.NoError(t, err)
	require.Equal(t, OrderingDate, ord)

	_, err = ParseOrdering("dat")
	require.Error(t, err)
}

func TestNeighbor_DateOrdering(t *testing.T) {
	// Listing order deliberately differs from date order.
	second := datedFile("second", "2023-06-01")
	first := datedFile("first", "2023-01-01")
	third := datedFile("third", "2024-01-01")
	dirCx := finalized(second, first, third)

	next := dirCx.Neighbor(first, DirectionNext, OrderingDate)
	require.NotNil(t, next)
	require.Equal(t, "second", next.Slug)

	require.Nil(t, dirCx.Neighbor(first, DirectionPrev, OrderingDate))
	require.Nil(t, dirCx.Neighbor(third, DirectionNext, OrderingDate))

	prev := dirCx.Neighbor(third, DirectionPrev, OrderingDate)
	require.NotNil(t, prev)
	require.Equal(t, "second", prev.Slug)
}

func TestNeighbor_DatelessFilesSortFirst(t *testing.T) {
	dated := datedFile("dated", "2023-01-01")
	datelessA := datedFile("a", "")
	datelessB := datedFile("b", "")
	dirCx := finalized(dated, datelessA, datelessB)

	// Dateless files keep their listing order ahead of dated ones.
	next := dirCx.Neighbor(datelessA, DirectionNext, OrderingDate)
	require.NotNil(t, next)
	require.Equal(t, "b", next.Slug)

	require.Nil(t, dirCx.Neighbor(datelessA, DirectionPrev, OrderingDate))

	prev := dirCx.Neighbor(dated, DirectionPrev, OrderingDate)
	require.NotNil(t, prev)
	require.Equal(t, "b", prev.Slug)
}

func TestFiles_WaitsForProducer(t *testing.T) {
	dirCx := NewDirectoryContext(nil)
	go func() {
		time.Sleep(20 * time.Millisecond)
		dirCx.SetFiles([]*FileMetadata{{Slug: "late"}})
	}()

	files := dirCx.Files()
	require.Len(t, files, 1)
	require.Equal(t, "late", files[0].Slug)
}

func TestSubdir_Lookup(t *testing.T) {
	blog := finalized(datedFile("post", "")).Metadata()
	dirCx := NewDirectoryContext(map[string]*DirectoryMetadata{"blog": blog})

	sub, ok := dirCx.Subdir("blog")
	require.True(t, ok)
	require.Same(t, blog, sub)

	_, ok = dirCx.Subdir("missing")
	require.False(t, ok)
}
