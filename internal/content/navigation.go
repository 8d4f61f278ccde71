package content

import (
	"fmt"
	"sync"

	"github.com/jplatte/hinoki/internal/foundation"
)

// Ordering selects the sort order for neighbor lookups. The template
// boundary accepts a string and parses it with ParseOrdering, so adding an
// ordering cannot silently accept typos.
type Ordering int

const (
	// OrderingDate orders files by publication date, dateless files first
	// in their original relative order.
	OrderingDate Ordering = iota
)

// ParseOrdering maps an ordering name from a template to an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "date":
		return OrderingDate, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q", s)
	}
}

// Direction of a neighbor lookup relative to the current file.
type Direction int

const (
	DirectionPrev Direction = -1
	DirectionNext Direction = 1
)

// DirectoryContext gives files access to their own directory during
// rendering. Subdirectory metadata is complete at construction time; the
// directory's own file list arrives later through SetFiles, and readers
// block on it. Sort indices over the file list are computed at most once
// and shared by every file in the directory.
type DirectoryContext struct {
	subdirs map[string]*DirectoryMetadata
	files   foundation.Cell[[]*FileMetadata]

	dateOnce sync.Once
	dateIdx  foundation.OrderIndex
}

// NewDirectoryContext builds a context over completed subdirectory
// metadata. The file list is unset until SetFiles.
func NewDirectoryContext(subdirs map[string]*DirectoryMetadata) *DirectoryContext {
	return &DirectoryContext{subdirs: subdirs}
}

// SetFiles finalizes the directory's file list and assigns each file its
// directory index. Must be called exactly once, after every file in the
// directory has been metadata-resolved.
func (d *DirectoryContext) SetFiles(files []*FileMetadata) {
	for i, f := range files {
		f.dirIdx = i
	}
	d.files.Set(files)
}

// Metadata returns the directory's metadata view, sharing the file cell.
func (d *DirectoryContext) Metadata() *DirectoryMetadata {
	return &DirectoryMetadata{Subdirs: d.subdirs, Files: &d.files}
}

// Subdir looks up a direct subdirectory's metadata by name.
func (d *DirectoryContext) Subdir(name string) (*DirectoryMetadata, bool) {
	sub, ok := d.subdirs[name]
	return sub, ok
}

// Files returns the finalized file list, waiting for it if the producer
// has not published it yet.
func (d *DirectoryContext) Files() []*FileMetadata {
	return d.files.Wait()
}

// Neighbor returns the file one step away from current under the given
// ordering, or nil at the boundary. Blocks until the directory's file list
// is finalized; current must be a file of this directory.
func (d *DirectoryContext) Neighbor(current *FileMetadata, dir Direction, ord Ordering) *FileMetadata {
	// Wait on the file list before touching the index; index assignment
	// happens before the list is published.
	files := d.Files()
	idx := d.orderIndex(ord, files)
	adjacent := idx.OriginalToOrdered[current.dirIdx] + int(dir)
	if adjacent < 0 || adjacent >= len(files) {
		return nil
	}
	return files[idx.OrderedToOriginal[adjacent]]
}

func (d *DirectoryContext) orderIndex(ord Ordering, files []*FileMetadata) foundation.OrderIndex {
	switch ord {
	case OrderingDate:
		d.dateOnce.Do(func() {
			d.dateIdx = foundation.NewOrderIndex(len(files), func(i, j int) bool {
				return dateLess(files[i], files[j])
			})
		})
		return d.dateIdx
	default:
		panic(fmt.Sprintf("content: invalid ordering %d", ord))
	}
}

// dateLess sorts files without a date before files with one; the stable
// sort keeps dateless files in their original relative order.
func dateLess(a, b *FileMetadata) bool {
	aDate, aOk := a.Date.Get()
	bDate, bOk := b.Date.Get()
	if !aOk || !bOk {
		return !aOk && bOk
	}
	return aDate.Before(bDate)
}
