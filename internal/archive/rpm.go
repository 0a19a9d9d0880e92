package archive

import (
	"fmt"
	"iter"

	"github.com/cavaliergopher/rpm"

	"squeal/internal/models"
)

// RPMListing is a backend with one row per file in an rpm package's payload
// manifest. Only the header is read; the payload is never unpacked.
type RPMListing struct {
	name string
}

// NewRPMListing creates a listing backend for an rpm package file
func NewRPMListing(path string) *RPMListing {
	return &RPMListing{name: path}
}

// RPMSchema returns the columns of an rpm file listing. "group" is an SQL
// keyword, hence the trailing underscore.
func RPMSchema() models.Schema {
	return models.Schema{
		models.TextColumn("name"),
		models.IntColumn("size"),
		models.IntColumn("mode"),
		models.IntColumn("mtime"),
		models.IntColumn("flags"),
		models.TextColumn("user"),
		models.TextColumn("group_"),
		models.TextColumn("digest"),
		models.TextColumn("linkname"),
	}
}

func (r *RPMListing) Columns() models.Schema { return RPMSchema() }

func (r *RPMListing) Filename() string { return r.name }

func (r *RPMListing) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		pkg, err := rpm.Open(r.name)
		if err != nil {
			yield(nil, fmt.Errorf("failed to read rpm header of %s: %w", r.name, err))
			return
		}

		for _, f := range pkg.Files() {
			row := models.Row{
				"name":     f.Name(),
				"size":     f.Size(),
				"mode":     int64(f.Mode()),
				"mtime":    f.ModTime().Unix(),
				"flags":    int64(f.Flags()),
				"user":     f.Owner(),
				"group_":   f.Group(),
				"digest":   f.Digest(),
				"linkname": f.Linkname(),
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
