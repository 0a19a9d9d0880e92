package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"iter"
	"os"

	"squeal/internal/models"
)

// TarListing is a backend with one row per tar member. Gzip and bzip2
// compression are detected from the stream itself, not the file name.
type TarListing struct {
	name string
}

// NewTarListing creates a listing backend for a tar file
func NewTarListing(path string) *TarListing {
	return &TarListing{name: path}
}

// TarSchema returns the columns of a tar listing
func TarSchema() models.Schema {
	return models.Schema{
		models.TextColumn("name"),
		models.IntColumn("size"),
		models.IntColumn("mtime"),
		models.IntColumn("mode"),
		models.TextColumn("type"),
		models.TextColumn("linkname"),
		models.IntColumn("uid"),
		models.IntColumn("gid"),
		models.TextColumn("uname"),
		models.TextColumn("gname"),
	}
}

func (t *TarListing) Columns() models.Schema { return TarSchema() }

func (t *TarListing) Filename() string { return t.name }

func (t *TarListing) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		f, err := os.Open(t.name)
		if err != nil {
			yield(nil, fmt.Errorf("failed to open tar file: %w", err))
			return
		}
		defer f.Close()

		r, closer, _, err := decompress(f)
		if err != nil {
			yield(nil, err)
			return
		}
		defer closer.Close()

		tr := tar.NewReader(r)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("failed to read tar header in %s: %w", t.name, err))
				return
			}

			row := models.Row{
				"name":     hdr.Name,
				"size":     hdr.Size,
				"mtime":    hdr.ModTime.Unix(),
				"mode":     hdr.Mode,
				"type":     string(hdr.Typeflag),
				"linkname": hdr.Linkname,
				"uid":      int64(hdr.Uid),
				"gid":      int64(hdr.Gid),
				"uname":    hdr.Uname,
				"gname":    hdr.Gname,
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
