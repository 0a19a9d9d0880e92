package archive

import (
	"archive/zip"
	"fmt"
	"iter"

	"squeal/internal/models"
)

// zipTimeLayout renders the member's modification time
const zipTimeLayout = "2006-01-02 15:04:05"

// ZipListing is a backend with one row per zip member
type ZipListing struct {
	name string
}

// NewZipListing creates a listing backend for a zip file
func NewZipListing(path string) *ZipListing {
	return &ZipListing{name: path}
}

// ZipSchema returns the columns of a zip listing
func ZipSchema() models.Schema {
	return models.Schema{
		models.TextColumn("filename"),
		models.TextColumn("datetime"),
		models.IntColumn("flagbits"),
		models.IntColumn("compress_size"),
		models.IntColumn("file_size"),
		models.IntColumn("attr"),
	}
}

func (z *ZipListing) Columns() models.Schema { return ZipSchema() }

func (z *ZipListing) Filename() string { return z.name }

func (z *ZipListing) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		zr, err := zip.OpenReader(z.name)
		if err != nil {
			yield(nil, fmt.Errorf("failed to open zip file: %w", err))
			return
		}
		defer zr.Close()

		for _, f := range zr.File {
			row := models.Row{
				"filename":      f.Name,
				"datetime":      f.Modified.Format(zipTimeLayout),
				"flagbits":      int64(f.Flags),
				"compress_size": int64(f.CompressedSize64),
				"file_size":     int64(f.UncompressedSize64),
				"attr":          int64(f.ExternalAttrs),
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
