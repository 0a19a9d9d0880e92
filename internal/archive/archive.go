// Package archive lists the members of archive files as rows: zip and tar
// archives (plain, gzip or bzip2 compressed) and rpm package files
package archive

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"squeal/internal/source"
)

// Format identifies an archive container
type Format int

const (
	Unknown Format = iota
	Zip
	Tar
	RPM
)

func (f Format) String() string {
	switch f {
	case Zip:
		return "zip"
	case Tar:
		return "tar"
	case RPM:
		return "rpm"
	default:
		return "unknown"
	}
}

var (
	zipMagic      = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	rpmLeadMagic  = []byte{0xed, 0xab, 0xee, 0xdb}
	gzipMagic     = []byte{0x1f, 0x8b}
	bzip2Magic    = []byte("BZh")
	ustarMagic    = []byte("ustar")
)

// ustarOffset is where the POSIX tar header carries its magic
const ustarOffset = 257

// Detect sniffs the leading bytes of the file for an archive signature.
// Compressed streams are unpacked far enough to look for a tar header.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, err
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, zipMagic), bytes.HasPrefix(head, zipEmptyMagic):
		return Zip, nil
	case bytes.HasPrefix(head, rpmLeadMagic):
		return RPM, nil
	case isTarHeader(head):
		return Tar, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Unknown, err
	}
	r, closer, compressed, err := decompress(f)
	if err != nil || !compressed {
		return Unknown, nil
	}
	defer closer.Close()

	inner := make([]byte, 512)
	n, _ = io.ReadFull(r, inner)
	if isTarHeader(inner[:n]) {
		return Tar, nil
	}
	return Unknown, nil
}

// Open returns the listing backend for a file of the given format
func Open(path string, format Format) (source.Backend, error) {
	switch format {
	case Zip:
		return NewZipListing(path), nil
	case Tar:
		return NewTarListing(path), nil
	case RPM:
		return NewRPMListing(path), nil
	default:
		return nil, fmt.Errorf("%s is not a supported archive", path)
	}
}

func isTarHeader(head []byte) bool {
	return len(head) >= ustarOffset+len(ustarMagic) &&
		bytes.Equal(head[ustarOffset:ustarOffset+len(ustarMagic)], ustarMagic)
}

// decompress wraps r in a gzip or bzip2 reader when its magic says so.
// compressed is false when r is returned unchanged.
func decompress(r io.Reader) (io.Reader, io.Closer, bool, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(3)

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, zr, true, nil
	case bytes.HasPrefix(head, bzip2Magic):
		return bzip2.NewReader(br), io.NopCloser(nil), true, nil
	default:
		return br, io.NopCloser(nil), false, nil
	}
}
