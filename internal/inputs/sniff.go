package inputs

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"squeal/internal/source"
)

// Sniffer describes a file's content type, in the style of file(1)
type Sniffer interface {
	Sniff(path string) (string, error)
}

// FileCommand runs "file -b" on the path. When the program is missing or
// fails and a fallback is set, the fallback answers instead.
type FileCommand struct {
	Program  string
	Fallback Sniffer
}

// DefaultSniffer runs file(1) and falls back to in-process detection
func DefaultSniffer() Sniffer {
	return &FileCommand{Program: "file", Fallback: MimeSniffer{}}
}

func (f *FileCommand) Sniff(path string) (string, error) {
	out, err := f.run(path)
	if err == nil {
		return out, nil
	}
	if f.Fallback != nil {
		return f.Fallback.Sniff(path)
	}
	return "", source.Unavailable("file", err)
}

func (f *FileCommand) run(path string) (string, error) {
	program, err := exec.LookPath(f.Program)
	if err != nil {
		return "", err
	}
	var stderr bytes.Buffer
	cmd := exec.Command(program, "-b", path)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s -b %s: %w: %s", f.Program, path, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// MimeSniffer detects content types in process from magic numbers. It
// answers with MIME types such as "text/plain; charset=utf-8".
type MimeSniffer struct{}

func (MimeSniffer) Sniff(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", source.Unavailable("mimetype", err)
	}
	return mt.String(), nil
}

// isCapture reports whether a description names a packet capture file
func isCapture(desc string) bool {
	lower := strings.ToLower(desc)
	return strings.HasPrefix(lower, "tcpdump capture file") ||
		strings.HasPrefix(lower, "pcap") ||
		strings.Contains(lower, "vnd.tcpdump.pcap")
}

// isTextual reports whether a description names text content. Empty files
// count as text so that they produce an empty table rather than no input.
func isTextual(desc string) bool {
	lower := strings.ToLower(desc)
	return strings.Contains(lower, "text") ||
		strings.Contains(lower, "json") ||
		strings.Contains(lower, "xml") ||
		lower == "empty"
}
