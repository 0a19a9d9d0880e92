package configtree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// globalSection names the node holding keys that precede any section header
const globalSection = "global"

// iniLens handles "[section]" files with "key = value" entries, such as yum
// repository definitions
type iniLens struct{}

func (iniLens) Name() string { return "ini" }

func (iniLens) Match(rel string) bool {
	return globLens{"*.ini", "*.repo", "yum.conf", "dnf/dnf.conf"}.Match(rel)
}

func (iniLens) Parse(r io.Reader) ([]Node, error) {
	var nodes []Node
	var current *Node

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			end := strings.IndexByte(line, ']')
			if end < 0 {
				return nil, fmt.Errorf("line %d: unterminated section header", lineNo)
			}
			nodes = append(nodes, Node{Name: strings.TrimSpace(line[1:end])})
			current = &nodes[len(nodes)-1]
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			key, value, ok = strings.Cut(line, ":")
		}
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value", lineNo)
		}

		if current == nil {
			nodes = append(nodes, Node{Name: globalSection})
			current = &nodes[len(nodes)-1]
		}
		current.Attrs = append(current.Attrs, Attr{Name: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return nodes, scanner.Err()
}
