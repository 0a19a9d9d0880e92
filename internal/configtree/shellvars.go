package configtree

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// shellVarsLens handles files of shell variable assignments such as
// /etc/sysconfig/network or /etc/os-release. Each variable is a node with
// a single "value" attribute.
type shellVarsLens struct{}

func (shellVarsLens) Name() string { return "shellvars" }

func (shellVarsLens) Match(rel string) bool {
	return globLens{"sysconfig/*", "default/*", "os-release", "*.env"}.Match(rel)
}

func (shellVarsLens) Parse(r io.Reader) ([]Node, error) {
	var nodes []Node
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		nodes = append(nodes, Node{
			Name:  strings.TrimSpace(key),
			Attrs: []Attr{{Name: "value", Value: unquote(strings.TrimSpace(value))}},
		})
	}
	return nodes, scanner.Err()
}

// unquote strips one level of shell quoting
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	if uq, err := strconv.Unquote(s); err == nil && strings.HasPrefix(s, `"`) {
		return uq
	}
	return s
}
