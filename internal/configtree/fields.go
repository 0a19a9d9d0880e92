package configtree

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// fieldsLens handles line-per-record files with positional fields, such as
// /etc/passwd or /etc/hosts
type fieldsLens struct {
	globLens
	name string
	// sep splits a line into fields; empty means runs of whitespace
	sep string
	// keyed files name each node after the first field; otherwise nodes
	// are numbered from 1
	keyed  bool
	fields []string
	// rest names the attribute repeated for fields beyond the declared ones
	rest string
	// lists maps a field to the separator splitting it into repeated attributes
	lists map[string]string
}

var (
	passwdLens = &fieldsLens{
		globLens: globLens{"passwd"},
		name:     "passwd",
		sep:      ":",
		keyed:    true,
		fields:   []string{"password", "uid", "gid", "name", "home", "shell"},
	}
	groupLens = &fieldsLens{
		globLens: globLens{"group"},
		name:     "group",
		sep:      ":",
		keyed:    true,
		fields:   []string{"password", "gid", "user"},
		lists:    map[string]string{"user": ","},
	}
	hostsLens = &fieldsLens{
		globLens: globLens{"hosts"},
		name:     "hosts",
		fields:   []string{"ipaddr", "canonical"},
		rest:     "alias",
	}
	fstabLens = &fieldsLens{
		globLens: globLens{"fstab"},
		name:     "fstab",
		fields:   []string{"spec", "file", "vfstype", "opt", "dump", "passno"},
		lists:    map[string]string{"opt": ","},
	}
)

func (l *fieldsLens) Name() string { return l.name }

func (l *fieldsLens) Parse(r io.Reader) ([]Node, error) {
	var nodes []Node
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		var values []string
		if l.sep == "" {
			values = strings.Fields(line)
		} else {
			values = strings.Split(line, l.sep)
		}

		node := Node{Name: strconv.Itoa(len(nodes) + 1)}
		if l.keyed {
			node.Name, values = values[0], values[1:]
		}

		for i, value := range values {
			name := l.rest
			if i < len(l.fields) {
				name = l.fields[i]
			}
			if name == "" {
				break
			}
			if sep, ok := l.lists[name]; ok {
				for _, item := range strings.Split(value, sep) {
					if item != "" {
						node.Attrs = append(node.Attrs, Attr{Name: name, Value: item})
					}
				}
				continue
			}
			node.Attrs = append(node.Attrs, Attr{Name: name, Value: value})
		}
		nodes = append(nodes, node)
	}
	return nodes, scanner.Err()
}
