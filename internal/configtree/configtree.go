// Package configtree turns structured configuration files into tables.
//
// A lens parses a file into a list of items, each with named attributes.
// The resulting backend has one row per item: a synthesized "node" column
// naming the item, followed by one column per attribute name in the order
// the attributes were first seen. Repeated attributes are numbered, so the
// third "alias" of an item becomes column "alias_2".
//
// The whole file is parsed up front so that the columns are known before
// any row is read.
package configtree

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"squeal/internal/models"
	"squeal/internal/source"
)

// NodeColumn is the synthesized column naming each item
const NodeColumn = "node"

// Attr is one named value of an item
type Attr struct {
	Name  string
	Value string
}

// Node is one item of a configuration file
type Node struct {
	Name  string
	Attrs []Attr
}

// Lens knows how to parse one family of configuration files
type Lens interface {
	// Name identifies the lens in diagnostics
	Name() string
	// Match reports whether the lens handles the file. rel is the path
	// relative to the configuration directory.
	Match(rel string) bool
	Parse(r io.Reader) ([]Node, error)
}

// Lenses are consulted in order; the first match wins
var Lenses = []Lens{
	passwdLens,
	groupLens,
	hostsLens,
	fstabLens,
	yamlLens{},
	iniLens{},
	shellVarsLens{},
}

// Lookup returns the lens for a file, or nil when none applies
func Lookup(rel string) Lens {
	for _, lens := range Lenses {
		if lens.Match(rel) {
			return lens
		}
	}
	return nil
}

// Load parses the file with the lens and returns a pre-materialized backend
func Load(path string, lens Lens) (*source.Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	nodes, err := lens.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s lens failed to parse %s: %w", lens.Name(), path, err)
	}
	return Flatten(path, nodes), nil
}

// Flatten converts parsed items into an in-memory backend
func Flatten(name string, nodes []Node) *source.Memory {
	schema := models.Schema{models.TextColumn(NodeColumn)}
	known := map[string]bool{NodeColumn: true}
	rows := make([]models.Row, 0, len(nodes))

	for _, node := range nodes {
		row := models.Row{NodeColumn: node.Name}
		counts := make(map[string]int)

		for _, attr := range node.Attrs {
			col := columnName(attr.Name, counts, row)
			if !known[col] {
				known[col] = true
				schema = append(schema, models.TextColumn(col))
			}
			row[col] = attr.Value
		}
		rows = append(rows, row)
	}

	return source.NewMemory(name, schema, rows...)
}

// columnName sanitizes an attribute name and numbers repeats: the first
// "opt" of a node stays "opt", later ones become "opt_1", "opt_2" and so on,
// skipping any name the row already holds
func columnName(attr string, counts map[string]int, row models.Row) string {
	name := models.SanitizeName(attr)
	if name == NodeColumn {
		name += "_"
	}
	if counts[name] == 0 {
		counts[name] = 1
		if _, taken := row[name]; !taken {
			return name
		}
	}
	for {
		n := counts[name]
		counts[name] = n + 1
		col := name + "_" + strconv.Itoa(n)
		if _, taken := row[col]; !taken {
			return col
		}
	}
}

// globLens matches files by glob patterns tried against both the relative
// path and the base name
type globLens []string

func (g globLens) Match(rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range g {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}

// stripComment removes a trailing "#" comment and surrounding whitespace
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
