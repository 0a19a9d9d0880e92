package configtree

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// yamlLens handles YAML and JSON documents. Each top-level key (or list
// element) is a node; nested values are flattened into attributes whose
// names join the key path with underscores.
type yamlLens struct{}

func (yamlLens) Name() string { return "yaml" }

func (yamlLens) Match(rel string) bool {
	return globLens{"*.yaml", "*.yml", "*.json"}.Match(rel)
}

func (yamlLens) Parse(r io.Reader) ([]Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	root := resolve(&doc)
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolve(root.Content[0])
	}

	var nodes []Node
	switch root.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			nodes = append(nodes, Node{
				Name:  root.Content[i].Value,
				Attrs: flattenYAML("", root.Content[i+1], nil),
			})
		}
	case yaml.SequenceNode:
		for i, item := range root.Content {
			nodes = append(nodes, Node{
				Name:  strconv.Itoa(i),
				Attrs: flattenYAML("", item, nil),
			})
		}
	default:
		return nil, fmt.Errorf("top level is a scalar, not a mapping or list")
	}
	return nodes, nil
}

// flattenYAML appends the scalars below n as attributes named by their path
func flattenYAML(prefix string, n *yaml.Node, attrs []Attr) []Attr {
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			attrs = flattenYAML(join(prefix, n.Content[i].Value), n.Content[i+1], attrs)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			attrs = flattenYAML(join(prefix, strconv.Itoa(i)), item, attrs)
		}
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return attrs
		}
		name := prefix
		if name == "" {
			name = "value"
		}
		attrs = append(attrs, Attr{Name: name, Value: n.Value})
	}
	return attrs
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}
