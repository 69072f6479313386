package codec

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/snapconfig/value"
)

// YAML parses YAML documents using gopkg.in/yaml.v3.
//
// The adapter walks yaml.Node trees rather than decoding into maps so mapping
// key order is preserved. Only the first document of a multi-document stream
// is used; an empty input parses to null.
type YAML struct{}

// Name returns "yaml".
func (YAML) Name() string { return "yaml" }

// Parse converts a YAML document into a value tree.
func (YAML) Parse(data []byte) (value.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return value.Value{}, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return value.Null(), nil
	}
	w := yamlWalker{active: make(map[*yaml.Node]bool)}
	return w.node(root.Content[0])
}

// yamlWalker expands a yaml.Node tree into values.
//
// active marks the nodes currently being expanded: yaml.v3 accepts
// self-referential aliases ("a: &x [*x]") and hands back a cyclic node
// graph without error, so unguarded recursion would never terminate.
type yamlWalker struct {
	active map[*yaml.Node]bool
}

func (w *yamlWalker) node(n *yaml.Node) (value.Value, error) {
	if w.active[n] {
		return value.Value{}, fmt.Errorf("yaml: alias cycle through anchor %q at line %d", n.Anchor, n.Line)
	}
	w.active[n] = true
	defer delete(w.active, n)

	switch n.Kind {
	case yaml.ScalarNode:
		return yamlScalarValue(n)

	case yaml.SequenceNode:
		elems := make([]value.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := w.node(c)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, v)
		}
		return value.Array(elems), nil

	case yaml.MappingNode:
		members := make([]value.Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			key, err := w.key(keyNode)
			if err != nil {
				return value.Value{}, err
			}
			v, err := w.node(valNode)
			if err != nil {
				return value.Value{}, err
			}
			members = append(members, value.Member{Key: key, Value: v})
		}
		return value.Object(members), nil

	case yaml.AliasNode:
		return w.node(n.Alias)

	default:
		return value.Value{}, fmt.Errorf("yaml: unsupported node kind %d at line %d", n.Kind, n.Line)
	}
}

// key stringifies a mapping key; non-string scalar keys keep their literal
// spelling, complex keys are rejected.
func (w *yamlWalker) key(n *yaml.Node) (string, error) {
	if n.Kind == yaml.AliasNode {
		if w.active[n] {
			return "", fmt.Errorf("yaml: alias cycle through anchor %q at line %d", n.Anchor, n.Line)
		}
		w.active[n] = true
		defer delete(w.active, n)
		return w.key(n.Alias)
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("yaml: unsupported mapping key at line %d", n.Line)
	}
	return n.Value, nil
}

func yamlScalarValue(n *yaml.Node) (value.Value, error) {
	switch n.Tag {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.Value{}, err
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// Large unsigned values overflow int64; keep them as floats.
			var u uint64
			if err2 := n.Decode(&u); err2 == nil {
				return value.Float(float64(u)), nil
			}
			return value.Value{}, err
		}
		return value.Int(i), nil
	case "!!float":
		switch n.Value {
		case ".nan", ".NaN", ".NAN":
			return value.Float(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			var ff float64
			if err2 := n.Decode(&ff); err2 != nil {
				return value.Value{}, err2
			}
			return value.Float(ff), nil
		}
		return value.Float(f), nil
	default:
		// Strings, timestamps and anything exotic stay textual.
		return value.String(n.Value), nil
	}
}
