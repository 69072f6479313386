package codec

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/snapconfig/value"
)

// TOML parses TOML documents using github.com/BurntSushi/toml.
//
// The library decodes into maps, so document order is reconstructed from
// toml.MetaData.Keys, which lists every defined key in order of appearance.
type TOML struct{}

// Name returns "toml".
func (TOML) Name() string { return "toml" }

// Parse converts a TOML document into a value tree.
func (TOML) Parse(data []byte) (value.Value, error) {
	var raw map[string]any
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return value.Value{}, err
	}

	// First-appearance rank of every dotted key path.
	rank := make(map[string]int, len(meta.Keys()))
	for i, k := range meta.Keys() {
		p := strings.Join(k, "\x00")
		if _, ok := rank[p]; !ok {
			rank[p] = i
		}
	}
	return tomlValue(raw, nil, rank)
}

func tomlValue(v any, path []string, rank map[string]int) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case int64:
		return value.Int(t), nil
	case float64:
		return value.Float(t), nil
	case string:
		return value.String(t), nil
	case time.Time:
		return value.String(t.Format(time.RFC3339Nano)), nil
	case []map[string]any: // array of tables
		elems := make([]value.Value, 0, len(t))
		for _, e := range t {
			ev, err := tomlValue(e, path, rank)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, ev)
		}
		return value.Array(elems), nil
	case []any:
		elems := make([]value.Value, 0, len(t))
		for _, e := range t {
			ev, err := tomlValue(e, path, rank)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, ev)
		}
		return value.Array(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sortByRank(keys, path, rank)
		members := make([]value.Member, 0, len(keys))
		for _, k := range keys {
			mv, err := tomlValue(t[k], append(path, k), rank)
			if err != nil {
				return value.Value{}, err
			}
			members = append(members, value.Member{Key: k, Value: mv})
		}
		return value.Object(members), nil
	default:
		// TOML local date/time types implement fmt.Stringer.
		if s, ok := t.(fmt.Stringer); ok {
			return value.String(s.String()), nil
		}
		return value.Value{}, fmt.Errorf("toml: unsupported value type %T", v)
	}
}

// sortByRank orders keys by the first appearance of path+key in the
// document; keys the metadata doesn't know about sink to the end in
// lexicographic order.
func sortByRank(keys []string, path []string, rank map[string]int) {
	prefix := strings.Join(path, "\x00")
	if prefix != "" {
		prefix += "\x00"
	}
	keyRank := func(k string) int {
		if r, ok := rank[prefix+k]; ok {
			return r
		}
		return math.MaxInt
	}
	slices.SortStableFunc(keys, func(a, b string) int {
		if c := cmp.Compare(keyRank(a), keyRank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}
