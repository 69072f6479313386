// Package codec contains the format adapters that turn configuration text
// into the canonical value tree.
//
// Each adapter is a named Codec; the compile pipeline selects one by explicit
// name or by file extension. The engine itself never inspects source text;
// everything downstream of Parse works on value.Value.
package codec

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hupe1980/snapconfig/value"
)

// Codec parses one configuration text format.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Name returns the stable, lowercase name of the format.
	Name() string
	// Parse converts source text into a value tree.
	Parse(data []byte) (value.Value, error)
}

// ByName returns a built-in codec by format name.
// Recognized names: "json", "yaml"/"yml", "toml", "ini"/"cfg", "env"/"dotenv".
func ByName(name string) (Codec, bool) {
	switch strings.ToLower(name) {
	case "json":
		return JSON{}, true
	case "yaml", "yml":
		return YAML{}, true
	case "toml":
		return TOML{}, true
	case "ini", "cfg":
		return INI{}, true
	case "env", "dotenv":
		return Dotenv{}, true
	default:
		return nil, false
	}
}

// ByPath selects a codec from the file name.
//
// Extensions: .json, .yaml/.yml, .toml, .ini/.cfg/.conf, and .env (including
// variants like .env.local). Anything unrecognized falls back to the dotenv
// codec, which accepts plain KEY=VALUE files of any name.
func ByPath(path string) Codec {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".json"):
		return JSON{}
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return YAML{}
	case strings.HasSuffix(name, ".toml"):
		return TOML{}
	case strings.HasSuffix(name, ".ini"), strings.HasSuffix(name, ".cfg"), strings.HasSuffix(name, ".conf"):
		return INI{}
	default:
		return Dotenv{}
	}
}

// parseScalar applies the loose scalar typing shared by the INI and dotenv
// adapters: bools, null spellings and numbers are recognized, everything
// else stays a string.
func parseScalar(s string) value.Value {
	switch {
	case s == "":
		return value.String("")
	case strings.EqualFold(s, "true"):
		return value.Bool(true)
	case strings.EqualFold(s, "false"):
		return value.Bool(false)
	case strings.EqualFold(s, "null"), strings.EqualFold(s, "none"), strings.EqualFold(s, "nil"):
		return value.Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}
	return value.String(s)
}
