package codec

import (
	"strings"

	"github.com/hupe1980/snapconfig/value"
)

// Dotenv parses .env style KEY=VALUE files.
//
// Supported syntax: blank lines, #-comments, an optional "export " prefix,
// and single- or double-quoted values (quotes stripped, no interpolation).
// Unquoted values go through the shared scalar coercion; quoted values stay
// strings. Lines without '=' are ignored.
type Dotenv struct{}

// Name returns "dotenv".
func (Dotenv) Name() string { return "dotenv" }

// Parse converts dotenv text into a flat object of coerced scalars.
// Parse never fails; malformed lines are skipped.
func (Dotenv) Parse(data []byte) (value.Value, error) {
	var members []value.Member
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, raw, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		raw = strings.TrimSpace(raw)

		if quoted, ok := unquote(raw); ok {
			members = append(members, value.Member{Key: key, Value: value.String(quoted)})
			continue
		}
		members = append(members, value.Member{Key: key, Value: parseScalar(raw)})
	}
	return value.Object(members), nil
}

// unquote strips one matching pair of surrounding single or double quotes.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1], true
	}
	return "", false
}
