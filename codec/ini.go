package codec

import (
	"fmt"
	"strings"

	"github.com/go-ini/ini"

	"github.com/hupe1980/snapconfig/value"
)

// INI parses INI files using github.com/go-ini/ini.
//
// Every section becomes an object of coerced scalars; keys outside any
// section land in a "default" section object. Section and key order follow
// the file.
type INI struct{}

// Name returns "ini".
func (INI) Name() string { return "ini" }

// Parse converts an INI document into a value tree.
func (INI) Parse(data []byte) (value.Value, error) {
	f, err := ini.Load(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("ini: %w", err)
	}

	var sections []value.Member
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			if len(sec.Keys()) == 0 {
				continue
			}
			name = "default"
		}
		members := make([]value.Member, 0, len(sec.Keys()))
		for _, key := range sec.Keys() {
			members = append(members, value.Member{
				Key:   key.Name(),
				Value: parseScalar(strings.TrimSpace(key.Value())),
			})
		}
		sections = append(sections, value.Member{Key: name, Value: value.Object(members)})
	}
	return value.Object(sections), nil
}
