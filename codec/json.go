package codec

import (
	"bytes"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/snapconfig/value"
)

// JSON parses JSON documents using github.com/goccy/go-json.
//
// Parsing walks the token stream instead of unmarshaling into maps so object
// key order survives into the value tree; duplicate keys collapse
// last-write-wins in the Object constructor.
type JSON struct{}

// Name returns "json".
func (JSON) Name() string { return "json" }

// Parse converts a JSON document into a value tree.
func (JSON) Parse(data []byte) (value.Value, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return value.Value{}, err
	}
	// Reject trailing content after the document.
	if _, err := dec.Token(); err != io.EOF {
		return value.Value{}, fmt.Errorf("json: unexpected trailing data")
	}
	return v, nil
}

func decodeJSONValue(dec *gojson.Decoder) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return value.Value{}, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *gojson.Decoder, tok gojson.Token) (value.Value, error) {
	switch t := tok.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case gojson.Number:
		if i, err := t.Int64(); err == nil {
			return value.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return value.Value{}, fmt.Errorf("json: bad number %q: %w", t.String(), err)
		}
		return value.Float(f), nil
	case string:
		return value.String(t), nil
	case gojson.Delim:
		switch t {
		case '[':
			var elems []value.Value
			for dec.More() {
				e, err := decodeJSONValue(dec)
				if err != nil {
					return value.Value{}, err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return value.Value{}, err
			}
			return value.Array(elems), nil
		case '{':
			var members []value.Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return value.Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return value.Value{}, fmt.Errorf("json: object key is not a string")
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return value.Value{}, err
				}
				members = append(members, value.Member{Key: key, Value: v})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return value.Value{}, err
			}
			return value.Object(members), nil
		default:
			return value.Value{}, fmt.Errorf("json: unexpected delimiter %q", t.String())
		}
	default:
		return value.Value{}, fmt.Errorf("json: unexpected token %v", tok)
	}
}
