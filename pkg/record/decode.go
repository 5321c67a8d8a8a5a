package record

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"movie-note-core/pkg/errors"
)

// Decode parses a YAML or JSON document whose top level is a mapping into a
// Record, keeping the document's key order. Sequences must hold scalars only.
func Decode(data []byte) (*Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrDecode, "parsing record document")
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return New(), nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return New(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrDecode, "record document must be a mapping")
	}

	rec := New()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		v, err := valueFromNode(key, root.Content[i+1])
		if err != nil {
			return nil, err
		}
		rec.Set(key, v)
	}
	return rec, nil
}

func valueFromNode(key string, n *yaml.Node) (Value, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind == yaml.AliasNode && item.Alias != nil {
				item = item.Alias
			}
			if item.Kind != yaml.ScalarNode {
				return Value{}, errors.Newf(errors.ErrNestedValue, "field %q: list items must be scalars", key).
					WithDetail("line", item.Line)
			}
			if item.ShortTag() == "!!null" {
				items = append(items, "")
				continue
			}
			items = append(items, item.Value)
		}
		return List(items...), nil
	default:
		return Value{}, errors.Newf(errors.ErrNestedValue, "field %q: nested records are not supported", key).
			WithDetail("line", n.Line)
	}
}

func scalarValue(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, errors.Wrap(err, errors.ErrDecode, "decoding boolean")
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, errors.Wrap(err, errors.ErrDecode, "decoding number")
		}
		return Number(f), nil
	default:
		return String(n.Value), nil
	}
}

// MarshalJSON writes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value.Interface())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*r = *decoded
	return nil
}
