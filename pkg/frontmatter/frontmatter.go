// Package frontmatter builds the metadata header written when a note is
// rendered without a template.
package frontmatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/record"
)

// SnakeCase replaces every ASCII upper case letter with an underscore and
// its lower case form: posterPath -> poster_path.
func SnakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('_')
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Synthesize returns a copy of rec with snake_case keys. Values are not
// touched. When two keys collide the later value wins and keeps the
// position of the first.
func Synthesize(rec *record.Record) *record.Record {
	out := record.New()
	if rec == nil {
		return out
	}
	for _, f := range rec.Fields() {
		out.Set(SnakeCase(f.Key), f.Value)
	}
	return out
}

// Marshal serializes rec as a YAML mapping in field order, without the
// trailing newline.
func Marshal(rec *record.Record) (string, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if rec != nil {
		for _, f := range rec.Fields() {
			var val yaml.Node
			if err := val.Encode(f.Value.Interface()); err != nil {
				return "", errors.Wrapf(err, errors.ErrEncode, "encoding field %q", f.Key)
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}
			doc.Content = append(doc.Content, key, &val)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", errors.Wrap(err, errors.ErrEncode, "encoding frontmatter")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrEncode, "encoding frontmatter")
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Block renders the complete header for rec, including the --- fences.
func Block(rec *record.Record) (string, error) {
	body, err := Marshal(Synthesize(rec))
	if err != nil {
		return "", err
	}
	return "---\n" + body + "\n---\n", nil
}
