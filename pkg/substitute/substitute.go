// Package substitute fills {{field}} placeholders in a template body from a
// record.
//
// Scalar fields replace every occurrence of their placeholder, matched
// case-insensitively. List fields expand each occurrence into one line per
// item, repeating whatever text precedes the placeholder on its line:
//
//	tags:
//	  - "{{genres}}"
//
// becomes
//
//	tags:
//	  - "Action"
//	  - "Drama"
//
// Placeholders that match no field are removed.
package substitute

import (
	"regexp"
	"strings"

	"movie-note-core/pkg/record"
)

var leftover = regexp.MustCompile(`(?i)\{\{\w+\}\}`)

// Substitute renders template against rec and trims the result. A blank
// template yields "".
func Substitute(template string, rec *record.Record) string {
	if strings.TrimSpace(template) == "" {
		return ""
	}

	out := template
	if rec != nil {
		for _, f := range rec.Fields() {
			if f.Value.IsList() {
				out = expandList(out, f.Key, f.Value.Items())
			} else {
				out = replaceScalar(out, f.Key, f.Value)
			}
		}
	}
	return strings.TrimSpace(leftover.ReplaceAllLiteralString(out, ""))
}

// expandList replaces each occurrence of {{key}} (or "{{key}}") one at a
// time. The prefix of an occurrence runs from the start of its line, or
// from the end of the previous expansion when that ended on the same line.
func expandList(s, key string, items []string) string {
	placeholder := "{{" + key + "}}"
	pos := 0
	for {
		i := strings.Index(s[pos:], placeholder)
		if i < 0 {
			return s
		}
		start := pos + i
		end := start + len(placeholder)

		lineStart := strings.LastIndexAny(s[:start], "\r\n") + 1
		if lineStart < pos {
			lineStart = pos
		}

		quoted := start > lineStart && s[start-1] == '"' && strings.HasPrefix(s[end:], `"`)
		if quoted {
			start--
			end++
		}

		list := renderList(s[lineStart:start], items, quoted)
		s = s[:lineStart] + list + s[end:]
		pos = lineStart + len(list)
	}
}

func renderList(prefix string, items []string, quoted bool) string {
	lines := make([]string, len(items))
	for i, item := range items {
		v := clean(item)
		if quoted {
			v = `"` + v + `"`
		}
		lines[i] = prefix + v
	}
	return strings.Join(lines, "\n")
}

func replaceScalar(s, key string, v record.Value) string {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta("{{"+key+"}}"))
	if err != nil {
		return s
	}
	return re.ReplaceAllLiteralString(s, clean(v.Text()))
}

// clean strips double quotes so values cannot break quoted frontmatter.
func clean(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
