package substitute

import (
	"strings"

	"movie-note-core/pkg/record"
)

// Inline replaces every {{field}} with the field's single line text form,
// lists included ("Action, Drama"). It is meant for short strings such as
// folder patterns and file name formats.
func Inline(text string, rec *record.Record) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	out := text
	if rec != nil {
		for _, f := range rec.Fields() {
			out = replaceScalar(out, f.Key, f.Value)
		}
	}
	return strings.TrimSpace(leftover.ReplaceAllLiteralString(out, ""))
}
