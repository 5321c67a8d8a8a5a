// Package datetoken resolves {{date}} and {{time}} placeholders in note
// templates.
//
// Supported forms (case-insensitive):
//
//	{{date}}              current date, YYYY-MM-DD
//	{{time}}              same default layout as {{date}}
//	{{date +1d}}          one day ahead; units y q M w d h m s
//	{{date -2h:HH:mm}}    two hours back, custom layout
//	{{ date :DD/MM/YYYY }}
//
// The older {{DATE+N}} (N days) and {{DATE:layout+N}} forms are accepted as
// well when the generic form does not already cover the token.
package datetoken

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"movie-note-core/pkg/moment"
)

// Calendar is the clock and formatting capability the evaluator relies on.
type Calendar interface {
	Now() time.Time
	Format(t time.Time, layout string) (string, error)
	Add(t time.Time, amount int, unit moment.Unit) time.Time
}

var (
	genericToken       = regexp.MustCompile(`(?i)\{\{\s*(date|time)\s*(([+-]\d+)([yqmwdhs]))?\s*(:[^{}\n]+?)?\}\}`)
	legacyOffsetToken  = regexp.MustCompile(`\{\{DATE(\+-?[0-9]+)?\}\}`)
	legacyLayoutToken  = regexp.MustCompile(`\{\{DATE:([^}\n\r+]*)(\+-?[0-9]+)?\}\}`)
	signedIntegerRegex = regexp.MustCompile(`^[+-]?[0-9]+$`)
)

// Evaluator replaces date tokens using a Calendar. It holds no other state
// and is safe for concurrent use when the Calendar is.
type Evaluator struct {
	cal Calendar
}

func New(cal Calendar) *Evaluator {
	if cal == nil {
		cal = moment.NewCalendar()
	}
	return &Evaluator{cal: cal}
}

// Evaluate returns template with every date token replaced. Malformed
// offsets count as zero; layout errors from the Calendar are returned.
func (e *Evaluator) Evaluate(template string) (string, error) {
	out, err := replaceEach(template, genericToken, e.generic)
	if err != nil {
		return "", err
	}
	out, err = replaceEach(out, legacyOffsetToken, func(m []string) (string, error) {
		return e.resolve(parseOffset(m[1]), moment.Days, "")
	})
	if err != nil {
		return "", err
	}
	return replaceEach(out, legacyLayoutToken, func(m []string) (string, error) {
		return e.resolve(parseOffset(m[2]), moment.Days, m[1])
	})
}

func (e *Evaluator) generic(m []string) (string, error) {
	amount := 0
	unit := moment.Days
	if m[2] != "" {
		amount = parseOffset(m[3])
		if u, ok := moment.ParseUnit(m[4]); ok {
			unit = u
		} else {
			amount = 0
		}
	}
	layout := ""
	if m[5] != "" {
		layout = strings.TrimSpace(m[5][1:])
	}
	return e.resolve(amount, unit, layout)
}

func (e *Evaluator) resolve(amount int, unit moment.Unit, layout string) (string, error) {
	at := e.cal.Now()
	if amount != 0 {
		at = e.cal.Add(at, amount, unit)
	}
	if layout == "" {
		layout = moment.DefaultLayout
	}
	return e.cal.Format(at, layout)
}

// replaceEach replaces matches one at a time, left to right, resuming the
// search after each inserted replacement.
func replaceEach(s string, re *regexp.Regexp, fn func([]string) (string, error)) (string, error) {
	pos := 0
	for pos <= len(s) {
		loc := re.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = s[pos+loc[2*i] : pos+loc[2*i+1]]
			}
		}
		replacement, err := fn(groups)
		if err != nil {
			return "", err
		}
		start, end := pos+loc[0], pos+loc[1]
		s = s[:start] + replacement + s[end:]
		pos = start + len(replacement)
	}
	return s, nil
}

// parseOffset accepts an optional sign followed by digits, with "+-N"
// meaning -N. Anything else, including overflow, yields 0.
func parseOffset(raw string) int {
	s := strings.TrimSpace(strings.Replace(raw, "+", "", 1))
	if s == "" || !signedIntegerRegex.MatchString(s) {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
