// Package moment implements the calendar capability used by note templates:
// moment.js style format strings ("YYYY-MM-DD", "HH:mm", "dddd, Do MMMM")
// and unit arithmetic ("+1d", "-2h", "+1M").
//
// The long date formats (LT, LTS, L, LL, LLL, LLLL and their lower case
// short forms) and the locale week tokens (w, wo, ww, gg, gggg, e) follow
// moment's "en" locale: weeks start on Sunday and week 1 holds January 1st.
//
// Format strings are translated token by token into a strftime layout and
// rendered with github.com/ncruces/go-strftime. Tokens without a strftime
// equivalent are computed directly and emitted as escaped literals. Text in
// square brackets is copied verbatim:
//
//	moment.Format(t, "[Week] W, YYYY") // "Week 7, 2024"
package moment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"movie-note-core/pkg/errors"
)

// DefaultLayout is used when a date token carries no explicit format.
const DefaultLayout = "YYYY-MM-DD"

var tokenPattern = regexp.MustCompile(`\[[^\[\]]*\]|\[|LTS|LT|LLLL|LLL|LL|L|llll|lll|ll|l|gggg|gg|wo|ww|w|e|YYYY|YY|Y|Q|MMMM|MMM|MM|Mo|M|DDDD|DDD|Do|DD|D|dddd|ddd|dd|d|E|WW|W|GGGG|HH|H|hh|h|kk|k|mm|m|ss|s|SSS|A|a|ZZ|Z|X|x`)

var longDateFormats = map[string]string{
	"LT":   "h:mm A",
	"LTS":  "h:mm:ss A",
	"L":    "MM/DD/YYYY",
	"LL":   "MMMM D, YYYY",
	"LLL":  "MMMM D, YYYY h:mm A",
	"LLLL": "dddd, MMMM D, YYYY h:mm A",
	"l":    "M/D/YYYY",
	"ll":   "MMM D, YYYY",
	"lll":  "MMM D, YYYY h:mm A",
	"llll": "ddd, MMM D, YYYY h:mm A",
}

var directives = map[string]string{
	"YYYY": "%Y",
	"YY":   "%y",
	"MMMM": "%B",
	"MMM":  "%b",
	"MM":   "%m",
	"DDDD": "%j",
	"DD":   "%d",
	"dddd": "%A",
	"ddd":  "%a",
	"d":    "%w",
	"E":    "%u",
	"WW":   "%V",
	"GGGG": "%G",
	"HH":   "%H",
	"hh":   "%I",
	"mm":   "%M",
	"ss":   "%S",
	"A":    "%p",
	"ZZ":   "%z",
}

// Format renders t using a moment.js style layout. An unterminated "["
// escape is reported as an ErrFormat error.
func Format(t time.Time, layout string) (string, error) {
	pattern, err := toStrftime(t, layout)
	if err != nil {
		return "", err
	}
	return strftime.Format(pattern, t), nil
}

func toStrftime(t time.Time, layout string) (string, error) {
	var b strings.Builder
	last := 0
	for _, loc := range tokenPattern.FindAllStringIndex(layout, -1) {
		b.WriteString(escape(layout[last:loc[0]]))
		token := layout[loc[0]:loc[1]]
		last = loc[1]

		if token == "[" {
			return "", errors.Newf(errors.ErrFormat, "unterminated escape in format %q", layout).
				WithDetail("offset", loc[0])
		}
		if strings.HasPrefix(token, "[") {
			b.WriteString(escape(token[1 : len(token)-1]))
			continue
		}
		if long, ok := longDateFormats[token]; ok {
			expanded, err := toStrftime(t, long)
			if err != nil {
				return "", err
			}
			b.WriteString(expanded)
			continue
		}
		if d, ok := directives[token]; ok {
			b.WriteString(d)
			continue
		}
		b.WriteString(escape(computed(t, token)))
	}
	b.WriteString(escape(layout[last:]))
	return b.String(), nil
}

func computed(t time.Time, token string) string {
	switch token {
	case "Y":
		return strconv.Itoa(t.Year())
	case "Q":
		return strconv.Itoa((int(t.Month())-1)/3 + 1)
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "Mo":
		return ordinal(int(t.Month()))
	case "DDD":
		return strconv.Itoa(t.YearDay())
	case "D":
		return strconv.Itoa(t.Day())
	case "Do":
		return ordinal(t.Day())
	case "dd":
		return t.Weekday().String()[:2]
	case "W":
		_, week := t.ISOWeek()
		return strconv.Itoa(week)
	case "w", "ww", "wo":
		_, week := localeWeek(t)
		switch token {
		case "ww":
			return fmt.Sprintf("%02d", week)
		case "wo":
			return ordinal(week)
		}
		return strconv.Itoa(week)
	case "gggg":
		year, _ := localeWeek(t)
		return strconv.Itoa(year)
	case "gg":
		year, _ := localeWeek(t)
		return fmt.Sprintf("%02d", year%100)
	case "e":
		return strconv.Itoa(int(t.Weekday()))
	case "H":
		return strconv.Itoa(t.Hour())
	case "h":
		return strconv.Itoa(hour12(t))
	case "kk":
		return fmt.Sprintf("%02d", hour24(t))
	case "k":
		return strconv.Itoa(hour24(t))
	case "m":
		return strconv.Itoa(t.Minute())
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case "Z":
		return t.Format("-07:00")
	case "X":
		return strconv.FormatInt(t.Unix(), 10)
	case "x":
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
	return token
}

// localeWeek numbers weeks that start on Sunday; week 1 is the one holding
// January 1st, so late December days can fall into week 1 of the next year.
func localeWeek(t time.Time) (year, week int) {
	saturday := t.AddDate(0, 0, int(time.Saturday-t.Weekday()))
	return saturday.Year(), (saturday.YearDay()-1)/7 + 1
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func hour24(t time.Time) int {
	if t.Hour() == 0 {
		return 24
	}
	return t.Hour()
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}

func escape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
