package datetoken

import (
	"testing"
	"time"

	"movie-note-core/pkg/errors"
	"movie-note-core/pkg/moment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.February, 3, 14, 5, 9, 0, time.UTC)

func TestEvaluate(t *testing.T) {
	ev := New(moment.FixedCalendar(now))

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"plain date", "{{date}}", "2024-02-03"},
		{"time defaults to date layout", "{{time}}", "2024-02-03"},
		{"upper case", "{{DATE}}", "2024-02-03"},
		{"inner spaces", "{{ date }}", "2024-02-03"},
		{"plus one day", "{{date +1d}}", "2024-02-04"},
		{"minus two hours with layout", "{{date -2h:HH:mm}}", "12:05"},
		{"layout is trimmed", "{{ date :DD/MM/YYYY }}", "03/02/2024"},
		{"months vs minutes", "{{date +1M:YYYY-MM-DD HH:mm}} {{date +1m:HH:mm}}", "2024-03-03 14:05 14:06"},
		{"quarter", "{{date +1q}}", "2024-05-03"},
		{"week", "{{date -1w}}", "2024-01-27"},
		{"year", "{{date +1y:YYYY}}", "2025"},
		{"seconds", "{{time +51s:HH:mm:ss}}", "14:06:00"},
		{"time with layout", "{{time:HH:mm}}", "14:05"},
		{"multiple tokens", "created {{date}} at {{time:HH:mm}}", "created 2024-02-03 at 14:05"},
		{"overflowing offset counts as zero", "{{date +99999999999999999999d}}", "2024-02-03"},
		{"hour offset beyond a duration", "{{date +3000000h:YYYY}}", "2366"},
		{"legacy day offset", "{{DATE+3}}", "2024-02-06"},
		{"legacy requires a plus sign", "{{DATE-3}}", "{{DATE-3}}"},
		{"legacy plus minus offset", "{{DATE+-2}}", "2024-02-01"},
		{"legacy empty layout", "{{DATE:}}", "2024-02-03"},
		{"no tokens", "# {{title}}\n", "# {{title}}\n"},
		{"non numeric offset is left alone", "{{date +xd}}", "{{date +xd}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_AdjacentTokens(t *testing.T) {
	ev := New(moment.FixedCalendar(now))

	got, err := ev.Evaluate("{{date:[date]}}{{date}}")
	require.NoError(t, err)
	assert.Equal(t, "date2024-02-03", got)
}

func TestEvaluate_FormatErrorPropagates(t *testing.T) {
	ev := New(moment.FixedCalendar(now))

	_, err := ev.Evaluate("start {{date:[YYYY}} end")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFormat))
}

type recordingCalendar struct {
	*moment.Calendar
	amounts []int
	units   []moment.Unit
	layouts []string
}

func (c *recordingCalendar) Add(t time.Time, amount int, unit moment.Unit) time.Time {
	c.amounts = append(c.amounts, amount)
	c.units = append(c.units, unit)
	return c.Calendar.Add(t, amount, unit)
}

func (c *recordingCalendar) Format(t time.Time, layout string) (string, error) {
	c.layouts = append(c.layouts, layout)
	return c.Calendar.Format(t, layout)
}

func TestEvaluate_CalendarCalls(t *testing.T) {
	cal := &recordingCalendar{Calendar: moment.FixedCalendar(now)}
	ev := New(cal)

	_, err := ev.Evaluate("{{date}} {{date -2h:HH:mm}} {{DATE+4}}")
	require.NoError(t, err)

	assert.Equal(t, []int{-2, 4}, cal.amounts)
	assert.Equal(t, []moment.Unit{moment.Hours, moment.Days}, cal.units)
	assert.Equal(t, []string{moment.DefaultLayout, "HH:mm", moment.DefaultLayout}, cal.layouts)
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"+1", 1},
		{"-2", -2},
		{"+-3", -3},
		{"12", 12},
		{"+x", 0},
		{"1.5", 0},
		{"+99999999999999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOffset(tt.in))
		})
	}
}
