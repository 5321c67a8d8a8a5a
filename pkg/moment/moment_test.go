package moment

import (
	"testing"
	"time"

	"movie-note-core/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2024, time.February, 3, 14, 5, 9, 0, time.UTC)

func TestFormat(t *testing.T) {
	tests := []struct {
		layout string
		want   string
	}{
		{DefaultLayout, "2024-02-03"},
		{"HH:mm", "14:05"},
		{"HH:mm:ss", "14:05:09"},
		{"h:mm A", "2:05 PM"},
		{"hh a", "02 pm"},
		{"D/M/YY", "3/2/24"},
		{"Do MMMM YYYY", "3rd February 2024"},
		{"ddd, MMM DD", "Sat, Feb 03"},
		{"dddd", "Saturday"},
		{"[Q]Q YYYY", "Q1 2024"},
		{"DDDD", "034"},
		{"YYYY%MM", "2024%02"},
		{"[Today is] dddd", "Today is Saturday"},
		{"X", "1706969109"},
		{"L", "02/03/2024"},
		{"LL", "February 3, 2024"},
		{"LLL", "February 3, 2024 2:05 PM"},
		{"LLLL", "Saturday, February 3, 2024 2:05 PM"},
		{"LT", "2:05 PM"},
		{"LTS", "2:05:09 PM"},
		{"l", "2/3/2024"},
		{"ll", "Feb 3, 2024"},
		{"[Week] w, gggg", "Week 5, 2024"},
		{"wo ww gg e", "5th 05 24 6"},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			got, err := Format(ref, tt.layout)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_UnterminatedEscape(t *testing.T) {
	_, err := Format(ref, "[YYYY")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFormat))
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 31: "31st"}
	for n, want := range cases {
		assert.Equal(t, want, ordinal(n))
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in     string
		want   Unit
		wantOK bool
	}{
		{"y", Years, true},
		{"Q", Quarters, true},
		{"q", Quarters, true},
		{"M", Months, true},
		{"m", Minutes, true},
		{"w", Weeks, true},
		{"d", Days, true},
		{"H", Hours, true},
		{"s", Seconds, true},
		{"x", Days, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseUnit(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		amount int
		unit   Unit
		want   time.Time
	}{
		{"plus one day", ref, 1, Days, time.Date(2024, 2, 4, 14, 5, 9, 0, time.UTC)},
		{"minus two hours", ref, -2, Hours, time.Date(2024, 2, 3, 12, 5, 9, 0, time.UTC)},
		{"plus one week", ref, 1, Weeks, time.Date(2024, 2, 10, 14, 5, 9, 0, time.UTC)},
		{"plus ninety minutes", ref, 90, Minutes, time.Date(2024, 2, 3, 15, 35, 9, 0, time.UTC)},
		{"plus a quarter", ref, 1, Quarters, time.Date(2024, 5, 3, 14, 5, 9, 0, time.UTC)},
		{"minus a year", ref, -1, Years, time.Date(2023, 2, 3, 14, 5, 9, 0, time.UTC)},
		{"month end clamps", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, Months, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"hours beyond a duration", ref, 3000000, Hours, time.Date(2366, 5, 1, 14, 5, 9, 0, time.UTC)},
		{"minutes beyond a duration", ref, -180000000, Minutes, time.Date(1681, 11, 7, 14, 5, 9, 0, time.UTC)},
		{"leap day plus a year clamps", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 1, Years, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Add(tt.start, tt.amount, tt.unit))
		})
	}
}

func TestLocaleWeek(t *testing.T) {
	tests := []struct {
		day      time.Time
		wantYear int
		wantWeek int
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2024, 1},
		{time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), 2024, 2},
		{time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC), 2025, 1},
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 2024, 1},
	}

	for _, tt := range tests {
		year, week := localeWeek(tt.day)
		assert.Equal(t, tt.wantYear, year, tt.day)
		assert.Equal(t, tt.wantWeek, week, tt.day)
	}
}

func TestCalendar(t *testing.T) {
	cal := FixedCalendar(ref)
	assert.Equal(t, ref, cal.Now())

	var zero Calendar
	assert.WithinDuration(t, time.Now(), zero.Now(), time.Minute)
}
