package heights

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DateFormat is the layout of dates accepted on the command line.
const DateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "date")
	}

	return t, nil
}

// civilDate drops the clock time and location so that only the calendar date remains.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from the date of "from" to the date of "to".
func DaysBetween(from, to time.Time) int64 {
	return int64(civilDate(to).Sub(civilDate(from)).Hours()) / 24
}

// EstimateHeight returns current plus blocksPerDay for every calendar day between now and the
// target date. A target on the current date returns the current height.
func EstimateHeight(current uint32, now, target time.Time, blocksPerDay int) (int64, error) {
	if blocksPerDay <= 0 {
		blocksPerDay = DefaultBlocksPerDay
	}

	days := DaysBetween(now, target)
	if days < 0 {
		return 0, errors.Wrap(ErrDateInPast, target.Format(DateFormat))
	}

	return int64(current) + days*int64(blocksPerDay), nil
}

// EstimateUnlockTime returns when the unlock height is expected to be reached assuming blocks
// arrive at blocksPerDay from now. Heights already reached return now.
func EstimateUnlockTime(current uint32, unlockHeight int64, now time.Time,
	blocksPerDay int) time.Time {

	if blocksPerDay <= 0 {
		blocksPerDay = DefaultBlocksPerDay
	}

	remaining := unlockHeight - int64(current)
	if remaining <= 0 {
		return now
	}

	interval := 24 * time.Hour / time.Duration(blocksPerDay)
	return now.Add(time.Duration(remaining) * interval)
}

// DescribeWait returns the calendar distance between the dates as text like "1 year 2 months 3
// days". Month arithmetic clamps to the end of shorter months, so January 31st plus one month is
// the last day of February. An empty string is returned when "to" is not after "from".
func DescribeWait(from, to time.Time) string {
	start := civilDate(from)
	end := civilDate(to)
	if !end.After(start) {
		return ""
	}

	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	anchor := addMonths(start, months)
	if anchor.After(end) {
		months--
		anchor = addMonths(start, months)
	}
	days := int(end.Sub(anchor).Hours()) / 24

	var parts []string
	if years := months / 12; years > 0 {
		parts = append(parts, plural(years, "year"))
	}
	if m := months % 12; m > 0 {
		parts = append(parts, plural(m, "month"))
	}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}

	return strings.Join(parts, " ")
}

// addMonths adds months to a UTC date, clamping the day to the length of the resulting month.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}

	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
