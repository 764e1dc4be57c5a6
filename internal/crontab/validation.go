package crontab

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

var fieldNames = [5]string{"minute", "hour", "day_of_month", "month", "day_of_week"}

var weekdays = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// validateSchedule checks every field is a single crontab token and that the
// five fields together form a valid crontab(5) expression.
func validateSchedule(s Schedule) error {
	for i, f := range s.Fields() {
		if strings.ContainsAny(f, " \t\r\n#%") {
			return configurationErrorf("invalid %s field %q: must be a single token without '#' or '%%'", fieldNames[i], f)
		}
		if strings.HasPrefix(f, "@") {
			return configurationErrorf("invalid %s field %q: descriptors are not supported", fieldNames[i], f)
		}
		if strings.Contains(f, "?") {
			return configurationErrorf("invalid %s field %q: '?' is not valid in a crontab", fieldNames[i], f)
		}
	}

	_, err := parseSchedule(s)
	return err
}

// NextRun returns the first activation of the schedule after from.
func NextRun(s Schedule, from time.Time) (time.Time, error) {
	sched, err := parseSchedule(s)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

func parseSchedule(s Schedule) (cron.Schedule, error) {
	f := s.Fields()
	f[4] = normalizeDayOfWeek(f[4])
	expr := strings.Join(f[:], " ")

	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "invalid cron expression %q", s.String()), ErrConfiguration)
	}
	return sched, nil
}

// normalizeDayOfWeek rewrites crontab's Sunday-as-7 into the 0-6 range the
// parser accepts: "7" becomes "0" and "a-7[/n]" becomes "a-6[/n],0" when the
// step lands on 7.
func normalizeDayOfWeek(field string) string {
	parts := strings.Split(field, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		base, step, hasStep := strings.Cut(part, "/")
		lo, hi, isRange := strings.Cut(base, "-")

		switch {
		case !isRange && base == "7":
			out = append(out, "0")
		case isRange && hi == "7":
			from, ok := weekday(lo)
			n := 1
			if hasStep {
				var err error
				if n, err = strconv.Atoi(step); err != nil || n <= 0 {
					ok = false
				}
			}
			if !ok {
				// пусть парсер сообщит об ошибке
				out = append(out, part)
				continue
			}
			if from <= 6 {
				r := lo + "-6"
				if hasStep {
					r += "/" + step
				}
				out = append(out, r)
			}
			if (7-from)%n == 0 {
				out = append(out, "0")
			}
		default:
			out = append(out, part)
		}
	}
	return strings.Join(out, ",")
}

func weekday(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, n >= 0 && n <= 7
	}
	n, ok := weekdays[strings.ToLower(tok)]
	return n, ok
}

// escapePercent escapes '%', which cron turns into a newline in commands.
func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", `\%`)
}

// hasBarePercent reports whether s contains a '%' not escaped with a backslash.
func hasBarePercent(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i == 0 || s[i-1] != '\\') {
			return true
		}
	}
	return false
}

