// Package calendar turns iCalendar holiday feeds into holiday upserts.
package calendar

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"

	"github.com/sadopc/roster/internal/api"
)

// maxSpanDays caps how far one event may expand.
const maxSpanDays = 31

// Options scope an import. From and To are inclusive "YYYY-MM-DD" bounds;
// empty means unbounded.
type Options struct {
	ProjectID    *int64
	SplAllowance decimal.Decimal
	From, To     string
}

var dateFormats = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
}

func parseDate(prop *ics.IANAProperty) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, prop.Value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", prop.Value)
}

// Parse reads every VEVENT with a summary and a start date. All-day events
// spanning several days yield one holiday per day (DTEND is exclusive). When
// two events fall on the same date the first one wins.
func Parse(r io.Reader, opts Options) ([]api.HolidayInput, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	seen := map[string]bool{}
	var out []api.HolidayInput
	for _, evt := range cal.Events() {
		summary := evt.GetProperty(ics.ComponentPropertySummary)
		if summary == nil || strings.TrimSpace(summary.Value) == "" {
			continue
		}
		startProp := evt.GetProperty(ics.ComponentPropertyDtStart)
		if startProp == nil {
			continue
		}
		start, err := parseDate(startProp)
		if err != nil {
			continue
		}
		end := start.AddDate(0, 0, 1)
		if endProp := evt.GetProperty(ics.ComponentPropertyDtEnd); endProp != nil {
			if e, err := parseDate(endProp); err == nil && e.After(start) {
				end = e
			}
		}
		if end.Sub(start) > maxSpanDays*24*time.Hour {
			end = start.AddDate(0, 0, maxSpanDays)
		}

		name := strings.TrimSpace(summary.Value)
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			date := d.Format(api.DateLayout)
			if seen[date] {
				continue
			}
			if (opts.From != "" && date < opts.From) || (opts.To != "" && date > opts.To) {
				continue
			}
			seen[date] = true
			out = append(out, api.HolidayInput{
				HolidayDate:  date,
				HolidayName:  truncate(name, 100),
				SplAllowance: opts.SplAllowance,
				ProjectID:    opts.ProjectID,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HolidayDate < out[j].HolidayDate })
	return out, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string, opts Options) ([]api.HolidayInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calendar: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
