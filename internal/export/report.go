// Package export writes allowance reports to CSV, JSON and XLSX files.
package export

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sadopc/roster/internal/api"
)

// Meta describes the report being written.
type Meta struct {
	Project string // "" for the all-projects aggregate
	From    string
	To      string
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds "allowance_<project>_<from>_<to>.<ext>" inside dir.
func Filename(dir string, m Meta, ext string) string {
	project := "all-projects"
	if m.Project != "" {
		project = strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(m.Project), "-"), "-")
	}
	return filepath.Join(dir, fmt.Sprintf("allowance_%s_%s_%s.%s", project, m.From, m.To, ext))
}

// header returns the column titles: one count column per shift code between
// the employee and the weekend/holiday/total columns.
func header(r *api.AllowanceReport) []string {
	h := []string{"Emp ID", "Employee"}
	for _, s := range r.Shifts {
		h = append(h, s.ShiftCode)
	}
	return append(h, "Weekend", "Holiday", "Total Allowance")
}

func row(r *api.AllowanceReport, emp api.AllowanceRow) []string {
	out := []string{strconv.FormatInt(emp.EmpID, 10), emp.FullName()}
	for _, s := range r.Shifts {
		out = append(out, strconv.Itoa(emp.ShiftCounts[s.ShiftCode]))
	}
	return append(out,
		strconv.Itoa(emp.WeekendShiftCount),
		strconv.Itoa(emp.HolidayShiftCount),
		emp.TotalAllowance.StringFixed(2),
	)
}
