package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadopc/roster/internal/api"
)

type jsonExport struct {
	ExportedAt string            `json:"exported_at"`
	Project    string            `json:"project"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Count      int               `json:"count"`
	GrandTotal decimal.Decimal   `json:"grand_total"`
	Shifts     []api.ReportShift `json:"shifts"`
	Employees  []jsonEmployee    `json:"employees"`
}

type jsonEmployee struct {
	EmpID          int64           `json:"emp_id"`
	Name           string          `json:"name"`
	ShiftCounts    map[string]int  `json:"shift_counts"`
	WeekendShifts  int             `json:"weekend_shifts"`
	HolidayShifts  int             `json:"holiday_shifts"`
	TotalAllowance decimal.Decimal `json:"total_allowance"`
}

func ToJSON(r *api.AllowanceReport, m Meta, path string) error {
	project := m.Project
	if project == "" {
		project = "All projects"
	}
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Project:    project,
		From:       m.From,
		To:         m.To,
		Count:      len(r.Rows),
		GrandTotal: r.GrandTotal(),
		Shifts:     r.Shifts,
		Employees:  []jsonEmployee{},
	}
	if export.Shifts == nil {
		export.Shifts = []api.ReportShift{}
	}

	for _, emp := range r.Rows {
		counts := emp.ShiftCounts
		if counts == nil {
			counts = map[string]int{}
		}
		export.Employees = append(export.Employees, jsonEmployee{
			EmpID:          emp.EmpID,
			Name:           emp.FullName(),
			ShiftCounts:    counts,
			WeekendShifts:  emp.WeekendShiftCount,
			HolidayShifts:  emp.HolidayShiftCount,
			TotalAllowance: emp.TotalAllowance,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
