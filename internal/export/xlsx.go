package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/roster/internal/api"
)

const sheetName = "Allowance"

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// ToXLSX writes a single-sheet workbook: a title row, the column header, one
// row per employee and a bold total row. Counts and amounts are numeric cells.
func ToXLSX(r *api.AllowanceReport, m Meta, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	cols := header(r)
	last, _ := excelize.ColumnNumberToName(len(cols))
	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 26)
	f.SetColWidth(sheetName, "C", last, 12)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4})
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})

	project := m.Project
	if project == "" {
		project = "All projects"
	}
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Shift allowance: %s (%s to %s)", project, m.From, m.To))
	f.MergeCell(sheetName, "A1", last+"1")
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	for i, title := range cols {
		f.SetCellValue(sheetName, cell(i+1, 2), title)
	}
	f.SetCellStyle(sheetName, "A2", last+"2", headerStyle)

	rowNum := 3
	for _, emp := range r.Rows {
		values := []any{emp.EmpID, emp.FullName()}
		for _, s := range r.Shifts {
			values = append(values, emp.ShiftCounts[s.ShiftCode])
		}
		total, _ := emp.TotalAllowance.Float64()
		values = append(values, emp.WeekendShiftCount, emp.HolidayShiftCount, total)
		if err := f.SetSheetRow(sheetName, cell(1, rowNum), &values); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}
		f.SetCellStyle(sheetName, last+strconv.Itoa(rowNum), last+strconv.Itoa(rowNum), moneyStyle)
		rowNum++
	}

	grand, _ := r.GrandTotal().Float64()
	f.SetCellValue(sheetName, cell(2, rowNum), "Total")
	f.SetCellValue(sheetName, last+strconv.Itoa(rowNum), grand)
	f.SetCellStyle(sheetName, cell(1, rowNum), last+strconv.Itoa(rowNum), totalStyle)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}
