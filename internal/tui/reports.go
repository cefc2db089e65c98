package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/export"
)

type reportScope int

const (
	scopeProject reportScope = iota
	scopeAll
)

type reportsModel struct {
	client *api.Client
	ws     *workspace
	width  int
	height int

	scope  reportScope
	month  time.Time
	report *api.AllowanceReport
	cursor int

	detail *api.DetailedAllowance

	chart barchart.Model
}

func newReportsModel(c *api.Client, ws *workspace) reportsModel {
	t := today()
	return reportsModel{
		client: c,
		ws:     ws,
		month:  time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC),
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	key    string
	report *api.AllowanceReport
	err    error
}

type detailDataMsg struct {
	detail *api.DetailedAllowance
	err    error
}

func (r reportsModel) projectID() int64 {
	if r.scope == scopeAll {
		return 0
	}
	return r.ws.projectID
}

func (r reportsModel) dataKey() string {
	from, to := monthRange(r.month)
	return fmt.Sprintf("%d:%s:%s", r.projectID(), from, to)
}

func (r reportsModel) refresh() tea.Cmd {
	client, pid, k := r.client, r.projectID(), r.dataKey()
	from, to := monthRange(r.month)
	return func() tea.Msg {
		rep, err := client.AllowanceReport(context.Background(), pid, from, to)
		return reportsDataMsg{key: k, report: rep, err: err}
	}
}

func (r reportsModel) loadDetail() tea.Cmd {
	if r.report == nil || r.cursor >= len(r.report.Rows) {
		return nil
	}
	client, pid := r.client, r.projectID()
	emp := r.report.Rows[r.cursor].EmpID
	from, to := monthRange(r.month)
	return func() tea.Msg {
		d, err := client.DetailedAllowance(context.Background(), pid, emp, from, to)
		return detailDataMsg{detail: d, err: err}
	}
}

// exportable returns the loaded report and its labels.
func (r reportsModel) exportable() (*api.AllowanceReport, export.Meta, bool) {
	if r.report == nil {
		return nil, export.Meta{}, false
	}
	from, to := monthRange(r.month)
	meta := export.Meta{From: from, To: to}
	if r.scope == scopeProject {
		meta.Project = r.ws.projectName()
	}
	return r.report, meta, true
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.key != r.dataKey() {
			return r, nil
		}
		if msg.err != nil {
			r.report = nil
			return r, func() tea.Msg { return failMsg("Report failed", msg.err) }
		}
		r.report = msg.report
		if r.cursor >= len(r.report.Rows) {
			r.cursor = max(0, len(r.report.Rows)-1)
		}
		r.buildChart()
		return r, nil

	case detailDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg { return failMsg("Detail failed", msg.err) }
		}
		r.detail = msg.detail
		return r, nil

	case tea.KeyMsg:
		if r.detail != nil {
			if key.Matches(msg, keys.Back) {
				r.detail = nil
			}
			return r, nil
		}
		switch {
		case key.Matches(msg, keys.PrevPer), key.Matches(msg, keys.Left):
			r.month = r.month.AddDate(0, -1, 0)
			return r, r.refresh()
		case key.Matches(msg, keys.NextPer), key.Matches(msg, keys.Right):
			r.month = r.month.AddDate(0, 1, 0)
			return r, r.refresh()
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.report != nil && r.cursor < len(r.report.Rows)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return r, r.loadDetail()
		case key.Matches(msg, keys.Reload):
			return r, r.refresh()
		case msg.String() == "s":
			if r.scope == scopeProject {
				r.scope = scopeAll
			} else {
				r.scope = scopeProject
			}
			r.cursor = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 36 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)
	if r.report == nil {
		return
	}

	// one bar per employee, capped so labels stay readable
	limit := max(1, chartWidth/6)
	style := lipgloss.NewStyle().Foreground(colorPrimary)
	var bars []barchart.BarData
	for i, row := range r.report.Rows {
		if i >= limit {
			break
		}
		total, _ := row.TotalAllowance.Float64()
		bars = append(bars, barchart.BarData{
			Label:  truncate(row.EmpName, 5),
			Values: []barchart.BarValue{{Name: row.FullName(), Value: total, Style: style}},
		})
	}
	if len(bars) == 0 {
		bars = []barchart.BarData{{Label: "", Values: []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}}}
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	projTab := inactiveTabStyle.Render(r.ws.projectName())
	allTab := inactiveTabStyle.Render("All projects")
	if r.scope == scopeProject {
		projTab = activeTabStyle.Render(r.ws.projectName())
	} else {
		allTab = activeTabStyle.Render("All projects")
	}
	scopeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, projTab, allTab)

	dateLabel := mutedStyle.Render(r.month.Format("January 2006"))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Allowances"), "  ", scopeTabs, "  ", dateLabel,
	)

	if r.detail != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.renderDetail(w), "", mutedStyle.Render("  esc: back")))
	}

	nav := mutedStyle.Render("  [/]: month  s: project/all  enter: daily detail  E: export")
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTable(w int) string {
	if r.report == nil || len(r.report.Rows) == 0 {
		return mutedStyle.Render("  No approved allocations for this period")
	}

	cols := []string{fmt.Sprintf("%-22s", "Employee")}
	for _, s := range r.report.Shifts {
		cols = append(cols, fmt.Sprintf("%5s", truncate(s.ShiftCode, 5)))
	}
	cols = append(cols, fmt.Sprintf("%5s", "Wknd"), fmt.Sprintf("%5s", "Hol"), fmt.Sprintf("%12s", "Allowance"))
	head := "  " + strings.Join(cols, " ")

	rows := []string{mutedStyle.Render(head), mutedStyle.Render("  " + strings.Repeat("─", min(w-6, lipgloss.Width(head))))}
	for i, row := range r.report.Rows {
		cells := []string{fmt.Sprintf("%-22s", truncate(row.FullName(), 22))}
		for _, s := range r.report.Shifts {
			cells = append(cells, fmt.Sprintf("%5d", row.ShiftCounts[s.ShiftCode]))
		}
		cells = append(cells,
			fmt.Sprintf("%5d", row.WeekendShiftCount),
			fmt.Sprintf("%5d", row.HolidayShiftCount),
			fmt.Sprintf("%12s", row.TotalAllowance.StringFixed(2)))
		line := strings.Join(cells, " ")
		if i == r.cursor {
			rows = append(rows, selectedItemStyle.Render("> "+line))
		} else {
			rows = append(rows, normalItemStyle.Render("  "+line))
		}
	}
	rows = append(rows, highlightStyle.Render(fmt.Sprintf("  Total %s", r.report.GrandTotal().StringFixed(2))))
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderDetail(w int) string {
	d := r.detail
	rows := []string{
		titleStyle.Render(d.Employee.FullName()),
		mutedStyle.Render(fmt.Sprintf("  %d weekday, %d weekend, %d holiday shifts  total %s",
			d.Summary.WeekdayCount, d.Summary.WeekendCount, d.Summary.HolidayCount, d.Summary.TotalAllowance.StringFixed(2))),
		"",
		mutedStyle.Render(fmt.Sprintf("  %-11s %-18s %-6s %-8s %10s", "Date", "Project", "Shift", "Type", "Allowance")),
	}
	for _, day := range d.Daily {
		rows = append(rows, fmt.Sprintf("  %-11s %-18s %-6s %-8s %10s",
			day.Date, truncate(day.Project, 18), day.ShiftCode, day.Type, day.Allowance.StringFixed(2)))
	}
	if len(d.Daily) == 0 {
		rows = append(rows, mutedStyle.Render("  No shifts in this period"))
	}
	return strings.Join(rows, "\n")
}
