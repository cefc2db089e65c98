package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/session"
	"github.com/sadopc/roster/internal/store"
)

// reviewModel is a read-only look at one period: day status, approver and
// head count per shift, next to the local apply history.
type reviewModel struct {
	client *api.Client
	store  *store.Store
	ws     *workspace
	width  int
	height int

	anchor time.Time
	days   int

	records map[string]api.DayRecord
	recent  []store.ApplyLogEntry
	cursor  int
}

func newReviewModel(c *api.Client, s *store.Store, ws *workspace) reviewModel {
	return reviewModel{
		client: c,
		store:  s,
		ws:     ws,
		anchor: weekStart(today(), s.WeekStartsSunday()),
		days:   s.DefaultDays(),
	}
}

func (r *reviewModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reviewDataMsg struct {
	projectID int64
	records   map[string]api.DayRecord
	recent    []store.ApplyLogEntry
	err       error
}

func (r reviewModel) refresh() tea.Cmd {
	pid := r.ws.projectID
	if pid == 0 {
		return nil
	}
	client, st := r.client, r.store
	from, to := dateRange(r.anchor, r.days)
	return func() tea.Msg {
		recent, _ := st.ListApplyLog(store.ApplyLogFilter{ProjectID: &pid, Limit: 5})
		records, err := client.WeeklyAllocation(context.Background(), pid, from, to)
		return reviewDataMsg{projectID: pid, records: records, recent: recent, err: err}
	}
}

func (r reviewModel) dates() []string {
	from, _ := dateRange(r.anchor, r.days)
	start, _ := time.Parse(api.DateLayout, from)
	out := make([]string, 0, r.days)
	for i := 0; i < r.days; i++ {
		out = append(out, start.AddDate(0, 0, i).Format(api.DateLayout))
	}
	return out
}

func (r reviewModel) update(msg tea.Msg) (reviewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reviewDataMsg:
		if msg.projectID != r.ws.projectID {
			return r, nil
		}
		r.recent = msg.recent
		if msg.err != nil {
			r.records = nil
			return r, func() tea.Msg { return failMsg("Load failed", msg.err) }
		}
		r.records = msg.records
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < r.days-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.PrevPer):
			r.anchor = r.anchor.AddDate(0, 0, -r.days)
			return r, r.refresh()
		case key.Matches(msg, keys.NextPer):
			r.anchor = r.anchor.AddDate(0, 0, r.days)
			return r, r.refresh()
		case key.Matches(msg, keys.Reload):
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r reviewModel) view() string {
	if r.width < 20 {
		return "Terminal too small"
	}
	w := r.width - 4
	return lipgloss.JoinVertical(lipgloss.Left, r.renderDays(w), r.renderDetail(w), r.renderRecent(w))
}

func (r reviewModel) renderDays(w int) string {
	from, to := dateRange(r.anchor, r.days)
	title := titleStyle.Render("Review") + "  " + highlightStyle.Render(r.ws.projectName()) +
		"  " + mutedStyle.Render(from+" → "+to)

	rows := []string{title, ""}
	var approved, total int
	for i, d := range r.dates() {
		var v session.DayView
		count := 0
		if rec, ok := r.records[d]; ok {
			v.Record = &rec
			for _, a := range rec.Allocations() {
				if a.ProjectID == r.ws.projectID {
					count++
				}
			}
			if rec.IsApproved {
				approved++
			}
			total++
		}
		st := session.StatusOf(v)
		cursor := "  "
		if i == r.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-8s %-18s %3d allocated", cursor, dayLabel(d), statusStyle(st).Render(fmt.Sprintf("%-16s", st.String())), count)
		if v.Record != nil && v.Record.IsHoliday {
			line += "  " + cellHolidayStyle.Render(v.Record.HolidayName)
		}
		if i == r.cursor {
			line = selectedItemStyle.Render(line)
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  %d of %d recorded days approved", approved, total)))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (r reviewModel) renderDetail(w int) string {
	dates := r.dates()
	if r.cursor >= len(dates) {
		return ""
	}
	d := dates[r.cursor]
	rec, ok := r.records[d]
	title := titleStyle.Render(d)
	if !ok {
		return panelStyle.Width(w).Render(title + "\n" + mutedStyle.Render("Nothing allocated"))
	}

	rows := []string{title}
	if rec.IsApproved {
		rows = append(rows, successStyle.Render("Approved by "+rec.ApprovedBy))
	}
	if rec.LastUpdated != "" {
		rows = append(rows, mutedStyle.Render("Last updated "+rec.LastUpdated))
	}
	codes := make([]string, 0, len(rec.Shifts))
	for code := range rec.Shifts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		var names []string
		for _, a := range rec.Shifts[code] {
			if a.ProjectID == r.ws.projectID {
				names = append(names, allocName(a))
			} else {
				names = append(names, elsewhereStyle.Render(allocName(a)))
			}
		}
		rows = append(rows, fmt.Sprintf("  %-6s %s", code, strings.Join(names, ", ")))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (r reviewModel) renderRecent(w int) string {
	title := titleStyle.Render("Recent Applies")
	if len(r.recent) == 0 {
		return panelStyle.Width(w).Render(title + "\n" + mutedStyle.Render("No changes applied from this console yet"))
	}
	rows := []string{title}
	for _, e := range r.recent {
		mark := successStyle.Render("✓")
		if e.Outcome == store.OutcomeRejected {
			mark = errorStyle.Render("✗")
		}
		line := fmt.Sprintf("  %s %s  %s..%s  +%d -%d ✓%d ↺%d", mark, e.CreatedAt.Local().Format("Jan 02 15:04"),
			e.From, e.To, e.Added, e.Removed, e.Approved, e.Unapproved)
		if e.Detail != "" {
			line += "  " + mutedStyle.Render(truncate(e.Detail, 40))
		}
		rows = append(rows, line)
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
