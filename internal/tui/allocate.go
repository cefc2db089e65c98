package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/session"
	"github.com/sadopc/roster/internal/store"
)

// cellItem is one line inside a grid cell that the cursor can select.
type cellItem struct {
	alloc *api.Allocation
	draft *session.DraftAdd
}

// allocateModel drives the allocation editing session over a date grid:
// dates across, shifts down.
type allocateModel struct {
	client *api.Client
	store  *store.Store
	sess   *session.Session
	ws     *workspace
	log    *zap.Logger
	width  int
	height int

	anchor time.Time
	days   int

	shifts []api.ShiftMaster
	col    int
	row    int

	focused    bool // cursor is inside the cell
	itemCursor int

	busy    bool
	spinner spinner.Model

	picking    bool
	pickCursor int
	pickDate   string
	pickShift  string
	candidates []api.Employee
}

func newAllocateModel(c *api.Client, s *store.Store, sess *session.Session, ws *workspace, log *zap.Logger) allocateModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = accentStyle
	return allocateModel{
		client:  c,
		store:   s,
		sess:    sess,
		ws:      ws,
		log:     log.Named("allocate"),
		anchor:  weekStart(today(), s.WeekStartsSunday()),
		days:    s.DefaultDays(),
		spinner: sp,
	}
}

func (m *allocateModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// --- Messages ---

type allocLoadedMsg struct {
	projectID int64
	from, to  string
	days      map[string]api.DayRecord
	shifts    []api.ShiftMaster
	err       error
}

type commitDoneMsg struct {
	req      api.BatchRequest
	from, to string
	err      error
	days     map[string]api.DayRecord
	fetchErr error
}

type candidatesMsg struct {
	date, shift string
	employees   []api.Employee
	err         error
}

// --- Loading ---

func (m allocateModel) scope() (int64, string, string) {
	from, to := dateRange(m.anchor, m.days)
	return m.ws.projectID, from, to
}

// reload prepares the session for the current scope and fetches it. A scope
// change discards local changes before anything goes over the wire.
func (m allocateModel) reload() (allocateModel, tea.Cmd) {
	pid, from, to := m.scope()
	if pid == 0 {
		return m, nil
	}
	pending := m.sess.PendingCount()
	curFrom, curTo := m.sess.Range()
	scopeChanged := m.sess.Loaded() && (pid != m.sess.ProjectID() || from != curFrom || to != curTo)
	if err := m.sess.PrepareLoad(pid, from, to); err != nil {
		return m, errorCmd(err.Error())
	}
	m.focused = false
	m.picking = false
	m.busy = true

	var cmds []tea.Cmd
	if scopeChanged && pending > 0 {
		cmds = append(cmds, statusCmd(fmt.Sprintf("%d pending change(s) discarded", pending)))
	}

	sess, client := m.sess, m.client
	cmds = append(cmds, m.spinner.Tick, func() tea.Msg {
		ctx := context.Background()
		days, err := sess.Fetch(ctx, pid, from, to)
		if err != nil {
			return allocLoadedMsg{projectID: pid, from: from, to: to, err: err}
		}
		shifts, err := client.ShiftMasters(ctx, pid, from)
		return allocLoadedMsg{projectID: pid, from: from, to: to, days: days, shifts: shifts, err: err}
	})
	return m, tea.Batch(cmds...)
}

// inScope reports whether the loaded snapshot is the project and range the
// screen is pointed at. After a failed load they differ until a reload works.
func (m allocateModel) inScope() bool {
	pid, from, to := m.scope()
	curFrom, curTo := m.sess.Range()
	return m.sess.Loaded() && m.sess.ProjectID() == pid && curFrom == from && curTo == to
}

const staleGridText = "This grid did not load; press r to retry"

func (m allocateModel) revert() (allocateModel, tea.Cmd) {
	n := m.sess.PendingCount()
	m.sess.Discard()
	m, cmd := m.reload()
	if n == 0 {
		return m, cmd
	}
	return m, tea.Batch(cmd, statusCmd(fmt.Sprintf("Reverted %d change(s)", n)))
}

// apply sends the batch. The session is only cleared once the server has
// accepted it.
func (m allocateModel) apply() (allocateModel, tea.Cmd) {
	if !m.inScope() {
		return m, errorCmd(staleGridText)
	}
	if err := m.sess.Validate(); err != nil {
		return m, errorCmd("Cannot apply: " + err.Error())
	}
	req := m.sess.Batch()
	if req.Empty() {
		return m, statusCmd("Nothing to apply")
	}
	m.busy = true
	sess := m.sess
	pid := m.sess.ProjectID()
	from, to := m.sess.Range()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx := context.Background()
		if err := sess.Submit(ctx, req); err != nil {
			return commitDoneMsg{req: req, from: from, to: to, err: err}
		}
		days, err := sess.Fetch(ctx, pid, from, to)
		return commitDoneMsg{req: req, from: from, to: to, days: days, fetchErr: err}
	})
}

func (m allocateModel) logApply(msg commitDoneMsg) {
	sum := session.Summarize(msg.req)
	entry := store.ApplyLogEntry{
		ProjectID:  msg.req.ProjectID,
		From:       msg.from,
		To:         msg.to,
		Added:      sum.Added,
		Removed:    sum.Removed,
		Approved:   sum.Approved,
		Unapproved: sum.Unapproved,
		Outcome:    store.OutcomeApplied,
	}
	var ce *session.CommitError
	if errors.As(msg.err, &ce) {
		entry.Outcome = store.OutcomeRejected
		entry.HTTPStatus = ce.Status
		entry.Detail = ce.Message()
	}
	if _, err := m.store.LogApply(entry); err != nil {
		m.log.Warn("apply log write failed", zap.Error(err))
	}
}

func (m allocateModel) fetchCandidates(date, shift string) tea.Cmd {
	client, pid := m.client, m.ws.projectID
	return func() tea.Msg {
		list, err := client.AvailableEmployees(context.Background(), pid, shift, date)
		return candidatesMsg{date: date, shift: shift, employees: list, err: err}
	}
}

// --- Cursor helpers ---

func (m allocateModel) dates() []string {
	return m.sess.Dates()
}

func (m allocateModel) current() (string, string, bool) {
	dates := m.dates()
	if len(dates) == 0 || len(m.shifts) == 0 {
		return "", "", false
	}
	col := min(m.col, len(dates)-1)
	row := min(m.row, len(m.shifts)-1)
	return dates[col], m.shifts[row].ShiftCode, true
}

func (m allocateModel) items(date, shift string) []cellItem {
	var out []cellItem
	for _, a := range m.sess.Here(date, shift) {
		out = append(out, cellItem{alloc: &a})
	}
	for _, d := range m.sess.DraftAddsFor(date, shift) {
		out = append(out, cellItem{draft: &d})
	}
	return out
}

func (m *allocateModel) clampCursor() {
	if n := len(m.dates()); m.col >= n {
		m.col = max(0, n-1)
	}
	if m.row >= len(m.shifts) {
		m.row = max(0, len(m.shifts)-1)
	}
}

// --- Update ---

func (m allocateModel) update(msg tea.Msg) (allocateModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case allocLoadedMsg:
		pid, from, to := m.scope()
		if msg.projectID != pid || msg.from != from || msg.to != to {
			// a newer load is in flight
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			return m, func() tea.Msg { return failMsg("Load failed", msg.err) }
		}
		m.sess.Install(msg.projectID, msg.from, msg.to, msg.days)
		m.shifts = session.SortShifts(msg.shifts)
		m.clampCursor()
		return m, nil

	case commitDoneMsg:
		m.busy = false
		m.logApply(msg)
		if msg.err != nil {
			return m, func() tea.Msg { return failMsg("Apply failed", msg.err) }
		}
		m.sess.Committed()
		m.focused = false
		sum := session.Summarize(msg.req)
		text := fmt.Sprintf("Applied: %d added, %d removed, %d approved, %d reopened",
			sum.Added, sum.Removed, sum.Approved, sum.Unapproved)
		if msg.fetchErr != nil {
			return m, func() tea.Msg { return failMsg(text+"; reload failed", msg.fetchErr) }
		}
		if pid, from, to := m.scope(); pid == msg.req.ProjectID && from == msg.from && to == msg.to {
			m.sess.Install(pid, from, to, msg.days)
			m.clampCursor()
		}
		return m, statusCmd(text)

	case candidatesMsg:
		if !m.picking || msg.date != m.pickDate || msg.shift != m.pickShift {
			return m, nil
		}
		if msg.err != nil {
			m.picking = false
			return m, func() tea.Msg { return failMsg("Load employees failed", msg.err) }
		}
		m.candidates = msg.employees
		m.pickCursor = 0
		return m, nil

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m allocateModel) updateGrid(msg tea.KeyMsg) (allocateModel, tea.Cmd) {
	// Navigation and period changes are blocked while a call is in flight so
	// the install lands on the scope it was requested for.
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Left):
		if !m.focused && m.col > 0 {
			m.col--
		}
		return m, nil
	case key.Matches(msg, keys.Right):
		if !m.focused && m.col < len(m.dates())-1 {
			m.col++
		}
		return m, nil
	case key.Matches(msg, keys.Up):
		if m.focused {
			if m.itemCursor > 0 {
				m.itemCursor--
			}
		} else if m.row > 0 {
			m.row--
		}
		return m, nil
	case key.Matches(msg, keys.Down):
		if m.focused {
			date, shift, _ := m.current()
			if m.itemCursor < len(m.items(date, shift))-1 {
				m.itemCursor++
			}
		} else if m.row < len(m.shifts)-1 {
			m.row++
		}
		return m, nil
	case key.Matches(msg, keys.Enter):
		if _, _, ok := m.current(); ok {
			m.focused = !m.focused
			m.itemCursor = 0
		}
		return m, nil
	case key.Matches(msg, keys.Back):
		m.focused = false
		return m, nil
	case key.Matches(msg, keys.PrevPer):
		m.anchor = m.anchor.AddDate(0, 0, -m.days)
		return m.reload()
	case key.Matches(msg, keys.NextPer):
		m.anchor = m.anchor.AddDate(0, 0, m.days)
		return m.reload()
	case key.Matches(msg, keys.Reload):
		return m.reload()
	}

	if !m.ws.isLead() {
		if key.Matches(msg, keys.Add, keys.Remove, keys.Approve, keys.Reopen, keys.Apply, keys.Revert) {
			return m, errorCmd("Allocations are read-only for employees")
		}
		return m, nil
	}

	if !m.inScope() && key.Matches(msg, keys.Add, keys.Remove, keys.Approve, keys.Reopen, keys.Apply) {
		return m, errorCmd(staleGridText)
	}

	date, shift, ok := m.current()
	switch {
	case key.Matches(msg, keys.Apply):
		return m.apply()
	case key.Matches(msg, keys.Revert):
		return m.revert()
	case !ok:
		return m, nil
	case key.Matches(msg, keys.Add):
		if !m.sess.Editable(date) {
			return m, errorCmd(fmt.Sprintf("%s is approved; press o to reopen it", date))
		}
		m.picking = true
		m.pickDate, m.pickShift = date, shift
		m.candidates = nil
		return m, m.fetchCandidates(date, shift)
	case key.Matches(msg, keys.Remove):
		return m.removeItem(date, shift)
	case key.Matches(msg, keys.Approve):
		if m.sess.IsMarkedForApproval(date) {
			m.sess.ClearApprovalMark(date)
			return m, statusCmd("Approval withdrawn for " + date)
		}
		if err := m.sess.MarkDayForApproval(date); err != nil {
			return m, errorCmd(fmt.Sprintf("%s cannot be approved: it needs allocations and no pending edits", date))
		}
		return m, statusCmd(date + " will be approved on apply")
	case key.Matches(msg, keys.Reopen):
		if day, ok := m.sess.Day(date); !ok || !day.IsApproved {
			return m, errorCmd(date + " is not approved")
		}
		if err := m.sess.BeginEditDate(date); err != nil {
			return m, errorCmd(err.Error())
		}
		return m, statusCmd(date + " reopened; it will be un-approved on apply")
	}
	return m, nil
}

// removeItem toggles the selected persisted allocation or withdraws the
// selected draft. Outside a focused cell it only acts on single-item cells.
func (m allocateModel) removeItem(date, shift string) (allocateModel, tea.Cmd) {
	items := m.items(date, shift)
	if len(items) == 0 {
		return m, nil
	}
	if !m.focused {
		if len(items) > 1 {
			m.focused = true
			m.itemCursor = 0
			return m, statusCmd("Select an entry and press x")
		}
		m.itemCursor = 0
	}
	it := items[min(m.itemCursor, len(items)-1)]
	if it.draft != nil {
		m.sess.RemoveDraftAdd(it.draft.EmpID, it.draft.ShiftCode, it.draft.Date)
		if m.itemCursor >= len(items)-1 && m.itemCursor > 0 {
			m.itemCursor--
		}
		return m, nil
	}
	if err := m.sess.ToggleDraftRemove(*it.alloc); err != nil {
		var locked *session.EditLockedError
		if errors.As(err, &locked) {
			return m, errorCmd(err.Error())
		}
		return m, errorCmd("Cannot remove: " + err.Error())
	}
	return m, nil
}

func (m allocateModel) updatePicker(msg tea.KeyMsg) (allocateModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.pickCursor > 0 {
			m.pickCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.pickCursor < len(m.candidates)-1 {
			m.pickCursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.candidates) == 0 {
			return m, nil
		}
		emp := m.candidates[m.pickCursor]
		m.picking = false
		if err := m.sess.AddDraft(m.pickDate, m.pickShift, emp); err != nil {
			return m, errorCmd("Cannot add: " + err.Error())
		}
		return m, nil
	case key.Matches(msg, keys.Back):
		m.picking = false
	}
	return m, nil
}

// --- View ---

func (m allocateModel) view() string {
	w := m.width - 4
	title := titleStyle.Render("Allocate")
	if !m.ws.isLead() {
		title = titleStyle.Render("My Roster")
	}

	from, to := dateRange(m.anchor, m.days)
	info := fmt.Sprintf("%s  %s",
		highlightStyle.Render(m.ws.projectName()),
		mutedStyle.Render(from+" → "+to))
	if n := m.sess.PendingCount(); n > 0 {
		info += "  " + warningStyle.Render(fmt.Sprintf("%d pending", n))
	}
	if m.busy {
		info += "  " + m.spinner.View()
	}
	header := title + "  " + info

	if m.ws.projectID == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("You are not assigned to any project.")))
	}
	if !m.inScope() {
		text := "Loading..."
		if !m.busy {
			text = staleGridText
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render(text)))
	}

	var bottom string
	if m.picking {
		bottom = m.renderPicker(w)
	} else {
		bottom = m.renderDetail()
	}

	hint := mutedStyle.Render("  ←/→ ↑/↓: move  enter: open cell  a: add  x: remove  v: approve  o: reopen  ctrl+s: apply  u: revert  [/]: period")
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "", m.renderGrid(w-6), "", bottom, "", hint))
}

func dayTag(st session.DayStatus) string {
	switch st {
	case session.StatusHoliday:
		return "H"
	case session.StatusPending:
		return "P"
	case session.StatusApproved:
		return "A"
	case session.StatusLocked:
		return "L"
	}
	return " "
}

func (m allocateModel) renderGrid(w int) string {
	dates := m.dates()
	if len(m.shifts) == 0 {
		return mutedStyle.Render("No shifts are defined for this project.")
	}
	labelW := 10
	colW := max(10, (w-labelW)/max(1, len(dates)))

	headCells := []string{lipgloss.NewStyle().Width(labelW).Render("")}
	for i, d := range dates {
		st := m.sess.Status(d)
		label := fmt.Sprintf("%s %s", dayLabel(d), dayTag(st))
		style := statusStyle(st).Width(colW).Bold(i == m.col)
		if d == m.sess.EditingDate() {
			label += "*"
		}
		headCells = append(headCells, style.Render(label))
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, headCells...)}

	for r, sh := range m.shifts {
		label := lipgloss.NewStyle().Width(labelW).Render(truncate(sh.ShiftCode+" "+sh.ShiftName, labelW-1))
		if r == m.row {
			label = selectedItemStyle.Width(labelW).Render(truncate(sh.ShiftCode+" "+sh.ShiftName, labelW-1))
		}
		cells := []string{label}
		for c, d := range dates {
			cell := m.renderCell(d, sh.ShiftCode, colW-1, c == m.col && r == m.row)
			cells = append(cells, lipgloss.NewStyle().Width(colW).Render(cell))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

func (m allocateModel) renderCell(date, shift string, w int, selected bool) string {
	var rows []string
	for i, it := range m.items(date, shift) {
		var line string
		if it.draft != nil {
			line = draftAddStyle.Render(truncate("+"+it.draft.EmpName, w))
		} else if m.sess.IsMarkedForRemoval(it.alloc.AllocationID) {
			line = draftRemoveStyle.Render(truncate(allocName(*it.alloc), w))
		} else {
			line = normalItemStyle.Render(truncate(allocName(*it.alloc), w))
		}
		if selected && m.focused && i == m.itemCursor {
			line = cellCursorStyle.Render(line)
		}
		rows = append(rows, line)
	}
	if n := len(m.sess.Elsewhere(date, shift)); n > 0 {
		rows = append(rows, elsewhereStyle.Render(truncate(fmt.Sprintf("%d elsewhere", n), w)))
	}
	if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("·"))
	}
	out := strings.Join(rows, "\n")
	if selected && !m.focused {
		out = cellCursorStyle.Render(out)
	}
	return out
}

func allocName(a api.Allocation) string {
	if a.EmpLName == "" {
		return a.EmpName
	}
	return a.EmpName + " " + a.EmpLName
}

func (m allocateModel) renderDetail() string {
	date, shift, ok := m.current()
	if !ok {
		return ""
	}
	st := m.sess.Status(date)
	line := fmt.Sprintf("%s  %s  %s", titleStyle.Render(date), statusStyle(st).Render(st.String()), mutedStyle.Render(shift))
	if day, ok := m.sess.Day(date); ok {
		if day.IsHoliday {
			line += "  " + cellHolidayStyle.Render(day.HolidayName)
		}
		if day.IsApproved && day.ApprovedBy != "" {
			line += "  " + mutedStyle.Render("approved by "+day.ApprovedBy)
		}
	}
	if isWeekend(date) {
		line += "  " + mutedStyle.Render("weekend")
	}
	rows := []string{line}
	for _, a := range m.sess.Elsewhere(date, shift) {
		rows = append(rows, elsewhereStyle.Render(fmt.Sprintf("  %s (project %d)", allocName(a), a.ProjectID)))
	}
	adds, removes := len(m.sess.DraftAdds()), len(m.sess.DraftRemoves())
	if adds+removes > 0 {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  pending: %d to add, %d to remove", adds, removes)))
	}
	return strings.Join(rows, "\n")
}

func (m allocateModel) renderPicker(w int) string {
	title := titleStyle.Render(fmt.Sprintf("Add to %s on %s", m.pickShift, m.pickDate))
	rows := []string{title}
	if m.candidates == nil {
		rows = append(rows, mutedStyle.Render("  Loading employees..."))
	} else if len(m.candidates) == 0 {
		rows = append(rows, mutedStyle.Render("  Nobody is available for this slot."))
	}
	for i, e := range m.candidates {
		cursor := "  "
		style := normalItemStyle
		if i == m.pickCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		name := e.FullName()
		if e.IsExperienced {
			name += mutedStyle.Render(" (experienced)")
		}
		rows = append(rows, style.Render(cursor)+name)
	}
	rows = append(rows, "", mutedStyle.Render("  enter: add  esc: cancel"))
	return activePanelStyle.Width(w - 6).Render(strings.Join(rows, "\n"))
}
