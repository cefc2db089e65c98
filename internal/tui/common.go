package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/session"
)

// viewState represents the currently active view.
type viewState int

const (
	viewAllocate viewState = iota
	viewReview
	viewManage
	viewReports
	viewSettings
)

var viewNames = []string{"Allocate", "Review", "Manage", "Reports", "Settings"}

const sessionExpiredText = "Session expired. Please log in again."

// workspace is the signed-in user and the project every screen works on.
// Screens share it by pointer; only the App changes the selection.
type workspace struct {
	user      *api.UserContext
	projectID int64
}

func (w *workspace) signedIn() bool { return w.user != nil }

func (w *workspace) projects() []api.ProjectRef {
	if w.user == nil {
		return nil
	}
	return w.user.Projects
}

func (w *workspace) projectName() string {
	for _, p := range w.projects() {
		if p.ProjectID == w.projectID {
			return p.Name
		}
	}
	if w.projectID == 0 {
		return "no project"
	}
	return fmt.Sprintf("project %d", w.projectID)
}

// isLead reports whether the user may edit allocations and master data.
func (w *workspace) isLead() bool {
	return w.user != nil && w.user.UserType != api.ModeEmployee
}

// selectInitial picks last, then the server default, then the first project.
func (w *workspace) selectInitial(last int64) {
	w.projectID = 0
	ps := w.projects()
	for _, p := range ps {
		if p.ProjectID == last {
			w.projectID = last
			return
		}
	}
	if w.user != nil && w.user.DefaultProjectID != nil {
		w.projectID = *w.user.DefaultProjectID
		return
	}
	if len(ps) > 0 {
		w.projectID = ps[0].ProjectID
	}
}

// cycle moves the selection by delta and reports whether it changed.
func (w *workspace) cycle(delta int) bool {
	ps := w.projects()
	if len(ps) < 2 {
		return false
	}
	idx := 0
	for i, p := range ps {
		if p.ProjectID == w.projectID {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(ps)) % len(ps)
	w.projectID = ps[idx].ProjectID
	return true
}

func (w *workspace) reset() {
	w.user = nil
	w.projectID = 0
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type loggedInMsg struct {
	token string
	mode  string
	user  *api.UserContext
}

// authExpiredMsg is returned by any command whose call came back 401.
type authExpiredMsg struct{}

type projectChangedMsg struct{}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

// failMsg turns a command error into the message the App acts on.
func failMsg(prefix string, err error) tea.Msg {
	if errors.Is(err, api.ErrUnauthorized) {
		return authExpiredMsg{}
	}
	return statusMsg{text: fmt.Sprintf("%s: %s", prefix, errText(err)), isError: true}
}

func errText(err error) string {
	var ce *session.CommitError
	if errors.As(err, &ce) {
		return ce.Message()
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if d := apiErr.Detail(); d != "" {
			return d
		}
	}
	return err.Error()
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the first day of the week containing d.
func weekStart(d time.Time, sunday bool) time.Time {
	offset := int(d.Weekday())
	if !sunday {
		offset = (offset + 6) % 7
	}
	return d.AddDate(0, 0, -offset)
}

// dateRange is the inclusive from/to pair for days days starting at start.
func dateRange(start time.Time, days int) (string, string) {
	if days < 1 {
		days = 1
	}
	return start.Format(api.DateLayout), start.AddDate(0, 0, days-1).Format(api.DateLayout)
}

// monthRange is the first and last day of the month containing d.
func monthRange(d time.Time) (string, string) {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(api.DateLayout), last.Format(api.DateLayout)
}

func dayLabel(date string) string {
	t, err := time.Parse(api.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Mon 02")
}

func isWeekend(date string) bool {
	t, err := time.Parse(api.DateLayout, date)
	if err != nil {
		return false
	}
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
