package tui

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/rostertest"
	"github.com/sadopc/roster/internal/session"
	"github.com/sadopc/roster/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestServer seeds project 7 (Alpha) and 9 (Beta), employees 12 and 13
// on Alpha, shift S1, and allocation 501 for employee 12 on 2025-01-08.
func newTestServer(t *testing.T) *rostertest.Server {
	t.Helper()
	srv := rostertest.New(t)
	srv.AddProject(7, "Alpha")
	srv.AddProject(9, "Beta")
	srv.AddEmployee(12, "Asha", 7)
	srv.AddEmployee(13, "Ravi", 7)
	srv.AddShift(7, api.ShiftMaster{ShiftCode: "S1", ShiftName: "Morning", EffectiveFrom: "2020-01-01"})
	srv.AddAllocation(501, 7, 12, "S1", "2025-01-08", false)
	return srv
}

func newTestClient(srv *rostertest.Server) *api.Client {
	c := api.NewClient(srv.URL, 5*time.Second, zap.NewNop())
	c.SetToken(srv.Token())
	return c
}

func leadContext() *api.UserContext {
	def := int64(9)
	return &api.UserContext{
		UserType:         api.ModeLead,
		Name:             "Lead One",
		Projects:         []api.ProjectRef{{ProjectID: 7, Name: "Alpha"}, {ProjectID: 9, Name: "Beta"}},
		DefaultProjectID: &def,
	}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and every command of a batch, returning the messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pumpAllocate feeds the screen's own async results back into it and
// returns everything else (status, auth) it produced.
func pumpAllocate(m allocateModel, cmd tea.Cmd) (allocateModel, []tea.Msg) {
	var out []tea.Msg
	queue := drain(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		switch msg.(type) {
		case spinner.TickMsg:
		case allocLoadedMsg, commitDoneMsg, candidatesMsg:
			var next tea.Cmd
			m, next = m.update(msg)
			queue = append(queue, drain(next)...)
		default:
			out = append(out, msg)
		}
	}
	return m, out
}

// pumpApp delivers msg and every follow-up message to the App.
func pumpApp(a App, msg tea.Msg) App {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(spinner.TickMsg); ok {
			continue
		}
		model, cmd := a.Update(msg)
		a = model.(App)
		queue = append(queue, drain(cmd)...)
	}
	return a
}

func findStatus(msgs []tea.Msg) (statusMsg, bool) {
	for _, m := range msgs {
		if s, ok := m.(statusMsg); ok {
			return s, true
		}
	}
	return statusMsg{}, false
}

// loadedAllocate returns an allocate screen for Alpha, week of 2025-01-06.
func loadedAllocate(t *testing.T, srv *rostertest.Server) (allocateModel, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	client := newTestClient(srv)
	ws := &workspace{user: leadContext(), projectID: 7}
	m := newAllocateModel(client, st, session.New(client, zap.NewNop()), ws, zap.NewNop())
	m.anchor = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	m.days = 7

	m, cmd := m.reload()
	m, out := pumpAllocate(m, cmd)
	if s, ok := findStatus(out); ok && s.isError {
		t.Fatalf("load: %s", s.text)
	}
	if !m.sess.Loaded() {
		t.Fatal("session should be loaded")
	}
	return m, st
}

// ============================================================
// Workspace
// ============================================================

func TestWorkspaceSelectInitial(t *testing.T) {
	tests := []struct {
		name string
		last int64
		def  *int64
		want int64
	}{
		{"last project still visible", 7, nil, 7},
		{"server default", 0, func() *int64 { v := int64(9); return &v }(), 9},
		{"stale last falls back to default", 42, func() *int64 { v := int64(9); return &v }(), 9},
		{"first project", 0, nil, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := leadContext()
			uc.DefaultProjectID = tt.def
			ws := &workspace{user: uc}
			ws.selectInitial(tt.last)
			if ws.projectID != tt.want {
				t.Fatalf("projectID = %d, want %d", ws.projectID, tt.want)
			}
		})
	}
}

func TestWorkspaceNoProjects(t *testing.T) {
	ws := &workspace{user: &api.UserContext{UserType: api.ModeLead}}
	ws.selectInitial(7)
	if ws.projectID != 0 {
		t.Fatalf("projectID = %d, want 0", ws.projectID)
	}
	if ws.projectName() != "no project" {
		t.Fatalf("projectName = %q", ws.projectName())
	}
	if ws.cycle(1) {
		t.Fatal("cycle should report no change without projects")
	}
}

func TestWorkspaceCycle(t *testing.T) {
	ws := &workspace{user: leadContext(), projectID: 9}
	if !ws.cycle(1) || ws.projectID != 7 {
		t.Fatalf("cycle forward from 9: got %d, want 7 (wraps)", ws.projectID)
	}
	if !ws.cycle(-1) || ws.projectID != 9 {
		t.Fatalf("cycle back: got %d, want 9", ws.projectID)
	}
	if ws.projectName() != "Beta" {
		t.Fatalf("projectName = %q, want Beta", ws.projectName())
	}
}

func TestWorkspaceRoles(t *testing.T) {
	ws := &workspace{}
	if ws.signedIn() || ws.isLead() {
		t.Fatal("empty workspace should be signed out and not a lead")
	}
	ws.user = leadContext()
	if !ws.signedIn() || !ws.isLead() {
		t.Fatal("lead context should be signed in as lead")
	}
	ws.user.UserType = api.ModeEmployee
	if ws.isLead() {
		t.Fatal("employee should not be a lead")
	}
	ws.reset()
	if ws.signedIn() || ws.projectID != 0 {
		t.Fatal("reset should clear user and project")
	}
}

// ============================================================
// Date and text helpers
// ============================================================

func TestWeekStart(t *testing.T) {
	wed := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		d      time.Time
		sunday bool
		want   string
	}{
		{"wednesday monday-start", wed, false, "2025-01-06"},
		{"wednesday sunday-start", wed, true, "2025-01-05"},
		{"sunday monday-start", sun, false, "2025-01-06"},
		{"sunday sunday-start", sun, true, "2025-01-12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weekStart(tt.d, tt.sunday).Format(api.DateLayout)
			if got != tt.want {
				t.Fatalf("weekStart = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDateRange(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		days     int
		from, to string
	}{
		{7, "2025-01-06", "2025-01-12"},
		{1, "2025-01-06", "2025-01-06"},
		{0, "2025-01-06", "2025-01-06"},
		{31, "2025-01-06", "2025-02-05"},
	}
	for _, tt := range tests {
		from, to := dateRange(start, tt.days)
		if from != tt.from || to != tt.to {
			t.Errorf("dateRange(%d) = %s..%s, want %s..%s", tt.days, from, to, tt.from, tt.to)
		}
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		d        time.Time
		from, to string
	}{
		{time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), "2024-02-01", "2024-02-29"},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		from, to := monthRange(tt.d)
		if from != tt.from || to != tt.to {
			t.Errorf("monthRange(%s) = %s..%s, want %s..%s", tt.d.Format(api.DateLayout), from, to, tt.from, tt.to)
		}
	}
}

func TestDayLabelAndWeekend(t *testing.T) {
	if got := dayLabel("2025-01-08"); got != "Wed 08" {
		t.Fatalf("dayLabel = %q, want Wed 08", got)
	}
	if got := dayLabel("bogus"); got != "bogus" {
		t.Fatalf("dayLabel of invalid date = %q", got)
	}
	if isWeekend("2025-01-08") || !isWeekend("2025-01-11") || !isWeekend("2025-01-12") {
		t.Fatal("isWeekend mismatch")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trun…"},
		{"ünïcode", 4, "ünï…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

// ============================================================
// Errors
// ============================================================

func TestFailMsgUnauthorized(t *testing.T) {
	err := &api.Error{Method: http.MethodGet, Path: "/shifts/weekly", StatusCode: http.StatusUnauthorized}
	if _, ok := failMsg("Load failed", err).(authExpiredMsg); !ok {
		t.Fatal("401 should become authExpiredMsg")
	}
}

func TestFailMsgUsesDetail(t *testing.T) {
	ce := &session.CommitError{Status: http.StatusConflict, Err: errors.New("conflict")}
	msg, ok := failMsg("Apply failed", ce).(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
	if !strings.HasPrefix(msg.text, "Apply failed: ") {
		t.Fatalf("text = %q", msg.text)
	}
}

// ============================================================
// Allocate screen
// ============================================================

func TestAllocateLoad(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)

	if m.busy {
		t.Fatal("busy should clear after load")
	}
	if len(m.shifts) != 1 || m.shifts[0].ShiftCode != "S1" {
		t.Fatalf("shifts = %+v", m.shifts)
	}
	if got := len(m.dates()); got != 7 {
		t.Fatalf("dates = %d, want 7", got)
	}
	here := m.sess.Here("2025-01-08", "S1")
	if len(here) != 1 || here[0].AllocationID != 501 {
		t.Fatalf("Here = %+v", here)
	}
	if v := m.view(); !strings.Contains(v, "Alpha") {
		t.Fatal("view should name the project")
	}
}

func TestAllocateAddAndApply(t *testing.T) {
	srv := newTestServer(t)
	m, st := loadedAllocate(t, srv)
	m.col, m.row = 3, 0 // 2025-01-09

	m, cmd := m.update(runeKey("a"))
	if !m.picking {
		t.Fatal("a should open the picker")
	}
	m, _ = pumpAllocate(m, cmd)
	if len(m.candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(m.candidates))
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.picking {
		t.Fatal("enter should close the picker")
	}
	adds := m.sess.DraftAddsFor("2025-01-09", "S1")
	if len(adds) != 1 || adds[0].EmpID != 13 {
		t.Fatalf("draft adds = %+v", adds)
	}

	m, cmd = m.update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.busy {
		t.Fatal("apply should mark the screen busy")
	}
	m, out := pumpAllocate(m, cmd)

	s, ok := findStatus(out)
	if !ok || s.isError || !strings.HasPrefix(s.text, "Applied: 1 added") {
		t.Fatalf("status = %+v", s)
	}
	if m.sess.PendingCount() != 0 {
		t.Fatalf("pending = %d after apply", m.sess.PendingCount())
	}
	if len(m.sess.Here("2025-01-09", "S1")) != 1 {
		t.Fatal("new allocation should be in the reloaded snapshot")
	}
	if len(srv.Allocations(7)) != 2 {
		t.Fatalf("server allocations = %d, want 2", len(srv.Allocations(7)))
	}

	log, err := st.ListApplyLog(store.ApplyLogFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0].Outcome != store.OutcomeApplied || log[0].Added != 1 || log[0].ProjectID != 7 {
		t.Fatalf("apply log = %+v", log)
	}
}

func TestAllocateRejectedApplyKeepsDrafts(t *testing.T) {
	srv := newTestServer(t)
	m, st := loadedAllocate(t, srv)
	m.col = 3
	if err := m.sess.AddDraft("2025-01-09", "S1", api.Employee{EmpID: 12, EmpName: "Asha"}); err != nil {
		t.Fatal(err)
	}
	srv.FailNext("/shifts/apply-batch", http.StatusConflict, `{"detail":"Allocation already exists"}`)

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m, out := pumpAllocate(m, cmd)

	s, ok := findStatus(out)
	if !ok || !s.isError || !strings.Contains(s.text, "Allocation already exists") {
		t.Fatalf("status = %+v", s)
	}
	if m.busy {
		t.Fatal("busy should clear after a rejection")
	}
	if m.sess.PendingCount() != 1 {
		t.Fatalf("pending = %d, drafts should survive a rejection", m.sess.PendingCount())
	}

	log, _ := st.ListApplyLog(store.ApplyLogFilter{Outcome: store.OutcomeRejected})
	if len(log) != 1 || log[0].HTTPStatus != http.StatusConflict {
		t.Fatalf("apply log = %+v", log)
	}
}

func TestAllocateNothingToApply(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.busy {
		t.Fatal("empty apply should not go busy")
	}
	s, _ := findStatus(drain(cmd))
	if s.text != "Nothing to apply" {
		t.Fatalf("status = %q", s.text)
	}
	if len(srv.Batches()) != 0 {
		t.Fatal("no batch should be sent")
	}
}

func TestAllocateRemoveToggle(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)
	m.col = 2 // 2025-01-08

	m, _ = m.update(runeKey("x"))
	if !m.sess.IsMarkedForRemoval(501) {
		t.Fatal("x should mark 501 for removal")
	}
	m, _ = m.update(runeKey("x"))
	if m.sess.IsMarkedForRemoval(501) {
		t.Fatal("second x should unmark 501")
	}
}

func TestAllocateApproveMark(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)

	m.col = 0 // empty day
	m, cmd := m.update(runeKey("v"))
	if s, _ := findStatus(drain(cmd)); !s.isError {
		t.Fatal("approving an empty day should fail")
	}

	m.col = 2
	m, _ = m.update(runeKey("v"))
	if !m.sess.IsMarkedForApproval("2025-01-08") {
		t.Fatal("v should mark the day for approval")
	}
	m, _ = m.update(runeKey("v"))
	if m.sess.IsMarkedForApproval("2025-01-08") {
		t.Fatal("second v should withdraw the mark")
	}
}

func TestAllocateReopenApprovedDay(t *testing.T) {
	srv := newTestServer(t)
	srv.AddAllocation(601, 7, 13, "S1", "2025-01-10", true)
	m, _ := loadedAllocate(t, srv)
	m.col = 4 // 2025-01-10

	m, cmd := m.update(runeKey("a"))
	if m.picking {
		t.Fatal("approved day should not open the picker")
	}
	if s, _ := findStatus(drain(cmd)); !s.isError {
		t.Fatal("expected an error status for a locked day")
	}

	m, _ = m.update(runeKey("o"))
	if !m.sess.Editable("2025-01-10") {
		t.Fatal("o should reopen the day")
	}
	if !m.sess.IsMarkedForUnapproval("2025-01-10") {
		t.Fatal("reopened day should be queued for un-approval")
	}
}

func TestAllocateScopeChangeDiscards(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)
	if err := m.sess.AddDraft("2025-01-09", "S1", api.Employee{EmpID: 13, EmpName: "Ravi"}); err != nil {
		t.Fatal(err)
	}

	m, cmd := m.update(runeKey("]"))
	m, out := pumpAllocate(m, cmd)
	s, _ := findStatus(out)
	if s.text != "1 pending change(s) discarded" {
		t.Fatalf("status = %q", s.text)
	}
	if m.sess.PendingCount() != 0 {
		t.Fatal("drafts should be discarded on a scope change")
	}
	if from, _ := m.sess.Range(); from != "2025-01-13" {
		t.Fatalf("range starts %s, want 2025-01-13", from)
	}
}

func TestAllocateBusyBlocksNavigation(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)
	m.busy = true

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyRight})
	if m.col != 0 || cmd != nil {
		t.Fatal("navigation should be ignored while busy")
	}
}

func TestAllocateEmployeeReadOnly(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)
	m.ws.user.UserType = api.ModeEmployee
	m.col = 2

	m, cmd := m.update(runeKey("x"))
	if m.sess.PendingCount() != 0 {
		t.Fatal("employee should not create drafts")
	}
	if s, _ := findStatus(drain(cmd)); !s.isError {
		t.Fatal("expected a read-only error")
	}
}

func TestAllocateExpiredToken(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)
	srv.SetToken("rotated")

	m, cmd := m.update(runeKey("r"))
	_, out := pumpAllocate(m, cmd)
	if !hasAuthExpired(out) {
		t.Fatalf("expected authExpiredMsg, got %#v", out)
	}
}

func TestAllocateStaleLoadIgnored(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)

	m, _ = m.update(allocLoadedMsg{projectID: 9, from: "2025-01-06", to: "2025-01-12"})
	if m.sess.ProjectID() != 7 {
		t.Fatal("a load for another scope should be ignored")
	}
}

func hasAuthExpired(msgs []tea.Msg) bool {
	for _, m := range msgs {
		if _, ok := m.(authExpiredMsg); ok {
			return true
		}
	}
	return false
}

func TestAllocateFailedProjectSwitchRefusesEdits(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)

	m.ws.projectID = 9
	srv.FailNext("/shifts/weekly", http.StatusInternalServerError, `{"detail":"boom"}`)
	m, cmd := m.reload()
	m, out := pumpAllocate(m, cmd)
	if s, _ := findStatus(out); !s.isError {
		t.Fatal("failed load should report an error")
	}
	if m.busy || m.sess.ProjectID() != 7 {
		t.Fatalf("busy = %v, session project = %d", m.busy, m.sess.ProjectID())
	}
	if m.inScope() {
		t.Fatal("grid should be out of scope after a failed switch")
	}
	if !strings.Contains(m.view(), staleGridText) {
		t.Fatal("view should ask for a reload")
	}

	m.col = 2 // 2025-01-08 holds Alpha's allocation 501
	for _, k := range []tea.KeyMsg{runeKey("v"), runeKey("x"), runeKey("a"), runeKey("o")} {
		var cmd tea.Cmd
		m, cmd = m.update(k)
		if s, _ := findStatus(drain(cmd)); s.text != staleGridText {
			t.Fatalf("%s: status = %q", k.String(), s.text)
		}
	}
	if m.picking || m.sess.PendingCount() != 0 {
		t.Fatal("nothing should be queued against the previous project")
	}
	m, cmd = m.update(tea.KeyMsg{Type: tea.KeyCtrlS})
	drain(cmd)
	if m.busy || len(srv.Batches()) != 0 {
		t.Fatal("apply must not send a batch for the previous project")
	}

	m, cmd = m.update(runeKey("r"))
	m, _ = pumpAllocate(m, cmd)
	if !m.inScope() || m.sess.ProjectID() != 9 {
		t.Fatalf("retry should load project 9, session has %d", m.sess.ProjectID())
	}
}

func TestAllocateFailedPeriodChange(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)
	m.col = 2

	srv.FailNext("/shifts/weekly", http.StatusInternalServerError, `{"detail":"boom"}`)
	m, cmd := m.update(runeKey("]"))
	m, _ = pumpAllocate(m, cmd)
	if from, _ := m.sess.Range(); from != "2025-01-06" {
		t.Fatalf("session range starts %s, want the old week", from)
	}

	m, _ = m.update(runeKey("x"))
	if m.sess.IsMarkedForRemoval(501) {
		t.Fatal("old week must not be editable under the new range")
	}

	m, cmd = m.update(runeKey("["))
	m, _ = pumpAllocate(m, cmd)
	if !m.inScope() {
		t.Fatal("returning to the loaded week should restore editing")
	}
	m, _ = m.update(runeKey("x"))
	if !m.sess.IsMarkedForRemoval(501) {
		t.Fatal("x should work again once the grid is in scope")
	}
}

func TestAllocateFailedReloadKeepsDrafts(t *testing.T) {
	srv := newTestServer(t)
	m, _ := loadedAllocate(t, srv)
	if err := m.sess.AddDraft("2025-01-09", "S1", api.Employee{EmpID: 13, EmpName: "Ravi"}); err != nil {
		t.Fatal(err)
	}

	srv.FailNext("/shifts/weekly", http.StatusInternalServerError, `{"detail":"boom"}`)
	m, cmd := m.update(runeKey("r"))
	m, out := pumpAllocate(m, cmd)
	if s, _ := findStatus(out); !s.isError {
		t.Fatal("failed reload should report an error")
	}
	if !m.inScope() || m.sess.PendingCount() != 1 {
		t.Fatalf("same-scope failure should keep the grid and drafts, pending = %d", m.sess.PendingCount())
	}

	m, cmd = m.update(tea.KeyMsg{Type: tea.KeyCtrlS})
	_, out = pumpAllocate(m, cmd)
	if s, _ := findStatus(out); s.isError {
		t.Fatalf("apply: %s", s.text)
	}
	batches := srv.Batches()
	if len(batches) != 1 || batches[0].ProjectID != 7 {
		t.Fatalf("batches = %+v", batches)
	}
}

// ============================================================
// App
// ============================================================

func newTestApp(t *testing.T, srv *rostertest.Server) (App, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	client := api.NewClient(srv.URL, 5*time.Second, zap.NewNop())
	a := NewApp(Options{Store: st, Client: client, Log: zap.NewNop(), ExportDir: t.TempDir()})
	a = pumpApp(a, tea.WindowSizeMsg{Width: 120, Height: 40})
	return a, st
}

func TestAppStartsSignedOut(t *testing.T) {
	srv := newTestServer(t)
	a, _ := newTestApp(t, srv)
	if a.Init() != nil {
		t.Fatal("Init without a stored token should do nothing")
	}
	if a.ws.signedIn() {
		t.Fatal("should start signed out")
	}
	if !strings.Contains(a.View(), "Sign in") {
		t.Fatal("signed-out view should show the login screen")
	}
}

func TestAppLoadingState(t *testing.T) {
	st := newTestStore(t)
	a := NewApp(Options{Store: st, Client: api.NewClient("http://127.0.0.1:0", time.Second, nil)})
	if a.View() != "Loading..." {
		t.Fatal("zero-width app should render Loading...")
	}
}

func TestAppSignIn(t *testing.T) {
	srv := newTestServer(t)
	a, st := newTestApp(t, srv)

	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})

	if !a.ws.signedIn() || a.ws.projectID != 9 {
		t.Fatalf("signed in = %v, project = %d", a.ws.signedIn(), a.ws.projectID)
	}
	if st.AuthToken() != srv.Token() || a.client.Token() != srv.Token() {
		t.Fatal("token should be stored and set on the client")
	}
	if st.LastProjectID() != 9 || st.LoginMode() != api.ModeLead {
		t.Fatal("last project and login mode should be saved")
	}
	cached, _ := st.ListProjects()
	if len(cached) != 2 {
		t.Fatalf("cached projects = %d, want 2", len(cached))
	}
	if !a.sess.Loaded() || a.sess.ProjectID() != 9 {
		t.Fatal("sign-in should load the allocate grid")
	}
	if !strings.Contains(a.View(), "Beta") {
		t.Fatal("header should name the current project")
	}
}

func TestAppSwitchProject(t *testing.T) {
	srv := newTestServer(t)
	a, st := newTestApp(t, srv)
	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})

	a = pumpApp(a, runeKey("p"))
	if a.ws.projectID != 7 || a.sess.ProjectID() != 7 {
		t.Fatalf("project = %d, session = %d, want 7", a.ws.projectID, a.sess.ProjectID())
	}
	if st.LastProjectID() != 7 {
		t.Fatal("switch should persist the last project")
	}
}

func TestAppFailedSwitchBlocksApply(t *testing.T) {
	srv := newTestServer(t)
	srv.AddAllocation(0, 9, 12, "S1", today().Format(api.DateLayout), false)
	a, _ := newTestApp(t, srv)
	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})
	if a.sess.ProjectID() != 9 {
		t.Fatalf("session project = %d, want 9", a.sess.ProjectID())
	}

	srv.FailNext("/shifts/weekly", http.StatusInternalServerError, `{"detail":"boom"}`)
	a = pumpApp(a, runeKey("p"))
	if a.ws.projectID != 7 || a.sess.ProjectID() != 9 {
		t.Fatalf("workspace = %d, session = %d", a.ws.projectID, a.sess.ProjectID())
	}
	if !a.statusErr {
		t.Fatal("failed switch should leave an error status")
	}

	a = pumpApp(a, runeKey("v"))
	a = pumpApp(a, tea.KeyMsg{Type: tea.KeyCtrlS})
	if a.sess.PendingCount() != 0 || len(srv.Batches()) != 0 {
		t.Fatal("no change may be applied to project 9 while 7 is selected")
	}
	if a.status != staleGridText {
		t.Fatalf("status = %q", a.status)
	}
}

func TestAppTabs(t *testing.T) {
	srv := newTestServer(t)
	a, _ := newTestApp(t, srv)
	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})

	tests := []struct {
		key  string
		want viewState
	}{
		{"2", viewReview},
		{"3", viewManage},
		{"4", viewReports},
		{"5", viewSettings},
		{"1", viewAllocate},
	}
	for _, tt := range tests {
		a = pumpApp(a, runeKey(tt.key))
		if a.activeView != tt.want {
			t.Fatalf("after %s: view = %d, want %d", tt.key, a.activeView, tt.want)
		}
	}
	a = pumpApp(a, tea.KeyMsg{Type: tea.KeyTab})
	if a.activeView != viewReview {
		t.Fatalf("tab should advance to Review, got %d", a.activeView)
	}
}

func TestAppAuthExpired(t *testing.T) {
	srv := newTestServer(t)
	a, st := newTestApp(t, srv)
	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})
	a = pumpApp(a, authExpiredMsg{})

	if a.ws.signedIn() {
		t.Fatal("should be signed out")
	}
	if st.AuthToken() != "" || a.client.Token() != "" {
		t.Fatal("token should be cleared")
	}
	if a.sess.Loaded() || a.sess.PendingCount() != 0 {
		t.Fatal("session should be reset")
	}
	if a.login.notice != sessionExpiredText || !a.login.isError {
		t.Fatalf("login notice = %q", a.login.notice)
	}
}

func TestAppExpiredTokenOnRequest(t *testing.T) {
	srv := newTestServer(t)
	a, _ := newTestApp(t, srv)
	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})

	srv.SetToken("rotated")
	a = pumpApp(a, runeKey("r"))
	if a.ws.signedIn() {
		t.Fatal("a 401 on reload should sign out")
	}
}

func TestAppResume(t *testing.T) {
	srv := newTestServer(t)
	st := newTestStore(t)
	client := newTestClient(srv)
	a := NewApp(Options{Store: st, Client: client, Log: zap.NewNop(), ResumeMode: api.ModeLead})
	a = pumpApp(a, tea.WindowSizeMsg{Width: 120, Height: 40})

	if !strings.Contains(a.View(), "Restoring session") {
		t.Fatal("resume should show the restoring view")
	}
	for _, msg := range drain(a.Init()) {
		a = pumpApp(a, msg)
	}
	if !a.ws.signedIn() || a.ws.user.Name != "Lead One" {
		t.Fatal("resume should sign in with the stored token")
	}
}

func TestAppStatusMessage(t *testing.T) {
	srv := newTestServer(t)
	a, _ := newTestApp(t, srv)
	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})

	a = pumpApp(a, statusMsg{text: "boom", isError: true})
	if a.status != "boom" || !a.statusErr {
		t.Fatal("status not recorded")
	}
	if !strings.Contains(a.renderFooter(), "boom") {
		t.Fatal("footer should show the status")
	}
}

func TestAppLogout(t *testing.T) {
	srv := newTestServer(t)
	a, st := newTestApp(t, srv)
	a = pumpApp(a, loggedInMsg{token: srv.Token(), mode: api.ModeLead, user: leadContext()})

	a = pumpApp(a, runeKey("L"))
	if a.ws.signedIn() || st.AuthToken() != "" {
		t.Fatal("L should sign out and forget the token")
	}
	if a.login.isError {
		t.Fatal("a manual sign-out is not an error")
	}
}

// ============================================================
// Views, keys, styles
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != int(viewSettings)+1 {
		t.Fatalf("viewNames has %d entries, want %d", len(viewNames), viewSettings+1)
	}
	if viewNames[viewAllocate] != "Allocate" || viewNames[viewSettings] != "Settings" {
		t.Fatal("viewNames out of order")
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{store.KeyDefaultDays, "7", "7 days"},
		{store.KeyLastProjectID, "0", "none"},
		{store.KeyLastProjectID, "9", "9"},
		{store.KeyExportDir, "", "(default)"},
		{store.KeyWeekStart, "sunday", "sunday"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.key, tt.value); got != tt.want {
			t.Errorf("formatSettingValue(%s, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("ShortHelp should not be empty")
	}
	if len(keys.FullHelp()) == 0 {
		t.Fatal("FullHelp should not be empty")
	}
}

func TestStatusStyleRenders(t *testing.T) {
	for _, st := range []session.DayStatus{
		session.StatusEditable, session.StatusHoliday, session.StatusPending,
		session.StatusApproved, session.StatusLocked,
	} {
		if out := statusStyle(st).Render(st.String()); out == "" {
			t.Errorf("status %v rendered empty", st)
		}
		_ = dayTag(st)
	}
	if dayTag(session.StatusHoliday) != "H" || dayTag(session.StatusLocked) != "L" {
		t.Fatal("dayTag mismatch")
	}
}
