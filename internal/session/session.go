// Package session holds the allocation editing session: a weekly snapshot of
// one project plus the local drafts, approval marks and reopened day that a
// lead accumulates before applying them in one batch.
//
// A Session is not safe for concurrent use. The network halves (Fetch and
// Submit) touch no session state, so a UI can run them off its event loop
// and install the results back on it.
package session

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/roster/internal/api"
)

// Querier loads the weekly snapshot.
type Querier interface {
	WeeklyAllocation(ctx context.Context, projectID int64, from, to string) (map[string]api.DayRecord, error)
}

// Applier submits a batch.
type Applier interface {
	ApplyBatch(ctx context.Context, req api.BatchRequest) error
}

// Backend is both halves; *api.Client satisfies it.
type Backend interface {
	Querier
	Applier
}

// DraftAdd is an allocation that exists only locally.
type DraftAdd struct {
	EmpID     int64
	EmpName   string
	ShiftCode string
	Date      string
}

// Summary counts what a commit sent.
type Summary struct {
	Added      int
	Removed    int
	Approved   int
	Unapproved int
}

func (s Summary) Empty() bool {
	return s.Added == 0 && s.Removed == 0 && s.Approved == 0 && s.Unapproved == 0
}

// Summarize counts a batch the way Commit reports it.
func Summarize(req api.BatchRequest) Summary {
	sum := Summary{Added: len(req.Add), Removed: len(req.Remove)}
	for _, a := range req.Approvals {
		if a.IsApproved {
			sum.Approved++
		} else {
			sum.Unapproved++
		}
	}
	return sum
}

type Session struct {
	backend Backend
	log     *zap.Logger

	projectID int64
	from, to  string
	loaded    bool
	days      map[string]api.DayRecord

	adds        []DraftAdd
	removes     []api.Allocation
	approvals   map[string]bool
	unapprovals map[string]bool
	editingDate string
}

func New(backend Backend, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		backend:     backend,
		log:         log.Named("session"),
		days:        map[string]api.DayRecord{},
		approvals:   map[string]bool{},
		unapprovals: map[string]bool{},
	}
}

// ── Loading ──

func checkRange(from, to string) error {
	f, err := time.Parse(api.DateLayout, from)
	if err != nil {
		return ErrInvalidRange
	}
	t, err := time.Parse(api.DateLayout, to)
	if err != nil || t.Before(f) {
		return ErrInvalidRange
	}
	return nil
}

// PrepareLoad validates the range and, when it names a different project or
// range than the loaded one, discards every draft, mark and the reopened day.
func (s *Session) PrepareLoad(projectID int64, from, to string) error {
	if err := checkRange(from, to); err != nil {
		return err
	}
	if s.loaded && (projectID != s.projectID || from != s.from || to != s.to) {
		s.log.Debug("scope change",
			zap.Int64("project_id", projectID),
			zap.String("from", from),
			zap.String("to", to),
			zap.Int("discarded", s.PendingCount()),
		)
		s.Discard()
	}
	return nil
}

// Fetch retrieves a snapshot without touching session state.
func (s *Session) Fetch(ctx context.Context, projectID int64, from, to string) (map[string]api.DayRecord, error) {
	days, err := s.backend.WeeklyAllocation(ctx, projectID, from, to)
	if err != nil {
		return nil, &FetchError{ProjectID: projectID, From: from, To: to, Err: err}
	}
	return days, nil
}

// Install replaces the snapshot. Drafts survive a same-scope install, except
// removes whose allocation is gone and adds the server now holds.
func (s *Session) Install(projectID int64, from, to string, days map[string]api.DayRecord) {
	if s.loaded && (projectID != s.projectID || from != s.from || to != s.to) {
		s.Discard()
	}
	if days == nil {
		days = map[string]api.DayRecord{}
	}
	// The wire format keys allocations by date and shift code only.
	for date, day := range days {
		for code, list := range day.Shifts {
			for i := range list {
				list[i].ShiftCode = code
				list[i].Date = date
			}
		}
	}
	s.projectID, s.from, s.to = projectID, from, to
	s.days = days
	s.loaded = true
	s.reconcile()
}

func (s *Session) reconcile() {
	kept := s.removes[:0]
	for _, a := range s.removes {
		if _, ok := s.find(a.AllocationID); ok {
			kept = append(kept, a)
		}
	}
	s.removes = kept

	adds := s.adds[:0]
	for _, d := range s.adds {
		if !s.persisted(d.EmpID, d.ShiftCode, d.Date) {
			adds = append(adds, d)
		}
	}
	s.adds = adds
}

// LoadWeek replaces the snapshot with the server's view of [from, to]. On
// failure the previous snapshot and scope are kept.
func (s *Session) LoadWeek(ctx context.Context, projectID int64, from, to string) error {
	if err := s.PrepareLoad(projectID, from, to); err != nil {
		return err
	}
	days, err := s.Fetch(ctx, projectID, from, to)
	if err != nil {
		s.log.Warn("load failed", zap.Int64("project_id", projectID), zap.Error(err))
		return err
	}
	s.Install(projectID, from, to, days)
	return nil
}

// Discard drops drafts, marks and the reopened day. The snapshot stays.
func (s *Session) Discard() {
	s.adds = nil
	s.removes = nil
	s.approvals = map[string]bool{}
	s.unapprovals = map[string]bool{}
	s.editingDate = ""
}

// Reset forgets the snapshot and scope along with every local change, as
// on sign-out.
func (s *Session) Reset() {
	s.Discard()
	s.projectID, s.from, s.to = 0, "", ""
	s.days = map[string]api.DayRecord{}
	s.loaded = false
}

// Revert discards local changes and reloads the current scope.
func (s *Session) Revert(ctx context.Context) error {
	s.Discard()
	if !s.loaded {
		return nil
	}
	return s.LoadWeek(ctx, s.projectID, s.from, s.to)
}

// ── Accessors ──

func (s *Session) Loaded() bool            { return s.loaded }
func (s *Session) ProjectID() int64        { return s.projectID }
func (s *Session) Range() (string, string) { return s.from, s.to }
func (s *Session) EditingDate() string     { return s.editingDate }

// Day returns the stored record for date.
func (s *Session) Day(date string) (api.DayRecord, bool) {
	d, ok := s.days[date]
	return d, ok
}

// Dates lists every date of the loaded range in order.
func (s *Session) Dates() []string {
	if !s.loaded {
		return nil
	}
	f, _ := time.Parse(api.DateLayout, s.from)
	t, _ := time.Parse(api.DateLayout, s.to)
	var out []string
	for d := f; !d.After(t); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(api.DateLayout))
	}
	return out
}

func (s *Session) inRange(date string) bool {
	if !s.loaded {
		return false
	}
	if _, err := time.Parse(api.DateLayout, date); err != nil {
		return false
	}
	return date >= s.from && date <= s.to
}

func (s *Session) DraftAdds() []DraftAdd {
	return append([]DraftAdd(nil), s.adds...)
}

func (s *Session) DraftRemoves() []api.Allocation {
	return append([]api.Allocation(nil), s.removes...)
}

// PendingCount is the number of local changes a commit would send.
func (s *Session) PendingCount() int {
	return len(s.adds) + len(s.removes) + len(s.approvalDates())
}

// Here returns this project's persisted allocations on date and shiftCode.
func (s *Session) Here(date, shiftCode string) []api.Allocation {
	var out []api.Allocation
	for _, a := range s.days[date].Shifts[shiftCode] {
		if a.ProjectID == s.projectID {
			out = append(out, a)
		}
	}
	return out
}

// Elsewhere returns allocations on date and shiftCode that belong to other
// projects. They are shown but never editable.
func (s *Session) Elsewhere(date, shiftCode string) []api.Allocation {
	var out []api.Allocation
	for _, a := range s.days[date].Shifts[shiftCode] {
		if a.ProjectID != s.projectID {
			out = append(out, a)
		}
	}
	return out
}

// DraftAddsFor returns pending adds on date and shiftCode.
func (s *Session) DraftAddsFor(date, shiftCode string) []DraftAdd {
	var out []DraftAdd
	for _, d := range s.adds {
		if d.Date == date && d.ShiftCode == shiftCode {
			out = append(out, d)
		}
	}
	return out
}

func (s *Session) IsMarkedForRemoval(allocationID int64) bool {
	for _, a := range s.removes {
		if a.AllocationID == allocationID {
			return true
		}
	}
	return false
}

func (s *Session) HasDraftAdd(empID int64, shiftCode, date string) bool {
	for _, d := range s.adds {
		if d.EmpID == empID && d.ShiftCode == shiftCode && d.Date == date {
			return true
		}
	}
	return false
}

func (s *Session) IsMarkedForApproval(date string) bool { return s.approvals[date] }

func (s *Session) IsMarkedForUnapproval(date string) bool { return s.unapprovals[date] }

func (s *Session) find(allocationID int64) (api.Allocation, bool) {
	for _, day := range s.days {
		for _, list := range day.Shifts {
			for _, a := range list {
				if a.AllocationID == allocationID {
					return a, true
				}
			}
		}
	}
	return api.Allocation{}, false
}

func (s *Session) persisted(empID int64, shiftCode, date string) bool {
	for _, a := range s.Here(date, shiftCode) {
		if a.EmpID == empID {
			return true
		}
	}
	return false
}

// ── Rules ──

// Editable reports whether drafts may change on date: no stored record, a
// stored record that is not approved, or the reopened day.
func (s *Session) Editable(date string) bool {
	day, ok := s.days[date]
	return !ok || !day.IsApproved || date == s.editingDate
}

func (s *Session) touched(date string) bool {
	for _, d := range s.adds {
		if d.Date == date {
			return true
		}
	}
	for _, a := range s.removes {
		if a.Date == date {
			return true
		}
	}
	return false
}

// Approvable reports whether the Approve action is offered for date. The
// same check gates the approvals a commit sends.
func (s *Session) Approvable(date string) bool {
	day, ok := s.days[date]
	if !ok || day.IsApproved || date == s.editingDate {
		return false
	}
	if s.touched(date) {
		return false
	}
	for _, list := range day.Shifts {
		for _, a := range list {
			if a.ProjectID == s.projectID {
				return true
			}
		}
	}
	return false
}

// Status renders date through StatusOf.
func (s *Session) Status(date string) DayStatus {
	v := DayView{
		Editing:     date == s.editingDate,
		Approving:   s.approvals[date],
		Unapproving: s.unapprovals[date],
	}
	if day, ok := s.days[date]; ok {
		v.Record = &day
	}
	return StatusOf(v)
}

// ── Drafts ──

// AddDraft queues emp on shiftCode at date. Repeating an add, or adding
// someone the server already holds there, changes nothing.
func (s *Session) AddDraft(date, shiftCode string, emp api.Employee) error {
	if !s.inRange(date) {
		return ErrOutOfRange
	}
	if !s.Editable(date) {
		return &EditLockedError{Date: date}
	}
	if s.persisted(emp.EmpID, shiftCode, date) || s.HasDraftAdd(emp.EmpID, shiftCode, date) {
		return nil
	}
	s.adds = append(s.adds, DraftAdd{
		EmpID:     emp.EmpID,
		EmpName:   emp.FullName(),
		ShiftCode: shiftCode,
		Date:      date,
	})
	delete(s.approvals, date)
	return nil
}

// RemoveDraftAdd withdraws a pending add. Unknown adds are ignored.
func (s *Session) RemoveDraftAdd(empID int64, shiftCode, date string) {
	for i, d := range s.adds {
		if d.EmpID == empID && d.ShiftCode == shiftCode && d.Date == date {
			s.adds = append(s.adds[:i], s.adds[i+1:]...)
			return
		}
	}
}

// ToggleDraftRemove marks a persisted allocation of this project for
// deletion, or unmarks it if already marked. Only marking needs an editable day.
func (s *Session) ToggleDraftRemove(a api.Allocation) error {
	stored, ok := s.find(a.AllocationID)
	if !ok || stored.ProjectID != s.projectID {
		return ErrUnknownAllocation
	}
	// Unmarking is always allowed, even once the day has locked again.
	for i, r := range s.removes {
		if r.AllocationID == stored.AllocationID {
			s.removes = append(s.removes[:i], s.removes[i+1:]...)
			return nil
		}
	}
	if !s.Editable(stored.Date) {
		return &EditLockedError{Date: stored.Date}
	}
	s.removes = append(s.removes, stored)
	delete(s.approvals, stored.Date)
	return nil
}

// ── Approval ──

// MarkDayForApproval flags date to be approved on the next commit.
func (s *Session) MarkDayForApproval(date string) error {
	if !s.inRange(date) {
		return ErrOutOfRange
	}
	if !s.Approvable(date) {
		return ErrNotApprovable
	}
	s.approvals[date] = true
	return nil
}

func (s *Session) ClearApprovalMark(date string) {
	delete(s.approvals, date)
}

// BeginEditDate reopens an approved day. The day becomes editable and the
// next commit un-approves it. Days that are not approved are left alone.
// Moving to another day keeps the earlier day's un-approval queued.
func (s *Session) BeginEditDate(date string) error {
	if !s.inRange(date) {
		return ErrOutOfRange
	}
	day, ok := s.days[date]
	if !ok || !day.IsApproved {
		return nil
	}
	s.editingDate = date
	s.unapprovals[date] = true
	return nil
}

func (s *Session) approvalDates() []string {
	seen := map[string]bool{}
	var dates []string
	for d, on := range s.approvals {
		if on && !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	for d, on := range s.unapprovals {
		if on && !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates
}

// ── Commit ──

// Batch builds the request a commit would send. Add, Remove and Approvals
// are never nil.
func (s *Session) Batch() api.BatchRequest {
	req := api.BatchRequest{
		ProjectID: s.projectID,
		Add:       make([]api.BatchAdd, 0, len(s.adds)),
		Remove:    make([]int64, 0, len(s.removes)),
		Approvals: []api.ApprovalIntent{},
	}
	for _, d := range s.adds {
		req.Add = append(req.Add, api.BatchAdd{EmpID: d.EmpID, ShiftCode: d.ShiftCode, ShiftDate: d.Date})
	}
	for _, a := range s.removes {
		req.Remove = append(req.Remove, a.AllocationID)
	}
	for _, d := range s.approvalDates() {
		req.Approvals = append(req.Approvals, api.ApprovalIntent{Date: d, IsApproved: s.approvals[d]})
	}
	return req
}

// Validate checks that every queued approval still passes Approvable.
func (s *Session) Validate() error {
	for d, on := range s.approvals {
		if on && !s.Approvable(d) {
			return &approvalError{date: d}
		}
	}
	return nil
}

type approvalError struct{ date string }

func (e *approvalError) Error() string { return e.date + ": " + ErrNotApprovable.Error() }
func (e *approvalError) Unwrap() error { return ErrNotApprovable }

// Submit sends req without touching session state.
func (s *Session) Submit(ctx context.Context, req api.BatchRequest) error {
	if err := s.backend.ApplyBatch(ctx, req); err != nil {
		ce := newCommitError(err)
		s.log.Warn("commit rejected",
			zap.Int64("project_id", req.ProjectID),
			zap.Int("status", ce.Status),
			zap.String("detail", ce.Message()),
		)
		return ce
	}
	sum := Summarize(req)
	s.log.Info("commit applied",
		zap.Int64("project_id", req.ProjectID),
		zap.Int("added", sum.Added),
		zap.Int("removed", sum.Removed),
		zap.Int("approved", sum.Approved),
		zap.Int("unapproved", sum.Unapproved),
	)
	return nil
}

// Committed clears local changes after a successful Submit.
func (s *Session) Committed() {
	s.Discard()
}

// Commit sends every local change as one batch and reloads. An empty batch
// makes no call. On failure nothing is cleared. A reload failure after a
// successful apply comes back as *FetchError together with the summary.
func (s *Session) Commit(ctx context.Context) (Summary, error) {
	if err := s.Validate(); err != nil {
		return Summary{}, err
	}
	req := s.Batch()
	if req.Empty() {
		return Summary{}, nil
	}
	if err := s.Submit(ctx, req); err != nil {
		return Summary{}, err
	}
	s.Committed()
	sum := Summarize(req)

	days, err := s.Fetch(ctx, s.projectID, s.from, s.to)
	if err != nil {
		return sum, err
	}
	s.Install(s.projectID, s.from, s.to, days)
	return sum, nil
}
