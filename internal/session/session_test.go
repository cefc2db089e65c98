package session

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/rostertest"
)

// fakeBackend serves a fixed snapshot per project and records batches.
type fakeBackend struct {
	days       map[int64]map[string]api.DayRecord
	fetchErr   error
	applyErr   error
	fetches    int
	batches    []api.BatchRequest
	afterApply func(req api.BatchRequest)
}

func (f *fakeBackend) WeeklyAllocation(_ context.Context, projectID int64, from, to string) (map[string]api.DayRecord, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := map[string]api.DayRecord{}
	for date, day := range f.days[projectID] {
		if date >= from && date <= to {
			shifts := map[string][]api.Allocation{}
			for code, list := range day.Shifts {
				shifts[code] = append([]api.Allocation(nil), list...)
			}
			day.Shifts = shifts
			out[date] = day
		}
	}
	return out, nil
}

func (f *fakeBackend) ApplyBatch(_ context.Context, req api.BatchRequest) error {
	f.batches = append(f.batches, req)
	if f.applyErr != nil {
		return f.applyErr
	}
	if f.afterApply != nil {
		f.afterApply(req)
	}
	return nil
}

func alloc(id, emp, project int64, code string) api.Allocation {
	return api.Allocation{AllocationID: id, EmpID: emp, EmpName: "E", ProjectID: project, ShiftCode: code}
}

// standardWeek is project 7, 2025-01-06..12, with allocation 501 (emp 12, S1)
// on the 8th pending and an approved 9th.
func standardWeek() *fakeBackend {
	return &fakeBackend{days: map[int64]map[string]api.DayRecord{
		7: {
			"2025-01-08": {Shifts: map[string][]api.Allocation{"S1": {alloc(501, 12, 7, "S1")}}},
			"2025-01-09": {IsApproved: true, ApprovedBy: "Lead One", Shifts: map[string][]api.Allocation{
				"S1": {alloc(601, 12, 7, "S1"), alloc(602, 40, 9, "S1")},
			}},
			"2025-01-10": {IsHoliday: true, HolidayName: "Festival", Shifts: map[string][]api.Allocation{}},
		},
		9: {
			"2025-01-08": {Shifts: map[string][]api.Allocation{"S1": {alloc(701, 40, 9, "S1")}}},
		},
	}}
}

func loaded(t *testing.T, fb *fakeBackend) *Session {
	t.Helper()
	s := New(fb, nil)
	if err := s.LoadWeek(context.Background(), 7, "2025-01-06", "2025-01-12"); err != nil {
		t.Fatalf("load week: %v", err)
	}
	return s
}

var emp33 = api.Employee{EmpID: 33, EmpName: "A"}

// ============================================================
// Loading
// ============================================================

func TestLoadWeek(t *testing.T) {
	s := loaded(t, standardWeek())

	if !s.Loaded() || s.ProjectID() != 7 {
		t.Fatal("session not loaded for project 7")
	}
	if got := len(s.Dates()); got != 7 {
		t.Fatalf("expected 7 dates, got %d", got)
	}
	day, ok := s.Day("2025-01-08")
	if !ok || day.IsApproved {
		t.Fatalf("unexpected day: %+v", day)
	}
	here := s.Here("2025-01-08", "S1")
	if len(here) != 1 || here[0].AllocationID != 501 || here[0].Date != "2025-01-08" {
		t.Fatalf("here = %+v", here)
	}
}

func TestInstallFillsAllocationKeys(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	s.Install(7, "2025-01-06", "2025-01-12", map[string]api.DayRecord{
		"2025-01-08": {Shifts: map[string][]api.Allocation{"N1": {{AllocationID: 5, EmpID: 12, ProjectID: 7}}}},
	})
	here := s.Here("2025-01-08", "N1")
	if len(here) != 1 || here[0].ShiftCode != "N1" || here[0].Date != "2025-01-08" {
		t.Fatalf("Here = %+v", here)
	}
}

func TestLoadWeekInvalidRange(t *testing.T) {
	s := New(standardWeek(), nil)
	tests := []struct{ from, to string }{
		{"2025-01-12", "2025-01-06"},
		{"2025-13-01", "2025-13-07"},
		{"", "2025-01-06"},
	}
	for _, tt := range tests {
		if err := s.LoadWeek(context.Background(), 7, tt.from, tt.to); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("LoadWeek(%q, %q) = %v, want ErrInvalidRange", tt.from, tt.to, err)
		}
	}
}

func TestLoadWeekFailureKeepsSnapshot(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)

	fb.fetchErr = errors.New("connection refused")
	err := s.LoadWeek(context.Background(), 7, "2025-01-06", "2025-01-12")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if _, ok := s.Day("2025-01-08"); !ok {
		t.Fatal("previous snapshot should be retained")
	}
}

func TestFetchErrorPassesUnauthorized(t *testing.T) {
	fb := standardWeek()
	fb.fetchErr = &api.Error{StatusCode: http.StatusUnauthorized}
	s := New(fb, nil)

	err := s.LoadWeek(context.Background(), 7, "2025-01-06", "2025-01-12")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized through FetchError, got %v", err)
	}
}

func TestSameScopeReloadKeepsDrafts(t *testing.T) {
	s := loaded(t, standardWeek())
	if err := s.AddDraft("2025-01-08", "S1", emp33); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadWeek(context.Background(), 7, "2025-01-06", "2025-01-12"); err != nil {
		t.Fatal(err)
	}
	if len(s.DraftAdds()) != 1 {
		t.Fatal("same-scope reload should keep drafts")
	}
}

func TestReloadDropsStaleRemoves(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)
	if err := s.ToggleDraftRemove(api.Allocation{AllocationID: 501}); err != nil {
		t.Fatal(err)
	}

	day := fb.days[7]["2025-01-08"]
	day.Shifts = map[string][]api.Allocation{}
	fb.days[7]["2025-01-08"] = day

	if err := s.LoadWeek(context.Background(), 7, "2025-01-06", "2025-01-12"); err != nil {
		t.Fatal(err)
	}
	if len(s.DraftRemoves()) != 0 {
		t.Fatal("remove of a vanished allocation should be dropped")
	}
}

// ============================================================
// Drafts
// ============================================================

func TestAddDraftIdempotent(t *testing.T) {
	s := loaded(t, standardWeek())

	for i := 0; i < 2; i++ {
		if err := s.AddDraft("2025-01-08", "S1", emp33); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(s.DraftAdds()); got != 1 {
		t.Fatalf("expected 1 draft, got %d", got)
	}
	if !s.HasDraftAdd(33, "S1", "2025-01-08") {
		t.Fatal("HasDraftAdd should report the draft")
	}
}

func TestAddDraftAgainstPersisted(t *testing.T) {
	s := loaded(t, standardWeek())

	if err := s.AddDraft("2025-01-08", "S1", api.Employee{EmpID: 12, EmpName: "Asha"}); err != nil {
		t.Fatal(err)
	}
	if len(s.DraftAdds()) != 0 {
		t.Fatal("adding an already-allocated employee should be a no-op")
	}

	// Employee 40 is on S1 for another project that day; that does not collide.
	if err := s.AddDraft("2025-01-08", "S1", api.Employee{EmpID: 40, EmpName: "Chen"}); err != nil {
		t.Fatal(err)
	}
	if len(s.DraftAdds()) != 1 {
		t.Fatal("allocation elsewhere should not block a draft here")
	}
}

func TestAddDraftOutOfRange(t *testing.T) {
	s := loaded(t, standardWeek())
	for _, date := range []string{"2025-01-05", "2025-01-13", "not-a-date"} {
		if err := s.AddDraft(date, "S1", emp33); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("AddDraft(%q) = %v, want ErrOutOfRange", date, err)
		}
	}
	if err := New(standardWeek(), nil).AddDraft("2025-01-08", "S1", emp33); !errors.Is(err, ErrOutOfRange) {
		t.Fatal("unloaded session should reject adds")
	}
}

func TestAddDraftOnEmptyDay(t *testing.T) {
	s := loaded(t, standardWeek())
	if !s.Editable("2025-01-07") {
		t.Fatal("day without a record should be editable")
	}
	if err := s.AddDraft("2025-01-07", "S1", emp33); err != nil {
		t.Fatal(err)
	}
	if len(s.DraftAddsFor("2025-01-07", "S1")) != 1 {
		t.Fatal("draft not recorded")
	}
}

func TestRemoveDraftAdd(t *testing.T) {
	s := loaded(t, standardWeek())
	s.AddDraft("2025-01-08", "S1", emp33)

	s.RemoveDraftAdd(99, "S1", "2025-01-08")
	if len(s.DraftAdds()) != 1 {
		t.Fatal("unknown remove should be a no-op")
	}
	s.RemoveDraftAdd(33, "S1", "2025-01-08")
	if len(s.DraftAdds()) != 0 {
		t.Fatal("draft not removed")
	}
}

func TestToggleDraftRemoveSymmetric(t *testing.T) {
	s := loaded(t, standardWeek())
	before := s.DraftRemoves()

	a := api.Allocation{AllocationID: 501}
	if err := s.ToggleDraftRemove(a); err != nil {
		t.Fatal(err)
	}
	if !s.IsMarkedForRemoval(501) {
		t.Fatal("allocation should be marked")
	}
	if err := s.ToggleDraftRemove(a); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.DraftRemoves(), before) {
		t.Fatalf("toggle twice should be identity, got %+v", s.DraftRemoves())
	}
}

func TestToggleDraftRemoveUnknown(t *testing.T) {
	s := loaded(t, standardWeek())
	tests := []struct {
		name string
		id   int64
	}{
		{"not in snapshot", 999},
		{"other project", 602},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.ToggleDraftRemove(api.Allocation{AllocationID: tt.id}); !errors.Is(err, ErrUnknownAllocation) {
				t.Fatalf("got %v, want ErrUnknownAllocation", err)
			}
		})
	}
}

func TestUnmarkRemoveAfterDayLocksAgain(t *testing.T) {
	fb := standardWeek()
	fb.days[7]["2025-01-11"] = api.DayRecord{IsApproved: true, Shifts: map[string][]api.Allocation{
		"S1": {alloc(801, 12, 7, "S1")},
	}}
	s := loaded(t, fb)

	if err := s.BeginEditDate("2025-01-09"); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleDraftRemove(api.Allocation{AllocationID: 601}); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginEditDate("2025-01-11"); err != nil {
		t.Fatal(err)
	}
	if s.Editable("2025-01-09") {
		t.Fatal("2025-01-09 should be locked once editing moves on")
	}

	if err := s.ToggleDraftRemove(api.Allocation{AllocationID: 601}); err != nil {
		t.Fatalf("unmark on a locked day = %v", err)
	}
	if s.IsMarkedForRemoval(601) || len(s.Batch().Remove) != 0 {
		t.Fatal("unmarked allocation must not be sent")
	}
	var locked *EditLockedError
	if err := s.ToggleDraftRemove(api.Allocation{AllocationID: 601}); !errors.As(err, &locked) {
		t.Fatalf("marking again on a locked day = %v", err)
	}
}

// ============================================================
// Edit lock
// ============================================================

func TestLockedDayRejectsChanges(t *testing.T) {
	s := loaded(t, standardWeek())
	const approved = "2025-01-09"

	if s.Editable(approved) {
		t.Fatal("approved day should be locked")
	}
	var locked *EditLockedError
	if err := s.AddDraft(approved, "S1", emp33); !errors.As(err, &locked) || locked.Date != approved {
		t.Fatalf("AddDraft on locked day = %v", err)
	}
	if err := s.ToggleDraftRemove(api.Allocation{AllocationID: 601}); !errors.As(err, &locked) {
		t.Fatalf("ToggleDraftRemove on locked day = %v", err)
	}
	if len(s.DraftAdds()) != 0 || len(s.DraftRemoves()) != 0 {
		t.Fatal("locked day must not accumulate drafts")
	}
}

func TestBeginEditDateUnlocks(t *testing.T) {
	s := loaded(t, standardWeek())
	const approved = "2025-01-09"

	if err := s.BeginEditDate(approved); err != nil {
		t.Fatal(err)
	}
	if s.EditingDate() != approved || !s.Editable(approved) {
		t.Fatal("reopened day should be editable")
	}
	if err := s.ToggleDraftRemove(api.Allocation{AllocationID: 601}); err != nil {
		t.Fatal(err)
	}
	if s.Approvable(approved) {
		t.Fatal("the day being edited is never approvable")
	}

	req := s.Batch()
	want := []api.ApprovalIntent{{Date: approved, IsApproved: false}}
	if !reflect.DeepEqual(req.Approvals, want) {
		t.Fatalf("approvals = %+v, want %+v", req.Approvals, want)
	}
	if !reflect.DeepEqual(req.Remove, []int64{601}) {
		t.Fatalf("remove = %v", req.Remove)
	}
}

func TestBeginEditDateIgnoresUnapproved(t *testing.T) {
	s := loaded(t, standardWeek())
	if err := s.BeginEditDate("2025-01-08"); err != nil {
		t.Fatal(err)
	}
	if s.EditingDate() != "" || s.PendingCount() != 0 {
		t.Fatal("reopening an unapproved day should change nothing")
	}
}

// ============================================================
// Approval
// ============================================================

func TestApprovabilityGating(t *testing.T) {
	s := loaded(t, standardWeek())
	const day = "2025-01-08"

	if !s.Approvable(day) {
		t.Fatal("day with a persisted allocation and no drafts should be approvable")
	}
	s.AddDraft(day, "S1", emp33)
	if s.Approvable(day) {
		t.Fatal("pending draft add must block approval")
	}
	if err := s.MarkDayForApproval(day); !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("MarkDayForApproval = %v, want ErrNotApprovable", err)
	}
	s.RemoveDraftAdd(33, "S1", day)
	if !s.Approvable(day) {
		t.Fatal("clearing the draft should restore approvability")
	}

	s.ToggleDraftRemove(api.Allocation{AllocationID: 501})
	if s.Approvable(day) {
		t.Fatal("pending draft remove must block approval")
	}
}

func TestApprovableRequiresOwnAllocation(t *testing.T) {
	fb := standardWeek()
	fb.days[7]["2025-01-11"] = api.DayRecord{Shifts: map[string][]api.Allocation{"S1": {alloc(801, 40, 9, "S1")}}}
	s := loaded(t, fb)

	tests := []struct {
		date string
		want bool
	}{
		{"2025-01-07", false}, // no record
		{"2025-01-09", false}, // already approved
		{"2025-01-10", false}, // holiday with no allocations
		{"2025-01-11", false}, // only another project's allocation
		{"2025-01-08", true},
	}
	for _, tt := range tests {
		if got := s.Approvable(tt.date); got != tt.want {
			t.Fatalf("Approvable(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestDraftWithdrawsApprovalMark(t *testing.T) {
	s := loaded(t, standardWeek())
	const day = "2025-01-08"

	if err := s.MarkDayForApproval(day); err != nil {
		t.Fatal(err)
	}
	if s.Status(day) != StatusPending {
		t.Fatalf("status = %s, want pending approval", s.Status(day))
	}
	s.AddDraft(day, "S1", emp33)
	if s.IsMarkedForApproval(day) {
		t.Fatal("adding a draft should withdraw the approval mark")
	}
}

func TestClearApprovalMark(t *testing.T) {
	s := loaded(t, standardWeek())
	s.MarkDayForApproval("2025-01-08")
	s.ClearApprovalMark("2025-01-08")
	if s.PendingCount() != 0 {
		t.Fatal("mark not cleared")
	}
}

// ============================================================
// Commit
// ============================================================

func TestCommitEmptyMakesNoCall(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)

	sum, err := s.Commit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Empty() || len(fb.batches) != 0 {
		t.Fatal("empty commit should not call the server")
	}
}

func TestCommitFailurePreservesDrafts(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)
	s.AddDraft("2025-01-08", "S1", emp33)
	fetchesBefore := fb.fetches

	fb.applyErr = &api.Error{
		Method: "POST", Path: "/shifts/apply-batch", StatusCode: http.StatusConflict,
		Body: []byte(`{"detail":"Allocation already exists"}`),
	}
	_, err := s.Commit(context.Background())
	var ce *CommitError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommitError, got %v", err)
	}
	if ce.Status != http.StatusConflict || ce.Payload != `{"detail":"Allocation already exists"}` {
		t.Fatalf("commit error = %+v", ce)
	}
	if ce.Message() != "Allocation already exists" {
		t.Fatalf("message = %q", ce.Message())
	}
	if len(s.DraftAdds()) != 1 {
		t.Fatal("failed commit must keep drafts")
	}
	if fb.fetches != fetchesBefore {
		t.Fatal("failed commit should not reload")
	}
}

func TestCommitNetworkFailure(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)
	s.AddDraft("2025-01-08", "S1", emp33)
	fb.applyErr = errors.New("dial tcp: refused")

	_, err := s.Commit(context.Background())
	var ce *CommitError
	if !errors.As(err, &ce) || ce.Status != 0 {
		t.Fatalf("expected status-less *CommitError, got %v", err)
	}
}

func TestCommitSuccessClearsAndReloads(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)
	s.BeginEditDate("2025-01-09")
	s.AddDraft("2025-01-08", "S1", emp33)
	fetchesBefore := fb.fetches

	sum, err := s.Commit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Added != 1 || sum.Unapproved != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(s.DraftAdds()) != 0 || s.EditingDate() != "" || s.PendingCount() != 0 {
		t.Fatal("successful commit should clear all local changes")
	}
	if fb.fetches != fetchesBefore+1 {
		t.Fatal("commit should reload the week")
	}
}

func TestCommitReloadFailure(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)
	s.AddDraft("2025-01-08", "S1", emp33)
	fb.afterApply = func(api.BatchRequest) { fb.fetchErr = errors.New("timeout") }

	sum, err := s.Commit(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if sum.Added != 1 || len(s.DraftAdds()) != 0 {
		t.Fatal("apply succeeded, so drafts should be gone")
	}
}

func TestApprovalIntents(t *testing.T) {
	s := loaded(t, standardWeek())
	s.BeginEditDate("2025-01-09")
	if err := s.MarkDayForApproval("2025-01-08"); err != nil {
		t.Fatal(err)
	}

	want := []api.ApprovalIntent{
		{Date: "2025-01-08", IsApproved: true},
		{Date: "2025-01-09", IsApproved: false},
	}
	if got := s.Batch().Approvals; !reflect.DeepEqual(got, want) {
		t.Fatalf("approvals = %+v, want %+v", got, want)
	}
}

func TestUnapprovalSurvivesEditingMove(t *testing.T) {
	fb := standardWeek()
	fb.days[7]["2025-01-11"] = api.DayRecord{IsApproved: true, Shifts: map[string][]api.Allocation{"S1": {alloc(901, 12, 7, "S1")}}}
	s := loaded(t, fb)

	s.BeginEditDate("2025-01-09")
	s.BeginEditDate("2025-01-11")

	if s.Editable("2025-01-09") {
		t.Fatal("previous reopened day should be locked again")
	}
	if s.Status("2025-01-09") != StatusLocked {
		t.Fatalf("status = %s, want locked", s.Status("2025-01-09"))
	}
	if got := len(s.Batch().Approvals); got != 2 {
		t.Fatalf("expected both un-approvals queued, got %d", got)
	}
}

// ============================================================
// Scope
// ============================================================

func TestProjectChangeClearsEverything(t *testing.T) {
	s := loaded(t, standardWeek())
	s.AddDraft("2025-01-08", "S1", emp33)
	s.ToggleDraftRemove(api.Allocation{AllocationID: 501})
	s.BeginEditDate("2025-01-09")

	if err := s.LoadWeek(context.Background(), 9, "2025-01-06", "2025-01-12"); err != nil {
		t.Fatal(err)
	}
	if len(s.DraftAdds()) != 0 || len(s.DraftRemoves()) != 0 || s.EditingDate() != "" {
		t.Fatal("project change must clear drafts and editing date")
	}
	if s.PendingCount() != 0 {
		t.Fatal("project change must clear marks")
	}
}

func TestScopeChangeResetsBeforeFetch(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)
	s.AddDraft("2025-01-08", "S1", emp33)

	fb.fetchErr = errors.New("down")
	if err := s.LoadWeek(context.Background(), 7, "2025-01-13", "2025-01-19"); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(s.DraftAdds()) != 0 {
		t.Fatal("range change discards drafts even when the fetch fails")
	}
	if from, _ := s.Range(); from != "2025-01-06" {
		t.Fatal("failed load should keep the previous scope")
	}
}

func TestRevert(t *testing.T) {
	fb := standardWeek()
	s := loaded(t, fb)
	s.AddDraft("2025-01-08", "S1", emp33)
	s.MarkDayForApproval("2025-01-07")

	if err := s.Revert(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.PendingCount() != 0 {
		t.Fatal("revert should discard everything")
	}
}

func TestReset(t *testing.T) {
	s := loaded(t, standardWeek())
	s.AddDraft("2025-01-08", "S1", emp33)
	s.BeginEditDate("2025-01-09")

	s.Reset()
	if s.Loaded() || s.ProjectID() != 0 || s.PendingCount() != 0 || s.EditingDate() != "" {
		t.Fatal("reset should forget snapshot, scope and drafts")
	}
	if _, ok := s.Day("2025-01-08"); ok {
		t.Fatal("snapshot survived reset")
	}
	if err := s.AddDraft("2025-01-08", "S1", emp33); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("add after reset = %v, want ErrOutOfRange", err)
	}
}

// ============================================================
// Status and ordering
// ============================================================

func TestStatusOf(t *testing.T) {
	approved := &api.DayRecord{IsApproved: true}
	holiday := &api.DayRecord{IsHoliday: true}
	open := &api.DayRecord{}
	tests := []struct {
		name string
		v    DayView
		want DayStatus
	}{
		{"no record", DayView{}, StatusEditable},
		{"open", DayView{Record: open}, StatusEditable},
		{"holiday", DayView{Record: holiday}, StatusHoliday},
		{"marked", DayView{Record: open, Approving: true}, StatusPending},
		{"approved", DayView{Record: approved}, StatusApproved},
		{"approved editing", DayView{Record: approved, Editing: true, Unapproving: true}, StatusEditable},
		{"approved left after reopen", DayView{Record: approved, Unapproving: true}, StatusLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.v); got != tt.want {
				t.Fatalf("StatusOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSortShifts(t *testing.T) {
	one, two := 1, 2
	shifts := []api.ShiftMaster{
		{ShiftCode: "N", ShiftName: "Night", StartTime: "22:00"},
		{ShiftCode: "E", ShiftName: "Evening", StartTime: "14:00"},
		{ShiftCode: "G", ShiftName: "General", StartTime: "09:00"},
		{ShiftCode: "M", ShiftName: "Morning", StartTime: "06:00:00"},
		{ShiftCode: "L", ShiftName: "Late night", StartTime: "02:00"},
	}
	got := SortShifts(shifts)
	var codes []string
	for _, s := range got {
		codes = append(codes, s.ShiftCode)
	}
	want := []string{"G", "M", "E", "L", "N"}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("order = %v, want %v", codes, want)
	}
	if shifts[0].ShiftCode != "N" {
		t.Fatal("SortShifts must not reorder its input")
	}

	ordered := SortShifts([]api.ShiftMaster{
		{ShiftCode: "B", DisplayOrder: &two},
		{ShiftCode: "A", DisplayOrder: &one},
	})
	if ordered[0].ShiftCode != "A" {
		t.Fatal("display_order should win")
	}
}

// ============================================================
// End to end against the API client
// ============================================================

func TestEndToEndExample(t *testing.T) {
	srv := rostertest.New(t)
	srv.AddProject(7, "Alpha")
	srv.AddEmployee(12, "Asha", 7)
	srv.AddEmployee(33, "A", 7)
	srv.AddShift(7, api.ShiftMaster{
		ShiftCode: "S1", ShiftName: "Morning", StartTime: "06:00", EndTime: "14:00",
		WeekdayAllowance: decimal.NewFromInt(100), WeekendAllowance: decimal.NewFromInt(150),
		EffectiveFrom: "2024-01-01",
	})
	srv.AddAllocation(501, 7, 12, "S1", "2025-01-08", false)

	client := api.NewClient(srv.URL, 5*time.Second, nil)
	client.SetToken(srv.Token())
	s := New(client, nil)
	ctx := context.Background()

	if err := s.LoadWeek(ctx, 7, "2025-01-06", "2025-01-12"); err != nil {
		t.Fatal(err)
	}
	day, ok := s.Day("2025-01-08")
	if !ok || day.IsApproved {
		t.Fatalf("day = %+v", day)
	}
	if here := s.Here("2025-01-08", "S1"); len(here) != 1 || here[0].AllocationID != 501 || here[0].EmpID != 12 {
		t.Fatalf("here = %+v", here)
	}

	if err := s.AddDraft("2025-01-08", "S1", emp33); err != nil {
		t.Fatal(err)
	}
	if len(s.DraftAdds()) != 1 {
		t.Fatal("expected one pending add")
	}
	if err := s.MarkDayForApproval("2025-01-08"); !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("approval with pending draft = %v", err)
	}

	if _, err := s.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	batches := srv.Batches()
	if len(batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches))
	}
	want := api.BatchRequest{
		ProjectID: 7,
		Add:       []api.BatchAdd{{EmpID: 33, ShiftCode: "S1", ShiftDate: "2025-01-08"}},
		Remove:    []int64{},
		Approvals: []api.ApprovalIntent{},
	}
	if !reflect.DeepEqual(batches[0], want) {
		t.Fatalf("batch = %+v, want %+v", batches[0], want)
	}
	if len(s.DraftAdds()) != 0 {
		t.Fatal("drafts should clear on success")
	}
	if here := s.Here("2025-01-08", "S1"); len(here) != 2 {
		t.Fatalf("reloaded day should hold both allocations, got %+v", here)
	}
	if !s.Approvable("2025-01-08") {
		t.Fatal("day should be approvable once the draft is applied")
	}
}

func TestEndToEndConflict(t *testing.T) {
	srv := rostertest.New(t)
	srv.AddProject(7, "Alpha")
	srv.AddEmployee(33, "A", 7)
	srv.AddShift(7, api.ShiftMaster{ShiftCode: "S1", ShiftName: "Morning", StartTime: "06:00", EndTime: "14:00", EffectiveFrom: "2024-01-01"})

	client := api.NewClient(srv.URL, 5*time.Second, nil)
	client.SetToken(srv.Token())
	s := New(client, nil)
	ctx := context.Background()
	if err := s.LoadWeek(ctx, 7, "2025-01-06", "2025-01-12"); err != nil {
		t.Fatal(err)
	}
	s.AddDraft("2025-01-08", "S1", emp33)

	srv.FailNext("/shifts/apply-batch", http.StatusConflict, `{"detail":"Allocation already exists"}`)
	_, err := s.Commit(ctx)
	var ce *CommitError
	if !errors.As(err, &ce) || ce.Status != http.StatusConflict {
		t.Fatalf("expected 409 CommitError, got %v", err)
	}
	if len(s.DraftAdds()) != 1 {
		t.Fatal("drafts must survive a rejected commit")
	}

	if _, err := s.Commit(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(srv.Allocations(7)) != 1 {
		t.Fatal("retry should persist the allocation")
	}
}
