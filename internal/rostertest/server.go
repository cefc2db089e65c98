// Package rostertest provides an in-memory ShiftRoster API for tests.
package rostertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sadopc/roster/internal/api"
)

// Password accepted by the fake login endpoints.
const Password = "secret"

type allocation struct {
	api.Allocation
	approvedBy  string
	lastUpdated time.Time
}

type failure struct {
	status int
	body   string
}

// Server is a fake ShiftRoster backend. All state is guarded by mu and is
// shaped the way the real API returns it.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	token       string
	leadName    string
	projects    map[int64]*api.Project
	employees   map[int64]*api.Employee
	members     map[int64]map[int64]bool
	shifts      map[int64][]api.ShiftMaster
	allocations []*allocation
	holidays    []api.Holiday
	nextAlloc   int64
	nextHoliday int64
	batches     []api.BatchRequest
	calls       map[string]int
	failNext    map[string]failure
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		token:       "test-token",
		leadName:    "Lead One",
		projects:    map[int64]*api.Project{},
		employees:   map[int64]*api.Employee{},
		members:     map[int64]map[int64]bool{},
		shifts:      map[int64][]api.ShiftMaster{},
		nextAlloc:   1000,
		nextHoliday: 1,
		calls:       map[string]int{},
		failNext:    map[string]failure{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Token is the bearer token the server accepts.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the accepted token, invalidating clients holding the old one.
func (s *Server) SetToken(tok string) {
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
}

// ── Seeding ──

func (s *Server) AddProject(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[id] = &api.Project{ProjectID: id, Name: name, IsActive: true,
		Leads: []api.Lead{{LeadID: 1, Name: s.leadName}}}
	if s.members[id] == nil {
		s.members[id] = map[int64]bool{}
	}
}

// AddEmployee registers an employee and assigns them to projectIDs.
func (s *Server) AddEmployee(id int64, name string, projectIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[id] = &api.Employee{EmpID: id, EmpName: name, EmpLName: "", IsActive: true,
		Email: fmt.Sprintf("emp%d@example.com", id)}
	for _, pid := range projectIDs {
		if s.members[pid] == nil {
			s.members[pid] = map[int64]bool{}
		}
		s.members[pid][id] = true
	}
}

func (s *Server) AddShift(projectID int64, sm api.ShiftMaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[projectID] = append(s.shifts[projectID], sm)
}

// AddAllocation stores an allocation with a fixed id and returns it.
func (s *Server) AddAllocation(id, projectID, empID int64, shiftCode, date string, approved bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		s.nextAlloc++
		id = s.nextAlloc
	}
	a := &allocation{
		Allocation: api.Allocation{
			AllocationID: id,
			EmpID:        empID,
			ProjectID:    projectID,
			IsApproved:   approved,
			ShiftCode:    shiftCode,
			Date:         date,
		},
		lastUpdated: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	if approved {
		a.approvedBy = s.leadName
	}
	s.allocations = append(s.allocations, a)
	return id
}

func (s *Server) AddHoliday(projectID *int64, date, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextHoliday
	s.nextHoliday++
	s.holidays = append(s.holidays, api.Holiday{HolidayID: id, HolidayDate: date, HolidayName: name, ProjectID: projectID})
	return id
}

// FailNext makes the next request to path answer status with body.
func (s *Server) FailNext(path string, status int, body string) {
	s.mu.Lock()
	s.failNext[path] = failure{status: status, body: body}
	s.mu.Unlock()
}

// ── Inspection ──

// Batches returns every apply-batch request received, successful or not.
func (s *Server) Batches() []api.BatchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.BatchRequest(nil), s.batches...)
}

// Calls counts requests received for path (without query string).
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Allocations returns the stored allocations of projectID.
func (s *Server) Allocations(projectID int64) []api.Allocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.Allocation
	for _, a := range s.allocations {
		if a.ProjectID == projectID {
			out = append(out, a.Allocation)
		}
	}
	return out
}

func (s *Server) Holidays() []api.Holiday {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Holiday(nil), s.holidays...)
}

func (s *Server) Employee(id int64) (api.Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return api.Employee{}, false
	}
	return *e, true
}

func (s *Server) Project(id int64) (api.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return api.Project{}, false
	}
	return *p, true
}

func (s *Server) IsMember(projectID, empID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[projectID][empID]
}

// ── Routing ──

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.track)

	r.Post("/auth/login", s.login)
	r.Post("/auth/employee/login", s.login)
	r.Post("/auth/send-otp", s.ok)
	r.Post("/auth/employee/send-otp", s.ok)
	r.Post("/auth/reset-password", s.ok)
	r.Post("/auth/employee/reset-password", s.ok)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)

		r.Get("/me/context", s.context)
		r.Get("/me/employee-context", s.context)

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/weekly", s.weekly)
			r.Get("/masters", s.masters)
			r.Get("/employees/available", s.available)
			r.Post("/apply-batch", s.applyBatch)
			r.Get("/projects/{projectID}/shifts/history", s.shiftHistory)
			r.Post("/projects/{projectID}/shifts", s.createShift)
			r.Put("/projects/{projectID}/shifts/{code}", s.updateShift)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.Post("/", s.createProject)
			r.Get("/leads", s.listLeads)
			r.Put("/{projectID}", s.updateProject)
			r.Delete("/{projectID}", s.deleteProject)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", s.listEmployees)
			r.Post("/", s.createEmployee)
			r.Get("/by-project", s.employeesByProject)
			r.Put("/{empID}", s.updateEmployee)
			r.Delete("/{empID}", s.deleteEmployee)
		})

		r.Route("/assignments/projects/{projectID}/employees", func(r chi.Router) {
			r.Get("/", s.assigned)
			r.Get("/available", s.assignable)
			r.Post("/{empID}", s.assign)
			r.Delete("/{empID}", s.unassign)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", s.listHolidays)
			r.Post("/", s.upsertHoliday)
			r.Delete("/{holidayID}", s.deleteHoliday)
		})

		r.Get("/allowances/reports/employee-allowance", s.allowance)
		r.Get("/allowances/reports/employee-allowance/aggregate", s.allowance)
		r.Get("/allowances/reports/employee-allowance/detailed", s.detailed)
	})
	return r
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		f, failing := s.failNext[r.URL.Path]
		delete(s.failNext, r.URL.Path)
		s.mu.Unlock()

		if failing {
			if r.URL.Path == "/shifts/apply-batch" {
				var req api.BatchRequest
				if json.NewDecoder(r.Body).Decode(&req) == nil {
					s.mu.Lock()
					s.batches = append(s.batches, req)
					s.mu.Unlock()
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token() {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Helpers ──

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func idParam(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func queryID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(api.DateLayout, s)
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── Auth ──

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password != Password {
		detail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": s.Token(), "token_type": "bearer"})
}

func (s *Server) context(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.projects))
	for id, p := range s.projects {
		if p.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	uc := api.UserContext{UserType: api.ModeLead, LeadID: 1, Name: s.leadName, IsAdmin: true}
	for _, id := range ids {
		uc.Projects = append(uc.Projects, api.ProjectRef{ProjectID: id, Name: s.projects[id].Name})
	}
	if len(ids) > 0 {
		def := ids[0]
		uc.DefaultProjectID = &def
	}
	writeJSON(w, http.StatusOK, uc)
}

// ── Shifts ──

func (s *Server) weekly(w http.ResponseWriter, r *http.Request) {
	projectID := queryID(r, "project_id")
	from, err1 := parseDate(r.URL.Query().Get("from_date"))
	to, err2 := parseDate(r.URL.Query().Get("to_date"))
	if err1 != nil || err2 != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid date range")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holidayMap := map[string]api.Holiday{}
	for _, h := range s.holidays {
		d, _ := parseDate(h.HolidayDate)
		if d.Before(from) || d.After(to) {
			continue
		}
		if h.ProjectID == nil || *h.ProjectID == projectID {
			holidayMap[h.HolidayDate] = h
		}
	}
	applyHoliday := func(day *api.DayRecord, date string) {
		if h, ok := holidayMap[date]; ok {
			day.IsHoliday = true
			day.HolidayName = h.HolidayName
			day.Scope = "company"
			if h.ProjectID != nil {
				day.Scope = "project"
			}
		}
	}

	result := map[string]*api.DayRecord{}
	latest := map[string]time.Time{}
	for _, a := range s.allocations {
		if a.ProjectID != projectID {
			continue
		}
		d, _ := parseDate(a.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		day, ok := result[a.Date]
		if !ok {
			day = &api.DayRecord{Shifts: map[string][]api.Allocation{}, IsApproved: true}
			applyHoliday(day, a.Date)
			result[a.Date] = day
		}
		if !a.IsApproved {
			day.IsApproved = false
		}
		if a.lastUpdated.After(latest[a.Date]) {
			latest[a.Date] = a.lastUpdated
			day.LastUpdated = a.lastUpdated.Format("2006-01-02T15:04:05")
		}
		if a.IsApproved && a.approvedBy != "" {
			day.ApprovedBy = a.approvedBy
		}
		out := api.Allocation{
			AllocationID: a.AllocationID,
			EmpID:        a.EmpID,
			ProjectID:    a.ProjectID,
			IsApproved:   a.IsApproved,
		}
		if e, ok := s.employees[a.EmpID]; ok {
			out.EmpName = e.EmpName
			out.EmpLName = e.EmpLName
		}
		day.Shifts[a.ShiftCode] = append(day.Shifts[a.ShiftCode], out)
	}
	for date := range holidayMap {
		if _, ok := result[date]; !ok {
			day := &api.DayRecord{Shifts: map[string][]api.Allocation{}}
			applyHoliday(day, date)
			result[date] = day
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func effectiveOn(sm api.ShiftMaster, on string) bool {
	if sm.EffectiveFrom > on {
		return false
	}
	return sm.EffectiveTo == nil || *sm.EffectiveTo >= on
}

func (s *Server) masters(w http.ResponseWriter, r *http.Request) {
	projectID := queryID(r, "project_id")
	on := r.URL.Query().Get("on_date")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.ShiftMaster{}
	for _, sm := range s.shifts[projectID] {
		if (on == "" && sm.EffectiveTo == nil) || (on != "" && effectiveOn(sm, on)) {
			out = append(out, sm)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) shiftHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]api.ShiftMaster{}, s.shifts[idParam(r, "projectID")]...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createShift(w http.ResponseWriter, r *http.Request) {
	projectID := idParam(r, "projectID")
	var in api.ShiftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sm := range s.shifts[projectID] {
		if sm.ShiftCode == in.ShiftCode && sm.EffectiveFrom == in.EffectiveFrom {
			detail(w, http.StatusBadRequest, "Shift already exists for this effective date")
			return
		}
	}
	s.shifts[projectID] = append(s.shifts[projectID], shiftFromInput(in))
	writeJSON(w, http.StatusOK, map[string]string{"status": "created"})
}

func (s *Server) updateShift(w http.ResponseWriter, r *http.Request) {
	projectID := idParam(r, "projectID")
	code := chi.URLParam(r, "code")
	var in api.ShiftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.shifts[projectID]
	for i := range list {
		if list[i].ShiftCode != code || list[i].EffectiveTo != nil {
			continue
		}
		if in.EffectiveFrom <= list[i].EffectiveFrom {
			detail(w, http.StatusBadRequest, "effective_from must be after current effective_from")
			return
		}
		from, _ := parseDate(in.EffectiveFrom)
		end := from.AddDate(0, 0, -1).Format(api.DateLayout)
		list[i].EffectiveTo = &end
		in.ShiftCode = code
		s.shifts[projectID] = append(list, shiftFromInput(in))
		writeJSON(w, http.StatusOK, map[string]string{"status": "versioned"})
		return
	}
	detail(w, http.StatusNotFound, "Active shift not found")
}

func shiftFromInput(in api.ShiftInput) api.ShiftMaster {
	return api.ShiftMaster{
		ShiftCode:        in.ShiftCode,
		ShiftName:        in.ShiftName,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		WeekdayAllowance: in.WeekdayAllowance,
		WeekendAllowance: in.WeekendAllowance,
		EffectiveFrom:    in.EffectiveFrom,
	}
}

func (s *Server) available(w http.ResponseWriter, r *http.Request) {
	projectID := queryID(r, "project_id")
	code := r.URL.Query().Get("shift_code")
	date := r.URL.Query().Get("shift_date")
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := map[int64]bool{}
	for _, a := range s.allocations {
		if a.ProjectID == projectID && a.ShiftCode == code && a.Date == date {
			taken[a.EmpID] = true
		}
	}
	out := []api.Employee{}
	for _, id := range s.sortedMembers(projectID) {
		if !taken[id] {
			e := s.employees[id]
			out = append(out, api.Employee{EmpID: e.EmpID, EmpName: e.EmpName})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sortedMembers(projectID int64) []int64 {
	var ids []int64
	for id := range s.members[projectID] {
		if _, ok := s.employees[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Server) hasShift(projectID int64, code string) bool {
	for _, sm := range s.shifts[projectID] {
		if sm.ShiftCode == code {
			return true
		}
	}
	return false
}

// applyBatch validates the whole request before touching state, so a
// rejected batch changes nothing.
func (s *Server) applyBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, req)

	if _, ok := s.projects[req.ProjectID]; !ok {
		detail(w, http.StatusForbidden, "Not authorized for this project")
		return
	}
	removing := map[int64]bool{}
	for _, id := range req.Remove {
		found := false
		for _, a := range s.allocations {
			if a.AllocationID == id && a.ProjectID == req.ProjectID {
				found = true
				break
			}
		}
		if !found {
			detail(w, http.StatusNotFound, fmt.Sprintf("Allocation %d not found", id))
			return
		}
		removing[id] = true
	}
	for _, add := range req.Add {
		if !s.members[req.ProjectID][add.EmpID] {
			detail(w, http.StatusBadRequest, fmt.Sprintf("Employee %d is not assigned to this project", add.EmpID))
			return
		}
		if !s.hasShift(req.ProjectID, add.ShiftCode) {
			detail(w, http.StatusBadRequest, fmt.Sprintf("Unknown shift %s", add.ShiftCode))
			return
		}
		for _, a := range s.allocations {
			if removing[a.AllocationID] {
				continue
			}
			if a.ProjectID == req.ProjectID && a.EmpID == add.EmpID && a.ShiftCode == add.ShiftCode && a.Date == add.ShiftDate {
				detail(w, http.StatusConflict, "Allocation already exists")
				return
			}
		}
	}

	now := time.Now().UTC()
	kept := s.allocations[:0]
	for _, a := range s.allocations {
		if !removing[a.AllocationID] {
			kept = append(kept, a)
		}
	}
	s.allocations = kept
	for _, add := range req.Add {
		s.nextAlloc++
		s.allocations = append(s.allocations, &allocation{
			Allocation: api.Allocation{
				AllocationID: s.nextAlloc,
				EmpID:        add.EmpID,
				ProjectID:    req.ProjectID,
				ShiftCode:    add.ShiftCode,
				Date:         add.ShiftDate,
			},
			lastUpdated: now,
		})
	}
	for _, ap := range req.Approvals {
		for _, a := range s.allocations {
			if a.ProjectID == req.ProjectID && a.Date == ap.Date {
				a.IsApproved = ap.IsApproved
				a.approvedBy = ""
				if ap.IsApproved {
					a.approvedBy = s.leadName
				}
				a.lastUpdated = now
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// ── Projects ──

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Project{}
	for _, p := range s.projects {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []api.Lead{{LeadID: 1, Name: s.leadName, Email: "lead@example.com"}})
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var in api.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var id int64 = 1
	for pid := range s.projects {
		if pid >= id {
			id = pid + 1
		}
	}
	s.projects[id] = &api.Project{ProjectID: id, Name: in.Name, IsActive: true, Leads: leadsFor(in.LeadIDs, s.leadName)}
	s.members[id] = map[int64]bool{}
	writeJSON(w, http.StatusOK, map[string]any{"project_id": id})
}

func leadsFor(ids []int64, name string) []api.Lead {
	var leads []api.Lead
	for _, id := range ids {
		leads = append(leads, api.Lead{LeadID: id, Name: name})
	}
	return leads
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "projectID")
	var in api.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		detail(w, http.StatusNotFound, "Project not found")
		return
	}
	p.Name = in.Name
	p.IsActive = in.IsActive
	p.Leads = leadsFor(in.LeadIDs, s.leadName)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "projectID")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		detail(w, http.StatusNotFound, "Project not found")
		return
	}
	p.IsActive = false
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ── Employees ──

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Employee{}
	for _, e := range s.employees {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmpID < out[j].EmpID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) employeesByProject(w http.ResponseWriter, r *http.Request) {
	projectID := queryID(r, "project_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Employee{}
	for _, id := range s.sortedMembers(projectID) {
		e := s.employees[id]
		out = append(out, api.Employee{EmpID: e.EmpID, EmpName: e.EmpName, InProject: true})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in api.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.employees[in.EmpID]; exists {
		detail(w, http.StatusBadRequest, "Employee already exists")
		return
	}
	s.employees[in.EmpID] = employeeFromInput(in)
	writeJSON(w, http.StatusOK, map[string]string{"status": "created"})
}

func employeeFromInput(in api.EmployeeInput) *api.Employee {
	return &api.Employee{
		EmpID:         in.EmpID,
		EmpName:       in.EmpName,
		EmpLName:      in.EmpLName,
		Email:         in.Email,
		IsExperienced: in.IsExperienced,
		IsActive:      true,
		ReportingTo:   in.ReportingTo,
	}
}

func (s *Server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "empID")
	var in api.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		detail(w, http.StatusNotFound, "Employee not found")
		return
	}
	s.employees[id] = employeeFromInput(in)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "empID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		detail(w, http.StatusNotFound, "Employee not found")
		return
	}
	delete(s.employees, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ── Assignments ──

func (s *Server) assigned(w http.ResponseWriter, r *http.Request) {
	projectID := idParam(r, "projectID")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Employee{}
	for _, id := range s.sortedMembers(projectID) {
		out = append(out, *s.employees[id])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) assignable(w http.ResponseWriter, r *http.Request) {
	projectID := idParam(r, "projectID")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Employee{}
	for _, e := range s.employees {
		if !s.members[projectID][e.EmpID] {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmpID < out[j].EmpID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) assign(w http.ResponseWriter, r *http.Request) {
	projectID, empID := idParam(r, "projectID"), idParam(r, "empID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[projectID] == nil {
		detail(w, http.StatusNotFound, "Project not found")
		return
	}
	if s.members[projectID][empID] {
		detail(w, http.StatusBadRequest, "Employee already assigned")
		return
	}
	s.members[projectID][empID] = true
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (s *Server) unassign(w http.ResponseWriter, r *http.Request) {
	projectID, empID := idParam(r, "projectID"), idParam(r, "empID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.members[projectID][empID] {
		detail(w, http.StatusNotFound, "Assignment not found")
		return
	}
	delete(s.members[projectID], empID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ── Holidays ──

func (s *Server) listHolidays(w http.ResponseWriter, r *http.Request) {
	projectID := queryID(r, "project_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Holiday{}
	for _, h := range s.holidays {
		if h.ProjectID == nil || (projectID != 0 && *h.ProjectID == projectID) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HolidayDate < out[j].HolidayDate })
	writeJSON(w, http.StatusOK, out)
}

func samePtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Server) upsertHoliday(w http.ResponseWriter, r *http.Request) {
	var in api.HolidayInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.holidays {
		h := &s.holidays[i]
		if h.HolidayDate == in.HolidayDate && samePtr(h.ProjectID, in.ProjectID) {
			h.HolidayName = in.HolidayName
			h.SplAllowance = in.SplAllowance
			writeJSON(w, http.StatusOK, h)
			return
		}
	}
	h := api.Holiday{
		HolidayID:    s.nextHoliday,
		HolidayDate:  in.HolidayDate,
		HolidayName:  in.HolidayName,
		SplAllowance: in.SplAllowance,
		ProjectID:    in.ProjectID,
	}
	s.nextHoliday++
	s.holidays = append(s.holidays, h)
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) deleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "holidayID")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.holidays {
		if h.HolidayID == id {
			s.holidays = append(s.holidays[:i], s.holidays[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
			return
		}
	}
	detail(w, http.StatusNotFound, "Holiday not found")
}

// ── Allowances ──

func (s *Server) catalog(projectID int64) map[string]api.ShiftMaster {
	catalog := map[string]api.ShiftMaster{}
	for pid, list := range s.shifts {
		if projectID != 0 && pid != projectID {
			continue
		}
		for _, sm := range list {
			if sm.EffectiveTo == nil {
				catalog[sm.ShiftCode] = sm
			}
		}
	}
	return catalog
}

// dayType classifies date as weekend, holiday or weekday. Weekend wins.
func (s *Server) dayType(date string) string {
	d, _ := parseDate(date)
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return "weekend"
	}
	for _, h := range s.holidays {
		if h.HolidayDate == date {
			return "holiday"
		}
	}
	return "weekday"
}

func (s *Server) detailed(w http.ResponseWriter, r *http.Request) {
	projectID := queryID(r, "project_id")
	empID := queryID(r, "emp_id")
	from := r.URL.Query().Get("from_date")
	to := r.URL.Query().Get("to_date")

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[empID]
	if !ok {
		detail(w, http.StatusNotFound, "Employee not found")
		return
	}
	out := api.DetailedAllowance{Employee: *e, Daily: []api.AllowanceDay{}}
	catalog := s.catalog(projectID)
	for _, a := range s.allocations {
		if a.EmpID != empID || !a.IsApproved || a.Date < from || a.Date > to {
			continue
		}
		if projectID != 0 && a.ProjectID != projectID {
			continue
		}
		sm, ok := catalog[a.ShiftCode]
		if !ok {
			continue
		}
		typ := s.dayType(a.Date)
		amount := sm.WeekdayAllowance
		switch typ {
		case "weekend":
			out.Summary.WeekendCount++
			amount = sm.WeekendAllowance
		case "holiday":
			out.Summary.HolidayCount++
			amount = sm.WeekendAllowance
		default:
			out.Summary.WeekdayCount++
		}
		out.Summary.TotalAllowance = out.Summary.TotalAllowance.Add(amount)
		project := ""
		if p, ok := s.projects[a.ProjectID]; ok {
			project = p.Name
		}
		out.Daily = append(out.Daily, api.AllowanceDay{
			Date: a.Date, Project: project, ShiftCode: a.ShiftCode,
			Type: typ, Allowance: amount, Employee: e.FullName(),
		})
	}
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].Date < out.Daily[j].Date })
	writeJSON(w, http.StatusOK, out)
}

// allowance mirrors the server rule: approved allocations only; weekend and
// holiday shifts pay the weekend rate, everything else the weekday rate.
func (s *Server) allowance(w http.ResponseWriter, r *http.Request) {
	projectID := queryID(r, "project_id")
	from := r.URL.Query().Get("from_date")
	to := r.URL.Query().Get("to_date")

	s.mu.Lock()
	defer s.mu.Unlock()

	report := api.AllowanceReport{Shifts: []api.ReportShift{}, Rows: []api.AllowanceRow{}}
	catalog := s.catalog(projectID)
	for _, sm := range catalog {
		report.Shifts = append(report.Shifts, api.ReportShift{
			ShiftCode: sm.ShiftCode, ShiftName: sm.ShiftName,
			StartTime: sm.StartTime, EndTime: sm.EndTime,
			WeekdayAllowance: sm.WeekdayAllowance, WeekendAllowance: sm.WeekendAllowance,
		})
	}
	sort.Slice(report.Shifts, func(i, j int) bool { return report.Shifts[i].ShiftCode < report.Shifts[j].ShiftCode })

	rows := map[int64]*api.AllowanceRow{}
	for _, a := range s.allocations {
		if !a.IsApproved || a.Date < from || a.Date > to {
			continue
		}
		if projectID != 0 && a.ProjectID != projectID {
			continue
		}
		sm, ok := catalog[a.ShiftCode]
		if !ok {
			continue
		}
		row, ok := rows[a.EmpID]
		if !ok {
			row = &api.AllowanceRow{EmpID: a.EmpID, ShiftCounts: map[string]int{}}
			if e, ok := s.employees[a.EmpID]; ok {
				row.EmpName, row.EmpLName = e.EmpName, e.EmpLName
			}
			rows[a.EmpID] = row
		}
		var amount decimal.Decimal
		switch s.dayType(a.Date) {
		case "weekend":
			row.WeekendShiftCount++
			amount = sm.WeekendAllowance
		case "holiday":
			row.HolidayShiftCount++
			amount = sm.WeekendAllowance
		default:
			row.ShiftCounts[a.ShiftCode]++
			amount = sm.WeekdayAllowance
		}
		row.TotalAllowance = row.TotalAllowance.Add(amount)
	}
	for _, row := range rows {
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].EmpID < report.Rows[j].EmpID })
	writeJSON(w, http.StatusOK, report)
}
