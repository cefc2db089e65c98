package api

import "github.com/shopspring/decimal"

// DateLayout is the wire format of every calendar date the API exchanges.
const DateLayout = "2006-01-02"

// Login modes select between the lead and employee auth endpoints.
const (
	ModeLead     = "lead"
	ModeEmployee = "employee"
)

type ShiftMaster struct {
	ShiftCode        string          `json:"shift_code"`
	ShiftName        string          `json:"shift_name"`
	StartTime        string          `json:"start_time"`
	EndTime          string          `json:"end_time"`
	WeekdayAllowance decimal.Decimal `json:"weekday_allowance"`
	WeekendAllowance decimal.Decimal `json:"weekend_allowance"`
	EffectiveFrom    string          `json:"effective_from"`
	EffectiveTo      *string         `json:"effective_to,omitempty"`
	DisplayOrder     *int            `json:"display_order,omitempty"`
}

// Allocation is one employee on one shift on one date for one project.
// ShiftCode and Date are filled in from the enclosing weekly snapshot keys.
type Allocation struct {
	AllocationID int64  `json:"allocation_id"`
	EmpID        int64  `json:"emp_id"`
	EmpName      string `json:"emp_name"`
	EmpLName     string `json:"emp_lname,omitempty"`
	ProjectID    int64  `json:"project_id"`
	IsApproved   bool   `json:"is_approved"`
	ShiftCode    string `json:"shift_code,omitempty"`
	Date         string `json:"date,omitempty"`
}

// DayRecord is the server's view of one date in a weekly snapshot.
type DayRecord struct {
	Shifts      map[string][]Allocation `json:"shifts"`
	IsApproved  bool                    `json:"is_approved"`
	ApprovedBy  string                  `json:"approved_by"`
	LastUpdated string                  `json:"last_updated"`
	IsHoliday   bool                    `json:"is_holiday"`
	HolidayName string                  `json:"holiday_name"`
	Scope       string                  `json:"scope"`
}

// Allocations returns every allocation on the day, in no particular order.
func (d DayRecord) Allocations() []Allocation {
	var all []Allocation
	for _, list := range d.Shifts {
		all = append(all, list...)
	}
	return all
}

type Employee struct {
	EmpID         int64  `json:"emp_id"`
	EmpName       string `json:"emp_name"`
	EmpLName      string `json:"emp_lname,omitempty"`
	Email         string `json:"email,omitempty"`
	IsExperienced bool   `json:"is_experienced"`
	IsActive      bool   `json:"is_active"`
	ReportingTo   *int64 `json:"reporting_to,omitempty"`
	LeadName      string `json:"lead_name,omitempty"`
	InProject     bool   `json:"in_project,omitempty"`
}

// FullName joins first and last name, tolerating a missing last name.
func (e Employee) FullName() string {
	if e.EmpLName == "" {
		return e.EmpName
	}
	return e.EmpName + " " + e.EmpLName
}

type Lead struct {
	LeadID int64  `json:"lead_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

type Project struct {
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	Leads     []Lead `json:"leads,omitempty"`
}

type Holiday struct {
	HolidayID    int64           `json:"holiday_id"`
	HolidayDate  string          `json:"holiday_date"`
	HolidayName  string          `json:"holiday_name"`
	SplAllowance decimal.Decimal `json:"spl_allowance"`
	ProjectID    *int64          `json:"project_id"`
}

// ProjectRef is the short project form carried in the session context.
type ProjectRef struct {
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
}

// UserContext is what /me/context (or /me/employee-context) returns.
type UserContext struct {
	UserType         string       `json:"user_type"`
	LeadID           int64        `json:"lead_id,omitempty"`
	EmpID            int64        `json:"emp_id,omitempty"`
	Name             string       `json:"name"`
	IsAdmin          bool         `json:"is_admin,omitempty"`
	Projects         []ProjectRef `json:"projects"`
	DefaultProjectID *int64       `json:"default_project_id"`
}

// BatchAdd is one pending allocation in an apply-batch request.
type BatchAdd struct {
	EmpID     int64  `json:"emp_id"`
	ShiftCode string `json:"shift_code"`
	ShiftDate string `json:"shift_date"`
}

type ApprovalIntent struct {
	Date       string `json:"date"`
	IsApproved bool   `json:"is_approved"`
}

// BatchRequest is the body of POST /shifts/apply-batch. Add, Remove and
// Approvals must be non-nil so they encode as arrays.
type BatchRequest struct {
	ProjectID int64            `json:"project_id"`
	Add       []BatchAdd       `json:"add"`
	Remove    []int64          `json:"remove"`
	Approvals []ApprovalIntent `json:"approvals"`
}

// Empty reports whether the request carries no change at all.
func (b BatchRequest) Empty() bool {
	return len(b.Add) == 0 && len(b.Remove) == 0 && len(b.Approvals) == 0
}

type ReportShift struct {
	ShiftCode        string          `json:"shift_code"`
	ShiftName        string          `json:"shift_name"`
	StartTime        string          `json:"start_time"`
	EndTime          string          `json:"end_time"`
	WeekdayAllowance decimal.Decimal `json:"weekday_allowance"`
	WeekendAllowance decimal.Decimal `json:"weekend_allowance"`
}

type AllowanceRow struct {
	EmpID             int64           `json:"emp_id"`
	EmpName           string          `json:"emp_name"`
	EmpLName          string          `json:"emp_lname,omitempty"`
	ShiftCounts       map[string]int  `json:"shift_counts"`
	WeekendShiftCount int             `json:"weekend_shift_count"`
	HolidayShiftCount int             `json:"holiday_shift_count"`
	TotalAllowance    decimal.Decimal `json:"total_allowance"`
}

func (r AllowanceRow) FullName() string {
	if r.EmpLName == "" {
		return r.EmpName
	}
	return r.EmpName + " " + r.EmpLName
}

type AllowanceReport struct {
	Shifts []ReportShift  `json:"shifts"`
	Rows   []AllowanceRow `json:"rows"`
}

// GrandTotal sums every row's total allowance.
func (r AllowanceReport) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, row := range r.Rows {
		total = total.Add(row.TotalAllowance)
	}
	return total
}

type AllowanceSummary struct {
	WeekdayCount   int             `json:"weekday_count"`
	WeekendCount   int             `json:"weekend_count"`
	HolidayCount   int             `json:"holiday_count"`
	TotalAllowance decimal.Decimal `json:"total_allowance"`
}

type AllowanceDay struct {
	Date      string          `json:"date"`
	Project   string          `json:"project"`
	ShiftCode string          `json:"shift_code"`
	Type      string          `json:"type"`
	Allowance decimal.Decimal `json:"allowance"`
	Employee  string          `json:"employee"`
}

type DetailedAllowance struct {
	Employee Employee         `json:"employee"`
	Summary  AllowanceSummary `json:"summary"`
	Daily    []AllowanceDay   `json:"daily"`
}
