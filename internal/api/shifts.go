package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

func projectQuery(projectID int64) url.Values {
	q := url.Values{}
	q.Set("project_id", strconv.FormatInt(projectID, 10))
	return q
}

// WeeklyAllocation fetches the date → DayRecord snapshot for [from, to] as
// the server sends it. The session fills Allocation.ShiftCode and Date.
func (c *Client) WeeklyAllocation(ctx context.Context, projectID int64, from, to string) (map[string]DayRecord, error) {
	q := projectQuery(projectID)
	q.Set("from_date", from)
	q.Set("to_date", to)

	days := map[string]DayRecord{}
	if err := c.get(ctx, "/shifts/weekly", q, &days); err != nil {
		return nil, fmt.Errorf("weekly allocation: %w", err)
	}
	return days, nil
}

// ShiftMasters returns the shift catalog effective on onDate. An empty onDate
// lets the server pick today.
func (c *Client) ShiftMasters(ctx context.Context, projectID int64, onDate string) ([]ShiftMaster, error) {
	q := projectQuery(projectID)
	if onDate != "" {
		q.Set("on_date", onDate)
	}
	var shifts []ShiftMaster
	if err := c.get(ctx, "/shifts/masters", q, &shifts); err != nil {
		return nil, fmt.Errorf("shift masters: %w", err)
	}
	return shifts, nil
}

func (c *Client) ShiftHistory(ctx context.Context, projectID int64) ([]ShiftMaster, error) {
	var shifts []ShiftMaster
	path := fmt.Sprintf("/shifts/projects/%d/shifts/history", projectID)
	if err := c.get(ctx, path, nil, &shifts); err != nil {
		return nil, fmt.Errorf("shift history: %w", err)
	}
	return shifts, nil
}

func (c *Client) CreateShift(ctx context.Context, projectID int64, in ShiftInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	path := fmt.Sprintf("/shifts/projects/%d/shifts", projectID)
	if err := c.post(ctx, path, in, nil); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

// UpdateShift creates a new effective-dated version of shiftCode; history is
// never rewritten.
func (c *Client) UpdateShift(ctx context.Context, projectID int64, shiftCode string, in ShiftInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	path := fmt.Sprintf("/shifts/projects/%d/shifts/%s", projectID, url.PathEscape(shiftCode))
	if err := c.put(ctx, path, in, nil); err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return nil
}

// AvailableEmployees lists project members not yet on shiftCode at date.
func (c *Client) AvailableEmployees(ctx context.Context, projectID int64, shiftCode, date string) ([]Employee, error) {
	q := projectQuery(projectID)
	q.Set("shift_code", shiftCode)
	q.Set("shift_date", date)
	var emps []Employee
	if err := c.get(ctx, "/shifts/employees/available", q, &emps); err != nil {
		return nil, fmt.Errorf("available employees: %w", err)
	}
	return emps, nil
}

// ApplyBatch submits adds, removals and approval flips in one request.
func (c *Client) ApplyBatch(ctx context.Context, req BatchRequest) error {
	if req.Add == nil {
		req.Add = []BatchAdd{}
	}
	if req.Remove == nil {
		req.Remove = []int64{}
	}
	if req.Approvals == nil {
		req.Approvals = []ApprovalIntent{}
	}
	if err := c.post(ctx, "/shifts/apply-batch", req, nil); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}
