package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// AllowanceReport fetches per-employee allowance totals for [from, to]. A
// zero projectID requests the cross-project aggregate.
func (c *Client) AllowanceReport(ctx context.Context, projectID int64, from, to string) (*AllowanceReport, error) {
	path := "/allowances/reports/employee-allowance"
	q := url.Values{}
	if projectID != 0 {
		q.Set("project_id", strconv.FormatInt(projectID, 10))
	} else {
		path += "/aggregate"
	}
	q.Set("from_date", from)
	q.Set("to_date", to)

	var report AllowanceReport
	if err := c.get(ctx, path, q, &report); err != nil {
		return nil, fmt.Errorf("allowance report: %w", err)
	}
	return &report, nil
}

// DetailedAllowance returns the day-by-day allowance lines of one employee.
func (c *Client) DetailedAllowance(ctx context.Context, projectID, empID int64, from, to string) (*DetailedAllowance, error) {
	q := url.Values{}
	if projectID != 0 {
		q.Set("project_id", strconv.FormatInt(projectID, 10))
	}
	if empID != 0 {
		q.Set("emp_id", strconv.FormatInt(empID, 10))
	}
	q.Set("from_date", from)
	q.Set("to_date", to)

	var d DetailedAllowance
	if err := c.get(ctx, "/allowances/reports/employee-allowance/detailed", q, &d); err != nil {
		return nil, fmt.Errorf("detailed allowance: %w", err)
	}
	return &d, nil
}
