package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ── Projects ──

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/projects/", nil, &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (c *Client) Leads(ctx context.Context) ([]Lead, error) {
	var leads []Lead
	if err := c.get(ctx, "/projects/leads", nil, &leads); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (c *Client) CreateProject(ctx context.Context, in ProjectInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	if err := c.post(ctx, "/projects/", in, nil); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (c *Client) UpdateProject(ctx context.Context, projectID int64, in ProjectInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	if err := c.put(ctx, fmt.Sprintf("/projects/%d", projectID), in, nil); err != nil {
		return fmt.Errorf("update project %d: %w", projectID, err)
	}
	return nil
}

func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/projects/%d", projectID)); err != nil {
		return fmt.Errorf("delete project %d: %w", projectID, err)
	}
	return nil
}

// ── Employees ──

func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var emps []Employee
	if err := c.get(ctx, "/employees/", nil, &emps); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return emps, nil
}

// ProjectEmployees lists the employees assigned to projectID.
func (c *Client) ProjectEmployees(ctx context.Context, projectID int64) ([]Employee, error) {
	var emps []Employee
	if err := c.get(ctx, "/employees/by-project", projectQuery(projectID), &emps); err != nil {
		return nil, fmt.Errorf("project employees: %w", err)
	}
	return emps, nil
}

func (c *Client) CreateEmployee(ctx context.Context, in EmployeeInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	if err := c.post(ctx, "/employees/", in, nil); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

func (c *Client) UpdateEmployee(ctx context.Context, empID int64, in EmployeeInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	if err := c.put(ctx, fmt.Sprintf("/employees/%d", empID), in, nil); err != nil {
		return fmt.Errorf("update employee %d: %w", empID, err)
	}
	return nil
}

func (c *Client) DeleteEmployee(ctx context.Context, empID int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/employees/%d", empID)); err != nil {
		return fmt.Errorf("delete employee %d: %w", empID, err)
	}
	return nil
}

// ── Assignments ──

func (c *Client) AssignedEmployees(ctx context.Context, projectID int64) ([]Employee, error) {
	var emps []Employee
	path := fmt.Sprintf("/assignments/projects/%d/employees", projectID)
	if err := c.get(ctx, path, nil, &emps); err != nil {
		return nil, fmt.Errorf("assigned employees: %w", err)
	}
	return emps, nil
}

// AssignableEmployees lists employees not yet assigned to projectID.
func (c *Client) AssignableEmployees(ctx context.Context, projectID int64) ([]Employee, error) {
	var emps []Employee
	path := fmt.Sprintf("/assignments/projects/%d/employees/available", projectID)
	if err := c.get(ctx, path, nil, &emps); err != nil {
		return nil, fmt.Errorf("assignable employees: %w", err)
	}
	return emps, nil
}

func (c *Client) AssignEmployee(ctx context.Context, projectID, empID int64) error {
	path := fmt.Sprintf("/assignments/projects/%d/employees/%d", projectID, empID)
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("assign employee %d: %w", empID, err)
	}
	return nil
}

func (c *Client) UnassignEmployee(ctx context.Context, projectID, empID int64) error {
	path := fmt.Sprintf("/assignments/projects/%d/employees/%d", projectID, empID)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("unassign employee %d: %w", empID, err)
	}
	return nil
}

// ── Holidays ──

// Holidays lists company-wide holidays plus those of projectID (0 = company only).
func (c *Client) Holidays(ctx context.Context, projectID int64) ([]Holiday, error) {
	q := url.Values{}
	if projectID != 0 {
		q.Set("project_id", strconv.FormatInt(projectID, 10))
	}
	var holidays []Holiday
	if err := c.get(ctx, "/holidays/", q, &holidays); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// UpsertHoliday creates the holiday or renames the one already on that date.
func (c *Client) UpsertHoliday(ctx context.Context, in HolidayInput) (*Holiday, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var h Holiday
	if err := c.post(ctx, "/holidays/", in, &h); err != nil {
		return nil, fmt.Errorf("upsert holiday %s: %w", in.HolidayDate, err)
	}
	return &h, nil
}

func (c *Client) DeleteHoliday(ctx context.Context, holidayID int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/holidays/%d", holidayID)); err != nil {
		return fmt.Errorf("delete holiday %d: %w", holidayID, err)
	}
	return nil
}
