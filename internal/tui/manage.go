package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/calendar"
)

type manageSection int

const (
	sectionProjects manageSection = iota
	sectionEmployees
	sectionShifts
	sectionHolidays
	sectionTeam
)

var sectionNames = []string{"Projects", "Employees", "Shifts", "Holidays", "Team"}

// manageModel edits master data: projects, employees, shift versions,
// holidays and the project's team.
type manageModel struct {
	client *api.Client
	ws     *workspace
	width  int
	height int

	section manageSection
	cursor  int

	projects   []api.Project
	leads      []api.Lead
	employees  []api.Employee
	shifts     []api.ShiftMaster
	holidays   []api.Holiday
	assigned   []api.Employee
	assignable []api.Employee

	picking    bool
	pickCursor int

	formActive bool
	form       *huh.Form
	formType   string // "project", "edit_project", "employee", "edit_employee", "shift", "edit_shift", "holiday", "import", "delete"

	// Form field pointers (survive value copies)
	fName      *string
	fLast      *string
	fEmail     *string
	fEmpID     *string
	fCode      *string
	fStart     *string
	fEnd       *string
	fWeekday   *string
	fWeekend   *string
	fDate      *string
	fAllowance *string
	fPath      *string
	fActive    *bool
	fFlag      *bool
	fConfirm   *bool
	fLeadIDs   *[]int64
	fReporting *int64

	editingID   int64
	editingCode string
}

func newManageModel(c *api.Client, ws *workspace) manageModel {
	var (
		name, last, email, empID, code string
		start, end, weekday, weekend   string
		date, allowance, path          string
		active, flag, confirm          bool
		leadIDs                        []int64
		reporting                      int64
	)
	return manageModel{
		client:     c,
		ws:         ws,
		fName:      &name,
		fLast:      &last,
		fEmail:     &email,
		fEmpID:     &empID,
		fCode:      &code,
		fStart:     &start,
		fEnd:       &end,
		fWeekday:   &weekday,
		fWeekend:   &weekend,
		fDate:      &date,
		fAllowance: &allowance,
		fPath:      &path,
		fActive:    &active,
		fFlag:      &flag,
		fConfirm:   &confirm,
		fLeadIDs:   &leadIDs,
		fReporting: &reporting,
	}
}

func (m *manageModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type manageDataMsg struct {
	section    manageSection
	projects   []api.Project
	leads      []api.Lead
	employees  []api.Employee
	shifts     []api.ShiftMaster
	holidays   []api.Holiday
	assigned   []api.Employee
	assignable []api.Employee
	err        error
}

type manageSavedMsg struct {
	text string
}

func (m manageModel) refresh() tea.Cmd {
	client, pid, section := m.client, m.ws.projectID, m.section
	return func() tea.Msg {
		ctx := context.Background()
		msg := manageDataMsg{section: section}
		switch section {
		case sectionProjects:
			msg.projects, msg.err = client.Projects(ctx)
			if msg.err == nil {
				msg.leads, msg.err = client.Leads(ctx)
			}
		case sectionEmployees:
			msg.employees, msg.err = client.Employees(ctx)
			if msg.err == nil {
				msg.leads, msg.err = client.Leads(ctx)
			}
		case sectionShifts:
			msg.shifts, msg.err = client.ShiftHistory(ctx, pid)
		case sectionHolidays:
			msg.holidays, msg.err = client.Holidays(ctx, pid)
		case sectionTeam:
			msg.assigned, msg.err = client.AssignedEmployees(ctx, pid)
			if msg.err == nil {
				msg.assignable, msg.err = client.AssignableEmployees(ctx, pid)
			}
		}
		return msg
	}
}

// mutate runs fn and reports text on success.
func (m manageModel) mutate(text string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return failMsg("Save failed", err)
		}
		return manageSavedMsg{text: text}
	}
}

func (m manageModel) count() int {
	switch m.section {
	case sectionProjects:
		return len(m.projects)
	case sectionEmployees:
		return len(m.employees)
	case sectionShifts:
		return len(m.shifts)
	case sectionHolidays:
		return len(m.holidays)
	case sectionTeam:
		return len(m.assigned)
	}
	return 0
}

func (m manageModel) update(msg tea.Msg) (manageModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case manageDataMsg:
		if msg.section != m.section {
			return m, nil
		}
		if msg.err != nil {
			return m, func() tea.Msg { return failMsg("Load failed", msg.err) }
		}
		switch msg.section {
		case sectionProjects:
			m.projects, m.leads = msg.projects, msg.leads
		case sectionEmployees:
			m.employees, m.leads = msg.employees, msg.leads
		case sectionShifts:
			m.shifts = msg.shifts
		case sectionHolidays:
			m.holidays = msg.holidays
		case sectionTeam:
			m.assigned, m.assignable = msg.assigned, msg.assignable
		}
		if m.cursor >= m.count() {
			m.cursor = max(0, m.count()-1)
		}
		return m, nil

	case manageSavedMsg:
		return m, tea.Batch(statusCmd(msg.text), m.refresh())

	case tea.KeyMsg:
		if !m.ws.isLead() {
			return m, nil
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m manageModel) updateList(msg tea.KeyMsg) (manageModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left):
		if m.section > 0 {
			m.section--
			m.cursor = 0
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Right):
		if int(m.section) < len(sectionNames)-1 {
			m.section++
			m.cursor = 0
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < m.count()-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Reload):
		return m, m.refresh()
	case key.Matches(msg, keys.New):
		return m.showNewForm()
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if m.count() > 0 {
			return m.showEditForm()
		}
	case key.Matches(msg, keys.Delete):
		if m.count() > 0 && m.section != sectionShifts {
			return m.showDeleteForm()
		}
	case key.Matches(msg, keys.Import):
		if m.section == sectionHolidays {
			return m.showImportForm()
		}
	}
	return m, nil
}

func (m manageModel) updatePicker(msg tea.KeyMsg) (manageModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.pickCursor > 0 {
			m.pickCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.pickCursor < len(m.assignable)-1 {
			m.pickCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.picking = false
		if len(m.assignable) == 0 {
			return m, nil
		}
		emp := m.assignable[m.pickCursor]
		client, pid := m.client, m.ws.projectID
		return m, m.mutate(emp.FullName()+" assigned", func(ctx context.Context) error {
			return client.AssignEmployee(ctx, pid, emp.EmpID)
		})
	case key.Matches(msg, keys.Back):
		m.picking = false
	}
	return m, nil
}

// --- Forms ---

func (m manageModel) leadOptions() []huh.Option[int64] {
	opts := make([]huh.Option[int64], 0, len(m.leads))
	for _, l := range m.leads {
		opts = append(opts, huh.NewOption(l.Name, l.LeadID))
	}
	return opts
}

func decimalField(s string) error {
	if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
		return errors.New("not a number")
	}
	return nil
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (m manageModel) openForm(formType string, groups ...*huh.Group) (manageModel, tea.Cmd) {
	m.formType = formType
	m.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m manageModel) projectForm(formType string) (manageModel, tea.Cmd) {
	return m.openForm(formType, huh.NewGroup(
		huh.NewInput().Title("Project Name").Value(m.fName).Validate(requiredField("name")),
		huh.NewConfirm().Title("Active").Value(m.fActive),
		huh.NewMultiSelect[int64]().Title("Leads").Options(m.leadOptions()...).Value(m.fLeadIDs),
	))
}

func (m manageModel) employeeForm(formType string) (manageModel, tea.Cmd) {
	reporting := append([]huh.Option[int64]{huh.NewOption("none", int64(0))}, m.leadOptions()...)
	fields := []huh.Field{}
	if formType == "employee" {
		fields = append(fields, huh.NewInput().Title("Employee ID").Value(m.fEmpID).Validate(func(s string) error {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil || n <= 0 {
				return errors.New("a positive number")
			}
			return nil
		}))
	}
	fields = append(fields,
		huh.NewInput().Title("First name").Value(m.fName).Validate(requiredField("first name")),
		huh.NewInput().Title("Last name").Value(m.fLast).Validate(requiredField("last name")),
		huh.NewInput().Title("Email").Value(m.fEmail).Validate(requiredField("email")),
		huh.NewConfirm().Title("Experienced").Value(m.fFlag),
		huh.NewSelect[int64]().Title("Reports to").Options(reporting...).Value(m.fReporting),
	)
	return m.openForm(formType, huh.NewGroup(fields...))
}

func (m manageModel) shiftForm(formType string) (manageModel, tea.Cmd) {
	fields := []huh.Field{}
	if formType == "shift" {
		fields = append(fields, huh.NewInput().Title("Shift code").Value(m.fCode).Validate(requiredField("code")))
	}
	fields = append(fields,
		huh.NewInput().Title("Shift name").Value(m.fName).Validate(requiredField("name")),
		huh.NewInput().Title("Start (HH:MM)").Value(m.fStart),
		huh.NewInput().Title("End (HH:MM)").Value(m.fEnd),
		huh.NewInput().Title("Weekday allowance").Value(m.fWeekday).Validate(decimalField),
		huh.NewInput().Title("Weekend allowance").Value(m.fWeekend).Validate(decimalField),
		huh.NewInput().Title("Effective from (YYYY-MM-DD)").Value(m.fDate),
	)
	group := huh.NewGroup(fields...)
	if formType == "edit_shift" {
		group = group.Description("Saving creates a new version from the effective date.")
	}
	return m.openForm(formType, group)
}

func (m manageModel) showNewForm() (manageModel, tea.Cmd) {
	switch m.section {
	case sectionProjects:
		*m.fName, *m.fActive, *m.fLeadIDs = "", true, nil
		return m.projectForm("project")
	case sectionEmployees:
		*m.fEmpID, *m.fName, *m.fLast, *m.fEmail = "", "", "", ""
		*m.fFlag, *m.fReporting = false, 0
		return m.employeeForm("employee")
	case sectionShifts:
		*m.fCode, *m.fName, *m.fStart, *m.fEnd = "", "", "09:00", "18:00"
		*m.fWeekday, *m.fWeekend = "0", "0"
		*m.fDate = today().Format(api.DateLayout)
		return m.shiftForm("shift")
	case sectionHolidays:
		*m.fDate, *m.fName, *m.fAllowance, *m.fFlag = today().Format(api.DateLayout), "", "0", false
		return m.openForm("holiday", huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(m.fDate),
			huh.NewInput().Title("Name").Value(m.fName).Validate(requiredField("name")),
			huh.NewInput().Title("Special allowance").Value(m.fAllowance).Validate(decimalField),
			huh.NewConfirm().Title("Company-wide").Description("No: applies to "+m.ws.projectName()+" only").Value(m.fFlag),
		))
	case sectionTeam:
		if len(m.assignable) == 0 {
			return m, statusCmd("Everyone is already on this project")
		}
		m.picking = true
		m.pickCursor = 0
	}
	return m, nil
}

func (m manageModel) showEditForm() (manageModel, tea.Cmd) {
	switch m.section {
	case sectionProjects:
		p := m.projects[m.cursor]
		m.editingID = p.ProjectID
		*m.fName, *m.fActive = p.Name, p.IsActive
		ids := make([]int64, 0, len(p.Leads))
		for _, l := range p.Leads {
			ids = append(ids, l.LeadID)
		}
		*m.fLeadIDs = ids
		return m.projectForm("edit_project")
	case sectionEmployees:
		e := m.employees[m.cursor]
		m.editingID = e.EmpID
		*m.fName, *m.fLast, *m.fEmail, *m.fFlag = e.EmpName, e.EmpLName, e.Email, e.IsExperienced
		*m.fReporting = 0
		if e.ReportingTo != nil {
			*m.fReporting = *e.ReportingTo
		}
		return m.employeeForm("edit_employee")
	case sectionShifts:
		s := m.shifts[m.cursor]
		m.editingCode = s.ShiftCode
		*m.fName, *m.fStart, *m.fEnd = s.ShiftName, s.StartTime, s.EndTime
		*m.fWeekday, *m.fWeekend = s.WeekdayAllowance.String(), s.WeekendAllowance.String()
		*m.fDate = today().Format(api.DateLayout)
		return m.shiftForm("edit_shift")
	case sectionHolidays:
		h := m.holidays[m.cursor]
		*m.fDate, *m.fName, *m.fAllowance = h.HolidayDate, h.HolidayName, h.SplAllowance.String()
		*m.fFlag = h.ProjectID == nil
		return m.openForm("holiday", huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(m.fDate),
			huh.NewInput().Title("Name").Value(m.fName).Validate(requiredField("name")),
			huh.NewInput().Title("Special allowance").Value(m.fAllowance).Validate(decimalField),
			huh.NewConfirm().Title("Company-wide").Value(m.fFlag),
		))
	}
	return m, nil
}

func (m manageModel) showDeleteForm() (manageModel, tea.Cmd) {
	var what string
	switch m.section {
	case sectionProjects:
		what = "project " + m.projects[m.cursor].Name
	case sectionEmployees:
		what = "employee " + m.employees[m.cursor].FullName()
	case sectionHolidays:
		what = "holiday " + m.holidays[m.cursor].HolidayName
	case sectionTeam:
		what = m.assigned[m.cursor].FullName() + " from " + m.ws.projectName()
	}
	*m.fConfirm = false
	return m.openForm("delete", huh.NewGroup(
		huh.NewConfirm().Title("Remove "+what+"?").Affirmative("Remove").Negative("Keep").Value(m.fConfirm),
	))
}

func (m manageModel) showImportForm() (manageModel, tea.Cmd) {
	*m.fPath, *m.fAllowance, *m.fFlag = "", "0", true
	return m.openForm("import", huh.NewGroup(
		huh.NewInput().Title("Calendar file (.ics)").Value(m.fPath).Validate(requiredField("path")),
		huh.NewInput().Title("Special allowance").Value(m.fAllowance).Validate(decimalField),
		huh.NewConfirm().Title("Company-wide").Value(m.fFlag),
	).Description("Existing holidays on the same dates are renamed."))
}

func (m manageModel) updateForm(msg tea.Msg) (manageModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, m.submit()
	}
	return m, cmd
}

func (m manageModel) holidayScope() *int64 {
	if *m.fFlag {
		return nil
	}
	pid := m.ws.projectID
	return &pid
}

// submit turns the completed form into one API call.
func (m manageModel) submit() tea.Cmd {
	client, pid := m.client, m.ws.projectID
	trim := strings.TrimSpace

	switch m.formType {
	case "project", "edit_project":
		in := api.ProjectInput{Name: trim(*m.fName), IsActive: *m.fActive, LeadIDs: append([]int64(nil), *m.fLeadIDs...)}
		if m.formType == "project" {
			return m.mutate("Project created", func(ctx context.Context) error { return client.CreateProject(ctx, in) })
		}
		id := m.editingID
		return m.mutate("Project updated", func(ctx context.Context) error { return client.UpdateProject(ctx, id, in) })

	case "employee", "edit_employee":
		in := api.EmployeeInput{
			EmpName:       trim(*m.fName),
			EmpLName:      trim(*m.fLast),
			Email:         trim(*m.fEmail),
			IsExperienced: *m.fFlag,
		}
		if r := *m.fReporting; r != 0 {
			in.ReportingTo = &r
		}
		if m.formType == "employee" {
			in.EmpID, _ = strconv.ParseInt(trim(*m.fEmpID), 10, 64)
			return m.mutate("Employee created", func(ctx context.Context) error { return client.CreateEmployee(ctx, in) })
		}
		in.EmpID = m.editingID
		return m.mutate("Employee updated", func(ctx context.Context) error { return client.UpdateEmployee(ctx, in.EmpID, in) })

	case "shift", "edit_shift":
		in := api.ShiftInput{
			ShiftCode:        trim(*m.fCode),
			ShiftName:        trim(*m.fName),
			StartTime:        trim(*m.fStart),
			EndTime:          trim(*m.fEnd),
			WeekdayAllowance: decimalOrZero(*m.fWeekday),
			WeekendAllowance: decimalOrZero(*m.fWeekend),
			EffectiveFrom:    trim(*m.fDate),
		}
		if m.formType == "shift" {
			return m.mutate("Shift "+in.ShiftCode+" created", func(ctx context.Context) error { return client.CreateShift(ctx, pid, in) })
		}
		in.ShiftCode = m.editingCode
		return m.mutate(fmt.Sprintf("Shift %s versioned from %s", in.ShiftCode, in.EffectiveFrom), func(ctx context.Context) error {
			return client.UpdateShift(ctx, pid, in.ShiftCode, in)
		})

	case "holiday":
		in := api.HolidayInput{
			HolidayDate:  trim(*m.fDate),
			HolidayName:  trim(*m.fName),
			SplAllowance: decimalOrZero(*m.fAllowance),
			ProjectID:    m.holidayScope(),
		}
		return m.mutate("Holiday saved", func(ctx context.Context) error {
			_, err := client.UpsertHoliday(ctx, in)
			return err
		})

	case "import":
		opts := calendar.Options{
			ProjectID:    m.holidayScope(),
			SplAllowance: decimalOrZero(*m.fAllowance),
		}
		path := trim(*m.fPath)
		return func() tea.Msg {
			list, err := calendar.ParseFile(path, opts)
			if err != nil {
				return statusMsg{text: "Import failed: " + err.Error(), isError: true}
			}
			ctx := context.Background()
			for i, in := range list {
				if _, err := client.UpsertHoliday(ctx, in); err != nil {
					return failMsg(fmt.Sprintf("Import stopped after %d of %d", i, len(list)), err)
				}
			}
			return manageSavedMsg{text: fmt.Sprintf("Imported %d holidays", len(list))}
		}

	case "delete":
		if !*m.fConfirm {
			return nil
		}
		return m.deleteSelected()
	}
	return nil
}

func (m manageModel) deleteSelected() tea.Cmd {
	client, pid := m.client, m.ws.projectID
	switch m.section {
	case sectionProjects:
		id := m.projects[m.cursor].ProjectID
		return m.mutate("Project deleted", func(ctx context.Context) error { return client.DeleteProject(ctx, id) })
	case sectionEmployees:
		id := m.employees[m.cursor].EmpID
		return m.mutate("Employee deleted", func(ctx context.Context) error { return client.DeleteEmployee(ctx, id) })
	case sectionHolidays:
		id := m.holidays[m.cursor].HolidayID
		return m.mutate("Holiday deleted", func(ctx context.Context) error { return client.DeleteHoliday(ctx, id) })
	case sectionTeam:
		id := m.assigned[m.cursor].EmpID
		return m.mutate("Removed from project", func(ctx context.Context) error { return client.UnassignEmployee(ctx, pid, id) })
	}
	return nil
}

// --- View ---

func (m manageModel) view() string {
	w := m.width - 4
	if !m.ws.isLead() {
		return panelStyle.Width(w).Render(titleStyle.Render("Manage") + "\n\n" +
			mutedStyle.Render("Master data is managed by project leads."))
	}

	if m.formActive && m.form != nil {
		titles := map[string]string{
			"project": "New Project", "edit_project": "Edit Project",
			"employee": "New Employee", "edit_employee": "Edit Employee",
			"shift": "New Shift", "edit_shift": "New Shift Version",
			"holiday": "Holiday", "import": "Import Holidays", "delete": "Confirm",
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(titles[m.formType]), "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	var tabs []string
	for i, name := range sectionNames {
		if manageSection(i) == m.section {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Manage"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))

	var body []string
	switch m.section {
	case sectionProjects:
		body = m.renderProjects()
	case sectionEmployees:
		body = m.renderEmployees()
	case sectionShifts:
		body = m.renderShifts()
	case sectionHolidays:
		body = m.renderHolidays()
	case sectionTeam:
		body = m.renderTeam()
	}

	hint := "  ←/→: section  n: new  e: edit  d: delete  r: reload"
	switch m.section {
	case sectionShifts:
		hint = "  ←/→: section  n: new shift  e: new version  r: reload"
	case sectionHolidays:
		hint += "  i: import ics"
	case sectionTeam:
		hint = "  ←/→: section  n: assign  d: unassign  r: reload"
	}

	rows := append([]string{header, ""}, body...)
	rows = append(rows, "", mutedStyle.Render(hint))
	out := panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	if m.picking {
		out = lipgloss.JoinVertical(lipgloss.Left, out, m.renderPicker(w))
	}
	return out
}

func (m manageModel) line(i int, text string) string {
	if i == m.cursor {
		return selectedItemStyle.Render("> " + text)
	}
	return normalItemStyle.Render("  " + text)
}

func empty(text string) []string {
	return []string{mutedStyle.Render(text)}
}

func (m manageModel) renderProjects() []string {
	if len(m.projects) == 0 {
		return empty("No projects yet. Press n to create one.")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-6s %-24s %-8s %s", "ID", "Name", "Active", "Leads"))}
	for i, p := range m.projects {
		names := make([]string, 0, len(p.Leads))
		for _, l := range p.Leads {
			names = append(names, l.Name)
		}
		active := "yes"
		if !p.IsActive {
			active = "no"
		}
		rows = append(rows, m.line(i, fmt.Sprintf("%-6d %-24s %-8s %s", p.ProjectID, truncate(p.Name, 24), active, strings.Join(names, ", "))))
	}
	return rows
}

func (m manageModel) renderEmployees() []string {
	if len(m.employees) == 0 {
		return empty("No employees yet. Press n to add one.")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-6s %-24s %-28s %s", "ID", "Name", "Email", "Lead"))}
	for i, e := range m.employees {
		name := e.FullName()
		if e.IsExperienced {
			name += " *"
		}
		rows = append(rows, m.line(i, fmt.Sprintf("%-6d %-24s %-28s %s", e.EmpID, truncate(name, 24), truncate(e.Email, 28), e.LeadName)))
	}
	return rows
}

func (m manageModel) renderShifts() []string {
	if len(m.shifts) == 0 {
		return empty("No shifts for " + m.ws.projectName() + ". Press n to define one.")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-6s %-18s %-11s %9s %9s  %s", "Code", "Name", "Hours", "Weekday", "Weekend", "Effective"))}
	for i, s := range m.shifts {
		until := "now"
		if s.EffectiveTo != nil {
			until = *s.EffectiveTo
		}
		text := fmt.Sprintf("%-6s %-18s %5s-%-5s %9s %9s  %s → %s", s.ShiftCode, truncate(s.ShiftName, 18), s.StartTime, s.EndTime,
			s.WeekdayAllowance.StringFixed(2), s.WeekendAllowance.StringFixed(2), s.EffectiveFrom, until)
		if s.EffectiveTo != nil && i != m.cursor {
			rows = append(rows, mutedStyle.Render("  "+text))
			continue
		}
		rows = append(rows, m.line(i, text))
	}
	return rows
}

func (m manageModel) renderHolidays() []string {
	if len(m.holidays) == 0 {
		return empty("No holidays. Press n to add one or i to import a calendar.")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-11s %-30s %9s  %s", "Date", "Name", "Allowance", "Scope"))}
	for i, h := range m.holidays {
		scope := "company"
		if h.ProjectID != nil {
			scope = "project"
		}
		rows = append(rows, m.line(i, fmt.Sprintf("%-11s %-30s %9s  %s", h.HolidayDate, truncate(h.HolidayName, 30), h.SplAllowance.StringFixed(2), scope)))
	}
	return rows
}

func (m manageModel) renderTeam() []string {
	if len(m.assigned) == 0 {
		return empty("Nobody is assigned to " + m.ws.projectName() + ". Press n to assign.")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-6s %-24s %s", "ID", "Name", "Email"))}
	for i, e := range m.assigned {
		rows = append(rows, m.line(i, fmt.Sprintf("%-6d %-24s %s", e.EmpID, truncate(e.FullName(), 24), e.Email)))
	}
	return rows
}

func (m manageModel) renderPicker(w int) string {
	rows := []string{titleStyle.Render("Assign to " + m.ws.projectName())}
	for i, e := range m.assignable {
		cursor := "  "
		style := normalItemStyle
		if i == m.pickCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+e.FullName()))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: assign  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
