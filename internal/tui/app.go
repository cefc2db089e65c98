package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/roster/internal/api"
	"github.com/sadopc/roster/internal/export"
	"github.com/sadopc/roster/internal/session"
	"github.com/sadopc/roster/internal/store"
)

// Options wires the App to its collaborators.
type Options struct {
	Store     *store.Store
	Client    *api.Client
	Log       *zap.Logger
	ExportDir string
	// ResumeMode is the user type of a stored, unexpired token. Empty
	// starts at the login screen.
	ResumeMode string
}

var exportFormats = []string{"CSV", "JSON", "XLSX"}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	client    *api.Client
	log       *zap.Logger
	sess      *session.Session
	ws        *workspace
	exportDir string
	resume    string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	login    loginModel
	allocate allocateModel
	review   reviewModel
	manage   manageModel
	reports  reportsModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(o Options) App {
	h := help.New()
	h.ShowAll = false

	base := o.Log
	if base == nil {
		base = zap.NewNop()
	}
	log := base.Named("tui")
	ws := &workspace{}
	sess := session.New(o.Client, base)

	return App{
		store:      o.Store,
		client:     o.Client,
		log:        log,
		sess:       sess,
		ws:         ws,
		exportDir:  o.ExportDir,
		resume:     o.ResumeMode,
		activeView: viewAllocate,
		login:      newLoginModel(o.Client, o.Store.LoginMode()),
		allocate:   newAllocateModel(o.Client, o.Store, sess, ws, log),
		review:     newReviewModel(o.Client, o.Store, ws),
		manage:     newManageModel(o.Client, ws),
		reports:    newReportsModel(o.Client, ws),
		settings:   newSettingsModel(o.Store),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	if a.resume != "" {
		return resumeCmd(a.client, a.resume)
	}
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.resize()
		return a, nil

	case loggedInMsg:
		return a.signIn(msg)

	case authExpiredMsg:
		if !a.ws.signedIn() && a.resume == "" {
			return a, nil
		}
		a.log.Info("access token rejected; signing out")
		return a.signOut(sessionExpiredText, true)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		return a, nil

	case settingsSavedMsg:
		return a.applyRangeSettings()
	}

	if !a.ws.signedIn() {
		if _, ok := msg.(loginFailedMsg); ok {
			a.resume = ""
		}
		if msg, ok := msg.(tea.KeyMsg); ok && !a.login.formActive && key.Matches(msg, keys.Quit) {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}

	// Async results go to the screen that asked for them.
	switch msg.(type) {
	case spinner.TickMsg, allocLoadedMsg, commitDoneMsg, candidatesMsg:
		var cmd tea.Cmd
		a.allocate, cmd = a.allocate.update(msg)
		return a, cmd
	case reviewDataMsg:
		var cmd tea.Cmd
		a.review, cmd = a.review.update(msg)
		return a, cmd
	case manageDataMsg, manageSavedMsg:
		var cmd tea.Cmd
		a.manage, cmd = a.manage.update(msg)
		return a, cmd
	case reportsDataMsg, detailDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Logout):
			return a.signOut("Signed out", false)
		case key.Matches(msg, keys.Project):
			return a.switchProject()
		case key.Matches(msg, keys.Export):
			if a.activeView == viewReports {
				if _, _, ok := a.reports.exportable(); !ok {
					return a, errorCmd("Load a report before exporting")
				}
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		case key.Matches(msg, keys.Tab1):
			return a.show(viewAllocate)
		case key.Matches(msg, keys.Tab2):
			return a.show(viewReview)
		case key.Matches(msg, keys.Tab3):
			return a.show(viewManage)
		case key.Matches(msg, keys.Tab4):
			return a.show(viewReports)
		case key.Matches(msg, keys.Tab5):
			return a.show(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.show((a.activeView + 1) % viewState(len(viewNames)))
		}
	}

	return a.updateActiveView(msg)
}

func (a *App) resize() {
	contentHeight := a.height - 4 // header + footer
	a.login.setSize(a.width, a.height)
	a.allocate.setSize(a.width, contentHeight)
	a.review.setSize(a.width, contentHeight)
	a.manage.setSize(a.width, contentHeight)
	a.reports.setSize(a.width, contentHeight)
	a.settings.setSize(a.width, contentHeight)
}

func (a App) signIn(msg loggedInMsg) (tea.Model, tea.Cmd) {
	a.resume = ""
	a.client.SetToken(msg.token)
	if err := a.store.SetAuthToken(msg.token); err != nil {
		a.log.Warn("store token", zap.Error(err))
	}
	a.store.SetSetting(store.KeyLoginMode, msg.mode)

	a.ws.user = msg.user
	a.ws.selectInitial(a.store.LastProjectID())
	a.store.SetLastProjectID(a.ws.projectID)

	cached := make([]store.Project, 0, len(msg.user.Projects))
	for _, p := range msg.user.Projects {
		cached = append(cached, store.Project{ID: p.ProjectID, Name: p.Name})
	}
	if err := a.store.ReplaceProjects(cached); err != nil {
		a.log.Warn("cache projects", zap.Error(err))
	}

	a.log.Info("signed in",
		zap.String("user_type", msg.user.UserType),
		zap.Int("projects", len(msg.user.Projects)),
		zap.Int64("project_id", a.ws.projectID),
	)

	a.login = newLoginModel(a.client, msg.mode)
	a.login.setSize(a.width, a.height)
	a.activeView = viewAllocate
	a.status, a.statusErr = "Signed in as "+msg.user.Name, false

	var cmd tea.Cmd
	a.allocate, cmd = a.allocate.reload()
	return a, cmd
}

// signOut drops the token and every local change and returns to login.
func (a App) signOut(text string, isErr bool) (tea.Model, tea.Cmd) {
	a.resume = ""
	a.client.SetToken("")
	if err := a.store.ClearAuthToken(); err != nil {
		a.log.Warn("clear token", zap.Error(err))
	}
	a.sess.Reset()
	a.ws.reset()
	a.exportPicking = false

	a.allocate = newAllocateModel(a.client, a.store, a.sess, a.ws, a.log)
	a.review = newReviewModel(a.client, a.store, a.ws)
	a.manage = newManageModel(a.client, a.ws)
	a.reports = newReportsModel(a.client, a.ws)
	a.login = newLoginModel(a.client, a.store.LoginMode())
	a.login.notice, a.login.isError = text, isErr

	a.resize()
	a.status, a.statusErr = "", false
	return a, nil
}

func (a App) switchProject() (tea.Model, tea.Cmd) {
	if a.allocate.busy {
		return a, errorCmd("Wait for the current request to finish")
	}
	if !a.ws.cycle(1) {
		return a, statusCmd("No other project to switch to")
	}
	a.store.SetLastProjectID(a.ws.projectID)

	var cmd tea.Cmd
	a.allocate, cmd = a.allocate.reload()
	cmds := []tea.Cmd{cmd, statusCmd("Project: " + a.ws.projectName())}
	if a.activeView != viewAllocate {
		cmds = append(cmds, a.refreshCurrentView())
	}
	return a, tea.Batch(cmds...)
}

// applyRangeSettings re-reads the range settings into the grids.
func (a App) applyRangeSettings() (tea.Model, tea.Cmd) {
	sunday := a.store.WeekStartsSunday()
	days := a.store.DefaultDays()

	a.review.days = days
	a.review.anchor = weekStart(a.review.anchor, sunday)
	if a.allocate.days == days && a.allocate.anchor.Equal(weekStart(a.allocate.anchor, sunday)) {
		return a, a.review.refresh()
	}
	if a.allocate.busy {
		return a, errorCmd("Range settings apply after the current request")
	}
	a.allocate.days = days
	a.allocate.anchor = weekStart(a.allocate.anchor, sunday)
	var cmd tea.Cmd
	a.allocate, cmd = a.allocate.reload()
	return a, tea.Batch(cmd, a.review.refresh())
}

func (a App) show(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewAllocate && !a.sess.Loaded() && !a.allocate.busy {
		var cmd tea.Cmd
		a.allocate, cmd = a.allocate.reload()
		return a, cmd
	}
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewAllocate:
		a.allocate, cmd = a.allocate.update(msg)
	case viewReview:
		a.review, cmd = a.review.update(msg)
	case viewManage:
		a.manage, cmd = a.manage.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewAllocate:
		return a.allocate.picking
	case viewManage:
		return a.manage.formActive || a.manage.picking
	case viewReports:
		return a.reports.detail != nil
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewReview:
		return a.review.refresh()
	case viewManage:
		return a.manage.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	if !a.ws.signedIn() {
		if a.resume != "" {
			return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, mutedStyle.Render("Restoring session..."))
		}
		return a.login.view()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewAllocate:
		content = a.allocate.view()
	case viewReview:
		content = a.review.view()
	case viewManage:
		content = a.manage.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("roster")
	who := mutedStyle.Render(" " + a.ws.user.Name + " · " + a.ws.projectName())
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(who) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, who, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	pending := ""
	if n := a.sess.PendingCount(); n > 0 {
		pending = warningStyle.Render(fmt.Sprintf(" ● %d pending", n))
	}

	left := footerStyle.Render(helpView)
	right := pending + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) targetDir() string {
	if dir, err := a.store.GetSetting(store.KeyExportDir); err == nil && dir != "" {
		return dir
	}
	return a.exportDir
}

func (a App) doExport(format int) tea.Cmd {
	report, meta, ok := a.reports.exportable()
	if !ok {
		return nil
	}
	dir := a.targetDir()
	log := a.log
	return func() tea.Msg {
		var path string
		var err error
		switch format {
		case 0:
			path = export.Filename(dir, meta, "csv")
			err = export.ToCSV(report, path)
		case 1:
			path = export.Filename(dir, meta, "json")
			err = export.ToJSON(report, meta, path)
		default:
			path = export.Filename(dir, meta, "xlsx")
			err = export.ToXLSX(report, meta, path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("%s export failed: %v", exportFormats[format], err), isError: true}
		}
		log.Info("report exported", zap.String("path", path), zap.Int("rows", len(report.Rows)))
		return exportDoneMsg{path: path}
	}
}
