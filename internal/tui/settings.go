package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/roster/internal/store"
)

// applyLogKeep is how many apply log rows survive a prune.
const applyLogKeep = 50

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	projects   []store.Project
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	weekStart   *string
	defaultDays *string
	exportDir   *string
}

func newSettingsModel(s *store.Store) settingsModel {
	ws, dd, ed := "", "", ""
	return settingsModel{
		store:       s,
		weekStart:   &ws,
		defaultDays: &dd,
		exportDir:   &ed,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	projects []store.Project
}

// settingsSavedMsg tells the App that range settings may have changed.
type settingsSavedMsg struct{}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		projects, _ := s.store.ListProjects()
		return settingsDataMsg{settings: settings, projects: projects}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.projects = msg.projects
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		case key.Matches(msg, keys.Delete):
			n, err := s.store.PruneApplyLog(applyLogKeep)
			if err != nil {
				return s, errorCmd("Prune failed: " + err.Error())
			}
			return s, statusCmd(fmt.Sprintf("Pruned %d apply log entries", n))
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.weekStart = s.getVal(store.KeyWeekStart, "monday")
	*s.defaultDays = s.getVal(store.KeyDefaultDays, "7")
	*s.exportDir = s.getVal(store.KeyExportDir, "")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
			huh.NewInput().Title("Days shown (1-31)").Value(s.defaultDays).Validate(func(v string) error {
				n, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil || n < 1 || n > 31 {
					return errors.New("between 1 and 31")
				}
				return nil
			}),
			huh.NewInput().Title("Export directory").Description("Empty uses the configured default").Value(s.exportDir),
		).Title("Roster"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, errorCmd("Save failed: " + err.Error())
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return settingsSavedMsg{} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	if err := s.store.SetSetting(store.KeyWeekStart, *s.weekStart); err != nil {
		return err
	}
	if err := s.store.SetSetting(store.KeyDefaultDays, strings.TrimSpace(*s.defaultDays)); err != nil {
		return err
	}
	return s.store.SetSetting(store.KeyExportDir, strings.TrimSpace(*s.exportDir))
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render(fmt.Sprintf("Press enter to edit settings, d to prune the apply log to %d entries", applyLogKeep))

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	if len(s.projects) > 0 {
		rows = append(rows, "", subtitleStyle.Render(fmt.Sprintf("Known projects (as of %s)", s.projects[0].CachedAt.Local().Format("Jan 02 15:04"))))
		for _, p := range s.projects {
			rows = append(rows, fmt.Sprintf("  %-6d %s", p.ID, p.Name))
		}
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.KeyDefaultDays:
		return v + " days"
	case store.KeyLastProjectID:
		if v == "0" {
			return "none"
		}
	case store.KeyExportDir:
		if v == "" {
			return "(default)"
		}
	}
	return v
}
