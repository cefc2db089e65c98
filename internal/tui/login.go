package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/roster/internal/api"
)

var loginChoices = []struct {
	label string
	mode  string
	reset bool
}{
	{"Sign in as lead", api.ModeLead, false},
	{"Sign in as employee", api.ModeEmployee, false},
	{"Reset lead password", api.ModeLead, true},
	{"Reset employee password", api.ModeEmployee, true},
}

type loginModel struct {
	client *api.Client
	width  int
	height int

	cursor  int
	busy    bool
	notice  string
	isError bool

	formActive bool
	form       *huh.Form
	formType   string // "login", "otp", "reset"

	// Form field pointers (survive value copies)
	mode        *string
	email       *string
	password    *string
	otp         *string
	newPassword *string
}

func newLoginModel(c *api.Client, mode string) loginModel {
	m, e, pw, otp, np := mode, "", "", "", ""
	l := loginModel{
		client:      c,
		mode:        &m,
		email:       &e,
		password:    &pw,
		otp:         &otp,
		newPassword: &np,
	}
	if mode == api.ModeEmployee {
		l.cursor = 1
	}
	return l
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

type loginFailedMsg struct {
	err error
}

type otpSentMsg struct{}

type passwordResetMsg struct{}

func (l loginModel) loginCmd() tea.Cmd {
	client := l.client
	mode, email, pw := *l.mode, strings.TrimSpace(*l.email), *l.password
	return func() tea.Msg {
		ctx := context.Background()
		token, err := client.Login(ctx, email, pw, mode)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		uc, err := client.Context(ctx, mode)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{token: token, mode: mode, user: uc}
	}
}

// resumeCmd reuses a stored token. A 401 means it was revoked server-side.
func resumeCmd(client *api.Client, mode string) tea.Cmd {
	return func() tea.Msg {
		uc, err := client.Context(context.Background(), mode)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return authExpiredMsg{}
			}
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{token: client.Token(), mode: mode, user: uc}
	}
}

func (l loginModel) sendOTPCmd() tea.Cmd {
	client := l.client
	mode, email := *l.mode, strings.TrimSpace(*l.email)
	return func() tea.Msg {
		if err := client.SendOTP(context.Background(), email, mode); err != nil {
			return loginFailedMsg{err: err}
		}
		return otpSentMsg{}
	}
}

func (l loginModel) resetCmd() tea.Cmd {
	client := l.client
	mode := *l.mode
	in := api.ResetPasswordInput{
		Email:       strings.TrimSpace(*l.email),
		OTP:         strings.TrimSpace(*l.otp),
		NewPassword: *l.newPassword,
	}
	return func() tea.Msg {
		if err := client.ResetPassword(context.Background(), in, mode); err != nil {
			return loginFailedMsg{err: err}
		}
		return passwordResetMsg{}
	}
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginFailedMsg:
		l.busy = false
		l.notice, l.isError = errText(msg.err), true
		if errors.Is(msg.err, api.ErrUnauthorized) {
			l.notice = "Invalid email or password"
		}
		return l, nil

	case otpSentMsg:
		l.busy = false
		l.notice, l.isError = "A one-time code was sent to "+*l.email, false
		return l.showResetForm()

	case passwordResetMsg:
		l.busy = false
		l.notice, l.isError = "Password updated. Sign in with the new password.", false
		*l.password = ""
		return l, nil
	}

	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !l.busy {
		switch {
		case key.Matches(msg, keys.Up):
			if l.cursor > 0 {
				l.cursor--
			}
		case key.Matches(msg, keys.Down):
			if l.cursor < len(loginChoices)-1 {
				l.cursor++
			}
		case key.Matches(msg, keys.Enter):
			choice := loginChoices[l.cursor]
			*l.mode = choice.mode
			l.notice = ""
			if choice.reset {
				return l.showOTPForm()
			}
			return l.showLoginForm()
		}
	}
	return l, nil
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}

func (l loginModel) showLoginForm() (loginModel, tea.Cmd) {
	*l.password = ""
	l.formType = "login"
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(l.email).Validate(requiredField("email")),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
				Value(l.password).Validate(requiredField("password")),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l loginModel) showOTPForm() (loginModel, tea.Cmd) {
	l.formType = "otp"
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(l.email).Validate(requiredField("email")),
		).Description("A one-time code will be emailed to you."),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l loginModel) showResetForm() (loginModel, tea.Cmd) {
	*l.otp, *l.newPassword = "", ""
	l.formType = "reset"
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("One-time code").Value(l.otp).Validate(requiredField("code")),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).
				Value(l.newPassword).Validate(func(s string) error {
				if len(s) < 8 {
					return errors.New("at least 8 characters")
				}
				return nil
			}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l loginModel) updateForm(msg tea.Msg) (loginModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			l.formActive = false
			l.form = nil
			return l, nil
		}
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		l.busy = true
		switch l.formType {
		case "login":
			l.notice, l.isError = "Signing in...", false
			return l, l.loginCmd()
		case "otp":
			return l, l.sendOTPCmd()
		case "reset":
			return l, l.resetCmd()
		}
	}

	return l, cmd
}

func (l loginModel) view() string {
	w := min(l.width-4, 60)
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("roster")
	sub := subtitleStyle.Render("ShiftRoster admin console")

	var rows []string
	rows = append(rows, title+"  "+sub, "")

	if l.formActive && l.form != nil {
		heading := "Sign in"
		if *l.mode == api.ModeEmployee {
			heading = "Sign in (employee)"
		}
		if l.formType != "login" {
			heading = "Reset password"
		}
		rows = append(rows, titleStyle.Render(heading), "", l.form.View())
	} else {
		for i, c := range loginChoices {
			cursor := "  "
			style := normalItemStyle
			if i == l.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			rows = append(rows, style.Render(cursor+c.label))
		}
		rows = append(rows, "", mutedStyle.Render("  enter: select  q: quit"))
	}

	if l.notice != "" {
		style := successStyle
		if l.isError {
			style = errorStyle
		}
		rows = append(rows, "", style.Render(l.notice))
	}

	panel := activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
	return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, panel)
}
