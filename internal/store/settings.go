package store

import (
	"fmt"
	"strconv"
)

// Setting keys.
const (
	KeyWeekStart     = "week_start"
	KeyDefaultDays   = "default_days"
	KeyLastProjectID = "last_project_id"
	KeyLoginMode     = "login_mode"
	KeyAuthToken     = "auth_token"
	KeyExportDir     = "export_dir"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE key <> ? ORDER BY key`, KeyAuthToken)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (s *Store) intSetting(key string, fallback int64) int64 {
	v, err := s.GetSetting(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// AuthToken returns the stored access token, or "" when signed out.
func (s *Store) AuthToken() string {
	tok, _ := s.GetSetting(KeyAuthToken)
	return tok
}

func (s *Store) SetAuthToken(token string) error {
	return s.SetSetting(KeyAuthToken, token)
}

func (s *Store) ClearAuthToken() error {
	return s.SetSetting(KeyAuthToken, "")
}

// LastProjectID is the project selected when the console last ran (0 if none).
func (s *Store) LastProjectID() int64 {
	return s.intSetting(KeyLastProjectID, 0)
}

func (s *Store) SetLastProjectID(id int64) error {
	return s.SetSetting(KeyLastProjectID, strconv.FormatInt(id, 10))
}

// DefaultDays is the length of the allocate range; values outside 1..31 fall
// back to a week.
func (s *Store) DefaultDays() int {
	n := s.intSetting(KeyDefaultDays, 7)
	if n < 1 || n > 31 {
		return 7
	}
	return int(n)
}

// WeekStartsSunday reports whether week_start is set to sunday.
func (s *Store) WeekStartsSunday() bool {
	v, _ := s.GetSetting(KeyWeekStart)
	return v == "sunday"
}

// LoginMode is the last login mode used ("lead" or "employee").
func (s *Store) LoginMode() string {
	v, _ := s.GetSetting(KeyLoginMode)
	if v == "" {
		return "lead"
	}
	return v
}
