package store

import (
	"fmt"
	"strings"
	"time"
)

// LogApply records a commit attempt and returns it with ID and CreatedAt set.
func (s *Store) LogApply(e ApplyLogEntry) (*ApplyLogEntry, error) {
	if e.Outcome == "" {
		e.Outcome = OutcomeApplied
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO apply_log (project_id, from_date, to_date, added, removed, approved, unapproved, outcome, http_status, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ProjectID, e.From, e.To, e.Added, e.Removed, e.Approved, e.Unapproved,
		e.Outcome, e.HTTPStatus, e.Detail, now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert apply log: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	e.CreatedAt = now.Truncate(time.Second)
	return &e, nil
}

// ListApplyLog returns entries newest first.
func (s *Store) ListApplyLog(f ApplyLogFilter) ([]ApplyLogEntry, error) {
	query := `SELECT id, project_id, from_date, to_date, added, removed, approved, unapproved, outcome, http_status, detail, created_at
		FROM apply_log`
	var where []string
	var args []any
	if f.ProjectID != nil {
		where = append(where, "project_id = ?")
		args = append(args, *f.ProjectID)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, f.Outcome)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list apply log: %w", err)
	}
	defer rows.Close()

	var entries []ApplyLogEntry
	for rows.Next() {
		var e ApplyLogEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.From, &e.To, &e.Added, &e.Removed,
			&e.Approved, &e.Unapproved, &e.Outcome, &e.HTTPStatus, &e.Detail, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneApplyLog keeps the newest keep entries and deletes the rest.
func (s *Store) PruneApplyLog(keep int) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM apply_log WHERE id NOT IN (SELECT id FROM apply_log ORDER BY id DESC LIMIT ?)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune apply log: %w", err)
	}
	return res.RowsAffected()
}
