package store

import (
	"fmt"
	"time"
)

// ReplaceProjects swaps the cached project list for projects in one transaction.
func (s *Store) ReplaceProjects(projects []Project) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM projects`); err != nil {
		return fmt.Errorf("clear projects: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range projects {
		if _, err := tx.Exec(
			`INSERT INTO projects (project_id, name, cached_at) VALUES (?, ?, ?)`,
			p.ID, p.Name, now,
		); err != nil {
			return fmt.Errorf("insert project %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT project_id, name, cached_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var cachedAt string
		if err := rows.Scan(&p.ID, &p.Name, &cachedAt); err != nil {
			return nil, err
		}
		p.CachedAt, _ = time.Parse(time.RFC3339, cachedAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) GetProject(id int64) (*Project, error) {
	p := &Project{}
	var cachedAt string
	err := s.db.QueryRow(
		`SELECT project_id, name, cached_at FROM projects WHERE project_id = ?`, id,
	).Scan(&p.ID, &p.Name, &cachedAt)
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	p.CachedAt, _ = time.Parse(time.RFC3339, cachedAt)
	return p, nil
}
