package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"careerpilot/internal/logging"
)

// CareerTemplate is a curated, pre-authored roadmap payload for a
// canonical career. Templates take precedence over generation but not
// over a cached resolution.
type CareerTemplate struct {
	ID        string
	Career    string
	Category  string
	Payload   []byte
	Version   int
	Active    bool
	CreatedAt time.Time
}

// GetActiveTemplate returns the active template for a career, or
// ErrNotFound.
func (s *Store) GetActiveTemplate(career string) (*CareerTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, career, category, payload, version, active, created_at
		FROM career_templates WHERE career = ? AND active = 1`, career)

	var t CareerTemplate
	var payload string
	var active int
	err := row.Scan(&t.ID, &t.Career, &t.Category, &payload, &t.Version, &active, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	t.Payload = []byte(payload)
	t.Active = active != 0
	return &t, nil
}

// CreateTemplate inserts a curated template. The career column is
// unique; re-creating an existing career's template is an error.
func (s *Store) CreateTemplate(t *CareerTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	active := 0
	if t.Active {
		active = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO career_templates (id, career, category, payload, version, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Career, t.Category, string(t.Payload), t.Version, active, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	logging.Store("Created template for career=%q version=%d", t.Career, t.Version)
	return nil
}

// ActiveTemplateNames lists the careers that have an active template,
// ordered alphabetically.
func (s *Store) ActiveTemplateNames() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT career FROM career_templates WHERE active = 1 ORDER BY career`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
