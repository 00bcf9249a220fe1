package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"careerpilot/internal/logging"
)

// ErrNotFound is returned when no cached row matches a lookup.
var ErrNotFound = errors.New("not found")

// RoadmapRecord is a persisted roadmap resolution.
type RoadmapRecord struct {
	ID         string
	GoalInput  string
	Career     string
	Category   string
	Payload    []byte // canonical roadmap JSON
	Source     string // "generated" or "template"
	Confidence float64
	CreatedAt  time.Time
}

// SaveRoadmap inserts a new roadmap row. Duplicate careers are allowed;
// the table keeps every resolution and readers take the most recent.
func (s *Store) SaveRoadmap(rec *RoadmapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO roadmaps (id, goal_input, career, category, payload, source, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.GoalInput, rec.Career, rec.Category, string(rec.Payload),
		rec.Source, rec.Confidence, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save roadmap: %w", err)
	}

	logging.Store("Saved roadmap for career=%q source=%s id=%s", rec.Career, rec.Source, rec.ID)
	return nil
}

// GetLatestRoadmap returns the most recently inserted roadmap for the
// given canonical career, or ErrNotFound.
func (s *Store) GetLatestRoadmap(career string) (*RoadmapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, goal_input, career, category, payload, source, confidence, created_at
		FROM roadmaps WHERE career = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, career)

	var rec RoadmapRecord
	var payload string
	err := row.Scan(&rec.ID, &rec.GoalInput, &rec.Career, &rec.Category,
		&payload, &rec.Source, &rec.Confidence, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read roadmap: %w", err)
	}
	rec.Payload = []byte(payload)
	return &rec, nil
}
