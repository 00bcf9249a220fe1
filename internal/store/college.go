package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"careerpilot/internal/logging"
)

// CollegeDetailRecord is a persisted college-detail extraction keyed by
// (college, degree, branch).
type CollegeDetailRecord struct {
	ID         string
	College    string
	Degree     string
	Branch     string
	Payload    []byte // canonical details JSON
	Source     string
	Confidence float64
	CreatedAt  time.Time
}

// SaveCollegeDetails inserts a detail row. The composite key is unique
// and first-writer-wins: if a concurrent writer got there first, the
// surviving row is read back and returned; the caller's row is
// discarded.
func (s *Store) SaveCollegeDetails(rec *CollegeDetailRecord) (*CollegeDetailRecord, error) {
	s.mu.Lock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO college_details (id, college, degree, branch, payload, source, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.College, rec.Degree, rec.Branch, string(rec.Payload),
		rec.Source, rec.Confidence, rec.CreatedAt)
	s.mu.Unlock()

	if err != nil {
		if isUniqueViolation(err) {
			logging.StoreDebug("Detail row for %s/%s/%s already exists; keeping first writer",
				rec.College, rec.Degree, rec.Branch)
			return s.GetCollegeDetails(rec.College, rec.Degree, rec.Branch)
		}
		return nil, fmt.Errorf("failed to save college details: %w", err)
	}

	logging.Store("Saved college details for %s (%s %s) id=%s", rec.College, rec.Degree, rec.Branch, rec.ID)
	return rec, nil
}

// GetCollegeDetails returns the cached detail row for the composite
// key, or ErrNotFound.
func (s *Store) GetCollegeDetails(college, degree, branch string) (*CollegeDetailRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, college, degree, branch, payload, source, confidence, created_at
		FROM college_details WHERE college = ? AND degree = ? AND branch = ?`,
		college, degree, branch)

	var rec CollegeDetailRecord
	var payload string
	err := row.Scan(&rec.ID, &rec.College, &rec.Degree, &rec.Branch,
		&payload, &rec.Source, &rec.Confidence, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read college details: %w", err)
	}
	rec.Payload = []byte(payload)
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
