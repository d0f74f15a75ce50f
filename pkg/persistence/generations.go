package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a generation does not exist.
var ErrNotFound = errors.New("generation not found")

// Generation is one completed pipeline run.
type Generation struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Planning    string    `json:"planning"`
	Design      string    `json:"design"`
	Code        string    `json:"code"`
	Testing     string    `json:"testing"`
	Filename    string    `json:"filename"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// GenerationSummary is the listing view of a generation, without the large
// stage texts.
type GenerationSummary struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Filename    string    `json:"filename"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewGenerationID returns a fresh unique generation ID.
func NewGenerationID() string {
	return uuid.New().String()
}

// SaveGeneration inserts a completed generation. A zero ID or CreatedAt is
// filled in.
func (s *Store) SaveGeneration(gen *Generation) error {
	if gen.ID == "" {
		gen.ID = NewGenerationID()
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO generations (
			id, description, language, planning, design, code, testing,
			filename, provider, model, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		gen.ID, gen.Description, gen.Language,
		gen.Planning, gen.Design, gen.Code, gen.Testing,
		gen.Filename, gen.Provider, gen.Model,
		gen.DurationMS, gen.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save generation %s: %w", gen.ID, err)
	}

	s.logger.Debug("saved generation %s (%s)", gen.ID, gen.Language)
	return nil
}

// GetGeneration returns one generation by ID.
func (s *Store) GetGeneration(id string) (*Generation, error) {
	query := `
		SELECT id, description, language, planning, design, code, testing,
			filename, provider, model, duration_ms, created_at
		FROM generations WHERE id = ?
	`
	gen := &Generation{}
	err := s.db.QueryRow(query, id).Scan(
		&gen.ID, &gen.Description, &gen.Language,
		&gen.Planning, &gen.Design, &gen.Code, &gen.Testing,
		&gen.Filename, &gen.Provider, &gen.Model,
		&gen.DurationMS, &gen.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation %s: %w", id, err)
	}
	return gen, nil
}

// ListGenerations returns summaries of the most recent generations, newest
// first. A limit of 0 or less applies a default of 50.
func (s *Store) ListGenerations(limit int) ([]GenerationSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, description, language, filename, provider, model,
			duration_ms, created_at
		FROM generations
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []GenerationSummary{}
	for rows.Next() {
		var sum GenerationSummary
		if err := rows.Scan(
			&sum.ID, &sum.Description, &sum.Language, &sum.Filename,
			&sum.Provider, &sum.Model, &sum.DurationMS, &sum.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return summaries, nil
}

// DeleteGeneration removes one generation by ID.
func (s *Store) DeleteGeneration(id string) error {
	res, err := s.db.Exec("DELETE FROM generations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete generation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
