package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repcoach/internal/models"
)

// InsertWorkoutTemplate stores a reusable plan and returns its ID.
func (db *DB) InsertWorkoutTemplate(ctx context.Context, t models.WorkoutTemplate) (uuid.UUID, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	exercises, err := json.Marshal(t.Exercises)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding template exercises: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workout_templates (id, user_id, title, exercises) VALUES ($1,$2,$3,$4)`,
		t.ID, t.UserID, t.Title, exercises)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting workout template: %w", err)
	}
	return t.ID, nil
}

// GetWorkoutTemplate retrieves one template by ID, or nil when unknown.
func (db *DB) GetWorkoutTemplate(ctx context.Context, id uuid.UUID, userID int) (*models.WorkoutTemplate, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, title, exercises, created_at
		 FROM workout_templates WHERE id = $1 AND user_id = $2`,
		id, userID)

	var t models.WorkoutTemplate
	var exercises []byte
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &exercises, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout template: %w", err)
	}
	if err := json.Unmarshal(exercises, &t.Exercises); err != nil {
		return nil, fmt.Errorf("decoding template exercises: %w", err)
	}
	return &t, nil
}

// ListWorkoutTemplates returns all templates for a user, newest first.
func (db *DB) ListWorkoutTemplates(ctx context.Context, userID int) ([]models.WorkoutTemplate, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, title, exercises, created_at
		 FROM workout_templates WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout templates: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutTemplate
	for rows.Next() {
		var t models.WorkoutTemplate
		var exercises []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &exercises, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout template: %w", err)
		}
		if err := json.Unmarshal(exercises, &t.Exercises); err != nil {
			return nil, fmt.Errorf("decoding template exercises: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
