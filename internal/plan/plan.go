// Package plan is the ingestion boundary for workout plans. Plans arrive
// either as a percent-encoded JSON payload embedded in a navigation URL or
// as a stored template fetched by ID. Everything is validated here; the
// session engine only ever sees well-formed plans.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/meltforce/repcoach/internal/models"
)

// ErrInvalidPlan is returned when an ingested plan fails validation.
// Callers degrade to the no-session state rather than propagating it.
var ErrInvalidPlan = errors.New("invalid workout plan")

// DecodePayload parses a percent-encoded JSON plan payload.
func DecodePayload(payload string) (*models.WorkoutPlan, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPlan)
	}

	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: percent-decoding: %v", ErrInvalidPlan, err)
	}

	var p models.WorkoutPlan
	if err := json.Unmarshal([]byte(decoded), &p); err != nil {
		return nil, fmt.Errorf("%w: parsing JSON: %v", ErrInvalidPlan, err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FromTemplate converts a stored template into a plan, applying the same
// validation as payload ingestion.
func FromTemplate(t *models.WorkoutTemplate) (*models.WorkoutPlan, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: no template", ErrInvalidPlan)
	}
	p := &models.WorkoutPlan{
		Title:     t.Title,
		Exercises: t.Exercises,
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the plan shape: a title, at least one exercise, and every
// exercise named with at least one prescribed set.
func Validate(p *models.WorkoutPlan) error {
	if p == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidPlan)
	}
	if len(p.Exercises) == 0 {
		return fmt.Errorf("%w: no exercises", ErrInvalidPlan)
	}
	for i, ex := range p.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return fmt.Errorf("%w: exercise %d has no name", ErrInvalidPlan, i)
		}
		if ex.Sets < 1 {
			return fmt.Errorf("%w: exercise %q has %d sets", ErrInvalidPlan, ex.Name, ex.Sets)
		}
	}
	return nil
}
