package plan

import (
	"errors"
	"net/url"
	"testing"
)

const validJSON = `{"title":"Push Day","exercises":[` +
	`{"name":"Bench Press","sets":3,"reps":"8-10","rir":2},` +
	`{"name":"Overhead Press","sets":2,"reps":"10-12"}]}`

// TestDecodePayloadValid verifies a percent-encoded JSON plan round-trips
// through the ingestion boundary with all fields intact.
func TestDecodePayloadValid(t *testing.T) {
	p, err := DecodePayload(url.QueryEscape(validJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Push Day" {
		t.Errorf("title = %q, want %q", p.Title, "Push Day")
	}
	if len(p.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(p.Exercises))
	}
	if p.Exercises[0].Name != "Bench Press" {
		t.Errorf("exercise[0].name = %q, want %q", p.Exercises[0].Name, "Bench Press")
	}
	if p.Exercises[0].Sets != 3 {
		t.Errorf("exercise[0].sets = %d, want 3", p.Exercises[0].Sets)
	}
	if p.Exercises[0].TargetRIR == nil || *p.Exercises[0].TargetRIR != 2 {
		t.Errorf("exercise[0].rir = %v, want 2", p.Exercises[0].TargetRIR)
	}
	if p.Exercises[1].TargetRIR != nil {
		t.Errorf("exercise[1].rir = %v, want nil", p.Exercises[1].TargetRIR)
	}
}

// TestDecodePayloadUnencoded verifies a plain (already-decoded) JSON payload
// still parses — QueryUnescape is a no-op on it.
func TestDecodePayloadUnencoded(t *testing.T) {
	p, err := DecodePayload(validJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Exercises) != 2 {
		t.Errorf("exercises = %d, want 2", len(p.Exercises))
	}
}

// TestDecodePayloadRejects verifies malformed inputs yield ErrInvalidPlan and
// a nil plan, so the caller can fall back to the no-session state without a
// partially-shaped plan ever reaching the engine.
func TestDecodePayloadRejects(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not JSON", "not%20json"},
		{"bad percent encoding", "%zz"},
		{"missing title", `{"exercises":[{"name":"Squat","sets":3}]}`},
		{"no exercises", `{"title":"Legs","exercises":[]}`},
		{"unnamed exercise", `{"title":"Legs","exercises":[{"name":"","sets":3}]}`},
		{"zero sets", `{"title":"Legs","exercises":[{"name":"Squat","sets":0}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := DecodePayload(tc.payload)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidPlan) {
				t.Errorf("error = %v, want ErrInvalidPlan", err)
			}
			if p != nil {
				t.Errorf("plan = %+v, want nil", p)
			}
		})
	}
}

// TestFromTemplateNil verifies a missing template is rejected rather than
// producing an empty plan.
func TestFromTemplateNil(t *testing.T) {
	if _, err := FromTemplate(nil); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("error = %v, want ErrInvalidPlan", err)
	}
}
