package types

import (
	"encoding/json"
	"testing"
)

func TestNullableFloatUnmarshal(t *testing.T) {
	type payload struct {
		Mass NullableFloat `json:"mass"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"mass": 2.5}`), &got); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if !got.Mass.Valid || got.Mass.Value == nil || *got.Mass.Value != 2.5 {
		t.Fatalf("expected 2.5, got %+v", got.Mass)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"mass": "12"}`), &got); err != nil {
		t.Fatalf("unmarshal numeric string: %v", err)
	}
	if got.Mass.Value == nil || *got.Mass.Value != 12 {
		t.Fatalf("expected 12, got %+v", got.Mass)
	}

	for _, body := range []string{`{"mass": null}`, `{"mass": ""}`} {
		got = payload{}
		if err := json.Unmarshal([]byte(body), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		if !got.Mass.Valid || got.Mass.Value != nil {
			t.Fatalf("expected cleared value for %s, got %+v", body, got.Mass)
		}
		if got.Mass.Ptr() != nil {
			t.Fatalf("cleared value must have nil Ptr")
		}
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{}`), &got); err != nil {
		t.Fatalf("unmarshal missing: %v", err)
	}
	if got.Mass.Valid {
		t.Fatalf("expected invalid flag for missing field, got %+v", got.Mass)
	}

	if err := json.Unmarshal([]byte(`{"mass": "heavy"}`), &got); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}
