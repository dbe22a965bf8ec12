package httputil

import (
	"encoding/json"
	"testing"
)

func TestOptionalStringTriState(t *testing.T) {
	type payload struct {
		ParentID OptionalString `json:"parent_id"`
	}

	tests := []struct {
		name        string
		body        string
		wantPresent bool
		wantValue   *string
	}{
		{"absent", `{}`, false, nil},
		{"null", `{"parent_id": null}`, true, nil},
		{"value", `{"parent_id": "abc"}`, true, strPtr("abc")},
		{"empty string", `{"parent_id": ""}`, true, strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.ParentID.Present != tt.wantPresent {
				t.Errorf("Present = %v, want %v", p.ParentID.Present, tt.wantPresent)
			}
			if (p.ParentID.Value == nil) != (tt.wantValue == nil) {
				t.Fatalf("Value = %v, want %v", p.ParentID.Value, tt.wantValue)
			}
			if tt.wantValue != nil && *p.ParentID.Value != *tt.wantValue {
				t.Errorf("Value = %q, want %q", *p.ParentID.Value, *tt.wantValue)
			}
		})
	}
}

func TestOptionalStringRejectsNonString(t *testing.T) {
	var o OptionalString
	if err := json.Unmarshal([]byte(`42`), &o); err == nil {
		t.Fatal("expected error for non-string value")
	}
}

func strPtr(s string) *string { return &s }
