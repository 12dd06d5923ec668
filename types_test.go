package shimbuild

import (
	"encoding/json"
	"testing"
)

func TestParsePreset(t *testing.T) {
	tests := []struct {
		in      string
		want    Preset
		wantErr bool
	}{
		{in: "", want: PresetRequireAll},
		{in: "all", want: PresetRequireAll},
		{in: "require-all", want: PresetRequireAll},
		{in: " Oldest ", want: PresetOldest},
		{in: "newest", want: PresetNewest},
		{in: "latest", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePreset(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePreset(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePreset(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequest_JSONPreset(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"preset":"newest","exclude":["es.map"]}`), &req); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if req.Preset != PresetNewest {
		t.Errorf("Preset = %v, want newest", req.Preset)
	}
	if err := json.Unmarshal([]byte(`{"preset":"sometimes"}`), &req); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestParsePolicies(t *testing.T) {
	for _, p := range []ConflictPolicy{ForcedWins, ExclusionWins} {
		got, err := ParseConflictPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseConflictPolicy(%q) = %v, %v", p, got, err)
		}
	}
	for _, p := range []BrokenExclusionPolicy{DropDependents, RestoreExcluded, FailOnBroken} {
		got, err := ParseBrokenExclusionPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseBrokenExclusionPolicy(%q) = %v, %v", p, got, err)
		}
	}
	if got, err := ParseConflictPolicy(""); err != nil || got != ForcedWins {
		t.Errorf("ParseConflictPolicy(\"\") = %v, %v", got, err)
	}
	if _, err := ParseConflictPolicy("coin-flip"); err == nil {
		t.Error("expected error for unknown conflict policy")
	}
	if _, err := ParseBrokenExclusionPolicy("ignore"); err == nil {
		t.Error("expected error for unknown broken exclusion policy")
	}
}
