package cli

import (
	"strings"
	"testing"
)

func TestSpinnerSetMessage(t *testing.T) {
	s := newSpinner("Running full pipeline for NC")
	s.SetMessage("Synthesizing dots for NC")

	if !strings.HasPrefix(s.message, "Synthesizing dots for NC") {
		t.Errorf("message = %q, want prefix %q", s.message, "Synthesizing dots for NC")
	}
	// Shorter replacement is padded so the old line is fully overwritten.
	if len(s.message) < len("Running full pipeline for NC") {
		t.Errorf("len(message) = %d, want >= %d", len(s.message), len("Running full pipeline for NC"))
	}
	if s.width < len("Running full pipeline for NC") {
		t.Errorf("width = %d shrank below the longest message", s.width)
	}
}

func TestStageVerb(t *testing.T) {
	tests := []struct {
		stage string
		want  string
	}{
		{"apportion", "Apportioning block groups for"},
		{"assign", "Assigning precincts for"},
		{"dots", "Synthesizing dots for"},
		{"mystery", "Running mystery for"},
	}
	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			if got := stageVerb(tt.stage); got != tt.want {
				t.Errorf("stageVerb(%q) = %q, want %q", tt.stage, got, tt.want)
			}
		})
	}
}
