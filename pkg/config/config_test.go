package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() on defaults: %v", err)
	}
	if cfg.Dots.Unit != 50 || cfg.Dots.Seed != 42 {
		t.Errorf("dots defaults = unit %g seed %d, want 50 and 42", cfg.Dots.Unit, cfg.Dots.Seed)
	}
	if cfg.CRS.Work != "EPSG:5070" {
		t.Errorf("work CRS = %q, want EPSG:5070", cfg.CRS.Work)
	}
	if len(cfg.Dots.Groups) != 8 {
		t.Errorf("len(Groups) = %d, want 8", len(cfg.Dots.Groups))
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Project.ACSYear != 2023 {
		t.Errorf("ACSYear = %d, want default 2023", cfg.Project.ACSYear)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dotatlas.toml")
	content := `
[project]
acs_year = 2021

[dots]
unit = 100
seed = 7

[states.PR]
name = "Puerto Rico"
fips = "72"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dots.Unit != 100 || cfg.Dots.Seed != 7 {
		t.Errorf("dots = unit %g seed %d, want 100 and 7", cfg.Dots.Unit, cfg.Dots.Seed)
	}
	// Untouched sections keep their defaults.
	if cfg.Assign.LabelTag != "DISTRICT" {
		t.Errorf("LabelTag = %q, want default DISTRICT", cfg.Assign.LabelTag)
	}
	if st, err := cfg.LookupState("pr"); err != nil || st.FIPS != "72" {
		t.Errorf("LookupState(pr) = %+v, %v; want Puerto Rico", st, err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative unit", "[dots]\nunit = -5\n"},
		{"bad year", "[project]\nacs_year = 1887\n"},
		{"malformed toml", "[dots\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestYearSuffixColumns(t *testing.T) {
	cfg := Default()
	if got := cfg.Column("TOT_POP"); got != "TOT_POP23" {
		t.Errorf("Column(TOT_POP) = %q, want TOT_POP23", got)
	}
	cfg.Project.ACSYear = 2019
	if got := cfg.Column("HSP_CVAP"); got != "HSP_CVAP19" {
		t.Errorf("Column(HSP_CVAP) = %q, want HSP_CVAP19", got)
	}
	groups := cfg.GroupColumns()
	if groups["black"] != "BLK_POP19" {
		t.Errorf("GroupColumns()[black] = %q, want BLK_POP19", groups["black"])
	}
}

func TestLookupStateUnknown(t *testing.T) {
	cfg := Default()
	if st, err := cfg.LookupState("NC"); err != nil || st.FIPS != "37" {
		t.Errorf("LookupState(NC) = %+v, %v; want FIPS 37", st, err)
	}
	if _, err := cfg.LookupState("XX"); err == nil {
		t.Error("LookupState(XX) error = nil, want unknown-state error")
	}
}
