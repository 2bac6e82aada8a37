package assign

import (
	"encoding/json"
	"testing"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Label
	}{
		{"plain number", "7", Numeric(7)},
		{"leading zeros", "007", Numeric(7)},
		{"whitespace", "  12 ", Numeric(12)},
		{"negative number", "-1", Numeric(-1)},
		{"reserved code", "ZZZ", Reserved("ZZZ")},
		{"mixed alphanumeric", "12A", Reserved("12A")},
		{"empty string", "", Reserved("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLabel(tt.raw); got != tt.want {
				t.Errorf("ParseLabel(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLabelJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		label Label
		json  string
	}{
		{"numeric", Numeric(7), "7"},
		{"reserved", Reserved("ZZZ"), `"ZZZ"`},
		{"unassigned", Unassigned, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.label)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("Marshal() = %s, want %s", data, tt.json)
			}
			var back Label
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back != tt.label {
				t.Errorf("round trip = %v, want %v", back, tt.label)
			}
		})
	}
}

func TestLabelOrdering(t *testing.T) {
	labels := []Label{Unassigned, Reserved("ZZZ"), Numeric(10), Reserved("AAA"), Numeric(2)}
	sortLabels(labels)

	want := []Label{Numeric(2), Numeric(10), Reserved("AAA"), Reserved("ZZZ"), Unassigned}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %v, want %v", i, labels[i], want[i])
		}
	}
}

func TestDistrictStats(t *testing.T) {
	members := layer("EPSG:5070",
		member("P1", rect(0, 0, 1, 1), map[string]float64{"pop": 100}),
		member("P2", rect(1, 0, 2, 1), map[string]float64{"pop": 50}),
		member("P3", rect(2, 0, 3, 1), map[string]float64{"pop": 30}),
	)
	records := []Record{
		{MemberID: "P1", Label: Numeric(1), Overlap: 1},
		{MemberID: "P2", Label: Numeric(1), Overlap: 1},
		{MemberID: "P3", Label: Unassigned},
	}

	stats := DistrictStats(members, records, []string{"pop"})
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	if stats[0].Label != Numeric(1) || stats[0].Members != 2 || stats[0].Totals["pop"] != 150 {
		t.Errorf("stats[0] = %+v, want district 1 with 2 members and pop 150", stats[0])
	}
	if stats[1].Label != Unassigned || stats[1].Totals["pop"] != 30 {
		t.Errorf("stats[1] = %+v, want unassigned with pop 30", stats[1])
	}
}

func TestNewPlanCountsDistinctDistricts(t *testing.T) {
	containers := layer("EPSG:5070",
		district("a", rect(0, 0, 1, 1), "1"),
		district("b", rect(1, 0, 2, 1), "2"),
		district("c", rect(2, 0, 3, 1), "2"),
		district("water", rect(3, 0, 4, 1), "ZZZ"),
	)

	plan := NewPlan("nc", "North Carolina", "CONG", 2023, containers, DefaultLabelTag)
	if plan.Districts != 2 {
		t.Errorf("Districts = %d, want 2 (reserved codes excluded)", plan.Districts)
	}
	if plan.PlanID != "NC_CONG_ENACTED_2023" {
		t.Errorf("PlanID = %q, want NC_CONG_ENACTED_2023", plan.PlanID)
	}
	if plan.State != "NC" || plan.Year != 2023 {
		t.Errorf("plan = %+v, want state NC year 2023", plan)
	}
}
