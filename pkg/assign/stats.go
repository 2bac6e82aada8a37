package assign

import (
	"fmt"
	"strings"

	"github.com/dotatlas/dotatlas/pkg/geo"
)

// Plan describes a districting plan an assignment run was resolved
// against. PlanID is deterministic ("NC_CONG_ENACTED_2023") so re-running
// a plan supersedes its prior records instead of accumulating duplicates.
type Plan struct {
	PlanID    string `json:"plan_id" bson:"plan_id"`
	State     string `json:"state" bson:"state"`
	Chamber   string `json:"chamber" bson:"chamber"`
	Name      string `json:"name" bson:"name"`
	Year      int    `json:"year" bson:"year"`
	Districts int    `json:"districts" bson:"districts"`
}

// NewPlan builds plan metadata from a container layer, counting the
// distinct numeric labels found under labelTag. state is the postal code,
// stateName the full name, chamber the plan type code ("CONG", "SL").
func NewPlan(state, stateName, chamber string, year int, containers *geo.Layer, labelTag string) Plan {
	distinct := map[Label]struct{}{}
	if containers != nil {
		labels, _ := containerLabels(containers, labelTag)
		for _, l := range labels {
			if l != nil && l.Kind == LabelNumeric {
				distinct[*l] = struct{}{}
			}
		}
	}
	upper := strings.ToUpper(state)
	return Plan{
		PlanID:    fmt.Sprintf("%s_%s_ENACTED_%d", upper, chamber, year),
		State:     upper,
		Chamber:   chamber,
		Name:      fmt.Sprintf("%s %d Enacted %s Plan", stateName, year, chamber),
		Year:      year,
		Districts: len(distinct),
	}
}

// DistrictStat aggregates member attributes under one district label.
type DistrictStat struct {
	Label   Label              `json:"district"`
	Members int                `json:"members"`
	Totals  map[string]float64 `json:"totals"`
}

// DistrictStats sums the named member attributes per resolved district.
// Records and members must be aligned by position, as Assign produces
// them. Output is ordered numeric ascending, then reserved codes, then
// unassigned.
func DistrictStats(members *geo.Layer, records []Record, attrs []string) []DistrictStat {
	byLabel := map[Label]*DistrictStat{}
	for i, rec := range records {
		st, ok := byLabel[rec.Label]
		if !ok {
			st = &DistrictStat{Label: rec.Label, Totals: make(map[string]float64, len(attrs))}
			byLabel[rec.Label] = st
		}
		st.Members++
		if i >= members.Len() {
			continue
		}
		mf := members.Features[i]
		for _, name := range attrs {
			st.Totals[name] += mf.Attr(name)
		}
	}

	labels := make([]Label, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sortLabels(labels)

	out := make([]DistrictStat, 0, len(labels))
	for _, l := range labels {
		out = append(out, *byLabel[l])
	}
	return out
}
