package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// paths resolves the standard on-disk layout for one state's data under a
// data directory:
//
//	<dataDir>/inputs/precincts/<st>/          precinct shapes by source
//	<dataDir>/inputs/plans/<st>/              enacted plan shapes
//	<dataDir>/outputs/<st>/                   per-state pipeline outputs
//
// State abbreviations are lowercased in paths regardless of how they were
// given on the command line.
type paths struct {
	dataDir string
	state   string
	acsYear int

	// outOverride replaces the conventional outputs/<state> directory when
	// the user passes -o explicitly.
	outOverride string
}

func newPaths(dataDir, state string, acsYear int) paths {
	return paths{dataDir: dataDir, state: strings.ToLower(state), acsYear: acsYear}
}

func (p paths) outputDir() string {
	if p.outOverride != "" {
		return p.outOverride
	}
	return filepath.Join(p.dataDir, "outputs", p.state)
}

func (p paths) precinctsDir() string {
	return filepath.Join(p.dataDir, "inputs", "precincts", p.state)
}

func (p paths) plansDir() string {
	return filepath.Join(p.dataDir, "inputs", "plans", p.state)
}

// blockGroups is the merged block-group layer with demographics attached.
func (p paths) blockGroups() string {
	return filepath.Join(p.outputDir(), fmt.Sprintf("%s_bg_all_data_%d.geojson", p.state, p.acsYear))
}

// precincts is the apportioned precinct layer.
func (p paths) precincts() string {
	return filepath.Join(p.outputDir(), fmt.Sprintf("%s_precinct_all_pop_%d.geojson", p.state, p.acsYear))
}

// dotsFile includes the people-per-dot unit so runs with different units
// do not clobber each other.
func (p paths) dotsFile(unit float64) string {
	return filepath.Join(p.outputDir(),
		fmt.Sprintf("%s_dots_pop%02d_unit%d.geojson", p.state, p.acsYear%100, int(unit)))
}

func (p paths) plansFile(year int) string {
	return filepath.Join(p.outputDir(), fmt.Sprintf("%s_plans_%d.json", p.state, year))
}

func (p paths) assignmentsFile(year int) string {
	return filepath.Join(p.outputDir(), fmt.Sprintf("%s_assignments_%d.json", p.state, year))
}
