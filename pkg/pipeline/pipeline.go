// Package pipeline runs the per-state processing pipeline: apportion
// census counts onto precincts, assign precincts to districts, and
// synthesize dot-density points.
//
// # Architecture
//
// The pipeline has three stages over shared inputs:
//
//  1. Apportion: redistribute block-group counts onto precincts by area
//  2. Assign: resolve each precinct to a district of one plan
//  3. Dots: synthesize seeded dot-density points from precinct counts
//
// Each stage can run independently or as part of the full pipeline. The
// CLI and the query service both drive the same [Runner], which caches
// the expensive stages (apportion, dots) keyed on input content hashes
// and stage options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    State:       "NC",
//	    BlockGroups: "data/nc/bg.geojson",
//	    Precincts:   "data/nc/precincts.geojson",
//	    Districts:   "data/nc/plans/cong.geojson",
//	}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/dotatlas/dotatlas/pkg/apportion"
	"github.com/dotatlas/dotatlas/pkg/assign"
	"github.com/dotatlas/dotatlas/pkg/config"
	"github.com/dotatlas/dotatlas/pkg/dots"
	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// Stage names, in execution order.
const (
	StageApportion = "apportion"
	StageAssign    = "assign"
	StageDots      = "dots"
)

// AllStages lists the stages Execute runs by default.
var AllStages = []string{StageApportion, StageAssign, StageDots}

// Default identifier properties of the input files.
const (
	// DefaultBlockGroupID is the census block-group identifier property.
	DefaultBlockGroupID = "GEOID"
	// DefaultPrecinctID is the precinct identifier property.
	DefaultPrecinctID = "UNIQUE_ID"
)

// Options configures a pipeline run. The zero value is not runnable:
// State and the input paths for the selected stages are required.
type Options struct {
	// State is the two-letter postal code the run is for.
	State string `json:"state"`

	// BlockGroups is the path to the block-group GeoJSON carrying census
	// counts. Required for the apportion stage.
	BlockGroups string `json:"block_groups,omitempty"`

	// Precincts is the path to the precinct GeoJSON. Required.
	Precincts string `json:"precincts,omitempty"`

	// Districts is the path to the district-plan GeoJSON. Required for
	// the assign stage.
	Districts string `json:"districts,omitempty"`

	// Chamber is the plan type code recorded on assignment output:
	// "CONG" for congressional, "SL" for state legislative. Defaults to
	// CONG.
	Chamber string `json:"chamber,omitempty"`

	// PlanYear is the enactment year recorded on assignment output.
	// Defaults to the configured ACS year.
	PlanYear int `json:"plan_year,omitempty"`

	// BlockGroupID and PrecinctID name the identifier properties of the
	// input files.
	BlockGroupID string `json:"block_group_id,omitempty"`
	PrecinctID   string `json:"precinct_id,omitempty"`

	// Stages selects which stages run. Empty means all.
	Stages []string `json:"stages,omitempty"`

	// Refresh skips cache reads, forcing recomputation. Results are
	// still written back to the cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized).
	Config *config.Config `json:"-"`
	Logger *log.Logger    `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config == nil {
		o.Config = config.Default()
		if err := o.Config.ValidateAndSetDefaults(); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.State == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "state is required")
	}
	if _, err := o.Config.LookupState(o.State); err != nil {
		return err
	}
	if len(o.Stages) == 0 {
		o.Stages = AllStages
	}
	for _, s := range o.Stages {
		switch s {
		case StageApportion, StageAssign, StageDots:
		default:
			return errors.New(errors.ErrCodeInvalidConfig,
				"unknown stage %q (must be one of: apportion, assign, dots)", s)
		}
	}
	if o.Precincts == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "precincts path is required")
	}
	if o.HasStage(StageApportion) && o.BlockGroups == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "block_groups path is required for the apportion stage")
	}
	if o.HasStage(StageAssign) && o.Districts == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "districts path is required for the assign stage")
	}
	if o.Chamber == "" {
		o.Chamber = "CONG"
	}
	if o.PlanYear == 0 {
		o.PlanYear = o.Config.Project.ACSYear
	}
	if o.BlockGroupID == "" {
		o.BlockGroupID = DefaultBlockGroupID
	}
	if o.PrecinctID == "" {
		o.PrecinctID = DefaultPrecinctID
	}
	o.validated = true
	return nil
}

// HasStage reports whether a stage is selected.
func (o *Options) HasStage(name string) bool {
	for _, s := range o.Stages {
		if s == name {
			return true
		}
	}
	return false
}

// apportionKeyOpts are the option fields an apportion cache entry depends
// on.
type apportionKeyOpts struct {
	Columns    []string
	Derived    []config.DerivedColumn
	SliverArea float64
	ACSYear    int
}

func (o *Options) apportionKeyOpts() apportionKeyOpts {
	return apportionKeyOpts{
		Columns:    o.Config.Apportion.Columns,
		Derived:    o.Config.Apportion.Derived,
		SliverArea: o.Config.Apportion.SliverArea,
		ACSYear:    o.Config.Project.ACSYear,
	}
}

// dotsKeyOpts are the option fields a dots cache entry depends on.
type dotsKeyOpts struct {
	Unit        float64
	Seed        uint64
	MaxAttempts int
	Groups      map[string]string
	Total       string
	ACSYear     int
}

func (o *Options) dotsKeyOpts() dotsKeyOpts {
	return dotsKeyOpts{
		Unit:        o.Config.Dots.Unit,
		Seed:        o.Config.Dots.Seed,
		MaxAttempts: o.Config.Dots.MaxAttempts,
		Groups:      o.Config.Dots.Groups,
		Total:       o.Config.Dots.Total,
		ACSYear:     o.Config.Project.ACSYear,
	}
}

// Result contains the outputs of a pipeline run. Stage fields are nil
// when their stage was not selected.
type Result struct {
	// Precincts is the working precinct layer after the selected stages:
	// apportioned counts when the apportion stage ran.
	Precincts *geo.Layer

	// Report is the apportionment reconciliation, one entry per column.
	Report []apportion.Reconciliation

	// Assignment holds the precinct-to-district records.
	Assignment *assign.Result
	// Plan is the district plan metadata for the assignment.
	Plan assign.Plan
	// DistrictStats aggregates precinct counts per district.
	DistrictStats []assign.DistrictStat

	// Dots holds the synthesized dot set.
	Dots *dots.Result

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BlockGroups int
	Precincts   int
	Districts   int
	DotCount    int

	ApportionTime time.Duration
	AssignTime    time.Duration
	DotsTime      time.Duration
}

// CacheInfo tracks cache hits for the cached stages.
type CacheInfo struct {
	ApportionHit bool
	DotsHit      bool
}
