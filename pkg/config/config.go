// Package config loads pipeline configuration from TOML, layered over
// built-in defaults that reproduce the standard census column scheme.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/dotatlas/dotatlas/pkg/errors"
)

// Config is the full pipeline configuration.
type Config struct {
	Project   Project   `toml:"project"`
	CRS       CRS       `toml:"crs"`
	Apportion Apportion `toml:"apportion"`
	Assign    Assign    `toml:"assign"`
	Dots      Dots      `toml:"dots"`

	// States maps two-letter postal codes to state metadata. The built-in
	// registry covers all states plus DC; a TOML states table extends or
	// overrides it.
	States map[string]State `toml:"states"`
}

// Project holds run-wide settings.
type Project struct {
	// DataDir is the root under which per-state inputs and outputs live.
	DataDir string `toml:"data_dir"`

	// ACSYear selects the census vintage; attribute columns carry its
	// two-digit suffix (TOT_POP23 for 2023).
	ACSYear int `toml:"acs_year"`
}

// CRS names the two projections the pipeline moves between.
type CRS struct {
	// Work is the equal-area projection all overlap math runs in.
	Work string `toml:"work"`
	// Output is the interchange projection for exported files.
	Output string `toml:"output"`
}

// Apportion configures the areal apportionment stage.
type Apportion struct {
	// Columns are the attribute column roots to redistribute, without the
	// year suffix.
	Columns []string `toml:"columns"`

	// Derived lists columns recomputed on the target side by summation.
	Derived []DerivedColumn `toml:"derived"`

	// SliverArea is the degenerate-geometry threshold in square meters.
	SliverArea float64 `toml:"sliver_area"`
}

// DerivedColumn declares one recomputed sum column, in roots.
type DerivedColumn struct {
	Name  string   `toml:"name"`
	Terms []string `toml:"terms"`
}

// Assign configures the district assignment stage.
type Assign struct {
	// LabelTag is the district layer property holding the district label.
	LabelTag string `toml:"label_tag"`
}

// Dots configures the dot synthesis stage.
type Dots struct {
	// Unit is the people-per-dot divisor.
	Unit float64 `toml:"unit"`
	// Seed drives both random streams.
	Seed uint64 `toml:"seed"`
	// MaxAttempts bounds rejection sampling per dot.
	MaxAttempts int `toml:"max_attempts"`

	// Total is the column root used by the presence guarantee.
	Total string `toml:"total"`

	// Groups maps dot group names to population column roots.
	Groups map[string]string `toml:"groups"`
	// Colors maps dot group names to display hex colors, carried through
	// to exports for downstream renderers.
	Colors map[string]string `toml:"colors"`
}

// State is one entry of the state registry.
type State struct {
	Name string `toml:"name"`
	FIPS string `toml:"fips"`
}

// Default returns the built-in configuration: the standard census column
// scheme, EPSG:5070 working projection, 50 people per dot, seed 42.
func Default() *Config {
	return &Config{
		Project: Project{DataDir: "data", ACSYear: 2023},
		CRS:     CRS{Work: "EPSG:5070", Output: "EPSG:4326"},
		Apportion: Apportion{
			Columns: []string{
				"TOT_POP", "HSP_POP", "WHT_POP", "BLK_POP", "AIA_POP",
				"ASN_POP", "HPI_POP", "OTH_POP", "2OM_POP",
				"TOT_CVAP", "HSP_CVAP", "WHT_CVAP", "BLK_CVAP", "AIA_CVAP",
				"ASN_CVAP", "HPI_CVAP", "2OM_CVAP",
				"LESS_10K", "10K_15K", "15K_20K", "20K_25K",
				"25K_30K", "30K_35K", "35K_40K", "40K_45K",
				"45K_50K", "50K_60K", "60K_75K", "75K_100K",
				"100_125K", "125_150K", "150_200K", "200K_MOR",
			},
			Derived: []DerivedColumn{
				{Name: "NHSP_POP", Terms: []string{
					"WHT_POP", "BLK_POP", "AIA_POP", "ASN_POP",
					"HPI_POP", "OTH_POP", "2OM_POP",
				}},
				{Name: "NHSP_CVAP", Terms: []string{
					"WHT_CVAP", "BLK_CVAP", "AIA_CVAP", "ASN_CVAP",
					"HPI_CVAP", "2OM_CVAP",
				}},
				{Name: "TOT_HOUS", Terms: []string{
					"LESS_10K", "10K_15K", "15K_20K", "20K_25K",
					"25K_30K", "30K_35K", "35K_40K", "40K_45K",
					"45K_50K", "50K_60K", "60K_75K", "75K_100K",
					"100_125K", "125_150K", "150_200K", "200K_MOR",
				}},
			},
			SliverArea: 1e-6,
		},
		Assign: Assign{LabelTag: "DISTRICT"},
		Dots: Dots{
			Unit:        50,
			Seed:        42,
			MaxAttempts: 2000,
			Total:       "TOT_POP",
			Groups: map[string]string{
				"white":       "WHT_POP",
				"black":       "BLK_POP",
				"asian":       "ASN_POP",
				"hispanic":    "HSP_POP",
				"native":      "AIA_POP",
				"nhpi":        "HPI_POP",
				"other":       "OTH_POP",
				"two_or_more": "2OM_POP",
			},
			Colors: map[string]string{
				"white":       "#d9d9d9",
				"black":       "#000000",
				"asian":       "#377eb8",
				"hispanic":    "#e41a1c",
				"native":      "#4daf4a",
				"nhpi":        "#ff7f00",
				"other":       "#984ea3",
				"two_or_more": "#a65628",
			},
		},
		States: defaultStates(),
	}
}

// Load reads a TOML file over the built-in defaults. A missing path is not
// an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.ValidateAndSetDefaults()
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return cfg, cfg.ValidateAndSetDefaults()
}

// ValidateAndSetDefaults checks the configuration and fills zero values
// with their defaults.
func (c *Config) ValidateAndSetDefaults() error {
	def := Default()
	if c.Project.DataDir == "" {
		c.Project.DataDir = def.Project.DataDir
	}
	if c.Project.ACSYear == 0 {
		c.Project.ACSYear = def.Project.ACSYear
	}
	if c.Project.ACSYear < 2000 || c.Project.ACSYear > 2099 {
		return errors.New(errors.ErrCodeInvalidConfig, "acs_year %d outside supported range", c.Project.ACSYear)
	}
	if c.CRS.Work == "" {
		c.CRS.Work = def.CRS.Work
	}
	if c.CRS.Output == "" {
		c.CRS.Output = def.CRS.Output
	}
	if err := errors.ValidateCRS(c.CRS.Work); err != nil {
		return err
	}
	if err := errors.ValidateCRS(c.CRS.Output); err != nil {
		return err
	}
	if len(c.Apportion.Columns) == 0 {
		c.Apportion.Columns = def.Apportion.Columns
	}
	if c.Apportion.SliverArea == 0 {
		c.Apportion.SliverArea = def.Apportion.SliverArea
	}
	if c.Assign.LabelTag == "" {
		c.Assign.LabelTag = def.Assign.LabelTag
	}
	if c.Dots.Unit == 0 {
		c.Dots.Unit = def.Dots.Unit
	}
	if err := errors.ValidateUnit(c.Dots.Unit); err != nil {
		return err
	}
	if c.Dots.MaxAttempts == 0 {
		c.Dots.MaxAttempts = def.Dots.MaxAttempts
	}
	if c.Dots.Total == "" {
		c.Dots.Total = def.Dots.Total
	}
	if len(c.Dots.Groups) == 0 {
		c.Dots.Groups = def.Dots.Groups
	}
	if len(c.Dots.Colors) == 0 {
		c.Dots.Colors = def.Dots.Colors
	}
	for group := range c.Dots.Groups {
		if _, ok := c.Dots.Colors[group]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "dot group %q has no color", group)
		}
	}
	if c.States == nil {
		c.States = def.States
	}
	return nil
}

// YearSuffix is the two-digit column suffix for the configured ACS year.
func (c *Config) YearSuffix() string {
	return fmt.Sprintf("%02d", c.Project.ACSYear%100)
}

// Column appends the year suffix to a column root: Column("TOT_POP") is
// "TOT_POP23" for ACS year 2023.
func (c *Config) Column(root string) string {
	return root + c.YearSuffix()
}

// Columns maps Column over a slice of roots.
func (c *Config) Columns(roots []string) []string {
	out := make([]string, len(roots))
	for i, r := range roots {
		out[i] = c.Column(r)
	}
	return out
}

// GroupColumns resolves the dot group mapping to year-suffixed columns.
func (c *Config) GroupColumns() map[string]string {
	out := make(map[string]string, len(c.Dots.Groups))
	for g, root := range c.Dots.Groups {
		out[g] = c.Column(root)
	}
	return out
}

// LookupState resolves a two-letter postal code, case-insensitively.
func (c *Config) LookupState(code string) (State, error) {
	upper := ""
	for _, r := range code {
		if 'a' <= r && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper += string(r)
	}
	st, ok := c.States[upper]
	if !ok {
		return State{}, errors.New(errors.ErrCodeNotFound, "unknown state code %q", code)
	}
	return st, nil
}

// String renders a one-line summary for logs.
func (c *Config) String() string {
	return fmt.Sprintf("acs=%d unit=%g seed=%d work=%s", c.Project.ACSYear, c.Dots.Unit, c.Dots.Seed, c.CRS.Work)
}
