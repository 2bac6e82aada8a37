package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dotatlas/dotatlas/pkg/apportion"
	"github.com/dotatlas/dotatlas/pkg/assign"
	"github.com/dotatlas/dotatlas/pkg/cache"
	"github.com/dotatlas/dotatlas/pkg/config"
	"github.com/dotatlas/dotatlas/pkg/dots"
	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
	"github.com/dotatlas/dotatlas/pkg/io"
	"github.com/dotatlas/dotatlas/pkg/observability"
)

// Runner executes pipeline stages with caching. It is stateless apart
// from the cache and logger; one Runner can serve concurrent runs with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching; a nil keyer
// selects the default key scheme.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the selected stages in order and returns their combined
// outputs.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Logger == nil || opts.Logger == log.Default() {
		opts.Logger = r.Logger
	}

	result := &Result{}

	precincts, err := r.loadWorkLayer(opts.Precincts, opts.PrecinctID, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("load precincts: %w", err)
	}
	result.Precincts = precincts
	result.Stats.Precincts = precincts.Len()

	if opts.HasStage(StageApportion) {
		start := time.Now()
		observability.Stage().OnStageStart(ctx, StageApportion, opts.State)
		apportioned, report, hit, err := r.Apportion(ctx, precincts, opts, result)
		observability.Stage().OnStageComplete(ctx, StageApportion, opts.State, precincts.Len(), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("apportion: %w", err)
		}
		result.Precincts = apportioned
		result.Report = report
		result.Stats.ApportionTime = time.Since(start)
		result.CacheInfo.ApportionHit = hit
		opts.Logger.Info("apportioned counts onto precincts",
			"block_groups", result.Stats.BlockGroups,
			"precincts", apportioned.Len(),
			"cache_hit", hit,
			"duration", result.Stats.ApportionTime)
	}

	if opts.HasStage(StageAssign) {
		start := time.Now()
		observability.Stage().OnStageStart(ctx, StageAssign, opts.State)
		err := r.Assign(ctx, result.Precincts, opts, result)
		observability.Stage().OnStageComplete(ctx, StageAssign, opts.State, result.Precincts.Len(), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("assign: %w", err)
		}
		result.Stats.AssignTime = time.Since(start)
		opts.Logger.Info("assigned precincts to districts",
			"plan", result.Plan.PlanID,
			"unassigned", result.Assignment.Unassigned,
			"duration", result.Stats.AssignTime)
	}

	if opts.HasStage(StageDots) {
		start := time.Now()
		observability.Stage().OnStageStart(ctx, StageDots, opts.State)
		ds, hit, err := r.Dots(ctx, result.Precincts, opts)
		if err != nil {
			observability.Stage().OnStageComplete(ctx, StageDots, opts.State, 0, time.Since(start), err)
			return nil, fmt.Errorf("dots: %w", err)
		}
		observability.Stage().OnStageComplete(ctx, StageDots, opts.State, len(ds.Dots), time.Since(start), nil)
		result.Dots = ds
		result.Stats.DotCount = len(ds.Dots)
		result.Stats.DotsTime = time.Since(start)
		result.CacheInfo.DotsHit = hit
		opts.Logger.Info("synthesized dots",
			"dots", len(ds.Dots),
			"forced", ds.Forced,
			"cache_hit", hit,
			"duration", result.Stats.DotsTime)
	}

	return result, nil
}

// Apportion runs the apportion stage against the precinct layer, reading
// the apportioned layer from cache when the inputs and options are
// unchanged. The reconciliation report is cached alongside the layer.
func (r *Runner) Apportion(ctx context.Context, precincts *geo.Layer, opts Options, result *Result) (*geo.Layer, []apportion.Reconciliation, bool, error) {
	inputHash, err := inputsHash(opts.BlockGroups, opts.Precincts)
	if err != nil {
		return nil, nil, false, err
	}
	key := r.Keyer.StageKey(StageApportion, opts.State, inputHash, opts.apportionKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			layer, report, err := decodeApportioned(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, StageApportion)
				return layer, report, true, nil
			}
			opts.Logger.Warn("discarding undecodable cache entry", "stage", StageApportion, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, StageApportion)
	}

	source, err := r.loadWorkLayer(opts.BlockGroups, opts.BlockGroupID, opts.Config)
	if err != nil {
		return nil, nil, false, fmt.Errorf("load block groups: %w", err)
	}
	result.Stats.BlockGroups = source.Len()

	cfg := opts.Config
	derived := make([]apportion.Derived, 0, len(cfg.Apportion.Derived))
	for _, d := range cfg.Apportion.Derived {
		derived = append(derived, apportion.Derived{
			Name:  cfg.Column(d.Name),
			Terms: cfg.Columns(d.Terms),
		})
	}
	res, err := apportion.Apportion(source, precincts, apportion.Options{
		Attrs:      cfg.Columns(cfg.Apportion.Columns),
		Derived:    derived,
		SliverArea: cfg.Apportion.SliverArea,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, nil, false, err
	}
	if res.CoverageGaps > 0 {
		opts.Logger.Warn("block groups outside every precinct",
			"count", res.CoverageGaps)
	}

	if data, err := encodeApportioned(res.Target, res.Report, opts.PrecinctID); err == nil {
		if err := r.Cache.Set(ctx, key, data, 0); err != nil {
			opts.Logger.Warn("cache write failed", "stage", StageApportion, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, StageApportion, len(data))
		}
	}
	return res.Target, res.Report, false, nil
}

// Assign runs the assign stage and fills the result's assignment fields.
// It is not cached: resolving a statewide precinct set is fast next to
// apportionment.
func (r *Runner) Assign(ctx context.Context, precincts *geo.Layer, opts Options, result *Result) error {
	districts, err := r.loadWorkLayer(opts.Districts, opts.Config.Assign.LabelTag, opts.Config)
	if err != nil {
		return fmt.Errorf("load districts: %w", err)
	}
	result.Stats.Districts = districts.Len()

	res, err := assign.Assign(precincts, districts, assign.Options{
		LabelTag:   opts.Config.Assign.LabelTag,
		SliverArea: opts.Config.Apportion.SliverArea,
		Logger:     opts.Logger,
	})
	if err != nil {
		return err
	}

	st, err := opts.Config.LookupState(opts.State)
	if err != nil {
		return err
	}
	result.Assignment = res
	result.Plan = assign.NewPlan(opts.State, st.Name, opts.Chamber, opts.PlanYear, districts, opts.Config.Assign.LabelTag)
	result.DistrictStats = assign.DistrictStats(precincts, res.Records,
		opts.Config.Columns(opts.Config.Apportion.Columns))
	return nil
}

// Dots runs the dot synthesis stage over the precinct layer, cached on
// the precinct file, the apportionment inputs, and the dot options.
func (r *Runner) Dots(ctx context.Context, precincts *geo.Layer, opts Options) (*dots.Result, bool, error) {
	paths := []string{opts.Precincts}
	if opts.HasStage(StageApportion) {
		// Apportioned counts depend on the block-group file too.
		paths = append(paths, opts.BlockGroups)
	}
	inputHash, err := inputsHash(paths...)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.StageKey(StageDots, opts.State, inputHash, opts.dotsKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var res dots.Result
			if err := json.Unmarshal(data, &res); err == nil {
				observability.Cache().OnCacheHit(ctx, StageDots)
				return &res, true, nil
			}
			opts.Logger.Warn("discarding undecodable cache entry", "stage", StageDots, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, StageDots)
	}

	cfg := opts.Config
	res, err := dots.Synthesize(precincts, dots.Options{
		Unit:        cfg.Dots.Unit,
		Seed:        cfg.Dots.Seed,
		Groups:      cfg.GroupColumns(),
		TotalAttr:   cfg.Column(cfg.Dots.Total),
		MaxAttempts: cfg.Dots.MaxAttempts,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, 0); err != nil {
			opts.Logger.Warn("cache write failed", "stage", StageDots, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, StageDots, len(data))
		}
	}
	return res, false, nil
}

// loadWorkLayer imports a GeoJSON file and reprojects it into the working
// CRS if the file is in the interchange CRS.
func (r *Runner) loadWorkLayer(path, idProp string, cfg *config.Config) (*geo.Layer, error) {
	layer, err := io.ImportLayer(path, idProp, cfg.CRS.Output)
	if err != nil {
		return nil, err
	}
	work := geo.NewLayer(cfg.CRS.Work)
	if layer.SameCRS(work) {
		return layer, nil
	}
	src, err := proj4For(layer.CRS)
	if err != nil {
		return nil, err
	}
	dst, err := proj4For(cfg.CRS.Work)
	if err != nil {
		return nil, err
	}
	return geo.Reproject(layer, src, dst, cfg.CRS.Work)
}

// proj4For maps the CRS identifiers the pipeline supports to proj4
// definitions.
func proj4For(crs string) (string, error) {
	switch crs {
	case "EPSG:5070":
		return geo.ConusAlbersProj4, nil
	case "EPSG:4326":
		return geo.LonLatProj4, nil
	default:
		return "", errors.New(errors.ErrCodeUnprojectable,
			"no projection definition for %q (supported: EPSG:5070, EPSG:4326)", crs)
	}
}

// inputsHash hashes the input files a cached stage depends on.
func inputsHash(paths ...string) (string, error) {
	combined := ""
	for _, p := range paths {
		h, err := cache.HashFile(p)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "hash input %s", p)
		}
		combined += h
	}
	return cache.Hash([]byte(combined)), nil
}

// apportionedEntry is the cache form of the apportion stage output.
type apportionedEntry struct {
	IDProp string                     `json:"id_prop"`
	Layer  json.RawMessage            `json:"layer"`
	Report []apportion.Reconciliation `json:"report"`
}

func encodeApportioned(layer *geo.Layer, report []apportion.Reconciliation, idProp string) ([]byte, error) {
	var buf bytes.Buffer
	if err := io.WriteLayer(layer, idProp, &buf); err != nil {
		return nil, err
	}
	return json.Marshal(apportionedEntry{IDProp: idProp, Layer: buf.Bytes(), Report: report})
}

func decodeApportioned(data []byte) (*geo.Layer, []apportion.Reconciliation, error) {
	var entry apportionedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil, err
	}
	layer, err := io.ReadLayer(bytes.NewReader(entry.Layer), entry.IDProp, "")
	if err != nil {
		return nil, nil, err
	}
	return layer, entry.Report, nil
}
