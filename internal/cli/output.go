package cli

import (
	"fmt"
	"os"

	"github.com/dotatlas/dotatlas/pkg/config"
	"github.com/dotatlas/dotatlas/pkg/dots"
	"github.com/dotatlas/dotatlas/pkg/geo"
	"github.com/dotatlas/dotatlas/pkg/io"
	"github.com/dotatlas/dotatlas/pkg/pipeline"
)

// writeOutputs exports the stage results under the state's output directory.
// Geometry is reprojected from the working projection to the interchange CRS
// before writing.
func (c *CLI) writeOutputs(cfg *config.Config, p paths, res *pipeline.Result, opts pipeline.Options) error {
	if err := os.MkdirAll(p.outputDir(), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if opts.HasStage(pipeline.StageApportion) && res.Precincts != nil {
		out, err := reprojectLayer(res.Precincts, cfg.CRS.Output)
		if err != nil {
			return err
		}
		path := p.precincts()
		if err := io.ExportLayer(out, opts.PrecinctID, path); err != nil {
			return err
		}
		printSuccess("Apportioned %d precincts", res.Stats.Precincts)
		printFile(path)
		printStageStats(map[string]int{
			"block groups": res.Stats.BlockGroups,
			"precincts":    res.Stats.Precincts,
		}, []string{"block groups", "precincts"}, res.CacheInfo.ApportionHit)
	}

	if opts.HasStage(pipeline.StageAssign) && res.Assignment != nil {
		path := p.assignmentsFile(res.Plan.Year)
		if err := io.ExportAssignments(res.Plan, res.Assignment.Records, path); err != nil {
			return err
		}
		printSuccess("Assigned %d precincts to %d districts", len(res.Assignment.Records), res.Plan.Districts)
		printFile(path)
		if res.Assignment.Unassigned > 0 {
			printWarning("%d precincts have no overlapping district", res.Assignment.Unassigned)
		}

		planPath := p.plansFile(res.Plan.Year)
		if err := io.ExportPlan(res.Plan, res.DistrictStats, planPath); err != nil {
			return err
		}
		printFile(planPath)
	}

	if opts.HasStage(pipeline.StageDots) && res.Dots != nil {
		converted, err := reprojectDots(res.Dots.Dots)
		if err != nil {
			return err
		}
		path := p.dotsFile(cfg.Dots.Unit)
		if err := io.ExportDots(converted, cfg.CRS.Output, path); err != nil {
			return err
		}
		printSuccess("Synthesized %d dots", len(converted))
		printFile(path)
		printStageStats(map[string]int{
			"dots":   len(converted),
			"forced": res.Dots.Forced,
		}, []string{"dots", "forced"}, res.CacheInfo.DotsHit)
	}

	printNewline()
	printNextStep("Publish to MongoDB", fmt.Sprintf("dotatlas upload %s", opts.State))
	return nil
}

// reprojectLayer converts a layer from the working projection to the
// interchange CRS.
func reprojectLayer(l *geo.Layer, dstCRS string) (*geo.Layer, error) {
	return geo.Reproject(l, geo.ConusAlbersProj4, geo.LonLatProj4, dstCRS)
}

// reprojectDots converts dot coordinates from the working projection to
// geographic lon/lat.
func reprojectDots(ds []dots.Dot) ([]dots.Dot, error) {
	transform, err := geo.PointTransform(geo.ConusAlbersProj4, geo.LonLatProj4)
	if err != nil {
		return nil, err
	}

	out := make([]dots.Dot, len(ds))
	for i, d := range ds {
		x, y, err := transform(d.X, d.Y)
		if err != nil {
			return nil, err
		}
		d.X, d.Y = x, y
		out[i] = d
	}
	return out, nil
}
