package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotatlas/dotatlas/pkg/config"
	"github.com/dotatlas/dotatlas/pkg/observability"
	"github.com/dotatlas/dotatlas/pkg/pipeline"
)

// stageFlags holds the flags shared by the run and per-stage commands.
type stageFlags struct {
	dataDir     string
	blockGroups string
	precincts   string
	districts   string
	chamber     string
	year        int
	refresh     bool
	noCache     bool
	outDir      string
}

func (f *stageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "data", "root data directory")
	cmd.Flags().StringVar(&f.blockGroups, "block-groups", "", "block-group GeoJSON (default: data-dir convention)")
	cmd.Flags().StringVar(&f.precincts, "precincts", "", "precinct GeoJSON (default: data-dir convention)")
	cmd.Flags().StringVar(&f.districts, "districts", "", "district plan GeoJSON (default: data-dir convention)")
	cmd.Flags().StringVar(&f.chamber, "chamber", "", "plan chamber (CONG or SL)")
	cmd.Flags().IntVar(&f.year, "year", 0, "plan year (default: ACS year)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached results exist")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the stage cache")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "output directory (default: data-dir convention)")
}

// options resolves flags against the data-dir conventions for the state.
func (f *stageFlags) options(cfg *config.Config, state string, stages []string) pipeline.Options {
	p := newPaths(f.dataDir, state, cfg.Project.ACSYear)

	opts := pipeline.Options{
		State:       state,
		BlockGroups: f.blockGroups,
		Precincts:   f.precincts,
		Districts:   f.districts,
		Chamber:     f.chamber,
		PlanYear:    f.year,
		Stages:      stages,
		Refresh:     f.refresh,
		Config:      cfg,
	}
	if opts.BlockGroups == "" {
		opts.BlockGroups = p.blockGroups()
	}
	if opts.Precincts == "" {
		opts.Precincts = filepath.Join(p.precinctsDir(), fmt.Sprintf("%s_precincts.geojson", p.state))
	}
	if opts.Districts == "" {
		year := f.year
		if year == 0 {
			year = cfg.Project.ACSYear
		}
		opts.Districts = filepath.Join(p.plansDir(), fmt.Sprintf("%s_districts_%d.geojson", p.state, year))
	}
	return opts
}

func (f *stageFlags) outputPaths(cfg *config.Config, state string) paths {
	p := newPaths(f.dataDir, state, cfg.Project.ACSYear)
	p.outOverride = f.outDir
	return p
}

// runCommand creates the "run" command executing all three stages.
func (c *CLI) runCommand() *cobra.Command {
	flags := &stageFlags{}

	cmd := &cobra.Command{
		Use:   "run STATE",
		Short: "Run the full pipeline: apportion, assign, and dots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStages(cmd, args[0], flags, pipeline.AllStages)
		},
	}
	flags.register(cmd)
	return cmd
}

// apportionCommand creates the "apportion" command.
func (c *CLI) apportionCommand() *cobra.Command {
	flags := &stageFlags{}

	cmd := &cobra.Command{
		Use:   "apportion STATE",
		Short: "Redistribute block-group counts onto precincts by area overlap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStages(cmd, args[0], flags, []string{pipeline.StageApportion})
		},
	}
	flags.register(cmd)
	return cmd
}

// assignCommand creates the "assign" command.
func (c *CLI) assignCommand() *cobra.Command {
	flags := &stageFlags{}

	cmd := &cobra.Command{
		Use:   "assign STATE",
		Short: "Resolve precinct-to-district assignments by largest overlap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStages(cmd, args[0], flags, []string{pipeline.StageAssign})
		},
	}
	flags.register(cmd)
	return cmd
}

// dotsCommand creates the "dots" command.
func (c *CLI) dotsCommand() *cobra.Command {
	flags := &stageFlags{}

	cmd := &cobra.Command{
		Use:   "dots STATE",
		Short: "Synthesize dot-density points from precinct counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStages(cmd, args[0], flags, []string{pipeline.StageDots})
		},
	}
	flags.register(cmd)
	return cmd
}

// runStages executes the selected stages and writes their outputs.
func (c *CLI) runStages(cmd *cobra.Command, state string, flags *stageFlags, stages []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}

	opts := flags.options(cfg, state, stages)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	prog := newProgress(c.Logger)

	spin := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Running %s pipeline for %s", stageList(stages), state))
	observability.SetStageHooks(spinnerStageHooks{spin: spin})
	defer observability.SetStageHooks(observability.NoopStageHooks{})
	spin.Start()
	res, err := runner.Execute(cmd.Context(), opts)
	spin.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Processed %d precincts", res.Stats.Precincts))

	return c.writeOutputs(cfg, flags.outputPaths(cfg, state), res, opts)
}

// spinnerStageHooks swaps the spinner message to the stage currently
// executing, so multi-stage runs show progress beyond one static line.
type spinnerStageHooks struct {
	spin *Spinner
}

func (h spinnerStageHooks) OnStageStart(_ context.Context, stage, state string) {
	h.spin.SetMessage(fmt.Sprintf("%s %s", stageVerb(stage), state))
}

func (h spinnerStageHooks) OnStageComplete(context.Context, string, string, int, time.Duration, error) {
}

func stageVerb(stage string) string {
	switch stage {
	case pipeline.StageApportion:
		return "Apportioning block groups for"
	case pipeline.StageAssign:
		return "Assigning precincts for"
	case pipeline.StageDots:
		return "Synthesizing dots for"
	default:
		return "Running " + stage + " for"
	}
}

func stageList(stages []string) string {
	if len(stages) == len(pipeline.AllStages) {
		return "full"
	}
	s := stages[0]
	for _, st := range stages[1:] {
		s += "+" + st
	}
	return s
}
