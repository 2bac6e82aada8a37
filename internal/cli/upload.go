package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dotatlas/dotatlas/pkg/pipeline"
	"github.com/dotatlas/dotatlas/pkg/store"
)

// Environment variables read by the upload command. A .env file in the
// working directory is loaded first when present.
const (
	envMongoURI = "DOTATLAS_MONGO_URI"
	envMongoDB  = "DOTATLAS_MONGO_DB"
)

// uploadCommand creates the "upload" command publishing pipeline results
// to MongoDB.
func (c *CLI) uploadCommand() *cobra.Command {
	flags := &stageFlags{}
	var uri, db string

	cmd := &cobra.Command{
		Use:   "upload STATE",
		Short: "Publish precincts, dots, and assignments to MongoDB",
		Long: `Upload runs the pipeline (reusing cached stage results when available)
and publishes the outputs to MongoDB for the map frontend.

The connection string comes from --uri, the ` + envMongoURI + ` environment
variable, or a .env file in the working directory, in that order of
precedence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := args[0]

			// Missing .env is fine; explicit flags and env vars still apply.
			_ = godotenv.Load()

			if uri == "" {
				uri = os.Getenv(envMongoURI)
			}
			if uri == "" {
				return fmt.Errorf("mongodb uri required: pass --uri or set %s", envMongoURI)
			}
			if db == "" {
				db = os.Getenv(envMongoDB)
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(flags.noCache)
			if err != nil {
				return err
			}

			opts := flags.options(cfg, state, pipeline.AllStages)
			res, err := runner.Execute(cmd.Context(), opts)
			if err != nil {
				return err
			}

			spin := newSpinnerWithContext(cmd.Context(), "Connecting to MongoDB")
			spin.Start()
			st, err := store.Connect(cmd.Context(), store.Options{
				URI:      uri,
				Database: db,
				Logger:   c.Logger,
			})
			spin.Stop()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(cmd.Context()) }()

			if err := st.EnsureIndexes(cmd.Context(), state); err != nil {
				return err
			}

			// Precincts and dots leave the pipeline in the working
			// projection; the frontend wants geographic coordinates.
			precincts, err := reprojectLayer(res.Precincts, cfg.CRS.Output)
			if err != nil {
				return err
			}
			if _, err := st.UploadPrecincts(cmd.Context(), state, precincts); err != nil {
				return err
			}
			printSuccess("Uploaded %d precincts", precincts.Len())

			converted, err := reprojectDots(res.Dots.Dots)
			if err != nil {
				return err
			}
			if _, err := st.UploadDots(cmd.Context(), state, converted); err != nil {
				return err
			}
			printSuccess("Uploaded %d dots", len(converted))

			if err := st.UploadPlan(cmd.Context(), res.Plan); err != nil {
				return err
			}
			n, err := st.UploadAssignments(cmd.Context(), res.Plan.PlanID, res.Assignment.Records)
			if err != nil {
				return err
			}
			printSuccess("Uploaded plan %s with %d assignments", res.Plan.PlanID, n)

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&uri, "uri", "", "MongoDB connection string")
	cmd.Flags().StringVar(&db, "db", "", "MongoDB database name")
	return cmd
}
