package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotatlas/dotatlas/internal/server"
)

// serveCommand creates the "serve" command exposing pipeline outputs over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pipeline outputs over HTTP",
		Long: `Serve starts a read-only HTTP API over the exported pipeline outputs.
States whose outputs exist under the data directory are served; everything
else returns 404.

Endpoints:
  GET /healthz
  GET /v1/states/{state}/precincts
  GET /v1/states/{state}/dots?group=black
  GET /v1/states/{state}/assignments`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			handler := server.New(server.Options{
				DataDir: dataDir,
				Config:  cfg,
				Logger:  c.Logger,
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Shut down cleanly on Ctrl-C.
			go func() {
				<-cmd.Context().Done()
				_ = srv.Close()
			}()

			printInfo("Serving on http://%s", addr)
			printDetail("Data directory: %s", dataDir)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "root data directory")
	return cmd
}
