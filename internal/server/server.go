// Package server implements the read-only HTTP API over exported pipeline
// outputs. It serves files from the conventional outputs/<state> layout and
// never recomputes anything; run the pipeline first.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dotatlas/dotatlas/pkg/buildinfo"
	"github.com/dotatlas/dotatlas/pkg/config"
)

// Options configures the API server.
type Options struct {
	// DataDir is the root data directory holding outputs/<state>/ trees.
	DataDir string

	// Config supplies the ACS year and dot unit used in output file names.
	Config *config.Config

	// Logger receives request logs. Defaults to a silent logger.
	Logger *log.Logger
}

type api struct {
	dataDir string
	cfg     *config.Config
	logger  *log.Logger
}

// New builds the HTTP handler.
func New(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	a := &api{dataDir: opts.DataDir, cfg: opts.Config, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/healthz", a.handleHealth)
	r.Route("/v1/states/{state}", func(r chi.Router) {
		r.Get("/precincts", a.handlePrecincts)
		r.Get("/dots", a.handleDots)
		r.Get("/assignments", a.handleAssignments)
		r.Get("/plans", a.handlePlans)
	})

	return r
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// statePath validates the state parameter and returns its output directory.
// The parameter is restricted to known states, which also keeps path
// traversal out of the file lookups below.
func (a *api) statePath(r *http.Request) (string, string, error) {
	state := chi.URLParam(r, "state")
	if _, err := a.cfg.LookupState(state); err != nil {
		return "", "", fmt.Errorf("unknown state %q", state)
	}
	st := strings.ToLower(state)
	return st, filepath.Join(a.dataDir, "outputs", st), nil
}

func (a *api) handlePrecincts(w http.ResponseWriter, r *http.Request) {
	st, dir, err := a.statePath(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	name := fmt.Sprintf("%s_precinct_all_pop_%d.geojson", st, a.cfg.Project.ACSYear)
	a.serveGeoJSON(w, r, filepath.Join(dir, name))
}

func (a *api) handleDots(w http.ResponseWriter, r *http.Request) {
	st, dir, err := a.statePath(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	name := fmt.Sprintf("%s_dots_pop%02d_unit%d.geojson",
		st, a.cfg.Project.ACSYear%100, int(a.cfg.Dots.Unit))
	path := filepath.Join(dir, name)

	group := r.URL.Query().Get("group")
	if group == "" {
		a.serveGeoJSON(w, r, path)
		return
	}
	a.serveFilteredDots(w, path, group)
}

func (a *api) handleAssignments(w http.ResponseWriter, r *http.Request) {
	st, dir, err := a.statePath(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	name := fmt.Sprintf("%s_assignments_%d.json", st, a.cfg.Project.ACSYear)
	a.serveGeoJSON(w, r, filepath.Join(dir, name))
}

// handlePlans serves plan metadata with per-district aggregate totals.
func (a *api) handlePlans(w http.ResponseWriter, r *http.Request) {
	st, dir, err := a.statePath(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	name := fmt.Sprintf("%s_plans_%d.json", st, a.cfg.Project.ACSYear)
	a.serveGeoJSON(w, r, filepath.Join(dir, name))
}

func (a *api) serveGeoJSON(w http.ResponseWriter, r *http.Request, path string) {
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "no output for this state; run the pipeline first")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

// serveFilteredDots streams the dot collection with only the requested
// group's features. Dot files can be large, so features stay raw except for
// the property peek.
func (a *api) serveFilteredDots(w http.ResponseWriter, path, group string) {
	data, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "no output for this state; run the pipeline first")
		return
	}

	var coll struct {
		Type     string            `json:"type"`
		CRS      json.RawMessage   `json:"crs,omitempty"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &coll); err != nil {
		writeError(w, http.StatusInternalServerError, "malformed dot file")
		return
	}

	filtered := coll.Features[:0]
	for _, raw := range coll.Features {
		var peek struct {
			Properties struct {
				Group string `json:"group"`
			} `json:"properties"`
		}
		if err := json.Unmarshal(raw, &peek); err != nil {
			continue
		}
		if peek.Properties.Group == group {
			filtered = append(filtered, raw)
		}
	}
	coll.Features = filtered

	writeJSON(w, http.StatusOK, coll)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
