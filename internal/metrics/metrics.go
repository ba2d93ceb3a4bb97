// Package metrics exposes the watchdog's state over HTTP: Prometheus-style
// metrics, a health endpoint and a JSON snapshot of all sites.
package metrics

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/doridoridoriand/upsman-go/internal/probe"
	"github.com/doridoridoriand/upsman-go/internal/state"
)

// Server serves read-only views of the state store.
type Server struct {
	store state.Store
}

// NewServer constructs a metrics server over the store.
func NewServer(store state.Store) *Server {
	return &Server{store: store}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/sites", s.handleSites)
	return r
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	writeMetrics(bw, s.store.Snapshot())
}

func writeMetrics(w *bufio.Writer, snapshot []state.SiteStatus) {
	confirmedDown := 0
	for _, site := range snapshot {
		if isWindowAllDown(site.Window) {
			confirmedDown++
		}
	}
	fmt.Fprintf(w, "upsman_sites_total %d\n", len(snapshot))
	fmt.Fprintf(w, "upsman_sites_confirmed_down %d\n", confirmedDown)

	for _, site := range snapshot {
		down := 0
		for _, outcome := range site.Window {
			if outcome == probe.OutcomeDown {
				down++
			}
		}
		labels := fmt.Sprintf("site=%q,color=%q,ups=%q", fmt.Sprint(site.ID), site.Color, site.UPS)
		fmt.Fprintf(w, "upsman_site_window_down{%s} %d\n", labels, down)
		fmt.Fprintf(w, "upsman_site_window_size{%s} %d\n", labels, len(site.Window))
		fmt.Fprintf(w, "upsman_site_devices{%s} %d\n", labels, len(site.Devices))
		fmt.Fprintf(w, "upsman_site_remediations_total{%s} %d\n", labels, site.Remediations)
	}
}

func isWindowAllDown(window []probe.Outcome) bool {
	for _, outcome := range window {
		if outcome != probe.OutcomeDown {
			return false
		}
	}
	return len(window) > 0
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type siteView struct {
	ID              int             `json:"id"`
	Color           string          `json:"color"`
	UPS             string          `json:"ups"`
	Outlet          int             `json:"outlet"`
	Devices         []string        `json:"devices"`
	Window          []probe.Outcome `json:"window"`
	DownCount       int             `json:"down_count"`
	Remediations    int             `json:"remediations"`
	LastRemediation *time.Time      `json:"last_remediation,omitempty"`
}

func (s *Server) handleSites(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.store.Snapshot()
	views := make([]siteView, 0, len(snapshot))
	for _, site := range snapshot {
		view := siteView{
			ID:           site.ID,
			Color:        site.Color,
			UPS:          site.UPS,
			Outlet:       site.Outlet,
			Devices:      site.Devices,
			Window:       site.Window,
			Remediations: site.Remediations,
		}
		for _, outcome := range site.Window {
			if outcome == probe.OutcomeDown {
				view.DownCount++
			}
		}
		if !site.LastRemediation.IsZero() {
			t := site.LastRemediation
			view.LastRemediation = &t
		}
		views = append(views, view)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// Serve starts the HTTP server and blocks until context cancellation.
func Serve(ctx context.Context, addr string, store state.Store) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           NewServer(store).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return context.Canceled
		}
		return err
	}
}
