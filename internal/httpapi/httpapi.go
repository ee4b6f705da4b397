// Package httpapi is the external interface from §6: one JSON-over-POST
// endpoint per core operation, with CORS preflight support, grounded on
// tomtom215-cartographus's chi router (internal/api/chi_router.go) for
// routing/middleware shape and apresai-podcaster's mcpserver.Server for the
// listen/shutdown lifecycle (internal/mcpserver/server.go's Start()).
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/brightfeed/newsbrief/internal/discovery"
	"github.com/brightfeed/newsbrief/internal/fetch"
	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/orchestrator"
	"github.com/brightfeed/newsbrief/internal/podcast"
	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/providers/quota"
	"github.com/brightfeed/newsbrief/internal/report"
)

// Store is the slice of store.Adapter the HTTP layer needs directly (beyond
// what the orchestrator already wraps), declared locally so tests can
// substitute a fake per the package's usual testability pattern.
type Store interface {
	GetArticlesBundle(ctx context.Context, userID string) (*model.UserArticlesBundle, bool, error)
	PutArticlesBundle(ctx context.Context, bundle model.UserArticlesBundle) error
	GetReportBundle(ctx context.Context, userID string) (*model.UserReportBundle, bool, error)
	PutReportBundle(ctx context.Context, bundle model.UserReportBundle) error
	PutPodcastRun(ctx context.Context, artifact model.PodcastArtifact) error
	IncrementPlayCount(ctx context.Context, userID string) error
}

// Deps wires every component this HTTP surface fronts. Passed explicitly to
// NewServer rather than held in package globals, per §0's "no package-level
// globals beyond credential bootstrap."
type Deps struct {
	Prefs         *prefs.Store
	Discovery     *discovery.Service
	Fetcher       *fetch.Fetcher
	ReportBuilder *report.Builder
	Composer      *podcast.Composer
	Synthesizer   *podcast.Synthesizer
	Orchestrator  *orchestrator.Orchestrator
	Store         Store
	Log           *slog.Logger
	Now           func() time.Time
	Quota         *quota.Tracker // nil if the caller does not track provider quota state

	DefaultCountry string // two-letter, passed to the fetcher; "us" if empty
}

// Defaults mirror the scheduler's (internal/scheduler's own copies of these
// constants) for calls made directly through the HTTP surface rather than a
// scheduled tick.
const (
	defaultPresenterName = "Alex"
	defaultVoiceID        = "Joanna"
)

type server struct {
	deps Deps
	log  *slog.Logger
	now  func() time.Time
}

func (s *server) country() string {
	if s.deps.DefaultCountry != "" {
		return s.deps.DefaultCountry
	}
	return "us"
}

// Server bundles the built router with its net/http.Server, matching
// mcpserver.Server's own Start()/Shutdown() pair.
type Server struct {
	httpSrv *http.Server
	log     *slog.Logger
}

func NewServer(addr string, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	s := &server{deps: deps, log: log, now: now}
	return &Server{
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(s),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start blocks serving HTTP until the listener fails or is shut down,
// mirroring mcpserver.Server.Start's ListenAndServe call.
func (s *Server) Start() error {
	s.log.Info("http server starting", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
