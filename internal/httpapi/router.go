package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the chi router for every §6 endpoint. CORS is applied
// globally, after RealIP and Recoverer and ahead of the timeout middleware
// and every route, so OPTIONS preflight requests never reach a handler,
// matching tomtom215-cartographus's SetupChi ("CORS must be global
// to handle OPTIONS preflight").
func NewRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimiddleware.Timeout(20 * time.Second))

	r.Get("/health", s.handleHealthCheck)

	r.Post("/save_initial_preferences", s.handleSaveInitialPreferences)
	r.Post("/get_user_preferences", s.handleGetUserPreferences)
	r.Post("/update_specific_subjects", s.handleUpdateSpecificSubjects)
	r.Post("/answer", s.handleAnswer)
	r.Post("/refresh_articles_endpoint", s.handleRefreshArticles)
	r.Post("/get_complete_report_endpoint", s.handleGetCompleteReport)
	r.Post("/generate_simple_podcast_endpoint", s.handleGenerateSimplePodcast)
	r.Post("/update_endpoint", s.handleUpdateEndpoint)
	r.Post("/get_user_articles_endpoint", s.handleGetUserArticles)
	r.Post("/get_aifeed_reports_endpoint", s.handleGetAifeedReports)

	// Supplemental: the original play-count tracking feature, not named by
	// the spec's endpoint list but present in PodcastArtifact.PlayCount.
	r.Post("/track_podcast_play", s.handleTrackPodcastPlay)

	return r
}
