package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
	"github.com/secmon-lab/mergeminder/pkg/usecase/conversation"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
	"github.com/secmon-lab/mergeminder/pkg/utils/safe"
)

type Server struct {
	router             *chi.Mux
	uc                 *usecase.UseCases
	slackSigningSecret string
	convManager        *conversation.Manager
}

type Options func(*Server)

// WithSlackWebhook enables the Slack Events webhook, verified with the given
// signing secret and routed into the conversation manager.
func WithSlackWebhook(manager *conversation.Manager, signingSecret string) Options {
	return func(s *Server) {
		s.convManager = manager
		s.slackSigningSecret = signingSecret
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("OK"))
	})

	// trigger endpoints return immediately; the work runs in the background
	r.Post("/mind", s.triggerMind)
	r.Post("/purge", s.triggerPurge)

	r.Get("/merges", s.listMerges)
	r.Get("/merges/{id}", s.getMerge)

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.listProjects)
		r.Post("/", s.addProject)
		r.Delete("/{id}", s.removeProject)
	})

	r.Route("/mappings", func(r chi.Router) {
		r.Get("/", s.listMappings)
		r.Post("/", s.createMapping)
		r.Put("/{id}", s.updateMapping)
	})

	r.Get("/users/search", s.searchUsers)

	// webhook uses signature verification instead of auth
	if s.convManager != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
			r.Post("/event", s.slackEvent)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
