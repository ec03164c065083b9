package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/memobloom/memobloom/internal/auth"
	"github.com/memobloom/memobloom/internal/media"
	"github.com/memobloom/memobloom/internal/memory"
	"github.com/memobloom/memobloom/internal/observability"
	"github.com/memobloom/memobloom/internal/store"
)

// Deps are the collaborators the API serves. Media and Metrics are optional.
type Deps struct {
	DB             *store.DB
	Memories       memory.Store
	Auth           *auth.Service
	Media          *media.Library
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	AllowedOrigins []string
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Server is the MemoBloom HTTP API server.
type Server struct {
	db       *store.DB
	memories memory.Store
	auth     *auth.Service
	media    *media.Library
	metrics  *observability.Metrics
	log      *zap.Logger
	origins  []string
	now      func() time.Time

	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given dependencies and version string.
func New(deps Deps, version string) *Server {
	s := &Server{
		db:       deps.DB,
		memories: deps.Memories,
		auth:     deps.Auth,
		media:    deps.Media,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		origins:  deps.AllowedOrigins,
		now:      deps.Now,
		version:  version,
		started:  time.Now(),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.metrics != nil {
		r.Use(s.instrument)
		r.Method("GET", "/metrics", s.metrics.Handler())
	}

	if s.media != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(fileOnlyFS{http.Dir(s.media.Dir())})))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/me", s.handleGetMe)
			r.Put("/me", s.handleUpdateMe)

			r.Get("/memories", s.handleListMemories)
			r.Post("/memories", s.handleCreateMemory)
			r.Get("/memories/{id}", s.handleGetMemory)
			r.Put("/memories/{id}", s.handleUpdateMemory)
			r.Delete("/memories/{id}", s.handleDeleteMemory)

			r.Get("/timeline", s.handleTimeline)
			r.Get("/dashboard", s.handleDashboard)
			r.Post("/activities/routine", s.handleRoutine)
			r.Post("/media", s.handleUpload)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		})
	})

	// Everything outside /api is the embedded web app.
	r.Get("/*", spaHandler())

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}
