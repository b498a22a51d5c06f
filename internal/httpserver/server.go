// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the bloglist backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, access log, panic recovery, CORS, JSON).
//   - Public endpoints: "/health", GET /api/blog, GET /api/blog/stats, GET /api/users.
//   - Registration and login: POST /api/users, POST /api/login.
//   - Authenticated post mutations: POST /api/blog, DELETE /api/blog/{id}.
//   - Like updates (no auth): PUT /api/blog/{id}.
//   - Optional static frontend from Config.StaticDir, served from the 404 handler.
//
// Notes:
//   - Every request passes the token extractor; only routes that need a user
//     mount the user extractor, so anonymous reads never verify tokens.
//   - Handlers return errors; errors.go is the only place that writes error bodies.

package httpserver

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/bloglist/apps/go-server/internal/config"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
	"github.com/robalobadob/bloglist/apps/go-server/internal/token"
)

// saltRounds is the bcrypt cost for stored password hashes.
const saltRounds = 10

// Server bundles router, store and token service.
type Server struct {
	r      *chi.Mux
	store  store.Store
	tokens *token.Service

	// dummyHash is compared against when a login names an unknown user,
	// so both failure paths run one bcrypt comparison.
	dummyHash []byte
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, tokens *token.Service) (*Server, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("bloglist-login-equalizer"), saltRounds)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	s := &Server{r: chi.NewRouter(), store: st, tokens: tokens, dummyHash: dummy}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger(log.Logger))
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.ClientOrigin))
	s.r.Use(tokenExtractor)

	// JSON 404/405; set before sub-routers are created so they inherit them.
	fallback := unknownEndpoint
	if cfg.StaticDir != "" {
		fallback = staticFiles(cfg.StaticDir)
	}
	s.r.NotFound(fallback)
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.mountBlog()
	s.mountUsers()
	s.r.Post("/api/login", handle(s.handleLogin))

	return s, nil
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// ----------------------------- middleware ----------------------------------

// requestLogger attaches a request-scoped zerolog logger carrying the
// request id and writes one access line per request.
func requestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	withLogger := hlog.NewHandler(base)
	tagRequest := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := chimw.GetReqID(r.Context()); id != "" {
				hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Str("req_id", id)
				})
			}
			next.ServeHTTP(w, r)
		})
	}
	access := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})
	return func(next http.Handler) http.Handler {
		return withLogger(tagRequest(access(next)))
	}
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables CORS for a single origin with bearer auth headers.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unknownEndpoint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Unknown endpoint"})
}

// staticFiles serves a built frontend for GET and HEAD requests that match
// a file under dir; everything else gets the JSON 404.
func staticFiles(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			unknownEndpoint(w, r)
			return
		}
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			info, err = os.Stat(filepath.Join(p, "index.html"))
		}
		if err != nil || info.IsDir() {
			unknownEndpoint(w, r)
			return
		}
		w.Header().Del("Content-Type")
		fs.ServeHTTP(w, r)
	}
}
