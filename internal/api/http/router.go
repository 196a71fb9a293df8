package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/auth"
	authmw "github.com/mind-engage/edukid/internal/auth/middleware"
	"github.com/mind-engage/edukid/internal/config"
	"github.com/mind-engage/edukid/internal/learning"
	"github.com/mind-engage/edukid/internal/logger"
	"github.com/mind-engage/edukid/internal/rbac"
)

// Pinger is anything readiness can probe: *sql.DB, the redis session store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Config   config.Config
	Users    account.Store
	Learning *learning.Service
	Auth     *authmw.AuthService
	Sessions authmw.SessionStore
	Log      *logger.Logger

	// Ready lists the dependencies /readyz pings.
	Ready map[string]Pinger
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logger.RequestLogger(d.Log), middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ReadyHandler(d.Ready, d.Log))

	authDeps := auth.Deps{
		Users:        d.Users,
		Auth:         d.Auth,
		Sessions:     d.Sessions,
		CookieSecure: cfg.CookieSecure,
		Log:          d.Log.With("component", "auth"),
	}

	// Identity is optional here; handlers that need it are wrapped below.
	r.Group(func(ar chi.Router) {
		ar.Use(authmw.Authenticate(d.Auth, d.Sessions))

		ar.Post("/login", auth.LoginHandler(authDeps))
		ar.Post("/logout", auth.LogoutHandler(authDeps))
		ar.Get("/me", auth.MeHandler(authDeps))

		ar.Get("/topics", ListTopicsHandler(d.Learning, d.Log))
		ar.Get("/next-question", NextQuestionHandler(d.Learning, cfg.RevealAnswers, d.Log))

		ar.Group(func(pr chi.Router) {
			pr.Use(authmw.RequireIdentity)

			pr.With(rbac.Require(rbac.PermAnswerSubmit)).
				Post("/submit-answer", SubmitAnswerHandler(d.Learning, d.Log))

			pr.Route("/learners/{userID}", func(lr chi.Router) {
				lr.Use(rbac.RequireLearnerAccess(d.Users, "userID"))
				lr.Get("/mastery", LearnerMasteryHandler(d.Learning, d.Log))
				lr.Get("/events", LearnerEventsHandler(d.Learning, d.Log))
			})
		})
	})

	return r
}
