package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/diagnosis/party-hub/internal/http/middleware"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
	"github.com/diagnosis/party-hub/internal/service"
	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/metrics"
	mw "github.com/diagnosis/party-hub/pkg/middleware"
)

type Deps struct {
	Config        *config.Config
	DB            mw.Pinger
	Authors       sqlite.AuthorRepo
	Parties       service.PartyService
	Guests        service.GuestService
	Invitations   service.InvitationService
	Notifications service.NotificationService
	Limiter       *middleware.RateLimiter
}

// NewRouter wires every route of the application.
func NewRouter(d Deps) http.Handler {
	session := middleware.NewSession(d.Authors, d.Config.Auth.Secret, d.Config.Auth.CookieName)
	limit := d.Limiter.Middleware()

	authH := NewAuthHandler(d.Authors, d.Config)
	pages := NewPagesHandler(d.Config.Web.PagesDir, d.Config.Web.StaticDir, d.Invitations, d.Parties)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("party-hub"))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS(d.Config.Server.CORSOrigins))
	r.Use(mw.Health(d.DB))
	r.Use(mw.Metrics)
	r.Use(metrics.InstrumentHandler)

	r.Get("/", pages.Page("index"))
	r.Get("/auth", pages.Page("auth"))
	r.With(limit).Post("/auth", authH.Login)
	r.Post("/auth/logout", authH.Logout)
	r.With(session.RequireAuthorPage).Get("/dashboard", pages.Page("manage"))
	r.Get("/register/{party_id}", pages.Register)

	r.Handle("/static/*", pages.Static())
	r.Get("/web-push-service-worker.js", pages.ServiceWorker)
	r.Get("/favicon.ico", pages.Favicon)
	r.Get("/manifest.json", pages.Manifest)

	r.Mount("/guest", NewGuestHandler(d.Guests, d.Parties, session.RequireAuthor, limit).Routes())
	r.Mount("/party", session.RequireAuthor(NewPartyHandler(d.Parties).Routes()))
	r.Mount("/invitation", NewInvitationHandler(d.Invitations).Routes())
	r.Mount("/notification", NewNotificationHandler(d.Notifications).Routes())

	r.Get("/{invitation_id}", pages.Invitation)
	return r
}
