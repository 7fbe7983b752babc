package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loredrop/campus-backend/api/controllers"
	"github.com/loredrop/campus-backend/api/middleware"
	"github.com/loredrop/campus-backend/internal/accessrequests"
	"github.com/loredrop/campus-backend/internal/auth"
	"github.com/loredrop/campus-backend/internal/events"
	"github.com/loredrop/campus-backend/internal/interactions"
	"github.com/loredrop/campus-backend/internal/notifications"
	"github.com/loredrop/campus-backend/internal/organizations"
	"github.com/loredrop/campus-backend/internal/principals"
	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/enums"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/metrics"
	pkgredis "github.com/loredrop/campus-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      controllers.Pinger
	Redis   controllers.Pinger
	Metrics *metrics.HTTPMetrics
	// Gatherer backs /metrics. Defaults to the prometheus default gatherer.
	Gatherer prometheus.Gatherer

	Authenticator middleware.Authenticator
	Idempotency   pkgredis.IdempotencyStore

	Auth           auth.Service
	Principals     principals.Service
	Memberships    middleware.OrgAuthorizer
	Organizations  organizations.Service
	Events         events.Service
	Interactions   interactions.Service
	Notifications  notifications.Service
	AccessRequests accessrequests.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.Metrics),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	requireAuth := middleware.Auth(p.Authenticator, logg)
	optionalAuth := middleware.OptionalAuth(p.Authenticator, logg)
	idempotent := middleware.Idempotency(p.Idempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(p)))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/send-verification-code", controllers.AuthSendVerificationCode(p.Auth, logg))
		r.Post("/verify-code", controllers.AuthVerifyCode(p.Auth, logg))
		r.Post("/set-password", controllers.AuthSetPassword(p.Auth, logg))
		r.Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(requireAuth).Get("/me", controllers.AuthMe(p.Principals, logg))
		r.With(requireAuth).Patch("/profile", controllers.AuthUpdateProfile(p.Principals, logg))
	})

	r.Route("/api/organizations", func(r chi.Router) {
		r.Get("/", controllers.ListOrganizations(p.Organizations, logg))
		r.Get("/{slug}", controllers.GetOrganization(p.Organizations, logg))
	})

	r.Route("/api/events", func(r chi.Router) {
		r.With(optionalAuth).Get("/feed", controllers.EventsFeed(p.Events, logg))
		r.Get("/upcoming", controllers.UpcomingEvents(p.Events, logg))
		r.Get("/by-organization/{orgId}", controllers.EventsByOrganization(p.Events, logg))
		r.With(optionalAuth).Get("/{eventId}", controllers.GetEvent(p.Events, logg))
		r.With(requireAuth, idempotent).Post("/", controllers.CreateEvent(p.Events, logg))
	})

	r.Route("/api/interactions", func(r chi.Router) {
		r.Get("/comments/{eventId}", controllers.ListComments(p.Interactions, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/upvote/{eventId}", controllers.ToggleInteraction(p.Interactions, enums.InteractionUpvote, logg))
			r.Get("/upvote/{eventId}/check", controllers.CheckInteraction(p.Interactions, enums.InteractionUpvote, logg))
			r.Get("/calendar/saved/all", controllers.ListCalendarSaves(p.Interactions, logg))
			r.Post("/calendar/{eventId}", controllers.ToggleInteraction(p.Interactions, enums.InteractionCalendarSave, logg))
			r.Get("/calendar/{eventId}/check", controllers.CheckInteraction(p.Interactions, enums.InteractionCalendarSave, logg))
			r.With(idempotent).Post("/comments/{eventId}", controllers.AddComment(p.Interactions, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(p.Notifications, logg))
				r.Get("/unread-count", controllers.UnreadNotificationCount(p.Notifications, logg))
				r.Patch("/read/all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
				r.Patch("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			})
		})
	})

	r.Route("/api/organization-requests", func(r chi.Router) {
		r.Use(requireAuth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSuperAdmin(p.Memberships, logg))
			r.Get("/pending", controllers.ListPendingRequests(p.AccessRequests, false, logg))
			r.Post("/approve/{requestId}", controllers.ApproveAccessRequest(p.AccessRequests, false, logg))
			r.Post("/reject/{requestId}", controllers.RejectAccessRequest(p.AccessRequests, false, logg))
		})

		r.Post("/{orgId}/request-access", controllers.RequestAccess(p.AccessRequests, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOrgRoles(p.Memberships, "orgId", logg, enums.RequestModeratorRoles...))
			r.Get("/{orgId}/pending-requests", controllers.ListPendingRequests(p.AccessRequests, true, logg))
			r.Post("/{orgId}/approve-request/{requestId}", controllers.ApproveAccessRequest(p.AccessRequests, true, logg))
			r.Post("/{orgId}/reject-request/{requestId}", controllers.RejectAccessRequest(p.AccessRequests, true, logg))
		})
	})

	return otelhttp.NewHandler(r, "campus-api")
}

func readinessDeps(p RouterParams) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["database"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	return deps
}
