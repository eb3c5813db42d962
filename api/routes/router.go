package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/servicehub-backend/api/controllers"
	"github.com/angelmondragon/servicehub-backend/api/middleware"
	"github.com/angelmondragon/servicehub-backend/internal/achievements"
	"github.com/angelmondragon/servicehub-backend/internal/availability"
	"github.com/angelmondragon/servicehub-backend/internal/bookings"
	"github.com/angelmondragon/servicehub-backend/internal/gamification"
	"github.com/angelmondragon/servicehub-backend/internal/leaderboard"
	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/internal/reviews"
	"github.com/angelmondragon/servicehub-backend/internal/rewards"
	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/redis"
)

// Services bundles the domain services the API exposes.
type Services struct {
	Availability availability.Service
	Bookings     bookings.Service
	Reviews      reviews.Service
	Points       points.Service
	Achievements achievements.Service
	Gamification gamification.Service
	Leaderboard  leaderboard.Service
	Rewards      rewards.Service
}

// NewRouter mounts health, metrics and the versioned API. redisClient may be
// nil, in which case idempotency and rate limiting are skipped.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	deps := map[string]controllers.Pinger{"db": dbP}
	var idempotencyStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if redisClient != nil {
		deps["redis"] = redisClient
		idempotencyStore = redisClient
		limiterStore = redisClient
	}

	redeemPolicy := middleware.NewRateLimitPolicy(
		"redeem",
		cfg.Gamification.RedeemRateLimitWindow,
		cfg.Gamification.RedeemRateLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	customer := middleware.RequireRole(logg, enums.UserRoleCustomer)
	technician := middleware.RequireRole(logg, enums.UserRoleTechnician)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/technicians/{technicianId}", func(r chi.Router) {
			r.Get("/availability", controllers.TechnicianAvailability(svc.Availability, logg))
			r.Get("/slots", controllers.TechnicianSlots(svc.Availability, logg))
			r.Get("/schedule", controllers.TechnicianSchedule(svc.Availability, logg))
			r.Get("/reviews", controllers.TechnicianReviews(svc.Reviews, logg))
		})

		r.Route("/technician", func(r chi.Router) {
			r.Use(technician)
			r.Get("/schedule", controllers.OwnSchedule(svc.Availability, logg))
			r.Put("/schedule", controllers.ReplaceSchedule(svc.Availability, logg))
			r.Get("/time-off", controllers.OwnTimeOff(svc.Availability, logg))
			r.Post("/time-off", controllers.AddTimeOff(svc.Availability, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.With(customer).Post("/", controllers.CreateBooking(svc.Bookings, logg))
			r.Get("/", controllers.ListBookings(svc.Bookings, logg))
			r.Route("/{bookingId}", func(r chi.Router) {
				r.Get("/", controllers.GetBooking(svc.Bookings, logg))
				r.With(technician).Post("/confirm", controllers.ConfirmBooking(svc.Bookings, logg))
				r.With(technician).Post("/start", controllers.StartBooking(svc.Bookings, logg))
				r.With(technician).Post("/complete", controllers.CompleteBooking(svc.Bookings, logg))
				r.Post("/cancel", controllers.CancelBooking(svc.Bookings, logg))
				r.With(customer).Post("/review", controllers.SubmitReview(svc.Reviews, logg))
			})
		})

		r.Route("/gamification", func(r chi.Router) {
			r.Get("/points", controllers.PointsSummary(svc.Points, logg))
			r.Get("/transactions", controllers.PointsTransactions(svc.Points, logg))
			r.Get("/achievements", controllers.Achievements(svc.Achievements, logg))
			r.Post("/achievements/check", controllers.CheckAchievements(svc.Achievements, logg))
			r.Get("/leaderboard", controllers.Leaderboard(svc.Leaderboard, logg))
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", controllers.RewardsCatalog(svc.Rewards, logg))
			r.Get("/redemptions", controllers.Redemptions(svc.Rewards, logg))
			r.With(middleware.RateLimit(redeemPolicy, limiterStore, logg)).
				Post("/{code}/redeem", controllers.RedeemReward(svc.Rewards, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Post("/gamification/events", controllers.AdminAwardEvent(svc.Gamification, logg))
		})
	})

	return r
}
