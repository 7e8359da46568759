package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swapyard/swapyard-backend/api/controllers"
	"github.com/swapyard/swapyard-backend/api/middleware"
	"github.com/swapyard/swapyard-backend/internal/accounts"
	"github.com/swapyard/swapyard-backend/internal/offers"
	"github.com/swapyard/swapyard-backend/internal/settlement"
	"github.com/swapyard/swapyard-backend/internal/transactions"
	"github.com/swapyard/swapyard-backend/pkg/auth/session"
	"github.com/swapyard/swapyard-backend/pkg/config"
	"github.com/swapyard/swapyard-backend/pkg/db"
	"github.com/swapyard/swapyard-backend/pkg/logger"
	"github.com/swapyard/swapyard-backend/pkg/metrics"
	"github.com/swapyard/swapyard-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	offersService offers.Service,
	settlementService settlement.Service,
	transactionsService transactions.Service,
	accountsService accounts.Service,
	settlementMetrics *metrics.SettlementMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/offers", func(r chi.Router) {
			r.Post("/", controllers.CreateOffer(offersService, logg))
			r.Get("/", controllers.ListOffers(offersService, logg))
			r.Get("/{offerId}", controllers.GetOffer(offersService, logg))
			r.Post("/{offerId}/accept", controllers.AcceptOffer(settlementService, logg, settlementMetrics))
			r.Post("/{offerId}/confirm", controllers.ConfirmOffer(settlementService, logg, settlementMetrics))
			r.Post("/{offerId}/reject", controllers.RejectOffer(settlementService, logg, settlementMetrics))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.ListTransactions(transactionsService, logg))
			r.Get("/{transactionId}", controllers.GetTransaction(transactionsService, logg))
			r.Post("/{transactionId}/notes", controllers.AppendTransactionNote(transactionsService, logg))
		})

		r.Route("/accounts/me", func(r chi.Router) {
			r.Get("/", controllers.AccountMe(accountsService, logg))
			r.Post("/deposits", controllers.AccountDeposit(accountsService, logg))
			r.Post("/withdrawals", controllers.AccountWithdraw(accountsService, logg))
		})
	})

	return r
}
