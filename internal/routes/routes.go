// Package routes defines the API routing configuration.
package routes

import (
	"loyalty/internal/handlers"
	"loyalty/internal/middleware"
	"loyalty/internal/models"
	"loyalty/internal/repositories/cache"
	"loyalty/internal/services/admin"
	"loyalty/internal/services/ledger"
	"loyalty/internal/services/redemption"
	"loyalty/internal/services/referral"
	"loyalty/internal/services/segment"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies are the wired services the routes dispatch to.
type Dependencies struct {
	DB         *gorm.DB
	Cache      *cache.CacheService
	Ledger     *ledger.Service
	Redemption *redemption.Service
	Referral   *referral.Service
	Segment    *segment.Service
	Admin      *admin.Service
	JWTSecret  string
	// Gatherer, when set, is exposed at /metrics.
	Gatherer prometheus.Gatherer
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.DB, deps.Cache)
	app.Get("/health", health.HealthCheck)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	walletHandler := handlers.NewWalletHandler(deps.Ledger)
	redemptionHandler := handlers.NewRedemptionHandler(deps.Redemption)
	memberHandler := handlers.NewMemberHandler(deps.Referral, deps.Segment)
	adminHandler := handlers.NewAdminHandler(deps.Admin)

	api := app.Group("/api/v1")

	api.Get("/rewards", redemptionHandler.ListRewards)
	api.Post("/vouchers/:code/burn", redemptionHandler.BurnVoucher)

	wallets := api.Group("/wallets")
	wallets.Post("/", walletHandler.CreateWallet)
	wallets.Get("/:id", walletHandler.GetWallet)
	wallets.Get("/:id/ledger", walletHandler.GetLedger)
	wallets.Post("/:id/purchases", walletHandler.RecordPurchase)
	wallets.Post("/:id/redemptions", redemptionHandler.RequestRedemption)
	wallets.Get("/:id/redemptions", redemptionHandler.ListRedemptions)
	wallets.Post("/:id/referral", memberHandler.ApplyReferral)
	wallets.Post("/:id/segment", memberHandler.RecomputeSegment)

	setupAdminRoutes(api, deps.JWTSecret, adminHandler, redemptionHandler, walletHandler, health)
}

func setupAdminRoutes(api fiber.Router, secret string, h *handlers.AdminHandler, rh *handlers.RedemptionHandler, wh *handlers.WalletHandler, health *handlers.HealthHandler) {
	adminGroup := api.Group("/admin", middleware.AdminAuth(secret))

	read := middleware.HasPermission(models.PermissionReadAdmin)
	write := middleware.HasPermission(models.PermissionWriteAdmin)

	adminGroup.Post("/redemptions/:id/approve", write, rh.Approve)
	adminGroup.Post("/redemptions/:id/reject", write, rh.Reject)

	adminGroup.Post("/wallets/:id/adjust", write, h.AdjustBalance)
	adminGroup.Post("/wallets/:id/tier", write, h.ForceTier)
	adminGroup.Post("/wallets/:id/suspend", write, h.Suspend)
	adminGroup.Post("/wallets/:id/reinstate", write, h.Reinstate)
	adminGroup.Post("/wallets/:id/merge", write, h.Merge)
	adminGroup.Delete("/wallets/:id", write, h.DeleteAccount)
	adminGroup.Get("/wallets/:id/audit", read, h.ListAudit)
	adminGroup.Get("/wallets/:id/verify", read, wh.VerifyLedger)

	adminGroup.Get("/cache-stats", read, health.CacheStats)
}
