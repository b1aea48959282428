package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/brokeragedesk/backend/internal/casenumber"
	"github.com/brokeragedesk/backend/internal/config"
	"github.com/brokeragedesk/backend/internal/db"
	"github.com/brokeragedesk/backend/internal/goals"
	"github.com/brokeragedesk/backend/internal/http/handlers"
	"github.com/brokeragedesk/backend/internal/http/middleware"
	"github.com/brokeragedesk/backend/internal/lock"

	_ "github.com/brokeragedesk/backend/docs"
)

func Router(cfg config.Config, store *db.Store, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Identity())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Locks:     lock.NewManager(store),
		Goals:     goals.NewService(store),
		Sequencer: &casenumber.Sequencer{Store: store},
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/contracts", h.ContractsActive)
		api.GET("/contracts/closed", h.ContractsClosed)
		api.GET("/contracts/:id", h.ContractGet)
		api.POST("/contracts", h.ContractCreate)
		api.PUT("/contracts/:id", h.ContractUpdate)
		api.DELETE("/contracts/:id", h.ContractDelete)
		api.POST("/contracts/:id/lock", h.ContractLock)
		api.DELETE("/contracts/:id/lock", h.ContractUnlock)

		api.POST("/purchases", h.PurchaseCreate)

		api.GET("/notifications", h.Notifications)
		api.GET("/summary", h.Summary)

		api.GET("/goals", h.GoalsGet)
		api.PUT("/goals", h.GoalsPut)
		api.GET("/goals/progress", h.GoalProgress)
		api.GET("/sales", h.SalesGet)
		api.PUT("/sales", h.SalesPut)

		api.GET("/masters", h.MastersGet)
		api.PUT("/masters", h.MastersPut)
		api.GET("/customer-masters", h.CustomerMastersGet)
		api.PUT("/customer-masters", h.CustomerMastersPut)
		api.GET("/status-colors", h.StatusColorsGet)
		api.PUT("/status-colors", h.StatusColorsPut)

		api.GET("/locks", h.LocksList)
		api.DELETE("/locks/:type/:id", h.LockDelete)

		api.GET("/customers/years", h.CustomerYears)
		api.POST("/customers/reassign/:category/:year", h.CaseNumbersReassign)
		api.GET("/customers/case-number/:category/:year", h.CaseNumberPreview)
		api.GET("/customers/:category/:year", h.CustomersList)
		api.GET("/customers/:category/:year/export", h.CustomersExport)
		api.POST("/customers/:category/:year", h.CustomerCreate)
		api.GET("/customers/:category/:year/:id", h.CustomerGet)
		api.PUT("/customers/:category/:year/:id", h.CustomerUpdate)
		api.DELETE("/customers/:category/:year/:id", h.CustomerDelete)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
