package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/slot-scheduler/internal/audit"
	"github.com/BruksfildServices01/slot-scheduler/internal/calendar"
	"github.com/BruksfildServices01/slot-scheduler/internal/config"
	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/handlers"
	"github.com/BruksfildServices01/slot-scheduler/internal/infra/directory"
	"github.com/BruksfildServices01/slot-scheduler/internal/infra/lock"
	infraRepo "github.com/BruksfildServices01/slot-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/slot-scheduler/internal/logger"
	"github.com/BruksfildServices01/slot-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/slot-scheduler/internal/usecase/appointment"
)

type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Log    *zap.Logger

	// Opcionais: sem Redis não há cache de plano nem lock por subscriber;
	// sem Calendar o link provisório fica como definitivo.
	Redis    *redis.Client
	Calendar domain.CalendarSync
}

// RegisterRoutes monta o grafo de dependências e as rotas. A função devolvida
// drena as filas assíncronas e deve ser chamada no shutdown.
func RegisterRoutes(r *gin.Engine, deps Deps) func() {
	cfg := deps.Config
	log := deps.Log

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(logger.GinMiddleware(log))
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// 🔧 INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(deps.DB)

	auditDispatcher := audit.NewDispatcher(audit.New(deps.DB), log)

	var plans domain.SubscriptionDirectory = directory.NewGormDirectory(deps.DB)
	var locker domain.SubscriberLocker
	if deps.Redis != nil {
		plans = directory.NewCachedDirectory(deps.Redis, plans, cfg.PlanCacheTTL, log)
		locker = lock.NewSubscriberLock(deps.Redis, cfg.SubscriberLockTTL)
	}

	calendarSync := deps.Calendar
	if calendarSync == nil {
		calendarSync = calendar.Noop{}
	}
	calendarDispatcher := calendar.NewDispatcher(
		calendarSync,
		appointmentRepo,
		log,
		cfg.CalendarQueueSize,
		cfg.CalendarTimeout,
	)

	// ======================================================
	// 🧠 USE CASES
	// ======================================================
	checkQuotaUC := ucAppointment.NewCheckQuota(
		appointmentRepo,
		plans,
		cfg.BillingTimezone,
	)

	reserveUC := ucAppointment.NewReserveSlot(
		appointmentRepo,
		checkQuotaUC,
		auditDispatcher,
		calendarDispatcher,
		log,
		ucAppointment.ReserveOptions{
			UseTransaction: cfg.UseTransactions(),
			MeetingLink:    calendar.PlaceholderLinks(cfg.MeetingBaseURL),
			Locker:         locker,
		},
	)

	cancelUC := ucAppointment.NewCancelReservation(
		appointmentRepo,
		auditDispatcher,
		calendarDispatcher,
		log,
		cfg.UseTransactions(),
	)

	listFreeUC := ucAppointment.NewListFreeSlots(appointmentRepo)
	listProviderUC := ucAppointment.NewListProviderSlots(appointmentRepo)
	createSlotsUC := ucAppointment.NewCreateSlots(appointmentRepo, cfg.MaxSlotsPerRequest)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	slotHandler := handlers.NewSlotHandler(listFreeUC, listProviderUC, createSlotsUC)
	reservationHandler := handlers.NewReservationHandler(reserveUC, cancelUC, checkQuotaUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(deps.DB)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		api.GET("/slots", slotHandler.ListFree)
		api.GET("/providers/:id/slots", slotHandler.ListByProvider)

		// ------------------------------
		// PROVIDER
		// ------------------------------
		provider := api.Group("/providers/:id")
		provider.Use(middleware.RequireRole(middleware.RoleProvider))
		{
			provider.POST("/slots", slotHandler.Create)
			provider.GET("/audit-logs", auditLogsHandler.List)
		}

		// ------------------------------
		// SUBSCRIBER
		// ------------------------------
		api.GET("/me/quota", reservationHandler.Quota)
		api.POST("/me/reservations", reservationHandler.Reserve)
		api.DELETE("/me/reservations/:id", reservationHandler.Cancel)
	}

	return func() {
		calendarDispatcher.Close()
		auditDispatcher.Close()
	}
}
