package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stegashield/stegashield/internal/announcement"
	announcementdomain "github.com/stegashield/stegashield/internal/announcement/domain"
	"github.com/stegashield/stegashield/internal/audit"
	auditdomain "github.com/stegashield/stegashield/internal/audit/domain"
	"github.com/stegashield/stegashield/internal/auth"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	"github.com/stegashield/stegashield/internal/config"
	"github.com/stegashield/stegashield/internal/observability"
	obslogger "github.com/stegashield/stegashield/internal/observability/logger"
	obsmetrics "github.com/stegashield/stegashield/internal/observability/metrics"
	"github.com/stegashield/stegashield/internal/payment"
	paymentdomain "github.com/stegashield/stegashield/internal/payment/domain"
	"github.com/stegashield/stegashield/internal/plan"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	"github.com/stegashield/stegashield/internal/ratelimit"
	"github.com/stegashield/stegashield/internal/ticket"
	ticketdomain "github.com/stegashield/stegashield/internal/ticket/domain"
	"github.com/stegashield/stegashield/internal/watermark"
	watermarkdomain "github.com/stegashield/stegashield/internal/watermark/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	fx.Provide(registerGin),
	audit.Module,
	auth.Module,
	plan.Module,
	payment.Module,
	watermark.Module,
	ticket.Module,
	announcement.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(log, m)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	authSvc         authdomain.Service
	userRepo        authdomain.Repository
	planSvc         plandomain.Service
	paymentSvc      paymentdomain.Service
	watermarkSvc    watermarkdomain.Service
	ticketSvc       ticketdomain.Service
	announcementSvc announcementdomain.Service
	auditSvc        auditdomain.Service
	webhookLimiter  *ratelimit.KeyedLimiter
	authLimiter     *ratelimit.KeyedLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	AuthSvc         authdomain.Service
	UserRepo        authdomain.Repository
	PlanSvc         plandomain.Service
	PaymentSvc      paymentdomain.Service
	WatermarkSvc    watermarkdomain.Service
	TicketSvc       ticketdomain.Service
	AnnouncementSvc announcementdomain.Service
	AuditSvc        auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		genID:           p.GenID,
		authSvc:         p.AuthSvc,
		userRepo:        p.UserRepo,
		planSvc:         p.PlanSvc,
		paymentSvc:      p.PaymentSvc,
		watermarkSvc:    p.WatermarkSvc,
		ticketSvc:       p.TicketSvc,
		announcementSvc: p.AnnouncementSvc,
		auditSvc:        p.AuditSvc,
		webhookLimiter:  ratelimit.NewKeyedLimiter(60, 20),
		authLimiter:     ratelimit.NewKeyedLimiter(30, 10),
	}

	svc.registerAuthRoutes()
	svc.registerPaymentRoutes()
	svc.registerWatermarkRoutes()
	svc.registerTicketRoutes()
	svc.registerAnnouncementRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/api/auth")

	authGroup.POST("/register", s.RateLimit(s.authLimiter), s.Register)
	authGroup.POST("/login", s.RateLimit(s.authLimiter), s.Login)
	// Second step of a two factor login; same contract as /login with
	// the totp_code field populated.
	authGroup.POST("/verify-2fa", s.RateLimit(s.authLimiter), s.Login)
	authGroup.GET("/me", s.AuthRequired(), s.Me)
	authGroup.PUT("/profile", s.AuthRequired(), s.UpdateProfile)
	authGroup.PUT("/password", s.AuthRequired(), s.ChangePassword)

	twofa := authGroup.Group("/2fa", s.AuthRequired())
	{
		twofa.POST("/setup", s.SetupTOTP)
		twofa.POST("/enable", s.EnableTOTP)
		twofa.POST("/disable", s.DisableTOTP)
	}
}

func (s *Server) registerPaymentRoutes() {
	payments := s.engine.Group("/api/payments")

	payments.GET("/plans", s.ListPlans)
	payments.GET("/plan", s.AuthRequired(), s.CurrentPlan)
	payments.POST("/create", s.AuthRequired(), s.CreatePayment)
	payments.POST("/confirm", s.AuthRequired(), s.ConfirmPayment)
	payments.GET("/history", s.AuthRequired(), s.PaymentHistory)
	payments.GET("/:id", s.AuthRequired(), s.GetPayment)
	payments.POST("/mpesa/query", s.AuthRequired(), s.QueryPayment)

	// Inbound gateway webhook. Public by necessity; rate limited and
	// always acknowledged.
	payments.POST("/mpesa/callback", s.RateLimit(s.webhookLimiter), s.MpesaCallback)
}

func (s *Server) registerWatermarkRoutes() {
	wm := s.engine.Group("/api/watermark", s.AuthRequired())

	wm.POST("/embed", s.CreateUpload)
	wm.POST("/verify", s.CreateReport)
	wm.GET("/uploads", s.ListUploads)
	wm.GET("/reports", s.ListReports)
	wm.GET("/reports/:id", s.GetReport)
}

func (s *Server) registerTicketRoutes() {
	tickets := s.engine.Group("/api/tickets", s.AuthRequired())

	tickets.POST("/create", s.CreateTicket)
	tickets.GET("/my-tickets", s.MyTickets)
	tickets.GET("/:id", s.GetTicket)
	tickets.PUT("/:id", s.CloseTicket)
	tickets.POST("/:id/replies", s.ReplyTicket)
}

func (s *Server) registerAnnouncementRoutes() {
	announcements := s.engine.Group("/api/announcements")

	announcements.GET("/published", s.ListPublishedAnnouncements)
	announcements.GET("/:id", s.GetAnnouncement)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")
	admin.Use(s.AuthRequired())
	admin.Use(s.RequireAdmin())

	admin.GET("/users", s.AdminListUsers)
	admin.GET("/users/:id", s.AdminGetUser)
	admin.PUT("/users/:id", s.AdminUpdateUser)
	admin.DELETE("/users/:id", s.AdminDeleteUser)

	admin.GET("/analytics", s.AdminAnalytics)
	admin.GET("/logs", s.AdminListAuditLogs)
	admin.GET("/payments", s.AdminListPayments)

	admin.GET("/plans", s.AdminListPlans)
	admin.POST("/plans", s.AdminCreatePlan)
	admin.PUT("/plans/:id", s.AdminUpdatePlan)

	admin.GET("/tickets", s.AdminListTickets)
	admin.POST("/tickets/:id/replies", s.AdminReplyTicket)

	admin.GET("/announcements", s.AdminListAnnouncements)
	admin.POST("/announcements", s.AdminCreateAnnouncement)
	admin.PUT("/announcements/:id", s.AdminUpdateAnnouncement)
	admin.DELETE("/announcements/:id", s.AdminDeleteAnnouncement)

	admin.GET("/reports/flagged", s.AdminListFlaggedUploads)
	admin.POST("/uploads/:id/flag", s.AdminFlagUpload)
	admin.POST("/uploads/:id/unflag", s.AdminUnflagUpload)
}
