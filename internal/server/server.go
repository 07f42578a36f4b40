package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	alertdomain "github.com/gridsense/wattkeeper/internal/alert/domain"
	"github.com/gridsense/wattkeeper/internal/config"
	notificationdomain "github.com/gridsense/wattkeeper/internal/notification/domain"
	"github.com/gridsense/wattkeeper/internal/observability"
	obslogger "github.com/gridsense/wattkeeper/internal/observability/logger"
	obsmetrics "github.com/gridsense/wattkeeper/internal/observability/metrics"
	"github.com/gridsense/wattkeeper/internal/providers/objectstore"
	"github.com/gridsense/wattkeeper/internal/ratelimit"
	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(httpMetrics.GinMiddleware())
	r.Use(CORSMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	readingSvc    readingdomain.Service
	alertSvc      alertdomain.Service
	notifySvc     notificationdomain.Service
	store         objectstore.Store
	ingestLimiter *ratelimit.IngestLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	ReadingSvc    readingdomain.Service
	AlertSvc      alertdomain.Service
	NotifySvc     notificationdomain.Service
	Store         objectstore.Store
	IngestLimiter *ratelimit.IngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("server"),
		readingSvc:    p.ReadingSvc,
		alertSvc:      p.AlertSvc,
		notifySvc:     p.NotifySvc,
		store:         p.Store,
		ingestLimiter: p.IngestLimiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func RegisterRoutes(s *Server) {
	s.RegisterEnergyRoutes()
	s.RegisterNotificationRoutes()
}

func (s *Server) RegisterEnergyRoutes() {
	energy := s.engine.Group("/energy")

	energy.POST("/input", s.IngestRateLimit(), s.SubmitReading)
	energy.GET("/history", s.GetHistory)
	energy.GET("/summary", s.GetSummary)
	energy.GET("/costs", s.GetCosts)

	energy.GET("/get-presigned-url", s.GetPresignedURL)
	energy.POST("/process-file", s.ProcessFile)

	energy.POST("/alerts", s.SetThreshold)
	energy.GET("/current-threshold", s.GetCurrentThreshold)

	energy.POST("/unsubscribe-sns", s.UnsubscribeEmail)
	energy.GET("/check-sns-subscription", s.CheckSubscription)
}

func (s *Server) RegisterNotificationRoutes() {
	s.engine.POST("/setup-sns", s.SubscribeEmail)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server started", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
