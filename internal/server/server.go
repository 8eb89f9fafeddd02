package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"barberhub/internal/engine"
	"barberhub/internal/handler"
	"barberhub/internal/middleware"
)

type Server struct {
	router *gin.Engine
	engine *engine.Engine
	log    *logrus.Logger
	logger *zap.Logger
	secret string
}

func NewServer(eng *engine.Engine, jwtSecret string, logger *zap.Logger, log *logrus.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		engine: eng,
		log:    log,
		logger: logger,
		secret: jwtSecret,
	}

	// Setup routes
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	alertHandler := handler.NewAlertHandler(s.engine, s.logger)
	prefsHandler := handler.NewPreferencesHandler(s.engine, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	s.router.GET("/api/health", alertHandler.GetHealth)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(s.secret, s.logger))
	{
		authRequired.POST("/alerts", alertHandler.CreateAlert)
		authRequired.GET("/alerts", alertHandler.ListAlerts)
		authRequired.GET("/alerts/history", alertHandler.GetHistory)
		authRequired.POST("/alerts/:id/acknowledge", alertHandler.AcknowledgeAlert)
		authRequired.POST("/alerts/:id/dismiss", alertHandler.DismissAlert)
		authRequired.POST("/alerts/:id/resolve", alertHandler.ResolveAlert)
		authRequired.POST("/alerts/:id/snooze", alertHandler.SnoozeAlert)
		authRequired.GET("/preferences", prefsHandler.GetPreferences)
		authRequired.PUT("/preferences", prefsHandler.UpdatePreferences)
	}
}

func (s *Server) Run(addr string) {
	s.log.Infof("Server starting on port %s...", addr)
	if err := s.router.Run(addr); err != nil {
		s.log.Fatalf("Server failed to start: %v", err)
	}
}
