// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fiscal-bridge/internal/config"
	"fiscal-bridge/internal/gateway"
	"fiscal-bridge/internal/handler"
	"fiscal-bridge/internal/middleware"
	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/service"
	"fiscal-bridge/internal/utils"
)

// Router holds all dependencies for the status server routes
type Router struct {
	config    *config.Config
	logger    *zap.Logger
	session   *model.BridgeSession
	gateway   *gateway.Gateway
	poller    *service.Poller
	heartbeat *service.Heartbeat
	syncer    *service.ShiftSynchronizer
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	session *model.BridgeSession,
	gateway *gateway.Gateway,
	poller *service.Poller,
	heartbeat *service.Heartbeat,
	syncer *service.ShiftSynchronizer,
) *Router {
	return &Router{
		config:    config,
		logger:    logger,
		session:   session,
		gateway:   gateway,
		poller:    poller,
		heartbeat: heartbeat,
		syncer:    syncer,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "status-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(r.config.StatusOrigins))
}

// addRoutes sets up all status routes
func (r *Router) addRoutes(router *gin.Engine) {
	statusHandler := handler.NewStatusHandler(
		r.config,
		r.session,
		r.gateway,
		r.poller,
		r.heartbeat,
		r.syncer,
		r.logger,
	)

	statusHandler.RegisterRoutes(router.Group(""))

	r.logger.Info("Status routes configured")
}
