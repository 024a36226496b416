package routers

import (
	"github.com/1023-Ventures/qlaunch/internal/api/handlers"
	"github.com/1023-Ventures/qlaunch/internal/api/middleware"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/gin-gonic/gin"
)

type Router struct {
	Handler *handlers.Handler
	log     logger.Logger
}

func NewRouter(handler *handlers.Handler, log logger.Logger) *Router {
	return &Router{Handler: handler, log: log}
}

func (rtr *Router) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(rtr.log))
	router.Use(middleware.CorsMiddleware(rtr.Handler.Origins, rtr.log))

	router.GET("/health", rtr.Handler.HealthCheck)
	router.GET("/ws", rtr.Handler.UpgradeHandler)
	router.GET("/events", rtr.Handler.StreamHandler)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/snapshot", rtr.Handler.GetSnapshot)
		v1.POST("/refresh", rtr.Handler.RefreshSnapshot)
		v1.GET("/watch-patterns", rtr.Handler.GetWatchPatterns)
		v1.PUT("/watch-patterns", rtr.Handler.UpdateWatchPatterns)

		terminals := v1.Group("/terminals")
		{
			terminals.GET("", rtr.Handler.ListTerminals)
			terminals.POST("", rtr.Handler.OpenTerminal)
			terminals.DELETE("/:id", rtr.Handler.CloseTerminal)
			terminals.GET("/:id/attach", rtr.Handler.AttachTerminal)
		}
	}
	return router
}
