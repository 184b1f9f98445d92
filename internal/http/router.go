package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/FabioDiCeglie/Trim-AI/internal/config"
	"github.com/FabioDiCeglie/Trim-AI/internal/http/handler"
	httpmiddleware "github.com/FabioDiCeglie/Trim-AI/internal/http/middleware"
	"github.com/FabioDiCeglie/Trim-AI/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, connectHandler *handler.ConnectHandler, demoHandler *handler.DemoHandler, authMiddleware *httpmiddleware.Auth) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", connectHandler.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/connect", connectHandler.Connect)

		demo := api.Group("/demo")
		{
			demo.GET("/projects", demoHandler.Projects)
			demo.GET("/overview", demoHandler.Overview)
		}

		protected := api.Group("")
		protected.Use(authMiddleware.ResolveConnection)
		{
			protected.GET("/connection", connectHandler.Connection)
		}
	}

	return r
}
