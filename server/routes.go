package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/scrape"
)

// NewRouter builds the HTTP surface: the lookup endpoints under /api/v1 plus
// liveness and metrics.
func NewRouter(cfg *config.Config, handler *Handler, metrics *scrape.Metrics) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(CORS(cfg.Server.AllowedOrigins))

	router.GET("/healthz", handler.Health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.Use(RateLimiter(cfg.RateLimit.PerIP))
	{
		v1.POST("/plant-details", handler.PlantDetails)
		v1.POST("/plant-details-rhs", handler.PlantDetailsSite)
		v1.POST("/plant-details-llm", handler.PlantDetailsGenerative)
		v1.POST("/identify-plant", handler.IdentifyPlant)
	}

	return router
}
