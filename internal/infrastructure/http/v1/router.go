package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/infrastructure/http/v1/handler"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(handler *handler.Handler, l logger.Logger, telemetryEnabled bool) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware("pmtiles-server"))
	}

	r.Use(ginZapLogger(l))

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Archive names may contain slashes, so tile and metadata paths are
	// dispatched from the fallback route rather than a wildcard pattern.
	r.NoRoute(handler.Serve)

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
