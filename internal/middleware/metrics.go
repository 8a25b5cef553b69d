package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideanest_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// LikeToggles counts like toggle outcomes (liked, unliked, conflict).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideanest_like_toggles_total",
		Help: "Total number of like toggle operations by outcome",
	}, []string{"outcome"})

	// TokenRotations counts refresh token rotation outcomes.
	TokenRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideanest_token_rotations_total",
		Help: "Total number of refresh token rotations by outcome",
	}, []string{"outcome"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-level Prometheus middleware handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
