package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/streamgeo/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(DeprecatedRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/streams/distance", timeout.NewWithContext(DistanceHandler(deps), requestTimeout))
	v1.Post("/streams/sparsity", timeout.NewWithContext(SparsityHandler(deps), requestTimeout))
	v1.Post("/streams/align", timeout.NewWithContext(AlignHandler(deps), requestTimeout))
	v1.Post("/streams/similarity", timeout.NewWithContext(SimilarityHandler(deps), requestTimeout))
	v1.Post("/streams/consensus", timeout.NewWithContext(ConsensusHandler(deps), requestTimeout))
	v1.Post("/streams", timeout.NewWithContext(CreateStreamHandler(deps), requestTimeout))
	v1.Get("/streams", timeout.NewWithContext(ListStreamsHandler(deps), requestTimeout))
	v1.Get("/streams/:id", timeout.NewWithContext(GetStreamHandler(deps), requestTimeout))
	v1.Get("/streams/:id/distance", timeout.NewWithContext(StreamDistanceHandler(deps), requestTimeout))

	// Deprecated alias of /v1/streams/distance
	v1.Post("/distance", timeout.NewWithContext(DistanceHandler(deps), requestTimeout))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
