package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/CertiFox/app/controllers"
	"github.com/ManuelReschke/CertiFox/internal/pkg/cache"
	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
)

type ApiRouter struct {
	limiter fiber.Handler
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", h.limiter)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// catalog
	api.Get("/certificados", controllers.HandleListCertificateTypes)
	api.Get("/certificados/:id", controllers.HandleGetCertificateType)

	// payment and certificates
	api.Post("/procesar-pago", controllers.HandleProcessPayment)
	api.Get("/certificado/:id", controllers.HandleGetCertificate)
	api.Get("/donacion/:id/certificados", controllers.HandleDonationCertificates)
	api.Get("/mis-certificados/:email", controllers.HandleCertificatesByEmail)
	api.Post("/reenviar-certificado/:id", controllers.HandleResendCertificate)

	// diagnostics
	api.Get("/estadisticas", controllers.HandleStatistics)
	api.Get("/check-db", controllers.HandleCheckDB)
	api.Get("/notificaciones/estado", controllers.HandleNotificationStatus)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{limiter: newLimiter()}
}

// newLimiter keeps counters in redis (database 2) when the cache answers, so
// every instance shares one budget. Otherwise counters stay in memory.
func newLimiter() fiber.Handler {
	cfg := limiter.Config{
		Max:          env.GetEnvInt("API_RATE_LIMIT", 60),
		Expiration:   time.Minute,
		KeyGenerator: controllers.ClientIP,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Demasiadas solicitudes, intenta más tarde",
			})
		},
	}

	if cache.Available() {
		host, port, password := cacheAddress()
		cfg.Storage = redis.New(redis.Config{
			Host:     host,
			Port:     port,
			Password: password,
			Database: 2,
			Reset:    false,
		})
		log.Info("[Router] Rate limiter uses redis storage")
	}
	return limiter.New(cfg)
}

func cacheAddress() (string, int, string) {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	opts := cache.GetClient().Options()
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	if opts.Password != "" {
		password = opts.Password
	}
	return host, port, password
}
