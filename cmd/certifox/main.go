package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/CertiFox/app/controllers"
	"github.com/ManuelReschke/CertiFox/app/repository"
	"github.com/ManuelReschke/CertiFox/internal/pkg/cache"
	"github.com/ManuelReschke/CertiFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertiFox/internal/pkg/database"
	"github.com/ManuelReschke/CertiFox/internal/pkg/env"
	"github.com/ManuelReschke/CertiFox/internal/pkg/ledger"
	"github.com/ManuelReschke/CertiFox/internal/pkg/notify"
	"github.com/ManuelReschke/CertiFox/internal/pkg/router"
	"github.com/ManuelReschke/CertiFox/internal/pkg/statistics"
)

func main() {
	app, dispatcher := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	// queued emails are delivered before exit
	dispatcher.Close()
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, notify.Dispatcher) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	basePath := findBasePath()

	renderer := certificate.NewRenderer(certificate.Config{
		Profile:      certificate.ProfileByName(env.GetEnv("CERT_PROFILE", "v2")),
		TemplatesDir: basePath + env.GetEnv("CERT_TEMPLATES_DIR", "data/plantillas"),
		FontsDir:     basePath + env.GetEnv("CERT_FONTS_DIR", "data/fuentes"),
		QRBaseURL:    env.GetEnv("CERT_QR_BASE_URL", ""),
	})

	deliverer := notify.NewDelivererFromEnv(context.Background())
	dispatcher := notify.NewFromEnv(deliverer)

	statsCache := cache.GetClient()
	if !cache.Available() {
		statsCache = nil
	}

	controllers.InitializeCertificateController(controllers.Dependencies{
		Repositories: repos,
		Ledger:       ledger.New(repos, renderer.Profile()),
		Renderer:     renderer,
		Dispatcher:   dispatcher,
		Deliverer:    deliverer,
		Statistics:   statistics.NewService(repos, statsCache),
	})

	// init fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: controllers.ErrorHandler,
		BodyLimit:    1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Authorizer: metricsAuthorizer(env.GetEnv("METRICS_USER", "admin"), env.GetEnv("METRICS_PASSWORD_HASH", "")),
	}), monitor.New(monitor.Config{Title: "CertiFox Metrics"}))

	// static files
	app.Static("/static", basePath+"public/static", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app, dispatcher
}

// metricsAuthorizer compares against a bcrypt hash. Without a hash the
// endpoint rejects everyone.
func metricsAuthorizer(user, hash string) func(string, string) bool {
	return func(u, p string) bool {
		if hash == "" || u != user {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
	}
}

func findBasePath() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/certifox to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			return path
		}
	}
	log.Println("Could not find project root, using working directory")
	return "./"
}
