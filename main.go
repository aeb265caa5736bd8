package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowcrm/config"
	"flowcrm/middleware"
	"flowcrm/routes"
	"flowcrm/store"
	"flowcrm/utils"
	"flowcrm/worker"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if err := config.LoadConfig(); err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		})
		if err != nil {
			logrus.WithError(err).Warn("Sentry initialization failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := config.ConnectDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	config.ConnectRedis()

	s := store.New(config.DB)

	timeout := time.Duration(config.AppConfig.RequestTimeoutSecs) * time.Second
	app := fiber.New(fiber.Config{
		AppName:      "FlowCRM",
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		BodyLimit:    2 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= 500 {
				utils.LogError("unhandled_error", err, map[string]interface{}{
					"method": c.Method(),
					"path":   c.Path(),
				})
			}
			return utils.ErrorResponse(c, code, err.Error(), nil)
		},
	})

	app.Use(recover.New())
	app.Use(middleware.CORS())

	routes.SetupRoutes(app, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wfWorker := worker.NewWorkflowWorker(s, logrus.StandardLogger())
	go wfWorker.Start(ctx)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logrus.Info("Shutting down")
		cancel()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + config.AppConfig.ServerPort
	logrus.WithField("addr", addr).Info("Server starting")
	if err := app.Listen(addr); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}
