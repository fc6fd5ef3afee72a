package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AzielCF/az-gym/ui/rest"
	"github.com/AzielCF/az-gym/ui/rest/middleware"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the cache inspector API over http",
	RunE:  restServer,
}

func init() {
	restCmd.Flags().String("basic-auth", "", "Basic auth for API (format: user:pass,user2:pass2)")
	rootCmd.AddCommand(restCmd)
}

// newRestApp builds the fiber app with every inspector route registered.
func newRestApp(a *application) (*fiber.App, error) {
	cfg := a.cfg

	app := fiber.New(fiber.Config{
		AppName:               "Az-Gym Cache Inspector",
		DisableStartupMessage: !cfg.App.Debug,
		ServerHeader:          "Hidden",
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	router := fiber.Router(app)
	if cfg.App.BasePath != "" {
		router = app.Group(cfg.App.BasePath)
	}

	if len(cfg.App.BasicAuth) > 0 {
		account := make(map[string]string)
		for _, basicAuth := range cfg.App.BasicAuth {
			ba := strings.SplitN(basicAuth, ":", 2)
			if len(ba) != 2 {
				return nil, fmt.Errorf("basic auth is not valid, please use the format <user>:<secret>")
			}
			account[ba[0]] = ba[1]
		}
		router.Use(basicauth.New(basicauth.Config{
			Users: account,
			Next: func(c *fiber.Ctx) bool {
				// Allow CORS preflight without credentials.
				return c.Method() == fiber.MethodOptions
			},
		}))
	} else {
		logrus.Warn("[REST] APP_BASIC_AUTH is empty, the inspector API is public")
	}

	rest.InitRestHealth(router, cfg.App.Version, cfg.Store.Driver, a.store)
	rest.InitRestCache(router, a.cache)
	rest.InitRestImage(router, a.images)
	rest.InitRestAuth(router, a.auth)

	return app, nil
}

func restServer(cmd *cobra.Command, _ []string) error {
	defer stopApp()

	if baFlag, _ := cmd.Flags().GetString("basic-auth"); baFlag != "" {
		container.cfg.App.BasicAuth = strings.Split(baFlag, ",")
	}

	app, err := newRestApp(container)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := container.images.StartBackgroundCleanup(ctx); err != nil {
		logrus.WithError(err).Warn("[REST] Image cleanup not started")
	}

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	addr := ":" + container.cfg.App.Port
	logrus.Infof("[REST] Listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
