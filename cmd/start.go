package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"deal-sync/core/config"
	"deal-sync/core/database"
	"deal-sync/core/logger"
	"deal-sync/core/middleware/auth"
	"deal-sync/core/middleware/requestid"
	"deal-sync/core/schedule"
	"deal-sync/core/storage"
	"deal-sync/feature/deals"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync service",
	Long:  `Starts the recurring sync job and the admin HTTP server.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the platform database and migrate the sync tables.
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := deals.Migrate(db); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		// 4. Initialize Storage (run archive + source drop-box)
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		archive := deals.NewRunArchive(store, cfg.Storage.Bucket, cfg.Sync.ArchivePrefix)
		if err := archive.EnsureBucket(cmd.Context()); err != nil {
			logg.Fatal("Failed to prepare archive bucket", zap.Error(err))
		}

		// 5. Wire the sync service and its recurring job.
		service := deals.NewService(db, archive, cfg.Sync, logg)
		source := deals.NewObjectSource(store, cfg.Storage.Bucket, cfg.Sync.SourceObject)

		sched := schedule.New(logg)
		service.ScheduleRecurring(sched, source)

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// RequestID must be first to trace everything.
		app.Use(requestid.New())

		// Logging Middleware (Custom to use Zap + RequestID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRequestID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Auth (Protect the admin API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		handler := deals.NewHandler(service, source, logg)
		handler.RegisterRoutes(app)

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown: stop the scheduler first so no pass is
		// mid-write when the server goes away.
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")
		sched.CancelAll()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
