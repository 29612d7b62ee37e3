package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/praxishq/praxis/internal/config"
	"github.com/praxishq/praxis/internal/domain/availability"
	"github.com/praxishq/praxis/internal/domain/directory"
	"github.com/praxishq/praxis/internal/platform/auth"
	"github.com/praxishq/praxis/internal/platform/cache"
	"github.com/praxishq/praxis/internal/platform/db"
	"github.com/praxishq/praxis/internal/platform/metrics"
	"github.com/praxishq/praxis/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "praxis-server",
		Short: "Doctor availability API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the availability API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			target, _ := cmd.Flags().GetInt("to")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			var count int
			if target > 0 {
				count, err = migrator.UpTo(ctx, target)
			} else {
				count, err = migrator.Up(ctx)
			}
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	upCmd.Flags().Int("to", 0, "Apply up to this version only (0 = all)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	// migrate down - keep as warning
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Restore from a backup or write a forward migration instead.")
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo doctors and calendars",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctors, _ := cmd.Flags().GetInt("doctors")
			days, _ := cmd.Flags().GetInt("days")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool, doctors, days)
		},
	}
	cmd.Flags().Int("doctors", 5, "Number of doctors to create")
	cmd.Flags().Int("days", 14, "Days of calendar to generate per doctor")
	return cmd
}

func runSeed(ctx context.Context, pool *pgxpool.Pool, doctors, days int) error {
	gofakeit.Seed(time.Now().UnixNano())

	dirSvc := directory.NewService(directory.NewDoctorRepoPG(pool))
	availSvc := availability.NewService(availability.NewEventRepoPG(pool))

	specialties := []string{"cardiology", "dermatology", "pediatrics", "orthopedics", "general practice"}
	windowStart := availability.DateOnly(time.Now().UTC())

	var createdDoctors, createdOpenings, createdAppointments int
	for i := 0; i < doctors; i++ {
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		email := gofakeit.Email()
		d := &directory.Doctor{FullName: name, Specialty: &spec, Email: &email}
		if err := dirSvc.CreateDoctor(ctx, d); err != nil {
			return fmt.Errorf("seed doctor: %w", err)
		}
		createdDoctors++

		for offset := 0; offset < days; offset++ {
			date := windowStart.AddDate(0, 0, offset)
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			for _, block := range [][2]int{{9, 12}, {14, 18}} {
				op := &availability.Event{
					DoctorID:  d.ID,
					Kind:      availability.KindOpening,
					StartTime: date.Add(time.Duration(block[0]) * time.Hour),
					EndTime:   date.Add(time.Duration(block[1]) * time.Hour),
				}
				if err := availSvc.CreateEvent(ctx, op); err != nil {
					return fmt.Errorf("seed opening: %w", err)
				}
				createdOpenings++

				// Roughly a third of the hours get booked.
				for hour := block[0]; hour < block[1]; hour++ {
					if gofakeit.Number(0, 99) >= 33 {
						continue
					}
					start := date.Add(time.Duration(hour) * time.Hour)
					appt := &availability.Event{
						DoctorID:  d.ID,
						Kind:      availability.KindAppointment,
						StartTime: start,
						EndTime:   start.Add(time.Duration(gofakeit.Number(1, 2)) * 30 * time.Minute),
					}
					if err := availSvc.CreateEvent(ctx, appt); err != nil {
						return fmt.Errorf("seed appointment: %w", err)
					}
					createdAppointments++
				}
			}
		}
	}

	fmt.Printf("Seeded %d doctor(s), %d opening(s), %d appointment(s).\n",
		createdDoctors, createdOpenings, createdAppointments)
	return nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Result cache: Redis when configured, in-process otherwise
	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		store = cache.NewRedisStore(client)
		logger.Info().Msg("connected to redis")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(collector.HTTPMetrics())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API group: rate limited, deadlined, authenticated
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout()))

	if cfg.ResolvedAuthMode() == "dev" {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}
	apiV1.Use(middleware.Audit(logger))

	// Domain wiring
	availSvc := availability.NewService(availability.NewEventRepoPG(pool))
	availSvc.SetResultCache(store, cfg.CacheTTL())
	availSvc.SetMetrics(collector)
	availability.NewHandler(availSvc, cfg.LookaheadDaysMax).RegisterRoutes(apiV1)

	dirSvc := directory.NewService(directory.NewDoctorRepoPG(pool))
	dirSvc.SetInvalidateHook(availSvc.InvalidateDoctor)
	directory.NewHandler(dirSvc).RegisterRoutes(apiV1)

	// Health and metrics endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
