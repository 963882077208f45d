package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Chinmay31-21/Ayusatva/internal/config"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/ambulance"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/appointment"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/audit"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/billing"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/lab"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/occupancy"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/patient"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/prescription"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/room"
	"github.com/Chinmay31-21/Ayusatva/internal/domain/staff"
	"github.com/Chinmay31-21/Ayusatva/internal/event"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/apperr"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/auth"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/db"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/middleware"
	"github.com/Chinmay31-21/Ayusatva/internal/platform/ws"
)

// hubSink adapts the websocket hub to the event.Sink interface, serializing
// the entity payload at the broadcast boundary.
type hubSink struct {
	hub *ws.Hub
}

func (s *hubSink) Publish(ctx context.Context, e event.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	return s.hub.Publish(ctx, ws.Event{
		Type:       e.Type,
		Topic:      e.Topic,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Timestamp:  time.Now().UTC(),
		Data:       data,
	})
}

// occupantsAdapter exposes the patient repository as the room package's
// occupant lister, avoiding a room->patient import.
type occupantsAdapter struct {
	patients patient.Repository
}

func (a *occupantsAdapter) ListByRoom(ctx context.Context, roomID uuid.UUID) (interface{}, error) {
	return a.patients.ListByRoom(ctx, roomID)
}

// relatedAdapter resolves the patient handler's cross-domain includes.
type relatedAdapter struct {
	bills *billing.Service
	rx    prescription.Repository
	labs  lab.Repository
}

func (a *relatedAdapter) BillsByPatient(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
	items, _, err := a.bills.List(ctx, billing.ListFilter{PatientID: &patientID}, 100, 0)
	return items, err
}

func (a *relatedAdapter) PrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
	return a.rx.ListByPatient(ctx, patientID)
}

func (a *relatedAdapter) LabReportsByPatient(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
	return a.labs.ListByPatient(ctx, patientID)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital Management API Server",
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
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
		}))
	}

	// Realtime hub
	hub := ws.NewHub()
	ws.NewHandler(hub).RegisterRoutes(e)
	publisher := event.NewPublisher(&hubSink{hub: hub}, logger)

	// Repositories
	roomRepo := room.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	billRepo := billing.NewRepoPG(pool)
	auditRepo := audit.NewRepoPG(pool)
	doctorRepo := staff.NewDoctorRepoPG(pool)
	nurseRepo := staff.NewNurseRepoPG(pool)
	apptRepo := appointment.NewRepoPG(pool)
	rxRepo := prescription.NewRepoPG(pool)
	labRepo := lab.NewRepoPG(pool)
	ambRepo := ambulance.NewRepoPG(pool)

	// Services
	auditor := audit.NewRecorder(auditRepo, logger)
	billSvc := billing.NewService(billRepo, pool, auditor, cfg.RoomRateTaxPct)
	roomSvc := room.NewService(roomRepo, patientRepo, auditor)
	patientSvc := patient.NewService(patientRepo, auditor)
	ledger := occupancy.NewService(pool, patientRepo, roomRepo, billSvc, auditor)
	staffSvc := staff.NewService(doctorRepo, nurseRepo, auditor)
	apptSvc := appointment.NewService(apptRepo, pool, patientRepo, doctorRepo, billSvc, auditor)
	rxSvc := prescription.NewService(rxRepo, pool, patientRepo, doctorRepo, auditor)
	labSvc := lab.NewService(labRepo, patientRepo, auditor)
	ambSvc := ambulance.NewService(ambRepo, pool, auditor)

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	if cfg.IsDev() {
		apiV1.POST("/auth/token", devTokenHandler(cfg))
	}

	related := &relatedAdapter{bills: billSvc, rx: rxRepo, labs: labRepo}
	room.NewHandler(roomSvc, publisher, &occupantsAdapter{patients: patientRepo}).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc, ledger, publisher, related).RegisterRoutes(apiV1)
	billing.NewHandler(billSvc, publisher).RegisterRoutes(apiV1)
	staff.NewHandler(staffSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(apptSvc, publisher).RegisterRoutes(apiV1)
	prescription.NewHandler(rxSvc).RegisterRoutes(apiV1)
	lab.NewHandler(labSvc).RegisterRoutes(apiV1)
	ambulance.NewHandler(ambSvc).RegisterRoutes(apiV1)
	audit.NewHandler(auditRepo).RegisterRoutes(apiV1)

	// Start and wait for shutdown
	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Msg("server started")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}

// devTokenHandler issues signed tokens for local development and seeding.
func devTokenHandler(cfg *config.Config) echo.HandlerFunc {
	type tokenRequest struct {
		Subject string   `json:"subject"`
		Roles   []string `json:"roles"`
	}
	return func(c echo.Context) error {
		var req tokenRequest
		if err := c.Bind(&req); err != nil {
			return apperr.Validation("invalid request body")
		}
		if req.Subject == "" {
			return apperr.Validation("subject is required")
		}
		if len(req.Roles) == 0 {
			req.Roles = []string{"reception"}
		}
		secret := cfg.JWTSecret
		if secret == "" {
			secret = "dev-secret"
		}
		token, err := auth.IssueToken(auth.JWTConfig{Secret: secret, Issuer: cfg.JWTIssuer},
			req.Subject, req.Roles, 24*time.Hour)
		if err != nil {
			return apperr.Internal(err)
		}
		return c.JSON(http.StatusOK, map[string]string{"token": token})
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
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
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

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

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a small demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

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

			return seed(ctx, pool, cfg, logger)
		},
	}
}

func seed(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) error {
	roomRepo := room.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	billRepo := billing.NewRepoPG(pool)
	auditRepo := audit.NewRepoPG(pool)
	doctorRepo := staff.NewDoctorRepoPG(pool)
	nurseRepo := staff.NewNurseRepoPG(pool)
	ambRepo := ambulance.NewRepoPG(pool)

	auditor := audit.NewRecorder(auditRepo, logger)
	billSvc := billing.NewService(billRepo, pool, auditor, cfg.RoomRateTaxPct)
	roomSvc := room.NewService(roomRepo, patientRepo, auditor)
	ledger := occupancy.NewService(pool, patientRepo, roomRepo, billSvc, auditor)
	staffSvc := staff.NewService(doctorRepo, nurseRepo, auditor)
	ambSvc := ambulance.NewService(ambRepo, pool, auditor)

	general := &room.Room{RoomNo: "101", RoomType: room.TypeNormal, PricePerDay: 1500, BedCountTotal: 4}
	if _, err := roomSvc.Create(ctx, general); err != nil {
		return err
	}
	icu := &room.Room{RoomNo: "201", RoomType: room.TypeICU, PricePerDay: 6000, BedCountTotal: 2}
	if _, err := roomSvc.Create(ctx, icu); err != nil {
		return err
	}
	private := &room.Room{RoomNo: "301", RoomType: room.TypePrivate, PricePerDay: 3500, BedCountTotal: 1}
	if _, err := roomSvc.Create(ctx, private); err != nil {
		return err
	}

	if err := staffSvc.CreateDoctor(ctx, &staff.Doctor{
		Name:            "Asha Menon",
		Specialization:  "Cardiology",
		PhoneNo:         "9876500001",
		ConsultationFee: 800,
		Available:       true,
	}); err != nil {
		return err
	}
	if err := staffSvc.CreateDoctor(ctx, &staff.Doctor{
		Name:            "Vikram Rao",
		Specialization:  "General",
		PhoneNo:         "9876500002",
		ConsultationFee: 500,
		Available:       true,
	}); err != nil {
		return err
	}
	ward := "General Ward"
	if err := staffSvc.CreateNurse(ctx, &staff.Nurse{
		Name:    "Meera Joseph",
		PhoneNo: "9876500003",
		Shift:   staff.ShiftMorning,
		Ward:    &ward,
	}); err != nil {
		return err
	}

	if err := ambSvc.Create(ctx, &ambulance.Ambulance{
		VehicleNo:   "KA01-AM-4321",
		DriverName:  "Suresh Kumar",
		DriverPhone: "9876500004",
	}); err != nil {
		return err
	}

	admitted := &patient.Patient{
		FirstName:       "Ravi",
		Gender:          "Male",
		PhoneNo:         "9876500005",
		DepositedAmount: 5000,
	}
	if _, err := ledger.Allocate(ctx, admitted, general.ID, time.Now().UTC()); err != nil {
		return err
	}

	logger.Info().Msg("seed data inserted")
	return nil
}
