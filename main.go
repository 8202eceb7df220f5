package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hospital-records-server/internal/config"
	"hospital-records-server/internal/logger"
	"hospital-records-server/internal/metrics"
	"hospital-records-server/internal/middleware"
	"hospital-records-server/internal/models"
	"hospital-records-server/internal/normalize"
	"hospital-records-server/internal/records"
	"hospital-records-server/internal/routes"
	"hospital-records-server/internal/utils"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "hospital-records-server",
		Short:         "Canonical appointment and patient records for the hospital dashboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd(), normalizeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the MySQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if _, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN}); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func normalizeCmd() *cobra.Command {
	var (
		kind    string
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Normalize a JSON array of raw records read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runNormalize(in, cmd.OutOrStdout(), kind, explain)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "appointments", "record kind: appointments or patients")
	cmd.Flags().BoolVar(&explain, "explain", false, "include which source each appointment field was resolved from")
	return cmd
}

type explained struct {
	View       normalize.AppointmentView `json:"view"`
	Resolution normalize.Resolution      `json:"resolution"`
}

func runNormalize(in io.Reader, out io.Writer, kind string, explain bool) error {
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	raws, err := normalize.DecodeList(body)
	if err != nil {
		return fmt.Errorf("input must be a JSON array of objects: %w", err)
	}

	var result any
	switch kind {
	case "appointments", "appointment":
		views, res := normalize.NormalizeAppointmentsTraced(raws)
		if !explain {
			result = views
			break
		}
		items := make([]explained, len(views))
		for i := range views {
			items[i] = explained{View: views[i], Resolution: res[i]}
		}
		result = items
	case "patients", "patient":
		result = normalize.NormalizePatients(raws)
	default:
		return fmt.Errorf("unknown kind %q: want appointments or patients", kind)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	if err := utils.RegisterValidators(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mc := metrics.NewCollector("hospital_records", reg)

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN, Debug: cfg.IsDev()})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := records.Open(ctx, cfg, db, mc, zl)
	if err != nil {
		return fmt.Errorf("opening record source: %w", err)
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Observability(zl, mc)...)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Deps{
		DB:       db,
		Cfg:      cfg,
		Source:   src,
		Metrics:  mc,
		Gatherer: reg,
		Log:      zl,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr), zap.String("record_source", cfg.RecordSource))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		zl.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	if err := closeSource(shutdownCtx); err != nil {
		zl.Error("closing record source", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
