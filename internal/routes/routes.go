package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hospital-records-server/internal/config"
	"hospital-records-server/internal/handlers"
	"hospital-records-server/internal/metrics"
	"hospital-records-server/internal/middleware"
	"hospital-records-server/internal/models"
	"hospital-records-server/internal/records"
)

// Deps is everything the handlers need.
type Deps struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Source   records.Source
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, d Deps) {
	authHandler := handlers.NewAuthHandler(d.DB, d.Cfg, d.Log)
	userHandler := handlers.NewUserHandler(d.DB, d.Log)
	preferenceHandler := handlers.NewPreferenceHandler(d.DB, d.Log)
	appointmentHandler := handlers.NewAppointmentHandler(d.Source, d.Metrics, d.Log)
	patientHandler := handlers.NewPatientHandler(d.Source, d.Metrics, d.Log)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes; every staff role may read.
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(d.Cfg), middleware.RoleAuthMiddleware(models.StaffRoles...))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		private.GET("/preferences", preferenceHandler.GetPreferences)
		private.PUT("/preferences", preferenceHandler.UpdatePreferences)

		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.GET("/:id/form", appointmentHandler.GetAppointmentForm)
			appointmentRoutes.PATCH("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor), appointmentHandler.UpdateAppointment)
		}

		patientRoutes := private.Group("/patients")
		{
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
		}
	}

	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler(d.Gatherer)))

	router.GET("/health", func(c *gin.Context) {
		status, code := "UP", http.StatusOK
		if d.DB != nil {
			if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status, code = "DEGRADED", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "recordSource": d.Cfg.RecordSource})
	})
}
