package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hospital-records-server/internal/config"
	"hospital-records-server/internal/metrics"
	"hospital-records-server/internal/models"
	"hospital-records-server/internal/normalize"
	"hospital-records-server/internal/utils"
)

type emptySource struct{}

func (emptySource) FetchAppointments(context.Context) ([]normalize.Raw, error) {
	return []normalize.Raw{{"_id": "a1"}}, nil
}
func (emptySource) FetchAppointmentByID(context.Context, string) (normalize.Raw, error) {
	return normalize.Raw{"_id": "a1"}, nil
}
func (emptySource) FetchPatients(context.Context) ([]normalize.Raw, error) { return nil, nil }
func (emptySource) FetchPatientByID(context.Context, string) (normalize.Raw, error) {
	return normalize.Raw{}, nil
}
func (emptySource) UpdateAppointment(context.Context, string, map[string]any) error { return nil }

func newRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, utils.RegisterValidators())

	cfg := &config.Config{
		RecordSource:              config.SourceHTTP,
		JWTSecret:                 "s1",
		JWTRefreshSecret:          "s2",
		JWTExpirationMinutes:      5,
		JWTRefreshExpirationHours: 1,
	}
	reg := prometheus.NewRegistry()
	r := gin.New()
	SetupRoutes(r, Deps{
		Cfg:      cfg,
		Source:   emptySource{},
		Metrics:  metrics.NewCollector("test", reg),
		Gatherer: reg,
		Log:      zap.NewNop(),
	})
	return r, cfg
}

func bearer(t *testing.T, cfg *config.Config, role models.Role) string {
	t.Helper()
	u := &models.User{Role: role}
	u.ID = "u-" + string(role)
	access, _, err := utils.GenerateTokens(u, cfg)
	require.NoError(t, err)
	return "Bearer " + access
}

func TestPublicEndpoints(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recordSource":"http"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordRoutesRequireAuth(t *testing.T) {
	r, cfg := newRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		code   int
	}{
		{"anonymous list", http.MethodGet, "/api/v1/appointments", "", http.StatusUnauthorized},
		{"pharmacist list", http.MethodGet, "/api/v1/appointments", bearer(t, cfg, models.RolePharmacist), http.StatusOK},
		{"pathologist view", http.MethodGet, "/api/v1/appointments/a1", bearer(t, cfg, models.RolePathologist), http.StatusOK},
		{"pharmacist edit", http.MethodPatch, "/api/v1/appointments/a1", bearer(t, cfg, models.RolePharmacist), http.StatusForbidden},
		{"doctor patients", http.MethodGet, "/api/v1/patients", bearer(t, cfg, models.RoleDoctor), http.StatusOK},
		{"doctor user admin", http.MethodGet, "/api/v1/users", bearer(t, cfg, models.RoleDoctor), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
