package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-records-server/internal/config"
	"hospital-records-server/internal/models"
	"hospital-records-server/internal/normalize"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "access-secret",
		JWTRefreshSecret:          "refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 24,
	}
}

func TestTokensRoundTrip(t *testing.T) {
	cfg := testConfig()
	user := &models.User{Role: models.RoleDoctor}
	user.ID = "u-1"

	access, refresh, err := GenerateTokens(user, cfg)
	require.NoError(t, err)

	claims, err := ValidateToken(access, cfg.JWTSecret, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleDoctor, claims.Role)

	_, err = ValidateToken(refresh, cfg.JWTRefreshSecret, TokenRefresh)
	require.NoError(t, err)

	_, err = ValidateToken(access, "wrong", TokenAccess)
	assert.Error(t, err)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWTRefreshSecret = cfg.JWTSecret
	user := &models.User{Role: models.RoleAdmin}
	user.ID = "u-2"

	_, refresh, err := GenerateTokens(user, cfg)
	require.NoError(t, err)

	_, err = ValidateToken(refresh, cfg.JWTSecret, TokenAccess)
	assert.Error(t, err)
}

func TestValidateCustomTags(t *testing.T) {
	ok := normalize.AppointmentForm{Date: "2024-02-29", Time: "09:05", Gender: "Female"}
	assert.NoError(t, Validate(ok))

	bad := normalize.AppointmentForm{Date: "29/02/2024", Time: "9:5", Gender: "F"}
	err := Validate(bad)
	require.Error(t, err)
	msg := FormatValidationError(err)
	assert.Contains(t, msg, "date must be a date in YYYY-MM-DD format")
	assert.Contains(t, msg, "time must be a time in HH:MM format")
	assert.Contains(t, msg, "gender must be one of [Male Female Other]")
}

func TestBindAndValidate(t *testing.T) {
	require.NoError(t, RegisterValidators())
	require.NoError(t, RegisterValidators())

	handler := func(c *gin.Context) {
		var form normalize.AppointmentForm
		if !BindAndValidate(c, &form) {
			return
		}
		Success(c, "ok", form)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"valid", `{"date":"2024-01-31","time":"23:59"}`, http.StatusOK},
		{"bad time", `{"time":"24:30"}`, http.StatusBadRequest},
		{"malformed", `{"date":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodPatch, "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			handler(c)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestListEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	List(c, "done", []string{"a"}, 3, 1)

	var body struct {
		Status int `json:"status"`
		Data   struct {
			Items []string `json:"items"`
			Meta  ListMeta `json:"meta"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, []string{"a"}, body.Data.Items)
	assert.Equal(t, ListMeta{Total: 3, Returned: 1}, body.Data.Meta)
}
