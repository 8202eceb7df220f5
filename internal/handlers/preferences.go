package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hospital-records-server/internal/middleware"
	"hospital-records-server/internal/models"
	"hospital-records-server/internal/utils"
)

// PreferenceHandler loads and saves the signed-in user's UI preferences.
type PreferenceHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(db *gorm.DB, log *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{DB: db, Log: log}
}

// UpdatePreferenceRequest carries the fields a client may change. Nil
// fields keep their stored value.
type UpdatePreferenceRequest struct {
	Theme                *string `json:"theme" binding:"omitempty,oneof=light dark system"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	EmailNotifications   *bool   `json:"emailNotifications"`
	LastDashboard        *string `json:"lastDashboard" binding:"omitempty,max=50"`
	PageSize             *int    `json:"pageSize" binding:"omitempty,min=5,max=200"`
}

// GetPreferences returns stored preferences or the defaults when none were
// saved yet.
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	pref, err := h.load(userID)
	if err != nil {
		h.Log.Error("load preferences failed", zap.String("user_id", userID), zap.Error(err))
		utils.InternalServerError(c, "Failed to load preferences")
		return
	}
	utils.Success(c, "Preferences fetched successfully", pref)
}

// UpdatePreferences applies the request on top of the current preferences
// and saves the result.
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req UpdatePreferenceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	pref, err := h.load(userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to load preferences")
		return
	}
	if req.Theme != nil {
		pref.Theme = *req.Theme
	}
	if req.NotificationsEnabled != nil {
		pref.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.EmailNotifications != nil {
		pref.EmailNotifications = *req.EmailNotifications
	}
	if req.LastDashboard != nil {
		pref.LastDashboard = *req.LastDashboard
	}
	if req.PageSize != nil {
		pref.PageSize = *req.PageSize
	}

	if err := h.DB.Save(&pref).Error; err != nil {
		h.Log.Error("save preferences failed", zap.String("user_id", userID), zap.Error(err))
		utils.InternalServerError(c, "Failed to save preferences")
		return
	}
	utils.Success(c, "Preferences saved successfully", pref)
}

func (h *PreferenceHandler) load(userID string) (models.Preference, error) {
	var pref models.Preference
	err := h.DB.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultPreference(userID), nil
	}
	return pref, err
}
