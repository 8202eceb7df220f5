package models

// Theme values accepted for Preference.Theme.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Preference is the per-user UI state (theme, notification settings, last
// dashboard) that screens load once at sign-in and save explicitly.
type Preference struct {
	BaseModel
	UserID               string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Theme                string `gorm:"size:10;default:'system'" json:"theme"`
	NotificationsEnabled bool   `gorm:"not null" json:"notificationsEnabled"`
	EmailNotifications   bool   `gorm:"not null" json:"emailNotifications"`
	LastDashboard        string `gorm:"size:50" json:"lastDashboard"`
	PageSize             int    `gorm:"default:20" json:"pageSize"`
}

// DefaultPreference is what a user gets before saving anything.
func DefaultPreference(userID string) Preference {
	return Preference{
		UserID:               userID,
		Theme:                ThemeSystem,
		NotificationsEnabled: true,
		PageSize:             20,
	}
}
