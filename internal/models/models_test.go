package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, in := range []string{"DOCTOR", "Doctor", " doctor "} {
		r, ok := ParseRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, RoleDoctor, r)
	}
	_, ok := ParseRole("patient")
	assert.False(t, ok)
}

func TestUserPassword(t *testing.T) {
	u := User{FirstName: "Grace", LastName: "Hopper"}
	require.NoError(t, u.SetPassword("correct horse"))

	assert.NotEqual(t, "correct horse", u.Password)
	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("battery staple"))
	assert.Equal(t, "Grace Hopper", u.FullName())
	assert.Equal(t, "Grace", u.Sanitize().FirstName)
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()
	tok := RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, tok.Usable(now))

	tok.IsRevoked = true
	assert.False(t, tok.Usable(now))

	tok = RefreshToken{ExpiresAt: now.Add(-time.Second)}
	assert.False(t, tok.Usable(now))
}

func TestBeforeCreateAssignsID(t *testing.T) {
	var b BaseModel
	require.NoError(t, b.BeforeCreate(nil))
	assert.Len(t, b.ID, 36)

	b = BaseModel{ID: "fixed"}
	require.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, "fixed", b.ID)
}

func TestDefaultPreference(t *testing.T) {
	p := DefaultPreference("u1")
	assert.Equal(t, ThemeSystem, p.Theme)
	assert.True(t, p.NotificationsEnabled)
	assert.Equal(t, 20, p.PageSize)
}
