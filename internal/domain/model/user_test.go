package model_test

import (
	"testing"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsAdmin(t *testing.T) {
	assert.True(t, model.RoleAdmin.IsAdmin())
	assert.False(t, model.RoleUser.IsAdmin())
	assert.False(t, model.Role("admin").IsAdmin())
	assert.False(t, model.Role("").IsAdmin())
}

func TestUser_RevokeTokens(t *testing.T) {
	u := model.User{TokenVersion: 2}
	u.RevokeTokens()
	assert.Equal(t, 3, u.TokenVersion)
}

func TestUser_CanTransact(t *testing.T) {
	assert.True(t, model.User{IsActive: true}.CanTransact())
	assert.False(t, model.User{IsActive: false}.CanTransact())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", model.NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "", model.NormalizeEmail("   "))
}
