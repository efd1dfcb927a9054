package validator

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	v := NewAuthValidator()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		ok       bool
	}{
		{"ok", "jane@example.com", "password123", "Jane", true},
		{"missing name", "jane@example.com", "password123", " ", false},
		{"bad email", "jane@", "password123", "Jane", false},
		{"short password", "jane@example.com", "short", "Jane", false},
		{"long password", "jane@example.com", strings.Repeat("x", 73), "Jane", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRegister(ctx, tt.email, tt.password, tt.userName)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			he, ok := usecase.AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
		})
	}
}

func TestValidateLogin(t *testing.T) {
	v := NewAuthValidator()

	assert.NoError(t, v.ValidateLogin(context.Background(), "a@b.io", "x"))
	assert.Error(t, v.ValidateLogin(context.Background(), "", "x"))
	assert.Error(t, v.ValidateLogin(context.Background(), "not-an-email", "x"))
}

func TestValidateForceLogout(t *testing.T) {
	v := NewAuthValidator()

	assert.NoError(t, v.ValidateForceLogout(context.Background(), 1))
	assert.Error(t, v.ValidateForceLogout(context.Background(), 0))
}
