package validator

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"storefront/internal/usecase"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string, name string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" || strings.TrimSpace(name) == "" {
		return invalid("email, password and name are required")
	}

	// email形式
	if !isEmailLike(email) {
		return invalid("invalid email")
	}

	// パスワード最低文字数（8）
	if len(password) < 8 {
		return invalid("password must be at least 8 characters")
	}
	// bcryptは72バイトまで
	if len(password) > 72 {
		return invalid("password too long")
	}
	if len(name) > 255 {
		return invalid("name too long")
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return invalid("email and password are required")
	}
	if !isEmailLike(email) {
		return invalid("invalid email")
	}

	return nil
}

// 強制ログアウトの入力を検証
func (v *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return invalid("invalid user id")
	}
	return nil
}

func invalid(msg string) error {
	return usecase.NewHTTPError(http.StatusBadRequest, msg)
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailPattern.MatchString(s)
}
