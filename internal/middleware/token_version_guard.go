package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
)

// 最新のtoken_versionを返す（停止・削除済みユーザーはerror）
type TokenVersionSource interface {
	CurrentTokenVersion(ctx context.Context, userID int64) (int, error)
}

// JWTのtvとDBのtoken_versionの一致するか確認。
// 強制ログアウト後の古いトークンはここで401になる
func TokenVersionGuard(src TokenVersionSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return unauthorized(c)
			}

			current, err := src.CurrentTokenVersion(c.Request().Context(), id.UserID)
			if err != nil || current != id.TokenVersion {
				return unauthorized(c)
			}

			return next(c)
		}
	}
}
