package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// 検証済みアクセストークンの持ち主
type Identity struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

const ctxIdentityKey = "identity"

var errInvalidClaims = errors.New("invalid access token claims")

// AuthJWTが入れた呼び出し元を取り出す
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(ctxIdentityKey).(Identity)
	if !ok || id.UserID <= 0 {
		return Identity{}, false
	}
	return id, true
}

// 購入者ID。注文系のhandlerはここ以外から取らない
func BuyerID(c echo.Context) (int64, bool) {
	id, ok := IdentityFrom(c)
	return id.UserID, ok
}

// 監査ログのactor_user_id用
func ActorID(c echo.Context) (int64, bool) {
	id, ok := IdentityFrom(c)
	return id.UserID, ok
}

// bearerAuth用のJWT検証ミドルウェア。
// 購入者IDはここでしか決めない（未認証なら既定ユーザーにせず401）
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c)
			}

			claims := jwt.MapClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				return unauthorized(c)
			}

			id, err := identityFromClaims(claims)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(ctxIdentityKey, id)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// sub/role/tvを取り出す。AuthUsecaseはsubを数値で発行するが文字列も受ける
func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	var id Identity

	switch sub := claims["sub"].(type) {
	case float64:
		id.UserID = int64(sub)
	case string:
		n, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return Identity{}, errInvalidClaims
		}
		id.UserID = n
	}
	if id.UserID <= 0 {
		return Identity{}, errInvalidClaims
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return Identity{}, errInvalidClaims
	}
	id.Role = model.Role(role)

	tv, ok := claims["tv"].(float64)
	if !ok || tv < 0 || tv != float64(int(tv)) {
		return Identity{}, errInvalidClaims
	}
	id.TokenVersion = int(tv)

	return id, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
}
