package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string, name string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateForceLogout(ctx context.Context, targetUserID int64) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	AccessToken  string  `json:"access_token"`
	ExpiresIn    int     `json:"expires_in"`
	TokenVersion int     `json:"token_version"`
	User         UserDTO `json:"user"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	tx        repo.TransactionManager
	validator AuthValidator
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthUsecase(cfg config.Config, tx repo.TransactionManager, validator AuthValidator) *AuthUsecase {
	return &AuthUsecase{
		tx:        tx,
		validator: validator,
		secret:    []byte(cfg.JWTSecret),
		ttl:       cfg.AccessTokenTTL,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password, req.Name); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Persistence("hash password", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        model.NormalizeEmail(req.Email),
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		TokenVersion: 0,
		IsActive:     true,
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Users().Create(ctx, user)
	})
	if errors.Is(err, repo.ErrEmailTaken) {
		return nil, NewHTTPError(http.StatusConflict, "email already taken")
	}
	if err != nil {
		return nil, domain.Persistence("register", err)
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*AuthLoginResponse, error) {
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	var user *model.User
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		found, err := r.Users().FindByEmail(ctx, model.NormalizeEmail(req.Email))
		if err != nil {
			return err
		}

		//パスワード照合（bcrypt）
		if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(req.Password)); err != nil {
			return NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		//停止ユーザーはログイン不可
		if !found.CanTransact() {
			return NewHTTPError(http.StatusForbidden, "user is inactive")
		}

		now := u.now()
		found.LastLoginAt = &now
		if err := r.Users().Update(ctx, found); err != nil {
			return err
		}
		user = found
		return nil
	})
	if errors.Is(err, repo.ErrUserNotFound) {
		return nil, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if _, ok := AsHTTPError(err); ok {
		return nil, err
	}
	if err != nil {
		return nil, domain.Persistence("login", err)
	}

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, domain.Persistence("issue token", err)
	}

	return &AuthLoginResponse{
		AccessToken:  token,
		ExpiresIn:    expiresIn,
		TokenVersion: user.TokenVersion,
		User:         toUserDTO(user),
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthenticated
	}

	var dto UserDTO
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrUserNotFound) {
			return domain.ErrUnauthenticated
		}
		if err != nil {
			return err
		}
		dto = toUserDTO(user)
		return nil
	})
	if err != nil {
		return nil, domain.Persistence("me", err)
	}
	return &dto, nil
}

// TokenVersionGuard用。停止ユーザーも認証失敗扱い
func (u *AuthUsecase) CurrentTokenVersion(ctx context.Context, userID int64) (int, error) {
	var tv int
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrUserNotFound) {
			return domain.ErrUnauthenticated
		}
		if err != nil {
			return err
		}
		if !user.CanTransact() {
			return domain.ErrUnauthenticated
		}
		tv = user.TokenVersion
		return nil
	})
	return tv, err
}

// token_versionを上げて発行済みのaccess tokenを全て無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, actorAdminUserID int64, targetUserID int64) (*ForceLogoutResponse, error) {
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, err
	}

	var out ForceLogoutResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, targetUserID)
		if errors.Is(err, repo.ErrUserNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		if err != nil {
			return err
		}

		before := user.TokenVersion
		user.RevokeTokens()
		if err := r.Users().Update(ctx, user); err != nil {
			return err
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionForceLogout,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			BeforeJSON:   jsonInt("token_version", before),
			AfterJSON:    jsonInt("token_version", user.TokenVersion),
			CreatedAt:    u.now(),
		}); err != nil {
			return err
		}

		out = ForceLogoutResponse{UserID: user.ID, NewTokenVersion: user.TokenVersion}
		return nil
	})
	if _, ok := AsHTTPError(err); ok {
		return nil, err
	}
	if err != nil {
		return nil, domain.Persistence("force logout", err)
	}
	return &out, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := u.now()
	exp := now.Add(u.ttl)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString(u.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, int(u.ttl.Seconds()), nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}
