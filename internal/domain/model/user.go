package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// 管理APIはADMINだけ
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// 購入者・管理者のアカウント。
// TokenVersionを上げると発行済みのアクセストークンは全部無効になる
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	Name         string     `gorm:"type:varchar(255);not null"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'USER'"`
	TokenVersion int        `gorm:"not null;default:0"`
	IsActive     bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// 停止ユーザーはログインも注文もできない
func (u User) CanTransact() bool { return u.IsActive }

// 強制ログアウト
func (u *User) RevokeTokens() { u.TokenVersion++ }

// メールは前後の空白を落として小文字で保存・照合する
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
