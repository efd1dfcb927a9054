package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

var ErrInvalidPage = errors.New("limit/offset out of range")

// 一覧の件数。上限を超える値は呼び出し側で弾く（ここでは丸めない）
const (
	AuditLogDefaultLimit = 50
	AuditLogMaxLimit     = 200
)

// 管理画面の監査ログ絞り込み。nilの項目は条件にしない。
// From/Toは両端を含む
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// Limit/Offsetが範囲内か
func (f AuditLogFilter) InBounds() bool {
	return f.Limit >= 1 && f.Limit <= AuditLogMaxLimit && f.Offset >= 0
}

// 価格変更・在庫調整・注文ステータス変更・強制ログアウトの記録。
// 書き込みは元の変更と同じTxで行う
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順（id降順）。範囲外のLimit/OffsetはErrInvalidPage
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
