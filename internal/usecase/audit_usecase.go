package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 管理者向けの監査ログ参照
type AuditUsecase struct {
	tx repo.TransactionManager
}

func NewAuditUsecase(tx repo.TransactionManager) *AuditUsecase {
	return &AuditUsecase{tx: tx}
}

// 空文字・nilは絞り込まない
type AuditLogListInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

type AuditLogListOutput struct {
	Items  []model.AuditLog `json:"items"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func (u *AuditUsecase) List(ctx context.Context, in AuditLogListInput) (AuditLogListOutput, error) {
	if in.Limit < 1 || in.Limit > repo.AuditLogMaxLimit {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		From:        in.From,
		To:          in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(strings.ToUpper(a))
		switch action {
		case model.AuditActionUpdateStock, model.AuditActionUpdateOrderStatus,
			model.AuditActionUpdatePrice, model.AuditActionForceLogout:
		default:
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &action
	}
	if rt := strings.TrimSpace(in.ResourceType); rt != "" {
		resource := model.AuditResourceType(strings.ToLower(rt))
		switch resource {
		case model.AuditResourceProduct, model.AuditResourceOrder, model.AuditResourceUser:
		default:
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &resource
	}

	out := AuditLogListOutput{Items: []model.AuditLog{}, Limit: in.Limit, Offset: in.Offset}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		logs, err := r.AuditLogs().List(ctx, f)
		if err != nil {
			return err
		}
		out.Items = append(out.Items, logs...)
		return nil
	})
	if err != nil {
		return AuditLogListOutput{}, domain.Persistence("list audit logs", err)
	}
	return out, nil
}
