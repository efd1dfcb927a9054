package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type userRepo struct{ *txRepos }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repo.ErrEmailTaken
		}
	}
	now := r.now()
	user.ID = r.st.nextID("users")
	user.CreatedAt = now
	user.UpdatedAt = now
	r.st.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, userID int64) (*model.User, error) {
	u, ok := r.st.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *userRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := r.st.users[user.ID]; !ok {
		return repo.ErrUserNotFound
	}
	user.UpdatedAt = r.now()
	r.st.users[user.ID] = *user
	return nil
}

type auditLogRepo struct{ *txRepos }

func (r *auditLogRepo) Create(_ context.Context, log model.AuditLog) error {
	log.ID = r.st.nextID("audit_logs")
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.now()
	}
	r.st.auditLogs = append(r.st.auditLogs, log)
	return nil
}

func (r *auditLogRepo) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if !f.InBounds() {
		return nil, repo.ErrInvalidPage
	}

	var out []model.AuditLog
	for _, l := range r.st.auditLogs {
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.From != nil && l.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && l.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, l)
	}
	//新しい順
	slices.SortFunc(out, func(a, b model.AuditLog) int { return cmp.Compare(b.ID, a.ID) })

	if f.Offset >= len(out) {
		return []model.AuditLog{}, nil
	}
	return out[f.Offset:min(f.Offset+f.Limit, len(out))], nil
}
