package mysql

import (
	"context"
	"time"

	approvalDomain "intranet-approval/internal/domain/approval"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Create(ctx context.Context, req *approvalDomain.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByRequestID(ctx context.Context, requestID string) (*approvalDomain.Request, error) {
	var out approvalDomain.Request
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	return &out, res.Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uint64) (*approvalDomain.Request, error) {
	var out approvalDomain.Request
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

// SELECT ... FOR UPDATE; sqlite silently drops the locking clause.
func (r *RequestRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*approvalDomain.Request, error) {
	var out approvalDomain.Request
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).
		First(&out)
	return &out, res.Error
}

func (r *RequestRepository) TransitionStatus(ctx context.Context, id, version uint64, to approvalDomain.RequestStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"version":    gorm.Expr("version + 1"),
		"updated_at": at,
	}
	if to.Terminal() {
		updates["decided_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Request{}).
		Where("id = ? AND status = ? AND version = ?", id, approvalDomain.RequestPending, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
