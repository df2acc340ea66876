package mysql

import (
	"context"

	approvalDomain "intranet-approval/internal/domain/approval"

	"gorm.io/gorm"
)

// AuditRepository only ever inserts; there is no update or delete path.
type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Append(ctx context.Context, e *approvalDomain.AuditEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AuditRepository) ListByRequest(ctx context.Context, requestID uint64) ([]approvalDomain.AuditEntry, error) {
	var out []approvalDomain.AuditEntry
	res := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}
