package mysql

import (
	"context"
	"time"

	approvalDomain "intranet-approval/internal/domain/approval"

	"gorm.io/gorm"
)

type LineRepository struct{ db *gorm.DB }

func NewLineRepository(db *gorm.DB) *LineRepository { return &LineRepository{db: db} }

func (r *LineRepository) Create(ctx context.Context, lines []*approvalDomain.Line) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(lines).Error
}

func (r *LineRepository) GetByLineID(ctx context.Context, lineID string) (*approvalDomain.Line, error) {
	var out approvalDomain.Line
	res := r.db.WithContext(ctx).Where("line_id = ?", lineID).First(&out)
	return &out, res.Error
}

func (r *LineRepository) ListByRequest(ctx context.Context, requestID uint64) ([]approvalDomain.Line, error) {
	var out []approvalDomain.Line
	res := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("line_order ASC").
		Find(&out)
	return out, res.Error
}

func (r *LineRepository) ListWaitingByApprover(ctx context.Context, approver string) ([]approvalDomain.Line, error) {
	var out []approvalDomain.Line
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Line{}).
		Select("approval_lines.*").
		Joins("JOIN approval_requests ON approval_requests.id = approval_lines.request_id").
		Where("approval_lines.approver = ? AND approval_lines.status = ? AND approval_requests.status = ?",
			approver, approvalDomain.LineWaiting, approvalDomain.RequestPending).
		Order("approval_lines.request_id ASC, approval_lines.line_order ASC").
		Find(&out)
	return out, res.Error
}

// Conditional update on status = waiting; two racing deciders cannot both match.
func (r *LineRepository) Transition(ctx context.Context, id uint64, to approvalDomain.LineStatus, comment *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Line{}).
		Where("id = ? AND status = ?", id, approvalDomain.LineWaiting).
		Updates(map[string]any{
			"status":           to,
			"decision_comment": comment,
			"decided_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
