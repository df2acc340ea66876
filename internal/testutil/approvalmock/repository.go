package approvalmock

import (
	"context"
	"time"

	domain "intranet-approval/internal/domain/approval"
)

var (
	_ domain.RequestRepository = (*RequestRepo)(nil)
	_ domain.LineRepository    = (*LineRepo)(nil)
	_ domain.AuditRepository   = (*AuditRepo)(nil)
)

// RequestRepo is a function-backed mock that satisfies domain.RequestRepository.
// Unset lookups return context.Canceled; unset writes succeed.
type RequestRepo struct {
	CreateFn                  func(ctx context.Context, r *domain.Request) error
	GetByRequestIDFn          func(ctx context.Context, requestID string) (*domain.Request, error)
	GetByIDFn                 func(ctx context.Context, id uint64) (*domain.Request, error)
	GetByRequestIDForUpdateFn func(ctx context.Context, requestID string) (*domain.Request, error)
	TransitionStatusFn        func(ctx context.Context, id, version uint64, to domain.RequestStatus, at time.Time) (bool, error)
}

func (m *RequestRepo) Create(ctx context.Context, r *domain.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *RequestRepo) GetByRequestID(ctx context.Context, requestID string) (*domain.Request, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *RequestRepo) GetByID(ctx context.Context, id uint64) (*domain.Request, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *RequestRepo) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*domain.Request, error) {
	if m.GetByRequestIDForUpdateFn != nil {
		return m.GetByRequestIDForUpdateFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *RequestRepo) TransitionStatus(ctx context.Context, id, version uint64, to domain.RequestStatus, at time.Time) (bool, error) {
	if m.TransitionStatusFn != nil {
		return m.TransitionStatusFn(ctx, id, version, to, at)
	}
	return true, nil
}

// LineRepo is a function-backed mock that satisfies domain.LineRepository.
type LineRepo struct {
	CreateFn                func(ctx context.Context, lines []*domain.Line) error
	GetByLineIDFn           func(ctx context.Context, lineID string) (*domain.Line, error)
	ListByRequestFn         func(ctx context.Context, requestID uint64) ([]domain.Line, error)
	ListWaitingByApproverFn func(ctx context.Context, approver string) ([]domain.Line, error)
	TransitionFn            func(ctx context.Context, id uint64, to domain.LineStatus, comment *string, at time.Time) (bool, error)
}

func (m *LineRepo) Create(ctx context.Context, lines []*domain.Line) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, lines)
	}
	return nil
}

func (m *LineRepo) GetByLineID(ctx context.Context, lineID string) (*domain.Line, error) {
	if m.GetByLineIDFn != nil {
		return m.GetByLineIDFn(ctx, lineID)
	}
	return nil, context.Canceled
}

func (m *LineRepo) ListByRequest(ctx context.Context, requestID uint64) ([]domain.Line, error) {
	if m.ListByRequestFn != nil {
		return m.ListByRequestFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *LineRepo) ListWaitingByApprover(ctx context.Context, approver string) ([]domain.Line, error) {
	if m.ListWaitingByApproverFn != nil {
		return m.ListWaitingByApproverFn(ctx, approver)
	}
	return nil, context.Canceled
}

func (m *LineRepo) Transition(ctx context.Context, id uint64, to domain.LineStatus, comment *string, at time.Time) (bool, error) {
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, id, to, comment, at)
	}
	return true, nil
}

// AuditRepo is a function-backed mock that satisfies domain.AuditRepository.
type AuditRepo struct {
	AppendFn        func(ctx context.Context, e *domain.AuditEntry) error
	ListByRequestFn func(ctx context.Context, requestID uint64) ([]domain.AuditEntry, error)
}

func (m *AuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	return nil
}

func (m *AuditRepo) ListByRequest(ctx context.Context, requestID uint64) ([]domain.AuditEntry, error) {
	if m.ListByRequestFn != nil {
		return m.ListByRequestFn(ctx, requestID)
	}
	return nil, context.Canceled
}
