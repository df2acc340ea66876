package uow

import (
	"context"

	"intranet-approval/internal/domain/approval"
)

// domain/uow/uow.go
type Repos struct {
	Requests approval.RequestRepository
	Lines    approval.LineRepository
	Audit    approval.AuditRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the request row first, then pass it in
	WithinRequestTx(ctx context.Context, requestID string, fn func(r Repos, req *approval.Request) error) error
}
