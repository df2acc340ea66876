package approval

import (
	"context"
	"time"
)

type RequestRepository interface {
	Create(ctx context.Context, r *Request) error

	// Get by public request_id
	GetByRequestID(ctx context.Context, requestID string) (*Request, error)
	GetByID(ctx context.Context, id uint64) (*Request, error)

	// Same as GetByRequestID but takes a row lock for the enclosing tx
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*Request, error)

	// Compare-and-swap: only succeeds while the row is still pending at the given version.
	// Returns false when nothing matched.
	TransitionStatus(ctx context.Context, id, version uint64, to RequestStatus, at time.Time) (bool, error)
}

type LineRepository interface {
	// Create inserts all lines; callers run it inside a tx.
	Create(ctx context.Context, lines []*Line) error

	// Get by public line_id
	GetByLineID(ctx context.Context, lineID string) (*Line, error)

	// All lines of a request ascending by order
	ListByRequest(ctx context.Context, requestID uint64) ([]Line, error)

	// Waiting lines assigned to an approver whose request is still pending
	ListWaitingByApprover(ctx context.Context, approver string) ([]Line, error)

	// Compare-and-swap: only succeeds while the line is still waiting.
	Transition(ctx context.Context, id uint64, to LineStatus, comment *string, at time.Time) (bool, error)
}

type AuditRepository interface {
	Append(ctx context.Context, e *AuditEntry) error
	ListByRequest(ctx context.Context, requestID uint64) ([]AuditEntry, error)
}
