package mysql

import (
	"context"
	"testing"

	approvalDomain "intranet-approval/internal/domain/approval"
	"intranet-approval/internal/testutil/sqlitedb"
	"intranet-approval/pkg/id"
)

func TestAudit_AppendAndList(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	req, lines := seedRequestWithLines(t, db, "a")
	entries := []*approvalDomain.AuditEntry{
		{AuditID: id.NewID32(), RequestID: req.ID, Actor: req.Requester, Action: approvalDomain.AuditSubmitted,
			StatusBefore: approvalDomain.RequestPending, StatusAfter: approvalDomain.RequestPending},
		{AuditID: id.NewID32(), RequestID: req.ID, LineID: &lines[0].ID, Actor: "a", Action: approvalDomain.AuditApproved,
			StatusBefore: approvalDomain.RequestPending, StatusAfter: approvalDomain.RequestApproved},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := repo.ListByRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("ListByRequest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Action != approvalDomain.AuditSubmitted || got[1].Action != approvalDomain.AuditApproved {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].LineID == nil || *got[1].LineID != lines[0].ID {
		t.Fatalf("line id not kept: %+v", got[1])
	}
}
