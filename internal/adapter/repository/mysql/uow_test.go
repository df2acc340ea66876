package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	approvalDomain "intranet-approval/internal/domain/approval"
	"intranet-approval/internal/domain/uow"
	"intranet-approval/internal/testutil/sqlitedb"

	"gorm.io/gorm"
)

// ----------------------------- Tests -----------------------------

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	reqRepo := NewRequestRepository(db)
	lineRepo := NewLineRepository(db)

	req := makeRequest("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		if req.ID == 0 {
			t.Fatalf("request auto ID not set")
		}
		return r.Lines.Create(ctx, makeLines(req.ID, "a", "b"))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := reqRepo.GetByRequestID(ctx, req.RequestID); err != nil {
		t.Fatalf("request not visible after commit: %v", err)
	}
	lines, err := lineRepo.ListByRequest(ctx, req.ID)
	if err != nil || len(lines) != 2 {
		t.Fatalf("lines not visible after commit: %v %v", lines, err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	reqRepo := NewRequestRepository(db)

	sentinel := errors.New("boom")
	req := makeRequest("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	_ = guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		if err := r.Lines.Create(ctx, makeLines(req.ID, "a")); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	if _, err := reqRepo.GetByRequestID(ctx, req.RequestID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected request not found after rollback, got %v", err)
	}
	var n int64
	db.Table("approval_lines").Count(&n)
	if n != 0 {
		t.Fatalf("expected no lines after rollback, got %d", n)
	}
}

func TestGormUoW_WithinRequestTx_Commit(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	reqRepo := NewRequestRepository(db)

	seeded, lines := seedRequestWithLines(t, db, "a")

	if err := guow.WithinRequestTx(ctx, seeded.RequestID, func(r uow.Repos, req *approvalDomain.Request) error {
		if req == nil || req.ID != seeded.ID || req.Status != approvalDomain.RequestPending {
			t.Fatalf("unexpected request passed to fn: %+v", req)
		}
		now := time.Now().UTC()
		if ok, err := r.Lines.Transition(ctx, lines[0].ID, approvalDomain.LineApproved, nil, now); err != nil || !ok {
			t.Fatalf("line transition: ok=%v err=%v", ok, err)
		}
		ok, err := r.Requests.TransitionStatus(ctx, req.ID, req.Version, approvalDomain.RequestApproved, now)
		if err != nil || !ok {
			t.Fatalf("request transition: ok=%v err=%v", ok, err)
		}
		return nil
	}); err != nil {
		t.Fatalf("WithinRequestTx commit err: %v", err)
	}

	got, err := reqRepo.GetByRequestID(ctx, seeded.RequestID)
	if err != nil {
		t.Fatalf("GetByRequestID post-commit: %v", err)
	}
	if got.Status != approvalDomain.RequestApproved {
		t.Fatalf("request status not updated, got=%s", got.Status)
	}
}

func TestGormUoW_WithinRequestTx_Rollback(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	lineRepo := NewLineRepository(db)

	seeded, lines := seedRequestWithLines(t, db, "a")
	sentinel := errors.New("stop")

	_ = guow.WithinRequestTx(ctx, seeded.RequestID, func(r uow.Repos, req *approvalDomain.Request) error {
		if _, err := r.Lines.Transition(ctx, lines[0].ID, approvalDomain.LineRejected, nil, time.Now()); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	got, err := lineRepo.GetByLineID(ctx, lines[0].LineID)
	if err != nil {
		t.Fatalf("post-rollback GetByLineID: %v", err)
	}
	if got.Status != approvalDomain.LineWaiting {
		t.Fatalf("expected waiting after rollback, got %s", got.Status)
	}
}

func TestGormUoW_WithinRequestTx_NotFound(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)

	err := guow.WithinRequestTx(ctx, "missing", func(r uow.Repos, req *approvalDomain.Request) error {
		t.Fatalf("callback should not be called when request missing")
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
