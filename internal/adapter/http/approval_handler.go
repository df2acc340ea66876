package http

import (
	"context"
	"net/http"

	domainApproval "intranet-approval/internal/domain/approval"
	ucApproval "intranet-approval/internal/usecase/approval"

	"github.com/labstack/echo/v4"
)

// ApprovalService is the workflow surface the handler drives.
type ApprovalService interface {
	Submit(ctx context.Context, in ucApproval.SubmitInput) (*ucApproval.RequestDTO, error)
	AppendLine(ctx context.Context, in ucApproval.AppendLineInput) (*ucApproval.LineDTO, error)
	Decide(ctx context.Context, in ucApproval.DecideInput) (*ucApproval.RequestDTO, error)
	GetStatus(ctx context.Context, requestID, actorID string) (*ucApproval.RequestDTO, error)
	History(ctx context.Context, requestID, actorID string) ([]ucApproval.AuditDTO, error)
	Inbox(ctx context.Context, actorID string) ([]ucApproval.InboxItemDTO, error)
}

type ApprovalHandler struct{ uc ApprovalService }

func NewApprovalHandler(uc ApprovalService) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type approverReq struct {
	ID string `json:"id" validate:"required,actorid"`
	// 0 = position in the list
	Order int `json:"order" validate:"gte=0"`
}

type submitReq struct {
	Category  string        `json:"category"  validate:"required,notblank,max=50"`
	Content   string        `json:"content"   validate:"required,notblank"`
	Approvers []approverReq `json:"approvers" validate:"dive"`
}

type appendLineReq struct {
	Approver string `json:"approver" validate:"required,actorid"`
	Order    int    `json:"order"    validate:"required,gte=1"`
}

type decideReq struct {
	Comment string `json:"comment" validate:"max=1000"`
}

type historyResp struct {
	RequestID string                `json:"request_id"`
	Entries   []ucApproval.AuditDTO `json:"entries"`
}

type inboxResp struct {
	Items []ucApproval.InboxItemDTO `json:"items"`
}

// POST /approvals
func (h *ApprovalHandler) Submit(c echo.Context) error {
	var req submitReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := ucApproval.SubmitInput{
		Requester: actorID(c),
		Category:  req.Category,
		Content:   req.Content,
		Approvers: make([]ucApproval.ApproverInput, 0, len(req.Approvers)),
	}
	for _, a := range req.Approvers {
		in.Approvers = append(in.Approvers, ucApproval.ApproverInput{ID: a.ID, Order: a.Order})
	}

	dto, err := h.uc.Submit(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// GET /approvals/:request_id
func (h *ApprovalHandler) GetStatus(c echo.Context) error {
	requestID, ok, err := hex32Param(c, "request_id")
	if !ok {
		return err
	}
	dto, err := h.uc.GetStatus(c.Request().Context(), requestID, actorID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// GET /approvals/:request_id/history
func (h *ApprovalHandler) History(c echo.Context) error {
	requestID, ok, err := hex32Param(c, "request_id")
	if !ok {
		return err
	}
	entries, err := h.uc.History(c.Request().Context(), requestID, actorID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, historyResp{RequestID: requestID, Entries: entries})
}

// POST /approvals/:request_id/lines
func (h *ApprovalHandler) AppendLine(c echo.Context) error {
	requestID, ok, err := hex32Param(c, "request_id")
	if !ok {
		return err
	}
	var req appendLineReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	dto, err := h.uc.AppendLine(c.Request().Context(), ucApproval.AppendLineInput{
		RequestID: requestID,
		Actor:     actorID(c),
		Approver:  req.Approver,
		Order:     req.Order,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// PUT /approvals/lines/:line_id/approve
func (h *ApprovalHandler) Approve(c echo.Context) error {
	return h.decide(c, domainApproval.DecisionApprove)
}

// PUT /approvals/lines/:line_id/reject
func (h *ApprovalHandler) Reject(c echo.Context) error {
	return h.decide(c, domainApproval.DecisionReject)
}

func (h *ApprovalHandler) decide(c echo.Context, d domainApproval.Decision) error {
	lineID, ok, err := hex32Param(c, "line_id")
	if !ok {
		return err
	}
	var req decideReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	dto, err := h.uc.Decide(c.Request().Context(), ucApproval.DecideInput{
		LineID:   lineID,
		Decider:  actorID(c),
		Decision: d,
		Comment:  req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// GET /approvals/inbox
func (h *ApprovalHandler) Inbox(c echo.Context) error {
	items, err := h.uc.Inbox(c.Request().Context(), actorID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inboxResp{Items: items})
}
