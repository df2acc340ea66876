package approval

import (
	"time"

	domainApproval "intranet-approval/internal/domain/approval"
)

type ApproverInput struct {
	ID string
	// 0 means "position in the submitted sequence"
	Order int
}

type SubmitInput struct {
	Requester string
	Category  string
	Content   string
	Approvers []ApproverInput
}

type AppendLineInput struct {
	RequestID string
	Actor     string // must be an administrator
	Approver  string
	Order     int
}

type DecideInput struct {
	LineID   string
	Decider  string
	Decision domainApproval.Decision
	Comment  string
}

type LineDTO struct {
	LineID    string     `json:"line_id"`
	Approver  string     `json:"approver"`
	Order     int        `json:"order"`
	Status    string     `json:"status"`
	Comment   *string    `json:"comment,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	Active    bool       `json:"active"`
}

type RequestDTO struct {
	RequestID string     `json:"request_id"`
	Requester string     `json:"requester"`
	Category  string     `json:"category"`
	Content   string     `json:"content"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	Lines     []LineDTO  `json:"lines"`
	// empty once the request is terminal
	ActiveLineID string `json:"active_line_id,omitempty"`
}

// ActiveLine returns the active line of the view, or nil.
func (d *RequestDTO) ActiveLine() *LineDTO {
	for i := range d.Lines {
		if d.Lines[i].Active {
			return &d.Lines[i]
		}
	}
	return nil
}

type AuditDTO struct {
	Action       string    `json:"action"`
	Actor        string    `json:"actor"`
	LineID       string    `json:"line_id,omitempty"`
	StatusBefore string    `json:"request_status_before"`
	StatusAfter  string    `json:"request_status_after"`
	Comment      *string   `json:"comment,omitempty"`
	At           time.Time `json:"at"`
}

type InboxItemDTO struct {
	RequestID string    `json:"request_id"`
	LineID    string    `json:"line_id"`
	Order     int       `json:"order"`
	Requester string    `json:"requester"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func toView(req *domainApproval.Request, lines []domainApproval.Line) *RequestDTO {
	domainApproval.SortLines(lines)
	active := domainApproval.ActiveLine(req.Status, lines)

	dto := &RequestDTO{
		RequestID: req.RequestID,
		Requester: req.Requester,
		Category:  req.Category,
		Content:   req.Content,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
		DecidedAt: req.DecidedAt,
		Lines:     make([]LineDTO, 0, len(lines)),
	}
	for _, l := range lines {
		isActive := active != nil && active.LineID == l.LineID
		dto.Lines = append(dto.Lines, LineDTO{
			LineID:    l.LineID,
			Approver:  l.Approver,
			Order:     l.Order,
			Status:    string(l.Status),
			Comment:   l.DecisionComment,
			DecidedAt: l.DecidedAt,
			Active:    isActive,
		})
		if isActive {
			dto.ActiveLineID = l.LineID
		}
	}
	return dto
}

func toLineDTO(l *domainApproval.Line, active bool) *LineDTO {
	return &LineDTO{
		LineID:    l.LineID,
		Approver:  l.Approver,
		Order:     l.Order,
		Status:    string(l.Status),
		Comment:   l.DecisionComment,
		DecidedAt: l.DecidedAt,
		Active:    active,
	}
}
