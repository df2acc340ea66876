package approval

import (
	"time"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether the status can never change again.
func (s RequestStatus) Terminal() bool { return s == RequestApproved || s == RequestRejected }

type LineStatus string

const (
	LineWaiting  LineStatus = "waiting"
	LineApproved LineStatus = "approved"
	LineRejected LineStatus = "rejected"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// LineStatus maps a decision to the status the line ends in.
func (d Decision) LineStatus() (LineStatus, bool) {
	switch d {
	case DecisionApprove:
		return LineApproved, true
	case DecisionReject:
		return LineRejected, true
	}
	return "", false
}

// Table: approval_requests
type Request struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	RequestID string        `gorm:"column:request_id;type:char(32);not null;uniqueIndex:ux_approval_requests_request_id"`
	Requester string        `gorm:"column:requester;size:64;not null;index:idx_approval_requests_requester"`
	Category  string        `gorm:"column:category;size:50;not null"`
	Content   string        `gorm:"column:content;type:text;not null"`
	Status    RequestStatus `gorm:"column:status;type:enum('pending','approved','rejected');default:'pending';not null"`
	// bumped on every status write
	Version   uint64     `gorm:"column:version;not null;default:1"`
	DecidedAt *time.Time `gorm:"column:decided_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Request) TableName() string { return "approval_requests" }

// Table: approval_lines
type Line struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	LineID string `gorm:"column:line_id;type:char(32);not null;uniqueIndex:ux_approval_lines_line_id"`
	// FK to approval_requests.id (numeric)
	RequestID       uint64     `gorm:"column:request_id;not null;uniqueIndex:ux_approval_lines_request_order,priority:1"`
	Approver        string     `gorm:"column:approver;size:64;not null;index:idx_approval_lines_approver"`
	Order           int        `gorm:"column:line_order;not null;uniqueIndex:ux_approval_lines_request_order,priority:2"`
	Status          LineStatus `gorm:"column:status;type:enum('waiting','approved','rejected');default:'waiting';not null"`
	DecisionComment *string    `gorm:"column:decision_comment;type:text"`
	DecidedAt       *time.Time `gorm:"column:decided_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Line) TableName() string { return "approval_lines" }

type AuditAction string

const (
	AuditSubmitted    AuditAction = "submitted"
	AuditLineAppended AuditAction = "line_appended"
	AuditApproved     AuditAction = "approved"
	AuditRejected     AuditAction = "rejected"
)

// Table: approval_audit (append-only)
type AuditEntry struct {
	ID           uint64        `gorm:"column:id;primaryKey;autoIncrement"`
	AuditID      string        `gorm:"column:audit_id;type:char(32);not null;uniqueIndex:ux_approval_audit_audit_id"`
	RequestID    uint64        `gorm:"column:request_id;not null;index:idx_approval_audit_request"`
	LineID       *uint64       `gorm:"column:line_id"`
	Actor        string        `gorm:"column:actor;size:64;not null"`
	Action       AuditAction   `gorm:"column:action;size:20;not null"`
	StatusBefore RequestStatus `gorm:"column:request_status_before;size:20;not null"`
	StatusAfter  RequestStatus `gorm:"column:request_status_after;size:20;not null"`
	Comment      *string       `gorm:"column:comment;type:text"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
}

func (AuditEntry) TableName() string { return "approval_audit" }
