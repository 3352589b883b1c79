package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditEvent records one user action against the occurrence gateway.
type AuditEvent struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Action       string          `json:"action" db:"action"`
	UserID       *int64          `json:"user_id,omitempty" db:"user_id"`
	OccurrenceID *int64          `json:"occurrence_id,omitempty" db:"occurrence_id"`
	Criteria     json.RawMessage `json:"criteria,omitempty" db:"criteria"`
	ResultCount  *int            `json:"result_count,omitempty" db:"result_count"`
	RequestID    string          `json:"request_id,omitempty" db:"request_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

const (
	AuditActionSearch = "search"
	AuditActionView   = "view"
	AuditActionCreate = "create"
	AuditActionAttach = "attach"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"
)
