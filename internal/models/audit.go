package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction tags a session lifecycle transition.
type AuditAction string

const (
	ActionJoin       AuditAction = "join"
	ActionPaired     AuditAction = "paired"
	ActionMessage    AuditAction = "message"
	ActionNext       AuditAction = "next"
	ActionReport     AuditAction = "report"
	ActionDisconnect AuditAction = "disconnect"
	ActionSignal     AuditAction = "signal"
)

// AuditRecord is an append-only row of the session audit trail.
// Records never carry message content or signal payloads.
type AuditRecord struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConnectionID string      `gorm:"type:varchar(36);not null;index" json:"connectionId"`
	PartnerID    string      `gorm:"type:varchar(36);index" json:"partnerId,omitempty"`
	Action       AuditAction `gorm:"type:varchar(16);not null;index" json:"action"`
	Detail       string      `gorm:"type:text" json:"detail,omitempty"`
	ClientAddr   string      `gorm:"type:varchar(64)" json:"clientAddr,omitempty"`
	ClientAgent  string      `gorm:"type:text" json:"clientAgent,omitempty"`
	CreatedAt    time.Time   `gorm:"not null;index" json:"createdAt"`
}

// BeforeCreate fills in the id and timestamp when the caller left them blank.
func (a *AuditRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return
}
