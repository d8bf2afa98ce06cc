package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions
const (
	AuditPromote    = "promote"
	AuditDemote     = "demote"
	AuditActivate   = "activate"
	AuditDeactivate = "deactivate"
	AuditDelete     = "delete"
	AuditUpdate     = "update"
	AuditProvision  = "provision_admin"
)

// AuditEvent records a privilege-affecting change. It is written in the same
// transaction as the change it describes.
type AuditEvent struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	ActorID   *uint             `gorm:"column:actor_id;index" json:"actor_id"`
	TargetID  uint              `gorm:"column:target_id;index;not null" json:"target_id"`
	Action    string            `gorm:"column:action;size:32;not null" json:"action"`
	Details   datatypes.JSONMap `gorm:"column:details" json:"details,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
