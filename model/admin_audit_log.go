package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audited admin actions
const (
	AuditActionRefundRequest = "refund_request"
	AuditActionAccessRevoke  = "access_revoke"
	AuditActionUserBan       = "user_ban"
	AuditActionUserUnban     = "user_unban"
	AuditActionCourseWrite   = "course_write"
	AuditActionPlanWrite     = "plan_write"
)

// AdminAuditLog represents audit trail for admin actions
type AdminAuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AdminID     uint           `gorm:"not null;index" json:"admin_id"`
	Action      string         `gorm:"type:varchar(100);not null;index" json:"action"`
	Resource    string         `gorm:"type:varchar(100)" json:"resource"` // users, transactions, courses, plans
	ResourceID  string         `gorm:"type:varchar(100);index" json:"resource_id"`
	NewValue    datatypes.JSON `gorm:"type:jsonb" json:"new_value,omitempty"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string         `gorm:"type:text" json:"user_agent"`
	Description string         `gorm:"type:text" json:"description"`
	TraceID     string         `gorm:"type:varchar(64)" json:"trace_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`

	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
