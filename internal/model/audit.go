package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionUpdateWHT         = "UPDATE_WHT_OBLIGATION"
	ActionUpdateVAT         = "UPDATE_VAT_OBLIGATION"
	ActionUpdateGeneralInfo = "UPDATE_GENERAL_INFO"
)

// AuditLog tracks Who, What, and When for every record save.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employee_id"` // Nullable gracefully if automated bot
	Employee   *Employee  `gorm:"foreignKey:EmployeeID" json:"employee"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Record id
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // build:year:month
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON of the touched fields
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
