package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is a firm staff member referenced by record assignments and audit
// logs. Authentication is handled by an external identity provider; this row
// carries no credentials.
type Employee struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName  string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role      ActorContext   `gorm:"type:varchar(50);not null" json:"role"` // inspector, status_manager, filer
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}
