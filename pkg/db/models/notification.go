package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mayakapoor/aurelia-backend/pkg/enums"
)

// Notification stores in-app notification payloads. Admin-facing alerts carry
// a nil UserID and ForAdmin=true.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID             `gorm:"column:user_id;type:uuid;index"`
	ForAdmin  bool                   `gorm:"column:for_admin;not null;default:false"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Title     string                 `gorm:"column:title;type:text;not null"`
	Message   string                 `gorm:"column:message;type:text;not null"`
	Link      *string                `gorm:"column:link;type:text"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
