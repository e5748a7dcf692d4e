package models

import (
	"time"

	"github.com/google/uuid"
)

// Party represents a wholesale customer account.
//
// The tier fields mirror the pricing engine's per-party state: a manual volume
// pin, a relationship assignment, the last automatically computed hybrid tier
// (derived data, recomputed from MonthlyOrderCount) and the hybrid override
// pair. MonthlyOrderCount is owned by the order-completion path and rolled over
// at month boundaries by the cron worker.
type Party struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Phone     *string   `gorm:"column:phone"`
	City      *string   `gorm:"column:city"`
	GSTNumber *string   `gorm:"column:gst_number"`

	VolumeTierID         *uuid.UUID `gorm:"column:volume_tier_id;type:uuid"`
	RelationshipTierID   *uuid.UUID `gorm:"column:relationship_tier_id;type:uuid"`
	HybridAutoTierID     *uuid.UUID `gorm:"column:hybrid_auto_tier_id;type:uuid"`
	HybridManualOverride bool       `gorm:"column:hybrid_manual_override;not null;default:false"`
	HybridOverrideTierID *uuid.UUID `gorm:"column:hybrid_override_tier_id;type:uuid"`
	MonthlyOrderCount    int        `gorm:"column:monthly_order_count;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
