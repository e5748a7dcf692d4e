package models

import (
	"encoding/json"
	"time"
)

// PricingTierConfigRowID is the fixed primary key of the singleton config row.
const PricingTierConfigRowID int16 = 1

// PricingTierConfig persists the whole tier configuration as one versioned
// JSONB document. Saves replace the document atomically; there are never
// partial writes.
type PricingTierConfig struct {
	ID        int16           `gorm:"column:id;primaryKey"`
	Version   int64           `gorm:"column:version;not null;default:0"`
	Document  json.RawMessage `gorm:"column:document;type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the singular-config table name.
func (PricingTierConfig) TableName() string {
	return "pricing_tier_config"
}
