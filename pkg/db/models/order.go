package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/pkg/enums"
)

// Order is the thin order record the pricing engine cares about. Line items,
// transport and print surfaces live in their own subsystems.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartyID            uuid.UUID         `gorm:"column:party_id;type:uuid;not null;index"`
	Status             enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TotalAmount        decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DiscountPercentage decimal.Decimal   `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	CompletedAt        *time.Time        `gorm:"column:completed_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
