package pricing

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
)

// ConfigRepository persists the singleton configuration document.
type ConfigRepository interface {
	Find(ctx context.Context) (*models.PricingTierConfig, error)
	Save(ctx context.Context, document json.RawMessage, expectedVersion int64) (*models.PricingTierConfig, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a config repository bound to the provided database.
func NewRepository(db *gorm.DB) ConfigRepository {
	return &repository{db: db}
}

// Find returns the persisted row, or nil when nothing has been saved yet.
func (r *repository) Find(ctx context.Context) (*models.PricingTierConfig, error) {
	var row models.PricingTierConfig
	err := r.db.WithContext(ctx).
		First(&row, "id = ?", models.PricingTierConfigRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Save replaces the document in one statement. The version check makes
// concurrent administrator edits lose cleanly instead of interleaving: the
// write only lands when the row still carries expectedVersion.
func (r *repository) Save(ctx context.Context, document json.RawMessage, expectedVersion int64) (*models.PricingTierConfig, error) {
	db := r.db.WithContext(ctx)

	if expectedVersion == 0 {
		row := &models.PricingTierConfig{
			ID:       models.PricingTierConfigRowID,
			Version:  1,
			Document: document,
		}
		if err := db.Create(row).Error; err != nil {
			return nil, err
		}
		return row, nil
	}

	res := db.Model(&models.PricingTierConfig{}).
		Where("id = ? AND version = ?", models.PricingTierConfigRowID, expectedVersion).
		Updates(map[string]any{
			"version":  expectedVersion + 1,
			"document": document,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "pricing configuration was modified concurrently")
	}

	return &models.PricingTierConfig{
		ID:       models.PricingTierConfigRowID,
		Version:  expectedVersion + 1,
		Document: document,
	}, nil
}
