package parties

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
	"github.com/threadlinehq/threadline-backend/pkg/pagination"
)

// Repository handles party persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, party *models.Party) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error)
	List(ctx context.Context, query ListQuery) ([]models.Party, *pagination.Cursor, error)
	IncrementMonthlyOrderCount(ctx context.Context, id uuid.UUID) (*models.Party, error)
	SetHybridAutoTier(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error
	SetRelationshipTier(ctx context.Context, id uuid.UUID, tierID uuid.UUID) error
	SetVolumeTierOverride(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error
	SetHybridOverride(ctx context.Context, id uuid.UUID, override bool, tierID *uuid.UUID) error
	ResetMonthlyCounts(ctx context.Context, autoTierID *uuid.UUID) (int64, error)
}

// ListQuery configures party list queries.
type ListQuery struct {
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a party repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, party *models.Party) error {
	return r.db.WithContext(ctx).Create(party).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Party, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if query.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Party
	if err := q.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) <= limit {
		return rows, nil, nil
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
}

// IncrementMonthlyOrderCount bumps the counter in a single UPDATE so
// concurrent completions for the same party never lose an increment, then
// reloads the row.
func (r *repository) IncrementMonthlyOrderCount(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("id = ?", id).
		UpdateColumn("monthly_order_count", gorm.Expr("monthly_order_count + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	return r.FindByID(ctx, id)
}

func (r *repository) SetHybridAutoTier(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error {
	return r.updateTierColumns(ctx, id, map[string]any{"hybrid_auto_tier_id": tierID})
}

func (r *repository) SetRelationshipTier(ctx context.Context, id uuid.UUID, tierID uuid.UUID) error {
	return r.updateTierColumns(ctx, id, map[string]any{"relationship_tier_id": tierID})
}

func (r *repository) SetVolumeTierOverride(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error {
	return r.updateTierColumns(ctx, id, map[string]any{"volume_tier_id": tierID})
}

func (r *repository) SetHybridOverride(ctx context.Context, id uuid.UUID, override bool, tierID *uuid.UUID) error {
	return r.updateTierColumns(ctx, id, map[string]any{
		"hybrid_manual_override":  override,
		"hybrid_override_tier_id": tierID,
	})
}

func (r *repository) updateTierColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("id = ?", id).
		UpdateColumns(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "party not found")
	}
	return nil
}

// ResetMonthlyCounts zeroes every party's counter at a month boundary and
// rewrites the auto tier to the tier matching a zero count (same for all
// parties, so one statement covers the table).
func (r *repository) ResetMonthlyCounts(ctx context.Context, autoTierID *uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Party{}).
		Where("1 = 1").
		UpdateColumns(map[string]any{
			"monthly_order_count": 0,
			"hybrid_auto_tier_id": autoTierID,
		})
	return res.RowsAffected, res.Error
}
