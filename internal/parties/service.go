package parties

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/internal/pricing"
	"github.com/threadlinehq/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
	"github.com/threadlinehq/threadline-backend/pkg/logger"
	"github.com/threadlinehq/threadline-backend/pkg/metrics"
	"github.com/threadlinehq/threadline-backend/pkg/pagination"
)

// ServiceParams groups the party service dependencies.
type ServiceParams struct {
	Repo    Repository
	Config  *pricing.Store
	Logger  *logger.Logger
	Metrics *metrics.PricingMetrics
}

// Service owns party accounts and their pricing tier state.
type Service struct {
	repo    Repository
	config  *pricing.Store
	logg    *logger.Logger
	metrics *metrics.PricingMetrics
}

// NewService builds a party service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Config == nil {
		return nil, errors.New("config store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		repo:    params.Repo,
		config:  params.Config,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// CreateParty registers a new party with a clean tier state.
func (s *Service) CreateParty(ctx context.Context, input CreatePartyInput) (*models.Party, error) {
	party := &models.Party{
		Name:      input.Name,
		Phone:     input.Phone,
		City:      input.City,
		GSTNumber: input.GSTNumber,
	}
	if err := s.repo.Create(ctx, party); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating party")
	}
	return party, nil
}

// GetParty fetches a party by id.
func (s *Service) GetParty(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	return s.repo.FindByID(ctx, id)
}

// ListParties returns a page of parties in reverse creation order.
func (s *Service) ListParties(ctx context.Context, input ListPartiesInput) (*ListPartiesResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, ListQuery{Limit: input.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing parties")
	}

	result := &ListPartiesResult{Parties: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// OnOrderCompleted increments the party's monthly counter and, when the
// active model computes an automatic tier, writes the recomputed tier back to
// the party record. A resolution failure never fails the call: the order is
// already complete, so the counter bump must stick regardless of pricing
// state.
func (s *Service) OnOrderCompleted(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
	ctx = s.logg.WithPartyID(ctx, partyID.String())

	party, err := s.repo.IncrementMonthlyOrderCount(ctx, partyID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.config.Load(ctx)
	if err != nil {
		s.logg.Error(ctx, "loading pricing config after order completion", err)
		return party, nil
	}

	res, err := pricing.ResolveEffectiveTier(cfg, stateOf(party))
	s.observeResolution(ctx, cfg, err)
	if err != nil {
		// A range gap means no tier covers the new count; the stored auto
		// tier is display data and must not keep pointing at the old bracket.
		if typed, ok := pricing.AsResolutionError(err); ok &&
			typed.Kind == pricing.ResolutionErrNoMatchingTier && party.HybridAutoTierID != nil {
			if clearErr := s.repo.SetHybridAutoTier(ctx, partyID, nil); clearErr != nil {
				s.logg.Error(ctx, "clearing stale auto tier", clearErr)
			} else {
				party.HybridAutoTierID = nil
			}
		}
		return party, nil
	}

	if !autoTierChanged(party.HybridAutoTierID, res.HybridAutoTierID) {
		return party, nil
	}
	if err := s.repo.SetHybridAutoTier(ctx, partyID, res.HybridAutoTierID); err != nil {
		s.logg.Error(ctx, "persisting recomputed auto tier", err)
		return party, nil
	}
	party.HybridAutoTierID = res.HybridAutoTierID
	return party, nil
}

// SetRelationshipTier assigns a relationship tier after checking the id
// against the current configuration.
func (s *Service) SetRelationshipTier(ctx context.Context, partyID uuid.UUID, input SetRelationshipTierInput) (*models.Party, error) {
	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pricing config")
	}
	if _, ok := cfg.RelationshipTierByID(input.TierID); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown relationship tier").
			WithDetails(map[string]any{"tier_id": input.TierID})
	}

	if err := s.repo.SetRelationshipTier(ctx, partyID, input.TierID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, partyID)
}

// SetVolumeTierOverride pins a party to a volume tier, or clears the pin when
// TierID is nil.
func (s *Service) SetVolumeTierOverride(ctx context.Context, partyID uuid.UUID, input SetVolumeTierOverrideInput) (*models.Party, error) {
	if input.TierID != nil {
		cfg, err := s.config.Load(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pricing config")
		}
		if _, ok := cfg.VolumeTierByID(*input.TierID); !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown volume tier").
				WithDetails(map[string]any{"tier_id": *input.TierID})
		}
	}

	if err := s.repo.SetVolumeTierOverride(ctx, partyID, input.TierID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, partyID)
}

// SetHybridOverride enables or disables the hybrid override. Disabling clears
// the override tier so the party returns to automatic standing.
func (s *Service) SetHybridOverride(ctx context.Context, partyID uuid.UUID, input SetHybridOverrideInput) (*models.Party, error) {
	if input.Override {
		if input.TierID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "override tier is required")
		}
		cfg, err := s.config.Load(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pricing config")
		}
		if _, ok := cfg.VolumeTierByID(*input.TierID); !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown volume tier").
				WithDetails(map[string]any{"tier_id": *input.TierID})
		}
	} else {
		input.TierID = nil
	}

	if err := s.repo.SetHybridOverride(ctx, partyID, input.Override, input.TierID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, partyID)
}

// EffectiveTierView resolves the party's effective tier for display and
// pricing. Failures degrade to a zero-discount view so callers never have to
// branch on pricing state.
func (s *Service) EffectiveTierView(ctx context.Context, partyID uuid.UUID) (*TierView, error) {
	party, err := s.repo.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithPartyID(ctx, partyID.String())

	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pricing config")
	}

	res, err := pricing.ResolveEffectiveTier(cfg, stateOf(party))
	s.observeResolution(ctx, cfg, err)
	if err != nil {
		view := &TierView{
			PartyID:            partyID,
			Resolved:           false,
			DiscountPercentage: decimal.Zero,
		}
		if typed, ok := pricing.AsResolutionError(err); ok {
			view.FailureReason = string(typed.Kind)
		}
		return view, nil
	}

	effective := res.Effective
	return &TierView{
		PartyID:            partyID,
		Resolved:           true,
		EffectiveTier:      &effective,
		DiscountPercentage: effective.DiscountPercentage,
	}, nil
}

// RolloverMonthlyCounts zeroes every party's monthly counter at a month
// boundary and rewrites the automatic tier to the one covering a zero count.
// When no tier covers zero (or the active model has no automatic component)
// the auto tier is cleared instead.
func (s *Service) RolloverMonthlyCounts(ctx context.Context) (int64, error) {
	cfg, err := s.config.Load(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pricing config")
	}

	var autoTierID *uuid.UUID
	if cfg.ActiveModel.UsesVolumeTiers() {
		res, err := pricing.ResolveEffectiveTier(cfg, pricing.PartyState{})
		switch {
		case err != nil:
			s.logg.Warn(ctx, "no volume tier covers a zero order count")
		case res.HybridAutoTierID != nil:
			autoTierID = res.HybridAutoTierID
		default:
			id := res.Effective.TierID
			autoTierID = &id
		}
	}

	affected, err := s.repo.ResetMonthlyCounts(ctx, autoTierID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resetting monthly counts")
	}
	return affected, nil
}

func (s *Service) observeResolution(ctx context.Context, cfg *pricing.TierConfig, err error) {
	if err == nil {
		s.metrics.IncResolution(string(cfg.ActiveModel))
		return
	}
	if typed, ok := pricing.AsResolutionError(err); ok {
		s.metrics.IncFailure(string(typed.Kind))
		s.logg.Warn(ctx, "tier resolution failed: "+typed.Kind.String())
		return
	}
	s.metrics.IncFailure("internal")
	s.logg.Error(ctx, "tier resolution failed", err)
}

func autoTierChanged(stored, computed *uuid.UUID) bool {
	if stored == nil && computed == nil {
		return false
	}
	if stored == nil || computed == nil {
		return true
	}
	return *stored != *computed
}
