package controllers

import (
	"net/http"

	"github.com/threadlinehq/threadline-backend/api/responses"
	"github.com/threadlinehq/threadline-backend/api/validators"
	"github.com/threadlinehq/threadline-backend/internal/pricing"
	"github.com/threadlinehq/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
	"github.com/threadlinehq/threadline-backend/pkg/logger"
)

// pricingConfigPayload is the settings-surface shape of the configuration
// document. Version carries the optimistic-concurrency check: a stale value
// makes the save fail instead of clobbering a newer document.
type pricingConfigPayload struct {
	ActiveModel       enums.PricingModel         `json:"active_model" validate:"required"`
	VolumeTiers       []pricing.VolumeTier       `json:"volume_tiers"`
	RelationshipTiers []pricing.RelationshipTier `json:"relationship_tiers"`
	Version           int64                      `json:"version"`
}

func (p pricingConfigPayload) toConfig() *pricing.TierConfig {
	return &pricing.TierConfig{
		ActiveModel:       p.ActiveModel,
		VolumeTiers:       p.VolumeTiers,
		RelationshipTiers: p.RelationshipTiers,
		Version:           p.Version,
	}
}

func pricingConfigView(cfg *pricing.TierConfig) pricingConfigPayload {
	return pricingConfigPayload{
		ActiveModel:       cfg.ActiveModel,
		VolumeTiers:       cfg.VolumeTiers,
		RelationshipTiers: cfg.RelationshipTiers,
		Version:           cfg.Version,
	}
}

// PricingConfigFetch returns the current tier configuration document.
func PricingConfigFetch(store *pricing.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing store unavailable"))
			return
		}

		cfg, err := store.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pricingConfigView(cfg))
	}
}

// PricingConfigUpdate replaces the whole configuration document.
func PricingConfigUpdate(store *pricing.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing store unavailable"))
			return
		}

		var payload pricingConfigPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !payload.ActiveModel.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown pricing model").
				WithDetails(map[string]any{"active_model": payload.ActiveModel}))
			return
		}

		stored, err := store.Save(r.Context(), payload.toConfig())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pricingConfigView(stored))
	}
}
