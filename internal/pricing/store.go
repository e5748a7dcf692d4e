package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/threadlinehq/threadline-backend/pkg/logger"
)

// StoreParams groups dependencies for the configuration store.
type StoreParams struct {
	Repo   ConfigRepository
	Logger *logger.Logger
}

// Store is the tier configuration store. The last loaded config is kept in
// an atomic pointer so callers always observe a complete snapshot; Save swaps
// in a fresh document and never mutates a published one. The snapshot is a
// fallback, not a cache: edits land in the database and other processes (the
// API, the order worker, the cron worker each run their own Store) must see
// them, so every Load reads the persisted row.
type Store struct {
	repo  ConfigRepository
	logg  *logger.Logger
	cache atomic.Pointer[TierConfig]
}

// NewStore builds a configuration store.
func NewStore(params StoreParams) (*Store, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Store{repo: params.Repo, logg: params.Logger}, nil
}

// Load returns the current configuration, re-reading the persisted document
// so saves made by other processes are observed on the next resolution. When
// nothing has been persisted it returns the defaults (version 0). If the read
// fails and a previous snapshot exists, that snapshot is served so resolution
// keeps working through transient database trouble.
func (s *Store) Load(ctx context.Context) (*TierConfig, error) {
	cfg, err := s.Reload(ctx)
	if err != nil {
		if cached := s.cache.Load(); cached != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "serving last known pricing config after reload failure")
			}
			return cached, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Reload bypasses the cache and reads the persisted document.
func (s *Store) Reload(ctx context.Context) (*TierConfig, error) {
	row, err := s.repo.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading pricing config: %w", err)
	}
	if row == nil {
		cfg := DefaultConfig()
		s.cache.Store(cfg)
		return cfg, nil
	}

	cfg := &TierConfig{}
	if err := json.Unmarshal(row.Document, cfg); err != nil {
		return nil, fmt.Errorf("decoding pricing config document: %w", err)
	}
	cfg.Version = row.Version
	s.cache.Store(cfg)
	return cfg, nil
}

// Save validates and persists the whole document atomically. The prior
// configuration stays active when validation or the version check fails.
func (s *Store) Save(ctx context.Context, cfg *TierConfig) (*TierConfig, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	assignTierIDs(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	document, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding pricing config document: %w", err)
	}

	row, err := s.repo.Save(ctx, document, cfg.Version)
	if err != nil {
		return nil, err
	}

	stored := &TierConfig{}
	if err := json.Unmarshal(row.Document, stored); err != nil {
		return nil, fmt.Errorf("decoding stored pricing config: %w", err)
	}
	stored.Version = row.Version
	s.cache.Store(stored)

	if s.logg != nil {
		s.logg.Info(s.logg.WithConfigVersion(ctx, stored.Version), "pricing configuration saved")
	}
	return stored, nil
}

// assignTierIDs fills ids for tiers created through the settings surface.
func assignTierIDs(cfg *TierConfig) {
	for i := range cfg.VolumeTiers {
		if cfg.VolumeTiers[i].ID == uuid.Nil {
			cfg.VolumeTiers[i].ID = uuid.New()
		}
	}
	for i := range cfg.RelationshipTiers {
		if cfg.RelationshipTiers[i].ID == uuid.Nil {
			cfg.RelationshipTiers[i].ID = uuid.New()
		}
	}
}
