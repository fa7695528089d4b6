// Package service implements the raid operations on top of the storage
// layer. Every mutating operation acquires the player's exclusive lock,
// builds the full new record in memory, and commits it with a single
// PutRaidState; failures before that point leave stored state untouched.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
	"github.com/louisbranch/extraction.zone/internal/raid/token"
)

// Service coordinates raid state, combat, loot, and exploration events for
// all players.
type Service struct {
	store   storage.Store
	catalog item.Catalog
	tokens  token.Config
	rng     *rand.Rand
	locks   *playerLocks
	now     func() time.Time
}

// New builds a Service over the given store. The item catalog is loaded
// from storage; an unseeded database falls back to the built-in defaults so
// the service is usable before the seed command has run.
func New(ctx context.Context, store storage.Store, tokens token.Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	items, err := store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load item catalog: %w", err)
	}
	if len(items) == 0 {
		items = item.Defaults()
	}

	return &Service{
		store:   store,
		catalog: item.NewMapCatalog(items),
		tokens:  tokens,
		rng:     rand.New(&lockedSource{src: rand.NewSource(time.Now().UnixNano())}),
		locks:   newPlayerLocks(),
		now:     time.Now,
	}, nil
}

// lockedSource makes a rand.Source safe for use across player goroutines.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// requirePlayer validates and normalizes the player key.
func requirePlayer(playerKey string) (string, error) {
	playerKey = strings.TrimSpace(playerKey)
	if playerKey == "" {
		return "", apperrors.New(apperrors.CodeUnknown, "player key is required")
	}
	return playerKey, nil
}

// getState loads a player's record, returning nil when none exists yet.
func (s *Service) getState(ctx context.Context, playerKey string) (*state.PlayerRaidState, error) {
	st, err := s.store.GetRaidState(ctx, playerKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return st, nil
}

// requireRaid loads a player's record and fails unless a raid is active.
func (s *Service) requireRaid(ctx context.Context, playerKey string) (*state.PlayerRaidState, error) {
	st, err := s.getState(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if !st.InRaid() {
		return nil, apperrors.New(apperrors.CodeNotInRaid, "player is not in a raid")
	}
	return st, nil
}

// raidInstances loads the player's raid-carried instances keyed by id.
func (s *Service) raidInstances(ctx context.Context, playerKey string) (map[string]*item.Instance, error) {
	records, err := s.store.ListInstances(ctx, playerKey, storage.LocationRaid)
	if err != nil {
		return nil, err
	}
	instances := make(map[string]*item.Instance, len(records))
	for i := range records {
		inst := records[i].Instance
		instances[inst.InstanceID] = &inst
	}
	return instances, nil
}
