package service

import (
	"context"
	"log"
	"time"

	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/encounter"
	"github.com/louisbranch/extraction.zone/internal/raid/event"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
	"github.com/louisbranch/extraction.zone/internal/raid/token"
)

// ExploreResult is a pending event step plus the token that authorizes
// choosing against it.
type ExploreResult struct {
	Presentation event.Presentation
	Token        string
	ExpiresAt    time.Time
}

// ExploreEvent draws a fresh exploration event for the raid. An abandoned
// in-progress chain is replaced rather than resumed; the old token dies
// with it. A dead encounter with missing loot is repaired on the way.
func (s *Service) ExploreEvent(ctx context.Context, playerKey string) (*ExploreResult, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.requireRaid(ctx, playerKey)
	if err != nil {
		return nil, err
	}

	if enc := st.Context.Encounter; enc != nil && enc.Dead && !enc.LootIsPending() {
		enc.EnsureLootPending(s.rng, s.catalog)
	}
	if st.Context.EventChain != nil {
		log.Printf("event replaced player_key=%s event_id=%s step=%d",
			playerKey, st.Context.EventChain.EventID, st.Context.EventChain.Step)
	}

	presentation, chain := event.Begin(s.rng, st.Context.Meta)
	signed, claims, err := token.Issue(s.tokens, playerKey, chain.EventID)
	if err != nil {
		return nil, err
	}

	st.Context.EventChain = &chain
	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}

	log.Printf("event started player_key=%s event_id=%s", playerKey, chain.EventID)
	return &ExploreResult{
		Presentation: presentation,
		Token:        signed,
		ExpiresAt:    claims.ExpiresAt,
	}, nil
}

// ChooseResult reports one resolved event step. Token is set only when the
// chain continues.
type ChooseResult struct {
	Outcome   event.Outcome
	Token     string
	ExpiresAt time.Time
	Spawned   *encounter.Encounter
}

// ChooseEvent resolves one choice against the active event chain. The
// continuation token must verify for this player and must be bound to the
// active chain's event; a stale token fails without mutating anything.
func (s *Service) ChooseEvent(ctx context.Context, playerKey, tokenString, choiceID string) (*ChooseResult, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.requireRaid(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	chain := st.Context.EventChain
	if chain == nil {
		return nil, apperrors.New(apperrors.CodeNoEvent, "no exploration event in progress")
	}

	claims, err := token.Verify(s.tokens, tokenString, playerKey)
	if err != nil {
		return nil, err
	}
	if claims.EventID != chain.EventID {
		return nil, apperrors.New(apperrors.CodeEventTokenMismatch, "token is bound to a different event")
	}

	out := event.Choose(s.rng, *chain, st.Context.Meta, choiceID)
	st.Context.Meta = out.Meta
	st.Context.EventChain = out.Chain

	for itemID, qty := range out.LootStacks {
		st.Bag.Add(itemID, qty)
	}
	for _, drop := range out.LootGear {
		if _, err := s.mintGear(ctx, playerKey, st, drop.ItemID, drop.AmmoInMag); err != nil {
			return nil, err
		}
	}

	result := &ChooseResult{Outcome: out}
	if out.SpawnFaction != "" {
		if spawned := s.installSpawn(st, out.SpawnFaction); spawned != nil {
			result.Spawned = spawned
		}
	}
	if out.Chain != nil {
		signed, claims, err := token.Issue(s.tokens, playerKey, out.Chain.EventID)
		if err != nil {
			return nil, err
		}
		result.Token = signed
		result.ExpiresAt = claims.ExpiresAt
	}

	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}

	log.Printf("event choice player_key=%s event_id=%s choice=%s terminal=%t spawn=%s",
		playerKey, chain.EventID, choiceID, out.Terminal, out.SpawnFaction)
	return result, nil
}

// installSpawn places a spawned hostile unless a live encounter or an
// unlooted corpse already occupies the slot.
func (s *Service) installSpawn(st *state.PlayerRaidState, faction encounter.Faction) *encounter.Encounter {
	current := st.Context.Encounter
	if current != nil && (current.Alive() || current.LootIsPending()) {
		return nil
	}
	spawned := encounter.Spawn(s.rng, faction)
	st.Context.Encounter = spawned
	return spawned
}

// mintGear creates a durable instance from a drop, persists it under the
// raid, and adds it to the bag.
func (s *Service) mintGear(ctx context.Context, playerKey string, st *state.PlayerRaidState, itemID string, ammoInMag int) (*item.Instance, error) {
	it, ok := s.catalog.Item(itemID)
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeItemNotFound,
			"dropped item missing from catalog",
			map[string]string{"item_id": itemID})
	}
	inst := item.NewInstance(s.rng, it, ammoInMag)
	if err := s.store.InsertInstance(ctx, playerKey, storage.LocationRaid, &inst); err != nil {
		return nil, err
	}
	st.Bag.AddInstance(inst.InstanceID)
	return &inst, nil
}
