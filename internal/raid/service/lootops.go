package service

import (
	"context"
	"errors"
	"log"

	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/encounter"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
)

// LootAction is what the player does with a corpse.
type LootAction string

const (
	LootTake LootAction = "take"
	LootSkip LootAction = "skip"
)

// LootResult reports a resolved loot interaction. The encounter is gone
// either way.
type LootResult struct {
	Action LootAction
	Stacks map[string]int
	Gear   []string // minted instance ids
}

// TakeLoot resolves the pending loot of a dead encounter. Taking merges
// stacks into the bag and mints durable instances; skipping discards the
// bundle without minting anything. The corpse is removed in both cases.
func (s *Service) TakeLoot(ctx context.Context, playerKey string, action LootAction) (*LootResult, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	if action != LootTake && action != LootSkip {
		return nil, apperrors.New(apperrors.CodeInvalidLootAction, "loot action must be take or skip")
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.requireRaid(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	enc := st.Context.Encounter
	if enc == nil {
		return nil, apperrors.New(apperrors.CodeNoEncounter, "no encounter to loot")
	}
	if !enc.Dead {
		return nil, apperrors.New(apperrors.CodeEncounterNotDead, "encounter is still alive")
	}
	enc.EnsureLootPending(s.rng, s.catalog)

	result := &LootResult{Action: action, Stacks: map[string]int{}}
	if action == LootTake && enc.Loot != nil {
		for itemID, qty := range enc.Loot.Stacks {
			if qty <= 0 {
				continue
			}
			st.Bag.Add(itemID, qty)
			result.Stacks[itemID] = qty
		}
		for _, drop := range enc.Loot.Gear {
			inst, err := s.mintGear(ctx, playerKey, st, drop.ItemID, drop.AmmoInMag)
			if err != nil {
				return nil, err
			}
			result.Gear = append(result.Gear, inst.InstanceID)
		}
	}

	st.Context.Encounter = nil
	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}

	log.Printf("loot resolved player_key=%s action=%s stacks=%d gear=%d",
		playerKey, action, len(result.Stacks), len(result.Gear))
	return result, nil
}

// Slot names a loadout position.
type Slot string

const (
	SlotPrimary   Slot = "primary"
	SlotSecondary Slot = "secondary"
	SlotMelee     Slot = "melee"
	SlotArmor     Slot = "armor"
)

// slotCategory is the item category each slot accepts.
var slotCategory = map[Slot]item.Category{
	SlotPrimary:   item.CategoryGun,
	SlotSecondary: item.CategoryGun,
	SlotMelee:     item.CategoryMelee,
	SlotArmor:     item.CategoryArmor,
}

// Equip sets or clears one loadout slot. The instance must belong to the
// player and live where the player currently is: in the raid bag during a
// raid, in the stash otherwise. An empty instance id clears the slot.
func (s *Service) Equip(ctx context.Context, playerKey, slotName, instanceID string) error {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return err
	}
	slot := Slot(slotName)
	wantCategory, ok := slotCategory[slot]
	if !ok {
		return apperrors.New(apperrors.CodeInvalidSlot, "slot must be primary, secondary, melee, or armor")
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.getState(ctx, playerKey)
	if err != nil {
		return err
	}
	inRaid := st.InRaid()

	if instanceID != "" {
		rec, err := s.store.GetInstance(ctx, instanceID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperrors.New(apperrors.CodeInstanceNotFound, "no such instance")
			}
			return err
		}
		if rec.PlayerKey != playerKey {
			return apperrors.New(apperrors.CodeInstanceNotFound, "no such instance")
		}
		if inRaid && rec.Location != storage.LocationRaid {
			return apperrors.New(apperrors.CodeNotOwnedInRaid, "instance is not carried in this raid")
		}
		if !inRaid && rec.Location != storage.LocationStash {
			return apperrors.New(apperrors.CodeNotOwnedInStash, "instance is not in the stash")
		}

		it, ok := s.catalog.Item(rec.Instance.ItemID)
		if !ok {
			return apperrors.New(apperrors.CodeItemNotFound, "instance item missing from catalog")
		}
		if !it.Durable() {
			return apperrors.New(apperrors.CodeNotEquippable, "item cannot be equipped")
		}
		if it.Category != wantCategory {
			return apperrors.New(apperrors.CodeSlotTypeMismatch, "item does not fit this slot")
		}
	}

	loadout, err := s.store.GetLoadout(ctx, playerKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	loadout.PlayerKey = playerKey

	switch slot {
	case SlotPrimary:
		loadout.Primary = instanceID
	case SlotSecondary:
		loadout.Secondary = instanceID
	case SlotMelee:
		loadout.Melee = instanceID
	case SlotArmor:
		loadout.ArmorInstance = instanceID
	}
	if err := s.store.PutLoadout(ctx, loadout); err != nil {
		return err
	}

	if inRaid {
		switch slot {
		case SlotPrimary:
			st.Context.Loadout.Primary = instanceID
		case SlotSecondary:
			st.Context.Loadout.Secondary = instanceID
		case SlotMelee:
			st.Context.Loadout.Melee = instanceID
		case SlotArmor:
			st.Context.Loadout.ArmorID = instanceID
		}
		if err := s.store.PutRaidState(ctx, st); err != nil {
			return err
		}
	}

	log.Printf("loadout updated player_key=%s slot=%s instance=%s", playerKey, slot, instanceID)
	return nil
}

// NextEncounterResult reports what the player faces now.
type NextEncounterResult struct {
	Encounter *encounter.Encounter
	Reused    bool // an existing live or lootable encounter was kept
}

// NextEncounter advances the raid to its next hostile. A live encounter is
// reused, a dead one with pending loot is kept so the player can still
// claim it, and anything else is replaced by a fresh spawn.
func (s *Service) NextEncounter(ctx context.Context, playerKey string) (*NextEncounterResult, error) {
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

	enc := st.Context.Encounter
	if enc != nil && enc.Alive() {
		return &NextEncounterResult{Encounter: enc, Reused: true}, nil
	}
	if enc != nil && enc.Dead {
		enc.EnsureLootPending(s.rng, s.catalog)
		if err := s.store.PutRaidState(ctx, st); err != nil {
			return nil, err
		}
		return &NextEncounterResult{Encounter: enc, Reused: true}, nil
	}

	spawned := encounter.SpawnRandom(s.rng)
	st.Context.Encounter = spawned
	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}

	log.Printf("encounter spawned player_key=%s type=%s faction=%s", playerKey, spawned.Type, spawned.Faction)
	return &NextEncounterResult{Encounter: spawned}, nil
}
