package service

import (
	"context"
	"errors"
	"log"

	"github.com/louisbranch/extraction.zone/internal/raid/combat"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
)

// Attack resolves one player attack against the active encounter and
// persists every side effect: encounter damage, ammo and durability spent,
// destroyed instances, and the noise it made.
func (s *Service) Attack(ctx context.Context, playerKey, kind, itemID string) (*combat.Result, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	parsedKind, err := combat.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.requireRaid(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	instances, err := s.raidInstances(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	ars := &combat.Arsenal{
		Bag:       &st.Bag,
		Pouch:     st.ThrowPouch,
		Instances: instances,
	}

	res, err := combat.Attack(s.rng, s.catalog, st.Context.Encounter, ars, parsedKind, itemID)
	if err != nil {
		return nil, err
	}

	// Only a destroyed instance leaves storage. A gun that wore out stays
	// in the bag at zero durability and is persisted like any survivor.
	if res.InstanceDestroyed {
		delete(instances, res.BrokenInstanceID)
		if err := s.store.DeleteInstance(ctx, res.BrokenInstanceID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if err := s.unequipInstance(ctx, playerKey, st, res.BrokenInstanceID); err != nil {
			return nil, err
		}
	}
	for _, inst := range instances {
		if err := s.store.UpdateInstance(ctx, inst); err != nil {
			return nil, err
		}
	}

	st.Context.Meta.AddNoise(res.NoiseDelta)
	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}

	log.Printf("attack resolved player_key=%s kind=%s damage=%d killed=%t missed=%t",
		playerKey, parsedKind, res.Damage, res.Killed, res.Missed)
	return &res, nil
}

// ApplyIncomingHit resolves raw incoming damage through the player's
// equipped armor. Broken armor is destroyed and unequipped.
func (s *Service) ApplyIncomingHit(ctx context.Context, playerKey string, rawDamage int) (*combat.IncomingResult, error) {
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

	armorID := st.Context.Loadout.ArmorID
	armor, err := s.loadArmorInstance(ctx, playerKey, armorID)
	if err != nil {
		return nil, err
	}

	res, err := combat.ApplyIncomingHit(s.catalog, rawDamage, armor)
	if err != nil {
		return nil, err
	}

	if armor != nil {
		if res.ArmorBroken {
			if err := s.store.DeleteInstance(ctx, armor.InstanceID); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			st.Bag.RemoveInstance(armor.InstanceID)
			if err := s.unequipInstance(ctx, playerKey, st, armor.InstanceID); err != nil {
				return nil, err
			}
		} else if res.DurabilityLoss > 0 {
			if err := s.store.UpdateInstance(ctx, armor); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}

	log.Printf("incoming hit player_key=%s raw=%d final=%d armor_broken=%t",
		playerKey, res.RawDamage, res.FinalDamage, res.ArmorBroken)
	return &res, nil
}

// loadArmorInstance fetches the equipped armor if the snapshot references
// one the player still carries. A stale reference mitigates nothing rather
// than failing the hit.
func (s *Service) loadArmorInstance(ctx context.Context, playerKey, armorID string) (*item.Instance, error) {
	if armorID == "" {
		return nil, nil
	}
	rec, err := s.store.GetInstance(ctx, armorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if rec.PlayerKey != playerKey || rec.Location != storage.LocationRaid {
		return nil, nil
	}
	inst := rec.Instance
	return &inst, nil
}

// unequipInstance clears every loadout slot, in-raid and persistent, that
// still references a destroyed instance.
func (s *Service) unequipInstance(ctx context.Context, playerKey string, st *state.PlayerRaidState, instanceID string) error {
	snap := &st.Context.Loadout
	for _, slot := range []*string{&snap.Primary, &snap.Secondary, &snap.Melee, &snap.ArmorID} {
		if *slot == instanceID {
			*slot = ""
		}
	}

	loadout, err := s.store.GetLoadout(ctx, playerKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	changed := false
	for _, slot := range []*string{&loadout.Primary, &loadout.Secondary, &loadout.Melee, &loadout.ArmorInstance} {
		if *slot == instanceID {
			*slot = ""
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.store.PutLoadout(ctx, loadout)
}
