package service

import (
	"context"
	"errors"
	"log"

	"github.com/louisbranch/extraction.zone/internal/core/roll"
	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/bag"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
)

// RaidResult closes a raid as an extraction or a death.
type RaidResult string

const (
	ResultExtract RaidResult = "extract"
	ResultDeath   RaidResult = "death"
)

// StartResult reports the freshly opened raid.
type StartResult struct {
	Loadout state.LoadoutSnapshot
	Carried []string // instance ids moved into the raid bag
}

// StartRaid opens a raid for an idle player. The equipped loadout is
// snapshotted into the raid context and its instances move from the stash
// into the raid bag; everything else starts empty.
func (s *Service) StartRaid(ctx context.Context, playerKey string) (*StartResult, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.getState(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if st.InRaid() {
		return nil, apperrors.New(apperrors.CodeAlreadyInRaid, "raid already in progress")
	}
	if st == nil {
		st = &state.PlayerRaidState{PlayerKey: playerKey}
	}

	loadout, err := s.store.GetLoadout(ctx, playerKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	st.Reset()
	st.Status = state.StatusInRaid
	st.Context.Loadout = state.LoadoutSnapshot{
		Primary:   loadout.Primary,
		Secondary: loadout.Secondary,
		Melee:     loadout.Melee,
		ArmorID:   loadout.ArmorInstance,
	}

	result := &StartResult{Loadout: st.Context.Loadout}
	for _, instanceID := range []string{loadout.Primary, loadout.Secondary, loadout.Melee, loadout.ArmorInstance} {
		if instanceID == "" {
			continue
		}
		if err := s.store.MoveInstance(ctx, instanceID, storage.LocationRaid); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// A stale loadout slot referencing a destroyed instance
				// must not block the raid.
				continue
			}
			return nil, err
		}
		st.Bag.AddInstance(instanceID)
		result.Carried = append(result.Carried, instanceID)
	}

	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}
	log.Printf("raid started player_key=%s carried=%d", playerKey, len(result.Carried))
	return result, nil
}

// EndResult reports what survived the raid.
type EndResult struct {
	Result          RaidResult
	StacksBanked    int
	InstancesBanked int
	InstancesLost   int
}

// EndRaid closes the player's raid. Extraction banks the bag and pouch into
// the stash and relocates carried instances; death destroys everything
// carried. Either way the player ends idle.
func (s *Service) EndRaid(ctx context.Context, playerKey string, result RaidResult) (*EndResult, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	if result != ResultExtract && result != ResultDeath {
		return nil, apperrors.New(apperrors.CodeInvalidRaidResult, "raid result must be extract or death")
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.requireRaid(ctx, playerKey)
	if err != nil {
		return nil, err
	}

	out := &EndResult{Result: result}
	if result == ResultExtract {
		for itemID, qty := range st.Bag.Stacks {
			if qty <= 0 {
				continue
			}
			if err := s.store.AddStashStack(ctx, playerKey, itemID, qty); err != nil {
				return nil, err
			}
			out.StacksBanked++
		}
		for itemID, qty := range st.ThrowPouch {
			if qty <= 0 {
				continue
			}
			if err := s.store.AddStashStack(ctx, playerKey, itemID, qty); err != nil {
				return nil, err
			}
			out.StacksBanked++
		}
		carried, err := s.store.ListInstances(ctx, playerKey, storage.LocationRaid)
		if err != nil {
			return nil, err
		}
		for _, rec := range carried {
			if err := s.store.MoveInstance(ctx, rec.Instance.InstanceID, storage.LocationStash); err != nil {
				return nil, err
			}
			out.InstancesBanked++
		}
	} else {
		carried, err := s.store.ListInstances(ctx, playerKey, storage.LocationRaid)
		if err != nil {
			return nil, err
		}
		for _, rec := range carried {
			if err := s.store.DeleteInstance(ctx, rec.Instance.InstanceID); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			out.InstancesLost++
		}
		if err := s.clearDeadLoadoutSlots(ctx, playerKey); err != nil {
			return nil, err
		}
	}

	st.Reset()
	if err := s.store.PutRaidState(ctx, st); err != nil {
		return nil, err
	}
	log.Printf("raid ended player_key=%s result=%s banked_stacks=%d banked_instances=%d lost_instances=%d",
		playerKey, result, out.StacksBanked, out.InstancesBanked, out.InstancesLost)
	return out, nil
}

// clearDeadLoadoutSlots blanks loadout slots whose instances no longer
// exist, so the next raid start does not chase destroyed gear.
func (s *Service) clearDeadLoadoutSlots(ctx context.Context, playerKey string) error {
	loadout, err := s.store.GetLoadout(ctx, playerKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	changed := false
	for _, slot := range []*string{&loadout.Primary, &loadout.Secondary, &loadout.Melee, &loadout.ArmorInstance} {
		if *slot == "" {
			continue
		}
		if _, err := s.store.GetInstance(ctx, *slot); errors.Is(err, storage.ErrNotFound) {
			*slot = ""
			changed = true
		} else if err != nil {
			return err
		}
	}
	if !changed {
		return nil
	}
	return s.store.PutLoadout(ctx, loadout)
}

// Snapshot is the read-only view of a player's raid.
type Snapshot struct {
	PlayerKey   string
	Status      state.Status
	Bag         bag.Bag
	ThrowPouch  map[string]int
	Context     state.Context
	EventActive bool
}

// State returns the player's current raid snapshot. A dead encounter with
// missing loot is repaired in place before the snapshot is taken.
func (s *Service) State(ctx context.Context, playerKey string) (*Snapshot, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	st, err := s.getState(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return &Snapshot{PlayerKey: playerKey, Status: state.StatusIdle}, nil
	}

	if enc := st.Context.Encounter; enc != nil && enc.Dead && !enc.LootIsPending() {
		enc.EnsureLootPending(s.rng, s.catalog)
		if err := s.store.PutRaidState(ctx, st); err != nil {
			return nil, err
		}
	}

	return &Snapshot{
		PlayerKey:   st.PlayerKey,
		Status:      st.Status,
		Bag:         st.Bag.Clone(),
		ThrowPouch:  clonePouch(st.ThrowPouch),
		Context:     st.Context,
		EventActive: st.Context.EventChain != nil,
	}, nil
}

func clonePouch(pouch map[string]int) map[string]int {
	out := make(map[string]int, len(pouch))
	for itemID, qty := range pouch {
		out[itemID] = qty
	}
	return out
}

// StarterResult reports the one-time starter grant.
type StarterResult struct {
	Stones        int
	MeleeItemID   string
	MeleeInstance string
}

// starterStickChance is the percentage of starter grants that hand out a
// fragile stick instead of a random tier-1 melee weapon.
const starterStickChance = 40

// StarterGrant hands a new player their opening kit: a few stones and one
// tier-1 melee weapon, straight into the stash. Granting twice fails.
func (s *Service) StarterGrant(ctx context.Context, playerKey string) (*StarterResult, error) {
	playerKey, err := requirePlayer(playerKey)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(playerKey)
	defer unlock()

	loadout, err := s.store.GetLoadout(ctx, playerKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if loadout.StarterGranted {
		return nil, apperrors.New(apperrors.CodeStarterAlreadyGranted, "starter kit already granted")
	}
	loadout.PlayerKey = playerKey

	stones := roll.Between(s.rng, 1, 3)
	if err := s.store.AddStashStack(ctx, playerKey, item.IDStone, stones); err != nil {
		return nil, err
	}

	meleeID := item.IDFragileStick
	if !roll.Percent(s.rng, starterStickChance) {
		meleeID = s.randomTierOneMelee()
	}
	it, ok := s.catalog.Item(meleeID)
	if !ok {
		return nil, apperrors.New(apperrors.CodeItemNotFound, "starter melee missing from catalog")
	}
	inst := item.NewInstance(s.rng, it, 0)
	if err := s.store.InsertInstance(ctx, playerKey, storage.LocationStash, &inst); err != nil {
		return nil, err
	}

	loadout.StarterGranted = true
	if loadout.Melee == "" {
		loadout.Melee = inst.InstanceID
	}
	if err := s.store.PutLoadout(ctx, loadout); err != nil {
		return nil, err
	}

	log.Printf("starter granted player_key=%s stones=%d melee=%s", playerKey, stones, meleeID)
	return &StarterResult{Stones: stones, MeleeItemID: meleeID, MeleeInstance: inst.InstanceID}, nil
}

// randomTierOneMelee draws uniformly from the tier-1 melee pool.
func (s *Service) randomTierOneMelee() string {
	var pool []string
	for _, it := range item.Defaults() {
		if it.Category == item.CategoryMelee && it.Tier == 1 {
			pool = append(pool, it.ID)
		}
	}
	if len(pool) == 0 {
		return item.IDFragileStick
	}
	return pool[roll.Between(s.rng, 0, len(pool)-1)]
}
