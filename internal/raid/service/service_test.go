package service

import (
	"context"
	"crypto/ed25519"
	"math/rand"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/encounter"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
	"github.com/louisbranch/extraction.zone/internal/raid/token"
)

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg := token.Config{
		Issuer:   "extraction.zone",
		Audience: "raid-events",
		Private:  priv,
		Public:   pub,
		TTL:      token.DefaultTTL,
		Now:      time.Now,
	}
	store := newFakeStore()
	svc, err := New(context.Background(), store, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.rng = rand.New(rand.NewSource(7))
	return svc, store
}

func seedRaid(t *testing.T, store *fakeStore, playerKey string, enc *encounter.Encounter) {
	t.Helper()
	st := &state.PlayerRaidState{
		PlayerKey:  playerKey,
		Status:     state.StatusInRaid,
		ThrowPouch: map[string]int{},
	}
	st.Context.Encounter = enc
	if err := store.PutRaidState(context.Background(), st); err != nil {
		t.Fatalf("seed raid: %v", err)
	}
}

func zombieAt(hp int) *encounter.Encounter {
	return &encounter.Encounter{
		Type: "zombie_walker", Name: "Walker",
		Faction: encounter.FactionZombie,
		HP:      hp, HPMax: hp, Attack: 6, Aim: 40,
		LootTier:  1,
		LootState: encounter.LootNone,
	}
}

func TestStartRaidTwiceFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartRaid(ctx, "p1"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	_, err := svc.StartRaid(ctx, "p1")
	if apperrors.CodeOf(err) != apperrors.CodeAlreadyInRaid {
		t.Fatalf("expected ALREADY_IN_RAID, got %v", err)
	}
}

func TestStartRaidCarriesLoadout(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	knife := item.Instance{InstanceID: "inst-knife", ItemID: item.IDRustyKnife, Durability: 5, DurabilityMax: 8}
	if err := store.InsertInstance(ctx, "p1", storage.LocationStash, &knife); err != nil {
		t.Fatal(err)
	}
	if err := store.PutLoadout(ctx, storage.LoadoutRecord{PlayerKey: "p1", Melee: "inst-knife"}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.StartRaid(ctx, "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(res.Carried) != 1 || res.Carried[0] != "inst-knife" {
		t.Fatalf("carried = %v", res.Carried)
	}
	rec, err := store.GetInstance(ctx, "inst-knife")
	if err != nil || rec.Location != storage.LocationRaid {
		t.Fatalf("knife not moved into raid: %+v %v", rec, err)
	}

	st, err := store.GetRaidState(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Bag.HasInstance("inst-knife") {
		t.Fatal("knife not in raid bag")
	}
	if st.Context.Loadout.Melee != "inst-knife" {
		t.Fatalf("loadout snapshot = %+v", st.Context.Loadout)
	}
}

func TestEndRaidExtractBanksCarried(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedRaid(t, store, "p1", nil)
	st, _ := store.GetRaidState(ctx, "p1")
	st.Bag.Add(item.IDStone, 4)
	st.Bag.AddInstance("inst-pipe")
	st.ThrowPouch = map[string]int{item.AmmoTierID(1): 6}
	if err := store.PutRaidState(ctx, st); err != nil {
		t.Fatal(err)
	}
	pipe := item.Instance{InstanceID: "inst-pipe", ItemID: item.IDPipeWrench, Durability: 6, DurabilityMax: 8}
	if err := store.InsertInstance(ctx, "p1", storage.LocationRaid, &pipe); err != nil {
		t.Fatal(err)
	}

	res, err := svc.EndRaid(ctx, "p1", ResultExtract)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if res.StacksBanked != 2 || res.InstancesBanked != 1 {
		t.Fatalf("unexpected summary %+v", res)
	}

	if qty, _ := store.StashQty(ctx, "p1", item.IDStone); qty != 4 {
		t.Fatalf("stones not banked, qty = %d", qty)
	}
	if qty, _ := store.StashQty(ctx, "p1", item.AmmoTierID(1)); qty != 6 {
		t.Fatalf("pouch ammo not banked, qty = %d", qty)
	}
	rec, err := store.GetInstance(ctx, "inst-pipe")
	if err != nil || rec.Location != storage.LocationStash {
		t.Fatalf("pipe not banked: %+v %v", rec, err)
	}

	st, _ = store.GetRaidState(ctx, "p1")
	if st.InRaid() || st.Bag.Qty(item.IDStone) != 0 {
		t.Fatalf("state not reset: %+v", st)
	}
}

func TestEndRaidDeathDestroysCarried(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedRaid(t, store, "p1", nil)
	knife := item.Instance{InstanceID: "inst-knife", ItemID: item.IDRustyKnife, Durability: 5, DurabilityMax: 8}
	if err := store.InsertInstance(ctx, "p1", storage.LocationRaid, &knife); err != nil {
		t.Fatal(err)
	}
	if err := store.PutLoadout(ctx, storage.LoadoutRecord{PlayerKey: "p1", Melee: "inst-knife", StarterGranted: true}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.EndRaid(ctx, "p1", ResultDeath)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if res.InstancesLost != 1 {
		t.Fatalf("unexpected summary %+v", res)
	}
	if _, err := store.GetInstance(ctx, "inst-knife"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("knife survived death: %v", err)
	}
	loadout, err := store.GetLoadout(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if loadout.Melee != "" {
		t.Fatalf("dead slot not cleared: %+v", loadout)
	}
	if !loadout.StarterGranted {
		t.Fatal("starter flag must survive death")
	}
}

func TestEndRaidValidatesResult(t *testing.T) {
	svc, store := newTestService(t)
	seedRaid(t, store, "p1", nil)
	_, err := svc.EndRaid(context.Background(), "p1", "rage_quit")
	if apperrors.CodeOf(err) != apperrors.CodeInvalidRaidResult {
		t.Fatalf("expected INVALID_RAID_RESULT, got %v", err)
	}
}

func TestAttackRequiresRaid(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Attack(context.Background(), "p1", "melee", "")
	if apperrors.CodeOf(err) != apperrors.CodeNotInRaid {
		t.Fatalf("expected NOT_IN_RAID, got %v", err)
	}
}

func TestAttackKillPersistsPendingLoot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Bare hands deal at least 3; a 3 hp walker always dies.
	seedRaid(t, store, "p1", zombieAt(3))

	res, err := svc.Attack(ctx, "p1", "melee", "")
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if !res.Killed {
		t.Fatalf("expected kill, got %+v", res)
	}

	st, err := store.GetRaidState(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	enc := st.Context.Encounter
	if enc == nil || !enc.Dead || !enc.LootIsPending() {
		t.Fatalf("kill not persisted: %+v", enc)
	}
	if enc.Loot == nil || enc.Loot.Empty() {
		t.Fatal("pending loot must not be empty")
	}
}

func TestAttackGunWearBreakKeepsInstance(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedRaid(t, store, "p1", zombieAt(1<<20))
	gun := item.Instance{
		InstanceID: "inst-gun", ItemID: item.IDPistol,
		Durability: 1, DurabilityMax: 10,
		AmmoInMag: 1000, MagSize: 12,
	}
	if err := store.InsertInstance(ctx, "p1", storage.LocationRaid, &gun); err != nil {
		t.Fatal(err)
	}
	st, _ := store.GetRaidState(ctx, "p1")
	st.Bag.AddInstance("inst-gun")
	if err := store.PutRaidState(ctx, st); err != nil {
		t.Fatal(err)
	}

	// Wear is a per-shot roll; with one durability point the break lands
	// well inside this budget.
	broke := false
	for i := 0; i < 500 && !broke; i++ {
		res, err := svc.Attack(ctx, "p1", "gun", "")
		if err != nil {
			t.Fatalf("shot %d: %v", i, err)
		}
		if res.BrokenInstanceID == "inst-gun" {
			broke = true
			if res.InstanceDestroyed {
				t.Fatal("a worn-out gun must not be destroyed")
			}
		}
	}
	if !broke {
		t.Fatal("gun never broke")
	}

	rec, err := store.GetInstance(ctx, "inst-gun")
	if err != nil {
		t.Fatalf("broken gun must stay persisted: %v", err)
	}
	if rec.Instance.Durability > 0 {
		t.Fatalf("zero durability not persisted: %+v", rec.Instance)
	}
	st, _ = store.GetRaidState(ctx, "p1")
	if !st.Bag.HasInstance("inst-gun") {
		t.Fatal("broken gun must stay in the bag")
	}

	_, err = svc.Attack(ctx, "p1", "gun", "")
	if apperrors.CodeOf(err) != apperrors.CodeGunBroken {
		t.Fatalf("expected GUN_BROKEN, got %v", err)
	}
}

func TestAttackMeleeBreakDestroysAndUnequips(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedRaid(t, store, "p1", zombieAt(1000))
	stick := item.Instance{InstanceID: "inst-stick", ItemID: item.IDFragileStick, Durability: 1, DurabilityMax: 3}
	if err := store.InsertInstance(ctx, "p1", storage.LocationRaid, &stick); err != nil {
		t.Fatal(err)
	}
	if err := store.PutLoadout(ctx, storage.LoadoutRecord{PlayerKey: "p1", Melee: "inst-stick"}); err != nil {
		t.Fatal(err)
	}
	st, _ := store.GetRaidState(ctx, "p1")
	st.Bag.AddInstance("inst-stick")
	st.Context.Loadout.Melee = "inst-stick"
	if err := store.PutRaidState(ctx, st); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Attack(ctx, "p1", "melee", item.IDFragileStick)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.BrokenInstanceID != "inst-stick" || !res.InstanceDestroyed {
		t.Fatalf("expected shattered melee, got %+v", res)
	}

	if _, err := store.GetInstance(ctx, "inst-stick"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("shattered melee must be deleted: %v", err)
	}
	st, _ = store.GetRaidState(ctx, "p1")
	if st.Bag.HasInstance("inst-stick") {
		t.Fatal("shattered melee must leave the bag")
	}
	if st.Context.Loadout.Melee != "" {
		t.Fatalf("raid loadout still references %q", st.Context.Loadout.Melee)
	}
	loadout, err := store.GetLoadout(ctx, "p1")
	if err != nil || loadout.Melee != "" {
		t.Fatalf("melee slot not cleared: %+v %v", loadout, err)
	}
}

func TestConcurrentAttacksNeverLoseDamage(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	const workers = 16
	seedRaid(t, store, "p1", zombieAt(1000))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Attack(ctx, "p1", "melee", "")
			if err != nil {
				t.Errorf("attack: %v", err)
				return
			}
			mu.Lock()
			total += res.Damage
			mu.Unlock()
		}()
	}
	wg.Wait()

	st, err := store.GetRaidState(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got := 1000 - st.Context.Encounter.HP; got != total {
		t.Fatalf("lost updates: hp dropped %d, attacks dealt %d", got, total)
	}
}

func TestExploreAndChooseFlow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedRaid(t, store, "p1", nil)

	explore, err := svc.ExploreEvent(ctx, "p1")
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if explore.Token == "" || len(explore.Presentation.Choices) == 0 {
		t.Fatalf("bad explore result: %+v", explore)
	}

	choice := explore.Presentation.Choices[0].ID
	res, err := svc.ChooseEvent(ctx, "p1", explore.Token, choice)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if !res.Outcome.Terminal && res.Token == "" {
		t.Fatal("continuing chain must issue a fresh token")
	}

	st, err := store.GetRaidState(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome.Terminal && st.Context.EventChain != nil {
		t.Fatal("terminal outcome must clear the chain")
	}
	if !res.Outcome.Terminal && st.Context.EventChain == nil {
		t.Fatal("continuing outcome must keep the chain")
	}
}

func TestChooseWithoutEventFails(t *testing.T) {
	svc, store := newTestService(t)
	seedRaid(t, store, "p1", nil)
	_, err := svc.ChooseEvent(context.Background(), "p1", "whatever", "open")
	if apperrors.CodeOf(err) != apperrors.CodeNoEvent {
		t.Fatalf("expected NO_EVENT, got %v", err)
	}
}

func TestChooseStaleTokenFailsWithoutMutation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedRaid(t, store, "p1", nil)

	explore, err := svc.ExploreEvent(ctx, "p1")
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	staleEvent := "tripwire"
	if explore.Presentation.EventID == staleEvent {
		staleEvent = "rustle"
	}
	stale, _, err := token.Issue(svc.tokens, "p1", staleEvent)
	if err != nil {
		t.Fatalf("issue stale token: %v", err)
	}

	writes := store.putStateCalls
	_, err = svc.ChooseEvent(ctx, "p1", stale, explore.Presentation.Choices[0].ID)
	if apperrors.CodeOf(err) != apperrors.CodeEventTokenMismatch {
		t.Fatalf("expected EVENT_TOKEN_MISMATCH, got %v", err)
	}
	if store.putStateCalls != writes {
		t.Fatal("stale token must not mutate stored state")
	}

	st, _ := store.GetRaidState(ctx, "p1")
	if st.Context.EventChain == nil || st.Context.EventChain.EventID != explore.Presentation.EventID {
		t.Fatalf("chain mutated by stale token: %+v", st.Context.EventChain)
	}
}

func TestChooseForeignPlayerTokenFails(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedRaid(t, store, "p1", nil)

	explore, err := svc.ExploreEvent(ctx, "p1")
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	foreign, _, err := token.Issue(svc.tokens, "p2", explore.Presentation.EventID)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}
	_, err = svc.ChooseEvent(ctx, "p1", foreign, explore.Presentation.Choices[0].ID)
	if apperrors.CodeOf(err) != apperrors.CodeEventTokenMismatch {
		t.Fatalf("expected EVENT_TOKEN_MISMATCH, got %v", err)
	}
}

func TestTakeLootGuards(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedRaid(t, store, "p1", nil)
	if _, err := svc.TakeLoot(ctx, "p1", LootTake); apperrors.CodeOf(err) != apperrors.CodeNoEncounter {
		t.Fatalf("expected NO_ENCOUNTER, got %v", err)
	}

	seedRaid(t, store, "p2", zombieAt(10))
	if _, err := svc.TakeLoot(ctx, "p2", LootTake); apperrors.CodeOf(err) != apperrors.CodeEncounterNotDead {
		t.Fatalf("expected ENCOUNTER_NOT_DEAD, got %v", err)
	}
	if _, err := svc.TakeLoot(ctx, "p2", "hoard"); apperrors.CodeOf(err) != apperrors.CodeInvalidLootAction {
		t.Fatalf("expected INVALID_LOOT_ACTION, got %v", err)
	}
}

func TestTakeLootMergesAndRemovesCorpse(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	dead := zombieAt(0)
	dead.HP = 0
	dead.Dead = true
	seedRaid(t, store, "p1", dead)

	res, err := svc.TakeLoot(ctx, "p1", LootTake)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(res.Stacks) == 0 && len(res.Gear) == 0 {
		t.Fatal("dead encounter must always yield something")
	}

	st, _ := store.GetRaidState(ctx, "p1")
	if st.Context.Encounter != nil {
		t.Fatal("corpse must be removed after looting")
	}
	for itemID, qty := range res.Stacks {
		if st.Bag.Qty(itemID) != qty {
			t.Fatalf("stack %s not merged: bag has %d, took %d", itemID, st.Bag.Qty(itemID), qty)
		}
	}
	for _, instanceID := range res.Gear {
		if !st.Bag.HasInstance(instanceID) {
			t.Fatalf("minted gear %s not in bag", instanceID)
		}
		if _, err := store.GetInstance(ctx, instanceID); err != nil {
			t.Fatalf("minted gear %s not persisted: %v", instanceID, err)
		}
	}
}

func TestSkipLootMintsNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	dead := zombieAt(0)
	dead.Dead = true
	seedRaid(t, store, "p1", dead)

	res, err := svc.TakeLoot(ctx, "p1", LootSkip)
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if len(res.Stacks) != 0 || len(res.Gear) != 0 {
		t.Fatalf("skip must not grant loot: %+v", res)
	}
	st, _ := store.GetRaidState(ctx, "p1")
	if st.Context.Encounter != nil {
		t.Fatal("corpse must be removed after skipping")
	}
	if len(st.Bag.Instances) != 0 {
		t.Fatal("skip must not mint instances")
	}
}

func TestEquipValidation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Equip(ctx, "p1", "backpack", "inst-1"); apperrors.CodeOf(err) != apperrors.CodeInvalidSlot {
		t.Fatalf("expected INVALID_SLOT, got %v", err)
	}
	if err := svc.Equip(ctx, "p1", "melee", "inst-ghost"); apperrors.CodeOf(err) != apperrors.CodeInstanceNotFound {
		t.Fatalf("expected INSTANCE_NOT_FOUND, got %v", err)
	}

	knife := item.Instance{InstanceID: "inst-knife", ItemID: item.IDRustyKnife, Durability: 5, DurabilityMax: 8}
	if err := store.InsertInstance(ctx, "p1", storage.LocationStash, &knife); err != nil {
		t.Fatal(err)
	}
	if err := svc.Equip(ctx, "p1", "armor", "inst-knife"); apperrors.CodeOf(err) != apperrors.CodeSlotTypeMismatch {
		t.Fatalf("expected SLOT_TYPE_MISMATCH, got %v", err)
	}
	if err := svc.Equip(ctx, "p2", "melee", "inst-knife"); apperrors.CodeOf(err) != apperrors.CodeInstanceNotFound {
		t.Fatalf("foreign instance must read as missing, got %v", err)
	}

	// Idle players equip from the stash only.
	raidKnife := item.Instance{InstanceID: "inst-raid-knife", ItemID: item.IDRustyKnife, Durability: 5, DurabilityMax: 8}
	if err := store.InsertInstance(ctx, "p1", storage.LocationRaid, &raidKnife); err != nil {
		t.Fatal(err)
	}
	if err := svc.Equip(ctx, "p1", "melee", "inst-raid-knife"); apperrors.CodeOf(err) != apperrors.CodeNotOwnedInStash {
		t.Fatalf("expected NOT_OWNED_IN_STASH, got %v", err)
	}

	if err := svc.Equip(ctx, "p1", "melee", "inst-knife"); err != nil {
		t.Fatalf("valid equip failed: %v", err)
	}
	loadout, err := store.GetLoadout(ctx, "p1")
	if err != nil || loadout.Melee != "inst-knife" {
		t.Fatalf("loadout not written: %+v %v", loadout, err)
	}

	if err := svc.Equip(ctx, "p1", "melee", ""); err != nil {
		t.Fatalf("clearing slot failed: %v", err)
	}
	loadout, _ = store.GetLoadout(ctx, "p1")
	if loadout.Melee != "" {
		t.Fatalf("slot not cleared: %+v", loadout)
	}
}

func TestStarterGrantIsOneShot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	res, err := svc.StarterGrant(ctx, "p1")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if res.Stones < 1 || res.Stones > 3 {
		t.Fatalf("stones out of band: %d", res.Stones)
	}
	if qty, _ := store.StashQty(ctx, "p1", item.IDStone); qty != res.Stones {
		t.Fatalf("stones not stashed: %d != %d", qty, res.Stones)
	}
	rec, err := store.GetInstance(ctx, res.MeleeInstance)
	if err != nil || rec.Location != storage.LocationStash {
		t.Fatalf("starter melee not stashed: %+v %v", rec, err)
	}

	if _, err := svc.StarterGrant(ctx, "p1"); apperrors.CodeOf(err) != apperrors.CodeStarterAlreadyGranted {
		t.Fatalf("expected STARTER_ALREADY_GRANTED, got %v", err)
	}
}

func TestNextEncounterRetention(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// A live encounter is reused.
	seedRaid(t, store, "p1", zombieAt(10))
	res, err := svc.NextEncounter(ctx, "p1")
	if err != nil || !res.Reused || res.Encounter.HP != 10 {
		t.Fatalf("live encounter not reused: %+v %v", res, err)
	}

	// A dead encounter is kept and repaired until its loot is claimed.
	dead := zombieAt(0)
	dead.Dead = true
	seedRaid(t, store, "p2", dead)
	res, err = svc.NextEncounter(ctx, "p2")
	if err != nil || !res.Reused {
		t.Fatalf("dead encounter not kept: %+v %v", res, err)
	}
	if !res.Encounter.LootIsPending() {
		t.Fatal("kept corpse must have pending loot")
	}

	// No encounter spawns a fresh one.
	seedRaid(t, store, "p3", nil)
	res, err = svc.NextEncounter(ctx, "p3")
	if err != nil || res.Reused || res.Encounter == nil {
		t.Fatalf("expected fresh spawn: %+v %v", res, err)
	}
	st, _ := store.GetRaidState(ctx, "p3")
	if st.Context.Encounter == nil {
		t.Fatal("spawn not persisted")
	}
}

func TestStateRepairsDeadEncounter(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	dead := zombieAt(0)
	dead.Dead = true
	seedRaid(t, store, "p1", dead)

	snap, err := svc.State(ctx, "p1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !snap.Context.Encounter.LootIsPending() {
		t.Fatal("snapshot must repair pending loot")
	}
	st, _ := store.GetRaidState(ctx, "p1")
	if !st.Context.Encounter.LootIsPending() {
		t.Fatal("repair must be persisted")
	}
}

func TestStateForUnknownPlayerIsIdle(t *testing.T) {
	svc, _ := newTestService(t)
	snap, err := svc.State(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if snap.Status != state.StatusIdle || snap.EventActive {
		t.Fatalf("expected idle snapshot, got %+v", snap)
	}
}
