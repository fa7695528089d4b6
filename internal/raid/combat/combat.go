// Package combat resolves player attacks against the active encounter and
// incoming hits against the player.
package combat

import (
	"fmt"
	"math/rand"

	"github.com/louisbranch/extraction.zone/internal/core/roll"
	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/bag"
	"github.com/louisbranch/extraction.zone/internal/raid/encounter"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
)

// Kind selects the attack resolution path.
type Kind string

const (
	KindMelee Kind = "melee"
	KindGun   Kind = "gun"
	KindThrow Kind = "throw"
)

// ParseKind validates a wire attack kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindMelee, KindGun, KindThrow:
		return Kind(value), nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeInvalidAttackKind,
		"unknown attack kind", map[string]string{"kind": value})
}

// Arsenal is the player's mutable combat inventory view. The service builds
// it from stored state before an attack and persists whatever changed after.
type Arsenal struct {
	Bag       *bag.Bag
	Pouch     map[string]int
	Instances map[string]*item.Instance // raid-carried instances by id
}

// carriedInstance finds a carried instance of the given catalog item.
func (a *Arsenal) carriedInstance(itemID string) *item.Instance {
	if a.Bag == nil {
		return nil
	}
	for _, id := range a.Bag.Instances {
		inst := a.Instances[id]
		if inst != nil && inst.ItemID == itemID {
			return inst
		}
	}
	return nil
}

// firstCarriedGun finds any carried gun instance.
func (a *Arsenal) firstCarriedGun(catalog item.Catalog) *item.Instance {
	if a.Bag == nil {
		return nil
	}
	for _, id := range a.Bag.Instances {
		inst := a.Instances[id]
		if inst == nil {
			continue
		}
		if it, ok := catalog.Item(inst.ItemID); ok && it.Category == item.CategoryGun {
			return inst
		}
	}
	return nil
}

// Result reports one resolved attack.
type Result struct {
	Kind             Kind
	Damage           int
	Missed           bool
	Killed           bool
	AlreadyDead      bool
	HPBefore         int
	HPAfter          int
	NoiseDelta       int
	ConsumedFrom      string // throws: "pouch" or "bag"
	BrokenInstanceID  string // instance that broke during this attack
	InstanceDestroyed bool   // the broken instance was removed from the bag
	Log               []string
}

// throwProfile tunes a throwable's miss chance, damage band, and noise.
type throwProfile struct {
	missChance int
	dmgMin     int
	dmgMax     int
	noise      int
}

var throwProfiles = map[string]throwProfile{
	item.IDStone:   {missChance: 35, dmgMin: 1, dmgMax: 3, noise: 1},
	item.IDGrenade: {missChance: 15, dmgMin: 10, dmgMax: 16, noise: 3},
	item.IDIED:     {missChance: 10, dmgMin: 18, dmgMax: 26, noise: 5},
}

var defaultThrowProfile = throwProfile{missChance: 30, dmgMin: 1, dmgMax: 4, noise: 1}

// Default damage bands when an item carries no damage attributes.
const (
	bareHandMin = 3
	bareHandMax = 7
	gunBaseDmg  = 18
	meleeDmg    = 7
)

// gunWearChance is the per-shot probability of losing one durability.
const gunWearChance = 15

// Attack resolves one player attack. The encounter and arsenal are mutated
// in place; the caller persists them. Attacking an already-dead encounter
// deals no damage and instead repairs the loot-pending state, making the
// call idempotent.
func Attack(rng *rand.Rand, catalog item.Catalog, enc *encounter.Encounter, ars *Arsenal, kind Kind, itemID string) (Result, error) {
	if enc == nil {
		return Result{}, apperrors.New(apperrors.CodeNoEncounter, "no active encounter")
	}

	if enc.Dead || enc.HP <= 0 {
		enc.EnsureLootPending(rng, catalog)
		return Result{
			Kind:        kind,
			AlreadyDead: true,
			HPBefore:    enc.HP,
			HPAfter:     enc.HP,
			Log:         []string{"enemy_dead", "loot_pending"},
		}, nil
	}

	switch kind {
	case KindMelee:
		return attackMelee(rng, catalog, enc, ars, itemID)
	case KindGun:
		return attackGun(rng, catalog, enc, ars, itemID)
	case KindThrow:
		return attackThrow(rng, catalog, enc, ars, itemID)
	}
	return Result{}, apperrors.WithMetadata(apperrors.CodeInvalidAttackKind,
		"unknown attack kind", map[string]string{"kind": string(kind)})
}

func attackMelee(rng *rand.Rand, catalog item.Catalog, enc *encounter.Encounter, ars *Arsenal, itemID string) (Result, error) {
	res := Result{Kind: KindMelee}

	if itemID == "" {
		dmg := roll.Between(rng, bareHandMin, bareHandMax)
		res.Log = append(res.Log, fmt.Sprintf("MELEE barehand dmg=%d", dmg))
		applyDamage(rng, catalog, enc, dmg, &res)
		return res, nil
	}

	it, ok := catalog.Item(itemID)
	if !ok {
		return Result{}, apperrors.WithMetadata(apperrors.CodeItemNotFound,
			"unknown item", map[string]string{"item_id": itemID})
	}
	if it.Category != item.CategoryMelee {
		return Result{}, apperrors.WithMetadata(apperrors.CodeInvalidAttackKind,
			"item is not a melee weapon", map[string]string{"item_id": itemID})
	}
	inst := ars.carriedInstance(itemID)
	if inst == nil {
		return Result{}, apperrors.WithMetadata(apperrors.CodeInstanceNotFound,
			"melee weapon not carried", map[string]string{"item_id": itemID})
	}

	dmg := damageFromAttrs(rng, it, meleeDmg, meleeDmg)
	res.Log = append(res.Log, fmt.Sprintf("MELEE %s dmg=%d", itemID, dmg))

	// Melee gear wears with every swing and shatters at zero. Unlike a
	// broken gun, a shattered weapon is gone for good.
	inst.Durability--
	if inst.Broken() {
		ars.Bag.RemoveInstance(inst.InstanceID)
		delete(ars.Instances, inst.InstanceID)
		res.BrokenInstanceID = inst.InstanceID
		res.InstanceDestroyed = true
		res.Log = append(res.Log, fmt.Sprintf("broken %s", itemID))
	}

	applyDamage(rng, catalog, enc, dmg, &res)
	return res, nil
}

func attackGun(rng *rand.Rand, catalog item.Catalog, enc *encounter.Encounter, ars *Arsenal, itemID string) (Result, error) {
	res := Result{Kind: KindGun}

	var inst *item.Instance
	if itemID == "" {
		inst = ars.firstCarriedGun(catalog)
	} else {
		inst = ars.carriedInstance(itemID)
	}
	if inst == nil {
		return Result{}, apperrors.WithMetadata(apperrors.CodeInstanceNotFound,
			"no gun carried", map[string]string{"item_id": itemID})
	}
	it, ok := catalog.Item(inst.ItemID)
	if !ok || it.Category != item.CategoryGun {
		return Result{}, apperrors.WithMetadata(apperrors.CodeInvalidAttackKind,
			"item is not a gun", map[string]string{"item_id": inst.ItemID})
	}

	if inst.Broken() {
		return Result{}, apperrors.WithMetadata(apperrors.CodeGunBroken,
			"gun durability exhausted", map[string]string{"instance_id": inst.InstanceID})
	}
	if inst.AmmoInMag <= 0 {
		return Result{}, apperrors.WithMetadata(apperrors.CodeNoAmmo,
			"magazine is empty", map[string]string{"instance_id": inst.InstanceID})
	}

	base := damageFromAttrs(rng, it, gunBaseDmg, gunBaseDmg)
	mul := 1.0
	if inst.LoadedAmmo != "" {
		if ammoItem, ok := catalog.Item(inst.LoadedAmmo); ok {
			mul = ammoItem.Attr("dmg_mul", 1.0)
		}
	}
	dmg := int(float64(base) * mul)
	if dmg < 1 {
		dmg = 1
	}

	inst.AmmoInMag--
	if inst.AmmoInMag == 0 {
		inst.LoadedAmmo = ""
	}
	res.Log = append(res.Log, fmt.Sprintf("GUN dmg=%d ammo_left=%d", dmg, inst.AmmoInMag))

	if roll.Percent(rng, gunWearChance) {
		inst.Durability--
		if inst.Broken() {
			// A broken gun stays in the bag; it just refuses to fire.
			res.BrokenInstanceID = inst.InstanceID
			res.Log = append(res.Log, "gun_broken")
		}
	}

	applyDamage(rng, catalog, enc, dmg, &res)
	return res, nil
}

func attackThrow(rng *rand.Rand, catalog item.Catalog, enc *encounter.Encounter, ars *Arsenal, itemID string) (Result, error) {
	if itemID == "" {
		return Result{}, apperrors.New(apperrors.CodeItemIDRequired, "throw requires an item id")
	}
	it, ok := catalog.Item(itemID)
	if !ok {
		return Result{}, apperrors.WithMetadata(apperrors.CodeItemNotFound,
			"unknown item", map[string]string{"item_id": itemID})
	}
	if !it.Throwable() {
		return Result{}, apperrors.WithMetadata(apperrors.CodeNoThrowItem,
			"item is not throwable", map[string]string{"item_id": itemID})
	}

	res := Result{Kind: KindThrow}

	// The pouch is spent before the bag.
	switch {
	case ars.Pouch[itemID] > 0:
		ars.Pouch[itemID]--
		if ars.Pouch[itemID] == 0 {
			delete(ars.Pouch, itemID)
		}
		res.ConsumedFrom = "pouch"
	case ars.Bag != nil && ars.Bag.Remove(itemID, 1):
		res.ConsumedFrom = "bag"
	default:
		return Result{}, apperrors.WithMetadata(apperrors.CodeNoThrowItem,
			"no throwable available", map[string]string{"item_id": itemID})
	}

	profile, ok := throwProfiles[itemID]
	if !ok {
		profile = defaultThrowProfile
	}
	res.NoiseDelta = profile.noise

	if roll.Percent(rng, profile.missChance) {
		res.Missed = true
		res.HPBefore = enc.HP
		res.HPAfter = enc.HP
		res.Log = append(res.Log, fmt.Sprintf("THROW %s missed", itemID))
		return res, nil
	}

	dmg := roll.Between(rng, profile.dmgMin, profile.dmgMax)
	res.Log = append(res.Log, fmt.Sprintf("THROW %s dmg=%d", itemID, dmg))
	applyDamage(rng, catalog, enc, dmg, &res)
	return res, nil
}

// applyDamage subtracts dmg from the encounter, flooring at zero, and
// transitions a lethal hit into the loot-pending state.
func applyDamage(rng *rand.Rand, catalog item.Catalog, enc *encounter.Encounter, dmg int, res *Result) {
	res.Damage = dmg
	res.HPBefore = enc.HP

	hp := enc.HP - dmg
	if hp < 0 {
		hp = 0
	}
	enc.HP = hp
	res.HPAfter = hp
	res.Log = append(res.Log, fmt.Sprintf("enemy_hp %d -> %d", res.HPBefore, hp))

	if hp <= 0 {
		res.Killed = true
		enc.EnsureLootPending(rng, catalog)
		res.Log = append(res.Log, "enemy_dead", "loot_pending")
	}
}

// damageFromAttrs resolves an item's damage. Single-value attributes win,
// then min/max attribute pairs rolled uniformly, then the fallback band.
func damageFromAttrs(rng *rand.Rand, it item.Item, fallbackMin, fallbackMax int) int {
	for _, name := range []string{"dmg", "damage", "atk", "power"} {
		if it.HasAttr(name) {
			return int(it.Attr(name, 0))
		}
	}
	pairs := [][2]string{
		{"min_dmg", "max_dmg"},
		{"dmg_min", "dmg_max"},
		{"min_damage", "max_damage"},
	}
	for _, pair := range pairs {
		if it.HasAttr(pair[0]) && it.HasAttr(pair[1]) {
			return roll.Between(rng, int(it.Attr(pair[0], 0)), int(it.Attr(pair[1], 0)))
		}
	}
	return roll.Between(rng, fallbackMin, fallbackMax)
}
