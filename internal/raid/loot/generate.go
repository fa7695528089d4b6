package loot

import (
	"math/rand"

	"github.com/louisbranch/extraction.zone/internal/core/roll"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
)

// Faction ids as stored on encounters. Kept as strings here so the loot
// tables stay decoupled from the encounter model.
const (
	FactionZombie = "zombie"
	FactionScav   = "scav"
	FactionPMC    = "pmc"
)

// Generate rolls a drop bundle for a dead encounter of the given faction
// and loot tier. Each category (stones, ammo, melee, armor, gun) is an
// independent trial; a faction/tier combination where every trial fails
// still yields one stone so a kill is never worthless.
func Generate(rng *rand.Rand, catalog item.Catalog, faction string, tier int) Bundle {
	if tier < 1 {
		tier = 1
	}
	if tier > 5 {
		tier = 5
	}

	var b Bundle
	rollStones(rng, catalog, faction, tier, &b)
	rollAmmo(rng, catalog, faction, tier, &b)
	rollMelee(rng, catalog, faction, tier, &b)
	rollArmor(rng, catalog, faction, tier, &b)
	rollGun(rng, catalog, faction, tier, &b)

	if b.Empty() {
		b.Add(item.IDStone, 1)
	}
	return b
}

func rollStones(rng *rand.Rand, catalog item.Catalog, faction string, tier int, b *Bundle) {
	chance := 18
	if faction == FactionZombie {
		chance = 35
	}
	if tier >= 4 {
		chance = 10
	}
	if !roll.Percent(rng, chance) {
		return
	}
	qty := 1
	if faction == FactionZombie {
		qty = roll.Between(rng, 1, 2)
	}
	addStack(catalog, b, item.IDStone, qty)
}

func rollAmmo(rng *rand.Rand, catalog item.Catalog, faction string, tier int, b *Bundle) {
	var chance int
	switch faction {
	case FactionZombie:
		chance = 10 + 3*tier
	case FactionScav:
		chance = 35 + 5*tier
	case FactionPMC:
		chance = 65 + 4*tier
	}
	if chance > 92 {
		chance = 92
	}
	if !roll.Percent(rng, chance) {
		return
	}

	weights := []int{40 - 6*tier, 28 - 3*tier, 18 + 2*tier, 8 + 3*tier, 2 + 2*tier}
	if faction == FactionZombie {
		// Zombies rarely chew on match-grade rounds.
		weights[3] = weights[3] * 35 / 100
		weights[4] = weights[4] * 35 / 100
	}
	idx := roll.WeightedPick(rng, weights)
	if idx < 0 {
		return
	}

	var qty int
	switch faction {
	case FactionPMC:
		qty = roll.Between(rng, 12, 28)
	case FactionScav:
		qty = roll.Between(rng, 6, 16)
	default:
		qty = roll.Between(rng, 3, 10)
	}
	addStack(catalog, b, item.AmmoTierID(idx+1), qty)
}

func rollMelee(rng *rand.Rand, catalog item.Catalog, faction string, tier int, b *Bundle) {
	var chance int
	switch faction {
	case FactionZombie:
		chance = 28
	case FactionScav:
		chance = 45
	case FactionPMC:
		chance = 32
	}
	if tier >= 4 {
		chance -= 8
	}
	if !roll.Percent(rng, chance) {
		return
	}

	zombie := faction == FactionZombie
	pmc := faction == FactionPMC
	pool := []string{
		item.IDFragileStick, item.IDRustyKnife, item.IDScrapKnife,
		item.IDPrybar, item.IDPipeWrench, item.IDBat,
		item.IDMachete, item.IDKukri, item.IDCombatAxe,
	}
	weights := []int{
		pick(zombie, 26, 4),
		14,
		12,
		pick(!zombie, 10, 3),
		pick(!zombie, 8, 2),
		pick(pmc, 6, 2),
		pick(pmc, 6, 1),
		pick(pmc, 6, 1),
		pick(pmc, 4, 0),
	}
	idx := roll.WeightedPick(rng, weights)
	if idx < 0 {
		return
	}
	addGear(catalog, b, GearDrop{ItemID: pool[idx]})
}

func rollArmor(rng *rand.Rand, catalog item.Catalog, faction string, tier int, b *Bundle) {
	var chance int
	switch faction {
	case FactionPMC:
		chance = 40 + 5*tier
	case FactionScav:
		chance = 10 + 3*tier
	default:
		return
	}
	if chance > 75 {
		chance = 75
	}
	if !roll.Percent(rng, chance) {
		return
	}

	weights := []int{26 - 4*tier, 18 - 2*tier, 10 + 2*tier, 6 + 2*tier, 3 + 2*tier}
	if faction == FactionScav {
		weights[3] = weights[3] * 25 / 100
		weights[4] = weights[4] * 25 / 100
	}
	idx := roll.WeightedPick(rng, weights)
	if idx < 0 {
		return
	}
	addGear(catalog, b, GearDrop{ItemID: item.ArmorTierID(idx + 1)})
}

func rollGun(rng *rand.Rand, catalog item.Catalog, faction string, tier int, b *Bundle) {
	var chance int
	switch faction {
	case FactionPMC:
		chance = 45 + 4*tier
	case FactionScav:
		chance = 10 + 2*tier
	default:
		return
	}
	if chance > 80 {
		chance = 80
	}
	if !roll.Percent(rng, chance) {
		return
	}

	pmc := faction == FactionPMC
	pool := []string{item.IDPistol, item.IDSMG}
	weights := []int{pick(pmc, 10, 18), pick(pmc, 12, 2)}
	idx := roll.WeightedPick(rng, weights)
	if idx < 0 {
		return
	}

	ammo := roll.Between(rng, 0, 7)
	if pmc {
		ammo = roll.Between(rng, 5, 15)
	}
	addGear(catalog, b, GearDrop{ItemID: pool[idx], AmmoInMag: ammo})
}

// addStack validates the item id against the catalog before adding.
func addStack(catalog item.Catalog, b *Bundle, itemID string, qty int) {
	it, ok := catalog.Item(itemID)
	if !ok || !it.Stackable() {
		return
	}
	b.Add(itemID, qty)
}

// addGear validates the item id against the catalog before adding.
func addGear(catalog item.Catalog, b *Bundle, drop GearDrop) {
	it, ok := catalog.Item(drop.ItemID)
	if !ok || !it.Durable() {
		return
	}
	b.AddGear(drop)
}

func pick(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
