package item

import "fmt"

// Well-known item ids referenced by the combat, loot, and event engines.
const (
	IDStone   = "thr_stone"
	IDGrenade = "thr_grenade"
	IDIED     = "thr_ied"

	IDFragileStick = "melee_fragile_stick"
	IDRustyKnife   = "melee_rusty_knife"
	IDScrapKnife   = "melee_scrap_knife"
	IDPrybar       = "melee_prybar"
	IDPipeWrench   = "melee_pipe_wrench"
	IDBat          = "melee_bat"
	IDMachete      = "melee_machete"
	IDKukri        = "melee_kukri"
	IDCombatAxe    = "melee_combat_axe"

	IDPistol = "gun_9mm_pistol_t1"
	IDSMG    = "gun_9mm_smg_t2"

	IDBandage = "med_bandage_t1"
)

// AmmoTierID returns the 9mm ammo id for a tier.
func AmmoTierID(tier int) string {
	return fmt.Sprintf("ammo_9mm_t%d", clampTier(tier))
}

// ArmorTierID returns the body armor id for a tier.
func ArmorTierID(tier int) string {
	tier = clampTier(tier)
	if tier >= 4 {
		return fmt.Sprintf("armor_t%d_plate", tier)
	}
	return fmt.Sprintf("armor_t%d_vest", tier)
}

// Defaults returns the built-in item catalog. The seed command loads these
// into storage; tests use them directly via NewMapCatalog.
func Defaults() []Item {
	return []Item{
		{ID: IDStone, Name: "Stone", Category: CategoryThrowable, Rarity: "common", Tier: 1},
		{ID: IDGrenade, Name: "Frag Grenade", Category: CategoryThrowable, Rarity: "rare", Tier: 3},
		{ID: IDIED, Name: "IED", Category: CategoryThrowable, Rarity: "epic", Tier: 4},

		{ID: AmmoTierID(1), Name: "9mm FMJ", Category: CategoryAmmo, Rarity: "common", Tier: 1, AmmoType: "9mm", Attrs: map[string]float64{"dmg_mul": 1.0}},
		{ID: AmmoTierID(2), Name: "9mm JHP", Category: CategoryAmmo, Rarity: "common", Tier: 2, AmmoType: "9mm", Attrs: map[string]float64{"dmg_mul": 1.1}},
		{ID: AmmoTierID(3), Name: "9mm +P", Category: CategoryAmmo, Rarity: "uncommon", Tier: 3, AmmoType: "9mm", Attrs: map[string]float64{"dmg_mul": 1.25}},
		{ID: AmmoTierID(4), Name: "9mm AP", Category: CategoryAmmo, Rarity: "rare", Tier: 4, AmmoType: "9mm", Attrs: map[string]float64{"dmg_mul": 1.4}},
		{ID: AmmoTierID(5), Name: "9mm Match AP", Category: CategoryAmmo, Rarity: "epic", Tier: 5, AmmoType: "9mm", Attrs: map[string]float64{"dmg_mul": 1.6}},

		{ID: IDFragileStick, Name: "Fragile Stick", Category: CategoryMelee, Rarity: "junk", Tier: 1, Attrs: map[string]float64{"dmg": 4, "durability_min": 2, "durability_max": 5}},
		{ID: IDRustyKnife, Name: "Rusty Knife", Category: CategoryMelee, Rarity: "common", Tier: 1, Attrs: map[string]float64{"dmg": 6, "durability_min": 5, "durability_max": 9}},
		{ID: IDScrapKnife, Name: "Scrap Knife", Category: CategoryMelee, Rarity: "common", Tier: 1, Attrs: map[string]float64{"dmg": 7}},
		{ID: IDPrybar, Name: "Prybar", Category: CategoryMelee, Rarity: "uncommon", Tier: 2, Attrs: map[string]float64{"dmg": 8}},
		{ID: IDPipeWrench, Name: "Pipe Wrench", Category: CategoryMelee, Rarity: "uncommon", Tier: 2, Attrs: map[string]float64{"dmg": 9}},
		{ID: IDBat, Name: "Nailed Bat", Category: CategoryMelee, Rarity: "uncommon", Tier: 2, Attrs: map[string]float64{"dmg": 8}},
		{ID: IDMachete, Name: "Machete", Category: CategoryMelee, Rarity: "rare", Tier: 3, Attrs: map[string]float64{"dmg": 11}},
		{ID: IDKukri, Name: "Kukri", Category: CategoryMelee, Rarity: "rare", Tier: 3, Attrs: map[string]float64{"dmg": 12}},
		{ID: IDCombatAxe, Name: "Combat Axe", Category: CategoryMelee, Rarity: "epic", Tier: 4, Attrs: map[string]float64{"dmg": 14}},

		{ID: IDPistol, Name: "9mm Pistol", Category: CategoryGun, Rarity: "common", Tier: 1, AmmoType: "9mm", MagSize: 12, Attrs: map[string]float64{"dmg": 14}},
		{ID: IDSMG, Name: "9mm SMG", Category: CategoryGun, Rarity: "uncommon", Tier: 2, AmmoType: "9mm", MagSize: 30, Attrs: map[string]float64{"dmg": 11}},

		{ID: ArmorTierID(1), Name: "Padded Vest", Category: CategoryArmor, Rarity: "common", Tier: 1, Attrs: map[string]float64{"def": 2}},
		{ID: ArmorTierID(2), Name: "Kevlar Vest", Category: CategoryArmor, Rarity: "uncommon", Tier: 2, Attrs: map[string]float64{"def": 4}},
		{ID: ArmorTierID(3), Name: "Tactical Vest", Category: CategoryArmor, Rarity: "rare", Tier: 3, Attrs: map[string]float64{"def": 6}},
		{ID: ArmorTierID(4), Name: "Ceramic Plate Carrier", Category: CategoryArmor, Rarity: "epic", Tier: 4, Attrs: map[string]float64{"def": 9}},
		{ID: ArmorTierID(5), Name: "Composite Plate Carrier", Category: CategoryArmor, Rarity: "legendary", Tier: 5, Attrs: map[string]float64{"def": 12}},

		{ID: IDBandage, Name: "Bandage", Category: CategoryMedical, Rarity: "common", Tier: 1, Attrs: map[string]float64{"heal": 15}},
	}
}
