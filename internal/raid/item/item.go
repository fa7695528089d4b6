// Package item defines the item catalog and durable item instances.
package item

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/louisbranch/extraction.zone/internal/core/roll"
)

// Category classifies catalog items.
type Category string

const (
	CategoryMelee     Category = "melee"
	CategoryGun       Category = "gun"
	CategoryArmor     Category = "armor"
	CategoryAmmo      Category = "ammo"
	CategoryThrowable Category = "throwable"
	CategoryMedical   Category = "medical"
	CategoryMaterial  Category = "material"
)

// Item is a catalog entry. Attrs carries numeric tuning values such as
// dmg, def, dmg_mul, durability_min, and durability_max.
type Item struct {
	ID       string
	Name     string
	Category Category
	Rarity   string
	Tier     int
	AmmoType string // guns: the caliber they feed; ammo: the caliber it is
	MagSize  int    // guns only
	Attrs    map[string]float64
}

// Attr returns a numeric attribute or the fallback when unset.
func (i Item) Attr(name string, fallback float64) float64 {
	if v, ok := i.Attrs[name]; ok {
		return v
	}
	return fallback
}

// HasAttr reports whether the attribute is present.
func (i Item) HasAttr(name string) bool {
	_, ok := i.Attrs[name]
	return ok
}

// Durable reports whether the item is tracked per-instance with durability.
func (i Item) Durable() bool {
	switch i.Category {
	case CategoryMelee, CategoryGun, CategoryArmor:
		return true
	}
	return false
}

// Stackable reports whether the item is tracked as a quantity stack.
func (i Item) Stackable() bool {
	return !i.Durable()
}

// Throwable reports whether the item can be thrown at an encounter.
func (i Item) Throwable() bool {
	if i.Category == CategoryThrowable {
		return true
	}
	return i.Attr("throwable", 0) > 0
}

// Catalog resolves item ids to catalog entries.
type Catalog interface {
	Item(id string) (Item, bool)
}

// MapCatalog is an in-memory Catalog keyed by item id.
type MapCatalog map[string]Item

// Item implements Catalog.
func (c MapCatalog) Item(id string) (Item, bool) {
	it, ok := c[id]
	return it, ok
}

// NewMapCatalog builds a MapCatalog from a list of items.
func NewMapCatalog(items []Item) MapCatalog {
	c := make(MapCatalog, len(items))
	for _, it := range items {
		c[it.ID] = it
	}
	return c
}

// instanceFloor is the lowest durability a fresh instance may carry per tier.
var instanceFloor = map[int]int{1: 3, 2: 8, 3: 15, 4: 25, 5: 40}

// lootFloor seeds the rolled durability range for looted gear per tier.
var lootFloor = map[int]int{1: 8, 2: 16, 3: 24, 4: 34, 5: 46}

// clampTier keeps tiers inside the supported 1..5 band.
func clampTier(tier int) int {
	if tier < 1 {
		return 1
	}
	if tier > 5 {
		return 5
	}
	return tier
}

// MinDurability returns the guaranteed durability floor for a tier.
func MinDurability(tier int) int {
	return instanceFloor[clampTier(tier)]
}

// RollDurability rolls the durability for a freshly looted durable item.
// Items may pin the range with durability_min/durability_max attrs;
// otherwise the tier floor applies with a tier-scaled spread.
func RollDurability(rng *rand.Rand, it Item) int {
	tier := clampTier(it.Tier)
	min := lootFloor[tier]
	if it.HasAttr("durability_min") {
		min = int(it.Attr("durability_min", float64(min)))
	}
	max := min + maxInt(6, tier*6)
	if it.HasAttr("durability_max") {
		max = int(it.Attr("durability_max", float64(max)))
	}
	if max < min {
		max = min
	}
	d := roll.Between(rng, min, max)
	if floor := MinDurability(tier); d < floor {
		d = floor
	}
	return d
}

// Instance is one durable copy of a catalog item.
type Instance struct {
	InstanceID    string
	ItemID        string
	Durability    int
	DurabilityMax int
	AmmoType      string // guns: caliber fed
	LoadedAmmo    string // guns: catalog id of the rounds in the magazine
	AmmoInMag     int
	MagSize       int
}

// Broken reports whether the instance has no durability left.
func (n Instance) Broken() bool {
	return n.Durability <= 0
}

// defaultMagSize applies when a gun omits its magazine capacity.
const defaultMagSize = 30

// NewInstance mints a durable instance with rolled durability. Guns get
// their caliber and magazine copied from the catalog entry; ammoInMag is
// clamped into [0, magSize].
func NewInstance(rng *rand.Rand, it Item, ammoInMag int) Instance {
	inst := Instance{
		InstanceID: uuid.NewString(),
		ItemID:     it.ID,
	}
	inst.Durability = RollDurability(rng, it)
	inst.DurabilityMax = inst.Durability

	if it.Category == CategoryGun {
		inst.AmmoType = it.AmmoType
		inst.MagSize = it.MagSize
		if inst.MagSize <= 0 {
			inst.MagSize = defaultMagSize
		}
		if ammoInMag < 0 {
			ammoInMag = 0
		}
		if ammoInMag > inst.MagSize {
			ammoInMag = inst.MagSize
		}
		inst.AmmoInMag = ammoInMag
		if inst.AmmoInMag > 0 {
			// Scavenged rounds are baseline grade until reloaded.
			inst.LoadedAmmo = AmmoTierID(1)
		}
	}
	return inst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
