package combat

import (
	"github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
)

// IncomingResult reports one resolved hit against the player.
type IncomingResult struct {
	RawDamage      int
	FinalDamage    int
	Mitigated      int
	DurabilityLoss int
	ArmorBroken    bool
}

// maxArmorWearPerHit caps how much durability one hit can strip.
const maxArmorWearPerHit = 3

// ApplyIncomingHit mitigates raw incoming damage through the player's
// equipped armor instance, if any. The armor loses durability scaled by the
// raw damage; once broken it mitigates nothing and the caller must remove
// it. armor may be nil for an unarmored player.
func ApplyIncomingHit(catalog item.Catalog, raw int, armor *item.Instance) (IncomingResult, error) {
	if raw < 0 {
		return IncomingResult{}, errors.New(errors.CodeInvalidDamage, "incoming damage must not be negative")
	}

	res := IncomingResult{RawDamage: raw, FinalDamage: raw}
	if armor == nil || armor.Broken() {
		return res, nil
	}

	def := 0
	if it, ok := catalog.Item(armor.ItemID); ok {
		def = int(it.Attr("def", 0))
	}

	final := raw - def
	if final < 0 {
		final = 0
	}
	res.FinalDamage = final
	res.Mitigated = raw - final

	loss := 1 + raw/15
	if loss > maxArmorWearPerHit {
		loss = maxArmorWearPerHit
	}
	res.DurabilityLoss = loss
	armor.Durability -= loss
	if armor.Broken() {
		armor.Durability = 0
		res.ArmorBroken = true
	}
	return res, nil
}
