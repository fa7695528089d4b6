// Package event drives multi-step exploration encounters.
//
// Begin draws an event and hands the player its opening choices. Each
// Choose call advances the chain cursor until a branch terminates, at
// which point the meters decide whether something hostile shows up.
package event

import (
	"math/rand"

	"github.com/louisbranch/extraction.zone/internal/core/roll"
	"github.com/louisbranch/extraction.zone/internal/raid/encounter"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/loot"
)

// Event ids in the fixed catalog.
const (
	EventTripwire    = "tripwire"
	EventRustle      = "rustle"
	EventSmokeSignal = "smoke_signal"
	EventStashCache  = "stash_cache"
)

// Chain is the cursor of an in-progress event.
type Chain struct {
	EventID string         `json:"id"`
	Step    int            `json:"step"`
	Vars    map[string]int `json:"vars,omitempty"`
}

// Choice is one option offered to the player.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Presentation is what the client renders for a pending step.
type Presentation struct {
	EventID   string   `json:"event_id"`
	Title     string   `json:"title"`
	Narrative string   `json:"narrative"`
	Choices   []Choice `json:"choices,omitempty"`
}

// Outcome is the result of resolving one choice.
type Outcome struct {
	Presentation
	Terminal     bool
	Chain        *Chain // next cursor; nil when the chain ended
	Meta         Meta   // meters after deltas, clamped
	LootStacks   map[string]int
	LootGear     []loot.GearDrop
	SpawnFaction encounter.Faction // non-empty when something shows up
	Log          []string
}

func (o *Outcome) grantStack(itemID string, qty int) {
	if qty <= 0 {
		return
	}
	if o.LootStacks == nil {
		o.LootStacks = make(map[string]int)
	}
	o.LootStacks[itemID] += qty
}

func (o *Outcome) grantGear(drop loot.GearDrop) {
	o.LootGear = append(o.LootGear, drop)
}

// Begin draws an event for the current meters and returns its opening
// presentation plus the fresh chain cursor. Louder, hotter raids skew the
// draw toward the nastier events.
func Begin(rng *rand.Rand, meta Meta) (Presentation, Chain) {
	meta.Clamp()
	ids := []string{EventTripwire, EventRustle, EventSmokeSignal, EventStashCache}
	weights := []int{25 + meta.Threat, 30 + meta.Noise, 20, 25}
	idx := roll.WeightedPick(rng, weights)
	if idx < 0 {
		idx = 0
	}
	id := ids[idx]
	return opening(id), Chain{EventID: id, Step: 0}
}

// Choose resolves one choice against the active chain. Unknown events and
// unknown choices never wedge the chain: an unknown event terminates, and
// an unknown choice escalates toward the event's final step.
func Choose(rng *rand.Rand, chain Chain, meta Meta, choiceID string) Outcome {
	meta.Clamp()

	var out Outcome
	switch chain.EventID {
	case EventTripwire:
		out = resolveTripwire(rng, chain, meta, choiceID)
	case EventRustle:
		out = resolveRustle(rng, chain, meta, choiceID)
	case EventSmokeSignal:
		out = resolveSmokeSignal(rng, chain, meta, choiceID)
	case EventStashCache:
		out = resolveStashCache(rng, chain, meta, choiceID)
	default:
		out = genericTerminal(chain.EventID, meta)
	}

	if out.Terminal {
		out.Chain = nil
		finishChain(rng, &out)
	} else if out.Chain == nil {
		// Non-terminal outcomes must carry a cursor; treat a missing one
		// as a terminated chain rather than wedging the raid.
		out.Terminal = true
		finishChain(rng, &out)
	}
	out.Meta.Clamp()
	return out
}

// finishChain runs the end-of-chain bookkeeping: banked bonus reward rolls
// and, unless the branch already forced one, the ambient spawn roll.
func finishChain(rng *rand.Rand, out *Outcome) {
	rollBonusRewards(rng, out)
	if out.SpawnFaction == "" {
		if faction, ok := rollSpawn(rng, out.Meta); ok {
			out.SpawnFaction = faction
			out.Log = append(out.Log, "spawn "+string(faction))
		}
	}
}

// rollSpawn decides whether the raid's noise and threat draw a hostile.
func rollSpawn(rng *rand.Rand, meta Meta) (encounter.Faction, bool) {
	p := clamp(8+meta.Noise*6+meta.Threat*4, 0, 85)
	if !roll.Percent(rng, p) {
		return "", false
	}
	return pickFaction(rng, meta), true
}

// pickFaction weighs who answers the commotion. Zombies dominate; scavs
// and PMCs take a growing share as the raid heats up.
func pickFaction(rng *rand.Rand, meta Meta) encounter.Faction {
	zombie := 70
	scav := 10 + 4*meta.Threat + (3*meta.Noise)/2
	pmc := 4 + (22*meta.Threat)/10 + meta.Noise
	switch roll.WeightedPick(rng, []int{zombie, scav, pmc}) {
	case 1:
		return encounter.FactionScav
	case 2:
		return encounter.FactionPMC
	default:
		return encounter.FactionZombie
	}
}

// rollBonusRewards spends banked bonus on extra scavenge rolls when a
// chain resolves. At most one bonus point is consumed per chain.
func rollBonusRewards(rng *rand.Rand, out *Outcome) {
	tries := 1 + minInt(2, out.Meta.Bonus)
	rewarded := false
	for i := 0; i < tries; i++ {
		r := roll.Between(rng, 0, 100)
		switch {
		case r < 18:
			out.grantStack(item.IDStone, 1)
			rewarded = true
		case r < 25:
			out.grantStack(item.AmmoTierID(1), roll.Between(rng, 3, 8))
			rewarded = true
		case r < 29:
			out.grantGear(loot.GearDrop{ItemID: item.IDFragileStick})
			rewarded = true
		case r < 31:
			out.grantGear(loot.GearDrop{ItemID: item.IDRustyKnife})
			rewarded = true
		}
	}
	if rewarded && out.Meta.Bonus > 0 {
		out.Meta.Bonus--
	}
}

// genericTerminal closes a chain whose event id is no longer recognized.
func genericTerminal(eventID string, meta Meta) Outcome {
	return Outcome{
		Presentation: Presentation{
			EventID:   eventID,
			Title:     "Dead End",
			Narrative: "Whatever was here is long gone. The trail goes cold.",
		},
		Terminal: true,
		Meta:     meta,
		Log:      []string{"event_unknown"},
	}
}

// eventFinalStep is the last step in each event's graph. Unknown choices
// escalate toward it rather than terminating outright. Events outside the
// map have no further steps, so the zero value terminates immediately.
var eventFinalStep = map[string]int{
	EventTripwire:    3,
	EventRustle:      0,
	EventSmokeSignal: 1,
	EventStashCache:  1,
}

// unknownChoice escalates instead of erroring: the hesitation makes noise
// and the situation presses on to the next step. Only at the final step
// does the moment pass and the chain end.
func unknownChoice(chain Chain, meta Meta) Outcome {
	meta.AddNoise(1)
	out := Outcome{
		Presentation: Presentation{
			EventID: chain.EventID,
			Title:   "Hesitation",
		},
		Meta: meta,
		Log:  []string{"choice_unknown"},
	}
	if chain.Step >= eventFinalStep[chain.EventID] {
		out.Narrative = "You freeze, and the moment slips away. Something heard you."
		out.Terminal = true
		return out
	}
	out.Narrative = "You hesitate too long, and the situation escalates around you."
	out.Chain = &Chain{EventID: chain.EventID, Step: chain.Step + 1, Vars: chain.Vars}
	out.Choices = []Choice{
		{ID: "press_on", Label: "Press on"},
		{ID: "fall_back", Label: "Fall back"},
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
