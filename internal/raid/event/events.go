package event

import (
	"math/rand"

	"github.com/louisbranch/extraction.zone/internal/core/roll"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/loot"
)

// opening returns the first presentation of an event.
func opening(eventID string) Presentation {
	switch eventID {
	case EventTripwire:
		return Presentation{
			EventID:   EventTripwire,
			Title:     "Tripwire",
			Narrative: "A glint of wire stretches across the doorway, ankle height. Someone rigged this recently.",
			Choices: []Choice{
				{ID: "disarm", Label: "Disarm the wire"},
				{ID: "avoid", Label: "Back away and find another route"},
				{ID: "charge", Label: "Vault over it and push through"},
			},
		}
	case EventRustle:
		return Presentation{
			EventID:   EventRustle,
			Title:     "Rustle in the Dark",
			Narrative: "Something shifts behind the collapsed shelving. Could be rats. Could be worse.",
			Choices: []Choice{
				{ID: "investigate", Label: "Move in quietly"},
				{ID: "ignore", Label: "Keep your distance"},
				{ID: "throw_stone", Label: "Toss a stone to flush it out"},
			},
		}
	case EventSmokeSignal:
		return Presentation{
			EventID:   EventSmokeSignal,
			Title:     "Smoke on the Horizon",
			Narrative: "A thin column of smoke rises two blocks over. A campfire, or bait.",
			Choices: []Choice{
				{ID: "approach", Label: "Close in on the camp"},
				{ID: "signal_back", Label: "Flash your light in answer"},
				{ID: "avoid", Label: "Stay dark and move on"},
			},
		}
	case EventStashCache:
		return Presentation{
			EventID:   EventStashCache,
			Title:     "Hidden Cache",
			Narrative: "Loose bricks hide a metal box wedged into the wall. The lid is shut tight.",
			Choices: []Choice{
				{ID: "open", Label: "Pry it open"},
				{ID: "check_traps", Label: "Inspect it for traps first"},
				{ID: "leave", Label: "Leave it alone"},
			},
		}
	}
	return Presentation{EventID: eventID, Title: "Dead End",
		Narrative: "Whatever was here is long gone."}
}

func resolveTripwire(rng *rand.Rand, chain Chain, meta Meta, choiceID string) Outcome {
	out := Outcome{Meta: meta}
	out.EventID = EventTripwire
	out.Title = "Tripwire"

	exposedChoices := []Choice{
		{ID: "hold", Label: "Hold position and wait it out"},
		{ID: "run", Label: "Run for better cover"},
		{ID: "set_ambush", Label: "Set up an ambush of your own"},
	}

	switch chain.Step {
	case 0:
		switch choiceID {
		case "disarm":
			if roll.Percent(rng, 65) {
				out.Narrative = "The wire comes loose without a sound. Whoever set it left in a hurry, and their trail leads deeper in."
				out.Chain = &Chain{EventID: EventTripwire, Step: 1}
				out.Choices = []Choice{
					{ID: "search_more", Label: "Follow the trail"},
					{ID: "move_on", Label: "Leave it and move on"},
				}
				out.Log = append(out.Log, "tripwire_disarmed")
				return out
			}
			out.Narrative = "The wire snaps free and a can rig clatters down the hall. Every ear in the district just turned your way."
			out.Meta.AddNoise(2)
			out.Chain = &Chain{EventID: EventTripwire, Step: 2}
			out.Choices = exposedChoices
			out.Log = append(out.Log, "tripwire_sprung")
			return out
		case "avoid":
			out.Narrative = "You back out the way you came. The wire keeps its secret."
			out.Terminal = true
			return out
		case "charge":
			out.Narrative = "You clear the wire at a sprint, boots hammering the floor. A loose stone skitters into your hand on the way through."
			out.grantStack(item.IDStone, 1)
			out.Meta.AddNoise(2)
			out.Chain = &Chain{EventID: EventTripwire, Step: 2}
			out.Choices = exposedChoices
			return out
		}
	case 1:
		switch choiceID {
		case "search_more":
			if roll.Percent(rng, 60) {
				if roll.Percent(rng, 55) {
					out.grantStack(item.AmmoTierID(1), roll.Between(rng, 6, 14))
					out.Narrative = "A satchel hangs behind a pipe: loose rounds, still dry."
				} else {
					out.grantStack(item.IDStone, roll.Between(rng, 1, 2))
					out.Narrative = "Not much left here. A few solid stones, at least."
				}
				out.Chain = &Chain{EventID: EventTripwire, Step: 3}
				out.Choices = []Choice{
					{ID: "search_deeper", Label: "Push deeper"},
					{ID: "move_on", Label: "Take what you have and go"},
				}
				return out
			}
			out.Narrative = "You kick through debris and find nothing but your own echo."
			out.Meta.AddNoise(1)
			out.Chain = &Chain{EventID: EventTripwire, Step: 2}
			out.Choices = exposedChoices
			return out
		case "move_on":
			out.Narrative = "You leave the trail where it lies."
			out.Terminal = true
			return out
		}
	case 2:
		switch choiceID {
		case "hold":
			out.Narrative = "You flatten into a corner and count heartbeats. The district settles, slowly."
			out.Meta.AddThreat(1)
			out.Terminal = true
			return out
		case "run":
			out.Narrative = "You break cover and sprint, trading silence for distance."
			out.Meta.AddNoise(2)
			out.Terminal = true
			return out
		case "set_ambush":
			out.Narrative = "You pick a choke point and wait. Footsteps answer sooner than you hoped."
			out.Meta.AddBonus(1)
			out.SpawnFaction = pickFaction(rng, out.Meta)
			out.Terminal = true
			out.Log = append(out.Log, "ambush_set")
			return out
		}
	case 3:
		switch choiceID {
		case "search_deeper":
			if roll.Percent(rng, 50) {
				if roll.Percent(rng, 60) {
					out.grantStack(item.AmmoTierID(1), roll.Between(rng, 10, 22))
					out.Narrative = "A floor panel gives. Below it, a box of rounds somebody meant to come back for."
				} else {
					out.grantGear(loot.GearDrop{ItemID: item.IDFragileStick})
					out.Narrative = "Under the junk, a worn stick wrapped in tape. Better than bare hands."
				}
				out.Meta.AddNoise(1)
				out.Chain = &Chain{EventID: EventTripwire, Step: 2}
				out.Choices = exposedChoices
				return out
			}
			out.Narrative = "A shelf collapses under your hands. The crash rolls down the block like a dinner bell."
			out.Meta.AddNoise(3)
			out.SpawnFaction = pickFaction(rng, out.Meta)
			out.Terminal = true
			return out
		case "move_on":
			out.Narrative = "Enough. You pocket your finds and slip out."
			out.Terminal = true
			return out
		}
	}
	return unknownChoice(chain, meta)
}

func resolveRustle(rng *rand.Rand, chain Chain, meta Meta, choiceID string) Outcome {
	out := Outcome{Meta: meta}
	out.EventID = EventRustle
	out.Title = "Rustle in the Dark"

	if chain.Step != 0 {
		return unknownChoice(chain, meta)
	}

	switch choiceID {
	case "investigate":
		if roll.Percent(rng, 50) {
			out.grantStack(item.AmmoTierID(1), roll.Between(rng, 3, 8))
			out.Narrative = "Just rats, scattering off a torn bandolier. You strip it for the loose rounds."
			out.Terminal = true
			return out
		}
		out.Narrative = "The shelving topples as you lean in. Whatever was nesting there is gone, and now everything knows where you are."
		out.Meta.AddNoise(1)
		out.Meta.AddThreat(1)
		if roll.Percent(rng, 40) {
			out.SpawnFaction = pickFaction(rng, out.Meta)
		}
		out.Terminal = true
		return out
	case "ignore":
		out.Narrative = "You give the shelving a wide berth. The sound follows you for half a block."
		out.Meta.AddThreat(1)
		out.Terminal = true
		return out
	case "throw_stone":
		out.Narrative = "The stone cracks off the shelving. Something small bolts for a gap in the wall."
		out.Meta.AddNoise(1)
		if roll.Percent(rng, 30) {
			out.SpawnFaction = pickFaction(rng, out.Meta)
		}
		out.Terminal = true
		return out
	}
	return unknownChoice(chain, meta)
}

func resolveSmokeSignal(rng *rand.Rand, chain Chain, meta Meta, choiceID string) Outcome {
	out := Outcome{Meta: meta}
	out.EventID = EventSmokeSignal
	out.Title = "Smoke on the Horizon"

	switch chain.Step {
	case 0:
		switch choiceID {
		case "approach":
			out.Narrative = "The camp is a ring of scorched crates around a dying fire. Nobody in sight, for now."
			out.Chain = &Chain{EventID: EventSmokeSignal, Step: 1}
			out.Choices = []Choice{
				{ID: "scavenge_camp", Label: "Scavenge the camp"},
				{ID: "watch_first", Label: "Watch from cover first"},
			}
			return out
		case "signal_back":
			if roll.Percent(rng, 35) {
				out.grantStack(item.AmmoTierID(1), roll.Between(rng, 8, 18))
				out.Narrative = "A figure leaves a bundle on a wall and melts away. Rounds, wrapped in oilcloth. A trade, of sorts."
				out.Terminal = true
				return out
			}
			out.Narrative = "Your light blinks into the dark. The smoke gutters out, and the silence afterward feels aimed at you."
			out.Meta.AddThreat(2)
			out.Terminal = true
			return out
		case "avoid":
			out.Narrative = "You keep to the shadows and let the smoke burn itself out."
			out.Terminal = true
			return out
		}
	case 1:
		switch choiceID {
		case "scavenge_camp":
			if roll.Percent(rng, 55) {
				if roll.Percent(rng, 60) {
					out.grantStack(item.AmmoTierID(1), roll.Between(rng, 6, 12))
					out.Narrative = "They left in a hurry: scattered rounds under a bedroll."
				} else {
					out.grantGear(loot.GearDrop{ItemID: item.IDPipeWrench})
					out.Narrative = "A pipe wrench leans against the crates, heavy and honest."
				}
				out.Meta.AddNoise(1)
				out.Terminal = true
				return out
			}
			out.Narrative = "You are elbow-deep in a crate when a voice barks behind you. The camp was never empty."
			out.SpawnFaction = pickFaction(rng, out.Meta)
			out.Terminal = true
			return out
		case "watch_first":
			out.Narrative = "You wait. Two figures return, argue, and leave with the fire. Patience keeps you invisible."
			out.Meta.AddThreat(-1)
			out.Meta.AddBonus(1)
			out.Terminal = true
			return out
		}
	}
	return unknownChoice(chain, meta)
}

func resolveStashCache(rng *rand.Rand, chain Chain, meta Meta, choiceID string) Outcome {
	out := Outcome{Meta: meta}
	out.EventID = EventStashCache
	out.Title = "Hidden Cache"

	openCache := func(spawnChance int) {
		if roll.Percent(rng, 60) {
			out.grantStack(item.AmmoTierID(1), roll.Between(rng, 6, 16))
			out.Narrative = "The lid gives. Rounds in wax paper, dry as the day they were packed."
		} else {
			out.grantStack(item.IDStone, roll.Between(rng, 1, 2))
			out.Narrative = "The box holds nothing but dust and a couple of good throwing stones."
		}
		if roll.Percent(rng, spawnChance) {
			out.SpawnFaction = pickFaction(rng, out.Meta)
		}
		out.Terminal = true
	}

	switch chain.Step {
	case 0:
		switch choiceID {
		case "open":
			openCache(35)
			return out
		case "check_traps":
			out.Narrative = "No wires, no pressure plates. Just scratches where it has been opened before."
			out.Chain = &Chain{EventID: EventStashCache, Step: 1}
			out.Choices = []Choice{
				{ID: "open_carefully", Label: "Open it, slow and quiet"},
				{ID: "leave", Label: "Walk away"},
			}
			return out
		case "leave":
			out.Narrative = "Somebody hid that for a reason. You leave the reason alone."
			out.Terminal = true
			return out
		}
	case 1:
		switch choiceID {
		case "open_carefully":
			openCache(15)
			return out
		case "leave":
			out.Narrative = "You reset the bricks the way you found them and go."
			out.Terminal = true
			return out
		}
	}
	return unknownChoice(chain, meta)
}
