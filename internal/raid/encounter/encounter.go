// Package encounter models the single hostile a raider can face at a time.
package encounter

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/loot"
)

// Faction identifies who spawned.
type Faction string

const (
	FactionZombie Faction = "zombie"
	FactionScav   Faction = "scav"
	FactionPMC    Faction = "pmc"
)

// LootState tracks whether a dead encounter still owes the player loot.
type LootState string

const (
	LootNone    LootState = "none"
	LootPending LootState = "pending"
)

// Encounter is the active hostile in a raid.
type Encounter struct {
	Type      string // catalog id, empty for generic spawns
	Name      string
	Faction   Faction
	HP        int
	HPMax     int
	Attack    int
	Aim       int
	LootTier  int
	Dead      bool
	LootState LootState
	Loot      *loot.Bundle
	SpawnedAt int64
}

// Alive reports whether the encounter can still fight.
func (e *Encounter) Alive() bool {
	return e != nil && !e.Dead && e.HP > 0
}

// LootIsPending reports whether a kill is still waiting to be looted.
func (e *Encounter) LootIsPending() bool {
	return e != nil && e.Dead && e.LootState == LootPending
}

// EnsureLootPending forces a dead encounter into a consistent lootable
// state. It marks the encounter dead, pins hp at zero, sets the pending
// loot state, and generates a bundle only when none exists yet. Existing
// non-empty loot is never overwritten, so repeated calls are idempotent.
func (e *Encounter) EnsureLootPending(rng *rand.Rand, catalog item.Catalog) {
	if e == nil {
		return
	}
	e.Dead = true
	if e.HP > 0 {
		e.HP = 0
	}
	e.LootState = LootPending
	if e.Loot.Empty() {
		b := loot.Generate(rng, catalog, string(e.Faction), e.LootTier)
		e.Loot = &b
	}
}

type wireEncounter struct {
	Type         string          `json:"type,omitempty"`
	Name         string          `json:"name"`
	Faction      string          `json:"faction"`
	HP           int             `json:"hp"`
	HPMax        int             `json:"hp_max"`
	Attack       int             `json:"atk,omitempty"`
	Aim          int             `json:"aim,omitempty"`
	LootTier     int             `json:"loot_tier,omitempty"`
	LootTierOld  int             `json:"lootTier,omitempty"`
	Dead         json.RawMessage `json:"dead,omitempty"`
	LootState    string          `json:"loot_state,omitempty"`
	Loot         *loot.Bundle    `json:"loot,omitempty"`
	SpawnedAt    int64           `json:"spawn_ts,omitempty"`
}

// MarshalJSON emits the canonical encounter encoding.
func (e Encounter) MarshalJSON() ([]byte, error) {
	dead := json.RawMessage("false")
	if e.Dead {
		dead = json.RawMessage("true")
	}
	return json.Marshal(wireEncounter{
		Type:      e.Type,
		Name:      e.Name,
		Faction:   string(e.Faction),
		HP:        e.HP,
		HPMax:     e.HPMax,
		Attack:    e.Attack,
		Aim:       e.Aim,
		LootTier:  e.LootTier,
		Dead:      dead,
		LootState: string(e.LootState),
		Loot:      e.Loot,
		SpawnedAt: e.SpawnedAt,
	})
}

// UnmarshalJSON accepts canonical encounters plus two legacy quirks: the
// dead flag stored as 0/1 and the loot tier under "lootTier".
func (e *Encounter) UnmarshalJSON(raw []byte) error {
	var wire wireEncounter
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("decode encounter: %w", err)
	}
	*e = Encounter{
		Type:      wire.Type,
		Name:      wire.Name,
		Faction:   Faction(wire.Faction),
		HP:        wire.HP,
		HPMax:     wire.HPMax,
		Attack:    wire.Attack,
		Aim:       wire.Aim,
		LootTier:  wire.LootTier,
		Loot:      wire.Loot,
		SpawnedAt: wire.SpawnedAt,
	}
	if e.LootTier == 0 {
		e.LootTier = wire.LootTierOld
	}
	if e.LootTier < 1 {
		e.LootTier = 1
	}
	dead, err := decodeFlexBool(wire.Dead)
	if err != nil {
		return fmt.Errorf("decode encounter dead flag: %w", err)
	}
	e.Dead = dead
	switch LootState(strings.TrimSpace(wire.LootState)) {
	case LootPending:
		e.LootState = LootPending
	default:
		e.LootState = LootNone
	}
	return nil
}

// decodeFlexBool accepts true/false and the 0/1 integers older rows stored.
func decodeFlexBool(raw json.RawMessage) (bool, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return false, err
	}
	return n != 0, nil
}

// NPC is one catalog entry hostiles are spawned from.
type NPC struct {
	ID       string
	Name     string
	Faction  Faction
	HPMin    int
	HPMax    int
	Attack   int
	Aim      int
	LootTier int
}

// Catalog returns the built-in hostile roster.
func Catalog() []NPC {
	return []NPC{
		{ID: "zombie_shambler", Name: "Shambler", Faction: FactionZombie, HPMin: 24, HPMax: 30, Attack: 4, LootTier: 1},
		{ID: "zombie_walker", Name: "Walker", Faction: FactionZombie, HPMin: 22, HPMax: 28, Attack: 5, LootTier: 1},
		{ID: "zombie_crawler", Name: "Crawler", Faction: FactionZombie, HPMin: 14, HPMax: 20, Attack: 3, LootTier: 1},
		{ID: "zombie_runner", Name: "Runner", Faction: FactionZombie, HPMin: 20, HPMax: 26, Attack: 6, LootTier: 1},
		{ID: "zombie_screamer", Name: "Screamer", Faction: FactionZombie, HPMin: 18, HPMax: 24, Attack: 4, LootTier: 2},
		{ID: "zombie_spitter", Name: "Spitter", Faction: FactionZombie, HPMin: 24, HPMax: 30, Attack: 6, LootTier: 2},
		{ID: "zombie_feral", Name: "Feral", Faction: FactionZombie, HPMin: 30, HPMax: 38, Attack: 7, LootTier: 2},
		{ID: "zombie_bloated", Name: "Bloated One", Faction: FactionZombie, HPMin: 40, HPMax: 48, Attack: 5, LootTier: 2},
		{ID: "zombie_brute", Name: "Brute", Faction: FactionZombie, HPMin: 54, HPMax: 66, Attack: 9, LootTier: 2},
		{ID: "zombie_abomination", Name: "Abomination", Faction: FactionZombie, HPMin: 72, HPMax: 88, Attack: 12, LootTier: 3},

		{ID: "scav_lookout", Name: "Scav Lookout", Faction: FactionScav, HPMin: 24, HPMax: 30, Attack: 6, Aim: 35, LootTier: 2},
		{ID: "scav_raider", Name: "Scav Raider", Faction: FactionScav, HPMin: 30, HPMax: 38, Attack: 8, Aim: 45, LootTier: 2},
		{ID: "scav_veteran", Name: "Scav Veteran", Faction: FactionScav, HPMin: 38, HPMax: 46, Attack: 9, Aim: 55, LootTier: 3},
		{ID: "scav_sniper", Name: "Scav Sniper", Faction: FactionScav, HPMin: 26, HPMax: 34, Attack: 12, Aim: 70, LootTier: 3},
		{ID: "scav_chief", Name: "Scav Chief", Faction: FactionScav, HPMin: 48, HPMax: 60, Attack: 11, Aim: 60, LootTier: 4},

		{ID: "pmc_recruit", Name: "PMC Recruit", Faction: FactionPMC, HPMin: 36, HPMax: 44, Attack: 10, Aim: 55, LootTier: 3},
		{ID: "pmc_operator", Name: "PMC Operator", Faction: FactionPMC, HPMin: 48, HPMax: 60, Attack: 12, Aim: 65, LootTier: 4},
		{ID: "pmc_breacher", Name: "PMC Breacher", Faction: FactionPMC, HPMin: 54, HPMax: 66, Attack: 14, Aim: 60, LootTier: 4},
		{ID: "pmc_marksman", Name: "PMC Marksman", Faction: FactionPMC, HPMin: 42, HPMax: 52, Attack: 16, Aim: 80, LootTier: 4},
		{ID: "pmc_boss", Name: "PMC Boss", Faction: FactionPMC, HPMin: 86, HPMax: 100, Attack: 18, Aim: 75, LootTier: 5},
	}
}

// Spawn rolls a fresh encounter for a faction from the catalog.
func Spawn(rng *rand.Rand, faction Faction) *Encounter {
	var pool []NPC
	for _, npc := range Catalog() {
		if npc.Faction == faction {
			pool = append(pool, npc)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	npc := pool[rng.Intn(len(pool))]
	hp := npc.HPMin
	if npc.HPMax > npc.HPMin {
		hp = npc.HPMin + rng.Intn(npc.HPMax-npc.HPMin+1)
	}
	return &Encounter{
		Type:      npc.ID,
		Name:      npc.Name,
		Faction:   npc.Faction,
		HP:        hp,
		HPMax:     hp,
		Attack:    npc.Attack,
		Aim:       npc.Aim,
		LootTier:  npc.LootTier,
		LootState: LootNone,
		SpawnedAt: time.Now().Unix(),
	}
}

// SpawnRandom rolls a fresh encounter with the baseline 70/22/8 faction
// split used outside of exploration events.
func SpawnRandom(rng *rand.Rand) *Encounter {
	r := rng.Intn(100) + 1
	switch {
	case r <= 70:
		return Spawn(rng, FactionZombie)
	case r <= 92:
		return Spawn(rng, FactionScav)
	default:
		return Spawn(rng, FactionPMC)
	}
}
