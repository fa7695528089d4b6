package encounter

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/louisbranch/extraction.zone/internal/raid/item"
)

func TestEnsureLootPendingIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	catalog := item.NewMapCatalog(item.Defaults())

	e := &Encounter{Name: "Scav Raider", Faction: FactionScav, HP: 0, HPMax: 38, LootTier: 2}
	e.EnsureLootPending(rng, catalog)

	if !e.Dead {
		t.Fatal("expected dead")
	}
	if e.HP != 0 {
		t.Fatalf("expected hp pinned at 0, got %d", e.HP)
	}
	if e.LootState != LootPending {
		t.Fatalf("expected pending loot state, got %s", e.LootState)
	}
	if e.Loot.Empty() {
		t.Fatal("expected generated loot")
	}

	first := e.Loot
	e.EnsureLootPending(rng, catalog)
	if e.Loot != first {
		t.Fatal("existing loot must not be regenerated")
	}
}

func TestEnsureLootPendingKeepsExistingLoot(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	catalog := item.NewMapCatalog(item.Defaults())

	e := &Encounter{Name: "Walker", Faction: FactionZombie, HP: 4, LootTier: 1}
	e.EnsureLootPending(rng, catalog)
	e.Loot.Stacks = map[string]int{"thr_stone": 7}

	e.EnsureLootPending(rng, catalog)
	if e.Loot.Stacks["thr_stone"] != 7 {
		t.Fatalf("non-empty loot overwritten: %v", e.Loot.Stacks)
	}
}

func TestCodecLegacyDeadAndLootTier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantDead bool
		wantTier int
	}{
		{
			name:     "integer dead flag",
			raw:      `{"name":"Walker","faction":"zombie","hp":0,"hp_max":28,"dead":1,"loot_state":"pending","lootTier":2}`,
			wantDead: true,
			wantTier: 2,
		},
		{
			name:     "boolean dead flag",
			raw:      `{"name":"Walker","faction":"zombie","hp":12,"hp_max":28,"dead":false,"loot_tier":1}`,
			wantDead: false,
			wantTier: 1,
		},
		{
			name:     "missing fields default",
			raw:      `{"name":"Walker","faction":"zombie","hp":12,"hp_max":28}`,
			wantDead: false,
			wantTier: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Encounter
			if err := json.Unmarshal([]byte(tt.raw), &e); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if e.Dead != tt.wantDead {
				t.Fatalf("dead = %v, want %v", e.Dead, tt.wantDead)
			}
			if e.LootTier != tt.wantTier {
				t.Fatalf("loot tier = %d, want %d", e.LootTier, tt.wantTier)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	e := Encounter{
		Type: "pmc_boss", Name: "PMC Boss", Faction: FactionPMC,
		HP: 0, HPMax: 95, Attack: 18, Aim: 75, LootTier: 5,
		Dead: true, LootState: LootPending,
	}
	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var again Encounter
	if err := json.Unmarshal(raw, &again); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if again.Type != e.Type || again.Dead != e.Dead || again.LootState != e.LootState || again.LootTier != e.LootTier {
		t.Fatalf("round trip mismatch: %+v", again)
	}
}

func TestSpawnFactions(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for _, faction := range []Faction{FactionZombie, FactionScav, FactionPMC} {
		for i := 0; i < 100; i++ {
			e := Spawn(rng, faction)
			if e == nil {
				t.Fatalf("no spawn for %s", faction)
			}
			if e.Faction != faction {
				t.Fatalf("expected %s, got %s", faction, e.Faction)
			}
			if e.HP <= 0 || e.HP != e.HPMax {
				t.Fatalf("bad spawn hp: %d/%d", e.HP, e.HPMax)
			}
			if e.Dead || e.LootState != LootNone {
				t.Fatal("fresh spawn must be alive with no loot state")
			}
			if e.LootTier < 1 || e.LootTier > 5 {
				t.Fatalf("loot tier out of band: %d", e.LootTier)
			}
		}
	}
}

func TestSpawnRandomCoversAllFactions(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	seen := map[Faction]bool{}
	for i := 0; i < 2000; i++ {
		e := SpawnRandom(rng)
		seen[e.Faction] = true
	}
	for _, faction := range []Faction{FactionZombie, FactionScav, FactionPMC} {
		if !seen[faction] {
			t.Fatalf("faction %s never spawned", faction)
		}
	}
}

func TestCatalogIsWellFormed(t *testing.T) {
	ids := map[string]bool{}
	for _, npc := range Catalog() {
		if ids[npc.ID] {
			t.Fatalf("duplicate npc id %s", npc.ID)
		}
		ids[npc.ID] = true
		if npc.HPMin <= 0 || npc.HPMax < npc.HPMin {
			t.Fatalf("bad hp range for %s", npc.ID)
		}
		if npc.LootTier < 1 || npc.LootTier > 5 {
			t.Fatalf("bad loot tier for %s", npc.ID)
		}
	}
	if len(ids) != 20 {
		t.Fatalf("expected 20 catalog entries, got %d", len(ids))
	}
}
