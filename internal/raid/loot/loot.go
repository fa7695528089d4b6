// Package loot generates encounter drops.
package loot

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// GearDrop is a durable item awaiting instantiation. Guns carry the number
// of rounds found in the magazine; the instance itself is only minted when
// the player actually takes the loot.
type GearDrop struct {
	ItemID    string `json:"item_id"`
	AmmoInMag int    `json:"ammo_in_mag,omitempty"`
}

// Bundle is the loot attached to a dead encounter.
type Bundle struct {
	Stacks map[string]int
	Gear   []GearDrop
}

// Empty reports whether the bundle holds nothing.
func (b *Bundle) Empty() bool {
	return b == nil || (len(b.Stacks) == 0 && len(b.Gear) == 0)
}

// Add merges qty of a stackable item into the bundle.
func (b *Bundle) Add(itemID string, qty int) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || qty <= 0 {
		return
	}
	if b.Stacks == nil {
		b.Stacks = make(map[string]int)
	}
	b.Stacks[itemID] += qty
}

// AddGear appends a durable drop.
func (b *Bundle) AddGear(drop GearDrop) {
	if strings.TrimSpace(drop.ItemID) == "" {
		return
	}
	b.Gear = append(b.Gear, drop)
}

type stackRow struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type wireBundle struct {
	Stack []stackRow `json:"stack"`
	Gear  []GearDrop `json:"gear,omitempty"`
}

// MarshalJSON emits the canonical bundle encoding with sorted stack rows.
func (b Bundle) MarshalJSON() ([]byte, error) {
	wire := wireBundle{Stack: make([]stackRow, 0, len(b.Stacks)), Gear: b.Gear}
	ids := make([]string, 0, len(b.Stacks))
	for id, qty := range b.Stacks {
		if strings.TrimSpace(id) == "" || qty <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		wire.Stack = append(wire.Stack, stackRow{ItemID: id, Qty: b.Stacks[id]})
	}
	return json.Marshal(wire)
}

// UnmarshalJSON accepts the canonical row form as well as the legacy
// quantity-map form.
func (b *Bundle) UnmarshalJSON(raw []byte) error {
	*b = Bundle{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "{}" || trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var rows []stackRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("decode loot rows: %w", err)
		}
		for _, row := range rows {
			b.Add(row.ItemID, row.Qty)
		}
		return nil
	}

	var wire wireBundle
	if err := json.Unmarshal(raw, &wire); err == nil && (len(wire.Stack) > 0 || len(wire.Gear) > 0) {
		for _, row := range wire.Stack {
			b.Add(row.ItemID, row.Qty)
		}
		for _, drop := range wire.Gear {
			b.AddGear(drop)
		}
		return nil
	}

	var asMap map[string]int
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return fmt.Errorf("decode loot: %w", err)
	}
	for id, qty := range asMap {
		b.Add(id, qty)
	}
	return nil
}
