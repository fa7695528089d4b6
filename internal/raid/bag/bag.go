// Package bag implements the in-raid inventory and its wire codec.
//
// The canonical encoding is {"stack":[{"item_id","qty"}],"inst":[{"instance_id"}]}.
// Older rows persisted several shapes for the same data: a bare
// {"item_id": qty} map, a {"stacks": ...} wrapper, and top-level row lists.
// Decode accepts all of them; Encode only ever emits the canonical form, so
// a decode/encode round-trip is a fixed point.
package bag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Bag holds a player's in-raid inventory: stackable quantities plus
// references to durable item instances.
type Bag struct {
	Stacks    map[string]int
	Instances []string
}

// Qty returns the stacked quantity for an item id.
func (b *Bag) Qty(itemID string) int {
	return b.Stacks[itemID]
}

// Add merges qty of an item into the bag. Non-positive quantities are ignored.
func (b *Bag) Add(itemID string, qty int) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || qty <= 0 {
		return
	}
	if b.Stacks == nil {
		b.Stacks = make(map[string]int)
	}
	b.Stacks[itemID] += qty
}

// Remove deducts qty of an item, deleting emptied stacks. It reports
// whether the bag held enough; on false the bag is unchanged.
func (b *Bag) Remove(itemID string, qty int) bool {
	if qty <= 0 {
		return false
	}
	have := b.Stacks[itemID]
	if have < qty {
		return false
	}
	if have == qty {
		delete(b.Stacks, itemID)
		return true
	}
	b.Stacks[itemID] = have - qty
	return true
}

// AddInstance appends a durable instance reference, skipping duplicates.
func (b *Bag) AddInstance(instanceID string) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return
	}
	for _, id := range b.Instances {
		if id == instanceID {
			return
		}
	}
	b.Instances = append(b.Instances, instanceID)
}

// RemoveInstance drops a durable instance reference, reporting whether it
// was present.
func (b *Bag) RemoveInstance(instanceID string) bool {
	for i, id := range b.Instances {
		if id == instanceID {
			b.Instances = append(b.Instances[:i], b.Instances[i+1:]...)
			return true
		}
	}
	return false
}

// HasInstance reports whether the bag references the instance.
func (b *Bag) HasInstance(instanceID string) bool {
	for _, id := range b.Instances {
		if id == instanceID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (b Bag) Clone() Bag {
	out := Bag{}
	if len(b.Stacks) > 0 {
		out.Stacks = make(map[string]int, len(b.Stacks))
		for k, v := range b.Stacks {
			out.Stacks[k] = v
		}
	}
	if len(b.Instances) > 0 {
		out.Instances = append([]string(nil), b.Instances...)
	}
	return out
}

type stackRow struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type instRow struct {
	InstanceID string `json:"instance_id"`
}

type wireBag struct {
	Stack []stackRow `json:"stack"`
	Inst  []instRow  `json:"inst"`
}

// Encode emits the canonical bag encoding with stacks sorted by item id.
func Encode(b Bag) ([]byte, error) {
	wire := wireBag{
		Stack: make([]stackRow, 0, len(b.Stacks)),
		Inst:  make([]instRow, 0, len(b.Instances)),
	}
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
	for _, id := range b.Instances {
		if strings.TrimSpace(id) == "" {
			continue
		}
		wire.Inst = append(wire.Inst, instRow{InstanceID: id})
	}
	out, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode bag: %w", err)
	}
	return out, nil
}

// Decode parses any accepted bag encoding into a normalized Bag.
// Empty input yields an empty bag. Unknown item entries with non-positive
// quantities are dropped; duplicate stack entries are merged.
func Decode(raw []byte) (Bag, error) {
	b := Bag{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "{}" || trimmed == "null" {
		return b, nil
	}

	// Top-level row list.
	if strings.HasPrefix(trimmed, "[") {
		var rows []stackRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return Bag{}, fmt.Errorf("decode bag rows: %w", err)
		}
		for _, row := range rows {
			b.Add(row.ItemID, row.Qty)
		}
		return b, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Bag{}, fmt.Errorf("decode bag: %w", err)
	}

	for key, value := range fields {
		switch key {
		case "stack", "list", "items":
			rows, err := decodeStackRows(value)
			if err != nil {
				return Bag{}, err
			}
			for _, row := range rows {
				b.Add(row.ItemID, row.Qty)
			}
		case "stacks":
			if err := decodeStacksField(value, &b); err != nil {
				return Bag{}, err
			}
		case "inst":
			ids, err := decodeInstField(value)
			if err != nil {
				return Bag{}, err
			}
			for _, id := range ids {
				b.AddInstance(id)
			}
		default:
			// Bare {item_id: qty} entry from the oldest encoding.
			var qty int
			if err := json.Unmarshal(value, &qty); err == nil {
				b.Add(key, qty)
			}
		}
	}
	return b, nil
}

// decodeStacksField handles the legacy "stacks" wrapper, which held either
// a quantity map or a row list.
func decodeStacksField(raw json.RawMessage, b *Bag) error {
	var asMap map[string]int
	if err := json.Unmarshal(raw, &asMap); err == nil {
		for id, qty := range asMap {
			b.Add(id, qty)
		}
		return nil
	}
	rows, err := decodeStackRows(raw)
	if err != nil {
		return err
	}
	for _, row := range rows {
		b.Add(row.ItemID, row.Qty)
	}
	return nil
}

func decodeStackRows(raw json.RawMessage) ([]stackRow, error) {
	var rows []stackRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode stack rows: %w", err)
	}
	return rows, nil
}

// decodeInstField accepts both {"instance_id": ...} rows and plain strings.
func decodeInstField(raw json.RawMessage) ([]string, error) {
	var rows []instRow
	if err := json.Unmarshal(raw, &rows); err == nil {
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.InstanceID)
		}
		return ids, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode instance rows: %w", err)
	}
	return ids, nil
}

// DecodePouch parses the throw pouch, accepting the same quantity-map and
// row-list shapes as the bag stacks.
func DecodePouch(raw []byte) (map[string]int, error) {
	pouch := make(map[string]int)
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "{}" || trimmed == "null" {
		return pouch, nil
	}

	add := func(id string, qty int) {
		id = strings.TrimSpace(id)
		if id == "" || qty <= 0 {
			return
		}
		pouch[id] += qty
	}

	if strings.HasPrefix(trimmed, "[") {
		rows, err := decodeStackRows(raw)
		if err != nil {
			return nil, fmt.Errorf("decode pouch: %w", err)
		}
		for _, row := range rows {
			add(row.ItemID, row.Qty)
		}
		return pouch, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode pouch: %w", err)
	}
	for key, value := range fields {
		if key == "list" || key == "items" {
			rows, err := decodeStackRows(value)
			if err != nil {
				return nil, fmt.Errorf("decode pouch: %w", err)
			}
			for _, row := range rows {
				add(row.ItemID, row.Qty)
			}
			continue
		}
		var qty int
		if err := json.Unmarshal(value, &qty); err == nil {
			add(key, qty)
		}
	}
	return pouch, nil
}

// EncodePouch emits the canonical pouch encoding, a sorted quantity map.
func EncodePouch(pouch map[string]int) ([]byte, error) {
	clean := make(map[string]int, len(pouch))
	for id, qty := range pouch {
		if strings.TrimSpace(id) == "" || qty <= 0 {
			continue
		}
		clean[id] = qty
	}
	out, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("encode pouch: %w", err)
	}
	return out, nil
}
