// Package state defines the per-player raid record and its context codec.
//
// The context blob is the one place legacy encodings still surface; decode
// normalizes them here so everything past the storage boundary works with
// typed values only.
package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/extraction.zone/internal/raid/bag"
	"github.com/louisbranch/extraction.zone/internal/raid/encounter"
	"github.com/louisbranch/extraction.zone/internal/raid/event"
)

// Status is the raid lifecycle state of a player.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusInRaid Status = "in_raid"
)

// ParseStatus normalizes a stored status, defaulting to idle.
func ParseStatus(value string) Status {
	if Status(strings.TrimSpace(value)) == StatusInRaid {
		return StatusInRaid
	}
	return StatusIdle
}

// LoadoutSnapshot records what the player carried into the raid.
type LoadoutSnapshot struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Melee     string `json:"melee,omitempty"`
	ArmorID   string `json:"armor_instance_id,omitempty"`
}

// Context is the typed raid context: the active encounter, the pending
// exploration event, and the raid meters.
type Context struct {
	Encounter  *encounter.Encounter
	EventChain *event.Chain
	Meta       event.Meta
	Loadout    LoadoutSnapshot
}

// PlayerRaidState is one player's full raid record.
type PlayerRaidState struct {
	PlayerKey  string
	Status     Status
	Bag        bag.Bag
	ThrowPouch map[string]int
	Context    Context
	UpdatedAt  time.Time
}

// InRaid reports whether the player currently owns a live raid.
func (s *PlayerRaidState) InRaid() bool {
	return s != nil && s.Status == StatusInRaid
}

// Reset clears everything raid-scoped, leaving the player idle.
func (s *PlayerRaidState) Reset() {
	s.Status = StatusIdle
	s.Bag = bag.Bag{}
	s.ThrowPouch = map[string]int{}
	s.Context = Context{}
}

type wireContext struct {
	Encounter  *encounter.Encounter `json:"encounter,omitempty"`
	EventChain *event.Chain         `json:"event_chain,omitempty"`
	ChainOld   *event.Chain         `json:"chain,omitempty"`
	Meta       *event.Meta          `json:"meta,omitempty"`
	Loadout    LoadoutSnapshot      `json:"loadout"`
}

// EncodeContext emits the canonical context encoding.
func EncodeContext(c Context) ([]byte, error) {
	c.Meta.Clamp()
	out, err := json.Marshal(wireContext{
		Encounter:  c.Encounter,
		EventChain: c.EventChain,
		Meta:       &c.Meta,
		Loadout:    c.Loadout,
	})
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}
	return out, nil
}

// DecodeContext parses a stored context blob. Missing meters default to
// zero and come back clamped; the legacy "chain" key is honored.
func DecodeContext(raw []byte) (Context, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "{}" || trimmed == "null" {
		return Context{}, nil
	}

	var wire wireContext
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Context{}, fmt.Errorf("decode context: %w", err)
	}
	c := Context{
		Encounter:  wire.Encounter,
		EventChain: wire.EventChain,
		Loadout:    wire.Loadout,
	}
	if c.EventChain == nil {
		c.EventChain = wire.ChainOld
	}
	if wire.Meta != nil {
		c.Meta = *wire.Meta
	}
	c.Meta.Clamp()
	return c, nil
}
