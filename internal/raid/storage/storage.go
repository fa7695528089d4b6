// Package storage declares the persistence surface for raid state, the
// item catalog, durable instances, the stash, and loadouts.
package storage

import (
	"context"

	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// Location is where a durable instance currently lives.
type Location string

const (
	LocationRaid  Location = "raid"
	LocationStash Location = "stash"
)

// InstanceRecord is a durable instance plus its ownership row.
type InstanceRecord struct {
	PlayerKey string
	Location  Location
	Instance  item.Instance
}

// LoadoutRecord is the player's persistent equipment selection.
type LoadoutRecord struct {
	PlayerKey      string
	Primary        string
	Secondary      string
	Melee          string
	ArmorInstance  string
	StarterGranted bool
}

// Store is the full persistence surface. The sqlite package provides the
// production implementation.
type Store interface {
	// Raid state.
	GetRaidState(ctx context.Context, playerKey string) (*state.PlayerRaidState, error)
	PutRaidState(ctx context.Context, s *state.PlayerRaidState) error

	// Item catalog.
	UpsertItem(ctx context.Context, it item.Item) error
	GetItem(ctx context.Context, itemID string) (item.Item, error)
	ListItems(ctx context.Context) ([]item.Item, error)

	// Durable instances.
	InsertInstance(ctx context.Context, playerKey string, loc Location, inst *item.Instance) error
	GetInstance(ctx context.Context, instanceID string) (InstanceRecord, error)
	UpdateInstance(ctx context.Context, inst *item.Instance) error
	MoveInstance(ctx context.Context, instanceID string, loc Location) error
	DeleteInstance(ctx context.Context, instanceID string) error
	ListInstances(ctx context.Context, playerKey string, loc Location) ([]InstanceRecord, error)

	// Stash stacks.
	StashQty(ctx context.Context, playerKey, itemID string) (int, error)
	AddStashStack(ctx context.Context, playerKey, itemID string, delta int) error
	ListStash(ctx context.Context, playerKey string) (map[string]int, error)

	// Loadouts.
	GetLoadout(ctx context.Context, playerKey string) (LoadoutRecord, error)
	PutLoadout(ctx context.Context, rec LoadoutRecord) error

	Close() error
}
