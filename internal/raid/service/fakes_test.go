package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/extraction.zone/internal/raid/bag"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
)

// fakeStore is an in-memory storage.Store. Raid state round-trips through
// the real codecs so tests exercise the same encode/decode path as the
// SQLite store.
type fakeStore struct {
	mu        sync.Mutex
	states    map[string]storedState
	items     map[string]item.Item
	instances map[string]storage.InstanceRecord
	stash     map[string]map[string]int
	loadouts  map[string]storage.LoadoutRecord

	putStateCalls int
}

type storedState struct {
	status  state.Status
	bagJSON []byte
	pouch   []byte
	context []byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		states:    map[string]storedState{},
		items:     map[string]item.Item{},
		instances: map[string]storage.InstanceRecord{},
		stash:     map[string]map[string]int{},
		loadouts:  map[string]storage.LoadoutRecord{},
	}
}

func (f *fakeStore) GetRaidState(_ context.Context, playerKey string) (*state.PlayerRaidState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.states[playerKey]
	if !ok {
		return nil, storage.ErrNotFound
	}
	carried, err := bag.Decode(stored.bagJSON)
	if err != nil {
		return nil, err
	}
	pouch, err := bag.DecodePouch(stored.pouch)
	if err != nil {
		return nil, err
	}
	raidCtx, err := state.DecodeContext(stored.context)
	if err != nil {
		return nil, err
	}
	return &state.PlayerRaidState{
		PlayerKey:  playerKey,
		Status:     stored.status,
		Bag:        carried,
		ThrowPouch: pouch,
		Context:    raidCtx,
	}, nil
}

func (f *fakeStore) PutRaidState(_ context.Context, st *state.PlayerRaidState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bagJSON, err := bag.Encode(st.Bag)
	if err != nil {
		return err
	}
	pouch, err := bag.EncodePouch(st.ThrowPouch)
	if err != nil {
		return err
	}
	contextJSON, err := state.EncodeContext(st.Context)
	if err != nil {
		return err
	}
	f.states[st.PlayerKey] = storedState{
		status:  st.Status,
		bagJSON: bagJSON,
		pouch:   pouch,
		context: contextJSON,
	}
	f.putStateCalls++
	return nil
}

func (f *fakeStore) UpsertItem(_ context.Context, it item.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[it.ID] = it
	return nil
}

func (f *fakeStore) GetItem(_ context.Context, itemID string) (item.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return item.Item{}, storage.ErrNotFound
	}
	return it, nil
}

func (f *fakeStore) ListItems(_ context.Context) ([]item.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []item.Item
	for _, it := range f.items {
		items = append(items, it)
	}
	return items, nil
}

func (f *fakeStore) InsertInstance(_ context.Context, playerKey string, loc storage.Location, inst *item.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances[inst.InstanceID] = storage.InstanceRecord{
		PlayerKey: playerKey,
		Location:  loc,
		Instance:  *inst,
	}
	return nil
}

func (f *fakeStore) GetInstance(_ context.Context, instanceID string) (storage.InstanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.instances[instanceID]
	if !ok {
		return storage.InstanceRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) UpdateInstance(_ context.Context, inst *item.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.instances[inst.InstanceID]
	if !ok {
		return storage.ErrNotFound
	}
	rec.Instance = *inst
	f.instances[inst.InstanceID] = rec
	return nil
}

func (f *fakeStore) MoveInstance(_ context.Context, instanceID string, loc storage.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.instances[instanceID]
	if !ok {
		return storage.ErrNotFound
	}
	rec.Location = loc
	f.instances[instanceID] = rec
	return nil
}

func (f *fakeStore) DeleteInstance(_ context.Context, instanceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.instances[instanceID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.instances, instanceID)
	return nil
}

func (f *fakeStore) ListInstances(_ context.Context, playerKey string, loc storage.Location) ([]storage.InstanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []storage.InstanceRecord
	for _, rec := range f.instances {
		if rec.PlayerKey == playerKey && rec.Location == loc {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (f *fakeStore) StashQty(_ context.Context, playerKey, itemID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stash[playerKey][itemID], nil
}

func (f *fakeStore) AddStashStack(_ context.Context, playerKey, itemID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stacks := f.stash[playerKey]
	if stacks == nil {
		stacks = map[string]int{}
		f.stash[playerKey] = stacks
	}
	next := stacks[itemID] + delta
	if next < 0 {
		return fmt.Errorf("stash stack %s would go negative", itemID)
	}
	if next == 0 {
		delete(stacks, itemID)
		return nil
	}
	stacks[itemID] = next
	return nil
}

func (f *fakeStore) ListStash(_ context.Context, playerKey string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for itemID, qty := range f.stash[playerKey] {
		out[itemID] = qty
	}
	return out, nil
}

func (f *fakeStore) GetLoadout(_ context.Context, playerKey string) (storage.LoadoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.loadouts[playerKey]
	if !ok {
		return storage.LoadoutRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) PutLoadout(_ context.Context, rec storage.LoadoutRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadouts[rec.PlayerKey] = rec
	return nil
}

func (f *fakeStore) Close() error { return nil }

var _ storage.Store = (*fakeStore)(nil)
