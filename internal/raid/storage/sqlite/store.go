// Package sqlite provides the SQLite-backed raid persistence store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/extraction.zone/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/extraction.zone/internal/raid/bag"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/state"
	"github.com/louisbranch/extraction.zone/internal/raid/storage"
	"github.com/louisbranch/extraction.zone/internal/raid/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed raid persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a raid SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// GetRaidState loads one player's raid record.
func (s *Store) GetRaidState(ctx context.Context, playerKey string) (*state.PlayerRaidState, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	playerKey = strings.TrimSpace(playerKey)
	if playerKey == "" {
		return nil, fmt.Errorf("player key is required")
	}

	var (
		status      string
		bagJSON     string
		throwJSON   string
		contextJSON string
		updatedAt   int64
	)
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT status, bag_json, throw_json, context_json, updated_at
FROM raid_states
WHERE player_key = ?
`, playerKey)
	if err := row.Scan(&status, &bagJSON, &throwJSON, &contextJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get raid state: %w", err)
	}

	carried, err := bag.Decode([]byte(bagJSON))
	if err != nil {
		return nil, fmt.Errorf("decode bag for %s: %w", playerKey, err)
	}
	pouch, err := bag.DecodePouch([]byte(throwJSON))
	if err != nil {
		return nil, fmt.Errorf("decode throw pouch for %s: %w", playerKey, err)
	}
	raidCtx, err := state.DecodeContext([]byte(contextJSON))
	if err != nil {
		return nil, fmt.Errorf("decode context for %s: %w", playerKey, err)
	}

	return &state.PlayerRaidState{
		PlayerKey:  playerKey,
		Status:     state.ParseStatus(status),
		Bag:        carried,
		ThrowPouch: pouch,
		Context:    raidCtx,
		UpdatedAt:  time.UnixMilli(updatedAt).UTC(),
	}, nil
}

// PutRaidState upserts one player's raid record.
func (s *Store) PutRaidState(ctx context.Context, st *state.PlayerRaidState) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if st == nil || strings.TrimSpace(st.PlayerKey) == "" {
		return fmt.Errorf("player key is required")
	}

	bagJSON, err := bag.Encode(st.Bag)
	if err != nil {
		return fmt.Errorf("encode bag: %w", err)
	}
	throwJSON, err := bag.EncodePouch(st.ThrowPouch)
	if err != nil {
		return fmt.Errorf("encode throw pouch: %w", err)
	}
	contextJSON, err := state.EncodeContext(st.Context)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO raid_states (player_key, status, bag_json, throw_json, context_json, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (player_key) DO UPDATE SET
	status = excluded.status,
	bag_json = excluded.bag_json,
	throw_json = excluded.throw_json,
	context_json = excluded.context_json,
	updated_at = excluded.updated_at
`,
		strings.TrimSpace(st.PlayerKey),
		string(st.Status),
		string(bagJSON),
		string(throwJSON),
		string(contextJSON),
		st.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put raid state: %w", err)
	}
	return nil
}

// UpsertItem writes one catalog item definition.
func (s *Store) UpsertItem(ctx context.Context, it item.Item) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	it.ID = strings.TrimSpace(it.ID)
	if it.ID == "" {
		return fmt.Errorf("item id is required")
	}
	attrs := it.Attrs
	if attrs == nil {
		attrs = map[string]float64{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode item attrs: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO items (item_id, name, category, rarity, tier, ammo_type, mag_size, attrs_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (item_id) DO UPDATE SET
	name = excluded.name,
	category = excluded.category,
	rarity = excluded.rarity,
	tier = excluded.tier,
	ammo_type = excluded.ammo_type,
	mag_size = excluded.mag_size,
	attrs_json = excluded.attrs_json
`,
		it.ID,
		it.Name,
		string(it.Category),
		it.Rarity,
		it.Tier,
		it.AmmoType,
		it.MagSize,
		string(attrsJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", it.ID, err)
	}
	return nil
}

// GetItem loads one catalog item definition.
func (s *Store) GetItem(ctx context.Context, itemID string) (item.Item, error) {
	if err := s.ready(ctx); err != nil {
		return item.Item{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT item_id, name, category, rarity, tier, ammo_type, mag_size, attrs_json
FROM items
WHERE item_id = ?
`, strings.TrimSpace(itemID))
	it, err := scanItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return item.Item{}, storage.ErrNotFound
		}
		return item.Item{}, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return it, nil
}

// ListItems loads the whole catalog.
func (s *Store) ListItems(ctx context.Context) ([]item.Item, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT item_id, name, category, rarity, tier, ammo_type, mag_size, attrs_json
FROM items
ORDER BY item_id
`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func scanItem(scan func(...any) error) (item.Item, error) {
	var (
		it        item.Item
		category  string
		attrsJSON string
	)
	if err := scan(&it.ID, &it.Name, &category, &it.Rarity, &it.Tier, &it.AmmoType, &it.MagSize, &attrsJSON); err != nil {
		return item.Item{}, err
	}
	it.Category = item.Category(category)
	if strings.TrimSpace(attrsJSON) != "" {
		if err := json.Unmarshal([]byte(attrsJSON), &it.Attrs); err != nil {
			return item.Item{}, fmt.Errorf("decode item attrs: %w", err)
		}
	}
	return it, nil
}

// InsertInstance persists a freshly minted durable instance.
func (s *Store) InsertInstance(ctx context.Context, playerKey string, loc storage.Location, inst *item.Instance) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if inst == nil || strings.TrimSpace(inst.InstanceID) == "" {
		return fmt.Errorf("instance id is required")
	}
	playerKey = strings.TrimSpace(playerKey)
	if playerKey == "" {
		return fmt.Errorf("player key is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO item_instances (
	instance_id,
	player_key,
	item_id,
	location,
	durability,
	durability_max,
	ammo_type,
	loaded_ammo,
	ammo_in_mag,
	mag_size,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		inst.InstanceID,
		playerKey,
		inst.ItemID,
		string(loc),
		inst.Durability,
		inst.DurabilityMax,
		inst.AmmoType,
		inst.LoadedAmmo,
		inst.AmmoInMag,
		inst.MagSize,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert instance %s: %w", inst.InstanceID, err)
	}
	return nil
}

// GetInstance loads one durable instance with its ownership row.
func (s *Store) GetInstance(ctx context.Context, instanceID string) (storage.InstanceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.InstanceRecord{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT instance_id, player_key, item_id, location, durability, durability_max,
	ammo_type, loaded_ammo, ammo_in_mag, mag_size
FROM item_instances
WHERE instance_id = ?
`, strings.TrimSpace(instanceID))
	rec, err := scanInstance(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.InstanceRecord{}, storage.ErrNotFound
		}
		return storage.InstanceRecord{}, fmt.Errorf("get instance %s: %w", instanceID, err)
	}
	return rec, nil
}

// UpdateInstance writes back mutable instance fields.
func (s *Store) UpdateInstance(ctx context.Context, inst *item.Instance) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if inst == nil || strings.TrimSpace(inst.InstanceID) == "" {
		return fmt.Errorf("instance id is required")
	}

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE item_instances
SET durability = ?, loaded_ammo = ?, ammo_in_mag = ?
WHERE instance_id = ?
`, inst.Durability, inst.LoadedAmmo, inst.AmmoInMag, inst.InstanceID)
	if err != nil {
		return fmt.Errorf("update instance %s: %w", inst.InstanceID, err)
	}
	return requireRow(res, "update instance")
}

// MoveInstance relocates an instance between the raid bag and the stash.
func (s *Store) MoveInstance(ctx context.Context, instanceID string, loc storage.Location) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE item_instances SET location = ? WHERE instance_id = ?
`, string(loc), strings.TrimSpace(instanceID))
	if err != nil {
		return fmt.Errorf("move instance %s: %w", instanceID, err)
	}
	return requireRow(res, "move instance")
}

// DeleteInstance removes a destroyed instance.
func (s *Store) DeleteInstance(ctx context.Context, instanceID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM item_instances WHERE instance_id = ?
`, strings.TrimSpace(instanceID))
	if err != nil {
		return fmt.Errorf("delete instance %s: %w", instanceID, err)
	}
	return requireRow(res, "delete instance")
}

// ListInstances loads a player's instances at one location.
func (s *Store) ListInstances(ctx context.Context, playerKey string, loc storage.Location) ([]storage.InstanceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT instance_id, player_key, item_id, location, durability, durability_max,
	ammo_type, loaded_ammo, ammo_in_mag, mag_size
FROM item_instances
WHERE player_key = ? AND location = ?
ORDER BY created_at, instance_id
`, strings.TrimSpace(playerKey), string(loc))
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var records []storage.InstanceRecord
	for rows.Next() {
		rec, err := scanInstance(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return records, nil
}

func scanInstance(scan func(...any) error) (storage.InstanceRecord, error) {
	var (
		rec      storage.InstanceRecord
		location string
	)
	if err := scan(
		&rec.Instance.InstanceID,
		&rec.PlayerKey,
		&rec.Instance.ItemID,
		&location,
		&rec.Instance.Durability,
		&rec.Instance.DurabilityMax,
		&rec.Instance.AmmoType,
		&rec.Instance.LoadedAmmo,
		&rec.Instance.AmmoInMag,
		&rec.Instance.MagSize,
	); err != nil {
		return storage.InstanceRecord{}, err
	}
	rec.Location = storage.Location(location)
	return rec, nil
}

// StashQty reports how many of one item the player has stashed.
func (s *Store) StashQty(ctx context.Context, playerKey, itemID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	var qty int
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT qty FROM stash_stacks WHERE player_key = ? AND item_id = ?
`, strings.TrimSpace(playerKey), strings.TrimSpace(itemID))
	if err := row.Scan(&qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("stash qty: %w", err)
	}
	return qty, nil
}

// AddStashStack adjusts a stash stack by delta. The stack never goes
// negative; an over-withdrawal fails without writing.
func (s *Store) AddStashStack(ctx context.Context, playerKey, itemID string, delta int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	playerKey = strings.TrimSpace(playerKey)
	itemID = strings.TrimSpace(itemID)
	if playerKey == "" || itemID == "" {
		return fmt.Errorf("player key and item id are required")
	}
	if delta == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stash update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var qty int
	row := tx.QueryRowContext(ctx, `
SELECT qty FROM stash_stacks WHERE player_key = ? AND item_id = ?
`, playerKey, itemID)
	if err := row.Scan(&qty); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read stash stack: %w", err)
	}
	next := qty + delta
	if next < 0 {
		return fmt.Errorf("stash stack %s would go negative (%d%+d)", itemID, qty, delta)
	}

	if next == 0 {
		_, err = tx.ExecContext(ctx, `
DELETE FROM stash_stacks WHERE player_key = ? AND item_id = ?
`, playerKey, itemID)
	} else {
		_, err = tx.ExecContext(ctx, `
INSERT INTO stash_stacks (player_key, item_id, qty)
VALUES (?, ?, ?)
ON CONFLICT (player_key, item_id) DO UPDATE SET qty = excluded.qty
`, playerKey, itemID, next)
	}
	if err != nil {
		return fmt.Errorf("write stash stack: %w", err)
	}
	return tx.Commit()
}

// ListStash loads all of a player's stash stacks.
func (s *Store) ListStash(ctx context.Context, playerKey string) (map[string]int, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT item_id, qty FROM stash_stacks WHERE player_key = ? ORDER BY item_id
`, strings.TrimSpace(playerKey))
	if err != nil {
		return nil, fmt.Errorf("list stash: %w", err)
	}
	defer rows.Close()

	stash := make(map[string]int)
	for rows.Next() {
		var (
			itemID string
			qty    int
		)
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, fmt.Errorf("scan stash stack: %w", err)
		}
		if qty > 0 {
			stash[itemID] = qty
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stash: %w", err)
	}
	return stash, nil
}

// GetLoadout loads the player's equipment selection.
func (s *Store) GetLoadout(ctx context.Context, playerKey string) (storage.LoadoutRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.LoadoutRecord{}, err
	}

	rec := storage.LoadoutRecord{PlayerKey: strings.TrimSpace(playerKey)}
	var starter int
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT primary_item, secondary_item, melee_item, armor_instance, starter_granted
FROM loadouts
WHERE player_key = ?
`, rec.PlayerKey)
	if err := row.Scan(&rec.Primary, &rec.Secondary, &rec.Melee, &rec.ArmorInstance, &starter); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.LoadoutRecord{}, storage.ErrNotFound
		}
		return storage.LoadoutRecord{}, fmt.Errorf("get loadout: %w", err)
	}
	rec.StarterGranted = starter != 0
	return rec, nil
}

// PutLoadout upserts the player's equipment selection.
func (s *Store) PutLoadout(ctx context.Context, rec storage.LoadoutRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	rec.PlayerKey = strings.TrimSpace(rec.PlayerKey)
	if rec.PlayerKey == "" {
		return fmt.Errorf("player key is required")
	}
	starter := 0
	if rec.StarterGranted {
		starter = 1
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO loadouts (player_key, primary_item, secondary_item, melee_item, armor_instance, starter_granted)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (player_key) DO UPDATE SET
	primary_item = excluded.primary_item,
	secondary_item = excluded.secondary_item,
	melee_item = excluded.melee_item,
	armor_instance = excluded.armor_instance,
	starter_granted = excluded.starter_granted
`,
		rec.PlayerKey,
		rec.Primary,
		rec.Secondary,
		rec.Melee,
		rec.ArmorInstance,
		starter,
	)
	if err != nil {
		return fmt.Errorf("put loadout: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
