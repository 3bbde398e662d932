package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"cardtracker/internal/apperr"
	"cardtracker/internal/collection"

	"github.com/pkg/errors"
)

// UpsertCollector registers a collector id; existing ids are left alone.
func (d *DB) UpsertCollector(ctx context.Context, id string) error {
	_, err := d.exec(ctx, d.conn, `
		INSERT INTO collectors (id, created_at) VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING
	`, id, timestamp(time.Now()))
	return errors.Wrap(err, "upserting collector")
}

func (d *DB) collectorExists(ctx context.Context, id string) error {
	var one int
	err := d.queryRow(ctx, d.conn, `SELECT 1 FROM collectors WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("collector %q", id)
	}
	return errors.Wrap(err, "looking up collector")
}

// AddOwnedItem registers the collector if needed and adds item, merging the
// quantity into an existing (item, variant) row.
func (d *DB) AddOwnedItem(ctx context.Context, collectorID string, item collection.OwnedItem) error {
	if item.ItemID == "" {
		return apperr.InvalidInput("item id is required")
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	return d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := d.exec(ctx, tx, `
			INSERT INTO collectors (id, created_at) VALUES (?, ?)
			ON CONFLICT (id) DO NOTHING
		`, collectorID, timestamp(time.Now())); err != nil {
			return errors.Wrap(err, "upserting collector")
		}
		_, err := d.exec(ctx, tx, `
			INSERT INTO owned_items (collector_id, item_id, variant, quantity)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (collector_id, item_id, variant)
			DO UPDATE SET quantity = owned_items.quantity + excluded.quantity
		`, collectorID, item.ItemID, item.Variant, item.Quantity)
		return errors.Wrap(err, "adding owned item")
	})
}

func (d *DB) OwnedItems(ctx context.Context, collectorID string) ([]collection.OwnedItem, error) {
	if err := d.collectorExists(ctx, collectorID); err != nil {
		return nil, err
	}
	rows, err := d.query(ctx, d.conn, `
		SELECT item_id, quantity, variant FROM owned_items
		WHERE collector_id = ? ORDER BY item_id, variant
	`, collectorID)
	if err != nil {
		return nil, errors.Wrap(err, "listing owned items")
	}
	defer rows.Close()

	var out []collection.OwnedItem
	for rows.Next() {
		var it collection.OwnedItem
		if err := rows.Scan(&it.ItemID, &it.Quantity, &it.Variant); err != nil {
			return nil, errors.Wrap(err, "scanning owned item")
		}
		out = append(out, it)
	}
	return out, errors.Wrap(rows.Err(), "iterating owned items")
}

// PutDescriptor inserts or replaces an item descriptor.
func (d *DB) PutDescriptor(ctx context.Context, desc collection.ItemDescriptor) error {
	tags := desc.CategoryTags
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return errors.Wrap(err, "encoding category tags")
	}
	_, err = d.exec(ctx, d.conn, `
		INSERT INTO item_descriptors (item_id, display_name, category_tags)
		VALUES (?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE
		SET display_name = excluded.display_name, category_tags = excluded.category_tags
	`, desc.ItemID, desc.DisplayName, string(raw))
	return errors.Wrap(err, "putting descriptor")
}

// ItemDescriptors returns the descriptors that exist for itemIDs. Missing ids
// are simply absent from the map.
func (d *DB) ItemDescriptors(ctx context.Context, itemIDs []string) (map[string]collection.ItemDescriptor, error) {
	out := make(map[string]collection.ItemDescriptor, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(itemIDs))
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := d.query(ctx, d.conn, `
		SELECT item_id, display_name, category_tags FROM item_descriptors
		WHERE item_id IN (`+strings.Join(placeholders, ",")+`)
	`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "loading descriptors")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			desc collection.ItemDescriptor
			raw  []byte
		)
		if err := rows.Scan(&desc.ItemID, &desc.DisplayName, &raw); err != nil {
			return nil, errors.Wrap(err, "scanning descriptor")
		}
		if err := json.Unmarshal(raw, &desc.CategoryTags); err != nil {
			return nil, errors.Wrapf(err, "decoding tags of %s", desc.ItemID)
		}
		out[desc.ItemID] = desc
	}
	return out, errors.Wrap(rows.Err(), "iterating descriptors")
}

// PutSet inserts or replaces a set reference.
func (d *DB) PutSet(ctx context.Context, ref collection.SetReference) error {
	_, err := d.exec(ctx, d.conn, `
		INSERT INTO card_sets (set_id, display_name, total_item_count)
		VALUES (?, ?, ?)
		ON CONFLICT (set_id) DO UPDATE
		SET display_name = excluded.display_name, total_item_count = excluded.total_item_count
	`, ref.SetID, ref.DisplayName, ref.TotalItemCount)
	return errors.Wrap(err, "putting set")
}

func (d *DB) SetReference(ctx context.Context, setID string) (collection.SetReference, bool, error) {
	ref := collection.SetReference{SetID: setID}
	err := d.queryRow(ctx, d.conn, `
		SELECT display_name, total_item_count FROM card_sets WHERE set_id = ?
	`, setID).Scan(&ref.DisplayName, &ref.TotalItemCount)
	if errors.Is(err, sql.ErrNoRows) {
		return collection.SetReference{}, false, nil
	}
	if err != nil {
		return collection.SetReference{}, false, errors.Wrap(err, "loading set")
	}
	return ref, true, nil
}
