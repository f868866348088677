package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Persister stores the full line-item collection under a key. The key has a
// single logical writer; last write wins.
type Persister interface {
	Save(ctx context.Context, key string, items []LineItem) error
	Load(ctx context.Context, key string) ([]LineItem, error)
}

// PostgresPersister keeps one serialized snapshot row per cart key. There is
// no versioning: snapshots written against older model shapes round-trip
// with zero values in fields they never had.
type PostgresPersister struct {
	db *sql.DB
}

func NewPostgresPersister(db *sql.DB) *PostgresPersister {
	return &PostgresPersister{db: db}
}

func (p *PostgresPersister) Save(ctx context.Context, key string, items []LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO cart_snapshots (key, items, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key)
		 DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()`,
		key, data)
	if err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}

	return nil
}

func (p *PostgresPersister) Load(ctx context.Context, key string) ([]LineItem, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT items FROM cart_snapshots WHERE key = $1`,
		key).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}

	return items, nil
}

// MemoryPersister holds snapshots in a map. Used in tests and as a fallback
// when the cart table is unavailable.
type MemoryPersister struct {
	snapshots map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{snapshots: make(map[string][]byte)}
}

func (p *MemoryPersister) Save(_ context.Context, key string, items []LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	p.snapshots[key] = data
	return nil
}

func (p *MemoryPersister) Load(_ context.Context, key string) ([]LineItem, error) {
	data, ok := p.snapshots[key]
	if !ok {
		return nil, nil
	}

	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return items, nil
}
