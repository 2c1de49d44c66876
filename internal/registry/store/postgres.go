// Package store persists the registry event stream and code book.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/platform/db"
	"github.com/odyssey-erp/nft-registry/internal/registry"
)

const uniqueViolation = "23505"

// Postgres persists registry data in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs Postgres.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ registry.RepositoryPort = (*Postgres)(nil)

type pgTx struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a serializable transaction.
func (r *Postgres) WithTx(ctx context.Context, fn func(context.Context, registry.TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

// LoadEvents returns the whole stream in sequence order.
func (r *Postgres) LoadEvents(ctx context.Context) ([]ledger.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT payload FROM registry_events ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEvent)
}

// ListEvents returns up to limit events after afterSeq.
func (r *Postgres) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]ledger.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT payload FROM registry_events WHERE seq > $1 ORDER BY seq LIMIT $2`, int64(afterSeq), limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEvent)
}

// LoadCode returns every registered counterparty.
func (r *Postgres) LoadCode(ctx context.Context) ([]registry.CodeRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT account, code_hash, registered_by, registered_at FROM counterparty_code`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (registry.CodeRecord, error) {
		var (
			account, hash, by []byte
			at                time.Time
		)
		if err := row.Scan(&account, &hash, &by, &at); err != nil {
			return registry.CodeRecord{}, err
		}
		return registry.CodeRecord{
			Account:      common.BytesToAddress(account),
			CodeHash:     common.BytesToHash(hash),
			RegisteredBy: common.BytesToAddress(by),
			RegisteredAt: at,
		}, nil
	})
}

func scanEvent(row pgx.CollectableRow) (ledger.Event, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return ledger.Event{}, err
	}
	var e ledger.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return ledger.Event{}, fmt.Errorf("store: decode event: %w", err)
	}
	return e, nil
}

// AppendEvents stores events after checking they extend the stored head.
func (t *pgTx) AppendEvents(ctx context.Context, events []ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	var head int64
	if err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM registry_events`).Scan(&head); err != nil {
		return err
	}
	if uint64(head)+1 != events[0].Seq {
		return fmt.Errorf("%w: stored head %d, changeset starts at %d", ledger.ErrStaleChangeset, head, events[0].Seq)
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("store: event %d id: %w", e.Seq, err)
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		batch.Queue(`INSERT INTO registry_events (seq, id, version, kind, actor, payload, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			int64(e.Seq), id, int64(e.Version), string(e.Kind), e.Actor.Bytes(), payload, e.At)
	}
	results := t.tx.SendBatch(ctx, batch)
	for range events {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", ledger.ErrStaleChangeset, pgErr.Detail)
			}
			return err
		}
	}
	return results.Close()
}

// UpsertCode records or replaces a counterparty fingerprint.
func (t *pgTx) UpsertCode(ctx context.Context, rec registry.CodeRecord) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO counterparty_code (account, code_hash, registered_by, registered_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (account) DO UPDATE SET code_hash = EXCLUDED.code_hash, registered_by = EXCLUDED.registered_by, registered_at = EXCLUDED.registered_at`,
		rec.Account.Bytes(), rec.CodeHash.Bytes(), rec.RegisteredBy.Bytes(), rec.RegisteredAt)
	return err
}
