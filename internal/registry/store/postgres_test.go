package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/platform/db"
	"github.com/odyssey-erp/nft-registry/internal/registry"
	"github.com/odyssey-erp/nft-registry/migrations"
)

// REGISTRY_TEST_PG_DSN points at a disposable database.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("REGISTRY_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("REGISTRY_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = db.Migrate(ctx, pool, migrations.Files)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE registry_events, counterparty_code`)
	require.NoError(t, err)
	return NewPostgres(pool)
}

func TestPostgresRoundTrip(t *testing.T) {
	repo := newTestPostgres(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	actor := common.HexToAddress("0xa1")

	events := []ledger.Event{
		{ID: uuid.NewString(), Seq: 1, Version: 1, Kind: ledger.EventCollectionCreated, At: at, Name: "Registry", Symbol: "REG"},
		{ID: uuid.NewString(), Seq: 2, Version: 1, Kind: ledger.EventRoleGranted, At: at, Role: ledger.RoleAdmin, Account: actor},
	}
	require.NoError(t, repo.WithTx(ctx, func(ctx context.Context, tx registry.TxRepository) error {
		return tx.AppendEvents(ctx, events)
	}))

	stale := []ledger.Event{{ID: uuid.NewString(), Seq: 2, Version: 2, Kind: ledger.EventBaseURIUpdated, At: at}}
	err := repo.WithTx(ctx, func(ctx context.Context, tx registry.TxRepository) error {
		return tx.AppendEvents(ctx, stale)
	})
	require.ErrorIs(t, err, ledger.ErrStaleChangeset)

	loaded, err := repo.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, actor, loaded[1].Account)
	require.Equal(t, "Registry", loaded[0].Name)

	rec := registry.CodeRecord{Account: common.HexToAddress("0xf1"), CodeHash: ledger.CodeHashOf([]byte{1}), RegisteredBy: actor, RegisteredAt: at}
	require.NoError(t, repo.WithTx(ctx, func(ctx context.Context, tx registry.TxRepository) error {
		return tx.UpsertCode(ctx, rec)
	}))
	code, err := repo.LoadCode(ctx)
	require.NoError(t, err)
	require.Len(t, code, 1)
	require.Equal(t, rec.CodeHash, code[0].CodeHash)
}
