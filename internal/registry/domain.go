package registry

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/shared"
)

var (
	// ErrNotBooted indicates the service has no committed state loaded.
	ErrNotBooted = errors.New("registry: not booted")
	// ErrIntegrity indicates live, stored or published state disagree.
	ErrIntegrity = errors.New("registry: integrity check failed")
)

// RepositoryPort abstracts durable storage of the event stream and code book.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	LoadEvents(ctx context.Context) ([]ledger.Event, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]ledger.Event, error)
	LoadCode(ctx context.Context) ([]CodeRecord, error)
}

// TxRepository exposes the writes performed inside one transaction.
type TxRepository interface {
	AppendEvents(ctx context.Context, events []ledger.Event) error
	UpsertCode(ctx context.Context, rec CodeRecord) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Publisher fans committed events out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, events []ledger.Event) error
}

// HeadReader returns the last published stream position.
type HeadReader interface {
	Head(ctx context.Context) (Head, bool, error)
}

// MetricsPort receives command outcomes and the committed head.
type MetricsPort interface {
	ObserveCommand(op, outcome string, elapsed time.Duration)
	SetHead(version, seq uint64)
}

// CodeRecord binds a counterparty to the fingerprint of its deployed code.
type CodeRecord struct {
	Account      ledger.Identity `json:"account"`
	CodeHash     common.Hash     `json:"code_hash"`
	RegisteredBy ledger.Identity `json:"registered_by"`
	RegisteredAt time.Time       `json:"registered_at"`
}

// Head is a stream position.
type Head struct {
	Version uint64    `json:"version"`
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
}

// CollectionInfo summarises collection-level state.
type CollectionInfo struct {
	Name           string              `json:"name"`
	Symbol         string              `json:"symbol"`
	BaseURI        string              `json:"base_uri"`
	ContractURI    string              `json:"contract_uri"`
	TotalSupply    uint64              `json:"total_supply"`
	NextTokenID    uint64              `json:"next_token_id"`
	DefaultRoyalty ledger.RoyaltyTerms `json:"default_royalty"`
	Version        uint64              `json:"version"`
	Seq            uint64              `json:"seq"`
}

// TokenView is the read model of one live asset.
type TokenView struct {
	ID       uint64          `json:"id"`
	Owner    ledger.Identity `json:"owner"`
	Approved ledger.Identity `json:"approved"`
	URI      string          `json:"uri"`
}

// IntegrityReport describes a successful consistency check.
type IntegrityReport struct {
	Events    int       `json:"events"`
	Version   uint64    `json:"version"`
	Seq       uint64    `json:"seq"`
	Supply    uint64    `json:"supply"`
	CheckedAt time.Time `json:"checked_at"`
}
