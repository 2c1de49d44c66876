package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
)

// CodeBook is the in-memory ledger.CodeInspector built from registered
// counterparty code. It is guarded by the owning Service lock.
type CodeBook struct {
	records map[ledger.Identity]CodeRecord
}

// NewCodeBook returns an empty code book.
func NewCodeBook() *CodeBook {
	return &CodeBook{records: make(map[ledger.Identity]CodeRecord)}
}

// CodeHash implements ledger.CodeInspector.
func (b *CodeBook) CodeHash(id ledger.Identity) (common.Hash, bool) {
	rec, ok := b.records[id]
	if !ok {
		return common.Hash{}, false
	}
	return rec.CodeHash, true
}

// Record returns the registration for id.
func (b *CodeBook) Record(id ledger.Identity) (CodeRecord, bool) {
	rec, ok := b.records[id]
	return rec, ok
}

// Len counts registered counterparties.
func (b *CodeBook) Len() int {
	return len(b.records)
}

func (b *CodeBook) set(rec CodeRecord) {
	b.records[rec.Account] = rec
}

func (b *CodeBook) load(recs []CodeRecord) {
	for _, rec := range recs {
		b.set(rec)
	}
}
