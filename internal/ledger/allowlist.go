package ledger

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// CodeInspector reports the fingerprint of code deployed behind an identity.
// Plain accounts have no code and report ok == false.
type CodeInspector interface {
	CodeHash(id Identity) (hash common.Hash, ok bool)
}

type noCode struct{}

func (noCode) CodeHash(Identity) (common.Hash, bool) { return common.Hash{}, false }

// CodeHashOf fingerprints deployed code with Keccak-256.
func CodeHashOf(code []byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(code)
	var out common.Hash
	h.Sum(out[:0])
	return out
}

type allowlist struct {
	addresses  map[Identity]struct{}
	codeHashes map[common.Hash]struct{}
}

func newAllowlist() *allowlist {
	return &allowlist{
		addresses:  make(map[Identity]struct{}),
		codeHashes: make(map[common.Hash]struct{}),
	}
}

func (a *allowlist) hasAddress(id Identity) bool {
	_, ok := a.addresses[id]
	return ok
}

func (a *allowlist) hasCodeHash(hash common.Hash) bool {
	_, ok := a.codeHashes[hash]
	return ok
}

// IsAllowlisted reports whether target is listed directly or through the
// fingerprint of its code.
func (s *State) IsAllowlisted(target Identity) bool {
	if s.allow.hasAddress(target) {
		return true
	}
	hash, ok := s.code.CodeHash(target)
	return ok && s.allow.hasCodeHash(hash)
}

// IsCodeHashAllowlisted reports whether a code fingerprint is listed.
func (s *State) IsCodeHashAllowlisted(hash common.Hash) bool {
	return s.allow.hasCodeHash(hash)
}

// AllowlistedAddresses returns listed addresses in no particular order.
func (s *State) AllowlistedAddresses() []Identity {
	out := make([]Identity, 0, len(s.allow.addresses))
	for id := range s.allow.addresses {
		out = append(out, id)
	}
	return out
}

// AllowlistedCodeHashes returns listed fingerprints in byte order.
func (s *State) AllowlistedCodeHashes() []common.Hash {
	out := make([]common.Hash, 0, len(s.allow.codeHashes))
	for hash := range s.allow.codeHashes {
		out = append(out, hash)
	}
	slices.SortFunc(out, func(a, b common.Hash) int { return a.Cmp(b) })
	return out
}

// ValidateApproval decides whether grantor may hand operator rights to target.
// Self-approval and plain accounts pass; counterparties with code must be listed.
func (s *State) ValidateApproval(grantor, target Identity) error {
	if grantor == target {
		return nil
	}
	if _, hasCode := s.code.CodeHash(target); !hasCode {
		return nil
	}
	if s.IsAllowlisted(target) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOperatorNotAllowlisted, target.Hex())
}
