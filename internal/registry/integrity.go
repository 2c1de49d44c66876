package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
)

// VerifyIntegrity replays the stored stream into a fresh state and compares
// it with the live one. Mutations wait until the check completes.
func (s *Service) VerifyIntegrity(ctx context.Context) (IntegrityReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return IntegrityReport{}, ErrNotBooted
	}
	events, err := s.repo.LoadEvents(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("registry: load events: %w", err)
	}
	replayed, err := ledger.Restore(events, ledger.WithCodeInspector(s.codes))
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("%w: replay: %v", ErrIntegrity, err)
	}
	if err := s.state.CheckInvariants(); err != nil {
		return IntegrityReport{}, fmt.Errorf("%w: live state: %v", ErrIntegrity, err)
	}
	if err := compareStates(s.state, replayed); err != nil {
		return IntegrityReport{}, err
	}
	return IntegrityReport{
		Events:    len(events),
		Version:   replayed.Version(),
		Seq:       replayed.Seq(),
		Supply:    replayed.TotalSupply(),
		CheckedAt: s.now().UTC(),
	}, nil
}

// CheckStream replays the stored stream, verifies its invariants and checks
// that nothing was published beyond what was stored.
func CheckStream(ctx context.Context, repo RepositoryPort, heads HeadReader) (IntegrityReport, error) {
	events, err := repo.LoadEvents(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("registry: load events: %w", err)
	}
	replayed, err := ledger.Restore(events)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("%w: replay: %v", ErrIntegrity, err)
	}
	if err := replayed.CheckInvariants(); err != nil {
		return IntegrityReport{}, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if heads != nil {
		head, ok, err := heads.Head(ctx)
		if err != nil {
			return IntegrityReport{}, fmt.Errorf("registry: read published head: %w", err)
		}
		if ok && head.Seq > replayed.Seq() {
			return IntegrityReport{}, fmt.Errorf("%w: published seq %d ahead of stored seq %d", ErrIntegrity, head.Seq, replayed.Seq())
		}
	}
	return IntegrityReport{
		Events:  len(events),
		Version: replayed.Version(),
		Seq:     replayed.Seq(),
		Supply:  replayed.TotalSupply(),
	}, nil
}

func compareStates(live, replayed *ledger.State) error {
	mismatch := func(what string, a, b any) error {
		return fmt.Errorf("%w: %s live=%v stored=%v", ErrIntegrity, what, a, b)
	}
	if live.Version() != replayed.Version() {
		return mismatch("version", live.Version(), replayed.Version())
	}
	if live.Seq() != replayed.Seq() {
		return mismatch("seq", live.Seq(), replayed.Seq())
	}
	if live.TotalSupply() != replayed.TotalSupply() {
		return mismatch("supply", live.TotalSupply(), replayed.TotalSupply())
	}
	if live.NextTokenID() != replayed.NextTokenID() {
		return mismatch("next token id", live.NextTokenID(), replayed.NextTokenID())
	}
	for i := uint64(0); i < live.TotalSupply(); i++ {
		a, _ := live.TokenByIndex(i)
		b, _ := replayed.TokenByIndex(i)
		if a != b {
			return mismatch(fmt.Sprintf("token at index %d", i), a, b)
		}
		ownerA, _ := live.OwnerOf(a)
		ownerB, _ := replayed.OwnerOf(b)
		if ownerA != ownerB {
			return mismatch(fmt.Sprintf("owner of token %d", a), ownerA.Hex(), ownerB.Hex())
		}
		approvedA, _ := live.GetApproved(a)
		approvedB, _ := replayed.GetApproved(b)
		if approvedA != approvedB {
			return mismatch(fmt.Sprintf("approval of token %d", a), approvedA.Hex(), approvedB.Hex())
		}
		royaltyA, okA := live.TokenRoyalty(a)
		royaltyB, okB := replayed.TokenRoyalty(b)
		if okA != okB || royaltyA != royaltyB {
			return mismatch(fmt.Sprintf("royalty of token %d", a), royaltyA, royaltyB)
		}
	}
	opsA, opsB := live.ApprovalsForAll(), replayed.ApprovalsForAll()
	if !maps.EqualFunc(opsA, opsB, slices.Equal) {
		return mismatch("operator approvals", opsA, opsB)
	}
	for _, role := range []ledger.Role{ledger.RoleAdmin, ledger.RoleMinter, ledger.RoleRegistrar} {
		if !slices.Equal(live.RoleHolders(role), replayed.RoleHolders(role)) {
			return mismatch(string(role)+" holders", live.RoleHolders(role), replayed.RoleHolders(role))
		}
	}
	if live.BaseURI() != replayed.BaseURI() {
		return mismatch("base uri", live.BaseURI(), replayed.BaseURI())
	}
	if live.ContractURI() != replayed.ContractURI() {
		return mismatch("contract uri", live.ContractURI(), replayed.ContractURI())
	}
	addrA, addrB := sortedIdentities(live.AllowlistedAddresses()), sortedIdentities(replayed.AllowlistedAddresses())
	if !slices.Equal(addrA, addrB) {
		return mismatch("allowlisted addresses", addrA, addrB)
	}
	if !slices.Equal(live.AllowlistedCodeHashes(), replayed.AllowlistedCodeHashes()) {
		return mismatch("allowlisted code hashes", live.AllowlistedCodeHashes(), replayed.AllowlistedCodeHashes())
	}
	if live.DefaultRoyalty() != replayed.DefaultRoyalty() {
		return mismatch("default royalty", live.DefaultRoyalty(), replayed.DefaultRoyalty())
	}
	return nil
}

func sortedIdentities(ids []ledger.Identity) []ledger.Identity {
	slices.SortFunc(ids, func(a, b ledger.Identity) int { return a.Cmp(b) })
	return ids
}
