package ledger

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var errNotCreated = errors.New("ledger: collection not created")

// State is the versioned registry state. It performs no locking: callers
// provide a total order over Apply and must not read while applying.
type State struct {
	roles     *roleRegistry
	tokens    *ownershipLedger
	meta      collectionMetadata
	royalties *royaltyBook
	allow     *allowlist
	code      CodeInspector
	now       func() time.Time
	created   bool
	version   uint64
	seq       uint64
}

// Option customises a State.
type Option func(*State)

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeInspector sets the source of counterparty code fingerprints.
func WithCodeInspector(ci CodeInspector) Option {
	return func(s *State) {
		if ci != nil {
			s.code = ci
		}
	}
}

// Open returns an empty state awaiting a Genesis command or a replay.
func Open(opts ...Option) *State {
	s := &State{
		roles:     newRoleRegistry(),
		tokens:    newOwnershipLedger(),
		royalties: newRoyaltyBook(),
		allow:     newAllowlist(),
		code:      noCode{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New creates a collection from its construction parameters.
func New(g Genesis, opts ...Option) (*State, error) {
	s := Open(opts...)
	if _, err := s.Execute(g); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore rebuilds a state from a stored event stream.
func Restore(events []Event, opts ...Option) (*State, error) {
	s := Open(opts...)
	if err := s.Replay(events); err != nil {
		return nil, err
	}
	return s, nil
}

// Plan validates cmd against committed state and returns the events it would
// produce. State is never modified.
func (s *State) Plan(cmd Command) (Changeset, error) {
	if cmd == nil {
		return Changeset{}, invalidArgument("command required")
	}
	if _, genesis := cmd.(Genesis); !genesis && !s.created {
		return Changeset{}, errNotCreated
	}
	p := &planner{base: s.version, seq: s.seq, at: s.now().UTC(), actor: cmd.caller()}
	if err := cmd.plan(s, p); err != nil {
		return Changeset{}, err
	}
	return Changeset{BaseVersion: s.version, Events: p.out}, nil
}

// Apply commits a planned changeset. It is the only path that mutates state.
func (s *State) Apply(cs Changeset) error {
	if cs.BaseVersion != s.version {
		return fmt.Errorf("%w: planned at version %d, state at %d", ErrStaleChangeset, cs.BaseVersion, s.version)
	}
	if cs.Empty() {
		return nil
	}
	if cs.Events[0].Seq != s.seq+1 {
		return fmt.Errorf("%w: changeset starts at seq %d, state at %d", ErrStaleChangeset, cs.Events[0].Seq, s.seq)
	}
	for _, e := range cs.Events {
		if err := s.applyEvent(e); err != nil {
			return fmt.Errorf("ledger: apply %s: %w", e.Kind, err)
		}
		s.seq = e.Seq
	}
	s.version = cs.BaseVersion + 1
	return nil
}

// Execute plans and applies cmd in one step.
func (s *State) Execute(cmd Command) ([]Event, error) {
	cs, err := s.Plan(cmd)
	if err != nil {
		return nil, err
	}
	if err := s.Apply(cs); err != nil {
		return nil, err
	}
	return cs.Events, nil
}

// Replay applies a stored stream in order. A failed replay leaves the state
// unusable.
func (s *State) Replay(events []Event) error {
	for _, e := range events {
		if e.Seq != s.seq+1 {
			return fmt.Errorf("ledger: replay gap: expected seq %d, got %d", s.seq+1, e.Seq)
		}
		if e.Version != s.version && e.Version != s.version+1 {
			return fmt.Errorf("ledger: replay version jump at seq %d: %d -> %d", e.Seq, s.version, e.Version)
		}
		if err := s.applyEvent(e); err != nil {
			return fmt.Errorf("ledger: replay seq %d: %w", e.Seq, err)
		}
		s.seq = e.Seq
		s.version = e.Version
	}
	return nil
}

func (s *State) applyEvent(e Event) error {
	switch e.Kind {
	case EventCollectionCreated:
		if s.created {
			return errors.New("collection already created")
		}
		s.meta.name = e.Name
		s.meta.symbol = e.Symbol
		s.created = true
	case EventRoleGranted:
		s.roles.grant(e.Role, e.Account)
	case EventRoleRevoked:
		s.roles.revoke(e.Role, e.Account)
	case EventTransfer:
		switch {
		case isZero(e.From):
			return s.tokens.mint(e.TokenID, e.To)
		case isZero(e.To):
			delete(s.royalties.overrides, e.TokenID)
			return s.tokens.burn(e.TokenID)
		default:
			return s.tokens.transfer(e.TokenID, e.To)
		}
	case EventApproval:
		return s.tokens.approve(e.TokenID, e.Operator)
	case EventApprovalForAll:
		s.tokens.setOperator(e.Account, e.Operator, e.Approved)
	case EventAllowlistAddressAdded:
		s.allow.addresses[e.Account] = struct{}{}
	case EventAllowlistAddressRemoved:
		delete(s.allow.addresses, e.Account)
	case EventAllowlistCodeHashAdded:
		s.allow.codeHashes[e.CodeHash] = struct{}{}
	case EventAllowlistCodeHashRemoved:
		delete(s.allow.codeHashes, e.CodeHash)
	case EventBaseURIUpdated:
		s.meta.baseURI = e.URI
	case EventContractURIUpdated:
		s.meta.contractURI = e.URI
	case EventDefaultRoyaltyUpdated:
		s.royalties.defaults = RoyaltyTerms{Beneficiary: e.Account, FeeFraction: e.Fraction}
	case EventTokenRoyaltyUpdated:
		s.royalties.overrides[e.TokenID] = RoyaltyTerms{Beneficiary: e.Account, FeeFraction: e.Fraction}
	case EventTokenRoyaltyReset:
		delete(s.royalties.overrides, e.TokenID)
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

// Version counts committed non-empty changesets.
func (s *State) Version() uint64 { return s.version }

// Seq is the sequence number of the last applied event.
func (s *State) Seq() uint64 { return s.seq }

// Created reports whether the genesis changeset has been applied.
func (s *State) Created() bool { return s.created }

// HasRole reports role membership.
func (s *State) HasRole(role Role, id Identity) bool { return s.roles.has(role, id) }

// RoleHolders lists current holders in grant order.
func (s *State) RoleHolders(role Role) []Identity { return s.roles.holders(role) }

// Admins lists current administrator-role holders.
func (s *State) Admins() []Identity { return s.roles.holders(RoleAdmin) }

// OwnerOf returns the owner of a live asset.
func (s *State) OwnerOf(id uint64) (Identity, error) {
	a, err := s.tokens.lookup(id)
	if err != nil {
		return ZeroIdentity, err
	}
	return a.owner, nil
}

// Exists reports whether the asset is minted and not burned.
func (s *State) Exists(id uint64) bool {
	_, ok := s.tokens.assets[id]
	return ok
}

// BalanceOf counts assets held by owner.
func (s *State) BalanceOf(owner Identity) uint64 {
	return uint64(len(s.tokens.owned[owner]))
}

// TotalSupply counts live assets.
func (s *State) TotalSupply() uint64 {
	return uint64(len(s.tokens.all))
}

// NextTokenID is the id the next mint will assign.
func (s *State) NextTokenID() uint64 {
	return s.tokens.nextID
}

// TokenOfOwnerByIndex returns the index-th asset in owner's bucket.
func (s *State) TokenOfOwnerByIndex(owner Identity, index uint64) (uint64, error) {
	bucket := s.tokens.owned[owner]
	if index >= uint64(len(bucket)) {
		return 0, fmt.Errorf("%w: owner %s index %d, balance %d", ErrIndexOutOfRange, owner.Hex(), index, len(bucket))
	}
	return bucket[index], nil
}

// TokenByIndex returns the index-th live asset.
func (s *State) TokenByIndex(index uint64) (uint64, error) {
	if index >= uint64(len(s.tokens.all)) {
		return 0, fmt.Errorf("%w: index %d, supply %d", ErrIndexOutOfRange, index, len(s.tokens.all))
	}
	return s.tokens.all[index], nil
}

// TokensOfOwner copies owner's bucket in enumeration order.
func (s *State) TokensOfOwner(owner Identity) []uint64 {
	bucket := s.tokens.owned[owner]
	out := make([]uint64, len(bucket))
	copy(out, bucket)
	return out
}

// GetApproved returns the per-asset operator or the zero identity.
func (s *State) GetApproved(id uint64) (Identity, error) {
	a, err := s.tokens.lookup(id)
	if err != nil {
		return ZeroIdentity, err
	}
	return a.approved, nil
}

// IsApprovedForAll reports whether operator manages every asset of owner.
func (s *State) IsApprovedForAll(owner, operator Identity) bool {
	return s.tokens.isOperator(owner, operator)
}

// ApprovalsForAll maps each owner to its approved-for-all operators, sorted.
func (s *State) ApprovalsForAll() map[Identity][]Identity {
	out := make(map[Identity][]Identity, len(s.tokens.operators))
	for owner, ops := range s.tokens.operators {
		list := make([]Identity, 0, len(ops))
		for op := range ops {
			list = append(list, op)
		}
		slices.SortFunc(list, func(a, b Identity) int { return a.Cmp(b) })
		out[owner] = list
	}
	return out
}

// CheckInvariants verifies enumeration consistency.
func (s *State) CheckInvariants() error {
	if !s.created {
		return errNotCreated
	}
	return s.tokens.check()
}
