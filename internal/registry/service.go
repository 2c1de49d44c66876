package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/shared"
)

const (
	defaultEventPage = 100
	maxEventPage     = 1000
)

// Service hosts one collection. It provides the total order the ledger
// expects: mutations run one at a time under mu, and state becomes visible to
// readers only after its events are durably stored. pubMu is taken before mu
// is released so publication follows commit order.
type Service struct {
	mu      sync.RWMutex
	pubMu   sync.Mutex
	state   *ledger.State
	codes   *CodeBook
	repo    RepositoryPort
	audit   AuditPort
	pub     Publisher
	metrics MetricsPort
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService builds Service. audit, pub and metrics are optional.
func NewService(repo RepositoryPort, audit AuditPort, pub Publisher, metrics MetricsPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		codes:   NewCodeBook(),
		repo:    repo,
		audit:   audit,
		pub:     pub,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Boot loads the code book and the stored stream. An empty store is
// initialised from genesis; otherwise genesis is ignored and the stream replayed.
func (s *Service) Boot(ctx context.Context, genesis ledger.Genesis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		return errors.New("registry: already booted")
	}

	records, err := s.repo.LoadCode(ctx)
	if err != nil {
		return fmt.Errorf("registry: load code book: %w", err)
	}
	s.codes.load(records)

	events, err := s.repo.LoadEvents(ctx)
	if err != nil {
		return fmt.Errorf("registry: load events: %w", err)
	}
	opts := []ledger.Option{ledger.WithCodeInspector(s.codes), ledger.WithClock(s.now)}

	if len(events) > 0 {
		state, err := ledger.Restore(events, opts...)
		if err != nil {
			return fmt.Errorf("registry: replay: %w", err)
		}
		if state.Name() != genesis.Name || state.Symbol() != genesis.Symbol {
			s.logger.Warn("stored collection differs from configured genesis",
				slog.String("stored_name", state.Name()),
				slog.String("stored_symbol", state.Symbol()))
		}
		s.state = state
		s.logger.Info("registry replayed",
			slog.Int("events", len(events)),
			slog.Uint64("version", state.Version()),
			slog.Int("code_records", s.codes.Len()))
		s.setHead()
		return nil
	}

	state := ledger.Open(opts...)
	cs, err := state.Plan(genesis)
	if err != nil {
		return fmt.Errorf("registry: genesis: %w", err)
	}
	if err := s.commit(ctx, state, cs); err != nil {
		return err
	}
	s.state = state
	s.logger.Info("collection created",
		slog.String("name", state.Name()),
		slog.String("symbol", state.Symbol()),
		slog.String("admin", genesis.Admin.Hex()))
	s.setHead()
	s.pubMu.Lock()
	s.publish(ctx, cs.Events)
	s.pubMu.Unlock()
	s.recordEvents(ctx, cs.Events)
	return nil
}

// Execute runs cmd as one serial, all-or-nothing step and returns the
// committed events. A command that changes nothing returns no events.
func (s *Service) Execute(ctx context.Context, cmd ledger.Command) ([]ledger.Event, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: command required", ledger.ErrInvalidArgument)
	}
	start := s.now()
	events, err := s.execute(ctx, cmd)
	s.observe(cmd.Op(), len(events), err, start)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		s.publish(ctx, events)
		s.pubMu.Unlock()
	}
	s.recordEvents(ctx, events)
	return events, nil
}

// execute commits cmd. When it returns events the caller owns pubMu.
func (s *Service) execute(ctx context.Context, cmd ledger.Command) ([]ledger.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNotBooted
	}
	cs, err := s.state.Plan(cmd)
	if err != nil {
		return nil, err
	}
	if cs.Empty() {
		return nil, nil
	}
	if err := s.commit(ctx, s.state, cs); err != nil {
		return nil, err
	}
	s.setHead()
	s.pubMu.Lock()
	return cs.Events, nil
}

// commit stores cs and then applies it. The caller holds mu.
func (s *Service) commit(ctx context.Context, state *ledger.State, cs ledger.Changeset) error {
	for i := range cs.Events {
		cs.Events[i].ID = s.newID()
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.AppendEvents(ctx, cs.Events)
	})
	if err != nil {
		return fmt.Errorf("registry: persist events: %w", err)
	}
	if err := state.Apply(cs); err != nil {
		// Stored but not applied: memory no longer matches the stream.
		s.state = nil
		s.logger.Error("apply after persist failed, registry halted", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return nil
}

// RegisterCode records the code deployed behind target so the allowlist can
// tell counterparties with code from plain accounts. Administrator only.
func (s *Service) RegisterCode(ctx context.Context, caller, target ledger.Identity, code []byte) (CodeRecord, error) {
	start := s.now()
	rec, err := s.registerCode(ctx, caller, target, code)
	s.observe("register_code", 1, err, start)
	if err != nil {
		return CodeRecord{}, err
	}
	s.record(ctx, shared.AuditLog{
		Actor:    caller.Hex(),
		Action:   "code.registered",
		Entity:   "counterparty",
		EntityID: target.Hex(),
		Meta:     map[string]any{"code_hash": rec.CodeHash.Hex()},
		At:       rec.RegisteredAt,
	})
	return rec, nil
}

func (s *Service) registerCode(ctx context.Context, caller, target ledger.Identity, code []byte) (CodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return CodeRecord{}, ErrNotBooted
	}
	if !s.state.HasRole(ledger.RoleAdmin, caller) {
		return CodeRecord{}, fmt.Errorf("%w: account %s is missing role %s", ledger.ErrUnauthorized, caller.Hex(), ledger.RoleAdmin)
	}
	if target == ledger.ZeroIdentity {
		return CodeRecord{}, fmt.Errorf("%w: counterparty required", ledger.ErrInvalidArgument)
	}
	if len(code) == 0 {
		return CodeRecord{}, fmt.Errorf("%w: code required", ledger.ErrInvalidArgument)
	}
	rec := CodeRecord{
		Account:      target,
		CodeHash:     ledger.CodeHashOf(code),
		RegisteredBy: caller,
		RegisteredAt: s.now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpsertCode(ctx, rec)
	})
	if err != nil {
		return CodeRecord{}, fmt.Errorf("registry: persist code: %w", err)
	}
	s.codes.set(rec)
	return rec, nil
}

// Events returns stored events with Seq > afterSeq in order.
func (s *Service) Events(ctx context.Context, afterSeq uint64, limit int) ([]ledger.Event, error) {
	if limit <= 0 {
		limit = defaultEventPage
	}
	if limit > maxEventPage {
		limit = maxEventPage
	}
	return s.repo.ListEvents(ctx, afterSeq, limit)
}

func (s *Service) publish(ctx context.Context, events []ledger.Event) {
	if s.pub == nil || len(events) == 0 {
		return
	}
	if err := s.pub.Publish(ctx, events); err != nil {
		s.logger.Warn("publish registry events", slog.Any("error", err), slog.Uint64("seq", events[len(events)-1].Seq))
	}
}

func (s *Service) recordEvents(ctx context.Context, events []ledger.Event) {
	for _, e := range events {
		entity, entityID := auditSubject(e)
		s.record(ctx, shared.AuditLog{
			Actor:    e.Actor.Hex(),
			Action:   string(e.Kind),
			Entity:   entity,
			EntityID: entityID,
			Meta:     map[string]any{"event_id": e.ID, "seq": e.Seq, "version": e.Version},
			At:       e.At,
		})
	}
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.Any("error", err), slog.String("action", log.Action))
	}
}

func auditSubject(e ledger.Event) (string, string) {
	switch e.Kind {
	case ledger.EventRoleGranted, ledger.EventRoleRevoked:
		return "role", string(e.Role) + ":" + e.Account.Hex()
	case ledger.EventTransfer, ledger.EventApproval, ledger.EventTokenRoyaltyUpdated, ledger.EventTokenRoyaltyReset:
		return "token", strconv.FormatUint(e.TokenID, 10)
	case ledger.EventApprovalForAll:
		return "operator", e.Account.Hex() + ":" + e.Operator.Hex()
	case ledger.EventAllowlistAddressAdded, ledger.EventAllowlistAddressRemoved:
		return "allowlist", e.Account.Hex()
	case ledger.EventAllowlistCodeHashAdded, ledger.EventAllowlistCodeHashRemoved:
		return "allowlist", e.CodeHash.Hex()
	default:
		return "collection", "self"
	}
}

func (s *Service) observe(op string, produced int, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCommand(op, outcome(produced, err), s.now().Sub(start))
}

func outcome(produced int, err error) string {
	switch {
	case err == nil && produced == 0:
		return "noop"
	case err == nil:
		return "ok"
	case errors.Is(err, ledger.ErrUnauthorized), errors.Is(err, ledger.ErrOperatorNotAllowlisted):
		return "denied"
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, ledger.ErrIndexOutOfRange),
		errors.Is(err, ledger.ErrInvalidArgument), errors.Is(err, ledger.ErrArithmeticOverflow):
		return "rejected"
	default:
		return "error"
	}
}

// setHead reports the committed position. The caller holds mu.
func (s *Service) setHead() {
	if s.metrics == nil || s.state == nil {
		return
	}
	s.metrics.SetHead(s.state.Version(), s.state.Seq())
}

func read[T any](s *Service, fn func(*ledger.State) (T, error)) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		var zero T
		return zero, ErrNotBooted
	}
	return fn(s.state)
}

// Head returns the committed stream position.
func (s *Service) Head() (Head, error) {
	return read(s, func(st *ledger.State) (Head, error) {
		return Head{Version: st.Version(), Seq: st.Seq()}, nil
	})
}

// Collection summarises collection-level state.
func (s *Service) Collection() (CollectionInfo, error) {
	return read(s, func(st *ledger.State) (CollectionInfo, error) {
		return CollectionInfo{
			Name:           st.Name(),
			Symbol:         st.Symbol(),
			BaseURI:        st.BaseURI(),
			ContractURI:    st.ContractURI(),
			TotalSupply:    st.TotalSupply(),
			NextTokenID:    st.NextTokenID(),
			DefaultRoyalty: st.DefaultRoyalty(),
			Version:        st.Version(),
			Seq:            st.Seq(),
		}, nil
	})
}

// Token returns the read model of a live asset.
func (s *Service) Token(id uint64) (TokenView, error) {
	return read(s, func(st *ledger.State) (TokenView, error) {
		owner, err := st.OwnerOf(id)
		if err != nil {
			return TokenView{}, err
		}
		approved, err := st.GetApproved(id)
		if err != nil {
			return TokenView{}, err
		}
		uri, err := st.TokenURI(id)
		if err != nil {
			return TokenView{}, err
		}
		return TokenView{ID: id, Owner: owner, Approved: approved, URI: uri}, nil
	})
}

// OwnerOf returns the owner of a live asset.
func (s *Service) OwnerOf(id uint64) (ledger.Identity, error) {
	return read(s, func(st *ledger.State) (ledger.Identity, error) { return st.OwnerOf(id) })
}

// BalanceOf counts assets held by owner.
func (s *Service) BalanceOf(owner ledger.Identity) (uint64, error) {
	return read(s, func(st *ledger.State) (uint64, error) { return st.BalanceOf(owner), nil })
}

// TotalSupply counts live assets.
func (s *Service) TotalSupply() (uint64, error) {
	return read(s, func(st *ledger.State) (uint64, error) { return st.TotalSupply(), nil })
}

// TokenOfOwnerByIndex enumerates an owner's assets.
func (s *Service) TokenOfOwnerByIndex(owner ledger.Identity, index uint64) (uint64, error) {
	return read(s, func(st *ledger.State) (uint64, error) { return st.TokenOfOwnerByIndex(owner, index) })
}

// TokenByIndex enumerates all live assets.
func (s *Service) TokenByIndex(index uint64) (uint64, error) {
	return read(s, func(st *ledger.State) (uint64, error) { return st.TokenByIndex(index) })
}

// TokensOfOwner lists an owner's assets in enumeration order.
func (s *Service) TokensOfOwner(owner ledger.Identity) ([]uint64, error) {
	return read(s, func(st *ledger.State) ([]uint64, error) { return st.TokensOfOwner(owner), nil })
}

// IsApprovedForAll reports operator rights over every asset of owner.
func (s *Service) IsApprovedForAll(owner, operator ledger.Identity) (bool, error) {
	return read(s, func(st *ledger.State) (bool, error) { return st.IsApprovedForAll(owner, operator), nil })
}

// TokenURI derives the descriptor of a live asset.
func (s *Service) TokenURI(id uint64) (string, error) {
	return read(s, func(st *ledger.State) (string, error) { return st.TokenURI(id) })
}

// RoyaltyQuote is the answer to a royalty query.
type RoyaltyQuote struct {
	Receiver ledger.Identity
	Amount   *big.Int
}

// RoyaltyInfo computes the royalty owed on a sale of id.
func (s *Service) RoyaltyInfo(id uint64, salePrice *big.Int) (RoyaltyQuote, error) {
	return read(s, func(st *ledger.State) (RoyaltyQuote, error) {
		receiver, amount, err := st.RoyaltyInfo(id, salePrice)
		if err != nil {
			return RoyaltyQuote{}, err
		}
		return RoyaltyQuote{Receiver: receiver, Amount: amount}, nil
	})
}

// HasRole reports role membership.
func (s *Service) HasRole(role ledger.Role, id ledger.Identity) (bool, error) {
	return read(s, func(st *ledger.State) (bool, error) { return st.HasRole(role, id), nil })
}

// RoleHolders lists holders of role in grant order.
func (s *Service) RoleHolders(role ledger.Role) ([]ledger.Identity, error) {
	return read(s, func(st *ledger.State) ([]ledger.Identity, error) { return st.RoleHolders(role), nil })
}

// AllowlistStatus reports how the allowlist treats a counterparty.
type AllowlistStatus struct {
	Target      ledger.Identity `json:"target"`
	Allowlisted bool            `json:"allowlisted"`
	HasCode     bool            `json:"has_code"`
	CodeHash    *common.Hash    `json:"code_hash,omitempty"`
}

// AllowlistStatus describes target's standing for approvals.
func (s *Service) AllowlistStatus(target ledger.Identity) (AllowlistStatus, error) {
	return read(s, func(st *ledger.State) (AllowlistStatus, error) {
		status := AllowlistStatus{Target: target, Allowlisted: st.IsAllowlisted(target)}
		if hash, ok := s.codes.CodeHash(target); ok {
			status.HasCode = true
			status.CodeHash = &hash
		}
		return status, nil
	})
}

// AllowlistedAddresses lists directly allowlisted addresses.
func (s *Service) AllowlistedAddresses() ([]ledger.Identity, error) {
	return read(s, func(st *ledger.State) ([]ledger.Identity, error) { return st.AllowlistedAddresses(), nil })
}

// IsCodeHashAllowlisted reports whether a code fingerprint is listed.
func (s *Service) IsCodeHashAllowlisted(hash common.Hash) (bool, error) {
	return read(s, func(st *ledger.State) (bool, error) { return st.IsCodeHashAllowlisted(hash), nil })
}

// SupportsInterface answers a capability probe.
func (s *Service) SupportsInterface(id ledger.InterfaceID) (bool, error) {
	return read(s, func(st *ledger.State) (bool, error) { return st.SupportsInterface(id), nil })
}

// Capabilities lists supported capability sets.
func (s *Service) Capabilities() ([]ledger.Capability, error) {
	return read(s, func(st *ledger.State) ([]ledger.Capability, error) { return st.Capabilities(), nil })
}
