package ledger

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

// Command is a mutating request. Every command guards its caller before
// touching anything else.
type Command interface {
	// Op labels the command for logs and metrics.
	Op() string
	caller() Identity
	plan(s *State, p *planner) error
}

// Genesis creates the collection and grants the initial administrator.
type Genesis struct {
	Admin       Identity
	Name        string
	Symbol      string
	BaseURI     string
	ContractURI string
	Royalty     RoyaltyTerms
}

func (Genesis) Op() string       { return "genesis" }
func (Genesis) caller() Identity { return ZeroIdentity }

func (c Genesis) plan(s *State, p *planner) error {
	if s.created {
		return invalidArgument("collection already created")
	}
	if isZero(c.Admin) {
		return invalidArgument("initial administrator required")
	}
	name, symbol := normalizeLabel(c.Name), normalizeLabel(c.Symbol)
	if name == "" || symbol == "" {
		return invalidArgument("collection name and symbol required")
	}
	if err := c.Royalty.validate(); err != nil {
		return err
	}
	p.emit(Event{Kind: EventCollectionCreated, Name: name, Symbol: symbol})
	p.emit(Event{Kind: EventRoleGranted, Role: RoleAdmin, Account: c.Admin})
	p.emit(Event{Kind: EventBaseURIUpdated, URI: c.BaseURI})
	p.emit(Event{Kind: EventContractURIUpdated, URI: c.ContractURI})
	p.emit(Event{Kind: EventDefaultRoyaltyUpdated, Account: c.Royalty.Beneficiary, Fraction: c.Royalty.FeeFraction})
	return nil
}

// GrantRole adds account to role. Administrator only; idempotent.
type GrantRole struct {
	Caller  Identity
	Role    Role
	Account Identity
}

func (GrantRole) Op() string         { return "grant_role" }
func (c GrantRole) caller() Identity { return c.Caller }

func (c GrantRole) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleAdmin, c.Caller); err != nil {
		return err
	}
	if c.Role == "" || isZero(c.Account) {
		return invalidArgument("role and account required")
	}
	if s.roles.has(c.Role, c.Account) {
		return nil
	}
	p.emit(Event{Kind: EventRoleGranted, Role: c.Role, Account: c.Account})
	return nil
}

// RevokeRole removes account from role. Administrator or the account itself;
// revoking an unheld role is a no-op.
type RevokeRole struct {
	Caller  Identity
	Role    Role
	Account Identity
}

func (RevokeRole) Op() string         { return "revoke_role" }
func (c RevokeRole) caller() Identity { return c.Caller }

func (c RevokeRole) plan(s *State, p *planner) error {
	if c.Caller != c.Account {
		if err := s.roles.require(RoleAdmin, c.Caller); err != nil {
			return err
		}
	}
	if c.Role == "" {
		return invalidArgument("role required")
	}
	if !s.roles.has(c.Role, c.Account) {
		return nil
	}
	p.emit(Event{Kind: EventRoleRevoked, Role: c.Role, Account: c.Account})
	return nil
}

// RenounceRole is RevokeRole with the caller as subject. The last
// administrator may renounce; the collection is then frozen for admin ops.
func RenounceRole(caller Identity, role Role) RevokeRole {
	return RevokeRole{Caller: caller, Role: role, Account: caller}
}

// MaxMintBatch bounds the assets a single Mint may create.
const MaxMintBatch = 10_000

// Mint creates Count assets for To with consecutive fresh ids.
type Mint struct {
	Caller Identity
	To     Identity
	Count  uint64
}

func (Mint) Op() string         { return "mint" }
func (c Mint) caller() Identity { return c.Caller }

func (c Mint) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleMinter, c.Caller); err != nil {
		return err
	}
	if isZero(c.To) {
		return invalidArgument("mint to the zero identity")
	}
	if c.Count == 0 {
		return nil
	}
	if c.Count > MaxMintBatch {
		return invalidArgument("mint count %d exceeds %d", c.Count, MaxMintBatch)
	}
	// MaxUint64 itself is never issued so nextID cannot wrap.
	next := s.tokens.nextID
	if c.Count > math.MaxUint64-next {
		return fmt.Errorf("%w: minting %d from id %d", ErrArithmeticOverflow, c.Count, next)
	}
	for i := uint64(0); i < c.Count; i++ {
		p.emit(Event{Kind: EventTransfer, From: ZeroIdentity, To: c.To, TokenID: next + i})
	}
	return nil
}

// Burn destroys an asset. Allowed for the owner, its operators and minters.
type Burn struct {
	Caller  Identity
	TokenID uint64
}

func (Burn) Op() string         { return "burn" }
func (c Burn) caller() Identity { return c.Caller }

func (c Burn) plan(s *State, p *planner) error {
	a, err := s.tokens.lookup(c.TokenID)
	if err != nil {
		return err
	}
	if !s.tokens.canManage(c.Caller, a) && !s.roles.has(RoleMinter, c.Caller) {
		return fmt.Errorf("%w: %s may not burn token %d", ErrUnauthorized, c.Caller.Hex(), c.TokenID)
	}
	p.emit(Event{Kind: EventTransfer, From: a.owner, To: ZeroIdentity, TokenID: c.TokenID})
	return nil
}

// Transfer moves an asset from its owner. The per-asset approval is cleared.
type Transfer struct {
	Caller  Identity
	From    Identity
	To      Identity
	TokenID uint64
}

func (Transfer) Op() string         { return "transfer" }
func (c Transfer) caller() Identity { return c.Caller }

func (c Transfer) plan(s *State, p *planner) error {
	a, err := s.tokens.lookup(c.TokenID)
	if err != nil {
		return err
	}
	if a.owner != c.From {
		return fmt.Errorf("%w: token %d is not owned by %s", ErrUnauthorized, c.TokenID, c.From.Hex())
	}
	if !s.tokens.canManage(c.Caller, a) {
		return fmt.Errorf("%w: %s is not owner nor approved for token %d", ErrUnauthorized, c.Caller.Hex(), c.TokenID)
	}
	if isZero(c.To) {
		return invalidArgument("transfer to the zero identity")
	}
	p.emit(Event{Kind: EventTransfer, From: c.From, To: c.To, TokenID: c.TokenID})
	return nil
}

// Approve sets the per-asset operator. The zero identity clears it.
type Approve struct {
	Caller   Identity
	Operator Identity
	TokenID  uint64
}

func (Approve) Op() string         { return "approve" }
func (c Approve) caller() Identity { return c.Caller }

func (c Approve) plan(s *State, p *planner) error {
	a, err := s.tokens.lookup(c.TokenID)
	if err != nil {
		return err
	}
	if c.Operator == c.Caller {
		return nil
	}
	if c.Caller != a.owner && !s.tokens.isOperator(a.owner, c.Caller) {
		return fmt.Errorf("%w: %s is not owner nor approved for all", ErrUnauthorized, c.Caller.Hex())
	}
	if c.Operator == a.owner {
		return invalidArgument("approval to current owner")
	}
	if !isZero(c.Operator) {
		if err := s.ValidateApproval(c.Caller, c.Operator); err != nil {
			return err
		}
	}
	if a.approved == c.Operator {
		return nil
	}
	p.emit(Event{Kind: EventApproval, Account: a.owner, Operator: c.Operator, TokenID: c.TokenID})
	return nil
}

// SetApprovalForAll grants or revokes operator rights over every asset of the
// caller. Revocation is never blocked by the allowlist.
type SetApprovalForAll struct {
	Caller   Identity
	Operator Identity
	Approved bool
}

func (SetApprovalForAll) Op() string         { return "set_approval_for_all" }
func (c SetApprovalForAll) caller() Identity { return c.Caller }

func (c SetApprovalForAll) plan(s *State, p *planner) error {
	if c.Operator == c.Caller {
		return nil
	}
	if isZero(c.Operator) {
		return invalidArgument("operator required")
	}
	if c.Approved {
		if err := s.ValidateApproval(c.Caller, c.Operator); err != nil {
			return err
		}
	}
	if s.tokens.isOperator(c.Caller, c.Operator) == c.Approved {
		return nil
	}
	p.emit(Event{Kind: EventApprovalForAll, Account: c.Caller, Operator: c.Operator, Approved: c.Approved})
	return nil
}

// AddToAllowlist lists an operator address. Registrar only.
type AddToAllowlist struct {
	Caller Identity
	Target Identity
}

func (AddToAllowlist) Op() string         { return "allowlist_add" }
func (c AddToAllowlist) caller() Identity { return c.Caller }

func (c AddToAllowlist) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleRegistrar, c.Caller); err != nil {
		return err
	}
	if isZero(c.Target) {
		return invalidArgument("allowlist target required")
	}
	if s.allow.hasAddress(c.Target) {
		return nil
	}
	p.emit(Event{Kind: EventAllowlistAddressAdded, Account: c.Target})
	return nil
}

// RemoveFromAllowlist delists an operator address. Registrar only.
type RemoveFromAllowlist struct {
	Caller Identity
	Target Identity
}

func (RemoveFromAllowlist) Op() string         { return "allowlist_remove" }
func (c RemoveFromAllowlist) caller() Identity { return c.Caller }

func (c RemoveFromAllowlist) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleRegistrar, c.Caller); err != nil {
		return err
	}
	if !s.allow.hasAddress(c.Target) {
		return nil
	}
	p.emit(Event{Kind: EventAllowlistAddressRemoved, Account: c.Target})
	return nil
}

// AddCodeHashToAllowlist lists every counterparty running the given code.
type AddCodeHashToAllowlist struct {
	Caller   Identity
	CodeHash common.Hash
}

func (AddCodeHashToAllowlist) Op() string         { return "allowlist_add_codehash" }
func (c AddCodeHashToAllowlist) caller() Identity { return c.Caller }

func (c AddCodeHashToAllowlist) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleRegistrar, c.Caller); err != nil {
		return err
	}
	if c.CodeHash == (common.Hash{}) {
		return invalidArgument("code hash required")
	}
	if s.allow.hasCodeHash(c.CodeHash) {
		return nil
	}
	p.emit(Event{Kind: EventAllowlistCodeHashAdded, CodeHash: c.CodeHash})
	return nil
}

// RemoveCodeHashFromAllowlist delists a code fingerprint.
type RemoveCodeHashFromAllowlist struct {
	Caller   Identity
	CodeHash common.Hash
}

func (RemoveCodeHashFromAllowlist) Op() string         { return "allowlist_remove_codehash" }
func (c RemoveCodeHashFromAllowlist) caller() Identity { return c.Caller }

func (c RemoveCodeHashFromAllowlist) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleRegistrar, c.Caller); err != nil {
		return err
	}
	if !s.allow.hasCodeHash(c.CodeHash) {
		return nil
	}
	p.emit(Event{Kind: EventAllowlistCodeHashRemoved, CodeHash: c.CodeHash})
	return nil
}

// SetBaseURI replaces the per-token URI prefix. Administrator only.
type SetBaseURI struct {
	Caller Identity
	URI    string
}

func (SetBaseURI) Op() string         { return "set_base_uri" }
func (c SetBaseURI) caller() Identity { return c.Caller }

func (c SetBaseURI) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleAdmin, c.Caller); err != nil {
		return err
	}
	if s.meta.baseURI == c.URI {
		return nil
	}
	p.emit(Event{Kind: EventBaseURIUpdated, URI: c.URI})
	return nil
}

// SetContractURI replaces the collection descriptor. Administrator only.
type SetContractURI struct {
	Caller Identity
	URI    string
}

func (SetContractURI) Op() string         { return "set_contract_uri" }
func (c SetContractURI) caller() Identity { return c.Caller }

func (c SetContractURI) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleAdmin, c.Caller); err != nil {
		return err
	}
	if s.meta.contractURI == c.URI {
		return nil
	}
	p.emit(Event{Kind: EventContractURIUpdated, URI: c.URI})
	return nil
}

// SetDefaultRoyalty replaces the collection-wide royalty terms. Administrator only.
type SetDefaultRoyalty struct {
	Caller Identity
	Terms  RoyaltyTerms
}

func (SetDefaultRoyalty) Op() string         { return "set_default_royalty" }
func (c SetDefaultRoyalty) caller() Identity { return c.Caller }

func (c SetDefaultRoyalty) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleAdmin, c.Caller); err != nil {
		return err
	}
	if err := c.Terms.validate(); err != nil {
		return err
	}
	if s.royalties.defaults == c.Terms {
		return nil
	}
	p.emit(Event{Kind: EventDefaultRoyaltyUpdated, Account: c.Terms.Beneficiary, Fraction: c.Terms.FeeFraction})
	return nil
}

// SetTokenRoyalty overrides royalty terms for one live asset. Minter only.
type SetTokenRoyalty struct {
	Caller  Identity
	TokenID uint64
	Terms   RoyaltyTerms
}

func (SetTokenRoyalty) Op() string         { return "set_token_royalty" }
func (c SetTokenRoyalty) caller() Identity { return c.Caller }

func (c SetTokenRoyalty) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleMinter, c.Caller); err != nil {
		return err
	}
	if _, err := s.tokens.lookup(c.TokenID); err != nil {
		return err
	}
	if err := c.Terms.validate(); err != nil {
		return err
	}
	if current, ok := s.royalties.overrides[c.TokenID]; ok && current == c.Terms {
		return nil
	}
	p.emit(Event{Kind: EventTokenRoyaltyUpdated, TokenID: c.TokenID, Account: c.Terms.Beneficiary, Fraction: c.Terms.FeeFraction})
	return nil
}

// ResetTokenRoyalty drops a per-asset override. Minter only.
type ResetTokenRoyalty struct {
	Caller  Identity
	TokenID uint64
}

func (ResetTokenRoyalty) Op() string         { return "reset_token_royalty" }
func (c ResetTokenRoyalty) caller() Identity { return c.Caller }

func (c ResetTokenRoyalty) plan(s *State, p *planner) error {
	if err := s.roles.require(RoleMinter, c.Caller); err != nil {
		return err
	}
	if _, ok := s.royalties.overrides[c.TokenID]; !ok {
		return nil
	}
	p.emit(Event{Kind: EventTokenRoyaltyReset, TokenID: c.TokenID})
	return nil
}
