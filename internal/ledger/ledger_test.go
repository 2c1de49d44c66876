package ledger

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/require"
)

var (
	admin       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	adminOne    = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	adminTwo    = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	minter      = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	registrar   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	beneficiary = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	user        = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	buyer       = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	marketplace = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

const (
	baseURI     = "https://baseURI.com/"
	contractURI = "https://contractURI.com"
)

type codeStub map[Identity]common.Hash

func (c codeStub) CodeHash(id Identity) (common.Hash, bool) {
	h, ok := c[id]
	return h, ok
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func testGenesis() Genesis {
	return Genesis{
		Admin:       admin,
		Name:        "ERC721Preset",
		Symbol:      "EP",
		BaseURI:     baseURI,
		ContractURI: contractURI,
		Royalty:     RoyaltyTerms{Beneficiary: beneficiary, FeeFraction: 2000},
	}
}

// newTestState returns a collection with minter and registrar roles granted,
// plus every event emitted so far.
func newTestState(t *testing.T, opts ...Option) (*State, []Event) {
	t.Helper()
	s := Open(append([]Option{WithClock(fixedClock)}, opts...)...)
	var history []Event
	for _, cmd := range []Command{
		testGenesis(),
		GrantRole{Caller: admin, Role: RoleMinter, Account: minter},
		GrantRole{Caller: admin, Role: RoleRegistrar, Account: registrar},
	} {
		events, err := s.Execute(cmd)
		require.NoError(t, err)
		history = append(history, events...)
	}
	return s, history
}

func TestGenesisSetsCollection(t *testing.T) {
	s, _ := newTestState(t)

	require.True(t, s.HasRole(RoleAdmin, admin))
	require.Equal(t, []Identity{admin}, s.Admins())
	require.Equal(t, "ERC721Preset", s.Name())
	require.Equal(t, "EP", s.Symbol())
	require.Equal(t, baseURI, s.BaseURI())
	require.Equal(t, contractURI, s.ContractURI())
	require.Equal(t, RoyaltyTerms{Beneficiary: beneficiary, FeeFraction: 2000}, s.DefaultRoyalty())
	require.Equal(t, uint64(3), s.Version())
	require.NoError(t, s.CheckInvariants())
}

func TestGenesisValidation(t *testing.T) {
	g := testGenesis()
	g.Admin = ZeroIdentity
	_, err := New(g)
	require.ErrorIs(t, err, ErrInvalidArgument)

	g = testGenesis()
	g.Symbol = "   "
	_, err = New(g)
	require.ErrorIs(t, err, ErrInvalidArgument)

	g = testGenesis()
	g.Royalty.FeeFraction = FeeDenominator + 1
	_, err = New(g)
	require.ErrorIs(t, err, ErrInvalidArgument)

	s, err := New(testGenesis())
	require.NoError(t, err)
	_, err = s.Execute(testGenesis())
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Open().Execute(Mint{Caller: minter, To: user, Count: 1})
	require.Error(t, err)
}

func TestAdminGatedMutatorsRejectOthers(t *testing.T) {
	s, _ := newTestState(t)
	before := s.Version()

	for _, cmd := range []Command{
		SetBaseURI{Caller: minter, URI: "BaseURI"},
		SetContractURI{Caller: minter, URI: "New Contract URI"},
		GrantRole{Caller: minter, Role: RoleAdmin, Account: user},
		RevokeRole{Caller: minter, Role: RoleRegistrar, Account: registrar},
		SetDefaultRoyalty{Caller: user, Terms: RoyaltyTerms{Beneficiary: user, FeeFraction: 10}},
	} {
		_, err := s.Execute(cmd)
		require.ErrorIs(t, err, ErrUnauthorized, cmd.Op())
	}

	require.Equal(t, before, s.Version())
	require.Equal(t, baseURI, s.BaseURI())
	require.Equal(t, contractURI, s.ContractURI())
	require.False(t, s.HasRole(RoleAdmin, user))
	require.True(t, s.HasRole(RoleRegistrar, registrar))
}

func TestRoleHoldersFollowGrantOrder(t *testing.T) {
	s, _ := newTestState(t)

	_, err := s.Execute(GrantRole{Caller: admin, Role: RoleAdmin, Account: adminOne})
	require.NoError(t, err)
	_, err = s.Execute(GrantRole{Caller: admin, Role: RoleAdmin, Account: adminTwo})
	require.NoError(t, err)
	require.Equal(t, []Identity{admin, adminOne, adminTwo}, s.Admins())

	events, err := s.Execute(GrantRole{Caller: admin, Role: RoleAdmin, Account: adminOne})
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = s.Execute(RenounceRole(adminOne, RoleAdmin))
	require.NoError(t, err)
	_, err = s.Execute(RenounceRole(adminTwo, RoleAdmin))
	require.NoError(t, err)
	require.Equal(t, []Identity{admin}, s.Admins())

	_, err = s.Execute(GrantRole{Caller: admin, Role: RoleAdmin, Account: adminOne})
	require.NoError(t, err)
	require.Equal(t, []Identity{admin, adminOne}, s.Admins())
}

func TestRenounceIsIdempotent(t *testing.T) {
	s, _ := newTestState(t)
	version := s.Version()

	events, err := s.Execute(RenounceRole(user, RoleMinter))
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, version, s.Version())
	require.Equal(t, []Identity{minter}, s.RoleHolders(RoleMinter))

	_, err = s.Execute(RenounceRole(minter, RoleMinter))
	require.NoError(t, err)
	events, err = s.Execute(RenounceRole(minter, RoleMinter))
	require.NoError(t, err)
	require.Empty(t, events)
	require.Empty(t, s.RoleHolders(RoleMinter))
}

func TestMintAssignsConsecutiveIDs(t *testing.T) {
	s, _ := newTestState(t)

	events, err := s.Execute(Mint{Caller: minter, To: minter, Count: 3})
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, uint64(3), s.BalanceOf(minter))
	require.Equal(t, uint64(3), s.TotalSupply())
	for i := uint64(0); i < 3; i++ {
		id, err := s.TokenOfOwnerByIndex(minter, i)
		require.NoError(t, err)
		require.Equal(t, i+1, id)
	}
	_, err = s.TokenOfOwnerByIndex(minter, 3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	version := s.Version()
	events, err = s.Execute(Mint{Caller: minter, To: minter, Count: 0})
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, uint64(3), s.TotalSupply())
	require.Equal(t, uint64(4), s.NextTokenID())
	require.Equal(t, version, s.Version())
}

func TestMintGuards(t *testing.T) {
	s, _ := newTestState(t)

	_, err := s.Execute(Mint{Caller: user, To: user, Count: 1})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Contains(t, err.Error(), "is missing role MINTER_ROLE")

	_, err = s.Execute(Mint{Caller: minter, To: ZeroIdentity, Count: 1})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Zero(t, s.TotalSupply())

	_, err = s.Execute(Mint{Caller: minter, To: user, Count: MaxMintBatch + 1})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Zero(t, s.TotalSupply())

	events, err := s.Execute(Mint{Caller: minter, To: user, Count: MaxMintBatch})
	require.NoError(t, err)
	require.Len(t, events, MaxMintBatch)
}

func TestMintStopsAtEndOfIDSpace(t *testing.T) {
	s, _ := newTestState(t)
	s.tokens.nextID = math.MaxUint64 - 2

	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 3})
	require.ErrorIs(t, err, ErrArithmeticOverflow)
	require.Zero(t, s.TotalSupply())

	events, err := s.Execute(Mint{Caller: minter, To: user, Count: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, uint64(math.MaxUint64-1), events[1].TokenID)
	require.Equal(t, uint64(math.MaxUint64), s.NextTokenID())

	_, err = s.Execute(Mint{Caller: minter, To: user, Count: 1})
	require.ErrorIs(t, err, ErrArithmeticOverflow)
	require.Equal(t, uint64(2), s.TotalSupply())
	require.Equal(t, uint64(math.MaxUint64), s.NextTokenID())
	require.NoError(t, s.CheckInvariants())
}

func TestBurnRetiresID(t *testing.T) {
	s, _ := newTestState(t)
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 3})
	require.NoError(t, err)

	_, err = s.Execute(Burn{Caller: buyer, TokenID: 2})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.Execute(Burn{Caller: minter, TokenID: 1})
	require.NoError(t, err)
	_, err = s.OwnerOf(1)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, uint64(2), s.TotalSupply())

	_, err = s.Execute(Burn{Caller: minter, TokenID: 1})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Execute(Burn{Caller: user, TokenID: 2})
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.TotalSupply())

	_, err = s.Execute(Mint{Caller: minter, To: user, Count: 1})
	require.NoError(t, err)
	require.False(t, s.Exists(1))
	require.True(t, s.Exists(4))
	require.ElementsMatch(t, []uint64{3, 4}, s.TokensOfOwner(user))
	require.NoError(t, s.CheckInvariants())
}

func TestBurnByApprovedOperator(t *testing.T) {
	s, _ := newTestState(t)
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 1})
	require.NoError(t, err)
	_, err = s.Execute(Approve{Caller: user, Operator: buyer, TokenID: 1})
	require.NoError(t, err)

	_, err = s.Execute(Burn{Caller: buyer, TokenID: 1})
	require.NoError(t, err)
	require.Zero(t, s.TotalSupply())
}

func TestTokenURI(t *testing.T) {
	s, _ := newTestState(t)
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 3})
	require.NoError(t, err)

	uri, err := s.TokenURI(3)
	require.NoError(t, err)
	require.Equal(t, baseURI+"3", uri)

	_, err = s.TokenURI(1001)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Execute(Burn{Caller: minter, TokenID: 1})
	require.NoError(t, err)
	_, err = s.TokenURI(1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Execute(SetBaseURI{Caller: admin, URI: ""})
	require.NoError(t, err)
	uri, err = s.TokenURI(3)
	require.NoError(t, err)
	require.Empty(t, uri)

	_, err = s.Execute(SetContractURI{Caller: admin, URI: "New Contract URI"})
	require.NoError(t, err)
	require.Equal(t, "New Contract URI", s.ContractURI())
}

func TestRoyaltyInfo(t *testing.T) {
	s, _ := newTestState(t)

	receiver, amount, err := s.RoyaltyInfo(2, big.NewInt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, beneficiary, receiver)
	require.Equal(t, int64(200_000), amount.Int64())

	_, amount, err = s.RoyaltyInfo(99, big.NewInt(3))
	require.NoError(t, err)
	require.Zero(t, amount.Sign())

	_, amount, err = s.RoyaltyInfo(1, big.NewInt(9_999))
	require.NoError(t, err)
	require.Equal(t, int64(1_999), amount.Int64())

	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	_, amount, err = s.RoyaltyInfo(2, oneEther)
	require.NoError(t, err)
	require.Equal(t, "200000000000000000", amount.String())

	_, _, err = s.RoyaltyInfo(2, big.NewInt(-1))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRoyaltyOverflowBoundary(t *testing.T) {
	terms := RoyaltyTerms{Beneficiary: beneficiary, FeeFraction: 2000}
	limit := new(big.Int).Quo(gethmath.MaxBig256, big.NewInt(2000))

	_, err := terms.Amount(limit)
	require.NoError(t, err)

	_, err = terms.Amount(new(big.Int).Add(limit, big.NewInt(1)))
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = terms.Amount(new(big.Int).Add(gethmath.MaxBig256, big.NewInt(1)))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTokenRoyaltyOverride(t *testing.T) {
	s, _ := newTestState(t)
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 2})
	require.NoError(t, err)

	override := RoyaltyTerms{Beneficiary: user, FeeFraction: 500}
	_, err = s.Execute(SetTokenRoyalty{Caller: user, TokenID: 1, Terms: override})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Execute(SetTokenRoyalty{Caller: minter, TokenID: 42, Terms: override})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Execute(SetTokenRoyalty{Caller: minter, TokenID: 1, Terms: override})
	require.NoError(t, err)

	receiver, amount, err := s.RoyaltyInfo(1, big.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, user, receiver)
	require.Equal(t, int64(500), amount.Int64())

	receiver, _, err = s.RoyaltyInfo(2, big.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, beneficiary, receiver)

	_, err = s.Execute(Burn{Caller: minter, TokenID: 1})
	require.NoError(t, err)
	_, ok := s.TokenRoyalty(1)
	require.False(t, ok)
}

func TestApprovalRequiresAllowlistForContracts(t *testing.T) {
	marketCode := CodeHashOf([]byte{0x60, 0x80, 0x60, 0x40})
	s, _ := newTestState(t, WithCodeInspector(codeStub{marketplace: marketCode}))
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 1})
	require.NoError(t, err)

	_, err = s.Execute(Approve{Caller: user, Operator: marketplace, TokenID: 1})
	require.ErrorIs(t, err, ErrOperatorNotAllowlisted)
	approved, err := s.GetApproved(1)
	require.NoError(t, err)
	require.Equal(t, ZeroIdentity, approved)

	_, err = s.Execute(AddToAllowlist{Caller: user, Target: marketplace})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Execute(AddToAllowlist{Caller: registrar, Target: marketplace})
	require.NoError(t, err)
	require.True(t, s.IsAllowlisted(marketplace))

	_, err = s.Execute(Approve{Caller: user, Operator: marketplace, TokenID: 1})
	require.NoError(t, err)
	approved, err = s.GetApproved(1)
	require.NoError(t, err)
	require.Equal(t, marketplace, approved)

	_, err = s.Execute(Transfer{Caller: marketplace, From: user, To: buyer, TokenID: 1})
	require.NoError(t, err)
	owner, err := s.OwnerOf(1)
	require.NoError(t, err)
	require.Equal(t, buyer, owner)
	approved, err = s.GetApproved(1)
	require.NoError(t, err)
	require.Equal(t, ZeroIdentity, approved)
}

func TestApprovalByCodeHash(t *testing.T) {
	marketCode := CodeHashOf([]byte("marketplace-v1"))
	s, _ := newTestState(t, WithCodeInspector(codeStub{marketplace: marketCode}))

	_, err := s.Execute(SetApprovalForAll{Caller: user, Operator: marketplace, Approved: true})
	require.ErrorIs(t, err, ErrOperatorNotAllowlisted)

	_, err = s.Execute(AddCodeHashToAllowlist{Caller: registrar, CodeHash: marketCode})
	require.NoError(t, err)
	_, err = s.Execute(SetApprovalForAll{Caller: user, Operator: marketplace, Approved: true})
	require.NoError(t, err)
	require.True(t, s.IsApprovedForAll(user, marketplace))

	_, err = s.Execute(RemoveCodeHashFromAllowlist{Caller: registrar, CodeHash: marketCode})
	require.NoError(t, err)
	_, err = s.Execute(SetApprovalForAll{Caller: user, Operator: marketplace, Approved: false})
	require.NoError(t, err)
	require.False(t, s.IsApprovedForAll(user, marketplace))
}

func TestApprovalBypassesForPlainAccountsAndSelf(t *testing.T) {
	s, _ := newTestState(t, WithCodeInspector(codeStub{marketplace: common.HexToHash("0x01")}))
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 1})
	require.NoError(t, err)

	_, err = s.Execute(Approve{Caller: user, Operator: buyer, TokenID: 1})
	require.NoError(t, err)

	events, err := s.Execute(Approve{Caller: user, Operator: user, TokenID: 1})
	require.NoError(t, err)
	require.Empty(t, events)

	events, err = s.Execute(SetApprovalForAll{Caller: marketplace, Operator: marketplace, Approved: true})
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = s.Execute(Approve{Caller: buyer, Operator: marketplace, TokenID: 1})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransferGuards(t *testing.T) {
	s, _ := newTestState(t)
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 1})
	require.NoError(t, err)

	_, err = s.Execute(Transfer{Caller: buyer, From: user, To: buyer, TokenID: 1})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Execute(Transfer{Caller: buyer, From: buyer, To: user, TokenID: 1})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Execute(Transfer{Caller: user, From: user, To: buyer, TokenID: 7})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Execute(Transfer{Caller: user, From: user, To: ZeroIdentity, TokenID: 1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.Execute(SetApprovalForAll{Caller: user, Operator: buyer, Approved: true})
	require.NoError(t, err)
	_, err = s.Execute(Transfer{Caller: buyer, From: user, To: buyer, TokenID: 1})
	require.NoError(t, err)
	require.Equal(t, uint64(0), s.BalanceOf(user))
	require.Equal(t, uint64(1), s.BalanceOf(buyer))
}

func TestEnumerationStaysDense(t *testing.T) {
	s, _ := newTestState(t)
	_, err := s.Execute(Mint{Caller: minter, To: user, Count: 5})
	require.NoError(t, err)

	_, err = s.Execute(Transfer{Caller: user, From: user, To: buyer, TokenID: 2})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 5, 3, 4}, s.TokensOfOwner(user))
	require.Equal(t, []uint64{2}, s.TokensOfOwner(buyer))

	_, err = s.Execute(Burn{Caller: minter, TokenID: 3})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 5, 4}, s.TokensOfOwner(user))

	ids := make([]uint64, 0, s.TotalSupply())
	for i := uint64(0); i < s.TotalSupply(); i++ {
		id, err := s.TokenByIndex(i)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Equal(t, []uint64{1, 2, 5, 4}, ids)
	_, err = s.TokenByIndex(4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	require.NoError(t, s.CheckInvariants())
}

func TestPlanIsSideEffectFree(t *testing.T) {
	s, _ := newTestState(t)
	version := s.Version()

	cs, err := s.Plan(Mint{Caller: minter, To: user, Count: 2})
	require.NoError(t, err)
	require.Len(t, cs.Events, 2)
	require.Equal(t, version, s.Version())
	require.Zero(t, s.TotalSupply())

	_, err = s.Execute(Mint{Caller: minter, To: buyer, Count: 1})
	require.NoError(t, err)

	err = s.Apply(cs)
	require.ErrorIs(t, err, ErrStaleChangeset)
	require.Equal(t, uint64(1), s.TotalSupply())
}

func TestEventsCarryOrderAndTime(t *testing.T) {
	s, history := newTestState(t)
	events, err := s.Execute(Mint{Caller: minter, To: user, Count: 2})
	require.NoError(t, err)

	last := history[len(history)-1]
	require.Equal(t, last.Seq+1, events[0].Seq)
	require.Equal(t, last.Seq+2, events[1].Seq)
	require.Equal(t, s.Version(), events[0].Version)
	require.Equal(t, minter, events[0].Actor)
	require.Equal(t, fixedClock(), events[0].At)
	require.Equal(t, EventTransfer, events[0].Kind)
	require.Equal(t, ZeroIdentity, events[0].From)
}

func TestReplayReproducesState(t *testing.T) {
	s, history := newTestState(t)
	for _, cmd := range []Command{
		Mint{Caller: minter, To: user, Count: 4},
		Transfer{Caller: user, From: user, To: buyer, TokenID: 2},
		Burn{Caller: minter, TokenID: 1},
		Approve{Caller: user, Operator: buyer, TokenID: 3},
		AddToAllowlist{Caller: registrar, Target: marketplace},
		SetBaseURI{Caller: admin, URI: "ipfs://collection/"},
		GrantRole{Caller: admin, Role: RoleAdmin, Account: adminOne},
		SetTokenRoyalty{Caller: minter, TokenID: 4, Terms: RoyaltyTerms{Beneficiary: user, FeeFraction: 100}},
	} {
		events, err := s.Execute(cmd)
		require.NoError(t, err, cmd.Op())
		history = append(history, events...)
	}

	restored, err := Restore(history)
	require.NoError(t, err)
	require.Equal(t, s.Version(), restored.Version())
	require.Equal(t, s.Seq(), restored.Seq())
	require.Equal(t, s.TotalSupply(), restored.TotalSupply())
	require.Equal(t, s.TokensOfOwner(user), restored.TokensOfOwner(user))
	require.Equal(t, s.Admins(), restored.Admins())
	require.Equal(t, s.NextTokenID(), restored.NextTokenID())
	require.True(t, restored.IsAllowlisted(marketplace))
	approved, err := restored.GetApproved(3)
	require.NoError(t, err)
	require.Equal(t, buyer, approved)
	uri, err := restored.TokenURI(4)
	require.NoError(t, err)
	require.Equal(t, "ipfs://collection/4", uri)
	terms, ok := restored.TokenRoyalty(4)
	require.True(t, ok)
	require.Equal(t, uint64(100), terms.FeeFraction)
	require.NoError(t, restored.CheckInvariants())

	_, err = Restore(history[1:])
	require.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	s, _ := newTestState(t)
	for _, raw := range []string{"0x01ffc9a7", "0x80ac58cd", "0x5b5e139f", "0x780e9d63", "0x2a55205a"} {
		id, err := ParseInterfaceID(raw)
		require.NoError(t, err)
		require.True(t, s.SupportsInterface(id), raw)
	}
	require.False(t, s.SupportsInterface(InterfaceID{0xff, 0xff, 0xff, 0xff}))
	_, err := ParseInterfaceID("0x01ff")
	require.ErrorIs(t, err, ErrInvalidArgument)

	caps := s.Capabilities()
	require.Equal(t, "0x80ac58cd", caps[1].Hex)
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity(" 0x00000000000000000000000000000000000000E1 ")
	require.NoError(t, err)
	require.Equal(t, user, id)

	_, err = ParseIdentity("00000000000000000000000000000000000000e1")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParseIdentity("0x1234")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
