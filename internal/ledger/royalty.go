package ledger

import (
	"math/big"

	gethmath "github.com/ethereum/go-ethereum/common/math"
)

// FeeDenominator is the fixed denominator of every fee fraction (basis points).
const FeeDenominator = 10_000

// RoyaltyTerms pairs a beneficiary with a fee fraction over FeeDenominator.
type RoyaltyTerms struct {
	Beneficiary Identity `json:"beneficiary"`
	FeeFraction uint64   `json:"fee_fraction"`
}

func (t RoyaltyTerms) validate() error {
	if isZero(t.Beneficiary) {
		return invalidArgument("royalty beneficiary required")
	}
	if t.FeeFraction > FeeDenominator {
		return invalidArgument("royalty fee %d exceeds denominator %d", t.FeeFraction, FeeDenominator)
	}
	return nil
}

// Amount computes floor(salePrice * FeeFraction / FeeDenominator) within the
// 256-bit unsigned domain.
func (t RoyaltyTerms) Amount(salePrice *big.Int) (*big.Int, error) {
	if salePrice == nil || salePrice.Sign() < 0 {
		return nil, invalidArgument("sale price must be a non-negative integer")
	}
	if salePrice.Cmp(gethmath.MaxBig256) > 0 {
		return nil, invalidArgument("sale price exceeds 256 bits")
	}
	product := new(big.Int).Mul(salePrice, new(big.Int).SetUint64(t.FeeFraction))
	if product.Cmp(gethmath.MaxBig256) > 0 {
		return nil, ErrArithmeticOverflow
	}
	return product.Quo(product, big.NewInt(FeeDenominator)), nil
}

type royaltyBook struct {
	defaults  RoyaltyTerms
	overrides map[uint64]RoyaltyTerms
}

func newRoyaltyBook() *royaltyBook {
	return &royaltyBook{overrides: make(map[uint64]RoyaltyTerms)}
}

func (b *royaltyBook) termsFor(id uint64) RoyaltyTerms {
	if terms, ok := b.overrides[id]; ok {
		return terms
	}
	return b.defaults
}

// RoyaltyInfo returns the beneficiary and the amount owed for a sale. The
// asset id only selects a per-asset override; it need not exist.
func (s *State) RoyaltyInfo(id uint64, salePrice *big.Int) (Identity, *big.Int, error) {
	terms := s.royalties.termsFor(id)
	amount, err := terms.Amount(salePrice)
	if err != nil {
		return ZeroIdentity, nil, err
	}
	return terms.Beneficiary, amount, nil
}

// DefaultRoyalty returns the collection-wide terms.
func (s *State) DefaultRoyalty() RoyaltyTerms {
	return s.royalties.defaults
}

// TokenRoyalty returns the per-asset override, if any.
func (s *State) TokenRoyalty(id uint64) (RoyaltyTerms, bool) {
	terms, ok := s.royalties.overrides[id]
	return terms, ok
}
