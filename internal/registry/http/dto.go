package registryhttp

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
)

type mintRequest struct {
	To    string `json:"to" validate:"required,eth_addr"`
	Count uint64 `json:"count" validate:"max=10000"`
}

type transferRequest struct {
	From string `json:"from" validate:"required,eth_addr"`
	To   string `json:"to" validate:"required,eth_addr"`
}

type approveRequest struct {
	Operator string `json:"operator" validate:"required,eth_addr"`
}

type operatorRequest struct {
	Operator string `json:"operator" validate:"required,eth_addr"`
	Approved *bool  `json:"approved" validate:"required"`
}

type accountRequest struct {
	Account string `json:"account" validate:"required,eth_addr"`
}

type codeHashRequest struct {
	CodeHash string `json:"code_hash" validate:"required,len=66,hexadecimal"`
}

type uriRequest struct {
	URI string `json:"uri" validate:"max=2048"`
}

type royaltyRequest struct {
	Beneficiary string `json:"beneficiary" validate:"required,eth_addr"`
	FeeFraction uint64 `json:"fee_fraction" validate:"max=10000"`
}

func (r royaltyRequest) terms() (ledger.RoyaltyTerms, error) {
	beneficiary, err := ledger.ParseIdentity(r.Beneficiary)
	if err != nil {
		return ledger.RoyaltyTerms{}, err
	}
	return ledger.RoyaltyTerms{Beneficiary: beneficiary, FeeFraction: r.FeeFraction}, nil
}

type codeRequest struct {
	Account string `json:"account" validate:"required,eth_addr"`
	Code    string `json:"code" validate:"required,hexadecimal"`
}

type integrityRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

type eventsResponse struct {
	Events []ledger.Event `json:"events"`
	Next   uint64         `json:"next"`
}

type royaltyResponse struct {
	Receiver  ledger.Identity `json:"receiver"`
	Amount    string          `json:"amount"`
	SalePrice string          `json:"sale_price"`
}

func newRoyaltyResponse(receiver ledger.Identity, amount, price *big.Int) royaltyResponse {
	return royaltyResponse{Receiver: receiver, Amount: amount.String(), SalePrice: price.String()}
}

type codeHashStatus struct {
	CodeHash    common.Hash `json:"code_hash"`
	Allowlisted bool        `json:"allowlisted"`
}

type roleMembership struct {
	Role    ledger.Role     `json:"role"`
	Account ledger.Identity `json:"account"`
	Member  bool            `json:"member"`
}

type interfaceSupport struct {
	ID        string `json:"id"`
	Supported bool   `json:"supported"`
}
