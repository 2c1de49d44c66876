package ledger

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind classifies a recorded state transition.
type EventKind string

const (
	EventCollectionCreated        EventKind = "collection.created"
	EventRoleGranted              EventKind = "role.granted"
	EventRoleRevoked              EventKind = "role.revoked"
	EventTransfer                 EventKind = "token.transfer"
	EventApproval                 EventKind = "token.approval"
	EventApprovalForAll           EventKind = "token.approval_for_all"
	EventAllowlistAddressAdded    EventKind = "allowlist.address_added"
	EventAllowlistAddressRemoved  EventKind = "allowlist.address_removed"
	EventAllowlistCodeHashAdded   EventKind = "allowlist.codehash_added"
	EventAllowlistCodeHashRemoved EventKind = "allowlist.codehash_removed"
	EventBaseURIUpdated           EventKind = "metadata.base_uri_updated"
	EventContractURIUpdated       EventKind = "metadata.contract_uri_updated"
	EventDefaultRoyaltyUpdated    EventKind = "royalty.default_updated"
	EventTokenRoyaltyUpdated      EventKind = "royalty.token_updated"
	EventTokenRoyaltyReset        EventKind = "royalty.token_reset"
)

// Event is one ordered, timestamped state transition. Field usage depends on
// Kind: Account carries the role subject, allowlisted address, approval owner
// or royalty beneficiary; Transfer uses From/To with the zero identity marking
// mint and burn.
type Event struct {
	ID       string      `json:"id,omitempty"`
	Seq      uint64      `json:"seq"`
	Version  uint64      `json:"version"`
	Kind     EventKind   `json:"kind"`
	At       time.Time   `json:"at"`
	Actor    Identity    `json:"actor"`
	Role     Role        `json:"role,omitempty"`
	Account  Identity    `json:"account"`
	From     Identity    `json:"from"`
	To       Identity    `json:"to"`
	TokenID  uint64      `json:"token_id,omitempty"`
	Operator Identity    `json:"operator"`
	Approved bool        `json:"approved,omitempty"`
	CodeHash common.Hash `json:"code_hash"`
	Name     string      `json:"name,omitempty"`
	Symbol   string      `json:"symbol,omitempty"`
	URI      string      `json:"uri,omitempty"`
	Fraction uint64      `json:"fraction,omitempty"`
}

// Changeset is the validated outcome of a command, planned against BaseVersion.
type Changeset struct {
	BaseVersion uint64
	Events      []Event
}

// Empty reports whether applying the changeset would change nothing.
func (c Changeset) Empty() bool {
	return len(c.Events) == 0
}

type planner struct {
	base  uint64
	seq   uint64
	at    time.Time
	actor Identity
	out   []Event
}

func (p *planner) emit(e Event) {
	p.seq++
	e.Seq = p.seq
	e.Version = p.base + 1
	e.At = p.at
	e.Actor = p.actor
	p.out = append(p.out, e)
}
