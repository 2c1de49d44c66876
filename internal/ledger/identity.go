package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Identity is an opaque account reference compared by value.
type Identity = common.Address

// ZeroIdentity marks a cleared owner or approval slot.
var ZeroIdentity Identity

// ParseIdentity decodes a 0x-prefixed hex account reference.
func ParseIdentity(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		return Identity{}, invalidArgument("identity %q must be 0x-prefixed", raw)
	}
	if !common.IsHexAddress(raw) {
		return Identity{}, invalidArgument("identity %q is not a 20-byte hex value", raw)
	}
	return common.HexToAddress(raw), nil
}

func isZero(id Identity) bool {
	return id == ZeroIdentity
}
