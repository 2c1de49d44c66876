package ledger

import "github.com/ethereum/go-ethereum/common/hexutil"

// InterfaceID is an ERC-165 style 4-byte capability selector.
type InterfaceID [4]byte

// String renders the selector as 0x-prefixed hex.
func (id InterfaceID) String() string {
	return hexutil.Encode(id[:])
}

// ParseInterfaceID decodes a 0x-prefixed 4-byte selector.
func ParseInterfaceID(raw string) (InterfaceID, error) {
	b, err := hexutil.Decode(raw)
	if err != nil {
		return InterfaceID{}, invalidArgument("interface id %q: %v", raw, err)
	}
	if len(b) != 4 {
		return InterfaceID{}, invalidArgument("interface id %q must be 4 bytes", raw)
	}
	var id InterfaceID
	copy(id[:], b)
	return id, nil
}

var (
	InterfaceERC165                  = InterfaceID{0x01, 0xff, 0xc9, 0xa7}
	InterfaceERC721                  = InterfaceID{0x80, 0xac, 0x58, 0xcd}
	InterfaceERC721Metadata          = InterfaceID{0x5b, 0x5e, 0x13, 0x9f}
	InterfaceERC721Enumerable        = InterfaceID{0x78, 0x0e, 0x9d, 0x63}
	InterfaceERC2981                 = InterfaceID{0x2a, 0x55, 0x20, 0x5a}
	InterfaceAccessControl           = InterfaceID{0x79, 0x65, 0xdb, 0x0b}
	InterfaceAccessControlEnumerable = InterfaceID{0x5a, 0x05, 0x18, 0x0f}
)

// Capability names a supported interface.
type Capability struct {
	Name string      `json:"name"`
	ID   InterfaceID `json:"-"`
	Hex  string      `json:"id"`
}

var capabilities = []Capability{
	{Name: "capability-probe", ID: InterfaceERC165},
	{Name: "ownership-registry", ID: InterfaceERC721},
	{Name: "metadata-resolver", ID: InterfaceERC721Metadata},
	{Name: "enumerable-registry", ID: InterfaceERC721Enumerable},
	{Name: "royalty-terms-provider", ID: InterfaceERC2981},
	{Name: "role-registry", ID: InterfaceAccessControl},
	{Name: "enumerable-role-registry", ID: InterfaceAccessControlEnumerable},
}

// SupportsInterface reports whether the registry implements the selector.
func (s *State) SupportsInterface(id InterfaceID) bool {
	for _, c := range capabilities {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Capabilities lists every supported capability set.
func (s *State) Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	for i, c := range capabilities {
		c.Hex = c.ID.String()
		out[i] = c
	}
	return out
}
