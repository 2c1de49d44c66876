package ledger

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type collectionMetadata struct {
	name        string
	symbol      string
	baseURI     string
	contractURI string
}

func normalizeLabel(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// Name returns the immutable collection name.
func (s *State) Name() string { return s.meta.name }

// Symbol returns the immutable collection symbol.
func (s *State) Symbol() string { return s.meta.symbol }

// BaseURI returns the prefix used for per-token URIs.
func (s *State) BaseURI() string { return s.meta.baseURI }

// ContractURI returns the collection-level descriptor verbatim.
func (s *State) ContractURI() string { return s.meta.contractURI }

// TokenURI derives the descriptor for a live asset. An empty base URI opts out
// of per-token URIs.
func (s *State) TokenURI(id uint64) (string, error) {
	if _, err := s.tokens.lookup(id); err != nil {
		return "", err
	}
	if s.meta.baseURI == "" {
		return "", nil
	}
	return s.meta.baseURI + strconv.FormatUint(id, 10), nil
}
