package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates the caller lacks the required role, ownership or approval.
	ErrUnauthorized = errors.New("ledger: unauthorized")
	// ErrNotFound indicates the asset was never minted or has been burned.
	ErrNotFound = errors.New("ledger: asset not found")
	// ErrIndexOutOfRange indicates an enumeration index beyond the current balance or supply.
	ErrIndexOutOfRange = errors.New("ledger: index out of range")
	// ErrOperatorNotAllowlisted indicates the approval target was rejected by the allowlist.
	ErrOperatorNotAllowlisted = errors.New("ledger: operator not allowlisted")
	// ErrArithmeticOverflow indicates an intermediate value left its numeric domain.
	ErrArithmeticOverflow = errors.New("ledger: arithmetic overflow")
	// ErrInvalidArgument indicates malformed input.
	ErrInvalidArgument = errors.New("ledger: invalid argument")
	// ErrStaleChangeset indicates a changeset planned against an older version.
	ErrStaleChangeset = errors.New("ledger: stale changeset")
)

func missingRole(account Identity, role Role) error {
	return fmt.Errorf("%w: account %s is missing role %s", ErrUnauthorized, account.Hex(), role)
}

func invalidToken(id uint64) error {
	return fmt.Errorf("%w: token %d", ErrNotFound, id)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
