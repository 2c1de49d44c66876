package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
)

// TokenIssuer mints caller tokens.
type TokenIssuer interface {
	Issue(caller common.Address, ttl time.Duration) (string, error)
}

// TokenOptions defines the flags of the token issue command.
type TokenOptions struct {
	Caller     string
	TTL        time.Duration
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
	Now        func() time.Time
}

type tokenOutput struct {
	Caller    ledger.Identity `json:"caller"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// IssueTokenCommand prints a bearer token for the requested caller and
// returns the process exit code.
func IssueTokenCommand(issuer TokenIssuer, opts TokenOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	caller, err := ledger.ParseIdentity(opts.Caller)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "token issue: --caller: %v\n", err)
		return 1
	}
	if opts.TTL <= 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "token issue: --ttl must be positive")
		return 1
	}
	token, err := issuer.Issue(caller, opts.TTL)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "token issue: %v\n", err)
		return 1
	}
	if !opts.JSONOutput {
		_, _ = fmt.Fprintln(opts.Stdout, token)
		return 0
	}
	out := tokenOutput{Caller: caller, Token: token, ExpiresAt: opts.Now().Add(opts.TTL).UTC().Truncate(time.Second)}
	if err := json.NewEncoder(opts.Stdout).Encode(out); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "token issue: encode json: %v\n", err)
		return 1
	}
	return 0
}
