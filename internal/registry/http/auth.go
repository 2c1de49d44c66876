package registryhttp

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/platform/httpx"
	"github.com/odyssey-erp/nft-registry/internal/shared"
)

// CallerHeader carries the caller address when a trusted gateway has
// already authenticated the request.
const CallerHeader = "X-Registry-Caller"

// CallerResolver extracts the acting identity from a request. ok is false
// when the request names no caller at all.
type CallerResolver interface {
	Resolve(r *http.Request) (ledger.Identity, bool, error)
}

// TokenVerifier validates signed caller tokens.
type TokenVerifier interface {
	Verify(token string) (common.Address, error)
}

// BearerResolver accepts "Authorization: Bearer <token>" signed caller tokens.
type BearerResolver struct {
	Tokens TokenVerifier
}

// Resolve implements CallerResolver.
func (b BearerResolver) Resolve(r *http.Request) (ledger.Identity, bool, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ledger.ZeroIdentity, false, nil
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return ledger.ZeroIdentity, false, shared.ErrCallerTokenInvalid
	}
	caller, err := b.Tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return ledger.ZeroIdentity, false, err
	}
	return caller, true, nil
}

// HeaderResolver trusts CallerHeader as set by an upstream gateway.
type HeaderResolver struct{}

// Resolve implements CallerResolver.
func (HeaderResolver) Resolve(r *http.Request) (ledger.Identity, bool, error) {
	raw := strings.TrimSpace(r.Header.Get(CallerHeader))
	if raw == "" {
		return ledger.ZeroIdentity, false, nil
	}
	caller, err := ledger.ParseIdentity(raw)
	if err != nil {
		return ledger.ZeroIdentity, false, shared.ErrCallerTokenInvalid
	}
	return caller, true, nil
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok, err := h.resolver.Resolve(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if ok {
			r = r.WithContext(shared.ContextWithCaller(r.Context(), caller.Hex()))
		}
		next.ServeHTTP(w, r)
	})
}

func callerFrom(r *http.Request) (ledger.Identity, error) {
	raw := shared.CallerFromContext(r.Context())
	if raw == "" {
		return ledger.ZeroIdentity, shared.ErrCallerTokenMissing
	}
	return common.HexToAddress(raw), nil
}
