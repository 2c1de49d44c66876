package registryhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/nft-registry/internal/platform/httpx"
	"github.com/odyssey-erp/nft-registry/internal/shared"
)

// MountRoutes registers the registry API. Reads are public; mutations need
// a caller and are rate limited per caller.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.rateLimit, h.rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
		}),
	)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/head", h.handleHead)
		r.Get("/collection", h.handleCollection)
		r.Get("/capabilities", h.handleCapabilities)
		r.Get("/interfaces/{interfaceID}", h.handleSupportsInterface)
		r.Get("/tokens", h.handleTotalSupply)
		r.Get("/tokens/index/{index}", h.handleTokenByIndex)
		r.Get("/tokens/{id}", h.handleToken)
		r.Get("/tokens/{id}/royalty", h.handleRoyaltyInfo)
		r.Get("/owners/{owner}/balance", h.handleBalance)
		r.Get("/owners/{owner}/tokens", h.handleOwnerTokens)
		r.Get("/owners/{owner}/tokens/{index}", h.handleOwnerTokenByIndex)
		r.Get("/owners/{owner}/operators/{operator}", h.handleIsApprovedForAll)
		r.Get("/roles/{role}", h.handleRoleHolders)
		r.Get("/roles/{role}/{account}", h.handleHasRole)
		r.Get("/allowlist", h.handleAllowlist)
		r.Get("/allowlist/addresses/{target}", h.handleAllowlistStatus)
		r.Get("/allowlist/codehashes/{hash}", h.handleCodeHashStatus)
		r.Get("/events", h.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(limiter)

			r.Post("/tokens", h.handleMint)
			r.Post("/tokens/{id}/burn", h.handleBurn)
			r.Post("/tokens/{id}/transfer", h.handleTransfer)
			r.Post("/tokens/{id}/approve", h.handleApprove)
			r.Put("/tokens/{id}/royalty", h.handleSetTokenRoyalty)
			r.Delete("/tokens/{id}/royalty", h.handleResetTokenRoyalty)
			r.Post("/operators", h.handleSetApprovalForAll)
			r.Post("/roles/{role}/grant", h.handleGrantRole)
			r.Post("/roles/{role}/revoke", h.handleRevokeRole)
			r.Post("/roles/{role}/renounce", h.handleRenounceRole)
			r.Post("/allowlist/addresses", h.handleAllowlistAdd)
			r.Delete("/allowlist/addresses/{target}", h.handleAllowlistRemove)
			r.Post("/allowlist/codehashes", h.handleCodeHashAdd)
			r.Delete("/allowlist/codehashes/{hash}", h.handleCodeHashRemove)
			r.Put("/collection/base-uri", h.handleSetBaseURI)
			r.Put("/collection/contract-uri", h.handleSetContractURI)
			r.Put("/collection/royalty", h.handleSetDefaultRoyalty)
			r.Post("/code", h.handleRegisterCode)
			r.Post("/integrity/verify", h.handleVerifyIntegrity)
			r.Post("/integrity/checks", h.handleEnqueueIntegrity)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if caller := shared.CallerFromContext(r.Context()); caller != "" {
		return "caller:" + caller, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
