package registryhttp

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/platform/httpx"
)

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	head, err := h.svc.Head()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, head)
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Collection()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := h.svc.Capabilities()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, caps)
}

func (h *Handler) handleSupportsInterface(w http.ResponseWriter, r *http.Request) {
	id, err := ledger.ParseInterfaceID(chi.URLParam(r, "interfaceID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ok, err := h.svc.SupportsInterface(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, interfaceSupport{ID: id.String(), Supported: ok})
}

func (h *Handler) handleTotalSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.svc.TotalSupply()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]uint64{"total_supply": supply})
}

func (h *Handler) handleTokenByIndex(w http.ResponseWriter, r *http.Request) {
	index, err := parseUint(chi.URLParam(r, "index"), "index")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := h.svc.TokenByIndex(index)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]uint64{"index": index, "token_id": id})
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	id, err := parseTokenID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	view, err := h.svc.Token(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleRoyaltyInfo(w http.ResponseWriter, r *http.Request) {
	id, err := parseTokenID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("sale_price"))
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		h.respondError(w, r, ledgerInvalid("sale_price %q is not a decimal integer", raw))
		return
	}
	quote, err := h.svc.RoyaltyInfo(id, price)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRoyaltyResponse(quote.Receiver, quote.Amount, price))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := pathIdentity(r, "owner")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	balance, err := h.svc.BalanceOf(owner)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"owner": owner, "balance": balance})
}

func (h *Handler) handleOwnerTokens(w http.ResponseWriter, r *http.Request) {
	owner, err := pathIdentity(r, "owner")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ids, err := h.svc.TokensOfOwner(owner)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"owner": owner, "tokens": ids})
}

func (h *Handler) handleOwnerTokenByIndex(w http.ResponseWriter, r *http.Request) {
	owner, err := pathIdentity(r, "owner")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	index, err := parseUint(chi.URLParam(r, "index"), "index")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := h.svc.TokenOfOwnerByIndex(owner, index)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"owner": owner, "index": index, "token_id": id})
}

func (h *Handler) handleIsApprovedForAll(w http.ResponseWriter, r *http.Request) {
	owner, err := pathIdentity(r, "owner")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	operator, err := pathIdentity(r, "operator")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	approved, err := h.svc.IsApprovedForAll(owner, operator)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"owner": owner, "operator": operator, "approved": approved})
}

func (h *Handler) handleRoleHolders(w http.ResponseWriter, r *http.Request) {
	role, err := ledger.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	holders, err := h.svc.RoleHolders(role)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if holders == nil {
		holders = []ledger.Identity{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "holders": holders})
}

func (h *Handler) handleHasRole(w http.ResponseWriter, r *http.Request) {
	role, err := ledger.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	account, err := pathIdentity(r, "account")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	member, err := h.svc.HasRole(role, account)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleMembership{Role: role, Account: account, Member: member})
}

func (h *Handler) handleAllowlist(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.svc.AllowlistedAddresses()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if addrs == nil {
		addrs = []ledger.Identity{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"addresses": addrs})
}

func (h *Handler) handleAllowlistStatus(w http.ResponseWriter, r *http.Request) {
	target, err := pathIdentity(r, "target")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	status, err := h.svc.AllowlistStatus(target)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) handleCodeHashStatus(w http.ResponseWriter, r *http.Request) {
	hash, err := parseCodeHash(chi.URLParam(r, "hash"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	listed, err := h.svc.IsCodeHashAllowlisted(hash)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, codeHashStatus{CodeHash: hash, Allowlisted: listed})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var after uint64
	if raw := q.Get("after"); raw != "" {
		v, err := parseUint(raw, "after")
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		after = v
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		v, err := parseUint(raw, "limit")
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		limit = int(min(v, 1<<20))
	}
	events, err := h.svc.Events(r.Context(), after, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := eventsResponse{Events: events, Next: after}
	if len(events) > 0 {
		resp.Next = events[len(events)-1].Seq
	} else {
		resp.Events = []ledger.Event{}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func parseCodeHash(raw string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, ledgerInvalid("code hash %q must be 32 bytes of 0x-prefixed hex", raw)
	}
	return common.BytesToHash(b), nil
}
