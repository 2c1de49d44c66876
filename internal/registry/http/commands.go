package registryhttp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/platform/httpx"
)

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusCreated, func(caller ledger.Identity) (ledger.Command, error) {
		var req mintRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		to, err := ledger.ParseIdentity(req.To)
		if err != nil {
			return nil, err
		}
		return ledger.Mint{Caller: caller, To: to, Count: req.Count}, nil
	})
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		id, err := parseTokenID(r)
		if err != nil {
			return nil, err
		}
		return ledger.Burn{Caller: caller, TokenID: id}, nil
	})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		id, err := parseTokenID(r)
		if err != nil {
			return nil, err
		}
		var req transferRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		from, err := ledger.ParseIdentity(req.From)
		if err != nil {
			return nil, err
		}
		to, err := ledger.ParseIdentity(req.To)
		if err != nil {
			return nil, err
		}
		return ledger.Transfer{Caller: caller, From: from, To: to, TokenID: id}, nil
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		id, err := parseTokenID(r)
		if err != nil {
			return nil, err
		}
		var req approveRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		operator, err := ledger.ParseIdentity(req.Operator)
		if err != nil {
			return nil, err
		}
		return ledger.Approve{Caller: caller, Operator: operator, TokenID: id}, nil
	})
}

func (h *Handler) handleSetApprovalForAll(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		var req operatorRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		operator, err := ledger.ParseIdentity(req.Operator)
		if err != nil {
			return nil, err
		}
		return ledger.SetApprovalForAll{Caller: caller, Operator: operator, Approved: *req.Approved}, nil
	})
}

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		role, account, err := h.roleSubject(r)
		if err != nil {
			return nil, err
		}
		return ledger.GrantRole{Caller: caller, Role: role, Account: account}, nil
	})
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		role, account, err := h.roleSubject(r)
		if err != nil {
			return nil, err
		}
		return ledger.RevokeRole{Caller: caller, Role: role, Account: account}, nil
	})
}

func (h *Handler) handleRenounceRole(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		role, err := ledger.ParseRole(chi.URLParam(r, "role"))
		if err != nil {
			return nil, err
		}
		return ledger.RenounceRole(caller, role), nil
	})
}

func (h *Handler) roleSubject(r *http.Request) (ledger.Role, ledger.Identity, error) {
	role, err := ledger.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		return "", ledger.ZeroIdentity, err
	}
	var req accountRequest
	if err := h.decode(r, &req); err != nil {
		return "", ledger.ZeroIdentity, err
	}
	account, err := ledger.ParseIdentity(req.Account)
	if err != nil {
		return "", ledger.ZeroIdentity, err
	}
	return role, account, nil
}

func (h *Handler) handleAllowlistAdd(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		var req accountRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		target, err := ledger.ParseIdentity(req.Account)
		if err != nil {
			return nil, err
		}
		return ledger.AddToAllowlist{Caller: caller, Target: target}, nil
	})
}

func (h *Handler) handleAllowlistRemove(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		target, err := pathIdentity(r, "target")
		if err != nil {
			return nil, err
		}
		return ledger.RemoveFromAllowlist{Caller: caller, Target: target}, nil
	})
}

func (h *Handler) handleCodeHashAdd(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		var req codeHashRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		hash, err := parseCodeHash(req.CodeHash)
		if err != nil {
			return nil, err
		}
		return ledger.AddCodeHashToAllowlist{Caller: caller, CodeHash: hash}, nil
	})
}

func (h *Handler) handleCodeHashRemove(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		hash, err := parseCodeHash(chi.URLParam(r, "hash"))
		if err != nil {
			return nil, err
		}
		return ledger.RemoveCodeHashFromAllowlist{Caller: caller, CodeHash: hash}, nil
	})
}

func (h *Handler) handleSetBaseURI(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		var req uriRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return ledger.SetBaseURI{Caller: caller, URI: req.URI}, nil
	})
}

func (h *Handler) handleSetContractURI(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		var req uriRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return ledger.SetContractURI{Caller: caller, URI: req.URI}, nil
	})
}

func (h *Handler) handleSetDefaultRoyalty(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		var req royaltyRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		terms, err := req.terms()
		if err != nil {
			return nil, err
		}
		return ledger.SetDefaultRoyalty{Caller: caller, Terms: terms}, nil
	})
}

func (h *Handler) handleSetTokenRoyalty(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		id, err := parseTokenID(r)
		if err != nil {
			return nil, err
		}
		var req royaltyRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		terms, err := req.terms()
		if err != nil {
			return nil, err
		}
		return ledger.SetTokenRoyalty{Caller: caller, TokenID: id, Terms: terms}, nil
	})
}

func (h *Handler) handleResetTokenRoyalty(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, func(caller ledger.Identity) (ledger.Command, error) {
		id, err := parseTokenID(r)
		if err != nil {
			return nil, err
		}
		return ledger.ResetTokenRoyalty{Caller: caller, TokenID: id}, nil
	})
}

func (h *Handler) handleRegisterCode(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req codeRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	account, err := ledger.ParseIdentity(req.Account)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	code, err := hexutil.Decode(strings.TrimSpace(req.Code))
	if err != nil {
		h.respondError(w, r, ledgerInvalid("code: %v", err))
		return
	}
	rec, err := h.svc.RegisterCode(r.Context(), caller, account, code)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

// requireAdmin gates host operations that have no ledger command of their own.
func (h *Handler) requireAdmin(r *http.Request) (ledger.Identity, error) {
	caller, err := callerFrom(r)
	if err != nil {
		return ledger.ZeroIdentity, err
	}
	isAdmin, err := h.svc.HasRole(ledger.RoleAdmin, caller)
	if err != nil {
		return ledger.ZeroIdentity, err
	}
	if !isAdmin {
		return ledger.ZeroIdentity, ledger.ErrUnauthorized
	}
	return caller, nil
}

func (h *Handler) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		h.respondError(w, r, err)
		return
	}
	report, err := h.svc.VerifyIntegrity(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleEnqueueIntegrity(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireAdmin(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if h.integrity == nil {
		h.respondError(w, r, httpx.ErrUnavailable)
		return
	}
	var req integrityRequest
	if r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	reason := req.Reason
	if reason == "" {
		reason = "requested by " + caller.Hex()
	}
	info, err := h.integrity.EnqueueIntegrity(r.Context(), reason)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "already_queued"})
		return
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID, "queue": info.Queue})
}
