package registryhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/platform/httpx"
	"github.com/odyssey-erp/nft-registry/internal/registry"
)

// IdempotencyHeader lets clients make mutating requests safe to resubmit.
const IdempotencyHeader = "Idempotency-Key"

// Idempotency claims request keys before a command runs.
type Idempotency interface {
	Claim(ctx context.Context, key, caller, op string) error
	Release(ctx context.Context, key, caller string) error
}

// IntegrityEnqueuer schedules a background integrity check.
type IntegrityEnqueuer interface {
	EnqueueIntegrity(ctx context.Context, reason string) (*asynq.TaskInfo, error)
}

// Config carries the optional collaborators of the handler.
type Config struct {
	Logger      *slog.Logger
	Resolver    CallerResolver
	Idempotency Idempotency
	Integrity   IntegrityEnqueuer
	RateLimit   int
	RateWindow  time.Duration
}

// Handler serves the registry JSON API.
type Handler struct {
	svc        *registry.Service
	logger     *slog.Logger
	resolver   CallerResolver
	idem       Idempotency
	integrity  IntegrityEnqueuer
	validate   *validator.Validate
	rateLimit  int
	rateWindow time.Duration
}

// NewHandler builds the API handler. A nil Resolver trusts CallerHeader.
func NewHandler(svc *registry.Service, cfg Config) *Handler {
	h := &Handler{
		svc:        svc,
		logger:     cfg.Logger,
		resolver:   cfg.Resolver,
		idem:       cfg.Idempotency,
		integrity:  cfg.Integrity,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		rateLimit:  cfg.RateLimit,
		rateWindow: cfg.RateWindow,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.resolver == nil {
		h.resolver = HeaderResolver{}
	}
	if h.rateLimit <= 0 {
		h.rateLimit = 60
	}
	if h.rateWindow <= 0 {
		h.rateWindow = time.Minute
	}
	return h
}

// decode reads and validates a JSON payload.
func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return err
	}
	if err := h.validate.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

// command runs the mutation produced by build on behalf of the caller,
// honouring the Idempotency-Key header when a store is configured.
func (h *Handler) command(w http.ResponseWriter, r *http.Request, status int, build func(caller ledger.Identity) (ledger.Command, error)) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	cmd, err := build(caller)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.idem != nil {
		if err := h.idem.Claim(ctx, key, caller.Hex(), cmd.Op()); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	events, err := h.svc.Execute(ctx, cmd)
	if err != nil {
		if key != "" && h.idem != nil {
			if relErr := h.idem.Release(context.WithoutCancel(ctx), key, caller.Hex()); relErr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", relErr))
			}
		}
		h.respondError(w, r, err)
		return
	}
	if events == nil {
		events = []ledger.Event{}
	}
	httpx.JSON(w, status, map[string]any{"events": events})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, registry.ErrNotBooted) {
		err = fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	}
	if status, _ := httpx.StatusFor(err); status == http.StatusInternalServerError {
		h.logger.Error("registry request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseTokenID(r *http.Request) (uint64, error) {
	return parseUint(chi.URLParam(r, "id"), "token id")
}

func parseUint(raw, what string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an unsigned integer", httpx.ErrValidation, what, raw)
	}
	return v, nil
}

func pathIdentity(r *http.Request, param string) (ledger.Identity, error) {
	return ledger.ParseIdentity(chi.URLParam(r, param))
}

func ledgerInvalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ledger.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
