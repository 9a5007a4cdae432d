package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/host"
)

const (
	tracerName   = "github.com/Cogwheel-Validator/spectra-forwarder/forwarder/rpc"
	maxBodyBytes = 1 << 20
)

// chainAPI serves the simulated chain over JSON
type chainAPI struct {
	chain   *host.Chain
	metrics *forwarderMetrics
	faucet  bool
}

func (a *chainAPI) routes(r chi.Router) {
	r.Post("/execute", a.execute)
	r.Post("/deliver", a.deliver)
	r.Get("/pending", a.pending)
	r.Get("/config", a.config)
	r.Get("/balances/{address}", a.balances)
	r.Post("/mint", a.mint)
}

func (a *chainAPI) execute(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "execute")
	defer span.End()

	var req ExecuteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	if req.Sender == "" || len(req.Msg) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "sender and msg are required", Code: "bad_request"})
		return
	}
	if err := host.ValidateCoins(req.Funds); err != nil {
		writeError(w, err)
		return
	}
	target := req.Contract
	if target == "" {
		target = a.chain.ContractAddress()
	}
	span.SetAttributes(attribute.String("sender", req.Sender), attribute.String("contract", target))

	res, err := a.chain.ExecuteOn(ctx, req.Sender, target, req.Funds, req.Msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if target == a.chain.ContractAddress() {
			a.metrics.record(ctx, outcomeRejected)
		}
		writeError(w, err)
		return
	}
	a.metrics.observe(ctx, res)
	writeJSON(w, http.StatusOK, res)
}

func (a *chainAPI) deliver(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "deliver")
	defer span.End()

	res, err := a.chain.DeliverNext(ctx)
	if err != nil {
		span.RecordError(err)
		writeError(w, err)
		return
	}
	a.metrics.observe(ctx, res)
	writeJSON(w, http.StatusOK, res)
}

func (a *chainAPI) pending(w http.ResponseWriter, _ *http.Request) {
	op, err := a.chain.PendingSwap()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingResponse{Pending: op, Queued: a.chain.Queued()})
}

func (a *chainAPI) config(w http.ResponseWriter, _ *http.Request) {
	cfg, err := a.chain.Config()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *chainAPI) balances(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	if _, err := a.chain.Resolver().Resolve(r.Context(), addr); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_address"})
		return
	}
	writeJSON(w, http.StatusOK, BalancesResponse{Address: addr, Balances: a.chain.Bank().Balances(addr)})
}

func (a *chainAPI) mint(w http.ResponseWriter, r *http.Request) {
	if !a.faucet {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "faucet is disabled", Code: "faucet_disabled"})
		return
	}
	var req MintRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	if _, err := a.chain.Resolver().Resolve(r.Context(), req.Address); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_address"})
		return
	}
	mintAsset, err := asset.ParseAsset(req.Asset)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_asset"})
		return
	}
	if req.Amount.IsNil() || !req.Amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "amount must be positive", Code: "invalid_asset"})
		return
	}
	if err := a.chain.Bank().Mint(req.Address, mintAsset, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	Logger.Info().Str("address", req.Address).Str("asset", mintAsset.String()).Str("amount", req.Amount.String()).Msg("Minted")
	writeJSON(w, http.StatusOK, BalancesResponse{Address: req.Address, Balances: a.chain.Bank().Balances(req.Address)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return nil
}

// errorStatus maps domain errors to an HTTP status and a stable code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, contract.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, contract.ErrInvalidAsset):
		return http.StatusBadRequest, "invalid_asset"
	case errors.Is(err, contract.ErrDuplicateTokens):
		return http.StatusBadRequest, "duplicate_tokens"
	case errors.Is(err, contract.ErrUnsupportedVenue):
		return http.StatusBadRequest, "unsupported_venue"
	case errors.Is(err, contract.ErrInvalidVenueParams):
		return http.StatusBadRequest, "invalid_venue_params"
	case errors.Is(err, host.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, host.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient_funds"
	case errors.Is(err, host.ErrNothingQueued):
		return http.StatusConflict, "nothing_queued"
	default:
		return http.StatusUnprocessableEntity, "execution_failed"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("Failed to encode response")
	}
}
