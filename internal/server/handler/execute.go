package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/domain"
	"github.com/alanyoungcy/nftagg/internal/router"
)

// ExecuteHandler serves the fill-compilation endpoints.
type ExecuteHandler struct {
	router *router.Router
	logger *slog.Logger
}

// NewExecuteHandler creates an ExecuteHandler backed by the given router.
func NewExecuteHandler(r *router.Router, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{router: r, logger: logger}
}

type buyRequest struct {
	Taker          common.Address        `json:"taker"`
	Currency       common.Address        `json:"currency"`
	Orders         []*domain.FillRequest `json:"orders"`
	PartialAllowed bool                  `json:"partialAllowed,omitempty"`
	GlobalFees     []domain.Fee          `json:"globalFees,omitempty"`
	ForceRouter    bool                  `json:"forceRouter,omitempty"`
	Relayer        common.Address        `json:"relayer,omitempty"`
}

// Buy compiles a batch of listings into a transaction bundle.
// POST /v1/execute/buy
func (h *ExecuteHandler) Buy(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "execute.buy")

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Taker == (common.Address{}) {
		writeError(w, http.StatusBadRequest, "taker is required")
		return
	}
	if len(req.Orders) == 0 {
		writeError(w, http.StatusBadRequest, "orders must not be empty")
		return
	}
	currency := req.Currency
	if currency == (common.Address{}) {
		currency = domain.Eth
	}
	for _, o := range req.Orders {
		o.Side = domain.SideListing
	}

	bundle, err := h.router.CompileListingFill(r.Context(), req.Orders, req.Taker, currency, domain.ListingFillOptions{
		PartialAllowed: req.PartialAllowed,
		GlobalFees:     req.GlobalFees,
		ForceRouter:    req.ForceRouter,
		Relayer:        req.Relayer,
	})
	if err != nil {
		log.Warn("listing compile failed", "orders", len(req.Orders), "error", err)
		writeCompileError(w, err)
		return
	}

	log.Info("listing batch compiled",
		"orders", len(req.Orders),
		"transactions", len(bundle.Transactions))
	writeJSON(w, http.StatusOK, bundle)
}

type sellRequest struct {
	Taker          common.Address        `json:"taker"`
	Orders         []*domain.FillRequest `json:"orders"`
	PartialAllowed bool                  `json:"partialAllowed,omitempty"`
	GlobalFees     []domain.Fee          `json:"globalFees,omitempty"`
	ForcePermit    bool                  `json:"forcePermit,omitempty"`
}

// Sell compiles a batch of bid accepts into a transaction bundle.
// POST /v1/execute/sell
func (h *ExecuteHandler) Sell(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "execute.sell")

	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Taker == (common.Address{}) {
		writeError(w, http.StatusBadRequest, "taker is required")
		return
	}
	if len(req.Orders) == 0 {
		writeError(w, http.StatusBadRequest, "orders must not be empty")
		return
	}
	for _, o := range req.Orders {
		o.Side = domain.SideBid
	}

	bundle, err := h.router.CompileBidFill(r.Context(), req.Orders, req.Taker, domain.BidFillOptions{
		PartialAllowed: req.PartialAllowed,
		GlobalFees:     req.GlobalFees,
		ForcePermit:    req.ForcePermit,
	})
	if err != nil {
		log.Warn("bid compile failed", "orders", len(req.Orders), "error", err)
		writeCompileError(w, err)
		return
	}

	log.Info("bid batch compiled",
		"orders", len(req.Orders),
		"transactions", len(bundle.Transactions))
	writeJSON(w, http.StatusOK, bundle)
}
