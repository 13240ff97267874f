package handlers

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/domain/services"
)

// Swapper executes buys and sells
type Swapper interface {
	Buy(ctx context.Context, req services.BuyRequest) (*entities.SwapResult, error)
	Sell(ctx context.Context, req services.SellRequest) (*entities.SwapResult, error)
}

// SwapHandler handles swap requests
type SwapHandler struct {
	engine   Swapper
	registry TokenResolver
	logger   logrus.FieldLogger
}

// NewSwapHandler creates a new swap handler
func NewSwapHandler(engine Swapper, registry TokenResolver, logger logrus.FieldLogger) *SwapHandler {
	return &SwapHandler{engine: engine, registry: registry, logger: logger}
}

// BuyRequest represents a buy request. Amount is in whole native units.
type BuyRequest struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
	MinOut string `json:"minOut,omitempty"`
}

// SellRequest represents a sell request. Percentage defaults to 100.
type SellRequest struct {
	Token      string `json:"token"`
	Percentage *int   `json:"percentage,omitempty"`
	MinOut     string `json:"minOut,omitempty"`
}

// Buy handles POST /api/v1/swap/buy
func (h *SwapHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	token, err := h.registry.Resolve(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token", err.Error())
		return
	}
	amount, err := entities.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
		return
	}
	minOut, ok := parseMinOut(w, req.MinOut)
	if !ok {
		return
	}

	result, err := h.engine.Buy(r.Context(), services.BuyRequest{
		Token:        token,
		NativeAmount: amount,
		MinOut:       minOut,
	})
	h.respond(w, result, err)
}

// Sell handles POST /api/v1/swap/sell
func (h *SwapHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	token, err := h.registry.Resolve(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token", err.Error())
		return
	}
	percentage := services.FullSell
	if req.Percentage != nil {
		percentage = *req.Percentage
	}
	minOut, ok := parseMinOut(w, req.MinOut)
	if !ok {
		return
	}

	result, err := h.engine.Sell(r.Context(), services.SellRequest{
		Token:      token,
		Percentage: percentage,
		MinOut:     minOut,
	})
	h.respond(w, result, err)
}

func (h *SwapHandler) respond(w http.ResponseWriter, result *entities.SwapResult, err error) {
	if err != nil {
		entry := h.logger.WithError(err)
		if entities.DanglingApproval(err) {
			entry.Error("swap failed after approval was submitted")
		} else {
			entry.Warn("swap failed")
		}
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseMinOut reads a base-unit integer; empty means no minimum
func parseMinOut(w http.ResponseWriter, s string) (*big.Int, bool) {
	if s == "" {
		return nil, true
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		writeError(w, http.StatusBadRequest, "invalid_min_out", "minOut must be a non-negative integer in base units")
		return nil, false
	}
	return v, true
}
