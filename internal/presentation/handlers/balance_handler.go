package handlers

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

// BalanceChecker reports token balances of the trading account
type BalanceChecker interface {
	CheckTokenBalance(ctx context.Context, token common.Address) (string, error)
}

// TokenResolver maps a symbol or hex address to a token address
type TokenResolver interface {
	Resolve(ref string) (common.Address, error)
}

// BalanceHandler handles balance requests
type BalanceHandler struct {
	engine   BalanceChecker
	registry TokenResolver
	logger   logrus.FieldLogger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(engine BalanceChecker, registry TokenResolver, logger logrus.FieldLogger) *BalanceHandler {
	return &BalanceHandler{engine: engine, registry: registry, logger: logger}
}

// BalanceResponse represents a balance response
type BalanceResponse struct {
	Token   string `json:"token"`
	Balance string `json:"balance"`
}

// GetBalance handles GET /api/v1/balance/{token}
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "token")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "missing_token", "token is required")
		return
	}

	token, err := h.registry.Resolve(ref)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token", err.Error())
		return
	}

	balance, err := h.engine.CheckTokenBalance(r.Context(), token)
	if err != nil {
		h.logger.WithError(err).WithField("token", token.Hex()).Warn("balance check failed")
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		Token:   token.Hex(),
		Balance: balance,
	})
}

var _ TokenResolver = (*entities.TokenRegistry)(nil)
