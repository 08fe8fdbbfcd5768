package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AnkanMisra/SettleOne/internal/usecase"
)

type QuoteHandler struct {
	usecase *usecase.QuoteService
	logger  *zap.Logger
}

func NewQuoteHandler(usecase *usecase.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		usecase: usecase,
		logger:  logger,
	}
}

type QuoteRequest struct {
	FromChain   string `query:"fromChain" validate:"required"`
	ToChain     string `query:"toChain" validate:"required"`
	FromToken   string `query:"fromToken" validate:"required"`
	ToToken     string `query:"toToken" validate:"required"`
	FromAmount  string `query:"fromAmount" validate:"required,number"`
	FromAddress string `query:"fromAddress" validate:"omitempty,eth_addr"`
}

type QuoteResponse struct {
	FromAmount    string          `json:"from_amount"`
	ToAmount      string          `json:"to_amount"`
	EstimatedGas  string          `json:"estimated_gas"`
	GasCostUSD    string          `json:"gas_cost_usd"`
	EstimatedTime int64           `json:"estimated_time"`
	Route         json.RawMessage `json:"route,omitempty"`
}

func (h *QuoteHandler) GetQuote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid query parameters",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	quote, err := h.usecase.GetQuote(c.Request().Context(), usecase.QuoteParams{
		FromChain:   req.FromChain,
		ToChain:     req.ToChain,
		FromToken:   req.FromToken,
		ToToken:     req.ToToken,
		FromAmount:  req.FromAmount,
		FromAddress: req.FromAddress,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrNoRouteAvailable) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": err.Error(),
			})
		}
		h.logger.Error("quote fetch failed",
			zap.String("from_chain", req.FromChain),
			zap.String("to_chain", req.ToChain),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "Quote fetch failed",
		})
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		FromAmount:    req.FromAmount,
		ToAmount:      quote.ToAmount,
		EstimatedGas:  quote.EstimatedGas,
		GasCostUSD:    quote.GasCostUSD,
		EstimatedTime: quote.EstimatedTime,
		Route:         quote.Route,
	})
}
