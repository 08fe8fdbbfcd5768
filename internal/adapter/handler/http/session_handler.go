package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErr "github.com/AnkanMisra/SettleOne/internal/domain/errors"
	"github.com/AnkanMisra/SettleOne/internal/usecase"
)

type SessionHandler struct {
	usecase *usecase.SessionService
	logger  *zap.Logger
}

func NewSessionHandler(usecase *usecase.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		usecase: usecase,
		logger:  logger,
	}
}

type CreateSessionRequest struct {
	UserAddress string `json:"user_address" validate:"required,eth_addr"`
}

type AddPaymentRequest struct {
	Recipient     string `json:"recipient" validate:"required,eth_addr"`
	RecipientName string `json:"recipient_name" validate:"omitempty,max=255"`
	Amount        string `json:"amount" validate:"required"`
}

func (h *SessionHandler) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session := h.usecase.CreateSession(c.Request().Context(), req.UserAddress)
	return c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	id := c.Param("id")

	session, err := h.usecase.GetSession(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Session not found",
		})
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) AddPayment(c echo.Context) error {
	id := c.Param("id")

	var req AddPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.usecase.AddPayment(c.Request().Context(), id, req.Recipient, req.RecipientName, req.Amount)
	if err != nil {
		var invalidAmount *domainErr.InvalidAmountError
		switch {
		case errors.Is(err, domainErr.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Session not found",
			})
		case errors.As(err, &invalidAmount):
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error":  "Invalid payment amount",
				"amount": invalidAmount.Value,
			})
		case errors.Is(err, domainErr.ErrAmountOverflow):
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{
				"error": "Total amount overflow",
			})
		}
		h.logger.Error("failed to add payment",
			zap.String("session_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to add payment",
		})
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) RemovePayment(c echo.Context) error {
	id := c.Param("id")
	paymentID := c.Param("paymentId")

	session, err := h.usecase.RemovePayment(c.Request().Context(), id, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, domainErr.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Session not found",
			})
		case errors.Is(err, domainErr.ErrPaymentNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Payment not found",
			})
		}
		h.logger.Error("failed to remove payment",
			zap.String("session_id", id),
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to remove payment",
		})
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Finalize(c echo.Context) error {
	id := c.Param("id")

	session, err := h.usecase.Finalize(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Session not found",
		})
	}
	return c.JSON(http.StatusOK, session)
}
