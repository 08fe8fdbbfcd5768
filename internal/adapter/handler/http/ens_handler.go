package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AnkanMisra/SettleOne/internal/usecase"
)

type EnsHandler struct {
	usecase *usecase.EnsService
	logger  *zap.Logger
}

func NewEnsHandler(usecase *usecase.EnsService, logger *zap.Logger) *EnsHandler {
	return &EnsHandler{
		usecase: usecase,
		logger:  logger,
	}
}

type ResolveEnsRequest struct {
	Name string `query:"name" validate:"required"`
}

type ResolveEnsResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Avatar  string `json:"avatar,omitempty"`
}

type LookupAddressRequest struct {
	Address string `query:"address" validate:"required"`
}

type LookupAddressResponse struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

func (h *EnsHandler) ResolveEns(c echo.Context) error {
	var req ResolveEnsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid query parameters",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.usecase.Resolve(c.Request().Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidEnsName):
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		case errors.Is(err, usecase.ErrEnsNameNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": err.Error(),
			})
		}
		h.logger.Error("ENS resolution failed",
			zap.String("name", req.Name),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "ENS resolution failed",
		})
	}

	return c.JSON(http.StatusOK, ResolveEnsResponse{
		Name:    result.Name,
		Address: result.Address,
		Avatar:  result.Avatar,
	})
}

func (h *EnsHandler) LookupAddress(c echo.Context) error {
	var req LookupAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid query parameters",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	name, err := h.usecase.ReverseLookup(c.Request().Context(), req.Address)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidAddress) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		h.logger.Error("address lookup failed",
			zap.String("address", req.Address),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "Address lookup failed",
		})
	}

	return c.JSON(http.StatusOK, LookupAddressResponse{
		Address: req.Address,
		Name:    name,
	})
}
