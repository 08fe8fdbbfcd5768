package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlers "github.com/AnkanMisra/SettleOne/internal/adapter/handler/http"
	"github.com/AnkanMisra/SettleOne/internal/domain/entity"
	"github.com/AnkanMisra/SettleOne/internal/metrics"
	"github.com/AnkanMisra/SettleOne/internal/store"
	"github.com/AnkanMisra/SettleOne/internal/usecase"
)

const recipient = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"

func newTestHandler() (*handlers.SessionHandler, *usecase.SessionService, *echo.Echo) {
	svc := usecase.NewSessionService(store.NewSessionStore(), zap.NewNop(), metrics.NewNoopRecorder())
	h := handlers.NewSessionHandler(svc, zap.NewNop())

	e := echo.New()
	e.Validator = handlers.NewRequestValidator()
	return h, svc, e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestCreateSession(t *testing.T) {
	h, _, e := newTestHandler()

	t.Run("creates an active session", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/v1/sessions", `{"user_address":"`+recipient+`"}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, h.CreateSession(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var session entity.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, recipient, session.User)
		assert.Equal(t, entity.SessionStatusActive, session.Status)
		assert.Empty(t, session.Payments)
		assert.Equal(t, "0", session.TotalAmount.String())
	})

	t.Run("rejects a malformed user address", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/v1/sessions", `{"user_address":"not-an-address"}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.CreateSession(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})
}

func TestGetSession(t *testing.T) {
	h, svc, e := newTestHandler()
	session := svc.CreateSession(context.Background(), recipient)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/v1/sessions/:id")
		c.SetParamNames("id")
		c.SetParamValues(session.ID)

		require.NoError(t, h.GetSession(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/v1/sessions/:id")
		c.SetParamNames("id")
		c.SetParamValues("missing")

		require.NoError(t, h.GetSession(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAddPayment(t *testing.T) {
	addPayment := func(t *testing.T, h *handlers.SessionHandler, e *echo.Echo, sessionID, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := jsonRequest(http.MethodPost, "/", body)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/v1/sessions/:id/payments")
		c.SetParamNames("id")
		c.SetParamValues(sessionID)
		require.NoError(t, h.AddPayment(c))
		return rec
	}

	t.Run("accumulates payments and total", func(t *testing.T) {
		h, svc, e := newTestHandler()
		session := svc.CreateSession(context.Background(), recipient)

		rec := addPayment(t, h, e, session.ID, `{"recipient":"`+recipient+`","amount":"1000000"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = addPayment(t, h, e, session.ID, `{"recipient":"`+recipient+`","recipient_name":"vitalik.eth","amount":"2000000"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated entity.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Len(t, updated.Payments, 2)
		assert.Equal(t, "3000000", updated.TotalAmount.String())
		assert.Equal(t, "vitalik.eth", updated.Payments[1].RecipientName)
	})

	t.Run("invalid amount is a 400 with the offending value", func(t *testing.T) {
		h, svc, e := newTestHandler()
		session := svc.CreateSession(context.Background(), recipient)

		rec := addPayment(t, h, e, session.ID, `{"recipient":"`+recipient+`","amount":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "abc", body["amount"])

		// Session is untouched
		got, err := svc.GetSession(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Payments)
		assert.Equal(t, "0", got.TotalAmount.String())
	})

	t.Run("unknown session is a 404, not a 400", func(t *testing.T) {
		h, _, e := newTestHandler()

		rec := addPayment(t, h, e, "missing", `{"recipient":"`+recipient+`","amount":"1000"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("overflow is a 422", func(t *testing.T) {
		h, svc, e := newTestHandler()
		session := svc.CreateSession(context.Background(), recipient)

		maxAmount := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
		rec := addPayment(t, h, e, session.ID, `{"recipient":"`+recipient+`","amount":"`+maxAmount+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = addPayment(t, h, e, session.ID, `{"recipient":"`+recipient+`","amount":"1"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestRemovePayment(t *testing.T) {
	h, svc, e := newTestHandler()
	session := svc.CreateSession(context.Background(), recipient)
	withPayment, err := svc.AddPayment(context.Background(), session.ID, recipient, "", "500")
	require.NoError(t, err)

	remove := func(sessionID, paymentID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/v1/sessions/:id/payments/:paymentId")
		c.SetParamNames("id", "paymentId")
		c.SetParamValues(sessionID, paymentID)
		require.NoError(t, h.RemovePayment(c))
		return rec
	}

	rec := remove(session.ID, withPayment.Payments[0].ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	var updated entity.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Empty(t, updated.Payments)
	assert.Equal(t, "0", updated.TotalAmount.String())

	assert.Equal(t, http.StatusNotFound, remove(session.ID, "missing").Code)
	assert.Equal(t, http.StatusNotFound, remove("missing", "p1").Code)
}

func TestFinalize(t *testing.T) {
	h, svc, e := newTestHandler()
	session := svc.CreateSession(context.Background(), recipient)
	_, err := svc.AddPayment(context.Background(), session.ID, recipient, "", "1000000")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/sessions/:id/finalize")
	c.SetParamNames("id")
	c.SetParamValues(session.ID)

	require.NoError(t, h.Finalize(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var finalized entity.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finalized))
	assert.Equal(t, entity.SessionStatusPending, finalized.Status)

	got, err := svc.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusPending, got.Status)
}
