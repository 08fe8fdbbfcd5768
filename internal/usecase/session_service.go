package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnkanMisra/SettleOne/internal/domain/entity"
	domainErr "github.com/AnkanMisra/SettleOne/internal/domain/errors"
	"github.com/AnkanMisra/SettleOne/internal/metrics"
	"github.com/AnkanMisra/SettleOne/internal/store"
)

// SessionService owns session lifecycle business logic on top of the store:
// id generation, payment construction, amount validation and finalization.
type SessionService struct {
	store    *store.SessionStore
	logger   *zap.Logger
	recorder metrics.Recorder
}

// NewSessionService creates a new session service instance
func NewSessionService(sessionStore *store.SessionStore, logger *zap.Logger, recorder metrics.Recorder) *SessionService {
	return &SessionService{
		store:    sessionStore,
		logger:   logger,
		recorder: recorder,
	}
}

// CreateSession creates a new active session for the given user and returns
// a snapshot of it.
func (s *SessionService) CreateSession(ctx context.Context, user string) entity.Session {
	start := time.Now()
	id := uuid.New().String()
	session := s.store.Create(id, user)

	s.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("user", user))
	s.recorder.IncCounter("session_created", map[string]string{"outcome": "ok"})
	s.recorder.ObserveLatency("create_session", time.Since(start), nil)
	return session
}

// GetSession returns a snapshot of the session, or errors.ErrSessionNotFound.
func (s *SessionService) GetSession(ctx context.Context, id string) (entity.Session, error) {
	session, ok := s.store.Get(id)
	if !ok {
		return entity.Session{}, domainErr.ErrSessionNotFound
	}
	return session, nil
}

// AddPayment validates the amount, constructs a pending payment and appends
// it to the session. The error taxonomy is preserved for the handler layer:
// *errors.InvalidAmountError for unparseable amounts, errors.ErrAmountOverflow
// when the total would exceed the representable range, and
// errors.ErrSessionNotFound for an unknown session.
func (s *SessionService) AddPayment(ctx context.Context, sessionID, recipient, recipientName, amount string) (entity.Session, error) {
	start := time.Now()

	parsed, err := entity.ParseAmount(amount)
	if err != nil {
		s.logger.Warn("rejected payment amount",
			zap.String("session_id", sessionID),
			zap.String("amount", amount),
			zap.Error(err))
		s.recorder.IncCounter("payment_added", map[string]string{"outcome": "invalid_amount"})
		return entity.Session{}, err
	}

	payment := entity.Payment{
		ID:            uuid.New().String(),
		Recipient:     recipient,
		RecipientName: recipientName,
		Amount:        parsed,
		Status:        entity.PaymentStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	session, err := s.store.AddPayment(sessionID, payment)
	if err != nil {
		s.recorder.IncCounter("payment_added", map[string]string{"outcome": "error"})
		return entity.Session{}, err
	}

	s.logger.Info("payment added",
		zap.String("session_id", sessionID),
		zap.String("payment_id", payment.ID),
		zap.String("recipient", recipient),
		zap.String("amount", parsed.String()),
		zap.String("total_amount", session.TotalAmount.String()))
	s.recorder.IncCounter("payment_added", map[string]string{"outcome": "ok"})
	s.recorder.ObserveLatency("add_payment", time.Since(start), nil)
	return session, nil
}

// RemovePayment removes a payment from the session and returns the updated
// snapshot.
func (s *SessionService) RemovePayment(ctx context.Context, sessionID, paymentID string) (entity.Session, error) {
	session, err := s.store.RemovePayment(sessionID, paymentID)
	if err != nil {
		return entity.Session{}, err
	}

	s.logger.Info("payment removed",
		zap.String("session_id", sessionID),
		zap.String("payment_id", paymentID),
		zap.String("total_amount", session.TotalAmount.String()))
	return session, nil
}

// Finalize moves the session from active to pending, handing it over to
// settlement. The underlying status update is unconditional; only this
// transition is exposed over the API.
func (s *SessionService) Finalize(ctx context.Context, sessionID string) (entity.Session, error) {
	session, err := s.store.UpdateStatus(sessionID, entity.SessionStatusPending)
	if err != nil {
		return entity.Session{}, err
	}

	s.logger.Info("session finalized",
		zap.String("session_id", sessionID),
		zap.String("total_amount", session.TotalAmount.String()),
		zap.Int("payment_count", len(session.Payments)))
	s.recorder.IncCounter("session_finalized", map[string]string{"outcome": "ok"})
	return session, nil
}
