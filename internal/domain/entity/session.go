package entity

import (
	"time"

	domainErr "github.com/AnkanMisra/SettleOne/internal/domain/errors"
)

// SessionStatus is the lifecycle status of a payment session. Serialized
// lowercase on the wire.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusSettled   SessionStatus = "settled"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// PaymentStatus is the settlement status of a single payment. The session
// core creates payments as pending and never advances them; transitions
// belong to the settlement collaborator.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusSettled   PaymentStatus = "settled"
)

// Payment is a single recipient/amount entry attached to a session.
// RecipientName is a resolved display alias and is never validated here.
type Payment struct {
	ID            string        `json:"id"`
	Recipient     string        `json:"recipient"`
	RecipientName string        `json:"recipient_name,omitempty"`
	Amount        Amount        `json:"amount"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Session tracks a user's intent to make one or more payments, with an
// aggregate total and lifecycle status. TotalAmount is derived: it always
// equals the exact sum of Payments[*].Amount and is recomputed in full on
// every change to the payment set, never patched incrementally.
type Session struct {
	ID          string        `json:"id"`
	User        string        `json:"user"`
	Status      SessionStatus `json:"status"`
	Payments    []Payment     `json:"payments"`
	TotalAmount Amount        `json:"total_amount"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewSession creates an active session with no payments and a zero total.
func NewSession(id, user string) *Session {
	return &Session{
		ID:        id,
		User:      user,
		Status:    SessionStatusActive,
		Payments:  []Payment{},
		CreatedAt: time.Now().UTC(),
	}
}

// AddPayment appends a payment and recomputes the total. If the recompute
// overflows, the append is rolled back and the session is left exactly as it
// was.
func (s *Session) AddPayment(p Payment) error {
	s.Payments = append(s.Payments, p)
	if err := s.recalculateTotal(); err != nil {
		s.Payments = s.Payments[:len(s.Payments)-1]
		return err
	}
	return nil
}

// RemovePayment removes the payment with the given id, preserving the order
// of the remaining payments, and recomputes the total. Returns
// errors.ErrPaymentNotFound if no payment has that id.
func (s *Session) RemovePayment(paymentID string) error {
	for i := range s.Payments {
		if s.Payments[i].ID == paymentID {
			s.Payments = append(s.Payments[:i], s.Payments[i+1:]...)
			// The sum can only shrink here, so the recompute cannot overflow.
			return s.recalculateTotal()
		}
	}
	return domainErr.ErrPaymentNotFound
}

// recalculateTotal rebuilds TotalAmount from scratch as the sum of all
// payment amounts. On overflow, TotalAmount is left untouched.
func (s *Session) recalculateTotal() error {
	var total Amount
	for i := range s.Payments {
		sum, overflow := total.AddChecked(s.Payments[i].Amount)
		if overflow {
			return domainErr.ErrAmountOverflow
		}
		total = sum
	}
	s.TotalAmount = total
	return nil
}

// Clone returns a deep snapshot copy safe to hand to callers: mutating the
// copy (including its payment slice) cannot touch store-owned state.
func (s *Session) Clone() Session {
	out := *s
	out.Payments = make([]Payment, len(s.Payments))
	copy(out.Payments, s.Payments)
	return out
}
