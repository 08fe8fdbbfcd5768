package store_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnkanMisra/SettleOne/internal/domain/entity"
	domainErr "github.com/AnkanMisra/SettleOne/internal/domain/errors"
	"github.com/AnkanMisra/SettleOne/internal/store"
)

const maxAmount = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

func payment(id, amount string) entity.Payment {
	return entity.Payment{
		ID:        id,
		Recipient: "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
		Amount:    entity.MustParseAmount(amount),
		Status:    entity.PaymentStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	s := store.NewSessionStore()

	created := s.Create("s1", "alice")
	assert.Equal(t, entity.SessionStatusActive, created.Status)
	assert.Empty(t, created.Payments)
	assert.Equal(t, "0", created.TotalAmount.String())

	got, ok := s.Get("s1")
	require.True(t, ok)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.User, got.User)
	assert.Equal(t, created.Status, got.Status)

	// Repeated reads without intervening mutation are identical
	again, ok := s.Get("s1")
	require.True(t, ok)
	assert.Equal(t, got, again)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 1, s.Count())
}

func TestSessionStoreAddPayment(t *testing.T) {
	t.Run("accumulates payments and total", func(t *testing.T) {
		s := store.NewSessionStore()
		s.Create("s1", "alice")

		snap, err := s.AddPayment("s1", payment("p1", "1000000"))
		require.NoError(t, err)
		assert.Equal(t, "1000000", snap.TotalAmount.String())

		snap, err = s.AddPayment("s1", payment("p2", "2000000"))
		require.NoError(t, err)
		assert.Len(t, snap.Payments, 2)
		assert.Equal(t, "3000000", snap.TotalAmount.String())
	})

	t.Run("unknown session", func(t *testing.T) {
		s := store.NewSessionStore()

		_, err := s.AddPayment("missing", payment("p1", "1"))
		assert.ErrorIs(t, err, domainErr.ErrSessionNotFound)
	})

	t.Run("overflow leaves the session unchanged", func(t *testing.T) {
		s := store.NewSessionStore()
		s.Create("s1", "alice")
		_, err := s.AddPayment("s1", payment("p1", maxAmount))
		require.NoError(t, err)

		before, ok := s.Get("s1")
		require.True(t, ok)

		_, err = s.AddPayment("s1", payment("p2", "1"))
		assert.ErrorIs(t, err, domainErr.ErrAmountOverflow)
		assert.NotErrorIs(t, err, domainErr.ErrSessionNotFound)

		after, ok := s.Get("s1")
		require.True(t, ok)
		assert.Equal(t, before, after)
	})

	t.Run("snapshot mutation does not reach the store", func(t *testing.T) {
		s := store.NewSessionStore()
		s.Create("s1", "alice")

		snap, err := s.AddPayment("s1", payment("p1", "100"))
		require.NoError(t, err)
		snap.Payments[0].Recipient = "tampered"

		fresh, ok := s.Get("s1")
		require.True(t, ok)
		assert.Equal(t, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", fresh.Payments[0].Recipient)
	})
}

func TestSessionStoreRemovePayment(t *testing.T) {
	s := store.NewSessionStore()
	s.Create("s1", "alice")
	_, err := s.AddPayment("s1", payment("p1", "100"))
	require.NoError(t, err)
	_, err = s.AddPayment("s1", payment("p2", "200"))
	require.NoError(t, err)

	snap, err := s.RemovePayment("s1", "p1")
	require.NoError(t, err)
	assert.Len(t, snap.Payments, 1)
	assert.Equal(t, "200", snap.TotalAmount.String())

	_, err = s.RemovePayment("s1", "p1")
	assert.ErrorIs(t, err, domainErr.ErrPaymentNotFound)

	_, err = s.RemovePayment("missing", "p2")
	assert.ErrorIs(t, err, domainErr.ErrSessionNotFound)
}

func TestSessionStoreUpdateStatus(t *testing.T) {
	s := store.NewSessionStore()
	s.Create("s1", "alice")

	snap, err := s.UpdateStatus("s1", entity.SessionStatusPending)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusPending, snap.Status)

	got, ok := s.Get("s1")
	require.True(t, ok)
	assert.Equal(t, entity.SessionStatusPending, got.Status)

	// No transition table: any status may be set
	snap, err = s.UpdateStatus("s1", entity.SessionStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCancelled, snap.Status)

	_, err = s.UpdateStatus("missing", entity.SessionStatusSettled)
	assert.ErrorIs(t, err, domainErr.ErrSessionNotFound)
}

func TestSessionStoreConcurrentAddPayment(t *testing.T) {
	const workers = 64

	s := store.NewSessionStore()
	s.Create("s1", "alice")

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := s.AddPayment("s1", payment(fmt.Sprintf("p%d", i), "1000000"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, ok := s.Get("s1")
	require.True(t, ok)
	assert.Len(t, got.Payments, workers)
	assert.Equal(t, fmt.Sprintf("%d", workers*1000000), got.TotalAmount.String())
}
