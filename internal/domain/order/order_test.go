package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumber_Format(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	n := NewNumber(now)

	parts := strings.Split(n, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "TH", parts[0])
	assert.Equal(t, "20260831", parts[1])
	assert.Len(t, parts[2], numberSuffixLen)
	for _, c := range parts[2] {
		assert.Contains(t, numberAlphabet, string(c))
	}
}

func TestNewNumber_UsesUTCDate(t *testing.T) {
	// 23:30 in UTC+2 is 21:30 UTC the same day; 01:30 in UTC+2 is the
	// previous UTC day.
	stockholm := time.FixedZone("CEST", 2*60*60)
	n := NewNumber(time.Date(2026, 9, 1, 1, 30, 0, 0, stockholm))
	assert.True(t, strings.HasPrefix(n, "TH-20260831-"))
}

func TestNewNumber_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for range 100 {
		n := NewNumber(now)
		assert.False(t, seen[n])
		seen[n] = true
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusCreated, StatusAwaitingPayment, true},
		{StatusAwaitingPayment, StatusPaid, true},
		{StatusAwaitingPayment, StatusFailed, true},
		{StatusAwaitingPayment, StatusCancelled, true},
		{StatusPaid, StatusRefunded, true},

		{StatusPaid, StatusCancelled, false},
		{StatusPaid, StatusAwaitingPayment, false},
		{StatusCancelled, StatusPaid, false},
		{StatusRefunded, StatusPaid, false},
		{StatusFailed, StatusPaid, false},
		{StatusCreated, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusAwaitingPayment.Terminal())
	assert.False(t, StatusCancelled.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPaid.Valid())
	assert.False(t, Status("SHIPPED").Valid())
	assert.False(t, Status("").Valid())
}

func TestReceiptView_OmitsTokenMaterial(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	paidAt := time.Now()
	o := &Order{
		ID:           "internal-id",
		Number:       "TH-20260831-ABC234",
		UserID:       "u1",
		CustomerName: "Astrid Berg",
		Items:        []Item{{ProductID: "p1", Title: "Earl Grey", Quantity: 2, PriceCents: 8900, Currency: "SEK"}},
		Totals:       Totals{SubtotalCents: 17800, TotalCents: 17800},
		Currency:     "SEK",
		Method:       MethodManual,
		Status:       StatusPaid,
		SessionID:    "cs_123",
		TokenHash:    "deadbeef",
		TokenExpires: &expires,
		PaidAt:       &paidAt,
	}

	r := o.ReceiptView()

	assert.Equal(t, "TH-20260831-ABC234", r.Number)
	assert.Equal(t, StatusPaid, r.Status)
	assert.Len(t, r.Items, 1)
	assert.NotNil(t, r.PaidAt)
}
