package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceItem_TotalRoundsToCents(t *testing.T) {
	item := InvoiceItem{Quantity: 1, UnitPrice: 5, TaxRate: 10}
	assert.Equal(t, 5.5, item.Total())

	item = InvoiceItem{Quantity: 3, UnitPrice: 3.33, TaxRate: 0}
	assert.Equal(t, 9.99, item.Total())
}

func TestInvoice_RecomputeTotal(t *testing.T) {
	invoice := Invoice{
		Items: []InvoiceItem{
			{Quantity: 2, UnitPrice: 10, TaxRate: 0},
			{Quantity: 1, UnitPrice: 5, TaxRate: 10},
		},
	}
	invoice.RecomputeTotal()
	assert.Equal(t, 25.5, invoice.TotalAmount)
}

func TestInvoice_RecomputeTotalEmpty(t *testing.T) {
	invoice := Invoice{TotalAmount: 99}
	invoice.RecomputeTotal()
	assert.Equal(t, 0.0, invoice.TotalAmount)
}

func TestInvoice_TransitionTable(t *testing.T) {
	cases := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{InvoiceDraft, InvoiceSent, true},
		{InvoiceDraft, InvoiceCancelled, true},
		{InvoiceDraft, InvoicePaid, false},
		{InvoiceSent, InvoicePaid, true},
		{InvoiceSent, InvoiceOverdue, true},
		{InvoiceSent, InvoiceCancelled, true},
		{InvoiceSent, InvoiceDraft, false},
		{InvoiceOverdue, InvoicePaid, true},
		{InvoiceOverdue, InvoiceCancelled, true},
		{InvoicePaid, InvoiceCancelled, false},
		{InvoicePaid, InvoiceSent, false},
		{InvoiceCancelled, InvoiceSent, false},
	}

	for _, tc := range cases {
		invoice := Invoice{Status: tc.from}
		err := invoice.Transition(tc.to, time.Now())
		if tc.allowed {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.to, invoice.Status)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.from, invoice.Status)
		}
	}
}

func TestInvoice_MarkPaidSettlesAmount(t *testing.T) {
	now := time.Now()
	invoice := Invoice{Status: InvoiceSent, TotalAmount: 120.75}

	require.NoError(t, invoice.Transition(InvoicePaid, now))
	assert.Equal(t, InvoicePaid, invoice.Status)
	assert.Equal(t, 120.75, invoice.PaidAmount)
	require.NotNil(t, invoice.PaymentDate)
	assert.Equal(t, now, *invoice.PaymentDate)
}
