package checkout_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/events"
)

func TestFinalizeEmptyCartRejects(t *testing.T) {
	log := events.NewMemoryLog(10)
	f := &checkout.Finalizer{Events: &events.Bus{Store: log}}
	l := cart.NewLedger()

	out := f.Finalize(context.Background(), "sess", l)
	require.Equal(t, checkout.Rejected, out.State)
	require.Equal(t, common.ErrorNotice(checkout.EmptyCartMessage), out.Notice)
	require.Empty(t, out.OrderRef)
	require.Equal(t, 0, l.Len())

	n, ok := l.Notice()
	require.True(t, ok)
	require.True(t, n.IsError())

	recent := log.Recent(0)
	require.Len(t, recent, 1)
	require.Equal(t, events.TopicCheckoutRejected, recent[0].Topic)
}

func TestFinalizeConfirmsAndClears(t *testing.T) {
	log := events.NewMemoryLog(10)
	f := &checkout.Finalizer{
		Events: &events.Bus{Store: log},
		NewRef: func() string { return "order-1" },
	}
	l := cart.NewLedger()
	require.True(t, l.AddItem("Mug", "12.50"))
	require.True(t, l.AddItem("Shirt", "20.00"))
	preClear := l.Totals().Total

	out := f.Finalize(context.Background(), "sess", l)
	require.Equal(t, checkout.Confirmed, out.State)
	require.Equal(t, "Thank you for your order! Total: $35.10", out.Notice.Text)
	require.False(t, out.Notice.IsError())
	require.True(t, out.Total.Equal(preClear))
	require.Equal(t, 2, out.ItemCount)
	require.Equal(t, "order-1", out.OrderRef)

	require.Equal(t, 0, l.Len())
	require.True(t, l.Totals().IsZero())

	view := l.View()
	require.True(t, view.Empty)
	require.NotNil(t, view.Notice)
	require.Equal(t, out.Notice, *view.Notice)

	recent := log.Recent(0)
	require.Len(t, recent, 1)
	require.Equal(t, events.TopicCheckoutConfirmed, recent[0].Topic)
	require.JSONEq(t, `{"orderRef":"order-1","itemCount":2,"total":"35.10"}`, string(recent[0].Payload))
}

func TestConfirmationIsCapturedByValue(t *testing.T) {
	f := &checkout.Finalizer{}
	l := cart.NewLedger()
	require.True(t, l.AddItem("Mug", "10"))

	out := f.Finalize(context.Background(), "", l)
	require.Equal(t, checkout.Confirmed, out.State)

	require.True(t, l.AddItem("Poster", "99"))
	require.Equal(t, "Thank you for your order! Total: $10.80", out.Notice.Text)
	require.True(t, out.Total.Equal(decimal.RequireFromString("10.8")))

	_, ok := l.Notice()
	require.False(t, ok, "a cart mutation clears the standing message")
}

func TestFinalizeReevaluatesEachRequest(t *testing.T) {
	f := &checkout.Finalizer{}
	l := cart.NewLedger()

	require.Equal(t, checkout.Rejected, f.Finalize(context.Background(), "s", l).State)
	require.True(t, l.AddItem("Mug", "1"))
	require.Equal(t, checkout.Confirmed, f.Finalize(context.Background(), "s", l).State)
	require.Equal(t, checkout.Rejected, f.Finalize(context.Background(), "s", l).State)
}

func TestFinalizeNilLedger(t *testing.T) {
	var f *checkout.Finalizer
	out := f.Finalize(context.Background(), "s", nil)
	require.Equal(t, checkout.Rejected, out.State)
}

func TestStateJSON(t *testing.T) {
	out := checkout.Outcome{State: checkout.Confirmed}
	data, err := json.Marshal(out)
	require.NoError(t, err)
	require.Contains(t, string(data), `"state":"confirmed"`)
	require.Equal(t, "idle", checkout.Idle.String())
}
