package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/cart"
	"storefront-api/internal/catalog"
	"storefront-api/internal/config"
	"storefront-api/internal/core/errx"
	"storefront-api/internal/models"
	"storefront-api/internal/storage"
)

var testPricing = PricingFromConfig(config.CheckoutConfig{
	FreeShippingThreshold: 50,
	ShippingFee:           9.99,
	TaxRate:               0.08,
})

type checkoutFixture struct {
	svc     *CheckoutService
	carts   *cart.Store
	auth    *AuthService
	catalog *catalog.Catalog
}

func newCheckout(delay time.Duration) checkoutFixture {
	slots := storage.NewMemoryStore()
	cat := catalog.Default()
	carts := cart.NewStore(slots, time.Hour, cat.Product)
	auth := newAuth(slots)
	return checkoutFixture{
		svc:     NewCheckoutService(testPricing, delay, carts, auth),
		carts:   carts,
		auth:    auth,
		catalog: cat,
	}
}

func (f checkoutFixture) fill(t *testing.T, sessionID, productID string, quantity int, selection map[string]string) {
	t.Helper()
	p, ok := f.catalog.Product(productID)
	require.True(t, ok)
	_, err := f.carts.Update(context.Background(), sessionID, func(l *cart.Ledger) error {
		_, err := l.AddItem(p, quantity, selection)
		return err
	})
	require.NoError(t, err)
}

func (f checkoutFixture) cartLen(t *testing.T, sessionID string) int {
	t.Helper()
	l, err := f.carts.Load(context.Background(), sessionID)
	require.NoError(t, err)
	return l.Len()
}

func validRequest() models.CheckoutRequest {
	return models.CheckoutRequest{
		Shipping: models.Address{
			FirstName: "Jane", LastName: "Roe", Email: "jane@example.com", Phone: "555-0100",
			Address1: "1 Main St", City: "Austin", State: "TX", ZipCode: "78701", Country: "US",
		},
		SameAsShipping: true,
		Payment: models.PaymentDetails{
			CardNumber: "4242 4242 4242 4242", ExpiryDate: "12/30", CVV: "123", CardName: "Jane Roe",
		},
	}
}

func TestSummaryShippingThreshold(t *testing.T) {
	f := newCheckout(0)

	at := f.svc.Summary(decimal.NewFromInt(50), 1)
	assert.Equal(t, 9.99, at.Shipping)
	assert.Equal(t, 4.0, at.Tax)
	assert.Equal(t, 63.99, at.Total)
	assert.Equal(t, 0.0, at.FreeShippingRemaining)

	above := f.svc.Summary(decimal.RequireFromString("50.01"), 1)
	assert.Equal(t, 0.0, above.Shipping)
	assert.Equal(t, 54.01, above.Total)

	small := f.svc.Summary(decimal.NewFromInt(29), 1)
	assert.Equal(t, 9.99, small.Shipping)
	assert.Equal(t, 2.32, small.Tax)
	assert.Equal(t, 41.31, small.Total)
	assert.Equal(t, 21.0, small.FreeShippingRemaining)

	empty := f.svc.Summary(decimal.Zero, 0)
	assert.Equal(t, 9.99, empty.Shipping)
}

func TestValidateStep(t *testing.T) {
	f := newCheckout(0)

	errs, err := f.svc.ValidateStep(models.StepShipping, models.CheckoutRequest{})
	require.NoError(t, err)
	assert.Len(t, errs, 8)
	assert.Equal(t, "First name is required", errs["shippingFirstName"])
	assert.Equal(t, "ZIP code is required", errs["shippingZipCode"])

	req := validRequest()
	req.SameAsShipping = false
	errs, err = f.svc.ValidateStep(models.StepBilling, req)
	require.NoError(t, err)
	assert.Len(t, errs, 7)
	assert.NotContains(t, errs, "billingPhone")

	req.SameAsShipping = true
	errs, _ = f.svc.ValidateStep(models.StepBilling, req)
	assert.Empty(t, errs)

	errs, _ = f.svc.ValidateStep(models.StepPayment, models.CheckoutRequest{})
	assert.Equal(t, map[string]string{
		"cardNumber": "Card number is required",
		"expiryDate": "Expiry date is required",
		"cvv":        "CVV is required",
		"cardName":   "Cardholder name is required",
	}, errs)

	req = validRequest()
	req.Shipping.Email = "nope"
	errs, _ = f.svc.ValidateStep(models.StepShipping, req)
	assert.Equal(t, "Email is invalid", errs["shippingEmail"])

	_, err = f.svc.ValidateStep("gift-wrap", req)
	assert.Equal(t, 404, errx.StatusOf(err))
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(0)

	_, err := f.auth.Login(ctx, "s", models.LoginRequest{Email: "jane@example.com", Password: "pw"})
	require.NoError(t, err)

	f.fill(t, "s", "4", 1, map[string]string{"Size": "M"})

	order, err := f.svc.PlaceOrder(ctx, "s", validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "1", order.UserID)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, "Card ending in 4242", order.PaymentMethod)
	assert.Equal(t, 29.0, order.Subtotal)
	assert.Equal(t, 9.99, order.Shipping)
	assert.Equal(t, 2.32, order.Tax)
	assert.Equal(t, 41.31, order.Total)
	assert.Equal(t, "Austin", order.BillingAddress.City)
	assert.Equal(t, "billing", order.BillingAddress.Type)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "M", order.Items[0].SelectedVariants["Size"])

	assert.Zero(t, f.cartLen(t, "s"))

	orders, err := f.auth.Orders(ctx, "s")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestPlaceOrderAnonymous(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(0)
	f.fill(t, "anon", "2", 1, map[string]string{"Chip": "M3 Max"})

	order, err := f.svc.PlaceOrder(ctx, "anon", validRequest())
	require.NoError(t, err)
	assert.Empty(t, order.UserID)
	assert.Equal(t, 3199.0, order.Subtotal)
	assert.Equal(t, 0.0, order.Shipping)
}

func TestPlaceOrderRejects(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(0)

	_, err := f.svc.PlaceOrder(ctx, "s", validRequest())
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.Equal(t, 409, errx.StatusOf(err))

	bad := validRequest()
	bad.Payment.CVV = ""
	_, err = f.svc.PlaceOrder(ctx, "s", bad)
	require.Error(t, err)
	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.Status)
	assert.Contains(t, appErr.Fields, "cvv")
}

func TestPlaceOrderCancelledKeepsCart(t *testing.T) {
	f := newCheckout(time.Hour)
	f.fill(t, "s", "3", 1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.svc.PlaceOrder(ctx, "s", validRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, f.cartLen(t, "s"))
}

func TestPlaceOrderUsesCartAtStart(t *testing.T) {
	f := newCheckout(200 * time.Millisecond)
	f.fill(t, "s", "4", 1, map[string]string{"Size": "M"})

	type placed struct {
		order *models.Order
		err   error
	}
	done := make(chan placed, 1)
	go func() {
		order, err := f.svc.PlaceOrder(context.Background(), "s", validRequest())
		done <- placed{order, err}
	}()

	// Wait for placement to take the cart, then add from a second tab.
	time.Sleep(20 * time.Millisecond)
	f.fill(t, "s", "6", 1, nil)

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.order.Items, 1)
	assert.Equal(t, "4", res.order.Items[0].ProductID)

	l, err := f.carts.Load(context.Background(), "s")
	require.NoError(t, err)
	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "6", lines[0].Product.ID)
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "Card ending in 1111", MaskCard("4111-1111-1111-1111"))
	assert.Equal(t, "Card", MaskCard("12"))
}
