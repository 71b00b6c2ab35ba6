package services

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-api/internal/cart"
	"storefront-api/internal/config"
	"storefront-api/internal/core/errx"
	"storefront-api/internal/models"
	"storefront-api/internal/simulate"
	logx "storefront-api/pkg/logger"
	"storefront-api/pkg/utils"
)

var (
	ErrCartEmpty   = errors.New("cart is empty")
	ErrUnknownStep = errors.New("unknown checkout step")
)

// Pricing holds the order-total rules.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

func PricingFromConfig(cfg config.CheckoutConfig) Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		ShippingFee:           decimal.NewFromFloat(cfg.ShippingFee),
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
	}
}

type CheckoutService struct {
	pricing         Pricing
	processingDelay time.Duration
	carts           *cart.Store
	auth            *AuthService
}

func NewCheckoutService(pricing Pricing, processingDelay time.Duration, carts *cart.Store, auth *AuthService) *CheckoutService {
	return &CheckoutService{pricing: pricing, processingDelay: processingDelay, carts: carts, auth: auth}
}

type totals struct {
	subtotal, shipping, tax, total, remaining decimal.Decimal
}

func (s *CheckoutService) compute(subtotal decimal.Decimal) totals {
	t := totals{subtotal: subtotal, shipping: decimal.Zero, remaining: decimal.Zero}
	// Shipping is free only strictly above the threshold.
	if !subtotal.GreaterThan(s.pricing.FreeShippingThreshold) {
		t.shipping = s.pricing.ShippingFee
		t.remaining = s.pricing.FreeShippingThreshold.Sub(subtotal)
	}
	t.tax = subtotal.Mul(s.pricing.TaxRate)
	t.total = subtotal.Add(t.shipping).Add(t.tax)
	return t
}

// Summary computes shipping, tax and total for a subtotal.
func (s *CheckoutService) Summary(subtotal decimal.Decimal, itemCount int) models.OrderSummary {
	t := s.compute(subtotal)
	return models.OrderSummary{
		Subtotal:              utils.RoundMoney(t.subtotal),
		Shipping:              utils.RoundMoney(t.shipping),
		Tax:                   utils.RoundMoney(t.tax),
		Total:                 utils.RoundMoney(t.total),
		FreeShippingRemaining: utils.RoundMoney(t.remaining),
		ItemCount:             itemCount,
	}
}

// ValidateStep checks one form step and returns field errors keyed the way
// the checkout form names its inputs. An empty map means the step is valid.
func (s *CheckoutService) ValidateStep(step string, req models.CheckoutRequest) (map[string]string, error) {
	switch step {
	case models.StepShipping:
		return validateAddress("shipping", req.Shipping, true), nil
	case models.StepBilling:
		if req.SameAsShipping {
			return map[string]string{}, nil
		}
		return validateAddress("billing", req.Billing, false), nil
	case models.StepPayment:
		return validatePayment(req.Payment), nil
	default:
		return nil, errx.New(ErrUnknownStep, http.StatusNotFound, "unknown checkout step: "+step)
	}
}

func validateAddress(prefix string, a models.Address, requirePhone bool) map[string]string {
	errs := map[string]string{}
	required := func(field, value, label string) {
		if strings.TrimSpace(value) == "" {
			errs[prefix+field] = label + " is required"
		}
	}
	required("FirstName", a.FirstName, "First name")
	required("LastName", a.LastName, "Last name")
	required("Email", a.Email, "Email")
	if requirePhone {
		required("Phone", a.Phone, "Phone")
	}
	required("Address1", a.Address1, "Address")
	required("City", a.City, "City")
	required("State", a.State, "State")
	required("ZipCode", a.ZipCode, "ZIP code")

	if _, missing := errs[prefix+"Email"]; !missing {
		if _, err := mail.ParseAddress(a.Email); err != nil {
			errs[prefix+"Email"] = "Email is invalid"
		}
	}
	return errs
}

func validatePayment(p models.PaymentDetails) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(p.CardNumber) == "" {
		errs["cardNumber"] = "Card number is required"
	}
	if strings.TrimSpace(p.ExpiryDate) == "" {
		errs["expiryDate"] = "Expiry date is required"
	}
	if strings.TrimSpace(p.CVV) == "" {
		errs["cvv"] = "CVV is required"
	}
	if strings.TrimSpace(p.CardName) == "" {
		errs["cardName"] = "Cardholder name is required"
	}
	return errs
}

// PlaceOrder validates every step, waits out the simulated processing delay,
// then records the order and empties the cart. The order is built from the
// cart as it was when placement started; other changes to the session's cart
// wait until placement ends. A cancelled context leaves the cart untouched.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID string, req models.CheckoutRequest) (*models.Order, error) {
	fields := map[string]string{}
	for _, step := range []string{models.StepShipping, models.StepBilling, models.StepPayment} {
		errs, _ := s.ValidateStep(step, req)
		for k, v := range errs {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return nil, errx.Validation("checkout details are incomplete", fields)
	}

	unlock := s.carts.Lock(sessionID)
	defer unlock()

	ledger, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	lines := ledger.Lines()
	if len(lines) == 0 {
		return nil, errx.New(ErrCartEmpty, http.StatusConflict, ErrCartEmpty.Error())
	}

	order, err := simulate.Do(ctx, s.processingDelay, func() (*models.Order, error) {
		return s.buildOrder(lines, req), nil
	})
	if err != nil {
		return nil, err
	}

	if user, err := s.auth.Current(ctx, sessionID); err == nil && user != nil {
		order.UserID = user.ID
		if err := s.auth.AppendOrder(ctx, sessionID, *order); err != nil {
			logx.Warn().Err(err).Str("order", order.ID).Msg("failed to attach order to profile")
		}
	}

	ledger.Clear()
	if err := s.carts.Save(ctx, sessionID, ledger); err != nil {
		return nil, err
	}

	logx.Info().Str("order", order.ID).Float64("total", order.Total).Msg("order placed")
	return order, nil
}

func (s *CheckoutService) buildOrder(lines []models.CartLine, req models.CheckoutRequest) *models.Order {
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		unit := cart.EffectivePrice(l.Product, l.SelectedVariants)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID:        l.Product.ID,
			Name:             l.Product.Name,
			Quantity:         l.Quantity,
			SelectedVariants: l.SelectedVariants,
			UnitPrice:        utils.RoundMoney(unit),
			LineTotal:        utils.RoundMoney(lineTotal),
		})
	}

	t := s.compute(subtotal)
	shipping := req.Shipping
	shipping.Type = "shipping"
	billing := req.Billing
	if req.SameAsShipping {
		billing = req.Shipping
		billing.Phone = ""
	}
	billing.Type = "billing"

	now := time.Now().UTC()
	return &models.Order{
		ID:              uuid.NewString(),
		Items:           items,
		Subtotal:        utils.RoundMoney(t.subtotal),
		Tax:             utils.RoundMoney(t.tax),
		Shipping:        utils.RoundMoney(t.shipping),
		Total:           utils.RoundMoney(t.total),
		Status:          models.OrderStatusProcessing,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		PaymentMethod:   MaskCard(req.Payment.CardNumber),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// MaskCard keeps the last four digits: "Card ending in 4242".
func MaskCard(number string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return "Card"
	}
	return "Card ending in " + string(digits[len(digits)-4:])
}
