package checkout

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/modecraft/storefront-backend/internal/cart"
	"github.com/modecraft/storefront-backend/internal/cartstore"
	"github.com/modecraft/storefront-backend/pkg/db/models"
	"github.com/modecraft/storefront-backend/pkg/enums"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
	"github.com/modecraft/storefront-backend/pkg/logger"
	"github.com/modecraft/storefront-backend/pkg/metrics"
)

// CartAccessor is the slice of the cart service checkout needs: read
// the current cart and clear it after a confirmed order.
type CartAccessor interface {
	Get(ctx context.Context, cartKey string) (*cart.Cart, error)
	Clear(ctx context.Context, cartKey string) error
}

// OrderCreator persists a confirmed order.
type OrderCreator interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
}

// Service drives the two-step checkout flow: shipping, then payment,
// then a terminal complete state.
type Service interface {
	Begin(ctx context.Context, cartKey string) (*View, error)
	State(ctx context.Context, cartKey string) (*View, error)
	SubmitShipping(ctx context.Context, cartKey string, info ShippingInfo) (*View, error)
	Back(ctx context.Context, cartKey string) (*View, error)
	SubmitPayment(ctx context.Context, cartKey string, info PaymentInfo) (*View, error)
	Abandon(ctx context.Context, cartKey string)
}

type service struct {
	carts       CartAccessor
	orders      OrderCreator
	gateway     Gateway
	rates       Rates
	idleTimeout time.Duration
	logg        *logger.Logger
	metrics     *metrics.CartMetrics
	validate    *validator.Validate
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService wires the checkout flow. Cart access, order persistence
// and a gateway are required; logger and metrics are optional.
func NewService(
	carts CartAccessor,
	orders OrderCreator,
	gateway Gateway,
	rates Rates,
	idleTimeout time.Duration,
	logg *logger.Logger,
	cartMetrics *metrics.CartMetrics,
) (Service, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service requires a cart accessor")
	}
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service requires an order creator")
	}
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service requires a payment gateway")
	}
	return &service{
		carts:       carts,
		orders:      orders,
		gateway:     gateway,
		rates:       rates,
		idleTimeout: idleTimeout,
		logg:        logg,
		metrics:     cartMetrics,
		validate:    validator.New(),
		now:         time.Now,
		sessions:    make(map[string]*session),
	}, nil
}

// Begin starts a fresh checkout session at the shipping step, replacing
// any in-progress session for the cart. The cart is snapshotted as of
// this moment and re-read again at payment time.
func (s *service) Begin(ctx context.Context, cartKey string) (*View, error) {
	current, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to read cart")
	}

	sess := &session{
		cartKey:   cartKey,
		step:      enums.CheckoutStepShipping,
		items:     current.Items,
		totals:    ComputeTotals(current.Items, s.rates),
		touchedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[cartKey] = sess
	view := sess.view()
	s.mu.Unlock()

	return view, nil
}

// State reports the current session without advancing it.
func (s *service) State(_ context.Context, cartKey string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(cartKey)
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	return sess.view(), nil
}

// SubmitShipping validates the address form and advances to payment.
func (s *service) SubmitShipping(_ context.Context, cartKey string, info ShippingInfo) (*View, error) {
	if err := s.validateShipping(info); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(cartKey)
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	if sess.step != enums.CheckoutStepShipping {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping has already been submitted")
	}

	sess.shipping = info
	sess.step = enums.CheckoutStepPayment
	sess.touchedAt = s.now()
	return sess.view(), nil
}

// Back returns from the payment step to shipping, keeping the address
// the user already entered. It is rejected while a payment is in flight
// and from any other step.
func (s *service) Back(_ context.Context, cartKey string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(cartKey)
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	if sess.submitting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is being processed")
	}
	if sess.step != enums.CheckoutStepPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "nothing to go back to")
	}

	sess.step = enums.CheckoutStepShipping
	sess.touchedAt = s.now()
	return sess.view(), nil
}

// SubmitPayment validates the card form, authorizes the amount with the
// gateway, persists the order, clears the cart and moves the session to
// its terminal complete state. Re-submitting while a payment is in
// flight is rejected rather than queued.
func (s *service) SubmitPayment(ctx context.Context, cartKey string, info PaymentInfo) (view *View, err error) {
	defer func() { s.metrics.ObserveCheckout(err) }()

	if err = s.validatePayment(info); err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := s.lookup(cartKey)
	if sess == nil {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	if sess.step != enums.CheckoutStepPayment {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not at the payment step")
	}
	if sess.submitting {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already being processed")
	}
	sess.submitting = true
	sess.touchedAt = s.now()
	shipping := sess.shipping
	s.mu.Unlock()

	settle := func() {
		s.mu.Lock()
		sess.submitting = false
		s.mu.Unlock()
	}

	current, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		settle()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to read cart")
	}
	if len(current.Items) == 0 {
		settle()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	totals := ComputeTotals(current.Items, s.rates)

	result, err := s.gateway.Authorize(ctx, AuthorizationRequest{
		CartKey:    cartKey,
		Amount:     totals.Total,
		CardName:   info.CardName,
		CardNumber: CardDigits(info.CardNumber),
	})
	if err != nil {
		settle()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway is unreachable")
	}
	if !result.Authorized {
		settle()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment was declined").
			WithDetails(map[string]any{"reason": result.DeclineReason})
	}

	order, err := s.orders.Create(ctx, buildOrder(cartKey, shipping, current.Items, totals))
	if err != nil {
		settle()
		if s.logg != nil {
			s.logg.Error(ctx, "authorized payment but failed to persist order", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist order")
	}

	if clearErr := s.carts.Clear(ctx, cartKey); clearErr != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to clear cart after checkout")
	}

	s.mu.Lock()
	sess.step = enums.CheckoutStepComplete
	sess.submitting = false
	sess.items = current.Items
	sess.totals = totals
	sess.orderID = order.ID
	sess.touchedAt = s.now()
	view = sess.view()
	s.mu.Unlock()

	if s.logg != nil {
		s.logg.Info(ctx, "checkout complete")
	}
	return view, nil
}

// Abandon drops the session with no side effects. The cart is left
// exactly as it was.
func (s *service) Abandon(_ context.Context, cartKey string) {
	s.mu.Lock()
	delete(s.sessions, cartKey)
	s.mu.Unlock()
}

// lookup fetches the session for a cart, evicting it first if it has
// sat idle past the timeout. Callers must hold s.mu.
func (s *service) lookup(cartKey string) *session {
	sess, ok := s.sessions[cartKey]
	if !ok {
		return nil
	}
	if s.idleTimeout > 0 && s.now().Sub(sess.touchedAt) > s.idleTimeout {
		delete(s.sessions, cartKey)
		return nil
	}
	return sess
}

func (s *service) validateShipping(info ShippingInfo) error {
	err := s.validate.Struct(info)
	if err == nil {
		return nil
	}

	details := map[string]any{}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			details[shippingFieldName(fe.StructField())] = shippingFieldMessage(fe)
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "shipping information is incomplete").
		WithDetails(details)
}

func shippingFieldName(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Address":
		return "address"
	case "City":
		return "city"
	case "PostalCode":
		return "postal_code"
	case "Country":
		return "country"
	default:
		return structField
	}
}

func shippingFieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "contains" {
		return "must contain '@'"
	}
	return "is required"
}

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

func (s *service) validatePayment(info PaymentInfo) error {
	details := map[string]any{}

	if info.CardName == "" {
		details["card_name"] = "is required"
	}
	if digits := CardDigits(info.CardNumber); len(digits) < 13 || len(digits) > maxCardDigits {
		details["card_number"] = "must be 13 to 16 digits"
	}
	if !expiryPattern.MatchString(info.Expiry) {
		details["expiry"] = "must be in MM/YY format"
	}
	if !cvvPattern.MatchString(info.CVV) {
		details["cvv"] = "must be 3 or 4 digits"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment information is invalid").
			WithDetails(details)
	}
	return nil
}

func buildOrder(cartKey string, shipping ShippingInfo, items []cartstore.LineItem, totals Totals) *models.Order {
	lines := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.OrderLineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}
	return &models.Order{
		CartKey:    cartKey,
		Status:     enums.OrderStatusProcessing,
		Subtotal:   totals.Subtotal.Round(2),
		Shipping:   totals.Shipping.Round(2),
		Tax:        totals.Tax.Round(2),
		Total:      totals.Total.Round(2),
		Name:       shipping.Name,
		Email:      shipping.Email,
		Address:    shipping.Address,
		City:       shipping.City,
		PostalCode: shipping.PostalCode,
		Country:    shipping.Country,
		LineItems:  lines,
	}
}
