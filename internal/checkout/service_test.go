package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modecraft/storefront-backend/internal/cart"
	"github.com/modecraft/storefront-backend/internal/cartstore"
	"github.com/modecraft/storefront-backend/pkg/db/models"
	"github.com/modecraft/storefront-backend/pkg/enums"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
)

type stubCarts struct {
	mu      sync.Mutex
	items   map[string][]cartstore.LineItem
	cleared int
}

func (s *stubCarts) Get(_ context.Context, cartKey string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]cartstore.LineItem(nil), s.items[cartKey]...)
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return &cart.Cart{Items: items, Subtotal: subtotal}, nil
}

func (s *stubCarts) Clear(_ context.Context, cartKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, cartKey)
	s.cleared++
	return nil
}

type stubOrders struct {
	mu      sync.Mutex
	created []*models.Order
}

func (s *stubOrders) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = int64(len(s.created) + 1)
	s.created = append(s.created, order)
	return order, nil
}

type decliningGateway struct{}

func (decliningGateway) Authorize(context.Context, AuthorizationRequest) (AuthorizationResult, error) {
	return AuthorizationResult{Authorized: false, DeclineReason: "do not honor"}, nil
}

// blockingGateway holds every authorization until release is closed.
type blockingGateway struct {
	release chan struct{}
}

func (g *blockingGateway) Authorize(ctx context.Context, _ AuthorizationRequest) (AuthorizationResult, error) {
	select {
	case <-ctx.Done():
		return AuthorizationResult{}, ctx.Err()
	case <-g.release:
		return AuthorizationResult{Authorized: true, Reference: "blocked-ref"}, nil
	}
}

func testFixture(t *testing.T, gateway Gateway) (Service, *stubCarts, *stubOrders) {
	t.Helper()
	carts := &stubCarts{items: map[string][]cartstore.LineItem{
		"c1": {
			{ProductID: 1, Name: "Walnut Desk", Price: decimal.RequireFromString("30.00"), Image: "/img/desk.jpg", Stock: 5, Quantity: 2},
		},
	}}
	orders := &stubOrders{}
	if gateway == nil {
		gateway = NewSimulatedGateway(0)
	}
	svc, err := NewService(carts, orders, gateway, DefaultRates(), 30*time.Minute, nil, nil)
	require.NoError(t, err)
	return svc, carts, orders
}

func validShipping() ShippingInfo {
	return ShippingInfo{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Address:    "12 Analytical Way",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "GB",
	}
}

func validPayment() PaymentInfo {
	return PaymentInfo{
		CardName:   "Ada Lovelace",
		CardNumber: "4242 4242 4242 4242",
		Expiry:     "12/30",
		CVV:        "123",
	}
}

func advanceToPayment(t *testing.T, svc Service, cartKey string) {
	t.Helper()
	_, err := svc.Begin(context.Background(), cartKey)
	require.NoError(t, err)
	_, err = svc.SubmitShipping(context.Background(), cartKey, validShipping())
	require.NoError(t, err)
}

func TestBeginStartsAtShipping(t *testing.T) {
	svc, _, _ := testFixture(t, nil)

	view, err := svc.Begin(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, view.Step)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, "60.00", view.Display.Subtotal)
	assert.Equal(t, "64.80", view.Display.Total)
	assert.False(t, view.Submitting)
}

func TestStateWithoutSession(t *testing.T) {
	svc, _, _ := testFixture(t, nil)

	_, err := svc.State(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSubmitShippingAdvancesToPayment(t *testing.T) {
	svc, _, _ := testFixture(t, nil)

	_, err := svc.Begin(context.Background(), "c1")
	require.NoError(t, err)

	view, err := svc.SubmitShipping(context.Background(), "c1", validShipping())
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPayment, view.Step)
	assert.Equal(t, "ada@example.com", view.Shipping.Email)
}

func TestSubmitShippingValidation(t *testing.T) {
	svc, _, _ := testFixture(t, nil)
	_, err := svc.Begin(context.Background(), "c1")
	require.NoError(t, err)

	info := validShipping()
	info.City = ""
	info.Email = "not-an-email"

	_, err = svc.SubmitShipping(context.Background(), "c1", info)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Contains(t, appErr.Details(), "city")
	assert.Contains(t, appErr.Details(), "email")
	assert.NotContains(t, appErr.Details(), "name")
}

func TestSubmitShippingWrongStep(t *testing.T) {
	svc, _, _ := testFixture(t, nil)
	advanceToPayment(t, svc, "c1")

	_, err := svc.SubmitShipping(context.Background(), "c1", validShipping())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestBackPreservesShippingInfo(t *testing.T) {
	svc, _, _ := testFixture(t, nil)
	advanceToPayment(t, svc, "c1")

	view, err := svc.Back(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, view.Step)
	assert.Equal(t, "Ada Lovelace", view.Shipping.Name)
	assert.Equal(t, "London", view.Shipping.City)
}

func TestBackAtShippingRejected(t *testing.T) {
	svc, _, _ := testFixture(t, nil)
	_, err := svc.Begin(context.Background(), "c1")
	require.NoError(t, err)

	_, err = svc.Back(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSubmitPaymentCompletesOrder(t *testing.T) {
	svc, carts, orders := testFixture(t, nil)
	advanceToPayment(t, svc, "c1")

	view, err := svc.SubmitPayment(context.Background(), "c1", validPayment())
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepComplete, view.Step)
	assert.Equal(t, int64(1), view.OrderID)
	assert.False(t, view.Submitting)

	require.Len(t, orders.created, 1)
	order := orders.created[0]
	assert.Equal(t, "c1", order.CartKey)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("60.00")))
	assert.True(t, order.Shipping.IsZero())
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("4.80")))
	assert.True(t, order.Total.Equal(decimal.RequireFromString("64.80")))
	assert.Equal(t, "Ada Lovelace", order.Name)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, int64(1), order.LineItems[0].ProductID)
	assert.Equal(t, 2, order.LineItems[0].Quantity)

	assert.Equal(t, 1, carts.cleared, "cart must be cleared after the order is confirmed")
	assert.Empty(t, carts.items["c1"])
}

func TestSubmitPaymentEmptyCart(t *testing.T) {
	svc, carts, orders := testFixture(t, nil)
	advanceToPayment(t, svc, "c1")

	carts.mu.Lock()
	delete(carts.items, "c1")
	carts.mu.Unlock()

	_, err := svc.SubmitPayment(context.Background(), "c1", validPayment())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, orders.created)
}

func TestSubmitPaymentInvalidCard(t *testing.T) {
	svc, _, orders := testFixture(t, nil)
	advanceToPayment(t, svc, "c1")

	info := PaymentInfo{
		CardName:   "",
		CardNumber: "4242",
		Expiry:     "13/30",
		CVV:        "12",
	}
	_, err := svc.SubmitPayment(context.Background(), "c1", info)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Contains(t, appErr.Details(), "card_name")
	assert.Contains(t, appErr.Details(), "card_number")
	assert.Contains(t, appErr.Details(), "expiry")
	assert.Contains(t, appErr.Details(), "cvv")
	assert.Empty(t, orders.created)
}

func TestSubmitPaymentBeforeShipping(t *testing.T) {
	svc, _, _ := testFixture(t, nil)
	_, err := svc.Begin(context.Background(), "c1")
	require.NoError(t, err)

	_, err = svc.SubmitPayment(context.Background(), "c1", validPayment())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSubmitPaymentDeclined(t *testing.T) {
	svc, carts, orders := testFixture(t, decliningGateway{})
	advanceToPayment(t, svc, "c1")

	_, err := svc.SubmitPayment(context.Background(), "c1", validPayment())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "do not honor", details["reason"])

	assert.Empty(t, orders.created)
	assert.Equal(t, 0, carts.cleared)

	// The session stays at payment so the user can retry.
	view, err := svc.State(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPayment, view.Step)
	assert.False(t, view.Submitting)
}

func TestSubmitPaymentReentryBlocked(t *testing.T) {
	gateway := &blockingGateway{release: make(chan struct{})}
	svc, _, orders := testFixture(t, gateway)
	advanceToPayment(t, svc, "c1")

	done := make(chan error, 1)
	go func() {
		_, err := svc.SubmitPayment(context.Background(), "c1", validPayment())
		done <- err
	}()

	require.Eventually(t, func() bool {
		view, err := svc.State(context.Background(), "c1")
		return err == nil && view.Submitting
	}, time.Second, 5*time.Millisecond)

	_, err := svc.SubmitPayment(context.Background(), "c1", validPayment())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.Back(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	close(gateway.release)
	require.NoError(t, <-done)
	require.Len(t, orders.created, 1, "only the first submission may place an order")

	view, err := svc.State(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepComplete, view.Step)
}

func TestAbandonDropsSessionKeepsCart(t *testing.T) {
	svc, carts, _ := testFixture(t, nil)
	advanceToPayment(t, svc, "c1")

	svc.Abandon(context.Background(), "c1")

	_, err := svc.State(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Len(t, carts.items["c1"], 1, "abandoning checkout must not touch the cart")
}

func TestIdleSessionEvicted(t *testing.T) {
	svc, _, _ := testFixture(t, nil)
	_, err := svc.Begin(context.Background(), "c1")
	require.NoError(t, err)

	impl := svc.(*service)
	base := time.Now()
	impl.now = func() time.Time { return base.Add(31 * time.Minute) }

	_, err = svc.State(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestBeginReplacesExistingSession(t *testing.T) {
	svc, _, _ := testFixture(t, nil)
	advanceToPayment(t, svc, "c1")

	view, err := svc.Begin(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, view.Step)
	assert.Empty(t, view.Shipping.Name)
}

func TestSimulatedGatewayAuthorizes(t *testing.T) {
	gateway := NewSimulatedGateway(time.Millisecond)

	result, err := gateway.Authorize(context.Background(), AuthorizationRequest{
		CartKey: "c1",
		Amount:  decimal.RequireFromString("64.80"),
	})
	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.NotEmpty(t, result.Reference)
}

func TestSimulatedGatewayHonorsCancellation(t *testing.T) {
	gateway := NewSimulatedGateway(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gateway.Authorize(ctx, AuthorizationRequest{})
	require.ErrorIs(t, err, context.Canceled)
}
