package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	checkoutsvc "github.com/modecraft/storefront-backend/internal/checkout"
	"github.com/modecraft/storefront-backend/pkg/enums"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
)

type stubCheckoutService struct {
	view      *checkoutsvc.View
	err       error
	abandoned bool
}

func (s *stubCheckoutService) Begin(context.Context, string) (*checkoutsvc.View, error) {
	return s.view, s.err
}

func (s *stubCheckoutService) State(context.Context, string) (*checkoutsvc.View, error) {
	return s.view, s.err
}

func (s *stubCheckoutService) SubmitShipping(context.Context, string, checkoutsvc.ShippingInfo) (*checkoutsvc.View, error) {
	return s.view, s.err
}

func (s *stubCheckoutService) Back(context.Context, string) (*checkoutsvc.View, error) {
	return s.view, s.err
}

func (s *stubCheckoutService) SubmitPayment(context.Context, string, checkoutsvc.PaymentInfo) (*checkoutsvc.View, error) {
	return s.view, s.err
}

func (s *stubCheckoutService) Abandon(context.Context, string) {
	s.abandoned = true
}

func shippingView() *checkoutsvc.View {
	return &checkoutsvc.View{Step: enums.CheckoutStepShipping}
}

func TestCheckoutBeginSuccess(t *testing.T) {
	handler := CheckoutBegin(&stubCheckoutService{view: shippingView()}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data checkoutsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Step != enums.CheckoutStepShipping {
		t.Fatalf("unexpected step %s", envelope.Data.Step)
	}
}

func TestCheckoutStateNotFound(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")}
	handler := CheckoutState(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/checkout", ""))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCheckoutShippingRejectsIncompleteForm(t *testing.T) {
	handler := CheckoutShipping(&stubCheckoutService{view: shippingView()}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/shipping", `{"name":"Ada"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
	if _, ok := envelope.Error.Details["email"]; !ok {
		t.Fatalf("expected email in details, got %+v", envelope.Error.Details)
	}
}

func TestCheckoutPaymentStateConflict(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already being processed")}
	handler := CheckoutPayment(svc, nil)

	body := `{"card_name":"Ada Lovelace","card_number":"4242 4242 4242 4242","expiry":"12/30","cvv":"123"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/checkout/payment", body))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCheckoutAbandon(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := CheckoutAbandon(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, sessionRequest(http.MethodDelete, "/api/v1/checkout", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.abandoned {
		t.Fatal("expected session to be abandoned")
	}
}
