package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthorizationRequest is what the storefront hands to the payment
// gateway. Card data never goes anywhere else and is never persisted.
type AuthorizationRequest struct {
	CartKey    string
	Amount     decimal.Decimal
	CardName   string
	CardNumber string
}

// AuthorizationResult reports the gateway's decision. Declines are a
// result, not an error; errors mean the gateway could not be reached.
type AuthorizationResult struct {
	Authorized    bool
	Reference     string
	DeclineReason string
}

// Gateway is the external payment capability. The storefront currently
// ships with a simulated implementation only.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error)
}

// SimulatedGateway stands in for a real payment processor: it waits a
// configured delay and authorizes everything. The always-succeeds
// behavior is a placeholder, not a contract.
type SimulatedGateway struct {
	delay time.Duration
}

// NewSimulatedGateway builds a gateway with the given round-trip delay.
func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{delay: delay}
}

// Authorize waits out the simulated round trip, honoring cancellation.
func (g *SimulatedGateway) Authorize(ctx context.Context, _ AuthorizationRequest) (AuthorizationResult, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return AuthorizationResult{}, ctx.Err()
		case <-timer.C:
		}
	}
	return AuthorizationResult{
		Authorized: true,
		Reference:  uuid.NewString(),
	}, nil
}
