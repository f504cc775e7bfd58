// Package payment charges cards through the payment gateway.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type ChargeStatus string

const (
	ChargeSuccessful ChargeStatus = "successful"
	ChargePending    ChargeStatus = "pending"
	ChargeFailed     ChargeStatus = "failed"
)

type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	CardToken   string
	ReturnURI   string
	Description string
	Metadata    map[string]any
}

type Charge struct {
	ID             string
	Status         ChargeStatus
	AuthorizeURI   string
	FailureCode    string
	FailureMessage string
}

// Event is a verified gateway event about a charge.
type Event struct {
	ID     string
	Key    string
	Charge *Charge
}

type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error)
	// VerifyEvent fetches the event from the gateway so payloads posted to the
	// webhook are never trusted as is.
	VerifyEvent(ctx context.Context, eventID string) (*Event, error)
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
