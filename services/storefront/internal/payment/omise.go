package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

const eventChargeComplete = "charge.complete"

type OmiseGateway struct {
	omc *omise.Client
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	return &OmiseGateway{omc: c}, nil
}

func (g *OmiseGateway) CreateCharge(_ context.Context, req ChargeRequest) (*Charge, error) {
	amount := MinorUnits(req.Amount)
	if amount <= 0 || req.CardToken == "" || req.Currency == "" {
		return nil, errors.New("invalid charge params")
	}
	ch := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:      amount,
		Currency:    req.Currency,
		Card:        req.CardToken,
		ReturnURI:   req.ReturnURI,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if err := g.omc.Do(ch, op); err != nil {
		return nil, fmt.Errorf("omise create charge: %w", err)
	}
	return fromOmise(ch), nil
}

func (g *OmiseGateway) RetrieveCharge(_ context.Context, chargeID string) (*Charge, error) {
	ch := &omise.Charge{}
	if err := g.omc.Do(ch, &operations.RetrieveCharge{ChargeID: chargeID}); err != nil {
		return nil, fmt.Errorf("omise retrieve charge: %w", err)
	}
	return fromOmise(ch), nil
}

func (g *OmiseGateway) VerifyEvent(_ context.Context, eventID string) (*Event, error) {
	ev := &omise.Event{}
	if err := g.omc.Do(ev, &operations.RetrieveEvent{EventID: eventID}); err != nil {
		return nil, fmt.Errorf("omise retrieve event: %w", err)
	}
	out := &Event{ID: ev.ID, Key: ev.Key}
	if ev.Key != eventChargeComplete {
		return out, nil
	}
	// Data is decoded as a generic map; round-trip it into a charge.
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("encode event data: %w", err)
	}
	var ch omise.Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("decode charge: %w", err)
	}
	out.Charge = fromOmise(&ch)
	return out, nil
}

func fromOmise(ch *omise.Charge) *Charge {
	out := &Charge{
		ID:           ch.ID,
		Status:       ChargeStatus(ch.Status),
		AuthorizeURI: ch.AuthorizeURI,
	}
	if ch.FailureCode != nil {
		out.FailureCode = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		out.FailureMessage = *ch.FailureMessage
	}
	return out
}
