package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/pkg/config"
	"github.com/you/curtain-store/services/storefront/internal/cartstore"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/notifier"
	"github.com/you/curtain-store/services/storefront/internal/payment"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

type OrderService struct {
	orders    *repository.OrderRepo
	addresses *repository.AddressRepo
	users     *repository.UserRepo
	carts     *CartService
	gateway   payment.Gateway
	notify    notifier.Notifier
	cargo     []config.CargoOption
	currency  string
	returnURI string
	log       zerolog.Logger
}

type OrderDeps struct {
	Orders    *repository.OrderRepo
	Addresses *repository.AddressRepo
	Users     *repository.UserRepo
	Carts     *CartService
	Gateway   payment.Gateway
	Notifier  notifier.Notifier
	Cargo     []config.CargoOption
	Currency  string
	// ReturnURI is where the gateway sends the buyer after 3-D Secure.
	ReturnURI string
	Log       zerolog.Logger
}

func NewOrderService(d OrderDeps) *OrderService {
	return &OrderService{
		orders:    d.Orders,
		addresses: d.Addresses,
		users:     d.Users,
		carts:     d.Carts,
		gateway:   d.Gateway,
		notify:    d.Notifier,
		cargo:     d.Cargo,
		currency:  strings.ToLower(d.Currency),
		returnURI: d.ReturnURI,
		log:       d.Log,
	}
}

func (s *OrderService) CargoOptions() []config.CargoOption { return s.cargo }

func (s *OrderService) cargoOption(code string) (config.CargoOption, bool) {
	for _, c := range s.cargo {
		if c.Code == code {
			return c, true
		}
	}
	return config.CargoOption{}, false
}

type CheckoutInput struct {
	UserID            uint
	ShippingAddressID uint
	// BillingAddressID defaults to the shipping address.
	BillingAddressID uint
	CargoOption      string
	CardToken        string
}

// CheckoutResult holds a paid order, or the charge still awaiting the
// buyer's authorization at AuthorizeURI.
type CheckoutResult struct {
	Order        *domain.Order `json:"order,omitempty"`
	Pending      bool          `json:"pending"`
	ChargeID     string        `json:"charge_id"`
	AuthorizeURI string        `json:"authorize_uri,omitempty"`
}

// PendingCheckoutError is returned by Checkout while an earlier charge of the
// same buyer still awaits 3-D Secure authorization.
type PendingCheckoutError struct {
	ChargeID     string
	AuthorizeURI string
}

func (e *PendingCheckoutError) Error() string {
	return "a payment is already awaiting authorization"
}

func (e *PendingCheckoutError) Unwrap() error { return apperr.Conflict(e.Error()) }

// settleParked resolves the buyer's parked checkout with the gateway. It
// returns a PendingCheckoutError while the charge is still pending.
func (s *OrderService) settleParked(ctx context.Context, userID uint) error {
	in, err := s.orders.IntentByUser(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	ch, err := s.gateway.RetrieveCharge(ctx, in.ChargeID)
	if err != nil {
		return apperr.Upstream("payment gateway unavailable", err)
	}
	switch ch.Status {
	case payment.ChargePending:
		return &PendingCheckoutError{ChargeID: ch.ID, AuthorizeURI: ch.AuthorizeURI}
	case payment.ChargeSuccessful:
		_, err = s.CompleteCharge(ctx, in.ChargeID, true)
	default:
		_, err = s.CompleteCharge(ctx, in.ChargeID, false)
	}
	return err
}

// Checkout charges the cart at current prices. An order is written only once
// the gateway confirms the charge; a charge pending 3-D Secure is parked as a
// checkout intent and completed by CompleteCharge.
func (s *OrderService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if strings.TrimSpace(in.CardToken) == "" {
		return nil, apperr.Validation("card token is required")
	}
	if in.ShippingAddressID == 0 {
		return nil, apperr.Validation("shipping address is required")
	}
	cargo, ok := s.cargoOption(in.CargoOption)
	if !ok {
		return nil, apperr.Validation("unknown cargo option")
	}
	shipping, err := s.addresses.Owned(ctx, in.UserID, in.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	billing := shipping
	if in.BillingAddressID != 0 && in.BillingAddressID != in.ShippingAddressID {
		if billing, err = s.addresses.Owned(ctx, in.UserID, in.BillingAddressID); err != nil {
			return nil, err
		}
	}
	if err := s.settleParked(ctx, in.UserID); err != nil {
		return nil, err
	}
	cart, err := s.carts.List(ctx, cartstore.Owner{UserID: in.UserID})
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.Validation("cart is empty")
	}

	draft := s.draftOrder(in.UserID, cart, cargo)
	draft.Addresses = []domain.OrderAddress{
		domain.SnapshotAddress(*shipping, domain.AddressShipping),
		domain.SnapshotAddress(*billing, domain.AddressBilling),
	}

	ch, err := s.gateway.CreateCharge(ctx, payment.ChargeRequest{
		Amount:      draft.Total,
		Currency:    s.currency,
		CardToken:   in.CardToken,
		ReturnURI:   s.returnURI,
		Description: fmt.Sprintf("curtain-store order for user %d", in.UserID),
		Metadata:    map[string]any{"user_id": in.UserID},
	})
	if err != nil {
		return nil, apperr.Upstream("payment gateway unavailable", err)
	}

	switch ch.Status {
	case payment.ChargeSuccessful:
		draft.ChargeID = ch.ID
		if err := s.orders.CreatePaid(ctx, &draft); err != nil {
			s.log.Error().Err(err).Str("charge_id", ch.ID).Uint("user_id", in.UserID).
				Msg("charge captured but order could not be stored")
			return nil, err
		}
		s.notifyPlaced(ctx, &draft)
		return &CheckoutResult{Order: &draft, ChargeID: ch.ID}, nil
	case payment.ChargePending:
		if err := s.orders.SaveIntent(ctx, ch.ID, draft); err != nil {
			// the charge stays unauthorized and expires at the gateway
			s.log.Warn().Err(err).Str("charge_id", ch.ID).Uint("user_id", in.UserID).Msg("park checkout")
			return nil, err
		}
		return &CheckoutResult{Pending: true, ChargeID: ch.ID, AuthorizeURI: ch.AuthorizeURI}, nil
	default:
		msg := "payment declined"
		if ch.FailureMessage != "" {
			msg += ": " + ch.FailureMessage
		}
		return nil, apperr.Validation(msg)
	}
}

func (s *OrderService) draftOrder(userID uint, cart *Cart, cargo config.CargoOption) domain.Order {
	o := domain.Order{
		UserID:      userID,
		Status:      domain.StatusPending,
		CargoOption: cargo.Code,
		CargoFee:    cargo.Fee,
		Subtotal:    decimal.Zero,
		Currency:    s.currency,
	}
	for _, l := range cart.Items {
		pid := l.ProductID
		o.Items = append(o.Items, domain.OrderItem{
			ProductID:   &pid,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.Price,
			Quantity:    l.Quantity,
			Width:       l.Width,
			Height:      l.Height,
			M2:          l.M2,
			Profile:     l.Profile,
			Device:      l.Device,
			Note:        l.Note,
			LineTotal:   l.LineTotal,
		})
		o.Subtotal = o.Subtotal.Add(l.LineTotal)
	}
	o.Total = o.Subtotal.Add(cargo.Fee)
	return o
}

// CompleteCharge settles a parked checkout once the gateway reports the
// charge's outcome. Repeated or unknown charges are no-ops.
func (s *OrderService) CompleteCharge(ctx context.Context, chargeID string, successful bool) (*domain.Order, error) {
	o, err := s.orders.CompleteIntent(ctx, chargeID, successful)
	if err != nil {
		return nil, err
	}
	if o != nil {
		s.log.Info().Str("charge_id", chargeID).Uint("order_id", o.ID).Msg("order paid")
		s.notifyPlaced(ctx, o)
	}
	return o, nil
}

// HandleEvent processes a gateway webhook after fetching the event back
// from the gateway.
func (s *OrderService) HandleEvent(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return apperr.Validation("missing event id")
	}
	ev, err := s.gateway.VerifyEvent(ctx, eventID)
	if err != nil {
		return apperr.Wrap(apperr.KindUnauthorized, "event could not be verified", err)
	}
	if ev.Charge == nil {
		return nil
	}
	switch ev.Charge.Status {
	case payment.ChargeSuccessful:
		_, err = s.CompleteCharge(ctx, ev.Charge.ID, true)
	case payment.ChargePending:
	default:
		// failed, expired and reversed charges never become orders
		s.log.Info().Str("charge_id", ev.Charge.ID).Str("status", string(ev.Charge.Status)).
			Str("failure_code", ev.Charge.FailureCode).Msg("charge not captured")
		_, err = s.CompleteCharge(ctx, ev.Charge.ID, false)
	}
	return err
}

// ConfirmReturn settles a charge when the buyer comes back from 3-D Secure.
func (s *OrderService) ConfirmReturn(ctx context.Context, userID uint, chargeID string) (*CheckoutResult, error) {
	if chargeID == "" {
		return nil, apperr.Validation("missing charge id")
	}
	ch, err := s.gateway.RetrieveCharge(ctx, chargeID)
	if err != nil {
		return nil, apperr.Upstream("payment gateway unavailable", err)
	}
	switch ch.Status {
	case payment.ChargeSuccessful:
		o, err := s.CompleteCharge(ctx, chargeID, true)
		if err != nil {
			return nil, err
		}
		if o == nil {
			// settled earlier, usually by the webhook
			if o, err = s.orders.ByChargeID(ctx, chargeID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
				return nil, err
			}
		}
		if o != nil && o.UserID != userID {
			o = nil
		}
		return &CheckoutResult{Order: o, ChargeID: chargeID}, nil
	case payment.ChargePending:
		return &CheckoutResult{Pending: true, ChargeID: chargeID, AuthorizeURI: ch.AuthorizeURI}, nil
	default:
		if _, err := s.CompleteCharge(ctx, chargeID, false); err != nil {
			return nil, err
		}
		return nil, apperr.Validation("payment declined")
	}
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uint) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Cancel cancels a customer's own order unless it has shipped, been
// delivered or already been cancelled. Notifications are best effort.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint) (*domain.Order, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.Forbidden("not your order")
	}
	if !domain.CanTransition(o.Status, domain.StatusCancelled) {
		return nil, apperr.Validation(fmt.Sprintf("a %s order cannot be cancelled", o.Status))
	}
	if err := s.orders.UpdateStatus(ctx, o.ID, o.Status, domain.StatusCancelled); err != nil {
		return nil, err
	}
	o.Status = domain.StatusCancelled

	if s.notify != nil {
		customer, err := s.users.ByID(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Uint("order_id", o.ID).Msg("load customer for cancel notice")
		}
		if err := s.notify.OrderCancelled(ctx, o, customer); err != nil {
			s.log.Warn().Err(err).Uint("order_id", o.ID).Msg("order cancelled notification")
		}
	}
	return o, nil
}

func (s *OrderService) AdminList(ctx context.Context, p repository.Page, status domain.OrderStatus) ([]domain.Order, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation("unknown status")
	}
	return s.orders.List(ctx, p, status)
}

// AdminUpdateStatus moves an order along the status machine.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, orderID uint, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, apperr.Validation("unknown status")
	}
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(o.Status, to) {
		return nil, apperr.Validation(fmt.Sprintf("cannot move order from %s to %s", o.Status, to))
	}
	if err := s.orders.UpdateStatus(ctx, o.ID, o.Status, to); err != nil {
		return nil, err
	}
	o.Status = to
	return o, nil
}

func (s *OrderService) notifyPlaced(ctx context.Context, o *domain.Order) {
	if s.notify == nil {
		return
	}
	customer, err := s.users.ByID(ctx, o.UserID)
	if err != nil {
		s.log.Warn().Err(err).Uint("order_id", o.ID).Msg("load customer for order notice")
	}
	if err := s.notify.OrderPlaced(ctx, o, customer); err != nil {
		s.log.Warn().Err(err).Uint("order_id", o.ID).Msg("order placed notification")
	}
}
