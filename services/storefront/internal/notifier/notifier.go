// Package notifier tells customers and the shop about order changes.
package notifier

import (
	"context"
	"errors"
	"strings"

	"github.com/you/curtain-store/pkg/events"
	"github.com/you/curtain-store/pkg/mailer"
	"github.com/you/curtain-store/services/storefront/internal/domain"
)

type Notifier interface {
	OrderPlaced(ctx context.Context, o *domain.Order, customer *domain.User) error
	OrderCancelled(ctx context.Context, o *domain.Order, customer *domain.User) error
}

// OrderEvent flattens an order and its customer into the published event.
func OrderEvent(o *domain.Order, customer *domain.User) events.Order {
	ev := events.Order{
		ID:          o.ID,
		Status:      string(o.Status),
		CargoOption: o.CargoOption,
		CargoFee:    o.CargoFee,
		Subtotal:    o.Subtotal,
		Total:       o.Total,
		Currency:    o.Currency,
		Items:       make([]events.OrderLine, 0, len(o.Items)),
	}
	if customer != nil {
		ev.Customer = events.Customer{
			ID:    customer.ID,
			Name:  strings.TrimSpace(customer.Name + " " + customer.Surname),
			Email: customer.Email,
		}
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, events.OrderLine{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			M2:          it.M2,
			LineTotal:   it.LineTotal,
		})
	}
	return ev
}

// MailNotifier mails the customer and the admin directly.
type MailNotifier struct {
	m          mailer.Mailer
	adminEmail string
}

func NewMailNotifier(m mailer.Mailer, adminEmail string) *MailNotifier {
	return &MailNotifier{m: m, adminEmail: adminEmail}
}

func (n *MailNotifier) OrderPlaced(ctx context.Context, o *domain.Order, customer *domain.User) error {
	return n.send(ctx, events.RKOrderPlaced, OrderEvent(o, customer))
}

func (n *MailNotifier) OrderCancelled(ctx context.Context, o *domain.Order, customer *domain.User) error {
	return n.send(ctx, events.RKOrderCancelled, OrderEvent(o, customer))
}

// send attempts every message and joins the failures.
func (n *MailNotifier) send(ctx context.Context, key string, ev events.Order) error {
	msgs, err := mailer.OrderMessages(key, ev, n.adminEmail)
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range msgs {
		if err := n.m.Send(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publisher is the part of mq.Publisher the event notifier needs.
type Publisher interface {
	PublishEvent(ctx context.Context, key string, data any) error
}

// EventNotifier publishes order events for the notification service.
type EventNotifier struct{ pub Publisher }

func NewEventNotifier(pub Publisher) *EventNotifier {
	return &EventNotifier{pub: pub}
}

func (n *EventNotifier) OrderPlaced(ctx context.Context, o *domain.Order, customer *domain.User) error {
	return n.pub.PublishEvent(ctx, events.RKOrderPlaced, OrderEvent(o, customer))
}

func (n *EventNotifier) OrderCancelled(ctx context.Context, o *domain.Order, customer *domain.User) error {
	return n.pub.PublishEvent(ctx, events.RKOrderCancelled, OrderEvent(o, customer))
}
