package mailer

import (
	"fmt"
	"strings"

	"github.com/you/curtain-store/pkg/events"
)

// OrderMessages builds the customer mail and the admin mail for an order event.
// An empty adminEmail skips the admin mail.
func OrderMessages(key string, o events.Order, adminEmail string) ([]Message, error) {
	var customerTpl, adminTpl, subject, adminSubject string
	switch key {
	case events.RKOrderPlaced:
		customerTpl, adminTpl = "order_placed.html", "admin_order_placed.html"
		subject = fmt.Sprintf("Order #%d confirmed", o.ID)
		adminSubject = fmt.Sprintf("New order #%d", o.ID)
	case events.RKOrderCancelled:
		customerTpl, adminTpl = "order_cancelled.html", "admin_order_cancelled.html"
		subject = fmt.Sprintf("Order #%d cancelled", o.ID)
		adminSubject = fmt.Sprintf("Order #%d cancelled by customer", o.ID)
	default:
		return nil, fmt.Errorf("no mail for event %q", key)
	}

	data := map[string]any{"Order": o, "Name": o.Customer.Name, "Email": o.Customer.Email}
	var out []Message
	if o.Customer.Email != "" {
		html, err := Render(customerTpl, data)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{To: []string{o.Customer.Email}, Subject: subject, HTML: html, Text: subject})
	}
	if adminEmail = strings.TrimSpace(adminEmail); adminEmail != "" {
		html, err := Render(adminTpl, data)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{To: []string{adminEmail}, Subject: adminSubject, HTML: html, Text: adminSubject})
	}
	return out, nil
}
