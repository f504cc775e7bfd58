// Package events defines the order events published on the order exchange.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Routing keys.
const (
	RKOrderPlaced    = "order.placed"
	RKOrderCancelled = "order.cancelled"
)

type Customer struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderLine struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	M2          float64         `json:"m2"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order carries enough of an order to write notification emails.
type Order struct {
	ID          uint            `json:"order_id"`
	Status      string          `json:"status"`
	Customer    Customer        `json:"customer"`
	CargoOption string          `json:"cargo_option"`
	CargoFee    decimal.Decimal `json:"cargo_fee"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Items       []OrderLine     `json:"items"`
}

func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
