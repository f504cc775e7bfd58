package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var AllStatuses = []OrderStatus{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	User        User            `json:"-"`
	Status      OrderStatus     `gorm:"index;not null" json:"status"`
	CargoOption string          `json:"cargo_option"`
	CargoFee    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cargo_fee"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency    string          `json:"currency"`
	ChargeID    string          `gorm:"index" json:"charge_id,omitempty"`
	Items       []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Addresses   []OrderAddress  `gorm:"constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductID   *uint           `gorm:"index" json:"product_id"`
	Product     *Product        `gorm:"constraint:OnDelete:SET NULL" json:"product,omitempty"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Width       *float64        `json:"width"`
	Height      *float64        `json:"height"`
	M2          float64         `gorm:"column:m2" json:"m2"`
	Profile     string          `json:"profile"`
	Device      string          `json:"device"`
	Note        string          `json:"note"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

type AddressKind string

const (
	AddressShipping AddressKind = "shipping"
	AddressBilling  AddressKind = "billing"
)

// OrderAddress is a copy of an Address taken at checkout.
type OrderAddress struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	OrderID      uint        `gorm:"index;not null" json:"order_id"`
	Kind         AddressKind `json:"kind"`
	FullName     string      `json:"full_name"`
	Phone        string      `json:"phone"`
	City         string      `json:"city"`
	District     string      `json:"district"`
	Neighborhood string      `json:"neighborhood"`
	Line         string      `json:"line"`
	PostalCode   string      `json:"postal_code"`
}

func SnapshotAddress(a Address, kind AddressKind) OrderAddress {
	return OrderAddress{
		Kind:         kind,
		FullName:     a.FullName,
		Phone:        a.Phone,
		City:         a.City,
		District:     a.District,
		Neighborhood: a.Neighborhood,
		Line:         a.Line,
		PostalCode:   a.PostalCode,
	}
}

// CheckoutIntent holds an order draft while its charge awaits gateway
// confirmation. A user has at most one.
type CheckoutIntent struct {
	ID        uint                      `gorm:"primaryKey"`
	ChargeID  string                    `gorm:"uniqueIndex;not null"`
	UserID    uint                      `gorm:"uniqueIndex;not null"`
	Draft     datatypes.JSONType[Order] `gorm:"not null"`
	CreatedAt time.Time
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&User{}, &Address{}, &Subscriber{},
		&Category{}, &SubCategory{}, &Room{}, &Product{},
		&CartItem{}, &Favorite{}, &Review{},
		&Order{}, &OrderItem{}, &OrderAddress{}, &CheckoutIntent{},
		&Banner{}, &Blog{},
	}
}
