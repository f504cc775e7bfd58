package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultDevice = "default"

// CartItem is a server-side cart row. (user, product, profile, device, note)
// is unique; absent optional strings are stored as "".
type CartItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	UserID    uint     `gorm:"uniqueIndex:idx_cart_line;not null" json:"user_id"`
	ProductID uint     `gorm:"uniqueIndex:idx_cart_line;not null" json:"product_id"`
	Product   Product  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Profile   string   `gorm:"uniqueIndex:idx_cart_line;not null;default:''" json:"profile"`
	Device    string   `gorm:"uniqueIndex:idx_cart_line;not null;default:'default'" json:"device"`
	Note      string   `gorm:"uniqueIndex:idx_cart_line;not null;default:''" json:"note"`
	Quantity  int      `gorm:"not null" json:"quantity"`
	Width     *float64 `json:"width"`
	Height    *float64 `json:"height"`
	M2        float64  `gorm:"column:m2;not null;default:1" json:"m2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineSpec is what a shopper asks to put in the cart.
type LineSpec struct {
	ProductID uint
	Quantity  int
	Note      string
	Profile   string
	Device    string
	Width     *float64
	Height    *float64
}

// Normalize applies defaults: quantity 1, device "default".
func (s LineSpec) Normalize() LineSpec {
	if s.Quantity == 0 {
		s.Quantity = 1
	}
	if s.Device == "" {
		s.Device = DefaultDevice
	}
	return s
}

// AreaM2 is max(1, width*height/10000) when both dimensions (cm) are present, else 1.
func AreaM2(width, height *float64) float64 {
	if width == nil || height == nil {
		return 1
	}
	m2 := (*width) * (*height) / 10000
	if m2 < 1 {
		return 1
	}
	return m2
}

// CartLine is the backend-neutral view of one cart line.
type CartLine struct {
	ID        string          `json:"id"`
	ProductID uint            `json:"product_id"`
	Product   *ProductView    `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	Note      string          `json:"note"`
	Profile   string          `json:"profile"`
	Device    string          `json:"device"`
	Width     *float64        `json:"width"`
	Height    *float64        `json:"height"`
	M2        float64         `json:"m2"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// LineTotal is price * m2 * quantity, rounded to cents.
func LineTotal(price decimal.Decimal, m2 float64, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromFloat(m2)).Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
