package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestAreaM2(t *testing.T) {
	assert.Equal(t, 1.5, AreaM2(f(100), f(150)))
	assert.Equal(t, 1.0, AreaM2(f(50), f(50)), "small areas round up to one square metre")
	assert.Equal(t, 1.0, AreaM2(nil, f(150)))
	assert.Equal(t, 1.0, AreaM2(f(100), nil))
	assert.Equal(t, 6.0, AreaM2(f(300), f(200)))
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(decimal.RequireFromString("199.90"), 1.5, 2)
	assert.Equal(t, "599.7", got.String())
}

func TestLineSpecNormalize(t *testing.T) {
	s := LineSpec{ProductID: 1}.Normalize()
	assert.Equal(t, 1, s.Quantity)
	assert.Equal(t, DefaultDevice, s.Device)

	s = LineSpec{ProductID: 1, Quantity: 3, Device: "motor"}.Normalize()
	assert.Equal(t, 3, s.Quantity)
	assert.Equal(t, "motor", s.Device)
}

func TestCanTransition_Exhaustive(t *testing.T) {
	legal := map[[2]OrderStatus]bool{
		{StatusPending, StatusPaid}:      true,
		{StatusPending, StatusCancelled}: true,
		{StatusPaid, StatusShipped}:      true,
		{StatusPaid, StatusCancelled}:    true,
		{StatusShipped, StatusDelivered}: true,
	}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				assert.Equal(t, legal[[2]OrderStatus{from, to}], CanTransition(from, to))
			})
		}
	}
}

func TestCancelGuardMatchesTransitions(t *testing.T) {
	// cancellation is refused exactly for delivered, shipped and cancelled orders
	for _, s := range AllStatuses {
		blocked := s == StatusDelivered || s == StatusShipped || s == StatusCancelled
		assert.Equal(t, !blocked, CanTransition(s, StatusCancelled), string(s))
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPaid.Valid())
	assert.False(t, OrderStatus("refunded").Valid())
}

func TestProductImagesAndView(t *testing.T) {
	sub := SubCategory{Name: "Blackout"}
	p := Product{MainImage: "a.jpg", SubImages: []string{"b.jpg", ""}, Category: Category{Name: "Curtains"}, SubCategory: &sub}
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.Images())

	v := NewProductView(p)
	assert.Equal(t, "Curtains", v.CategoryName)
	assert.Equal(t, "Blackout", v.SubCategoryName)
	assert.Empty(t, v.RoomName)
}
