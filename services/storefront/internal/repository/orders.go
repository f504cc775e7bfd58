package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreatePaid stores a confirmed order with its items and address snapshots
// and empties the buyer's cart, all in one transaction.
func (r *OrderRepo) CreatePaid(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createPaid(tx, o)
	})
}

func createPaid(tx *gorm.DB, o *domain.Order) error {
	o.Status = domain.StatusPaid
	if err := tx.Omit("User").Create(o).Error; err != nil {
		return translate(err, "order")
	}
	for _, it := range o.Items {
		if err := takeFromCart(tx, o.UserID, it); err != nil {
			return translate(err, "cart")
		}
	}
	return nil
}

// takeFromCart removes the ordered quantity of one line from the buyer's cart.
// Lines added or topped up after the order was drafted keep the difference.
func takeFromCart(tx *gorm.DB, userID uint, it domain.OrderItem) error {
	if it.ProductID == nil {
		return nil
	}
	line := tx.Model(&domain.CartItem{}).Where(
		"user_id = ? AND product_id = ? AND profile = ? AND device = ? AND note = ?",
		userID, *it.ProductID, it.Profile, it.Device, it.Note)
	if err := line.Session(&gorm.Session{}).Where("quantity <= ?", it.Quantity).Delete(&domain.CartItem{}).Error; err != nil {
		return err
	}
	return line.Session(&gorm.Session{}).Where("quantity > ?", it.Quantity).
		Update("quantity", gorm.Expr("quantity - ?", it.Quantity)).Error
}

// SaveIntent parks an order draft until its charge is confirmed.
func (r *OrderRepo) SaveIntent(ctx context.Context, chargeID string, draft domain.Order) error {
	in := domain.CheckoutIntent{
		ChargeID: chargeID,
		UserID:   draft.UserID,
		Draft:    datatypes.NewJSONType(draft),
	}
	err := r.db.WithContext(ctx).Create(&in).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("a payment is already awaiting authorization")
	}
	return translate(err, "checkout intent")
}

// IntentByUser returns the user's parked checkout, if any.
func (r *OrderRepo) IntentByUser(ctx context.Context, userID uint) (*domain.CheckoutIntent, error) {
	var in domain.CheckoutIntent
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&in).Error; err != nil {
		return nil, translate(err, "checkout intent")
	}
	return &in, nil
}

func (r *OrderRepo) ByChargeID(ctx context.Context, chargeID string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("Addresses").
		Where("charge_id = ?", chargeID).First(&o).Error
	if err != nil {
		return nil, translate(err, "order")
	}
	return &o, nil
}

// CompleteIntent consumes the intent of chargeID. When paid, the draft becomes
// a paid order and the buyer's cart is emptied. Unknown or already consumed
// charges return (nil, nil).
func (r *OrderRepo) CompleteIntent(ctx context.Context, chargeID string, paid bool) (*domain.Order, error) {
	var out *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var in domain.CheckoutIntent
		err := tx.Where("charge_id = ?", chargeID).First(&in).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return translate(err, "checkout intent")
		}
		res := tx.Where("id = ?", in.ID).Delete(&domain.CheckoutIntent{})
		if res.Error != nil {
			return translate(res.Error, "checkout intent")
		}
		if res.RowsAffected == 0 || !paid {
			return nil
		}
		o := in.Draft.Data()
		o.ID = 0
		o.ChargeID = chargeID
		for i := range o.Items {
			o.Items[i].ID, o.Items[i].OrderID = 0, 0
		}
		for i := range o.Addresses {
			o.Addresses[i].ID, o.Addresses[i].OrderID = 0, 0
		}
		if err := createPaid(tx, &o); err != nil {
			return err
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *OrderRepo) ByID(ctx context.Context, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").Preload("Addresses").First(&o, id).Error; err != nil {
		return nil, translate(err, "order")
	}
	return &o, nil
}

// ListByUser returns the user's orders newest first with items, products and addresses.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Preload("Items.Product").Preload("Addresses").
		Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, translate(err, "orders")
}

func (r *OrderRepo) List(ctx context.Context, p Page, status domain.OrderStatus) ([]domain.Order, int64, error) {
	qb := r.db.WithContext(ctx).Model(&domain.Order{})
	if status != "" {
		qb = qb.Where("status = ?", status)
	}
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "orders")
	}
	var out []domain.Order
	err := p.apply(qb.Preload("Items").Preload("Addresses").Order("created_at DESC").Order("id DESC")).Find(&out).Error
	if err != nil {
		return nil, 0, translate(err, "orders")
	}
	return out, total, nil
}

// UpdateStatus moves an order from one status to another. It fails with
// Conflict if the stored status is no longer from.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, from, to domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).Update("status", to)
	if res.Error != nil {
		return translate(res.Error, "order")
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("order status changed, reload and retry")
	}
	return nil
}
