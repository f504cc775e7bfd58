package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/curtain-store/services/storefront/internal/domain"
)

// cartLineKey is the unique key of a server-side cart line.
var cartLineKey = []clause.Column{
	{Name: "user_id"}, {Name: "product_id"}, {Name: "profile"}, {Name: "device"}, {Name: "note"},
}

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) List(ctx context.Context, userID uint) ([]domain.CartItem, error) {
	var out []domain.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").Preload("Product.Category").Preload("Product.SubCategory").Preload("Product.Room").
		Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, translate(err, "cart")
}

// Upsert inserts the line or, when its key already exists, adds its quantity
// to the stored row. Width, height and m2 of an existing row are kept.
func (r *CartRepo) Upsert(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	var out domain.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit("Product").Clauses(clause.OnConflict{
			Columns: cartLineKey,
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": time.Now(),
			}),
		}).Create(&item).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND product_id = ? AND profile = ? AND device = ? AND note = ?",
			item.UserID, item.ProductID, item.Profile, item.Device, item.Note).First(&out).Error
	})
	if err != nil {
		return nil, translate(err, "cart item")
	}
	return &out, nil
}

func (r *CartRepo) SetQuantity(ctx context.Context, userID, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).Update("quantity", qty)
	if res.Error != nil {
		return translate(res.Error, "cart item")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "cart item")
	}
	return nil
}

func (r *CartRepo) Remove(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.CartItem{})
	if res.Error != nil {
		return translate(res.Error, "cart item")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "cart item")
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, userID uint) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error, "cart")
}
