package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/you/curtain-store/services/storefront/internal/domain"
)

type FavoriteRepo struct{ db *gorm.DB }

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

func (r *FavoriteRepo) List(ctx context.Context, userID uint) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := r.db.WithContext(ctx).
		Preload("Product").Preload("Product.Category").Preload("Product.SubCategory").Preload("Product.Room").
		Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, translate(err, "favorites")
}

func (r *FavoriteRepo) Add(ctx context.Context, userID, productID uint) (*domain.Favorite, error) {
	f := domain.Favorite{UserID: userID, ProductID: productID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&domain.Product{}, productID).Error; err != nil {
			return translate(err, "product")
		}
		return translate(tx.Omit("Product").Create(&f).Error, "favorite")
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, productID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&domain.Favorite{})
	if res.Error != nil {
		return translate(res.Error, "favorite")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "favorite")
	}
	return nil
}
