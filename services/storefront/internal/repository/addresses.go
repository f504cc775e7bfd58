package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/you/curtain-store/services/storefront/internal/domain"
)

// AddressRepo scopes every query to the owning user; foreign rows look missing.
type AddressRepo struct{ db *gorm.DB }

func NewAddressRepo(db *gorm.DB) *AddressRepo {
	return &AddressRepo{db: db}
}

func (r *AddressRepo) List(ctx context.Context, userID uint) ([]domain.Address, error) {
	var out []domain.Address
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, translate(err, "addresses")
}

func (r *AddressRepo) Owned(ctx context.Context, userID, id uint) (*domain.Address, error) {
	var a domain.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, translate(err, "address")
	}
	return &a, nil
}

func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	return translate(r.db.WithContext(ctx).Create(a).Error, "address")
}

// Update overwrites the editable fields of an owned address.
func (r *AddressRepo) Update(ctx context.Context, a *domain.Address) error {
	res := r.db.WithContext(ctx).Model(&domain.Address{}).
		Where("id = ? AND user_id = ?", a.ID, a.UserID).
		Select("title", "full_name", "phone", "city", "district", "neighborhood", "line", "postal_code").
		Updates(a)
	if res.Error != nil {
		return translate(res.Error, "address")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "address")
	}
	return nil
}

func (r *AddressRepo) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Address{})
	if res.Error != nil {
		return translate(res.Error, "address")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "address")
	}
	return nil
}
