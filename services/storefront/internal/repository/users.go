package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.Email = normalizeEmail(u.Email)
	return translate(r.db.WithContext(ctx).Create(u).Error, "user")
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uint, name, surname, email string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"name":    name,
		"surname": surname,
		"email":   normalizeEmail(email),
	})
	if res.Error != nil {
		return translate(res.Error, "email")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user")
	}
	return nil
}

func (r *UserRepo) SetPassword(ctx context.Context, id uint, hash string) error {
	return translate(r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("password_hash", hash).Error, "user")
}

func (r *UserRepo) SetResetToken(ctx context.Context, id uint, token string, expires time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"reset_token":         token,
		"reset_token_expires": expires,
	}).Error, "user")
}

// ConsumeResetToken sets a new password hash for the holder of an unexpired
// token and clears the token. It reports false when no such user exists.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, token, hash string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("reset_token = ? AND reset_token_expires >= ?", token, now).
		Updates(map[string]any{
			"password_hash":       hash,
			"reset_token":         nil,
			"reset_token_expires": nil,
		})
	if res.Error != nil {
		return false, translate(res.Error, "user")
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepo) List(ctx context.Context, p Page, q string, role domain.Role) ([]domain.User, int64, error) {
	qb := r.db.WithContext(ctx).Model(&domain.User{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		qb = qb.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR LOWER(surname) LIKE ?", like, like, like)
	}
	if role != "" {
		qb = qb.Where("role = ?", role)
	}
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "users")
	}
	var out []domain.User
	if err := p.apply(qb.Order("id ASC")).Find(&out).Error; err != nil {
		return nil, 0, translate(err, "users")
	}
	return out, total, nil
}

func (r *UserRepo) SetRole(ctx context.Context, id uint, role domain.Role) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user")
	}
	return nil
}

// Delete removes the user with their cart, favorites, reviews and address book.
// Users with orders are kept for order history.
func (r *UserRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders int64
		if err := tx.Model(&domain.Order{}).Where("user_id = ?", id).Count(&orders).Error; err != nil {
			return translate(err, "orders")
		}
		if orders > 0 {
			return apperr.Conflict("user has orders")
		}
		var reviewed []uint
		if err := tx.Model(&domain.Review{}).Where("user_id = ?", id).Pluck("product_id", &reviewed).Error; err != nil {
			return translate(err, "reviews")
		}
		for _, m := range []any{&domain.CartItem{}, &domain.Favorite{}, &domain.Review{}, &domain.Address{}, &domain.CheckoutIntent{}} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return translate(err, "user data")
			}
		}
		for _, pid := range reviewed {
			if err := recomputeRating(tx, pid); err != nil {
				return err
			}
		}
		res := tx.Delete(&domain.User{}, id)
		if res.Error != nil {
			return translate(res.Error, "user")
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "user")
		}
		return nil
	})
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
