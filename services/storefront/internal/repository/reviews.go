package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/you/curtain-store/services/storefront/internal/domain"
)

type ReviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// ReviewRow is a review with the reviewer's display name.
type ReviewRow struct {
	domain.Review
	Author string `json:"author"`
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uint) ([]ReviewRow, error) {
	var reviews []domain.Review
	err := r.db.WithContext(ctx).Preload("User").
		Where("product_id = ?", productID).Order("created_at DESC").Order("id DESC").Find(&reviews).Error
	if err != nil {
		return nil, translate(err, "reviews")
	}
	out := make([]ReviewRow, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, ReviewRow{Review: rv, Author: rv.User.Name + " " + rv.User.Surname})
	}
	return out, nil
}

func (r *ReviewRepo) ByID(ctx context.Context, id uint) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, translate(err, "review")
	}
	return &rv, nil
}

// Create stores the review and refreshes the product's rating in one transaction.
func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&domain.Product{}, rv.ProductID).Error; err != nil {
			return translate(err, "product")
		}
		if err := tx.Omit("User").Create(rv).Error; err != nil {
			return translate(err, "review")
		}
		return recomputeRating(tx, rv.ProductID)
	})
}

// Delete removes a review owned by userID; admins pass anyUser.
func (r *ReviewRepo) Delete(ctx context.Context, id, userID uint, anyUser bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rv domain.Review
		q := tx.Where("id = ?", id)
		if !anyUser {
			q = q.Where("user_id = ?", userID)
		}
		if err := q.First(&rv).Error; err != nil {
			return translate(err, "review")
		}
		if err := tx.Delete(&rv).Error; err != nil {
			return translate(err, "review")
		}
		return recomputeRating(tx, rv.ProductID)
	})
}

func recomputeRating(tx *gorm.DB, productID uint) error {
	var agg struct {
		Avg   float64
		Count int
	}
	err := tx.Model(&domain.Review{}).Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).Scan(&agg).Error
	if err != nil {
		return translate(err, "rating")
	}
	err = tx.Model(&domain.Product{}).Where("id = ?", productID).
		UpdateColumns(map[string]any{"rating": agg.Avg, "review_count": agg.Count}).Error
	return translate(err, "product")
}
