package service

import (
	"context"
	"strings"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

type FavoriteService struct{ repo *repository.FavoriteRepo }

func NewFavoriteService(repo *repository.FavoriteRepo) *FavoriteService {
	return &FavoriteService{repo: repo}
}

func (s *FavoriteService) List(ctx context.Context, userID uint) ([]domain.Favorite, error) {
	return s.repo.List(ctx, userID)
}

func (s *FavoriteService) Add(ctx context.Context, userID, productID uint) (*domain.Favorite, error) {
	if productID == 0 {
		return nil, apperr.Validation("product_id is required")
	}
	f, err := s.repo.Add(ctx, userID, productID)
	if apperr.Is(err, apperr.KindConflict) {
		return nil, apperr.Conflict("product is already a favorite")
	}
	return f, err
}

func (s *FavoriteService) Remove(ctx context.Context, userID, productID uint) error {
	return s.repo.Remove(ctx, userID, productID)
}

type ReviewService struct{ repo *repository.ReviewRepo }

func NewReviewService(repo *repository.ReviewRepo) *ReviewService {
	return &ReviewService{repo: repo}
}

func (s *ReviewService) List(ctx context.Context, productID uint) ([]repository.ReviewRow, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *ReviewService) Create(ctx context.Context, userID, productID uint, rating int, comment string) (*domain.Review, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	rv := &domain.Review{UserID: userID, ProductID: productID, Rating: rating, Comment: strings.TrimSpace(comment)}
	err := s.repo.Create(ctx, rv)
	if apperr.Is(err, apperr.KindConflict) {
		return nil, apperr.Conflict("you already reviewed this product")
	}
	if err != nil {
		return nil, err
	}
	return rv, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, userID uint, isAdmin bool, reviewID uint) error {
	return s.repo.Delete(ctx, reviewID, userID, isAdmin)
}
