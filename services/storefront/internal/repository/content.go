package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
)

type BannerRepo struct{ db *gorm.DB }

func NewBannerRepo(db *gorm.DB) *BannerRepo {
	return &BannerRepo{db: db}
}

func (r *BannerRepo) Get(ctx context.Context) (*domain.Banner, error) {
	var b domain.Banner
	if err := r.db.WithContext(ctx).Order("id ASC").First(&b).Error; err != nil {
		return nil, translate(err, "banner")
	}
	return &b, nil
}

// Create inserts the banner unless one already exists.
func (r *BannerRepo) Create(ctx context.Context, b *domain.Banner) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Banner{}).Count(&n).Error; err != nil {
			return translate(err, "banner")
		}
		if n > 0 {
			return apperr.Validation("a banner already exists")
		}
		return translate(tx.Create(b).Error, "banner")
	})
}

func (r *BannerRepo) Save(ctx context.Context, b *domain.Banner) error {
	return translate(r.db.WithContext(ctx).Save(b).Error, "banner")
}

func (r *BannerRepo) Delete(ctx context.Context, id uint) error {
	return deleteOne(r.db.WithContext(ctx), &domain.Banner{}, id, "banner")
}

type BlogRepo struct{ db *gorm.DB }

func NewBlogRepo(db *gorm.DB) *BlogRepo {
	return &BlogRepo{db: db}
}

func (r *BlogRepo) List(ctx context.Context, category string) ([]domain.Blog, error) {
	q := r.db.WithContext(ctx)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []domain.Blog
	err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, translate(err, "blogs")
}

func (r *BlogRepo) ByID(ctx context.Context, id uint) (*domain.Blog, error) {
	var b domain.Blog
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, translate(err, "blog")
	}
	return &b, nil
}

func (r *BlogRepo) Create(ctx context.Context, b *domain.Blog) error {
	return translate(r.db.WithContext(ctx).Create(b).Error, "blog")
}

func (r *BlogRepo) Save(ctx context.Context, b *domain.Blog) error {
	return translate(r.db.WithContext(ctx).Save(b).Error, "blog")
}

func (r *BlogRepo) Delete(ctx context.Context, id uint) error {
	return deleteOne(r.db.WithContext(ctx), &domain.Blog{}, id, "blog")
}

type SubscriberRepo struct{ db *gorm.DB }

func NewSubscriberRepo(db *gorm.DB) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

func (r *SubscriberRepo) Create(ctx context.Context, email string) (*domain.Subscriber, error) {
	s := domain.Subscriber{Email: normalizeEmail(email)}
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, translate(err, "subscriber")
	}
	return &s, nil
}

func (r *SubscriberRepo) List(ctx context.Context, p Page) ([]domain.Subscriber, int64, error) {
	qb := r.db.WithContext(ctx).Model(&domain.Subscriber{})
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "subscribers")
	}
	var out []domain.Subscriber
	if err := p.apply(qb.Order("id DESC")).Find(&out).Error; err != nil {
		return nil, 0, translate(err, "subscribers")
	}
	return out, total, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, id uint) error {
	return deleteOne(r.db.WithContext(ctx), &domain.Subscriber{}, id, "subscriber")
}
