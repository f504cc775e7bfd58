package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
	"github.com/you/curtain-store/services/storefront/internal/storage"
)

type BannerInput struct {
	Title    string
	Subtitle string
	Link     string
}

type BannerService struct {
	repo  *repository.BannerRepo
	store storage.Storage
	log   zerolog.Logger
}

func NewBannerService(repo *repository.BannerRepo, store storage.Storage, log zerolog.Logger) *BannerService {
	return &BannerService{repo: repo, store: store, log: log}
}

func (s *BannerService) Get(ctx context.Context) (*domain.Banner, error) {
	return s.repo.Get(ctx)
}

// Create fails with Validation when a banner already exists.
func (s *BannerService) Create(ctx context.Context, in BannerInput, image *Upload) (*domain.Banner, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if _, err := s.repo.Get(ctx); err == nil {
		return nil, apperr.Validation("a banner already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	b := &domain.Banner{Title: strings.TrimSpace(in.Title), Subtitle: in.Subtitle, Link: in.Link}
	if image != nil {
		url, err := saveImage(ctx, s.store, *image)
		if err != nil {
			return nil, err
		}
		b.Image = url
	}
	if err := s.repo.Create(ctx, b); err != nil {
		discardFiles(ctx, s.store, s.log, []string{b.Image})
		return nil, err
	}
	return b, nil
}

func (s *BannerService) Update(ctx context.Context, id uint, in BannerInput, image *Upload) (*domain.Banner, error) {
	b, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if b.ID != id {
		return nil, apperr.NotFound("banner not found")
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		b.Title = t
	}
	b.Subtitle, b.Link = in.Subtitle, in.Link
	old := ""
	if image != nil {
		url, err := saveImage(ctx, s.store, *image)
		if err != nil {
			return nil, err
		}
		old, b.Image = b.Image, url
	}
	if err := s.repo.Save(ctx, b); err != nil {
		if image != nil {
			discardFiles(ctx, s.store, s.log, []string{b.Image})
		}
		return nil, err
	}
	if old != b.Image {
		discardFiles(ctx, s.store, s.log, []string{old})
	}
	return b, nil
}

func (s *BannerService) Delete(ctx context.Context, id uint) error {
	b, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	if b.ID != id {
		return apperr.NotFound("banner not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	discardFiles(ctx, s.store, s.log, []string{b.Image})
	return nil
}

type BlogInput struct {
	Title    string
	Content  string
	Category string
}

type BlogService struct {
	repo  *repository.BlogRepo
	store storage.Storage
	log   zerolog.Logger
}

func NewBlogService(repo *repository.BlogRepo, store storage.Storage, log zerolog.Logger) *BlogService {
	return &BlogService{repo: repo, store: store, log: log}
}

func (s *BlogService) List(ctx context.Context, category string) ([]domain.Blog, error) {
	return s.repo.List(ctx, strings.TrimSpace(category))
}

func (s *BlogService) Get(ctx context.Context, id uint) (*domain.Blog, error) {
	return s.repo.ByID(ctx, id)
}

func (s *BlogService) Create(ctx context.Context, in BlogInput, image *Upload) (*domain.Blog, error) {
	if err := required(map[string]string{"title": in.Title, "content": in.Content}); err != nil {
		return nil, err
	}
	b := &domain.Blog{Title: strings.TrimSpace(in.Title), Content: in.Content, Category: strings.TrimSpace(in.Category)}
	if image != nil {
		url, err := saveImage(ctx, s.store, *image)
		if err != nil {
			return nil, err
		}
		b.Image = url
	}
	if err := s.repo.Create(ctx, b); err != nil {
		discardFiles(ctx, s.store, s.log, []string{b.Image})
		return nil, err
	}
	return b, nil
}

// Update replaces the post; a new image supersedes and removes the old one.
func (s *BlogService) Update(ctx context.Context, id uint, in BlogInput, image *Upload) (*domain.Blog, error) {
	if err := required(map[string]string{"title": in.Title, "content": in.Content}); err != nil {
		return nil, err
	}
	b, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Title, b.Content, b.Category = strings.TrimSpace(in.Title), in.Content, strings.TrimSpace(in.Category)
	old := b.Image
	if image != nil {
		url, err := saveImage(ctx, s.store, *image)
		if err != nil {
			return nil, err
		}
		b.Image = url
	}
	if err := s.repo.Save(ctx, b); err != nil {
		if image != nil {
			discardFiles(ctx, s.store, s.log, []string{b.Image})
		}
		return nil, err
	}
	if old != b.Image {
		discardFiles(ctx, s.store, s.log, []string{old})
	}
	return b, nil
}

func (s *BlogService) Delete(ctx context.Context, id uint) error {
	b, err := s.repo.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	discardFiles(ctx, s.store, s.log, []string{b.Image})
	return nil
}

type SubscriberService struct{ repo *repository.SubscriberRepo }

func NewSubscriberService(repo *repository.SubscriberRepo) *SubscriberService {
	return &SubscriberService{repo: repo}
}

func (s *SubscriberService) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	if err := validEmail(email); err != nil {
		return nil, err
	}
	sub, err := s.repo.Create(ctx, email)
	if apperr.Is(err, apperr.KindConflict) {
		return nil, apperr.Conflict("already subscribed")
	}
	return sub, err
}

func (s *SubscriberService) List(ctx context.Context, p repository.Page) ([]domain.Subscriber, int64, error) {
	return s.repo.List(ctx, p)
}

func (s *SubscriberService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
