package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
	"github.com/you/curtain-store/services/storefront/internal/storage"
)

type CatalogService struct {
	repo  *repository.CatalogRepo
	store storage.Storage
	log   zerolog.Logger
}

func NewCatalogService(repo *repository.CatalogRepo, store storage.Storage, log zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, store: store, log: log}
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID uint) ([]domain.ProductView, error) {
	ps, err := s.repo.ListProducts(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, domain.NewProductView(p))
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.ProductView, error) {
	p, err := s.repo.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := domain.NewProductView(*p)
	return &v, nil
}

// ProductInput names the category, sub-category and room rather than their ids.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	SubCategory string
	Room        string
	Price       string
}

// ProductImages are newly uploaded images. A nil Main keeps the current main
// image; a non-empty Subs replaces all sub images.
type ProductImages struct {
	Main *Upload
	Subs []Upload
}

func (s *CatalogService) resolve(ctx context.Context, in ProductInput, p *domain.Product) error {
	if err := required(map[string]string{"name": in.Name, "category": in.Category, "price": in.Price}); err != nil {
		return err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || !price.IsPositive() {
		return apperr.Validation("price must be a positive number")
	}
	cat, err := s.repo.CategoryByName(ctx, strings.TrimSpace(in.Category))
	if err != nil {
		return err
	}
	p.SubCategoryID, p.RoomID = nil, nil
	if name := strings.TrimSpace(in.SubCategory); name != "" {
		sub, err := s.repo.SubCategoryByName(ctx, cat.ID, name)
		if err != nil {
			return err
		}
		p.SubCategoryID = &sub.ID
	}
	if name := strings.TrimSpace(in.Room); name != "" {
		room, err := s.repo.RoomByName(ctx, name)
		if err != nil {
			return err
		}
		p.RoomID = &room.ID
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.CategoryID = cat.ID
	p.Price = price.Round(2)
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput, imgs ProductImages) (*domain.ProductView, error) {
	if imgs.Main == nil {
		return nil, apperr.Validation("main image is required")
	}
	var p domain.Product
	if err := s.resolve(ctx, in, &p); err != nil {
		return nil, err
	}
	uploaded, err := s.uploadImages(ctx, imgs)
	if err != nil {
		return nil, err
	}
	p.MainImage = uploaded.main
	p.SubImages = uploaded.subs
	if err := s.repo.CreateProduct(ctx, &p); err != nil {
		s.discard(ctx, uploaded.all())
		return nil, err
	}
	return s.GetProduct(ctx, p.ID)
}

// UpdateProduct replaces fields and, when new images arrive, the images.
// Old files are removed only after the row is saved and only if they changed.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput, imgs ProductImages) (*domain.ProductView, error) {
	p, err := s.repo.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, in, p); err != nil {
		return nil, err
	}
	uploaded, err := s.uploadImages(ctx, imgs)
	if err != nil {
		return nil, err
	}
	var stale []string
	if uploaded.main != "" && uploaded.main != p.MainImage {
		stale = append(stale, p.MainImage)
		p.MainImage = uploaded.main
	}
	if len(uploaded.subs) > 0 {
		keep := make(map[string]bool, len(uploaded.subs))
		for _, u := range uploaded.subs {
			keep[u] = true
		}
		for _, old := range p.SubImages {
			if !keep[old] {
				stale = append(stale, old)
			}
		}
		p.SubImages = uploaded.subs
	}
	p.Category, p.SubCategory, p.Room = domain.Category{}, nil, nil
	if err := s.repo.SaveProduct(ctx, p); err != nil {
		s.discard(ctx, uploaded.all())
		return nil, err
	}
	s.discard(ctx, stale)
	return s.GetProduct(ctx, p.ID)
}

// DeleteProduct removes the row and then every image file of the product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.repo.ProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, p.Images())
	return nil
}

type uploadedImages struct {
	main string
	subs []string
}

func (u uploadedImages) all() []string {
	out := append([]string{}, u.subs...)
	if u.main != "" {
		out = append(out, u.main)
	}
	return out
}

func (s *CatalogService) uploadImages(ctx context.Context, imgs ProductImages) (uploadedImages, error) {
	var out uploadedImages
	if imgs.Main != nil {
		url, err := s.saveImage(ctx, *imgs.Main)
		if err != nil {
			return out, err
		}
		out.main = url
	}
	for _, sub := range imgs.Subs {
		url, err := s.saveImage(ctx, sub)
		if err != nil {
			s.discard(ctx, out.all())
			return uploadedImages{}, err
		}
		out.subs = append(out.subs, url)
	}
	return out, nil
}

func (s *CatalogService) saveImage(ctx context.Context, u Upload) (string, error) {
	return saveImage(ctx, s.store, u)
}

func (s *CatalogService) discard(ctx context.Context, urls []string) {
	discardFiles(ctx, s.store, s.log, urls)
}

func saveImage(ctx context.Context, store storage.Storage, u Upload) (string, error) {
	if !storage.IsImage(u.Name) {
		return "", apperr.Validation("unsupported image type: " + u.Name)
	}
	url, err := store.Save(ctx, u.Name, u.Body)
	if err != nil {
		return "", apperr.Upstream("image upload failed", err)
	}
	return url, nil
}

// discardFiles deletes stored files, logging failures.
func discardFiles(ctx context.Context, store storage.Storage, log zerolog.Logger, urls []string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := store.Delete(ctx, u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("delete stored file")
		}
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("name is required")
	}
	c := &domain.Category{Name: strings.TrimSpace(name)}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) CreateSubCategory(ctx context.Context, categoryID uint, name string) (*domain.SubCategory, error) {
	if strings.TrimSpace(name) == "" || categoryID == 0 {
		return nil, apperr.Validation("category_id and name are required")
	}
	sc := &domain.SubCategory{CategoryID: categoryID, Name: strings.TrimSpace(name)}
	if err := s.repo.CreateSubCategory(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *CatalogService) DeleteSubCategory(ctx context.Context, id uint) error {
	return s.repo.DeleteSubCategory(ctx, id)
}

func (s *CatalogService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.repo.ListRooms(ctx)
}

func (s *CatalogService) CreateRoom(ctx context.Context, name string) (*domain.Room, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("name is required")
	}
	r := &domain.Room{Name: strings.TrimSpace(name)}
	if err := s.repo.CreateRoom(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *CatalogService) DeleteRoom(ctx context.Context, id uint) error {
	return s.repo.DeleteRoom(ctx, id)
}
