package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/you/curtain-store/services/storefront/internal/domain"
)

type CatalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Category").Preload("SubCategory").Preload("Room")
}

// ---------- products ----------

// ListProducts returns products newest first, optionally for one category.
func (r *CatalogRepo) ListProducts(ctx context.Context, categoryID uint) ([]domain.Product, error) {
	q := withRelations(r.db.WithContext(ctx))
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var out []domain.Product
	err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, translate(err, "products")
}

func (r *CatalogRepo) ProductByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := withRelations(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

// ProductsByIDs returns the products found among ids, keyed by id.
func (r *CatalogRepo) ProductsByIDs(ctx context.Context, ids []uint) (map[uint]domain.Product, error) {
	out := make(map[uint]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var ps []domain.Product
	if err := withRelations(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&ps).Error; err != nil {
		return nil, translate(err, "products")
	}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, p *domain.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Category", "SubCategory", "Room").Create(p).Error, "product")
}

func (r *CatalogRepo) SaveProduct(ctx context.Context, p *domain.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Category", "SubCategory", "Room").Save(p).Error, "product")
}

// DeleteProduct removes the product and its reviews. Cart lines and
// favorites cascade; order items keep their snapshot.
func (r *CatalogRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
			return translate(err, "reviews")
		}
		for _, m := range []any{&domain.CartItem{}, &domain.Favorite{}} {
			if err := tx.Where("product_id = ?", id).Delete(m).Error; err != nil {
				return translate(err, "product references")
			}
		}
		if err := tx.Model(&domain.OrderItem{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return translate(err, "order items")
		}
		res := tx.Delete(&domain.Product{}, id)
		if res.Error != nil {
			return translate(res.Error, "product")
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "product")
		}
		return nil
	})
}

// ---------- categories / rooms ----------

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.WithContext(ctx).Preload("SubCategories", func(q *gorm.DB) *gorm.DB {
		return q.Order("name ASC")
	}).Order("name ASC").Find(&out).Error
	return out, translate(err, "categories")
}

func (r *CatalogRepo) CategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, translate(err, "category "+name)
	}
	return &c, nil
}

func (r *CatalogRepo) SubCategoryByName(ctx context.Context, categoryID uint, name string) (*domain.SubCategory, error) {
	var s domain.SubCategory
	if err := r.db.WithContext(ctx).Where("category_id = ? AND name = ?", categoryID, name).First(&s).Error; err != nil {
		return nil, translate(err, "sub-category "+name)
	}
	return &s, nil
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, c *domain.Category) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "category")
}

func (r *CatalogRepo) CreateSubCategory(ctx context.Context, s *domain.SubCategory) error {
	if err := r.db.WithContext(ctx).First(&domain.Category{}, s.CategoryID).Error; err != nil {
		return translate(err, "category")
	}
	return translate(r.db.WithContext(ctx).Create(s).Error, "sub-category")
}

// DeleteCategory fails with Conflict while products still reference it.
func (r *CatalogRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := inUse(tx, "category_id = ?", id, "category"); err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&domain.SubCategory{}).Error; err != nil {
			return translate(err, "sub-categories")
		}
		return deleteOne(tx, &domain.Category{}, id, "category")
	})
}

func (r *CatalogRepo) DeleteSubCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := inUse(tx, "sub_category_id = ?", id, "sub-category"); err != nil {
			return err
		}
		return deleteOne(tx, &domain.SubCategory{}, id, "sub-category")
	})
}

func (r *CatalogRepo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, translate(err, "rooms")
}

func (r *CatalogRepo) RoomByName(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&room).Error; err != nil {
		return nil, translate(err, "room "+name)
	}
	return &room, nil
}

func (r *CatalogRepo) CreateRoom(ctx context.Context, room *domain.Room) error {
	return translate(r.db.WithContext(ctx).Create(room).Error, "room")
}

func (r *CatalogRepo) DeleteRoom(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := inUse(tx, "room_id = ?", id, "room"); err != nil {
			return err
		}
		return deleteOne(tx, &domain.Room{}, id, "room")
	})
}

func inUse(tx *gorm.DB, cond string, id uint, what string) error {
	var n int64
	if err := tx.Model(&domain.Product{}).Where(cond, id).Count(&n).Error; err != nil {
		return translate(err, "products")
	}
	if n > 0 {
		return conflictf("%s is used by %d product(s)", what, n)
	}
	return nil
}

func deleteOne(tx *gorm.DB, model any, id uint, what string) error {
	res := tx.Delete(model, id)
	if res.Error != nil {
		return translate(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, what)
	}
	return nil
}
