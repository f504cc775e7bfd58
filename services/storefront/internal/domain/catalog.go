package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Category struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"uniqueIndex;not null" json:"name"`
	SubCategories []SubCategory `json:"sub_categories,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type SubCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"uniqueIndex:idx_subcategory_name;not null" json:"category_id"`
	Name       string    `gorm:"uniqueIndex:idx_subcategory_name;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type Room struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product prices are per square metre.
type Product struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Name          string                      `gorm:"not null" json:"name"`
	Description   string                      `json:"description"`
	CategoryID    uint                        `gorm:"index;not null" json:"category_id"`
	Category      Category                    `json:"-"`
	SubCategoryID *uint                       `gorm:"index" json:"sub_category_id"`
	SubCategory   *SubCategory                `json:"-"`
	RoomID        *uint                       `gorm:"index" json:"room_id"`
	Room          *Room                       `json:"-"`
	MainImage     string                      `json:"main_image"`
	SubImages     datatypes.JSONSlice[string] `json:"sub_images"`
	Price         decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"price"`
	Rating        float64                     `gorm:"not null;default:0" json:"rating"`
	ReviewCount   int                         `gorm:"not null;default:0" json:"review_count"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// Images lists every stored image of the product.
func (p *Product) Images() []string {
	out := make([]string, 0, 1+len(p.SubImages))
	if p.MainImage != "" {
		out = append(out, p.MainImage)
	}
	for _, s := range p.SubImages {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ProductView is a product with its relation names flattened.
type ProductView struct {
	Product
	CategoryName    string `json:"category"`
	SubCategoryName string `json:"sub_category,omitempty"`
	RoomName        string `json:"room,omitempty"`
}

func NewProductView(p Product) ProductView {
	v := ProductView{Product: p, CategoryName: p.Category.Name}
	if p.SubCategory != nil {
		v.SubCategoryName = p.SubCategory.Name
	}
	if p.Room != nil {
		v.RoomName = p.Room.Name
	}
	return v
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_favorite_user_product;not null" json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_favorite_user_product;not null" json:"product_id"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE" json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_product;not null" json:"user_id"`
	User      User      `json:"-"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_user_product;not null" json:"product_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)
