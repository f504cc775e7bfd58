package cartstore

import (
	"context"
	"strconv"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

// DBStore keeps carts of signed-in users in the cart_items table.
type DBStore struct{ repo *repository.CartRepo }

func NewDBStore(repo *repository.CartRepo) *DBStore {
	return &DBStore{repo: repo}
}

func (s *DBStore) List(ctx context.Context, owner Owner) ([]domain.CartLine, error) {
	if owner.UserID == 0 {
		return nil, apperr.Unauthorized("sign in required")
	}
	items, err := s.repo.List(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CartLine, 0, len(items))
	for _, it := range items {
		line := lineFromItem(it)
		if it.Product.ID != 0 {
			v := domain.NewProductView(it.Product)
			line.Product = &v
		}
		out = append(out, line)
	}
	return out, nil
}

func (s *DBStore) Add(ctx context.Context, owner Owner, spec domain.LineSpec) (domain.CartLine, error) {
	if owner.UserID == 0 {
		return domain.CartLine{}, apperr.Unauthorized("sign in required")
	}
	return s.AddSized(ctx, owner.UserID, spec, domain.AreaM2(spec.Width, spec.Height))
}

// AddSized upserts a line with a precomputed area, as when a guest cart is merged.
func (s *DBStore) AddSized(ctx context.Context, userID uint, spec domain.LineSpec, m2 float64) (domain.CartLine, error) {
	it, err := s.repo.Upsert(ctx, domain.CartItem{
		UserID:    userID,
		ProductID: spec.ProductID,
		Profile:   spec.Profile,
		Device:    spec.Device,
		Note:      spec.Note,
		Quantity:  spec.Quantity,
		Width:     spec.Width,
		Height:    spec.Height,
		M2:        m2,
	})
	if err != nil {
		return domain.CartLine{}, err
	}
	return lineFromItem(*it), nil
}

func (s *DBStore) SetQuantity(ctx context.Context, owner Owner, lineID string, qty int) error {
	id, err := parseLineID(lineID)
	if err != nil {
		return err
	}
	return s.repo.SetQuantity(ctx, owner.UserID, id, qty)
}

func (s *DBStore) Remove(ctx context.Context, owner Owner, lineID string) error {
	id, err := parseLineID(lineID)
	if err != nil {
		return err
	}
	return s.repo.Remove(ctx, owner.UserID, id)
}

func (s *DBStore) Clear(ctx context.Context, owner Owner) error {
	return s.repo.Clear(ctx, owner.UserID)
}

func parseLineID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("cart item not found")
	}
	return uint(id), nil
}

func lineFromItem(it domain.CartItem) domain.CartLine {
	return domain.CartLine{
		ID:        strconv.FormatUint(uint64(it.ID), 10),
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		Note:      it.Note,
		Profile:   it.Profile,
		Device:    it.Device,
		Width:     it.Width,
		Height:    it.Height,
		M2:        it.M2,
	}
}
