package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/cartstore"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

type Cart struct {
	Items    []domain.CartLine `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

// CartService serves a user's cart from the database and a guest's cart from
// the guest store, and merges the latter into the former at login.
type CartService struct {
	users   *cartstore.DBStore
	guests  cartstore.Store
	catalog *repository.CatalogRepo
	log     zerolog.Logger
}

// NewCartService takes a nil guests store when guest carts are disabled.
func NewCartService(users *cartstore.DBStore, guests cartstore.Store, catalog *repository.CatalogRepo, log zerolog.Logger) *CartService {
	return &CartService{users: users, guests: guests, catalog: catalog, log: log}
}

func (s *CartService) store(owner cartstore.Owner) (cartstore.Store, error) {
	if !owner.IsGuest() {
		return s.users, nil
	}
	if s.guests == nil || owner.GuestID == "" {
		return nil, apperr.Unauthorized("sign in required")
	}
	return s.guests, nil
}

// List returns the cart priced at current product prices. Lines whose product
// no longer exists are left out.
func (s *CartService) List(ctx context.Context, owner cartstore.Owner) (*Cart, error) {
	st, err := s.store(owner)
	if err != nil {
		return nil, err
	}
	lines, err := st.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.attachProducts(ctx, lines); err != nil {
		return nil, err
	}
	cart := &Cart{Items: make([]domain.CartLine, 0, len(lines)), Subtotal: decimal.Zero}
	for _, l := range lines {
		if l.Product == nil {
			continue
		}
		cart.Items = append(cart.Items, l)
		cart.Subtotal = cart.Subtotal.Add(l.LineTotal)
	}
	return cart, nil
}

func (s *CartService) Add(ctx context.Context, owner cartstore.Owner, spec domain.LineSpec) (*domain.CartLine, error) {
	spec = spec.Normalize()
	if spec.ProductID == 0 {
		return nil, apperr.Validation("product_id is required")
	}
	if spec.Quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	if (spec.Width != nil && *spec.Width <= 0) || (spec.Height != nil && *spec.Height <= 0) {
		return nil, apperr.Validation("width and height must be positive")
	}
	st, err := s.store(owner)
	if err != nil {
		return nil, err
	}
	p, err := s.catalog.ProductByID(ctx, spec.ProductID)
	if err != nil {
		return nil, err
	}
	line, err := st.Add(ctx, owner, spec)
	if err != nil {
		return nil, err
	}
	v := domain.NewProductView(*p)
	line.Product = &v
	line.LineTotal = domain.LineTotal(p.Price, line.M2, line.Quantity)
	return &line, nil
}

func (s *CartService) SetQuantity(ctx context.Context, owner cartstore.Owner, lineID string, qty int) error {
	if qty < 1 {
		return apperr.Validation("quantity must be at least 1")
	}
	st, err := s.store(owner)
	if err != nil {
		return err
	}
	return st.SetQuantity(ctx, owner, lineID, qty)
}

func (s *CartService) Remove(ctx context.Context, owner cartstore.Owner, lineID string) error {
	st, err := s.store(owner)
	if err != nil {
		return err
	}
	return st.Remove(ctx, owner, lineID)
}

func (s *CartService) Clear(ctx context.Context, owner cartstore.Owner) error {
	st, err := s.store(owner)
	if err != nil {
		return err
	}
	return st.Clear(ctx, owner)
}

// MergeGuest moves every line of a guest cart into the user's cart, merging
// lines with the same key, and empties the guest cart. It returns how many
// lines were moved.
func (s *CartService) MergeGuest(ctx context.Context, guestID string, userID uint) (int, error) {
	if s.guests == nil || guestID == "" || userID == 0 {
		return 0, nil
	}
	guest := cartstore.Owner{GuestID: guestID}
	lines, err := s.guests.List(ctx, guest)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}
	products, err := s.catalog.ProductsByIDs(ctx, productIDs(lines))
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, l := range lines {
		if _, ok := products[l.ProductID]; !ok {
			continue
		}
		spec := domain.LineSpec{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Note:      l.Note,
			Profile:   l.Profile,
			Device:    l.Device,
			Width:     l.Width,
			Height:    l.Height,
		}
		if _, err := s.users.AddSized(ctx, userID, spec.Normalize(), l.M2); err != nil {
			return moved, err
		}
		moved++
	}
	if err := s.guests.Clear(ctx, guest); err != nil {
		s.log.Warn().Err(err).Str("guest_id", guestID).Msg("clear merged guest cart")
	}
	return moved, nil
}

func (s *CartService) attachProducts(ctx context.Context, lines []domain.CartLine) error {
	var missing []uint
	for _, l := range lines {
		if l.Product == nil {
			missing = append(missing, l.ProductID)
		}
	}
	products, err := s.catalog.ProductsByIDs(ctx, missing)
	if err != nil {
		return err
	}
	for i := range lines {
		if lines[i].Product == nil {
			p, ok := products[lines[i].ProductID]
			if !ok {
				continue
			}
			v := domain.NewProductView(p)
			lines[i].Product = &v
		}
		lines[i].LineTotal = domain.LineTotal(lines[i].Product.Price, lines[i].M2, lines[i].Quantity)
	}
	return nil
}

func productIDs(lines []domain.CartLine) []uint {
	seen := make(map[uint]bool, len(lines))
	out := make([]uint, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			out = append(out, l.ProductID)
		}
	}
	return out
}
