// Package cartstore keeps shopping carts. Signed-in users' carts live in the
// database and guests' carts in redis; both satisfy Store.
package cartstore

import (
	"context"

	"github.com/you/curtain-store/services/storefront/internal/domain"
)

// Owner identifies a cart: a signed-in user, or a guest id when UserID is 0.
type Owner struct {
	UserID  uint
	GuestID string
}

func (o Owner) IsGuest() bool { return o.UserID == 0 }

// Store is one cart backend. Lines returned by Add and List carry their
// stored attributes; product data and totals are filled in by callers.
type Store interface {
	List(ctx context.Context, owner Owner) ([]domain.CartLine, error)
	// Add merges into the line with the same product, profile, device and note.
	Add(ctx context.Context, owner Owner, spec domain.LineSpec) (domain.CartLine, error)
	SetQuantity(ctx context.Context, owner Owner, lineID string, qty int) error
	Remove(ctx context.Context, owner Owner, lineID string) error
	Clear(ctx context.Context, owner Owner) error
}
