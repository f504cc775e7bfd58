package cartstore

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

func TestDBStore(t *testing.T) {
	gdb, err := db.Open("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, repository.Migrate(gdb))

	cat := domain.Category{Name: "Curtains"}
	require.NoError(t, gdb.Create(&cat).Error)
	p := domain.Product{Name: "Linen", CategoryID: cat.ID, Price: decimal.NewFromInt(100)}
	require.NoError(t, gdb.Omit("Category").Create(&p).Error)

	ctx := context.Background()
	store := NewDBStore(repository.NewCartRepo(gdb))
	owner := Owner{UserID: 1}

	line, err := store.Add(ctx, owner, domain.LineSpec{ProductID: p.ID, Quantity: 1, Device: "default", Width: f(100), Height: f(150)})
	require.NoError(t, err)
	assert.Equal(t, 1.5, line.M2)

	line, err = store.Add(ctx, owner, domain.LineSpec{ProductID: p.ID, Quantity: 2, Device: "default"})
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)

	lines, err := store.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.NotNil(t, lines[0].Product)
	assert.Equal(t, "Curtains", lines[0].Product.CategoryName)

	require.NoError(t, store.SetQuantity(ctx, owner, line.ID, 5))
	assert.True(t, apperr.Is(store.SetQuantity(ctx, owner, "abc", 5), apperr.KindNotFound))
	require.NoError(t, store.Remove(ctx, owner, line.ID))

	_, err = store.List(ctx, Owner{GuestID: "g"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
