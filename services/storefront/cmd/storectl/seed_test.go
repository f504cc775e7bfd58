package main

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

const catalogYAML = `
categories:
  - name: Curtains
    sub_categories: [Blackout, Sheer]
  - name: Blinds
rooms: [Bedroom, Living room]
products:
  - name: Midnight blackout
    category: Curtains
    sub_category: Blackout
    room: Bedroom
    price: "249.90"
    main_image: https://cdn.example.com/midnight.jpg
    sub_images: [https://cdn.example.com/midnight-2.jpg]
  - name: Bamboo roller
    category: Blinds
    price: "180"
`

func TestSeedIsIdempotent(t *testing.T) {
	gdb, err := db.Open("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	ctx := context.Background()

	c, err := parseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	rep, err := seed(ctx, gdb, c)
	require.NoError(t, err)
	assert.Equal(t, seedReport{categories: 2, subCategories: 2, rooms: 2, products: 2}, rep)

	rep, err = seed(ctx, gdb, c)
	require.NoError(t, err)
	assert.Equal(t, seedReport{skipped: 2}, rep)

	var p domain.Product
	require.NoError(t, gdb.Preload("SubCategory").Preload("Room").Where("name = ?", "Midnight blackout").First(&p).Error)
	assert.Equal(t, "249.9", p.Price.String())
	assert.Equal(t, "Blackout", p.SubCategory.Name)
	assert.Equal(t, "Bedroom", p.Room.Name)
	assert.Len(t, p.SubImages, 1)
}

func TestParseCatalogRejectsUnknownFields(t *testing.T) {
	_, err := parseCatalog(strings.NewReader("categorys: []\n"))
	assert.Error(t, err)
}

func TestSeedUnknownCategory(t *testing.T) {
	gdb, err := db.Open("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	c, err := parseCatalog(strings.NewReader("products:\n  - name: X\n    category: Nope\n    price: \"1\"\n"))
	require.NoError(t, err)
	_, err = seed(context.Background(), gdb, c)
	assert.ErrorContains(t, err, "category Nope not found")
}
