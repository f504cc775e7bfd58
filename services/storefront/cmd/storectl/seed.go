package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/pkg/db"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

// Catalog is the seed file layout.
type Catalog struct {
	Categories []struct {
		Name          string   `yaml:"name"`
		SubCategories []string `yaml:"sub_categories"`
	} `yaml:"categories"`
	Rooms    []string      `yaml:"rooms"`
	Products []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	SubCategory string   `yaml:"sub_category"`
	Room        string   `yaml:"room"`
	Price       string   `yaml:"price"`
	MainImage   string   `yaml:"main_image"`
	SubImages   []string `yaml:"sub_images"`
}

func parseCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &c, nil
}

type seedReport struct {
	categories, subCategories, rooms, products, skipped int
}

// seed inserts what is missing. Rows are matched by name, so re-running a
// file changes nothing.
func seed(ctx context.Context, gdb *gorm.DB, c *Catalog) (seedReport, error) {
	var rep seedReport
	repo := repository.NewCatalogRepo(gdb)

	for _, in := range c.Categories {
		cat, err := repo.CategoryByName(ctx, in.Name)
		if apperr.Is(err, apperr.KindNotFound) {
			cat = &domain.Category{Name: in.Name}
			err = repo.CreateCategory(ctx, cat)
			rep.categories++
		}
		if err != nil {
			return rep, fmt.Errorf("category %q: %w", in.Name, err)
		}
		for _, name := range in.SubCategories {
			_, err := repo.SubCategoryByName(ctx, cat.ID, name)
			if apperr.Is(err, apperr.KindNotFound) {
				err = repo.CreateSubCategory(ctx, &domain.SubCategory{CategoryID: cat.ID, Name: name})
				rep.subCategories++
			}
			if err != nil {
				return rep, fmt.Errorf("sub-category %q: %w", name, err)
			}
		}
	}
	for _, name := range c.Rooms {
		_, err := repo.RoomByName(ctx, name)
		if apperr.Is(err, apperr.KindNotFound) {
			err = repo.CreateRoom(ctx, &domain.Room{Name: name})
			rep.rooms++
		}
		if err != nil {
			return rep, fmt.Errorf("room %q: %w", name, err)
		}
	}

	for _, sp := range c.Products {
		p, err := resolveProduct(ctx, repo, sp)
		if err != nil {
			return rep, fmt.Errorf("product %q: %w", sp.Name, err)
		}
		existing, err := repo.ListProducts(ctx, p.CategoryID)
		if err != nil {
			return rep, err
		}
		if hasProduct(existing, p.Name) {
			rep.skipped++
			continue
		}
		if err := repo.CreateProduct(ctx, p); err != nil {
			return rep, fmt.Errorf("product %q: %w", sp.Name, err)
		}
		rep.products++
	}
	return rep, nil
}

func resolveProduct(ctx context.Context, repo *repository.CatalogRepo, sp SeedProduct) (*domain.Product, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(sp.Price))
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("invalid price %q", sp.Price)
	}
	cat, err := repo.CategoryByName(ctx, sp.Category)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		Name:        sp.Name,
		Description: sp.Description,
		CategoryID:  cat.ID,
		Price:       price.Round(2),
		MainImage:   sp.MainImage,
		SubImages:   sp.SubImages,
	}
	if sp.SubCategory != "" {
		sub, err := repo.SubCategoryByName(ctx, cat.ID, sp.SubCategory)
		if err != nil {
			return nil, err
		}
		p.SubCategoryID = &sub.ID
	}
	if sp.Room != "" {
		room, err := repo.RoomByName(ctx, sp.Room)
		if err != nil {
			return nil, err
		}
		p.RoomID = &room.ID
	}
	return p, nil
}

func hasProduct(ps []domain.Product, name string) bool {
	for _, p := range ps {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load categories, rooms and products from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return err
		}
		defer f.Close()
		c, err := parseCatalog(f)
		if err != nil {
			return err
		}
		gdb, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		if err := repository.Migrate(gdb); err != nil {
			return err
		}
		rep, err := seed(cmd.Context(), gdb, c)
		if err != nil {
			return err
		}
		color.Green("✓ seeded %d categories, %d sub-categories, %d rooms, %d products",
			rep.categories, rep.subCategories, rep.rooms, rep.products)
		if rep.skipped > 0 {
			color.Yellow("• %d products already present", rep.skipped)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "catalog.yaml", "seed file")
	rootCmd.AddCommand(seedCmd)
}
