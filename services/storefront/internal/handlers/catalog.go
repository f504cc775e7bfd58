package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /products?category_id=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var categoryID uint
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fail(c, apperr.Validation("category_id must be a number"))
			return
		}
		categoryID = uint(id)
	}
	products, err := h.catalog.ListProducts(c, categoryID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func productForm(c *gin.Context) (service.ProductInput, service.ProductImages, func(), error) {
	in := service.ProductInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		SubCategory: c.PostForm("sub_category"),
		Room:        c.PostForm("room"),
		Price:       c.PostForm("price"),
	}
	main, closeMain, err := formFile(c, "main_image")
	if err != nil {
		return in, service.ProductImages{}, nil, err
	}
	subs, closeSubs, err := formFiles(c, "sub_images")
	if err != nil {
		closeMain()
		return in, service.ProductImages{}, nil, err
	}
	return in, service.ProductImages{Main: main, Subs: subs}, func() { closeMain(); closeSubs() }, nil
}

// POST /products (multipart)
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	in, imgs, done, err := productForm(c)
	if err != nil {
		fail(c, err)
		return
	}
	defer done()
	p, err := h.catalog.CreateProduct(c, in, imgs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PUT /products/:id (multipart)
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in, imgs, done, err := productForm(c)
	if err != nil {
		fail(c, err)
		return
	}
	defer done()
	p, err := h.catalog.UpdateProduct(c, id, in, imgs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	cats, err := h.catalog.ListCategories(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

type nameBody struct {
	Name string `json:"name"`
}

// POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var in nameBody
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.catalog.CreateCategory(c, in.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// DELETE /categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	deleteByID(c, h.catalog.DeleteCategory)
}

// POST /subcategories
func (h *CatalogHandler) CreateSubCategory(c *gin.Context) {
	var in struct {
		CategoryID uint   `json:"category_id"`
		Name       string `json:"name"`
	}
	if !bindJSON(c, &in) {
		return
	}
	sc, err := h.catalog.CreateSubCategory(c, in.CategoryID, in.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc)
}

// DELETE /subcategories/:id
func (h *CatalogHandler) DeleteSubCategory(c *gin.Context) {
	deleteByID(c, h.catalog.DeleteSubCategory)
}

// GET /rooms
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	rooms, err := h.catalog.ListRooms(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// POST /rooms
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	var in nameBody
	if !bindJSON(c, &in) {
		return
	}
	room, err := h.catalog.CreateRoom(c, in.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// DELETE /rooms/:id
func (h *CatalogHandler) DeleteRoom(c *gin.Context) {
	deleteByID(c, h.catalog.DeleteRoom)
}

