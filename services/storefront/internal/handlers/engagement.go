package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type EngagementHandler struct {
	favorites *service.FavoriteService
	reviews   *service.ReviewService
}

func NewEngagementHandler(favorites *service.FavoriteService, reviews *service.ReviewService) *EngagementHandler {
	return &EngagementHandler{favorites: favorites, reviews: reviews}
}

// GET /favorites
func (h *EngagementHandler) ListFavorites(c *gin.Context) {
	favs, err := h.favorites.List(c, middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

// POST /favorites
func (h *EngagementHandler) AddFavorite(c *gin.Context) {
	var in struct {
		ProductID uint `json:"product_id"`
	}
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.favorites.Add(c, middlewares.UserID(c), in.ProductID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// DELETE /favorites/:product_id
func (h *EngagementHandler) RemoveFavorite(c *gin.Context) {
	pid, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	if err := h.favorites.Remove(c, middlewares.UserID(c), pid); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /products/:id/reviews
func (h *EngagementHandler) ListReviews(c *gin.Context) {
	pid, ok := idParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.reviews.List(c, pid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// POST /products/:id/reviews
func (h *EngagementHandler) CreateReview(c *gin.Context) {
	pid, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if !bindJSON(c, &in) {
		return
	}
	rv, err := h.reviews.Create(c, middlewares.UserID(c), pid, in.Rating, in.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

// DELETE /reviews/:id (author or ADMIN)
func (h *EngagementHandler) DeleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c, middlewares.UserID(c), middlewares.IsAdmin(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
