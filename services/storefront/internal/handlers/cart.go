package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/you/curtain-store/services/storefront/internal/cartstore"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

const GuestCookie = "guest_cart"

// guestID returns the guest cart cookie when it holds a valid id.
func guestID(c *gin.Context) string {
	v, err := c.Cookie(GuestCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(v); err != nil {
		return ""
	}
	return v
}

type CartHandler struct {
	carts   *service.CartService
	cookies Cookies
}

func NewCartHandler(carts *service.CartService, cookies Cookies) *CartHandler {
	return &CartHandler{carts: carts, cookies: cookies}
}

// owner is the signed-in user, else the guest. With mint set a guest without
// a cart cookie is given one.
func (h *CartHandler) owner(c *gin.Context, mint bool) cartstore.Owner {
	if id := middlewares.UserID(c); id != 0 {
		return cartstore.Owner{UserID: id}
	}
	gid := guestID(c)
	if gid == "" && mint {
		gid = uuid.NewString()
		h.cookies.set(c, GuestCookie, gid, h.cookies.GuestTTL)
	}
	return cartstore.Owner{GuestID: gid}
}

// GET /cart
func (h *CartHandler) List(c *gin.Context) {
	owner := h.owner(c, false)
	if owner.IsGuest() && owner.GuestID == "" {
		c.JSON(http.StatusOK, service.Cart{Items: []domain.CartLine{}, Subtotal: decimal.Zero})
		return
	}
	cart, err := h.carts.List(c, owner)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// POST /cart
func (h *CartHandler) Add(c *gin.Context) {
	var in struct {
		ProductID uint     `json:"product_id"`
		Quantity  int      `json:"quantity"`
		Note      string   `json:"note"`
		Profile   string   `json:"profile"`
		Device    string   `json:"device"`
		Width     *float64 `json:"width"`
		Height    *float64 `json:"height"`
	}
	if !bindJSON(c, &in) {
		return
	}
	line, err := h.carts.Add(c, h.owner(c, true), domain.LineSpec{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Note:      in.Note,
		Profile:   in.Profile,
		Device:    in.Device,
		Width:     in.Width,
		Height:    in.Height,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

// PATCH /cart/:id
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if err := h.carts.SetQuantity(c, h.owner(c, false), c.Param("id"), in.Quantity); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /cart/:id
func (h *CartHandler) Remove(c *gin.Context) {
	if err := h.carts.Remove(c, h.owner(c, false), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	owner := h.owner(c, false)
	if owner.IsGuest() && owner.GuestID == "" {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.carts.Clear(c, owner); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
