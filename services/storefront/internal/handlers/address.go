package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type AddressHandler struct {
	addresses *service.AddressService
}

func NewAddressHandler(addresses *service.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// GET /addresses
func (h *AddressHandler) List(c *gin.Context) {
	list, err := h.addresses.List(c, middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /addresses
func (h *AddressHandler) Create(c *gin.Context) {
	var in service.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.addresses.Create(c, middlewares.UserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// PUT /addresses/:id
func (h *AddressHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.addresses.Update(c, middlewares.UserID(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DELETE /addresses/:id
func (h *AddressHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.addresses.Delete(c, middlewares.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
