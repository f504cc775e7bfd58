package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/middlewares"
	"github.com/you/curtain-store/services/storefront/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
	log    zerolog.Logger
}

func NewOrderHandler(orders *service.OrderService, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

// GET /checkout/cargo
func (h *OrderHandler) Cargo(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.CargoOptions())
}

func checkoutStatus(res *service.CheckoutResult) int {
	if res.Pending {
		return http.StatusAccepted
	}
	return http.StatusCreated
}

// POST /checkout
// 201 with the paid order, or 202 with the 3-D Secure authorize_uri.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var in struct {
		ShippingAddressID uint   `json:"shipping_address_id"`
		BillingAddressID  uint   `json:"billing_address_id"`
		CargoOption       string `json:"cargo_option"`
		CardToken         string `json:"card_token"`
	}
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.orders.Checkout(c, service.CheckoutInput{
		UserID:            middlewares.UserID(c),
		ShippingAddressID: in.ShippingAddressID,
		BillingAddressID:  in.BillingAddressID,
		CargoOption:       in.CargoOption,
		CardToken:         in.CardToken,
	})
	var pending *service.PendingCheckoutError
	if errors.As(err, &pending) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":         pending.Error(),
			"charge_id":     pending.ChargeID,
			"authorize_uri": pending.AuthorizeURI,
		})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(checkoutStatus(res), res)
}

// GET /checkout/complete?charge_id=
func (h *OrderHandler) Complete(c *gin.Context) {
	res, err := h.orders.ConfirmReturn(c, middlewares.UserID(c), c.Query("charge_id"))
	if err != nil {
		fail(c, err)
		return
	}
	if res.Pending {
		c.JSON(http.StatusAccepted, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /order/user
func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orders.ListUserOrders(c, middlewares.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// PATCH /order/user
func (h *OrderHandler) CancelMine(c *gin.Context) {
	var in struct {
		OrderID uint `json:"order_id" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.orders.Cancel(c, middlewares.UserID(c), in.OrderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// POST /webhooks/omise
// Only the event id is read; the event itself is fetched back from the gateway.
func (h *OrderHandler) Webhook(c *gin.Context) {
	var in struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if !bindJSON(c, &in) {
		return
	}
	h.log.Info().Str("event_id", in.ID).Str("key", in.Key).Msg("gateway webhook")
	if err := h.orders.HandleEvent(c, in.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// GET /orders?page=1&page_size=20&status=
func (h *OrderHandler) AdminList(c *gin.Context) {
	p := pageQuery(c)
	orders, total, err := h.orders.AdminList(c, p, domain.OrderStatus(c.Query("status")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paged[domain.Order]{Items: orders, Total: total, Page: p.Page, PageSize: p.Size})
}

// PATCH /orders/:id/status
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.orders.AdminUpdateStatus(c, id, domain.OrderStatus(in.Status))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
