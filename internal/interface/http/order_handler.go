package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/application"
	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
	"github.com/oksasatya/go-storefront/pkg/response"
)

type OrderHandler struct {
	Svc    *application.OrderService
	Logger *logrus.Logger
}

func NewOrderHandler(svc *application.OrderService, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{Svc: svc, Logger: logger}
}

type shippingAddressRequest struct {
	FullName   string `json:"full_name" binding:"max=120"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone" binding:"omitempty,phone"`
}

type checkoutRequest struct {
	ShippingAddress *shippingAddressRequest `json:"shipping_address"`
	AddressID       string                  `json:"address_id"`
	PaymentMethod   string                  `json:"payment_method"`
}

// Checkout POST /api/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	in := application.CheckoutInput{AddressID: req.AddressID, PaymentMethod: req.PaymentMethod}
	if a := req.ShippingAddress; a != nil {
		in.ShippingAddress = &entity.ShippingAddress{
			FullName:   a.FullName,
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		}
	}
	o, err := h.Svc.Checkout(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order_id": o.ID, "order": o}, "order placed", nil)
}

// List GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.Svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, orders, "orders", gin.H{"count": len(orders)})
}

// Get GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.Svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, o, "order", nil)
}

// PreviousProducts GET /api/orders/previous-products
func (h *OrderHandler) PreviousProducts(c *gin.Context) {
	products, err := h.Svc.PreviousProducts(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, products, "previously purchased products", nil)
}
