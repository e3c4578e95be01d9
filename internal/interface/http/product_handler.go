package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/application"
	"github.com/oksasatya/go-storefront/internal/interface/middleware"
	"github.com/oksasatya/go-storefront/pkg/response"
)

type ProductHandler struct {
	Svc    *application.CatalogService
	Logger *logrus.Logger
}

func NewProductHandler(svc *application.CatalogService, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{Svc: svc, Logger: logger}
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,rating"`
	Comment string `json:"comment" binding:"max=2000"`
}

// List GET /api/products?page=&limit=&category=
func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	res, err := h.Svc.ListProducts(c.Request.Context(), application.ProductQuery{
		Category: c.Query("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res.Items, "products", gin.H{
		"page":  res.Page,
		"limit": res.Limit,
		"total": res.Total,
	})
}

// Featured GET /api/products/featured
func (h *ProductHandler) Featured(c *gin.Context) {
	items, err := h.Svc.FeaturedProducts(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, items, "featured products", nil)
}

// Deals GET /api/products/deals?page=
func (h *ProductHandler) Deals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	res, err := h.Svc.Deals(c.Request.Context(), page)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res.Items, "deals", gin.H{
		"page":        res.Page,
		"limit":       res.Limit,
		"total":       res.Total,
		"total_pages": (res.Total + int64(res.Limit) - 1) / int64(res.Limit),
	})
}

// Get GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	d, err := h.Svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"product": d.Product, "reviews": d.Reviews}, "product", nil)
}

// AddReview POST /api/products/:id/reviews
func (h *ProductHandler) AddReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	rv, err := h.Svc.AddReview(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, rv, "review added", nil)
}
