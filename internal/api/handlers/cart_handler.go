package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"branch-inventory-api-server/internal/cart"
)

type CartHandler struct {
	Carts *cart.Store
	Store CatalogStore
}

// GetCart returns the session's current cart lines.
func (h *CartHandler) GetCart(c *gin.Context) {
	lines := h.Carts.Get(c.GetString("session_id")).Lines()
	c.JSON(http.StatusOK, gin.H{"items": lines})
}

type ChangeCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=increment decrement"`
}

// ChangeCartItem raises or lowers one product's requested quantity.
// Increments cap at the product's max request limit; decrements stop at zero.
func (h *CartHandler) ChangeCartItem(c *gin.Context) {
	var req ChangeCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionCart := h.Carts.Get(c.GetString("session_id"))

	var quantity int
	switch req.Action {
	case "increment":
		product, err := h.Store.ProductByID(c.Request.Context(), req.ProductID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		quantity = sessionCart.Increment(req.ProductID, product.MaxRequestLimit)
	case "decrement":
		quantity = sessionCart.Decrement(req.ProductID)
	}

	c.JSON(http.StatusOK, gin.H{"product_id": req.ProductID, "quantity": quantity})
}

// ClearCart abandons the session's cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	h.Carts.Get(c.GetString("session_id")).Clear()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
