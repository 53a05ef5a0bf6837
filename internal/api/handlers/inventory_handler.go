package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"branch-inventory-api-server/internal/models"
)

// AuditStore is the slice of the store the inventory adjuster uses.
type AuditStore interface {
	CreateAdjustment(ctx context.Context, adjustment models.InventoryAdjustment) error
	AdjustmentsForProduct(ctx context.Context, productID string) ([]models.InventoryAdjustment, error)
}

type InventoryHandler struct {
	Store   AuditStore
	Catalog CatalogStore
	Log     *zap.SugaredLogger
}

type AdjustInventoryRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Amount    int    `json:"amount" binding:"required,gt=0"`
	Type      string `json:"type" binding:"required,oneof=add remove adjust"`
	Notes     string `json:"notes"`
}

// AdjustInventory appends one audit row. The operator enters a positive
// amount; "remove" negates it before logging. The product's stock level is
// not written here — reconciliation from the audit log is a separate process.
func (h *InventoryHandler) AdjustInventory(c *gin.Context) {
	var req AdjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.Catalog.ProductByID(c.Request.Context(), req.ProductID); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	changeAmount := req.Amount
	if req.Type == models.AdjustmentRemove {
		changeAmount = -req.Amount
	}

	notes := req.Notes
	if notes == "" {
		notes = fmt.Sprintf("%s %d units", req.Type, req.Amount)
	}

	adjustment := models.InventoryAdjustment{
		ProductID:    req.ProductID,
		UserID:       c.GetString("user_id"),
		ChangeAmount: changeAmount,
		Type:         req.Type,
		Notes:        notes,
		CreatedAt:    time.Now(),
	}

	if err := h.Store.CreateAdjustment(c.Request.Context(), adjustment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Log.Infow("inventory adjusted", "productID", req.ProductID, "type", req.Type, "change", changeAmount)
	c.JSON(http.StatusCreated, adjustment)
}

// GetAdjustments lists a product's audit trail, newest first.
func (h *InventoryHandler) GetAdjustments(c *gin.Context) {
	adjustments, err := h.Store.AdjustmentsForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, adjustments)
}
