package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"branch-inventory-api-server/internal/models"
	"branch-inventory-api-server/internal/s3"
)

// CatalogStore is the slice of the store the product handler uses.
type CatalogStore interface {
	ListProducts(ctx context.Context, search string) ([]models.Product, error)
	ProductByID(ctx context.Context, productID string) (models.Product, error)
	CreateProduct(ctx context.Context, product models.Product) error
	UpdateProduct(ctx context.Context, productID string, fields map[string]interface{}) (models.Product, error)
	SetProductImage(ctx context.Context, productID, imageURL string) error
}

type ProductHandler struct {
	Store    CatalogStore
	Uploader *s3.Uploader
	Log      *zap.SugaredLogger
}

// GetAllProducts returns the catalog ordered by name. The optional "search"
// query narrows it by case-insensitive substring over name or description;
// every call re-reads the store, there is no catalog cache.
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	products, err := h.Store.ListProducts(c.Request.Context(), c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProductByID returns one catalog entry.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	product, err := h.Store.ProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

type CreateProductRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	Image           string  `json:"image"`
	Price           float64 `json:"price" binding:"required,gt=0"`
	StockLevel      int     `json:"stock_level" binding:"gte=0"`
	MaxRequestLimit int     `json:"max_request_limit" binding:"required,gt=0"`
	Unit            string  `json:"unit" binding:"required"`
}

// CreateProduct adds a catalog entry. HQ admin only.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{
		ProductID:       uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		Image:           req.Image,
		Price:           req.Price,
		StockLevel:      req.StockLevel,
		MaxRequestLimit: req.MaxRequestLimit,
		Unit:            req.Unit,
	}

	if err := h.Store.CreateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Log.Infow("product created", "productID", product.ProductID, "name", product.Name)
	c.JSON(http.StatusCreated, product)
}

type UpdateProductRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price" binding:"omitempty,gt=0"`
	StockLevel      *int     `json:"stock_level" binding:"omitempty,gte=0"`
	MaxRequestLimit *int     `json:"max_request_limit" binding:"omitempty,gt=0"`
	Unit            *string  `json:"unit"`
}

// UpdateProduct edits catalog fields. Only the fields present in the body are
// changed. HQ admin only.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.StockLevel != nil {
		fields["stockLevel"] = *req.StockLevel
	}
	if req.MaxRequestLimit != nil {
		fields["maxRequestLimit"] = *req.MaxRequestLimit
	}
	if req.Unit != nil {
		fields["unit"] = *req.Unit
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	product, err := h.Store.UpdateProduct(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

// UploadProductImage stores a catalog image in S3 and records its URL on the
// product.
func (h *ProductHandler) UploadProductImage(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is not configured"})
		return
	}

	productID := c.Param("id")
	if _, err := h.Store.ProductByID(c.Request.Context(), productID); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	objectKey := fmt.Sprintf("products/%s/%s%s", productID, uuid.New().String()[:8], filepath.Ext(fileHeader.Filename))
	imageURL, err := h.Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.SetProductImage(c.Request.Context(), productID, imageURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "image": imageURL})
}
