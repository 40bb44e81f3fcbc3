package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/icaffe-pos/pos-device-api/engine"
	"github.com/icaffe-pos/pos-device-api/models"
	"github.com/icaffe-pos/pos-device-api/services"
)

// OrderController serves the device-local API the POS/KDS UI talks to.
// Every read goes to the local cache through the engine; every write is an
// optimistic engine operation.
type OrderController struct {
	Engine *engine.SyncEngine
}

// NewOrderController wires the controller to a device session's engine.
func NewOrderController(e *engine.SyncEngine) *OrderController {
	return &OrderController{Engine: e}
}

// CheckoutItemRequest is one cart line in a checkout submission
type CheckoutItemRequest struct {
	MenuItemID string              `json:"menu_item_id" binding:"required"`
	Name       string              `json:"name" binding:"required"`
	Price      float64             `json:"price"`
	Category   string              `json:"category"`
	Quantity   int                 `json:"quantity" binding:"required,gt=0"`
	Mods       models.ModifierList `json:"mods"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	PaymentMethod string                `json:"payment_method"`
	IsPaid        bool                  `json:"is_paid"`
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone"`
	Items         []CheckoutItemRequest `json:"items" binding:"required,min=1,dive"`
}

// GetOrders handles GET /api/v1/orders - the active board, grouped by column
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	orders := ctrl.Engine.ActiveOrders(c.Request.Context())
	ctrl.resolveScreenshotURLs(orders)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"orders": orders,
			"board":  engine.GroupByColumn(orders),
		},
	})
}

// CreateOrder handles POST /api/v1/orders - checkout submission
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	draft := engine.CheckoutDraft{
		PaymentMethod: req.PaymentMethod,
		IsPaid:        req.IsPaid,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	}
	for _, item := range req.Items {
		draft.Lines = append(draft.Lines, engine.CheckoutLine{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Price:      item.Price,
			Category:   item.Category,
			Quantity:   item.Quantity,
			Mods:       item.Mods,
		})
	}

	order, err := ctrl.Engine.SubmitOrder(c.Request.Context(), draft)
	if err != nil {
		// The local cache write itself failed; the device's storage is broken.
		log.Printf("checkout failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CACHE_ERROR",
				"message": "Failed to store order",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateStatusRequest carries the target board column for a status move
type UpdateStatusRequest struct {
	Column string `json:"column" binding:"required"`
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status - a board move
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	column, err := models.ParseUIColumn(req.Column)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_COLUMN",
				"message": err.Error(),
			},
		})
		return
	}

	if !ctrl.Engine.UpdateStatus(c.Request.Context(), orderID, column) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_REJECTED",
				"message": "Status update was not applied",
				"details": ctrl.Engine.LastError(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkOrderSeen handles POST /api/v1/orders/:id/seen - acknowledgment
func (ctrl *OrderController) MarkOrderSeen(c *gin.Context) {
	orderID := c.Param("id")

	if !ctrl.Engine.MarkOrderSeen(c.Request.Context(), orderID) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_REJECTED",
				"message": "Order could not be acknowledged",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateOrderRequest is a partial update of editable order fields
type UpdateOrderRequest struct {
	CustomerName  *string  `json:"customer_name"`
	CustomerPhone *string  `json:"customer_phone"`
	PaymentMethod *string  `json:"payment_method"`
	IsPaid        *bool    `json:"is_paid"`
	TotalAmount   *float64 `json:"total_amount"`
}

// UpdateOrder handles PATCH /api/v1/orders/:id - non-status field edits
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
	orderID := c.Param("id")

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	fields := map[string]interface{}{}
	if req.CustomerName != nil {
		fields["customer_name"] = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		fields["customer_phone"] = *req.CustomerPhone
	}
	if req.PaymentMethod != nil {
		fields["payment_method"] = *req.PaymentMethod
	}
	if req.IsPaid != nil {
		fields["is_paid"] = *req.IsPaid
	}
	if req.TotalAmount != nil {
		fields["total_amount"] = *req.TotalAmount
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "No editable fields provided",
			},
		})
		return
	}

	if !ctrl.Engine.UpdateOrderFields(c.Request.Context(), orderID, fields) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_REJECTED",
				"message": "Order update was not applied",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateItemsRequest moves a set of items on an order to a status
type UpdateItemsRequest struct {
	ItemIDs []string          `json:"item_ids" binding:"required,min=1"`
	Status  models.ItemStatus `json:"status" binding:"required"`
}

// UpdateOrderItems handles PATCH /api/v1/orders/:id/items - partial serving
func (ctrl *OrderController) UpdateOrderItems(c *gin.Context) {
	orderID := c.Param("id")

	var req UpdateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	if !ctrl.Engine.SetItemsStatus(c.Request.Context(), orderID, req.ItemIDs, req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_REJECTED",
				"message": "Item update was not applied",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadScreenshot handles POST /api/v1/orders/:id/screenshot - payment
// confirmation image upload
func (ctrl *OrderController) UploadScreenshot(c *gin.Context) {
	orderID := c.Param("id")

	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "A screenshot file is required",
			},
		})
		return
	}

	// 5MB cap; the POS uploads phone camera captures
	if fileHeader.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": "Screenshot must be smaller than 5MB",
			},
		})
		return
	}

	storage := services.GetScreenshotStorage()
	if storage == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Screenshot storage is not configured",
			},
		})
		return
	}

	key, err := storage.UploadScreenshot(orderID, fileHeader)
	if err != nil {
		log.Printf("screenshot upload failed for %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store screenshot",
			},
		})
		return
	}

	if !ctrl.Engine.UpdateOrderFields(c.Request.Context(), orderID, map[string]interface{}{
		"payment_screenshot_key": key,
	}) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_REJECTED",
				"message": "Screenshot stored but order update was not applied",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"payment_screenshot_key": key},
	})
}

// resolveScreenshotURLs fills the computed presigned URL for orders that
// have a stored screenshot key.
func (ctrl *OrderController) resolveScreenshotURLs(orders []models.Order) {
	storage := services.GetScreenshotStorage()
	if storage == nil {
		return
	}
	for i := range orders {
		if orders[i].PaymentScreenshotKey == nil {
			continue
		}
		url, err := storage.GetPresignedURL(*orders[i].PaymentScreenshotKey)
		if err != nil || url == "" {
			continue
		}
		orders[i].PaymentScreenshotURL = &url
	}
}
