package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"bitbucket.org/mmdatafocus/warehouse_backend/models"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
	"bitbucket.org/mmdatafocus/warehouse_backend/workflow"
)

var tracer = otel.Tracer("warehouse-backend")

// respondError maps workflow errors onto HTTP statuses. Validation problems
// are the caller's fault, missing records are 404, everything else is 500.
func respondError(c *gin.Context, err error) {
	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryWarehouseId(c *gin.Context) (*int, bool) {
	raw := c.Query("warehouse_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid warehouse_id"})
		return nil, false
	}
	return &id, true
}

/* documents */

func createDocumentHandler(c *gin.Context) {
	var input models.NewDocument
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	document, err := workflow.CreateDocumentWithInventory(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, document)
}

func listDocumentsHandler(c *gin.Context) {
	var filter models.DocumentFilter
	if raw := c.Query("type"); raw != "" {
		docType := models.DocumentType(raw)
		if !docType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
			return
		}
		filter.Type = &docType
	}
	if raw := c.Query("status"); raw != "" {
		status := models.DocumentStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	warehouseId, ok := queryWarehouseId(c)
	if !ok {
		return
	}
	filter.WarehouseId = warehouseId

	documents, err := models.GetDocumentsAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, documents)
}

func getDocumentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	document, err := models.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func updateDocumentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewDocument
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	document, err := workflow.UpdateDocumentWithInventory(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func deleteDocumentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := workflow.DeleteDocumentWithInventory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func postDocumentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	document, err := workflow.PostDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func unpostDocumentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	document, err := workflow.UnpostDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func toggleDocumentStatusHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	document, err := workflow.ToggleDocumentStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func documentStatusStatsHandler(c *gin.Context) {
	stats, err := workflow.GetDocumentStatusStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

/* inventory */

func inventoryHandler(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "inventory.summary")
	defer span.End()

	warehouseId, ok := queryWarehouseId(c)
	if !ok {
		return
	}
	items, err := models.GetInventory(ctx, warehouseId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func inventoryAvailabilityHandler(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "inventory.availability")
	defer span.End()

	warehouseId, ok := queryWarehouseId(c)
	if !ok {
		return
	}
	items, err := models.GetInventoryAvailability(ctx, warehouseId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

/* orders */

func createOrderHandler(c *gin.Context) {
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := workflow.ProcessOrderWithReserves(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func listOrdersHandler(c *gin.Context) {
	var filter models.OrderFilter
	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	warehouseId, ok := queryWarehouseId(c)
	if !ok {
		return
	}
	filter.WarehouseId = warehouseId

	orders, err := models.GetOrdersAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func getOrderHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	order, err := models.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func deleteOrderHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := workflow.DeleteOrderWithReserves(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func createOrderReservesHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := workflow.CreateReservesForOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func updateOrderReservationHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input struct {
		IsReserved *bool `json:"is_reserved" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := workflow.UpdateOrderReservation(c.Request.Context(), id, *input.IsReserved); err != nil {
		respondError(c, err)
		return
	}
	order, err := models.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func removeOrderReservesHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := workflow.RemoveReservesForOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* shipments */

func createShipmentHandler(c *gin.Context) {
	orderId, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewShipment
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.OrderId = orderId
	shipment, err := workflow.CreateShipment(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shipment)
}

func listOrderShipmentsHandler(c *gin.Context) {
	orderId, ok := pathId(c)
	if !ok {
		return
	}
	shipments, err := models.GetShipmentsForOrder(c.Request.Context(), orderId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipments)
}

func getShipmentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	shipment, err := models.GetShipment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipment)
}

func updateShipmentStatusHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shipment, err := workflow.UpdateShipmentStatus(c.Request.Context(), id, models.ShipmentStatus(input.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipment)
}

func deleteShipmentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := workflow.DeleteShipment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
