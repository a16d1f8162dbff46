package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appsync "github.com/VrajaTechnologies/vraja-woocommerce/internal/application/sync"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
)

// AdminHandler exposes the operator-triggered sync operations. Runs
// started here use the interactive trigger, which admits failed lines
// back into processing.
type AdminHandler struct {
	instances       store.InstanceRepository
	engine          *appsync.Engine
	orders          *appsync.OrderImportService
	customers       *appsync.CustomerImportService
	products        *appsync.ProductImportService
	productExport   *appsync.ProductExportService
	inventoryExport *appsync.InventoryExportService
	categoryExport  *appsync.CategoryExportService
	referenceData   *appsync.ReferenceDataService
	clients         appsync.ClientFactory
	logger          *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	instances store.InstanceRepository,
	engine *appsync.Engine,
	orders *appsync.OrderImportService,
	customers *appsync.CustomerImportService,
	products *appsync.ProductImportService,
	productExport *appsync.ProductExportService,
	inventoryExport *appsync.InventoryExportService,
	categoryExport *appsync.CategoryExportService,
	referenceData *appsync.ReferenceDataService,
	clients appsync.ClientFactory,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		instances:       instances,
		engine:          engine,
		orders:          orders,
		customers:       customers,
		products:        products,
		productExport:   productExport,
		inventoryExport: inventoryExport,
		categoryExport:  categoryExport,
		referenceData:   referenceData,
		clients:         clients,
		logger:          logger.Named("admin-handler"),
	}
}

// RegisterRoutes mounts the operator routes
func (h *AdminHandler) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/admin/instances/:id")
	group.POST("/orders/import", h.importOrders)
	group.POST("/customers/import", h.importCustomers)
	group.POST("/products/import", h.importProducts)
	group.POST("/products/export", h.exportProducts)
	group.POST("/categories/export", h.exportCategories)
	group.POST("/inventory/export", h.exportInventory)
	group.POST("/queues/:kind/process", h.processQueues)
	group.POST("/orders/:number/refund", h.refundOrder)
}

func (h *AdminHandler) instance(c *gin.Context) (*store.Instance, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instance id"})
		return nil, false
	}
	instance, err := h.instances.FindByID(c.Request.Context(), id)
	if errors.Is(err, shared.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return instance, true
}

func (h *AdminHandler) run(c *gin.Context, name string, fn func(*store.Instance) error) {
	instance, ok := h.instance(c)
	if !ok {
		return
	}
	if err := fn(instance); err != nil {
		h.logger.Error("operator run failed",
			zap.String("operation", name), zap.String("instance", instance.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) importOrders(c *gin.Context) {
	h.run(c, "order import", func(instance *store.Instance) error {
		if err := h.orders.ImportOrders(c.Request.Context(), instance, queue.TriggerInteractive); err != nil {
			return err
		}
		return h.orders.ImportCancelled(c.Request.Context(), instance, queue.TriggerInteractive)
	})
}

func (h *AdminHandler) importCustomers(c *gin.Context) {
	h.run(c, "customer import", func(instance *store.Instance) error {
		return h.customers.ImportAll(c.Request.Context(), instance, h.clients(instance), queue.TriggerInteractive)
	})
}

func (h *AdminHandler) importProducts(c *gin.Context) {
	h.run(c, "product import", func(instance *store.Instance) error {
		return h.products.ImportAll(c.Request.Context(), instance, queue.TriggerInteractive)
	})
}

func (h *AdminHandler) exportProducts(c *gin.Context) {
	h.run(c, "product export", func(instance *store.Instance) error {
		return h.productExport.ExportAll(c.Request.Context(), instance)
	})
}

func (h *AdminHandler) exportCategories(c *gin.Context) {
	h.run(c, "category export", func(instance *store.Instance) error {
		return h.categoryExport.ExportAll(c.Request.Context(), instance)
	})
}

func (h *AdminHandler) exportInventory(c *gin.Context) {
	h.run(c, "inventory export", func(instance *store.Instance) error {
		return h.inventoryExport.ExportAll(c.Request.Context(), instance)
	})
}

// processQueues drains the pending queues of one kind with the
// interactive line-selection rule
func (h *AdminHandler) processQueues(c *gin.Context) {
	kind := queue.Kind(c.Param("kind"))
	if !kind.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid queue kind"})
		return
	}
	h.run(c, "queue processing", func(instance *store.Instance) error {
		ctx := c.Request.Context()
		switch kind {
		case queue.KindOrder:
			return h.engine.ProcessPending(ctx, instance, kind, queue.TriggerInteractive,
				queue.OperationOrder, queue.OperationTypeImport, h.orders.ResolveLine)
		case queue.KindCustomer:
			return h.engine.ProcessPending(ctx, instance, kind, queue.TriggerInteractive,
				queue.OperationCustomer, queue.OperationTypeImport, h.customers.ResolveLine)
		case queue.KindProduct:
			return h.engine.ProcessPending(ctx, instance, kind, queue.TriggerInteractive,
				queue.OperationProduct, queue.OperationTypeImport, h.products.ResolveLine)
		default:
			return h.engine.ProcessPending(ctx, instance, kind, queue.TriggerInteractive,
				queue.OperationInventory, queue.OperationTypeUpdate, h.inventoryExport.ResolveLine)
		}
	})
}

// RefundRequest is the body of a refund push
type RefundRequest struct {
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) refundOrder(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refund amount"})
		return
	}
	number := c.Param("number")
	h.run(c, "refund", func(instance *store.Instance) error {
		return h.referenceData.PushRefund(c.Request.Context(), instance, number, amount, req.Reason)
	})
}
