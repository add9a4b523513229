package handler

import (
	"net/http"

	"github.com/wareflow/wareflow-backend/internal/inventory/repository"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// WarehouseHandler handles warehouse and supplier endpoints
type WarehouseHandler struct {
	warehouses *repository.WarehouseRepository
	suppliers  *repository.SupplierRepository
	logger     *logger.Logger
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(
	warehouses *repository.WarehouseRepository,
	suppliers *repository.SupplierRepository,
	log *logger.Logger,
) *WarehouseHandler {
	return &WarehouseHandler{
		warehouses: warehouses,
		suppliers:  suppliers,
		logger:     log,
	}
}

type createWarehouseRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=500"`
	Capacity int     `json:"capacity" validate:"required,gt=0"`
}

// CreateWarehouse creates a new warehouse
func (h *WarehouseHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	warehouse := &repository.Warehouse{
		Name:     req.Name,
		Location: req.Location,
		Capacity: req.Capacity,
	}
	if err := h.warehouses.Create(r.Context(), warehouse); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, warehouse)
}

// ListWarehouses lists all warehouses
func (h *WarehouseHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.warehouses.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, warehouses)
}

// GetWarehouse gets a warehouse by ID
func (h *WarehouseHandler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	warehouse, err := h.warehouses.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, warehouse)
}

type createSupplierRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Contact *string `json:"contact,omitempty" validate:"omitempty,max=255"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// CreateSupplier creates a new supplier
func (h *WarehouseHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req createSupplierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	supplier := &repository.Supplier{
		Name:    req.Name,
		Contact: req.Contact,
		Address: req.Address,
	}
	if err := h.suppliers.Create(r.Context(), supplier); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, supplier)
}

// ListSuppliers lists all suppliers
func (h *WarehouseHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, suppliers)
}

// GetSupplier gets a supplier by ID
func (h *WarehouseHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	supplier, err := h.suppliers.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, supplier)
}
