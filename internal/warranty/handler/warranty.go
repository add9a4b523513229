package handler

import (
	"net/http"
	"time"

	"github.com/wareflow/wareflow-backend/internal/warranty/repository"
	"github.com/wareflow/wareflow-backend/internal/warranty/service"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// WarrantyHandler handles warranty endpoints
type WarrantyHandler struct {
	warranty *service.WarrantyService
	logger   *logger.Logger
}

// NewWarrantyHandler creates a new warranty handler
func NewWarrantyHandler(warranty *service.WarrantyService, log *logger.Logger) *WarrantyHandler {
	return &WarrantyHandler{
		warranty: warranty,
		logger:   log,
	}
}

type receiveRequestBody struct {
	ProductID        int64   `json:"product_id" validate:"required,gt=0"`
	CustomerID       string  `json:"customer_id" validate:"required,max=255"`
	WarehouseID      int64   `json:"warehouse_id" validate:"required,gt=0"`
	IssueDescription *string `json:"issue_description,omitempty" validate:"omitempty,max=2000"`
	ReceivedDate     string  `json:"received_date" validate:"required,datetime=2006-01-02"`
}

// ReceiveRequest records a warranty request
func (h *WarrantyHandler) ReceiveRequest(w http.ResponseWriter, r *http.Request) {
	var body receiveRequestBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(body); err != nil {
		httputil.Error(w, err)
		return
	}

	receivedDate, err := time.Parse(httputil.DateLayout, body.ReceivedDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("received_date must be in YYYY-MM-DD format"))
		return
	}

	request, err := h.warranty.Receive(r.Context(), service.ReceiveRequestInput{
		ProductID:        body.ProductID,
		CustomerID:       body.CustomerID,
		WarehouseID:      body.WarehouseID,
		IssueDescription: body.IssueDescription,
		ReceivedDate:     receivedDate,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, request)
}

// ListRequests lists warranty requests with warehouse and date filters
func (h *WarrantyHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	warehouseID, err := httputil.QueryInt64(r, "warehouse_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	dates, err := httputil.ParseDateRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filter := repository.RequestFilter{
		WarehouseID: warehouseID,
		Start:       dates.Start,
		End:         dates.End,
	}

	requests, total, err := h.warranty.ListRequests(r.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, requests, httputil.NewMeta(page, total))
}

// AddInventory adds defective units to the warranty inventory
func (h *WarrantyHandler) AddInventory(w http.ResponseWriter, r *http.Request) {
	var input service.AddInventoryInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.warranty.AddInventory(r.Context(), input); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "warranty inventory updated",
		"product_id": input.ProductID,
	})
}

// ListInventory lists warranty inventory rows
func (h *WarrantyHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	warehouseID, err := httputil.QueryInt64(r, "warehouse_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rows, total, err := h.warranty.ListInventory(r.Context(), warehouseID, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, rows, httputil.NewMeta(page, total))
}
