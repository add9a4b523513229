package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/internal/sales/service"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orders *service.OrderService
	logger *logger.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *service.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: log,
	}
}

// Create creates a pending order for the authenticated user
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateOrderInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Create(r.Context(), httputil.GetUserID(r.Context()), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, order)
}

// List lists orders with status and date filters
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	dates, err := httputil.ParseDateRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filter := repository.OrderFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: r.URL.Query().Get("status"),
		Start:  dates.Start,
		End:    dates.End,
	}

	orders, total, err := h.orders.List(r.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, orders, httputil.NewMeta(page, total))
}

// Get gets an order by ID
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, order)
}

// Update updates an order's status, carrier or address
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var input service.UpdateOrderInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Update(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, order)
}

// Confirm confirms a pending order
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Confirm(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, order)
}

// Cancel cancels a pending order
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.orders.Cancel(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

type payOrderRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// Pay marks an order paid. The amount must equal the order total.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req payOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.orders.Pay(r.Context(), id, req.Amount)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, order)
}

// StatusHistory lists an order's status changes
func (h *OrderHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	history, err := h.orders.StatusHistory(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, history)
}

// Report aggregates orders over a date range
func (h *OrderHandler) Report(w http.ResponseWriter, r *http.Request) {
	dates, err := httputil.ParseDateRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	start := time.Time{}
	end := time.Now()
	if dates.Start != nil {
		start = *dates.Start
	}
	if dates.End != nil {
		end = *dates.End
	}

	report, err := h.orders.Report(r.Context(), start, end)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, report)
}
