package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/internal/sales/service"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// DebtHandler handles customer debt endpoints
type DebtHandler struct {
	debts  *service.DebtService
	logger *logger.Logger
}

// NewDebtHandler creates a new debt handler
func NewDebtHandler(debts *service.DebtService, log *logger.Logger) *DebtHandler {
	return &DebtHandler{
		debts:  debts,
		logger: log,
	}
}

// Create records a debt against an order
func (h *DebtHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.RecordDebtInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	debt, err := h.debts.Record(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, debt)
}

// List lists debts with optional user, order and open-only filters
func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	orderID, err := httputil.QueryInt64(r, "order_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filter := repository.DebtFilter{
		UserID:  r.URL.Query().Get("user_id"),
		OrderID: orderID,
		Open:    r.URL.Query().Get("open") == "true",
	}

	debts, total, err := h.debts.List(r.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, debts, httputil.NewMeta(page, total))
}

// Get gets a debt by ID
func (h *DebtHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	debt, err := h.debts.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, debt)
}

type debtPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// Pay records a payment against a debt
func (h *DebtHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req debtPaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	debt, err := h.debts.Pay(r.Context(), id, req.Amount)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, debt)
}

// Payments lists the payments recorded against a debt
func (h *DebtHandler) Payments(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	payments, err := h.debts.Payments(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, payments)
}
