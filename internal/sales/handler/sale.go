package handler

import (
	"net/http"

	"github.com/wareflow/wareflow-backend/internal/sales/service"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// SaleHandler handles direct sale endpoints
type SaleHandler struct {
	sales  *service.SaleService
	logger *logger.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(sales *service.SaleService, log *logger.Logger) *SaleHandler {
	return &SaleHandler{
		sales:  sales,
		logger: log,
	}
}

// Create records a direct sale for the authenticated user
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateSaleInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	sale, err := h.sales.Create(r.Context(), httputil.GetUserID(r.Context()), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sale)
}

// List lists sales, newest first
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sales, total, err := h.sales.List(r.Context(), page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, sales, httputil.NewMeta(page, total))
}
