package handler

import (
	"net/http"

	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// CarrierHandler handles shipping carrier endpoints
type CarrierHandler struct {
	carriers *repository.CarrierRepository
	logger   *logger.Logger
}

// NewCarrierHandler creates a new carrier handler
func NewCarrierHandler(carriers *repository.CarrierRepository, log *logger.Logger) *CarrierHandler {
	return &CarrierHandler{
		carriers: carriers,
		logger:   log,
	}
}

type carrierRequest struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// Create creates a new shipping carrier
func (h *CarrierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req carrierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	carrier := &repository.ShippingCarrier{
		Name:  req.Name,
		Phone: req.Phone,
	}
	if err := h.carriers.Create(r.Context(), carrier); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, carrier)
}

// List lists all shipping carriers
func (h *CarrierHandler) List(w http.ResponseWriter, r *http.Request) {
	carriers, err := h.carriers.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, carriers)
}
