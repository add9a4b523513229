package handler

import (
	"net/http"

	"github.com/wareflow/wareflow-backend/internal/catalog/repository"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	categories *repository.CategoryRepository
	logger     *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *repository.CategoryRepository, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		logger:     log,
	}
}

type categoryRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Summary *string `json:"summary,omitempty"`
}

// Create creates a new category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	category := &repository.Category{
		Name:    req.Name,
		Summary: req.Summary,
	}
	if err := h.categories.Create(r.Context(), category); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, category)
}

// List lists all categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, categories)
}

// Update updates a category
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req categoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	category := &repository.Category{
		ID:      id,
		Name:    req.Name,
		Summary: req.Summary,
	}
	if err := h.categories.Update(r.Context(), category); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, category)
}
