package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/internal/catalog/repository"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	products   *repository.ProductRepository
	categories *repository.CategoryRepository
	logger     *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(
	products *repository.ProductRepository,
	categories *repository.CategoryRepository,
	log *logger.Logger,
) *ProductHandler {
	return &ProductHandler{
		products:   products,
		categories: categories,
		logger:     log,
	}
}

type productRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Photo       *string         `json:"photo,omitempty"`
	Description *string         `json:"description,omitempty"`
	Summary     *string         `json:"summary,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	CategoryID  *int64          `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

func (h *ProductHandler) checkCategory(r *http.Request, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	exists, err := h.categories.Exists(r.Context(), *categoryID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("category")
	}
	return nil
}

// Create creates a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}
	if req.Price.IsNegative() {
		httputil.Error(w, errors.BadRequest("price must not be negative"))
		return
	}
	if err := h.checkCategory(r, req.CategoryID); err != nil {
		httputil.Error(w, err)
		return
	}

	product := &repository.Product{
		Title:       req.Title,
		Photo:       req.Photo,
		Description: req.Description,
		Summary:     req.Summary,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	}
	if err := h.products.Create(r.Context(), product); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// List lists products with optional category and title filters
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	categoryID, err := httputil.QueryInt64(r, "category_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filter := repository.ProductFilter{
		CategoryID: categoryID,
		Search:     r.URL.Query().Get("search"),
	}

	products, total, err := h.products.List(r.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, httputil.NewMeta(page, total))
}

// Get gets a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, product)
}

// Update updates a product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}
	if req.Price.IsNegative() {
		httputil.Error(w, errors.BadRequest("price must not be negative"))
		return
	}
	if err := h.checkCategory(r, req.CategoryID); err != nil {
		httputil.Error(w, err)
		return
	}

	product := &repository.Product{
		ID:          id,
		Title:       req.Title,
		Photo:       req.Photo,
		Description: req.Description,
		Summary:     req.Summary,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	}
	if err := h.products.Update(r.Context(), product); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Delete deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.URLParamInt64(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
