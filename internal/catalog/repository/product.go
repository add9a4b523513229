package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// Product represents a sellable product. Quantity is derived from the
// stock projection on reads; products carry no stored counter.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Slug        string          `db:"slug" json:"slug"`
	Photo       *string         `db:"photo" json:"photo,omitempty"`
	Description *string         `db:"description" json:"description,omitempty"`
	Summary     *string         `db:"summary" json:"summary,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CategoryID  *int64          `db:"category_id" json:"category_id,omitempty"`
	Quantity    int             `db:"quantity" json:"quantity"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ProductFilter narrows product listings
type ProductFilter struct {
	CategoryID int64
	Search     string
}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Slugify derives a URL slug from a product title
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// placeholder returns the positional bind parameter for argument n
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

const productColumns = `
	p.id, p.title, p.slug, p.photo, p.description, p.summary, p.price,
	p.category_id, p.created_at, p.updated_at,
	COALESCE((SELECT SUM(s.quantity) FROM stock s WHERE s.product_id = p.id), 0) AS quantity
`

// Create creates a new product. A title that slugs to an existing slug
// is rejected as a conflict.
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	product.Slug = Slugify(product.Title)

	query := `
		INSERT INTO products (title, slug, photo, description, summary, price, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		product.Title, product.Slug, product.Photo, product.Description,
		product.Summary, product.Price, product.CategoryID,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a product by ID with its derived quantity
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var product Product

	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	err := r.db.GetContext(ctx, &product, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}

	return &product, nil
}

// List lists products with optional category and title filters
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*Product, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		where += ` AND p.category_id = ` + placeholder(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += ` AND p.title ILIKE ` + placeholder(len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products p`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + productColumns + ` FROM products p` + where +
		` ORDER BY p.title LIMIT ` + placeholder(len(args)-1) + ` OFFSET ` + placeholder(len(args))

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Update updates a product. The slug follows the title.
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	product.Slug = Slugify(product.Title)

	query := `
		UPDATE products
		SET title = $2, slug = $3, photo = $4, description = $5, summary = $6,
		    price = $7, category_id = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		product.ID, product.Title, product.Slug, product.Photo,
		product.Description, product.Summary, product.Price, product.CategoryID,
	).Scan(&product.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("product")
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// Delete deletes a product. Products referenced by movements or orders
// are protected by foreign keys and surface as a bad request.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// Exists reports whether a product with the given ID exists
func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
