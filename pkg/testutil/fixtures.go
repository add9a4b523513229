package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductFixture represents test product data
type ProductFixture struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	Summary     string
	Price       decimal.Decimal
	CategoryID  *int64
	CreatedAt   time.Time
}

// CategoryFixture represents test category data
type CategoryFixture struct {
	ID      int64
	Name    string
	Summary string
}

// WarehouseFixture represents test warehouse data
type WarehouseFixture struct {
	ID       int64
	Name     string
	Location string
	Capacity int
}

// SupplierFixture represents test supplier data
type SupplierFixture struct {
	ID      int64
	Name    string
	Contact string
	Address string
}

// AccountFixture represents test fund account data
type AccountFixture struct {
	ID             int64
	Name           string
	Type           string
	InitialBalance decimal.Decimal
	Balance        decimal.Decimal
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Product creates a product fixture with defaults
func (f *FixtureFactory) Product(opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()

	title := fmt.Sprintf("Test Product %d", seq)
	product := ProductFixture{
		ID:          int64(seq),
		Title:       title,
		Slug:        strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Description: "Test product description",
		Summary:     "Test product",
		Price:       decimal.NewFromInt(100),
		CreatedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// WithTitle sets the product title and derived slug
func WithTitle(title string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Title = title
		p.Slug = strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	}
}

// WithPrice sets the product price
func WithPrice(price decimal.Decimal) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Price = price
	}
}

// WithCategoryID sets the product category
func WithCategoryID(categoryID int64) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.CategoryID = &categoryID
	}
}

// Category creates a category fixture with defaults
func (f *FixtureFactory) Category(opts ...func(*CategoryFixture)) CategoryFixture {
	seq := f.nextSeq()

	category := CategoryFixture{
		ID:      int64(seq),
		Name:    fmt.Sprintf("Category %d", seq),
		Summary: "Test category",
	}

	for _, opt := range opts {
		opt(&category)
	}

	return category
}

// Warehouse creates a warehouse fixture with defaults
func (f *FixtureFactory) Warehouse(opts ...func(*WarehouseFixture)) WarehouseFixture {
	seq := f.nextSeq()

	warehouse := WarehouseFixture{
		ID:       int64(seq),
		Name:     fmt.Sprintf("Warehouse %d", seq),
		Location: "Building A",
		Capacity: 1000,
	}

	for _, opt := range opts {
		opt(&warehouse)
	}

	return warehouse
}

// WithWarehouseName sets the warehouse name
func WithWarehouseName(name string) func(*WarehouseFixture) {
	return func(w *WarehouseFixture) {
		w.Name = name
	}
}

// WithCapacity sets the warehouse capacity
func WithCapacity(capacity int) func(*WarehouseFixture) {
	return func(w *WarehouseFixture) {
		w.Capacity = capacity
	}
}

// Supplier creates a supplier fixture with defaults
func (f *FixtureFactory) Supplier(opts ...func(*SupplierFixture)) SupplierFixture {
	seq := f.nextSeq()

	supplier := SupplierFixture{
		ID:      int64(seq),
		Name:    fmt.Sprintf("Supplier %d", seq),
		Contact: fmt.Sprintf("supplier%d@example.com", seq),
		Address: "1 Industrial Way",
	}

	for _, opt := range opts {
		opt(&supplier)
	}

	return supplier
}

// Account creates a fund account fixture with defaults
func (f *FixtureFactory) Account(opts ...func(*AccountFixture)) AccountFixture {
	seq := f.nextSeq()

	account := AccountFixture{
		ID:             int64(seq),
		Name:           fmt.Sprintf("Account %d", seq),
		Type:           "cash",
		InitialBalance: decimal.NewFromInt(1000),
		Balance:        decimal.NewFromInt(1000),
	}

	for _, opt := range opts {
		opt(&account)
	}

	return account
}

// WithAccountType sets the account type
func WithAccountType(accountType string) func(*AccountFixture) {
	return func(a *AccountFixture) {
		a.Type = accountType
	}
}

// WithBalance sets both the initial and current balance
func WithBalance(balance decimal.Decimal) func(*AccountFixture) {
	return func(a *AccountFixture) {
		a.InitialBalance = balance
		a.Balance = balance
	}
}
