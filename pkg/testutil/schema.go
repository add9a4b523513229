package testutil

// Migrations returns the schema statements for integration tests.
// Matches migrations/000001_init.up.sql, with IF NOT EXISTS so tests can
// share a container.
func Migrations() []string {
	return []string{
		// Catalog
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			summary TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL UNIQUE,
			photo TEXT,
			description TEXT,
			summary TEXT,
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			category_id BIGINT REFERENCES categories(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Warehousing
		`CREATE TABLE IF NOT EXISTS warehouses (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			location VARCHAR(255),
			capacity INT NOT NULL DEFAULT 1 CHECK (capacity >= 1),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS suppliers (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			contact VARCHAR(255),
			address TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS shipping_carriers (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(50),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Inventory ledger
		`CREATE TABLE IF NOT EXISTS imports (
			id BIGSERIAL PRIMARY KEY,
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			supplier_id BIGINT NOT NULL REFERENCES suppliers(id),
			total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS import_details (
			id BIGSERIAL PRIMARY KEY,
			import_id BIGINT NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (unit_price >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS exports (
			id BIGSERIAL PRIMARY KEY,
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			reference VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS export_details (
			id BIGSERIAL PRIMARY KEY,
			export_id BIGINT NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INT NOT NULL CHECK (quantity > 0)
		)`,

		`CREATE TABLE IF NOT EXISTS transfers (
			id BIGSERIAL PRIMARY KEY,
			from_warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			to_warehouse_id BIGINT REFERENCES warehouses(id),
			type VARCHAR(20) NOT NULL CHECK (type IN ('internal', 'repair', 'discard')),
			reason TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS transfer_details (
			id BIGSERIAL PRIMARY KEY,
			transfer_id BIGINT NOT NULL REFERENCES transfers(id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INT NOT NULL CHECK (quantity > 0)
		)`,

		`CREATE TABLE IF NOT EXISTS inventory_checks (
			id BIGSERIAL PRIMARY KEY,
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS inventory_check_details (
			id BIGSERIAL PRIMARY KEY,
			check_id BIGINT NOT NULL REFERENCES inventory_checks(id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL REFERENCES products(id),
			actual_quantity INT NOT NULL CHECK (actual_quantity >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS stock (
			product_id BIGINT NOT NULL REFERENCES products(id),
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (product_id, warehouse_id)
		)`,

		// Sales
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			shipping_carrier_id BIGINT REFERENCES shipping_carriers(id),
			shipping_address TEXT,
			total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS order_details (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS order_status_history (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sales (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			shipping_carrier_id BIGINT REFERENCES shipping_carriers(id),
			total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			sale_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sale_details (
			id BIGSERIAL PRIMARY KEY,
			sale_id BIGINT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS debts (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			user_id VARCHAR(255) NOT NULL,
			remaining_amount NUMERIC(12,2) NOT NULL CHECK (remaining_amount >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS debt_payments (
			id BIGSERIAL PRIMARY KEY,
			debt_id BIGINT NOT NULL REFERENCES debts(id) ON DELETE CASCADE,
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Cash fund
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(10) NOT NULL CHECK (type IN ('cash', 'bank')),
			initial_balance NUMERIC(12,2) NOT NULL DEFAULT 0,
			balance NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS revenue_types (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(10) NOT NULL CHECK (category IN ('revenue', 'expense')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS receipts (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			type VARCHAR(10) NOT NULL CHECK (type IN ('receipt', 'payment')),
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			revenue_type_id BIGINT REFERENCES revenue_types(id),
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Warranty
		`CREATE TABLE IF NOT EXISTS warranty_requests (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			customer_id VARCHAR(255) NOT NULL,
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			issue_description TEXT,
			received_date DATE NOT NULL,
			sent_date DATE,
			returned_date DATE,
			resolution TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS warranty_inventory (
			product_id BIGINT NOT NULL REFERENCES products(id),
			warehouse_id BIGINT NOT NULL REFERENCES warehouses(id),
			quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			warranty_status VARCHAR(50) NOT NULL DEFAULT 'received',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (product_id, warehouse_id)
		)`,
	}
}
