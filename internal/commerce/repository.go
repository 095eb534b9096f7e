package commerce

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles commerce persistence: products, services, orders and
// bookings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a commerce repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, organization_id, name, COALESCE(description,''), price_cents, currency, stock, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const serviceColumns = `id, organization_id, name, COALESCE(description,''), price_cents, currency, duration_minutes, created_at, updated_at`

func scanService(row interface{ Scan(...any) error }) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description, &s.PriceCents, &s.Currency, &s.DurationMinutes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const orderColumns = `id, product_id, profile_id, quantity, total_cents, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.ProductID, &o.ProfileID, &o.Quantity, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const bookingColumns = `id, service_id, profile_id, starts_at, confirmation_code, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.ServiceID, &b.ProfileID, &b.StartsAt, &b.ConfirmationCode, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateProduct inserts a product for an organization.
func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	const q = `INSERT INTO products (organization_id, name, description, price_cents, currency, stock)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6)
		RETURNING ` + productColumns
	return scanProduct(r.pool.QueryRow(ctx, q, p.OrganizationID, p.Name, p.Description, p.PriceCents, p.Currency, p.Stock))
}

// GetProduct returns a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// ListProducts returns an organization's products.
func (r *Repository) ListProducts(ctx context.Context, orgID uuid.UUID) ([]*models.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE organization_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateProduct applies a partial update: nil fields keep their stored value.
func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, name, description *string, priceCents, stock *int) (*models.Product, error) {
	const q = `UPDATE products SET
		name        = COALESCE($2, name),
		description = COALESCE($3, description),
		price_cents = COALESCE($4, price_cents),
		stock       = COALESCE($5, stock),
		updated_at  = NOW()
		WHERE id = $1
		RETURNING ` + productColumns
	return scanProduct(r.pool.QueryRow(ctx, q, id, name, description, priceCents, stock))
}

// DeleteProduct removes a product.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

// CreateService inserts a bookable service for an organization.
func (r *Repository) CreateService(ctx context.Context, s *models.Service) (*models.Service, error) {
	const q = `INSERT INTO services (organization_id, name, description, price_cents, currency, duration_minutes)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6)
		RETURNING ` + serviceColumns
	return scanService(r.pool.QueryRow(ctx, q, s.OrganizationID, s.Name, s.Description, s.PriceCents, s.Currency, s.DurationMinutes))
}

// GetService returns a service by ID.
func (r *Repository) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return scanService(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
}

// ListServices returns an organization's services.
func (r *Repository) ListServices(ctx context.Context, orgID uuid.UUID) ([]*models.Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE organization_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateService applies a partial update: nil fields keep their stored value.
func (r *Repository) UpdateService(ctx context.Context, id uuid.UUID, name, description *string, priceCents, durationMinutes *int) (*models.Service, error) {
	const q = `UPDATE services SET
		name             = COALESCE($2, name),
		description      = COALESCE($3, description),
		price_cents      = COALESCE($4, price_cents),
		duration_minutes = COALESCE($5, duration_minutes),
		updated_at       = NOW()
		WHERE id = $1
		RETURNING ` + serviceColumns
	return scanService(r.pool.QueryRow(ctx, q, id, name, description, priceCents, durationMinutes))
}

// DeleteService removes a service.
func (r *Repository) DeleteService(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	return err
}

// CreateOrder records a purchase, decrementing product stock in the same
// transaction. Total is computed server-side from the stored price.
func (r *Repository) CreateOrder(ctx context.Context, productID, profileID uuid.UUID, quantity int) (*models.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var priceCents int
	err = tx.QueryRow(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW()
		 WHERE id = $1 AND stock >= $2
		 RETURNING price_cents`, productID, quantity).Scan(&priceCents)
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO orders (product_id, profile_id, quantity, total_cents, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + orderColumns
	o, err := scanOrder(tx.QueryRow(ctx, q, productID, profileID, quantity, priceCents*quantity))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder returns an order by ID.
func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// ListOrdersForProfile returns a buyer's orders, newest first.
func (r *Repository) ListOrdersForProfile(ctx context.Context, profileID uuid.UUID) ([]*models.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE profile_id = $1 ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// ListOrdersForOrganization returns orders placed against an organization's
// products, newest first.
func (r *Repository) ListOrdersForOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Order, error) {
	const q = `SELECT o.id, o.product_id, o.profile_id, o.quantity, o.total_cents, o.status, o.created_at, o.updated_at
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE p.organization_id = $1
		ORDER BY o.created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// SetOrderStatus updates an order's status.
func (r *Repository) SetOrderStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	const q = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + orderColumns
	return scanOrder(r.pool.QueryRow(ctx, q, id, status))
}

// CreateBooking reserves a service slot with a fresh confirmation code.
func (r *Repository) CreateBooking(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	const q = `INSERT INTO bookings (service_id, profile_id, starts_at, confirmation_code, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + bookingColumns
	return scanBooking(r.pool.QueryRow(ctx, q, b.ServiceID, b.ProfileID, b.StartsAt, b.ConfirmationCode))
}

// GetBooking returns a booking by ID.
func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// ListBookingsForProfile returns a profile's bookings, newest first.
func (r *Repository) ListBookingsForProfile(ctx context.Context, profileID uuid.UUID) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE profile_id = $1 ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// ListBookingsForOrganization returns bookings against an organization's
// services, newest first.
func (r *Repository) ListBookingsForOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Booking, error) {
	const q = `SELECT b.id, b.service_id, b.profile_id, b.starts_at, b.confirmation_code, b.status, b.created_at, b.updated_at
		FROM bookings b
		JOIN services s ON s.id = b.service_id
		WHERE s.organization_id = $1
		ORDER BY b.created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// SetBookingStatus updates a booking's status.
func (r *Repository) SetBookingStatus(ctx context.Context, id uuid.UUID, status string) (*models.Booking, error) {
	const q = `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + bookingColumns
	return scanBooking(r.pool.QueryRow(ctx, q, id, status))
}
