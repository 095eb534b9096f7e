package moderation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salut-annecy/backend/internal/models"
)

// Repository handles claim and report persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a moderation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const claimColumns = `id, place_id, organization_id, profile_id, COALESCE(message,''), status, resolved_at, created_at`

func scanClaim(row interface{ Scan(...any) error }) (*models.Claim, error) {
	var cl models.Claim
	err := row.Scan(&cl.ID, &cl.PlaceID, &cl.OrganizationID, &cl.ProfileID, &cl.Message, &cl.Status, &cl.ResolvedAt, &cl.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

const reportColumns = `id, target_type, target_id, reporter_id, reason, status, resolved_at, created_at`

func scanReport(row interface{ Scan(...any) error }) (*models.Report, error) {
	var rep models.Report
	err := row.Scan(&rep.ID, &rep.TargetType, &rep.TargetID, &rep.ReporterID, &rep.Reason, &rep.Status, &rep.ResolvedAt, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// CreateClaim records a pending ownership claim on a place.
func (r *Repository) CreateClaim(ctx context.Context, cl *models.Claim) (*models.Claim, error) {
	const q = `INSERT INTO claims (place_id, organization_id, profile_id, message, status)
		VALUES ($1, $2, $3, NULLIF($4,''), 'pending')
		RETURNING ` + claimColumns
	return scanClaim(r.pool.QueryRow(ctx, q, cl.PlaceID, cl.OrganizationID, cl.ProfileID, cl.Message))
}

// GetClaim returns a claim by ID.
func (r *Repository) GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	return scanClaim(r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id))
}

// ListClaims returns claims, optionally filtered by status, oldest first.
func (r *Repository) ListClaims(ctx context.Context, status string) ([]*models.Claim, error) {
	const q = `SELECT ` + claimColumns + ` FROM claims
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Claim
	for rows.Next() {
		cl, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, cl)
	}
	return list, rows.Err()
}

// ResolveClaim sets a claim's terminal status and resolution time.
func (r *Repository) ResolveClaim(ctx context.Context, id uuid.UUID, status string) (*models.Claim, error) {
	const q = `UPDATE claims SET status = $2, resolved_at = NOW() WHERE id = $1 RETURNING ` + claimColumns
	return scanClaim(r.pool.QueryRow(ctx, q, id, status))
}

// CreateReport records a content report.
func (r *Repository) CreateReport(ctx context.Context, rep *models.Report) (*models.Report, error) {
	const q = `INSERT INTO reports (target_type, target_id, reporter_id, reason, status)
		VALUES ($1, $2, $3, $4, 'open')
		RETURNING ` + reportColumns
	return scanReport(r.pool.QueryRow(ctx, q, rep.TargetType, rep.TargetID, rep.ReporterID, rep.Reason))
}

// ListReports returns reports, optionally filtered by status, oldest first.
func (r *Repository) ListReports(ctx context.Context, status string) ([]*models.Report, error) {
	const q = `SELECT ` + reportColumns + ` FROM reports
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rep)
	}
	return list, rows.Err()
}

// ResolveReport marks a report resolved.
func (r *Repository) ResolveReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	const q = `UPDATE reports SET status = 'resolved', resolved_at = NOW() WHERE id = $1 RETURNING ` + reportColumns
	return scanReport(r.pool.QueryRow(ctx, q, id))
}
