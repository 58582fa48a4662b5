package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/birthday-service/internal/models"
)

// RouteRepo reads routes.
type RouteRepo struct {
	DB *sql.DB
}

// NewRouteRepo returns a new RouteRepo.
func NewRouteRepo(db *sql.DB) *RouteRepo {
	return &RouteRepo{DB: db}
}

// ListPaginated returns one page of routes in id order.
func (r *RouteRepo) ListPaginated(ctx context.Context, limit, offset int) ([]models.Route, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name FROM routes ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []models.Route
	for rows.Next() {
		var rt models.Route
		if err := rows.Scan(&rt.ID, &rt.Name); err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	return routes, rows.Err()
}

// Create inserts a route and returns it with its generated id.
func (r *RouteRepo) Create(ctx context.Context, name string) (models.Route, error) {
	var rt models.Route
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO routes (name) VALUES ($1) RETURNING id, name`,
		name,
	).Scan(&rt.ID, &rt.Name)
	return rt, err
}

// Count returns the total number of routes.
func (r *RouteRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM routes").Scan(&n)
	return n, err
}
