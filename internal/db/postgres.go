package db

import (
	"context"
	"database/sql"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/crucial707/birthday-service/internal/models"
	"github.com/crucial707/birthday-service/internal/repo"
)

// PostgresConnector opens a new pool for every run and hands it out as a birthday.Store.
type PostgresConnector struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int

	// open is replaced in tests.
	open func(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error)
}

// Connect implements birthday.Connector.
func (c *PostgresConnector) Connect(ctx context.Context) (birthday.Store, error) {
	open := c.open
	if open == nil {
		open = Connect
	}
	conn, err := open(ctx, c.DSN, c.MaxOpenConns, c.MaxIdleConns)
	if err != nil {
		return nil, err
	}
	return NewPostgresStore(conn), nil
}

// PostgresStore serves scanner pages from the routes and users tables.
type PostgresStore struct {
	db     *sql.DB
	routes *repo.RouteRepo
	users  *repo.UserRepo
}

// NewPostgresStore wraps an open pool. Close closes the pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		routes: repo.NewRouteRepo(db),
		users:  repo.NewUserRepo(db),
	}
}

func (s *PostgresStore) ListRoutes(ctx context.Context, limit, offset int) ([]models.Route, error) {
	return s.routes.ListPaginated(ctx, limit, offset)
}

func (s *PostgresStore) ListUsersByRoute(ctx context.Context, routeID string, limit, offset int) ([]models.User, error) {
	return s.users.ListByRoutePaginated(ctx, routeID, limit, offset)
}

func (s *PostgresStore) CreateRoute(ctx context.Context, name string) (string, error) {
	rt, err := s.routes.Create(ctx, name)
	return rt.ID, err
}

func (s *PostgresStore) CreateUsers(ctx context.Context, routeID string, users []models.User) error {
	for i := range users {
		users[i].RouteID = routeID
	}
	return s.users.CreateBatch(ctx, users)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
