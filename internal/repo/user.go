package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/crucial707/birthday-service/internal/models"
)

// UserRepo reads users of a route.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo returns a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// ListByRoutePaginated returns one page of the users whose route_id equals routeID, in id order.
// Metadata is stored as a JSON array of {id, name, value} objects.
func (r *UserRepo) ListByRoutePaginated(ctx context.Context, routeID string, limit, offset int) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, route_id, email, first_name, last_name, cell_phone, country, metadata
		FROM users
		WHERE route_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, routeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var metadata []byte
		if err := rows.Scan(&u.ID, &u.RouteID, &u.Email, &u.FirstName, &u.LastName, &u.CellPhone, &u.Country, &metadata); err != nil {
			return nil, err
		}
		if u.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, fmt.Errorf("user %s: %w", u.ID, err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateBatch inserts users in one transaction. IDs are generated by the database.
func (r *UserRepo) CreateBatch(ctx context.Context, users []models.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (route_id, email, first_name, last_name, cell_phone, country, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range users {
		metadata, err := encodeMetadata(u.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, u.RouteID, u.Email, u.FirstName, u.LastName, u.CellPhone, u.Country, metadata); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
	}
	return tx.Commit()
}

// metadataRow tolerates non-string values (numbers, nulls) in the JSON column.
type metadataRow struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

func encodeMetadata(entries []models.MetadataEntry) ([]byte, error) {
	rows := make([]metadataRow, 0, len(entries))
	for _, e := range entries {
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		rows = append(rows, metadataRow{ID: e.ID, Name: e.Name, Value: v})
	}
	return json.Marshal(rows)
}

func decodeMetadata(b []byte) ([]models.MetadataEntry, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var rows []metadataRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	out := make([]models.MetadataEntry, 0, len(rows))
	for _, m := range rows {
		entry := models.MetadataEntry{ID: m.ID, Name: m.Name}
		var s string
		if err := json.Unmarshal(m.Value, &s); err == nil {
			entry.Value = s
		} else if len(m.Value) > 0 && string(m.Value) != "null" {
			entry.Value = string(m.Value)
		}
		out = append(out, entry)
	}
	return out, nil
}
