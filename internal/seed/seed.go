// Package seed fills a user store with generated routes and users for local testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/crucial707/birthday-service/internal/models"
)

// Writer is implemented by the Postgres and MongoDB stores.
type Writer interface {
	CreateRoute(ctx context.Context, name string) (string, error)
	CreateUsers(ctx context.Context, routeID string, users []models.User) error
}

// Result counts what Run inserted.
type Result struct {
	Routes int
	Users  int
}

// BirthdayFor is the generated birthday of the i-th user of a route (1-based).
// Days cycle through 1..28, months through February..November, years count up from 1981.
func BirthdayFor(i int) time.Time {
	day := max(1, i%29)
	month := time.Month(max(1, i%11) + 1)
	return time.Date(1980+i, month, day, 0, 0, 0, 0, time.UTC)
}

// Users builds n users for one route.
func Users(routeID string, n int) []models.User {
	users := make([]models.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, models.User{
			RouteID:   routeID,
			Email:     fmt.Sprintf("user%d@gmail.com", i),
			FirstName: fmt.Sprintf("fname%d", i),
			LastName:  fmt.Sprintf("lname%d", i),
			CellPhone: fmt.Sprintf("mobileNumber%d", i),
			Country:   "India",
			Metadata: []models.MetadataEntry{
				{ID: 1, Name: models.MetadataBirthday, Value: birthday.FormatDate(BirthdayFor(i))},
				{ID: 2, Name: "anniversary_date", Value: ""},
			},
		})
	}
	return users
}

// Run creates routes named route1..routeN, each with usersPerRoute users.
func Run(ctx context.Context, w Writer, routes, usersPerRoute int, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result
	logger.InfoContext(ctx, "Creating dummy collections and data", "routes", routes, "users_per_route", usersPerRoute)
	for r := 1; r <= routes; r++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		name := fmt.Sprintf("route%d", r)
		id, err := w.CreateRoute(ctx, name)
		if err != nil {
			return res, fmt.Errorf("create %s: %w", name, err)
		}
		res.Routes++

		users := Users(id, usersPerRoute)
		if err := w.CreateUsers(ctx, id, users); err != nil {
			return res, fmt.Errorf("create users of %s: %w", name, err)
		}
		res.Users += len(users)
	}
	logger.InfoContext(ctx, "Dummy data creation finished", "routes", res.Routes, "users", res.Users)
	return res, nil
}
