// Package notify delivers birthday greetings to users.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crucial707/birthday-service/internal/models"
)

// Message is the greeting text sent to a user on their birthday.
func Message(routeName string, u models.User) string {
	return fmt.Sprintf("Happy birthday, %s! Best wishes from %s.", u.FirstName, routeName)
}

// LogDispatcher only logs the greeting it would send. Used when no SMS gateway is configured.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d *LogDispatcher) Send(ctx context.Context, routeName string, u models.User) bool {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, fmt.Sprintf("%s, %s, %s, %t", routeName, u.FullName(), u.CellPhone, true),
		"route", routeName,
		"user_id", u.ID,
		"dry_run", true,
	)
	return true
}
