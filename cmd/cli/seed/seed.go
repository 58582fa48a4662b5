package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/crucial707/birthday-service/cmd/cli/config"
	"github.com/crucial707/birthday-service/cmd/cli/root"
	"github.com/crucial707/birthday-service/internal/db"
	"github.com/crucial707/birthday-service/internal/mongostore"
	dataseed "github.com/crucial707/birthday-service/internal/seed"
	"github.com/spf13/cobra"
)

func init() {
	root.GetRoot().AddCommand(seedCmd())
}

type writerCloser interface {
	dataseed.Writer
	io.Closer
}

func openWriter(ctx context.Context, storeURL, dbName string, migrate bool) (writerCloser, error) {
	switch {
	case strings.HasPrefix(storeURL, "mongodb://"), strings.HasPrefix(storeURL, "mongodb+srv://"):
		store, err := mongostore.Open(ctx, storeURL, dbName)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(storeURL, "postgres://"), strings.HasPrefix(storeURL, "postgresql://"):
		if migrate {
			if err := db.Run(storeURL); err != nil {
				return nil, err
			}
		}
		conn, err := db.Connect(ctx, storeURL, 2, 2)
		if err != nil {
			return nil, err
		}
		return db.NewPostgresStore(conn), nil
	}
	return nil, fmt.Errorf("unsupported store url %q", storeURL)
}

func seedCmd() *cobra.Command {
	var routes, users int
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a store with sample routes and users",
		Long: `Create route1..routeN, each with sample users whose birthdays spread over the year.
Writes directly to STORE_URL (MongoDB or Postgres), not through the service.

Example:
  STORE_URL=mongodb://localhost:27017 bdayctl seed --routes 100 --users 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeURL := config.StoreURL()
			if storeURL == "" {
				return fmt.Errorf("STORE_URL is required")
			}
			w, err := openWriter(cmd.Context(), storeURL, config.DBName(), migrate)
			if err != nil {
				return err
			}
			defer w.Close()

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			res, err := dataseed.Run(cmd.Context(), w, routes, users, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d routes and %d users.\n", res.Routes, res.Users)
			return nil
		},
	}
	cmd.Flags().IntVar(&routes, "routes", 100, "Number of routes")
	cmd.Flags().IntVar(&users, "users", 100, "Users per route")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply Postgres migrations first")
	return cmd
}
