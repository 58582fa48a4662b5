package token

import (
	"fmt"
	"os"
	"time"

	"github.com/crucial707/birthday-service/cmd/cli/config"
	"github.com/crucial707/birthday-service/cmd/cli/root"
	"github.com/crucial707/birthday-service/internal/middleware"
	"github.com/spf13/cobra"
)

func init() {
	root.GetRoot().AddCommand(tokenCmd())
}

func tokenCmd() *cobra.Command {
	var operator string
	var ttl time.Duration
	var save bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the /v1 API",
		Long: `Sign an operator JWT with the shared JWT_SECRET of the service.
With --save the token is stored in ~/.bdayctl_token and used by later commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := config.JWTSecret()
			if secret == "" {
				return fmt.Errorf("JWT_SECRET (or BDAY_JWT_SECRET) is required")
			}
			if operator == "" {
				operator = os.Getenv("USER")
			}
			if operator == "" {
				return fmt.Errorf("--operator is required")
			}

			tok, err := middleware.NewOperatorToken([]byte(secret), operator, ttl)
			if err != nil {
				return err
			}
			if save {
				if err := config.SaveToken(tok); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Token stored locally.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&operator, "operator", "o", "", "Operator name (default $USER)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "Save the token instead of printing it")
	return cmd
}
