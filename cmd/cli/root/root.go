package root

import (
	"github.com/crucial707/birthday-service/cmd/cli/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd is the bdayctl entry point. Subcommand packages register themselves in init.
var RootCmd = &cobra.Command{
	Use:   "bdayctl",
	Short: "Birthday service operator CLI",
	Long: `Command line interface for operating the birthday SMS service.

Settings can come from flags or environment variables:
  BDAY_API_URL    service base URL (default http://localhost:3000)
  BDAY_TOKEN      operator bearer token
  JWT_SECRET      shared secret used by "bdayctl token"
  STORE_URL       user store used by "bdayctl seed"`,
	SilenceUsage: true,
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.String("api-url", "", "birthday service base URL")
	pf.String("token", "", "operator bearer token")
	_ = viper.BindPFlag(config.KeyAPIURL, pf.Lookup("api-url"))
	_ = viper.BindPFlag(config.KeyToken, pf.Lookup("token"))
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
