package sendtx

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate and register a new ZKP secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		secret, err := c.GenerateSecret(cmd.Context(), viper.GetString("secret-url"))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)
		return err
	},
}
