package sendtx

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/synnq/sendtx/internal/config"
	"github.com/synnq/sendtx/internal/utils"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List validator nodes and mark the one matching --base-url",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		cfg := config.SendConfig{
			BaseURL:  config.NormalizeBaseURL(viper.GetString("base-url")),
			NodesURL: viper.GetString("nodes-url"),
		}
		nodes, err := c.ListNodes(cmd.Context(), cfg.EffectiveNodesURL())
		if err != nil {
			return err
		}

		self, err := utils.HostPort(cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base url: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tADDRESS")
		for _, n := range nodes {
			mark := ""
			if utils.NormalizeAddress(n.Address) == self {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", mark, n.ID, n.Address)
		}
		return w.Flush()
	},
}
