package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonvc/ledgersync/internal/ledger"
)

var suggestSide string

var suggestCmd = &cobra.Command{
	Use:   "suggest <account>",
	Short: "Suggest counter-accounts for a posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		side, err := ledger.ParseSide(suggestSide)
		if err != nil {
			return err
		}
		s, err := apiClient().Suggest(context.Background(), args[0], side)
		if err != nil {
			return err
		}

		permitted := make([]string, len(s.Permitted))
		for i, c := range s.Permitted {
			permitted[i] = string(c)
		}
		fmt.Printf("%s %s (%s): %s side may use %s\n\n",
			strings.ToUpper(string(s.Side)), s.Account, s.Category, s.Opposite, strings.Join(permitted, ", "))

		for _, g := range s.Groups {
			fmt.Println(headerStyle.Render(g.Label))
			if len(g.Accounts) == 0 {
				fmt.Println("  (none)")
			}
			for _, a := range g.Accounts {
				fmt.Printf("  %-6s %-30s %-10s %3d\n", a.Code, truncate(a.Name, 30), a.Category, a.Score)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestSide, "side", "debit", "Side the account is posted on (debit or credit)")
	rootCmd.AddCommand(suggestCmd)
}
