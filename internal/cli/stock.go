package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "List stock items with the stock summary",
	Args:  cobra.NoArgs,
	RunE:  runStock,
}

var stockCategorie string

func init() {
	stockCmd.Flags().StringVarP(&stockCategorie, "categorie", "c", "", "Only items of this category")
}

func runStock(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	items, err := e.stock.List(cmd.Context(), stockCategorie)
	if err != nil {
		return err
	}
	summary, err := e.stats.StockStats(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOM\tQUANTITE\tSEUIL")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%.2f %s\t%.2f\n", item.ID, item.Nom, item.Quantite, item.Unite, item.SeuilAlerte)
	}
	fmt.Fprintf(w, "TOTAL\t%d articles, %d en alerte\t%.2f\t\n",
		summary.TotalArticles, summary.ArticlesEnAlerte, summary.ValeurTotale)
	return w.Flush()
}
