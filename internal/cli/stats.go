package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KruglovEgor/RestoStats/internal/aggregation"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/service"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show order and revenue overview for a period",
	Args:  cobra.NoArgs,
	RunE:  runOverview,
}

var salesCmd = &cobra.Command{
	Use:   "sales",
	Short: "Show sales for a period",
	Args:  cobra.NoArgs,
	RunE:  runSales,
}

var recettesCmd = &cobra.Command{
	Use:   "recettes",
	Short: "Show revenue grouped by day, week or month",
	Long: `Show revenue grouped by the backend and print it as a chart series.

Examples:
  statsctl recettes --date 2024-06-01
  statsctl recettes --from 2024-01-01 --to 2024-06-30 --group-by month`,
	Args: cobra.NoArgs,
	RunE: runRecettes,
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a day with the previous day",
	Args:  cobra.NoArgs,
	RunE:  runCompare,
}

// Flags
var (
	overviewPeriod periodFlags
	salesPeriod    periodFlags
	salesGroupBy   string
	recettesPeriod periodFlags
	recettesGroup  string
	compareDate    string
)

func init() {
	overviewPeriod.register(overviewCmd)

	salesPeriod.register(salesCmd)
	salesCmd.Flags().StringVar(&salesGroupBy, "group-by", "day", "Grouping: day, week, month")

	recettesPeriod.register(recettesCmd)
	recettesCmd.Flags().StringVar(&recettesGroup, "group-by", "", "Grouping: day, week, month (detected from data when empty)")

	compareCmd.Flags().StringVar(&compareDate, "date", "", "Day to compare (YYYY-MM-DD, required)")
	_ = compareCmd.MarkFlagRequired("date")
}

func runOverview(cmd *cobra.Command, args []string) error {
	period, err := overviewPeriod.selection()
	if err != nil {
		return err
	}
	e, err := newEnv()
	if err != nil {
		return err
	}

	overview, err := e.stats.Overview(cmd.Context(), period)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), overview)
}

func runSales(cmd *cobra.Command, args []string) error {
	period, err := salesPeriod.selection()
	if err != nil {
		return err
	}
	g, err := aggregation.ParseGranularity(salesGroupBy)
	if err != nil {
		return err
	}
	e, err := newEnv()
	if err != nil {
		return err
	}

	sales, err := e.stats.Sales(cmd.Context(), period, string(g))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), sales)
}

func runRecettes(cmd *cobra.Command, args []string) error {
	period, err := recettesPeriod.selection()
	if err != nil {
		return err
	}
	var g aggregation.Granularity
	if recettesGroup != "" {
		if g, err = aggregation.ParseGranularity(recettesGroup); err != nil {
			return err
		}
	}
	e, err := newEnv()
	if err != nil {
		return err
	}

	records, err := e.recettes.Recettes(cmd.Context(), service.RecettesQuery{Period: period, GroupBy: string(g)})
	if err != nil {
		return err
	}
	if g == "" {
		g = aggregation.DetectGranularity(records)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCOMMANDES\tRECETTES")
	for _, p := range aggregation.FlattenDateGroups(records, g) {
		fmt.Fprintf(w, "%s\t%d\t%.2f\n", p.Date, p.Commandes, p.Recettes)
	}
	summary := aggregation.SummarizeSeries(records)
	fmt.Fprintf(w, "TOTAL\t%d\t%.2f\n", summary.Commandes, summary.Recettes)
	return w.Flush()
}

// comparison - итоги дня и изменение относительно предыдущего дня
type comparison struct {
	Date     string                  `json:"date"`
	Previous string                  `json:"previous"`
	Current  domain.PeriodTotals     `json:"current"`
	Before   domain.PeriodTotals     `json:"before"`
	Deltas   aggregation.TotalsDelta `json:"deltas"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	if err := domain.SingleDate(compareDate).Validate(); err != nil {
		return err
	}
	previous, err := domain.PreviousDay(compareDate)
	if err != nil {
		return err
	}
	e, err := newEnv()
	if err != nil {
		return err
	}

	current, err := e.stats.Overview(cmd.Context(), domain.SingleDate(compareDate))
	if err != nil {
		return err
	}
	before, err := e.stats.Overview(cmd.Context(), domain.SingleDate(previous))
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), comparison{
		Date:     compareDate,
		Previous: previous,
		Current:  current.Totals(),
		Before:   before.Totals(),
		Deltas:   aggregation.CompareTotals(current.Totals(), before.Totals()),
	})
}
