package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// periodFlags - общий набор флагов выбора периода
type periodFlags struct {
	quick string
	date  string
	from  string
	to    string
}

func (f *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.quick, "period", "p", "", "Quick period: today, yesterday, this_week, this_month, this_year")
	cmd.Flags().StringVar(&f.date, "date", "", "Single date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.from, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Range end (YYYY-MM-DD)")
}

// selection возвращает выбранный период; без флагов - сегодня
func (f *periodFlags) selection() (domain.PeriodSelection, error) {
	var p domain.PeriodSelection
	set := 0
	if f.quick != "" {
		p = domain.QuickPeriod(f.quick)
		set++
	}
	if f.date != "" {
		p = domain.SingleDate(f.date)
		set++
	}
	if f.from != "" || f.to != "" {
		p = domain.DateRangePeriod(f.from, f.to)
		set++
	}

	switch set {
	case 0:
		return domain.QuickPeriod(domain.QuickToday), nil
	case 1:
	default:
		return domain.PeriodSelection{}, fmt.Errorf("%w: use only one of --period, --date or --from/--to", domain.ErrInvalidInput)
	}

	if err := p.Validate(); err != nil {
		return domain.PeriodSelection{}, err
	}
	return p, nil
}
