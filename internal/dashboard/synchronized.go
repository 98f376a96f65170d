package dashboard

import (
	"context"
	"errors"
	"math"

	"github.com/KruglovEgor/RestoStats/internal/aggregation"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/watcher"
)

// SynchronizedSummary - общая сводка, доступная после загрузки всех блоков
type SynchronizedSummary struct {
	Day             domain.PeriodTotals `json:"day"`
	Month           domain.PeriodTotals `json:"month"`
	Year            domain.PeriodTotals `json:"year"`
	DayShareOfMonth float64             `json:"dayShareOfMonth"`
	MonthSummary    aggregation.Summary `json:"monthSummary"`
	Presents        int                 `json:"presents"`
	TotalEmployes   int                 `json:"totalEmployes"`
}

// SynchronizedState - состояние четырёх наблюдателей и их общая сводка
type SynchronizedState struct {
	Day       domain.StatResult[domain.OverviewStats]  `json:"day"`
	Month     domain.StatResult[domain.OverviewStats]  `json:"month"`
	Year      domain.StatResult[domain.OverviewStats]  `json:"year"`
	Personnel domain.StatResult[domain.PersonnelStats] `json:"personnel"`
	AllLoaded bool                                     `json:"allLoaded"`
	Summary   *SynchronizedSummary                     `json:"summary,omitempty"`
}

// SynchronizedStats держит наблюдателей за день, месяц, год и персонал.
// Сводка считается только когда ни один из них не находится в loading.
type SynchronizedStats struct {
	day       *watcher.Watcher[domain.PeriodSelection, domain.OverviewStats]
	month     *watcher.Watcher[domain.PeriodSelection, domain.OverviewStats]
	year      *watcher.Watcher[domain.PeriodSelection, domain.OverviewStats]
	personnel *watcher.Watcher[domain.PeriodSelection, domain.PersonnelStats]
}

func newSynchronizedStats(l *Loader, opts Options, deps watcher.Deps) *SynchronizedStats {
	overview := func(ctx context.Context, p domain.PeriodSelection) (domain.OverviewStats, error) {
		v, err := l.Overview(ctx, p)
		if err != nil || v == nil {
			return domain.OverviewStats{}, err
		}
		return *v, nil
	}
	personnel := func(ctx context.Context, p domain.PeriodSelection) (domain.PersonnelStats, error) {
		v, err := l.Personnel(ctx, p)
		if err != nil || v == nil {
			return domain.PersonnelStats{}, err
		}
		return *v, nil
	}

	newOverview := func(name, period string) *watcher.Watcher[domain.PeriodSelection, domain.OverviewStats] {
		return watcher.New(watcher.Config[domain.PeriodSelection, domain.OverviewStats]{
			Name:         name,
			Endpoint:     "overview",
			Fetch:        overview,
			Params:       domain.QuickPeriod(period),
			PollInterval: opts.SynchronizedPollInterval,
			InitialDelay: opts.InitialDelay,
		}, deps)
	}

	return &SynchronizedStats{
		day:   newOverview("synchronized.day", domain.QuickToday),
		month: newOverview("synchronized.month", domain.QuickThisMonth),
		year:  newOverview("synchronized.year", domain.QuickThisYear),
		personnel: watcher.New(watcher.Config[domain.PeriodSelection, domain.PersonnelStats]{
			Name:         "synchronized.personnel",
			Endpoint:     "personnel",
			Fetch:        personnel,
			Params:       domain.QuickPeriod(domain.QuickToday),
			PollInterval: opts.SynchronizedPollInterval,
			InitialDelay: opts.InitialDelay,
		}, deps),
	}
}

// Start запускает всех наблюдателей
func (s *SynchronizedStats) Start(ctx context.Context) {
	s.day.Start(ctx)
	s.month.Start(ctx)
	s.year.Start(ctx)
	s.personnel.Start(ctx)
}

// Stop останавливает всех наблюдателей
func (s *SynchronizedStats) Stop() {
	s.day.Stop()
	s.month.Stop()
	s.year.Stop()
	s.personnel.Stop()
}

// State возвращает состояние группы
func (s *SynchronizedStats) State() SynchronizedState {
	st := SynchronizedState{
		Day:       s.day.State(),
		Month:     s.month.State(),
		Year:      s.year.State(),
		Personnel: s.personnel.State(),
	}
	st.AllLoaded = !st.Day.Loading && !st.Month.Loading && !st.Year.Loading && !st.Personnel.Loading
	if st.AllLoaded {
		st.Summary = summarize(st)
	}
	return st
}

// WaitAllLoaded ждёт, пока все наблюдатели выйдут из loading
func (s *SynchronizedStats) WaitAllLoaded(ctx context.Context) (SynchronizedState, error) {
	for {
		if _, err := s.day.WaitLoaded(ctx); err != nil {
			return s.State(), err
		}
		if _, err := s.month.WaitLoaded(ctx); err != nil {
			return s.State(), err
		}
		if _, err := s.year.WaitLoaded(ctx); err != nil {
			return s.State(), err
		}
		if _, err := s.personnel.WaitLoaded(ctx); err != nil {
			return s.State(), err
		}
		// пока ждали последнего, первый мог начать новую загрузку
		if st := s.State(); st.AllLoaded {
			return st, nil
		}
	}
}

// Refetch вручную обновляет всю группу
func (s *SynchronizedStats) Refetch(ctx context.Context) (SynchronizedState, error) {
	_, errDay := s.day.Refetch(ctx)
	_, errMonth := s.month.Refetch(ctx)
	_, errYear := s.year.Refetch(ctx)
	_, errPersonnel := s.personnel.Refetch(ctx)
	return s.State(), errors.Join(errDay, errMonth, errYear, errPersonnel)
}

// summarize возвращает nil, если хотя бы у одного блока нет данных
func summarize(st SynchronizedState) *SynchronizedSummary {
	if st.Day.Data == nil || st.Month.Data == nil || st.Year.Data == nil {
		return nil
	}

	day, month, year := st.Day.Data.Totals(), st.Month.Data.Totals(), st.Year.Data.Totals()
	summary := &SynchronizedSummary{
		Day:   day,
		Month: month,
		Year:  year,
		MonthSummary: aggregation.SummarizeSeries([]domain.DateGroupRecord{
			{Commandes: month.Commandes, Recettes: month.Recettes},
		}),
	}
	if month.Recettes > 0 {
		summary.DayShareOfMonth = math.Round(day.Recettes/month.Recettes*10000) / 100
	}
	if st.Personnel.Data != nil {
		summary.Presents = st.Personnel.Data.Presents
		summary.TotalEmployes = st.Personnel.Data.TotalEmployes
	}
	return summary
}
