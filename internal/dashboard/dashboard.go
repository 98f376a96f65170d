package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/service"
	"github.com/KruglovEgor/RestoStats/internal/watcher"
)

// Имена представлений для маршрута /dashboard/{name}/refetch
const (
	ViewAdvanced     = "advanced"
	ViewCaisse       = "caisse"
	ViewRecettes     = "recettes"
	ViewSynchronized = "synchronized"
)

// Options - настройки наблюдателей дашборда
type Options struct {
	InitialDelay             time.Duration
	RecettesPollInterval     time.Duration
	SynchronizedPollInterval time.Duration
	RefreshOnVisible         bool
	// Now задаёт текущую дату для параметров по умолчанию
	Now func() time.Time
}

// Dashboard владеет наблюдателями всех экранов
type Dashboard struct {
	Advanced     *watcher.Watcher[domain.PeriodSelection, AdvancedData]
	Caisse       *watcher.Watcher[string, CaisseData]
	Recettes     *watcher.Watcher[service.RecettesQuery, []domain.DateGroupRecord]
	Synchronized *SynchronizedStats

	loader *Loader
	logger *zap.Logger
}

// New создаёт наблюдателей с параметрами по умолчанию: сегодняшний день
func New(loader *Loader, opts Options, deps watcher.Deps) *Dashboard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	today := opts.Now().Format(domain.DateLayout)

	return &Dashboard{
		Advanced: watcher.New(watcher.Config[domain.PeriodSelection, AdvancedData]{
			Name:             ViewAdvanced,
			Fetch:            loader.Advanced,
			Params:           domain.QuickPeriod(domain.QuickToday),
			InitialDelay:     opts.InitialDelay,
			RefreshOnVisible: opts.RefreshOnVisible,
		}, deps),
		Caisse: watcher.New(watcher.Config[string, CaisseData]{
			Name:             ViewCaisse,
			Fetch:            loader.Caisse,
			Params:           today,
			InitialDelay:     opts.InitialDelay,
			RefreshOnVisible: opts.RefreshOnVisible,
		}, deps),
		Recettes: watcher.New(watcher.Config[service.RecettesQuery, []domain.DateGroupRecord]{
			Name:         ViewRecettes,
			Fetch:        loader.Recettes,
			Params:       service.RecettesQuery{Period: domain.SingleDate(today), GroupBy: "day"},
			PollInterval: opts.RecettesPollInterval,
			InitialDelay: opts.InitialDelay,
		}, deps),
		Synchronized: newSynchronizedStats(loader, opts, deps),
		loader:       loader,
		logger:       deps.Logger,
	}
}

// Loader возвращает загрузчик с кэшем
func (d *Dashboard) Loader() *Loader {
	return d.loader
}

// Start запускает всех наблюдателей
func (d *Dashboard) Start(ctx context.Context) {
	d.Advanced.Start(ctx)
	d.Caisse.Start(ctx)
	d.Recettes.Start(ctx)
	d.Synchronized.Start(ctx)
	d.logger.Info("dashboard watchers started")
}

// Stop останавливает всех наблюдателей и ждёт их завершения
func (d *Dashboard) Stop() {
	d.Advanced.Stop()
	d.Caisse.Stop()
	d.Recettes.Stop()
	d.Synchronized.Stop()
	d.logger.Info("dashboard watchers stopped")
}

// Refetch вручную обновляет представление name и возвращает его состояние
func (d *Dashboard) Refetch(ctx context.Context, name string) (any, error) {
	switch name {
	case ViewAdvanced:
		return d.Advanced.Refetch(ctx)
	case ViewCaisse:
		return d.Caisse.Refetch(ctx)
	case ViewRecettes:
		state, err := d.Recettes.Refetch(ctx)
		return BuildRecettesView(state, d.Recettes.DataParams()), err
	case ViewSynchronized:
		return d.Synchronized.Refetch(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown dashboard view %q", domain.ErrNotFound, name)
	}
}
